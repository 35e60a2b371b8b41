package transform

import (
	"math"
	"testing"
	"time"

	"github.com/tbourn/go-review-insights/internal/domain"
)

func review(id, text string, score float64, date time.Time) domain.ReviewRecord {
	return domain.ReviewRecord{ID: id, Text: text, Score: score, Date: date}
}

func sampleReviews() []domain.ReviewRecord {
	return []domain.ReviewRecord{
		review("a", "battery drains too fast", 2, time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC)),
		review("b", "love the new design", 5, time.Date(2025, 1, 20, 0, 0, 0, 0, time.UTC)),
		review("c", "crashes after update", 1, time.Date(2025, 2, 5, 0, 0, 0, 0, time.UTC)),
		review("d", "battery life is fine now", 4, time.Date(2025, 2, 25, 0, 0, 0, 0, time.UTC)),
	}
}

func sampleResult() *domain.CombinedAnalysisResult {
	return &domain.CombinedAnalysisResult{
		Sentiment: domain.SentimentResult{
			PerReview: []domain.ReviewSentiment{
				{Comparative: -0.4}, {Comparative: 0.6}, {Comparative: -0.7}, {Comparative: 0.2},
			},
			Distribution: domain.SentimentDistribution{Positive: 50, Neutral: 0, Negative: 50},
		},
		Topics: domain.TopicResult{
			List: []domain.Topic{
				{Name: "battery", Count: 2, AvgRating: 3, TfIdf: 1.5},
				{Name: "crashes", Count: 1, AvgRating: 1, TfIdf: 1.2},
				{Name: "design", Count: 1, AvgRating: 5, TfIdf: 1.1},
			},
			Frequent: []domain.Topic{{Name: "battery", Count: 2, AvgRating: 3}},
			Phrases:  []string{"battery", "design"},
		},
	}
}

func TestOverviewDistributionAndSeries(t *testing.T) {
	out := Overview(sampleResult(), sampleReviews(), &domain.AppInfo{Title: "Example"})

	if out.TotalReviews != 4 {
		t.Errorf("total = %d, want 4", out.TotalReviews)
	}
	if want := (2.0 + 5 + 1 + 4) / 4; math.Abs(out.AverageRating-want) > 1e-9 {
		t.Errorf("avg rating = %v, want %v", out.AverageRating, want)
	}

	for star, want := range map[int]int{1: 1, 2: 1, 3: 0, 4: 1, 5: 1} {
		if got := out.RatingDistribution[star]; got != want {
			t.Errorf("distribution[%d] = %d, want %d", star, got, want)
		}
	}

	if len(out.TimeSeries) != 2 {
		t.Fatalf("series = %d buckets, want 2", len(out.TimeSeries))
	}
	jan, feb := out.TimeSeries[0], out.TimeSeries[1]
	if jan.Period != "2025-01" || feb.Period != "2025-02" {
		t.Errorf("series order = %s,%s, want chronological", jan.Period, feb.Period)
	}
	if jan.Count != 2 || math.Abs(jan.AvgRating-3.5) > 1e-9 {
		t.Errorf("january bucket = %+v, want count 2 avg 3.5", jan)
	}

	if out.App == nil || out.App.Title != "Example" {
		t.Errorf("app info not carried: %+v", out.App)
	}
}

func TestOverviewNilResult(t *testing.T) {
	out := Overview(nil, nil, nil)
	if out.TotalReviews != 0 || out.AverageRating != 0 || len(out.TopTopics) != 0 {
		t.Errorf("nil input mapped to %+v, want zeros", out)
	}
}

func TestReviewsAnnotation(t *testing.T) {
	out := Reviews(sampleResult(), sampleReviews())
	if out.Total != 4 {
		t.Fatalf("total = %d, want 4", out.Total)
	}
	if out.Reviews[1].Sentiment != 0.6 {
		t.Errorf("sentiment[1] = %v, want 0.6", out.Reviews[1].Sentiment)
	}
	if got := out.Reviews[0].Topics; len(got) != 1 || got[0] != "battery" {
		t.Errorf("topics[0] = %v, want [battery]", got)
	}
	if got := out.Reviews[2].Topics; len(got) != 1 || got[0] != "crashes" {
		t.Errorf("topics[2] = %v, want [crashes]", got)
	}
}

func TestReviewTopicCap(t *testing.T) {
	result := &domain.CombinedAnalysisResult{
		Topics: domain.TopicResult{List: []domain.Topic{
			{Name: "alpha"}, {Name: "beta"}, {Name: "gamma"},
			{Name: "delta"}, {Name: "epsilon"}, {Name: "zeta"},
		}},
	}
	reviews := []domain.ReviewRecord{
		review("x", "alpha beta gamma delta epsilon zeta", 3, time.Time{}),
	}
	out := Reviews(result, reviews)
	if got := len(out.Reviews[0].Topics); got != maxTopicsPerReview {
		t.Errorf("topics = %d, want cap of %d", got, maxTopicsPerReview)
	}
}

func TestTopicsSentimentMapping(t *testing.T) {
	out := Topics(sampleResult())
	if len(out.Topics) != 3 {
		t.Fatalf("topics = %d, want 3", len(out.Topics))
	}
	cases := map[string]float64{"battery": 0, "crashes": -1, "design": 1}
	for _, tv := range out.Topics {
		want, ok := cases[tv.Term]
		if !ok {
			t.Errorf("unexpected topic %q", tv.Term)
			continue
		}
		if math.Abs(tv.Sentiment-want) > 1e-9 {
			t.Errorf("%s sentiment = %v, want %v", tv.Term, tv.Sentiment, want)
		}
	}
	for _, tv := range out.Topics {
		if tv.Name != "" && tv.Name == tv.Term {
			t.Errorf("display name %q not title-cased", tv.Name)
		}
	}
}

func TestFilterApply(t *testing.T) {
	views := Reviews(sampleResult(), sampleReviews()).Reviews

	t.Run("search", func(t *testing.T) {
		got := Filter{Search: "BATTERY"}.Apply(views)
		if len(got) != 2 {
			t.Errorf("matches = %d, want 2", len(got))
		}
	})

	t.Run("rating", func(t *testing.T) {
		got := Filter{Rating: 5}.Apply(views)
		if len(got) != 1 || got[0].ID != "b" {
			t.Errorf("got %+v, want the single 5-star review", got)
		}
	})

	t.Run("sentiment band", func(t *testing.T) {
		got := Filter{Sentiment: "negative"}.Apply(views)
		if len(got) != 2 {
			t.Errorf("negative = %d, want 2", len(got))
		}
	})

	t.Run("date range", func(t *testing.T) {
		got := Filter{
			From: time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC),
			To:   time.Date(2025, 2, 28, 0, 0, 0, 0, time.UTC),
		}.Apply(views)
		if len(got) != 2 {
			t.Errorf("february reviews = %d, want 2", len(got))
		}
	})

	t.Run("zero filter matches all", func(t *testing.T) {
		if got := (Filter{}).Apply(views); len(got) != len(views) {
			t.Errorf("matches = %d, want all %d", len(got), len(views))
		}
	})
}

func TestSortReviews(t *testing.T) {
	fresh := func() []ReviewView { return Reviews(sampleResult(), sampleReviews()).Reviews }

	t.Run("newest default", func(t *testing.T) {
		views := fresh()
		SortReviews(views, "")
		if views[0].ID != "d" || views[3].ID != "a" {
			t.Errorf("order = %s..%s, want d..a", views[0].ID, views[3].ID)
		}
	})

	t.Run("oldest", func(t *testing.T) {
		views := fresh()
		SortReviews(views, SortOldest)
		if views[0].ID != "a" {
			t.Errorf("first = %s, want a", views[0].ID)
		}
	})

	t.Run("rating", func(t *testing.T) {
		views := fresh()
		SortReviews(views, SortRating)
		if views[0].Score != 5 || views[3].Score != 1 {
			t.Errorf("rating order = %v..%v, want 5..1", views[0].Score, views[3].Score)
		}
	})
}
