// Package transform reshapes a combined analysis result plus the raw
// reviews into the three view models the dashboard tabs consume. Every
// function here is a pure mapping; missing or partial input degrades to
// zero values rather than errors.
package transform

import (
	"sort"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/tbourn/go-review-insights/internal/domain"
)

// maxTopicsPerReview caps the topic names attached to a single review.
const maxTopicsPerReview = 5

var titleCaser = cases.Title(language.English)

// MonthPoint is one time-series bucket (calendar month).
type MonthPoint struct {
	Period    string  `json:"period"` // "YYYY-MM"
	Count     int     `json:"count"`
	AvgRating float64 `json:"avg_rating"`
}

// OverviewTabData backs the overview tab.
type OverviewTabData struct {
	App                *domain.AppInfo              `json:"app,omitempty"`
	TotalReviews       int                          `json:"total_reviews"`
	AverageRating      float64                      `json:"average_rating"`
	RatingDistribution map[int]int                  `json:"rating_distribution"`
	Sentiment          domain.SentimentDistribution `json:"sentiment"`
	TimeSeries         []MonthPoint                 `json:"time_series"`
	TopTopics          []TopicView                  `json:"top_topics"`
}

// ReviewView is one review enriched for display.
type ReviewView struct {
	domain.ReviewRecord
	Sentiment float64  `json:"sentiment"`
	Topics    []string `json:"topics,omitempty"`
}

// ReviewsTabData backs the reviews tab.
type ReviewsTabData struct {
	Reviews []ReviewView `json:"reviews"`
	Total   int          `json:"total"`
}

// TopicView is one topic prepared for display: the raw term title-cased
// and the average rating mapped onto a signed sentiment in [-1, 1].
type TopicView struct {
	Name      string  `json:"name"`
	Term      string  `json:"term"`
	Count     int     `json:"count"`
	AvgRating float64 `json:"avg_rating"`
	Sentiment float64 `json:"sentiment"`
	TfIdf     float64 `json:"tfidf"`
}

// TopicsTabData backs the topics tab.
type TopicsTabData struct {
	Topics  []TopicView             `json:"topics"`
	Phrases []string                `json:"phrases,omitempty"`
	Bigrams []domain.TokenFrequency `json:"bigrams,omitempty"`
}

// Overview builds the overview tab model.
func Overview(result *domain.CombinedAnalysisResult, reviews []domain.ReviewRecord, app *domain.AppInfo) OverviewTabData {
	out := OverviewTabData{
		App:                app,
		TotalReviews:       len(reviews),
		RatingDistribution: ratingDistribution(reviews),
		TimeSeries:         monthlySeries(reviews),
	}
	if len(reviews) > 0 {
		var sum float64
		for _, r := range reviews {
			sum += r.Score
		}
		out.AverageRating = sum / float64(len(reviews))
	}
	if result != nil {
		out.Sentiment = result.Sentiment.Distribution
		out.TopTopics = topicViews(result.Topics.Frequent)
	}
	return out
}

// Reviews builds the reviews tab model: every review annotated with its
// sentiment comparative and up to five matching topic terms.
func Reviews(result *domain.CombinedAnalysisResult, reviews []domain.ReviewRecord) ReviewsTabData {
	var perReview []domain.ReviewSentiment
	var terms []string
	if result != nil {
		perReview = result.Sentiment.PerReview
		for _, t := range result.Topics.List {
			terms = append(terms, t.Name)
		}
	}

	views := make([]ReviewView, len(reviews))
	for i, r := range reviews {
		v := ReviewView{ReviewRecord: r}
		if i < len(perReview) {
			v.Sentiment = perReview[i].Comparative
		}
		v.Topics = matchTopics(r.Text, terms)
		views[i] = v
	}
	return ReviewsTabData{Reviews: views, Total: len(views)}
}

// Topics builds the topics tab model.
func Topics(result *domain.CombinedAnalysisResult) TopicsTabData {
	if result == nil {
		return TopicsTabData{}
	}
	return TopicsTabData{
		Topics:  topicViews(result.Topics.List),
		Phrases: result.Topics.Phrases,
		Bigrams: result.Topics.Bigrams,
	}
}

// TopicSentiment maps an average star rating onto [-1, 1]: 3 stars is
// neutral, 5 is +1, 1 is -1.
func TopicSentiment(avgRating float64) float64 {
	return (avgRating - 3) / 2
}

func topicViews(topics []domain.Topic) []TopicView {
	out := make([]TopicView, len(topics))
	for i, t := range topics {
		out[i] = TopicView{
			Name:      titleCaser.String(t.Name),
			Term:      t.Name,
			Count:     t.Count,
			AvgRating: t.AvgRating,
			Sentiment: TopicSentiment(t.AvgRating),
			TfIdf:     t.TfIdf,
		}
	}
	return out
}

func ratingDistribution(reviews []domain.ReviewRecord) map[int]int {
	dist := map[int]int{1: 0, 2: 0, 3: 0, 4: 0, 5: 0}
	for _, r := range reviews {
		star := int(r.Score)
		if star >= 1 && star <= 5 {
			dist[star]++
		}
	}
	return dist
}

// monthlySeries buckets reviews by calendar month, sorted chronologically.
// Reviews without a date are skipped.
func monthlySeries(reviews []domain.ReviewRecord) []MonthPoint {
	type agg struct {
		count int
		sum   float64
	}
	buckets := make(map[string]*agg)
	for _, r := range reviews {
		if r.Date.IsZero() {
			continue
		}
		period := r.Date.Format("2006-01")
		b, ok := buckets[period]
		if !ok {
			b = &agg{}
			buckets[period] = b
		}
		b.count++
		b.sum += r.Score
	}

	out := make([]MonthPoint, 0, len(buckets))
	for period, b := range buckets {
		out = append(out, MonthPoint{
			Period:    period,
			Count:     b.count,
			AvgRating: b.sum / float64(b.count),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Period < out[j].Period })
	return out
}

// matchTopics returns up to maxTopicsPerReview topic terms that occur as
// substrings of the review text, preserving the terms' ranking order.
func matchTopics(text string, terms []string) []string {
	if text == "" || len(terms) == 0 {
		return nil
	}
	lower := strings.ToLower(text)
	var out []string
	for _, term := range terms {
		if strings.Contains(lower, term) {
			out = append(out, term)
			if len(out) == maxTopicsPerReview {
				break
			}
		}
	}
	return out
}

// Filter narrows a review list for the reviews tab. Zero-valued fields
// match everything.
type Filter struct {
	// Search matches case-insensitively against review text and author.
	Search string
	// Rating keeps only reviews with this star value (1..5).
	Rating int
	// Sentiment keeps one band: "positive" (>=4), "neutral" (3) or
	// "negative" (<=2), judged on the star rating.
	Sentiment string
	// From and To bound the review date, inclusive. Zero means unbounded.
	From time.Time
	To   time.Time
}

// Apply returns the reviews matching the filter, preserving input order.
func (f Filter) Apply(reviews []ReviewView) []ReviewView {
	search := strings.ToLower(f.Search)
	out := make([]ReviewView, 0, len(reviews))
	for _, r := range reviews {
		if search != "" &&
			!strings.Contains(strings.ToLower(r.Text), search) &&
			!strings.Contains(strings.ToLower(r.Author), search) {
			continue
		}
		if f.Rating != 0 && int(r.Score) != f.Rating {
			continue
		}
		if f.Sentiment != "" && sentimentBand(r.Score) != f.Sentiment {
			continue
		}
		if !f.From.IsZero() && r.Date.Before(f.From) {
			continue
		}
		if !f.To.IsZero() && r.Date.After(f.To) {
			continue
		}
		out = append(out, r)
	}
	return out
}

func sentimentBand(score float64) string {
	switch {
	case score >= 4:
		return "positive"
	case score <= 2:
		return "negative"
	default:
		return "neutral"
	}
}

// Sort orders for SortReviews.
const (
	SortNewest  = "newest"
	SortOldest  = "oldest"
	SortRating  = "rating"
	SortHelpful = "helpful"
)

// SortReviews sorts a copy-free slice in place by the given order. Unknown
// orders sort by newest first.
func SortReviews(reviews []ReviewView, order string) {
	switch order {
	case SortOldest:
		sort.SliceStable(reviews, func(i, j int) bool { return reviews[i].Date.Before(reviews[j].Date) })
	case SortRating:
		sort.SliceStable(reviews, func(i, j int) bool { return reviews[i].Score > reviews[j].Score })
	case SortHelpful:
		sort.SliceStable(reviews, func(i, j int) bool { return reviews[i].LikesCount > reviews[j].LikesCount })
	default:
		sort.SliceStable(reviews, func(i, j int) bool { return reviews[i].Date.After(reviews[j].Date) })
	}
}
