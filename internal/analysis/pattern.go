package analysis

import (
	"context"
	"math"
	"sort"

	"github.com/tbourn/go-review-insights/internal/domain"
	"github.com/tbourn/go-review-insights/internal/text"
)

// PatternAnalyzer mines structural patterns out of a review set: dominant
// vocabulary, per-month and per-rating aggregates, and the correlation
// between review length and star rating. It owns its progress state and
// holds no other state between runs.
type PatternAnalyzer struct {
	tracker *progressTracker
}

// NewPatternAnalyzer returns a ready analyzer.
func NewPatternAnalyzer() *PatternAnalyzer {
	return &PatternAnalyzer{tracker: newProgressTracker()}
}

// Progress returns the analyzer's current progress snapshot.
func (a *PatternAnalyzer) Progress() domain.AnalysisProgress { return a.tracker.snapshot() }

// Reset returns the analyzer to idle.
func (a *PatternAnalyzer) Reset() { a.tracker.reset() }

// Analyze processes reviews in batches of batchSize, yielding to ctx at
// every batch boundary. The input slice is never mutated.
func (a *PatternAnalyzer) Analyze(ctx context.Context, reviews []domain.ReviewRecord, batchSize int) (domain.PatternResult, error) {
	a.tracker.start(domain.AnalyzerPatterns)
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}

	tokenFreq := make(map[string]int)
	monthGroups := make(map[string][]*domain.ReviewRecord)
	ratingGroups := make(map[int][]*domain.ReviewRecord)

	for i := 0; i < len(reviews); i += batchSize {
		select {
		case <-ctx.Done():
			a.tracker.fail(domain.AnalyzerPatterns, ctx.Err())
			return domain.PatternResult{}, ctx.Err()
		default:
		}

		end := i + batchSize
		if end > len(reviews) {
			end = len(reviews)
		}
		for j := i; j < end; j++ {
			r := &reviews[j]
			for _, tok := range text.Tokenize(r.Text) {
				tokenFreq[tok]++
			}
			if !r.Date.IsZero() {
				period := r.Date.Format("2006-01")
				monthGroups[period] = append(monthGroups[period], r)
			}
			rating := int(r.Score)
			ratingGroups[rating] = append(ratingGroups[rating], r)
		}
		a.tracker.advance(end, len(reviews))
	}

	result := domain.PatternResult{
		Frequency:    significantTokens(tokenFreq, len(reviews)),
		TimeBased:    timePatterns(monthGroups),
		Rating:       ratingPatterns(ratingGroups),
		Correlations: lengthRatingCorrelation(reviews),
		Confidence:   patternConfidence(reviews),
	}

	a.tracker.complete(domain.AnalyzerPatterns)
	return result, nil
}

// significantTokens keeps tokens appearing in more than 10% of reviews,
// capped at the 20 most frequent.
func significantTokens(freq map[string]int, reviewCount int) []domain.TokenFrequency {
	threshold := reviewCount / 10
	out := make([]domain.TokenFrequency, 0)
	for tok, n := range freq {
		if n > threshold {
			out = append(out, domain.TokenFrequency{Token: tok, Count: n})
		}
	}
	sort.Slice(out, func(a, b int) bool {
		if out[a].Count != out[b].Count {
			return out[a].Count > out[b].Count
		}
		return out[a].Token < out[b].Token
	})
	if len(out) > 20 {
		out = out[:20]
	}
	return out
}

func timePatterns(groups map[string][]*domain.ReviewRecord) []domain.TimePattern {
	out := make([]domain.TimePattern, 0, len(groups))
	for period, group := range groups {
		var sum float64
		for _, r := range group {
			sum += r.Score
		}
		out = append(out, domain.TimePattern{
			Period:    period,
			Frequency: len(group),
			AvgRating: sum / float64(len(group)),
			Keywords:  commonKeywords(group, 5),
		})
	}
	sort.Slice(out, func(a, b int) bool {
		if out[a].Frequency != out[b].Frequency {
			return out[a].Frequency > out[b].Frequency
		}
		return out[a].Period < out[b].Period
	})
	return out
}

func ratingPatterns(groups map[int][]*domain.ReviewRecord) []domain.RatingPattern {
	out := make([]domain.RatingPattern, 0, len(groups))
	for rating, group := range groups {
		out = append(out, domain.RatingPattern{
			Rating:        rating,
			Frequency:     len(group),
			CommonPhrases: commonKeywords(group, 5),
		})
	}
	sort.Slice(out, func(a, b int) bool { return out[a].Rating < out[b].Rating })
	return out
}

// commonKeywords counts each token once per review (presence, not raw
// frequency) and returns the k most widespread.
func commonKeywords(group []*domain.ReviewRecord, k int) []string {
	counts := make(map[string]int)
	for _, r := range group {
		seen := make(map[string]struct{})
		for _, tok := range text.Tokenize(r.Text) {
			if _, dup := seen[tok]; dup {
				continue
			}
			seen[tok] = struct{}{}
			counts[tok]++
		}
	}
	return text.TopCounts(counts, k)
}

func lengthRatingCorrelation(reviews []domain.ReviewRecord) []domain.Correlation {
	xs := make([]float64, len(reviews))
	ys := make([]float64, len(reviews))
	for i, r := range reviews {
		xs[i] = float64(len(r.Text))
		ys[i] = r.Score
	}
	corr := pearson(xs, ys)
	return []domain.Correlation{{
		Factor:       "review_length",
		Correlation:  corr,
		Significance: math.Abs(corr),
	}}
}

// pearson computes the Pearson correlation coefficient, returning 0 when
// either series has no variance.
func pearson(x, y []float64) float64 {
	n := float64(len(x))
	if n == 0 {
		return 0
	}
	var sumX, sumY, sumXY, sumX2, sumY2 float64
	for i := range x {
		sumX += x[i]
		sumY += y[i]
		sumXY += x[i] * y[i]
		sumX2 += x[i] * x[i]
		sumY2 += y[i] * y[i]
	}
	den := math.Sqrt((n*sumX2 - sumX*sumX) * (n*sumY2 - sumY*sumY))
	if den == 0 {
		return 0
	}
	return (n*sumXY - sumX*sumY) / den
}

// patternConfidence blends text quality (share of reviews with substantive
// text) with rating diversity (distinct star values out of five).
func patternConfidence(reviews []domain.ReviewRecord) float64 {
	if len(reviews) == 0 {
		return 0
	}
	quality := 0
	distinct := make(map[int]struct{})
	for _, r := range reviews {
		if len(r.Text) > 10 {
			quality++
		}
		distinct[int(r.Score)] = struct{}{}
	}
	textQuality := float64(quality) / float64(len(reviews))
	ratingSpread := float64(len(distinct)) / 5
	return textQuality*0.6 + ratingSpread*0.4
}
