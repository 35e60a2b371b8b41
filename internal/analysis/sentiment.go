package analysis

import (
	"context"

	"github.com/tbourn/go-review-insights/internal/domain"
	"github.com/tbourn/go-review-insights/internal/text"
)

// SentimentAnalyzer scores each review with a lexicon-based sentiment model
// and aggregates the scores into a positive/neutral/negative distribution.
type SentimentAnalyzer struct {
	tracker *progressTracker
}

// NewSentimentAnalyzer returns a ready analyzer.
func NewSentimentAnalyzer() *SentimentAnalyzer {
	return &SentimentAnalyzer{tracker: newProgressTracker()}
}

// Progress returns the analyzer's current progress snapshot.
func (a *SentimentAnalyzer) Progress() domain.AnalysisProgress { return a.tracker.snapshot() }

// Reset returns the analyzer to idle.
func (a *SentimentAnalyzer) Reset() { a.tracker.reset() }

// Analyze processes reviews in batches of batchSize, yielding to ctx at
// every batch boundary. The input slice is never mutated.
func (a *SentimentAnalyzer) Analyze(ctx context.Context, reviews []domain.ReviewRecord, batchSize int) (domain.SentimentResult, error) {
	a.tracker.start(domain.AnalyzerSentiment)
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}

	perReview := make([]domain.ReviewSentiment, 0, len(reviews))
	var pos, neu, neg int
	var scoreSum, confSum float64

	for i := 0; i < len(reviews); i += batchSize {
		select {
		case <-ctx.Done():
			a.tracker.fail(domain.AnalyzerSentiment, ctx.Err())
			return domain.SentimentResult{}, ctx.Err()
		default:
		}

		end := i + batchSize
		if end > len(reviews) {
			end = len(reviews)
		}
		for j := i; j < end; j++ {
			s := scoreReview(&reviews[j])
			perReview = append(perReview, s)
			scoreSum += s.Score
			confSum += s.Confidence
			switch {
			case s.Comparative > 0.1:
				pos++
			case s.Comparative < -0.1:
				neg++
			default:
				neu++
			}
		}
		a.tracker.advance(end, len(reviews))
	}

	result := domain.SentimentResult{PerReview: perReview}
	if n := len(reviews); n > 0 {
		result.Distribution = domain.SentimentDistribution{
			Positive: float64(pos) / float64(n) * 100,
			Neutral:  float64(neu) / float64(n) * 100,
			Negative: float64(neg) / float64(n) * 100,
		}
		result.AverageScore = scoreSum / float64(n)
		result.AverageConfidence = confSum / float64(n)
	}

	a.tracker.complete(domain.AnalyzerSentiment)
	return result, nil
}

// scoreReview runs the lexicon scorer over one review and derives a
// confidence value from text length and score/rating agreement.
func scoreReview(r *domain.ReviewRecord) domain.ReviewSentiment {
	tokens := text.Tokenize(r.Text)
	score := text.SentimentScore(tokens)

	comparative := 0.0
	if len(tokens) > 0 {
		comparative = score / float64(len(tokens))
	}

	return domain.ReviewSentiment{
		Score:       score,
		Comparative: comparative,
		Confidence:  sentimentConfidence(r, score),
		Language:    text.LanguageHint(r.Text),
		TokenCount:  len(tokens),
	}
}

// sentimentConfidence blends text length (longer reviews give the lexicon
// more signal, saturating at 100 characters) with agreement between the
// lexicon score's sign and the star rating's side of neutral.
func sentimentConfidence(r *domain.ReviewRecord, score float64) float64 {
	lengthConf := float64(len(r.Text)) / 100
	if lengthConf > 1 {
		lengthConf = 1
	}

	agreement := 0.5
	switch {
	case score > 0 && r.Score >= 4:
		agreement = 1
	case score < 0 && r.Score <= 2:
		agreement = 1
	case score == 0 && r.Score == 3:
		agreement = 1
	case score > 0 && r.Score <= 2, score < 0 && r.Score >= 4:
		agreement = 0
	}

	return lengthConf*0.3 + agreement*0.7
}
