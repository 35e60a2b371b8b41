// Typed analysis results.
//
// The analyzers, the orchestrator, and the presentation transformer all
// exchange the record types in this file. Every analyzer contributes one
// named substructure to CombinedAnalysisResult; nothing downstream needs to
// sniff dynamic shapes.
package domain

import "time"

// ReviewRecord is one user review as delivered by the scraper. Records are
// immutable once ingested; analyzers must not modify them.
type ReviewRecord struct {
	ID         string    `json:"id"`
	Text       string    `json:"text"`
	Score      float64   `json:"score"` // 1..5 stars
	Date       time.Time `json:"date"`
	Author     string    `json:"author,omitempty"`
	Device     string    `json:"device,omitempty"`
	Version    string    `json:"version,omitempty"`
	LikesCount int       `json:"likes_count,omitempty"`
}

// Valid reports whether the review carries enough data to analyze: non-empty
// text and a positive numeric score. The orchestrator filters on this before
// any analyzer runs, so analyzers may assume well-formed input.
func (r ReviewRecord) Valid() bool {
	return r.Text != "" && r.Score > 0
}

// Stage is the lifecycle phase of one analyzer within a run.
type Stage string

// Analyzer lifecycle stages.
const (
	StageIdle      Stage = "idle"
	StageRunning   Stage = "running"
	StageCompleted Stage = "completed"
	StageError     Stage = "error"
)

// AnalysisProgress is the externally visible state of one analyzer. It is
// mutated only by the analyzer that owns it and read by polling; Progress is
// monotonically non-decreasing within a run and resets to 0 when a new run
// starts.
type AnalysisProgress struct {
	Stage    Stage  `json:"stage"`
	Progress int    `json:"progress"` // 0..100
	Details  string `json:"details,omitempty"`
	Error    string `json:"error,omitempty"`
}

// Analyzer names used as keys in progress maps and log fields.
const (
	AnalyzerPatterns  = "patterns"
	AnalyzerSentiment = "sentiment"
	AnalyzerTopics    = "topics"
)

// TokenFrequency is a token (or phrase) and the number of reviews-wide
// occurrences counted for it.
type TokenFrequency struct {
	Token string `json:"token"`
	Count int    `json:"count"`
}

// TimePattern aggregates the reviews of one calendar month.
type TimePattern struct {
	// Period is "YYYY-MM".
	Period    string   `json:"period"`
	Frequency int      `json:"frequency"`
	AvgRating float64  `json:"avg_rating"`
	Keywords  []string `json:"keywords"`
}

// RatingPattern aggregates the reviews sharing one star rating.
type RatingPattern struct {
	Rating        int      `json:"rating"`
	Frequency     int      `json:"frequency"`
	CommonPhrases []string `json:"common_phrases"`
}

// Correlation reports the Pearson correlation of one review attribute
// against the star rating.
type Correlation struct {
	Factor       string  `json:"factor"`
	Correlation  float64 `json:"correlation"`
	Significance float64 `json:"significance"`
}

// PatternResult is the pattern analyzer's output.
type PatternResult struct {
	// Frequency holds tokens appearing in more than 10% of reviews, capped
	// at the 20 most frequent.
	Frequency []TokenFrequency `json:"frequency"`
	// TimeBased holds per-month aggregates ordered by review volume.
	TimeBased []TimePattern `json:"time_based"`
	// Rating holds per-star aggregates.
	Rating []RatingPattern `json:"rating"`
	// Correlations currently carries review_length vs rating.
	Correlations []Correlation `json:"correlations"`
	Confidence   float64       `json:"confidence"`
}

// ReviewSentiment is the lexicon-scored sentiment of a single review.
type ReviewSentiment struct {
	// Score is the summed lexicon valence over the review's tokens
	// (roughly -5..5 per token).
	Score float64 `json:"score"`
	// Comparative is Score normalized by token count.
	Comparative float64 `json:"comparative"`
	// Confidence blends text length and rating agreement into 0..1.
	Confidence float64 `json:"confidence"`
	// Language is a best-effort language hint ("en" unless the text looks
	// non-Latin).
	Language   string `json:"language"`
	TokenCount int    `json:"token_count"`
}

// SentimentDistribution is the percentage split of reviews by sentiment
// band.
type SentimentDistribution struct {
	Positive float64 `json:"positive"`
	Neutral  float64 `json:"neutral"`
	Negative float64 `json:"negative"`
}

// SentimentResult is the sentiment analyzer's output.
type SentimentResult struct {
	// PerReview is indexed parallel to the filtered input review slice.
	PerReview         []ReviewSentiment     `json:"per_review"`
	Distribution      SentimentDistribution `json:"distribution"`
	AverageScore      float64               `json:"average_score"`
	AverageConfidence float64               `json:"average_confidence"`
}

// Topic is one extracted topic term with its aggregates.
type Topic struct {
	Name      string  `json:"name"`
	Count     int     `json:"count"`
	AvgRating float64 `json:"avg_rating"`
	TfIdf     float64 `json:"tfidf"`
}

// TopicResult is the topic analyzer's output.
type TopicResult struct {
	// List holds every extracted topic ordered by count descending.
	List []Topic `json:"list"`
	// Phrases holds the top key phrases (unigrams by frequency).
	Phrases []string `json:"phrases"`
	// Frequent holds the top topics (a prefix of List, capped at 10).
	Frequent []Topic `json:"frequent"`
	// Bigrams holds two-word phrase counts.
	Bigrams    []TokenFrequency `json:"bigrams"`
	Confidence float64          `json:"confidence"`
}

// AnalysisStats summarizes one orchestrator run.
type AnalysisStats struct {
	TotalReviews     int      `json:"total_reviews"`
	ProcessingTimeMs int64    `json:"processing_time_ms"`
	Errors           []string `json:"errors,omitempty"`
}

// CombinedAnalysisResult is the orchestrator's merged output and the value
// type stored in the result cache. It is immutable once produced.
type CombinedAnalysisResult struct {
	Patterns  PatternResult   `json:"patterns"`
	Sentiment SentimentResult `json:"sentiment"`
	Topics    TopicResult     `json:"topics"`
	Stats     AnalysisStats   `json:"stats"`
}
