package analysis

import (
	"context"
	"sort"

	"github.com/tbourn/go-review-insights/internal/domain"
	"github.com/tbourn/go-review-insights/internal/text"
)

// TopicAnalyzer extracts dominant topics from review text: content tokens
// counted and TF-IDF weighted across the review corpus, plus key phrase and
// bigram summaries.
type TopicAnalyzer struct {
	tracker   *progressTracker
	maxTopics int
}

// NewTopicAnalyzer returns an analyzer that caps its Frequent and Bigrams
// summaries at maxTopics entries. Non-positive values fall back to 10.
func NewTopicAnalyzer(maxTopics int) *TopicAnalyzer {
	if maxTopics <= 0 {
		maxTopics = 10
	}
	return &TopicAnalyzer{tracker: newProgressTracker(), maxTopics: maxTopics}
}

// Progress returns the analyzer's current progress snapshot.
func (a *TopicAnalyzer) Progress() domain.AnalysisProgress { return a.tracker.snapshot() }

// Reset returns the analyzer to idle.
func (a *TopicAnalyzer) Reset() { a.tracker.reset() }

// Analyze processes reviews in batches of batchSize, yielding to ctx at
// every batch boundary. The input slice is never mutated.
func (a *TopicAnalyzer) Analyze(ctx context.Context, reviews []domain.ReviewRecord, batchSize int) (domain.TopicResult, error) {
	a.tracker.start(domain.AnalyzerTopics)
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}

	corpus := text.NewCorpus()
	tokenCounts := make(map[string]int)
	bigramCounts := make(map[string]int)
	ratingSums := make(map[string]float64)
	ratingNs := make(map[string]int)

	for i := 0; i < len(reviews); i += batchSize {
		select {
		case <-ctx.Done():
			a.tracker.fail(domain.AnalyzerTopics, ctx.Err())
			return domain.TopicResult{}, ctx.Err()
		default:
		}

		end := i + batchSize
		if end > len(reviews) {
			end = len(reviews)
		}
		for j := i; j < end; j++ {
			r := &reviews[j]
			tokens := text.ContentTokens(r.Text)
			corpus.AddDocument(tokens)

			seen := make(map[string]struct{})
			for _, tok := range tokens {
				tokenCounts[tok]++
				if _, dup := seen[tok]; !dup {
					seen[tok] = struct{}{}
					ratingSums[tok] += r.Score
					ratingNs[tok]++
				}
			}
			for _, bg := range text.NGrams(tokens, 2) {
				bigramCounts[bg]++
			}
		}
		a.tracker.advance(end, len(reviews))
	}

	list := buildTopics(corpus, tokenCounts, ratingSums, ratingNs)
	frequent := list
	if len(frequent) > a.maxTopics {
		frequent = frequent[:a.maxTopics]
	}

	result := domain.TopicResult{
		List:       list,
		Phrases:    text.TopCounts(tokenCounts, 5),
		Frequent:   frequent,
		Bigrams:    topBigrams(bigramCounts, a.maxTopics),
		Confidence: topicConfidence(reviews, tokenCounts),
	}

	a.tracker.complete(domain.AnalyzerTopics)
	return result, nil
}

// buildTopics assembles one Topic per distinct content token, ordered by
// count descending with lexical tie-breaks. TF-IDF is the term's maximum
// score across the corpus documents.
func buildTopics(corpus *text.Corpus, counts map[string]int, ratingSums map[string]float64, ratingNs map[string]int) []domain.Topic {
	tfidf := make(map[string]float64)
	for i := 0; i < corpus.Len(); i++ {
		for term, score := range corpus.Scores(i) {
			if score > tfidf[term] {
				tfidf[term] = score
			}
		}
	}

	out := make([]domain.Topic, 0, len(counts))
	for term, n := range counts {
		avg := 0.0
		if ratingNs[term] > 0 {
			avg = ratingSums[term] / float64(ratingNs[term])
		}
		out = append(out, domain.Topic{
			Name:      term,
			Count:     n,
			AvgRating: avg,
			TfIdf:     tfidf[term],
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// topBigrams keeps bigrams occurring more than once, ordered by count.
func topBigrams(bigrams map[string]int, k int) []domain.TokenFrequency {
	repeated := make(map[string]int)
	for bg, n := range bigrams {
		if n > 1 {
			repeated[bg] = n
		}
	}
	top := text.TopCounts(repeated, k)
	out := make([]domain.TokenFrequency, len(top))
	for i, bg := range top {
		out[i] = domain.TokenFrequency{Token: bg, Count: repeated[bg]}
	}
	return out
}

// topicConfidence reflects how much usable vocabulary the corpus yielded:
// the share of reviews with content tokens, damped when the vocabulary is
// tiny.
func topicConfidence(reviews []domain.ReviewRecord, tokenCounts map[string]int) float64 {
	if len(reviews) == 0 {
		return 0
	}
	withContent := 0
	for _, r := range reviews {
		if len(text.ContentTokens(r.Text)) > 0 {
			withContent++
		}
	}
	coverage := float64(withContent) / float64(len(reviews))
	vocab := float64(len(tokenCounts)) / 20
	if vocab > 1 {
		vocab = 1
	}
	return coverage*0.7 + vocab*0.3
}
