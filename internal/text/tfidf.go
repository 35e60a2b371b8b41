package text

import "math"

// Corpus accumulates documents (as token slices) and computes TF-IDF
// scores over them. The zero value is not usable; construct with NewCorpus.
//
// Scoring uses the classic formulation
//
//	tfidf(t) = tf(t, doc) * (1 + log(N / df(t)))
//
// where tf is the raw term count within the document, N the number of
// documents, and df the number of documents containing the term.
type Corpus struct {
	docs []map[string]int
	df   map[string]int
}

// NewCorpus returns an empty corpus.
func NewCorpus() *Corpus {
	return &Corpus{df: make(map[string]int)}
}

// AddDocument appends one document's tokens to the corpus.
func (c *Corpus) AddDocument(tokens []string) {
	counts := make(map[string]int, len(tokens))
	for _, t := range tokens {
		counts[t]++
	}
	for t := range counts {
		c.df[t]++
	}
	c.docs = append(c.docs, counts)
}

// Len returns the number of documents added so far.
func (c *Corpus) Len() int { return len(c.docs) }

// Scores returns the TF-IDF score of every term in document i, or nil when
// i is out of range.
func (c *Corpus) Scores(i int) map[string]float64 {
	if i < 0 || i >= len(c.docs) {
		return nil
	}
	n := float64(len(c.docs))
	out := make(map[string]float64, len(c.docs[i]))
	for t, tf := range c.docs[i] {
		idf := 1 + math.Log(n/float64(c.df[t]))
		out[t] = float64(tf) * idf
	}
	return out
}

// Score returns the TF-IDF score of term within document i, or 0 when the
// term does not occur there.
func (c *Corpus) Score(term string, i int) float64 {
	if i < 0 || i >= len(c.docs) {
		return 0
	}
	tf, ok := c.docs[i][term]
	if !ok {
		return 0
	}
	idf := 1 + math.Log(float64(len(c.docs))/float64(c.df[term]))
	return float64(tf) * idf
}
