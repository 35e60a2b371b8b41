// Package text provides the small, deterministic, dependency-free natural
// language toolkit used by the analyzers: Unicode-aware tokenization with
// stop-word removal, n-gram extraction, AFINN-style lexicon sentiment
// scoring, and a minimal TF-IDF corpus. It is intentionally small but
// engineered with production-grade ergonomics:
//
//   - No logging in the library (callers decide how/what to log)
//   - Pure functions or value types; nothing here touches shared state
//   - Deterministic output ordering (stable sorts, lexical tie-breaks)
//   - Sensible defaults (minimum token length, built-in stop words)
package text

import (
	"regexp"
	"sort"
	"strings"
)

// wordRE matches runs of letters optionally followed by digits.
var wordRE = regexp.MustCompile(`\p{L}+\p{N}*`)

// asciiWordRE restricts tokens to plain alphabetic words, matching the
// filter the topic extraction applies on top of tokenization.
var asciiWordRE = regexp.MustCompile(`^[a-z]+$`)

// defaultStopwords are high-frequency terms that carry no topical signal in
// app-store reviews. "app"/"apps"/"good"/"bad" are included deliberately:
// they dominate review text while saying nothing about a specific topic.
var defaultStopwords = map[string]struct{}{
	"the": {}, "is": {}, "at": {}, "which": {}, "on": {},
	"app": {}, "apps": {}, "good": {}, "bad": {}, "very": {},
	"too": {}, "and": {}, "or": {}, "but": {}, "for": {},
	"with": {}, "this": {}, "that": {}, "its": {}, "it's": {},
	"was": {}, "were": {}, "be": {}, "been": {},
}

// Tokenize lower-cases s and splits it into word tokens. It never returns
// nil for non-empty text containing at least one word character.
func Tokenize(s string) []string {
	return wordRE.FindAllString(strings.ToLower(s), -1)
}

// ContentTokens tokenizes s and keeps only topical tokens: longer than two
// runes, alphabetic, and not a stop word.
func ContentTokens(s string) []string {
	toks := Tokenize(s)
	out := toks[:0:0]
	for _, t := range toks {
		if len(t) <= 2 {
			continue
		}
		if _, skip := defaultStopwords[t]; skip {
			continue
		}
		if !asciiWordRE.MatchString(t) {
			continue
		}
		out = append(out, t)
	}
	return out
}

// IsStopword reports whether the (already lower-cased) token is in the
// built-in stop-word set.
func IsStopword(tok string) bool {
	_, ok := defaultStopwords[tok]
	return ok
}

// NGrams joins consecutive token windows of size n with single spaces.
// It returns nil when fewer than n tokens are available.
func NGrams(tokens []string, n int) []string {
	if n <= 0 || len(tokens) < n {
		return nil
	}
	out := make([]string, 0, len(tokens)-n+1)
	for i := 0; i+n <= len(tokens); i++ {
		out = append(out, strings.Join(tokens[i:i+n], " "))
	}
	return out
}

// TopCounts returns up to k keys of counts ordered by count descending,
// breaking ties lexically so the result is deterministic.
func TopCounts(counts map[string]int, k int) []string {
	if len(counts) == 0 || k <= 0 {
		return nil
	}
	type kv struct {
		key   string
		count int
	}
	buf := make([]kv, 0, len(counts))
	for key, c := range counts {
		buf = append(buf, kv{key, c})
	}
	sort.Slice(buf, func(a, b int) bool {
		if buf[a].count != buf[b].count {
			return buf[a].count > buf[b].count
		}
		return buf[a].key < buf[b].key
	})
	if k > len(buf) {
		k = len(buf)
	}
	out := make([]string, k)
	for i := 0; i < k; i++ {
		out[i] = buf[i].key
	}
	return out
}
