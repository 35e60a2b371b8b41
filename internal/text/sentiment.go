package text

import "unicode"

// valence maps tokens to AFINN-style scores in [-5, 5]. The table is a
// compact subset tuned for app-store vocabulary; unknown tokens score 0.
var valence = map[string]float64{
	// strongly positive
	"amazing": 4, "awesome": 4, "excellent": 3, "fantastic": 4,
	"outstanding": 5, "perfect": 3, "superb": 5, "wonderful": 4,
	"brilliant": 4, "best": 3, "love": 3, "loved": 3, "loves": 3,
	// positive
	"good": 3, "great": 3, "nice": 3, "helpful": 2, "useful": 2,
	"easy": 1, "fast": 1, "smooth": 2, "clean": 2, "simple": 1,
	"reliable": 2, "intuitive": 2, "beautiful": 3, "fun": 4,
	"enjoy": 2, "enjoyed": 2, "like": 2, "likes": 2, "liked": 2,
	"works": 2, "worked": 2, "happy": 3, "pleased": 3, "recommend": 2,
	"recommended": 2, "free": 1, "improved": 2, "stable": 2,
	// negative
	"bad": -3, "poor": -2, "slow": -2, "laggy": -2, "lag": -1,
	"buggy": -3, "bug": -2, "bugs": -2, "glitch": -2, "glitchy": -2,
	"annoying": -2, "ads": -1, "intrusive": -2, "confusing": -2,
	"difficult": -1, "hard": -1, "problem": -2, "problems": -2,
	"issue": -2, "issues": -2, "crash": -3, "crashes": -3,
	"crashed": -3, "crashing": -3, "freeze": -2, "freezes": -2,
	"frozen": -2, "broken": -3, "error": -2, "errors": -2,
	"fail": -2, "fails": -2, "failed": -2, "expensive": -2,
	"scam": -4, "spam": -2, "useless": -2, "waste": -1,
	// strongly negative
	"awful": -3, "terrible": -3, "horrible": -3, "worst": -3,
	"hate": -3, "hated": -3, "hates": -3, "garbage": -3,
	"unusable": -3, "disappointing": -2, "disappointed": -2,
}

// negators flip the valence of the following token.
var negators = map[string]struct{}{
	"not": {}, "no": {}, "never": {}, "nothing": {},
	"cannot": {}, "cant": {}, "dont": {}, "doesnt": {}, "wont": {},
}

// SentimentScore sums the lexicon valence over the tokens, flipping the
// sign of a scored token when it directly follows a negator ("not good"
// scores as -3). The result is the raw summed score; divide by len(tokens)
// for a comparative score.
func SentimentScore(tokens []string) float64 {
	var score float64
	negate := false
	for _, tok := range tokens {
		if _, ok := negators[tok]; ok {
			negate = true
			continue
		}
		if v, ok := valence[tok]; ok {
			if negate {
				v = -v
			}
			score += v
		}
		negate = false
	}
	return score
}

// LanguageHint makes a best-effort guess at the language of s. The scraper
// already requests a single locale, so this only needs to distinguish
// Latin-script text (reported as "en") from anything predominantly
// non-Latin ("und").
func LanguageHint(s string) string {
	var latin, other int
	for _, r := range s {
		if !unicode.IsLetter(r) {
			continue
		}
		if unicode.Is(unicode.Latin, r) {
			latin++
		} else {
			other++
		}
	}
	if latin == 0 && other == 0 {
		return "und"
	}
	if other > latin {
		return "und"
	}
	return "en"
}
