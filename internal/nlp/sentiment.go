package nlp

import (
	"math"
	"strings"
	"unicode"

	"github.com/seenimoa/stonksfeed/pkg/models"
)

// ------------------------------------------------------------------
// Lexicon-based sentiment scorer for financial headlines. Deterministic
// and offline: weighted bullish/bearish term lexicons, simple negation
// flipping, and capitalization/punctuation intensity boosts, with the
// compound score normalized into (-1, 1).
// ------------------------------------------------------------------

// Classification thresholds on the compound score.
const (
	bullishThreshold = 0.05
	bearishThreshold = -0.05
)

// bullishTerms maps single lowercase terms (matched per token, after
// light suffix stripping) to positive weights.
var bullishTerms = map[string]float64{
	"soar": 0.7, "surge": 0.7, "rally": 0.6, "jump": 0.5, "climb": 0.4,
	"bullish": 0.7, "upgrade": 0.6, "outperform": 0.6, "breakout": 0.6,
	"beat": 0.5, "exceed": 0.5, "strong": 0.4, "growth": 0.4,
	"recovery": 0.5, "upbeat": 0.5, "rebound": 0.5, "profit": 0.3,
	"dividend": 0.4, "buyback": 0.5, "expansion": 0.4, "optimism": 0.5,
	"win": 0.4, "boom": 0.6, "upside": 0.4,
}

// bearishTerms maps single lowercase terms to negative-side weights.
var bearishTerms = map[string]float64{
	"plunge": 0.7, "crash": 0.8, "slump": 0.6, "tumble": 0.6,
	"bearish": 0.7, "downgrade": 0.6, "underperform": 0.6, "selloff": 0.7,
	"sink": 0.5, "drop": 0.4, "fall": 0.4, "decline": 0.5, "weak": 0.4,
	"loss": 0.4, "miss": 0.5, "warning": 0.5, "fraud": 0.8, "scam": 0.8,
	"default": 0.7, "bankruptcy": 0.8, "layoff": 0.6, "recession": 0.6,
	"fear": 0.5, "concern": 0.3, "correction": 0.5, "investigation": 0.5,
}

// Multi-word phrases, matched by substring over the lowercased text.
var bullishPhrases = map[string]float64{
	"record high": 0.7, "all-time high": 0.7, "beats estimates": 0.6,
	"better than expected": 0.6, "raises guidance": 0.6,
}

var bearishPhrases = map[string]float64{
	"record low": 0.7, "misses estimates": 0.6, "worse than expected": 0.6,
	"cuts guidance": 0.6, "sell-off": 0.7,
}

// negators flip the sign of a term appearing shortly after them.
var negators = map[string]bool{
	"not": true, "no": true, "never": true, "without": true,
	"isnt": true, "wont": true, "dont": true, "doesnt": true,
}

// negationWindow is how many tokens back a negator still applies.
const negationWindow = 3

// vader-style normalization constant: compound = sum / sqrt(sum^2 + alpha).
const normAlpha = 15.0

// AnalyzeSentiment scores a headline and classifies it. The compound score
// is in [-1, 1]; the label is a fixed function of the score:
// >= 0.05 bullish, <= -0.05 bearish, otherwise neutral.
func AnalyzeSentiment(text string) (float64, models.SentimentLabel) {
	score := compoundScore(text)
	return score, LabelFor(score)
}

// LabelFor maps a compound score to its sentiment label.
func LabelFor(score float64) models.SentimentLabel {
	switch {
	case score >= bullishThreshold:
		return models.SentimentBullish
	case score <= bearishThreshold:
		return models.SentimentBearish
	default:
		return models.SentimentNeutral
	}
}

// compoundScore computes the normalized net lexicon score for text.
func compoundScore(text string) float64 {
	lower := strings.ToLower(text)
	tokens := tokenize(lower)

	sum := 0.0
	for i, tok := range tokens {
		weight, bull, ok := lookupTerm(tok)
		if !ok {
			continue
		}
		if negated(tokens, i) {
			bull = !bull
		}
		if bull {
			sum += weight
		} else {
			sum -= weight
		}
	}

	for phrase, w := range bullishPhrases {
		if strings.Contains(lower, phrase) {
			sum += w
		}
	}
	for phrase, w := range bearishPhrases {
		if strings.Contains(lower, phrase) {
			sum -= w
		}
	}

	if sum == 0 {
		return 0
	}

	// Punctuation and capitalization intensify the signal.
	intensity := 1.0
	if strings.Contains(text, "!") {
		intensity += 0.15
	}
	if hasShoutedWord(text) {
		intensity += 0.1
	}
	sum *= intensity

	return sum / math.Sqrt(sum*sum+normAlpha)
}

// tokenize splits lowercased text into letter-only tokens, dropping
// apostrophes so contractions match the negator list.
func tokenize(lower string) []string {
	cleaned := strings.Map(func(r rune) rune {
		if r == '\'' {
			return -1
		}
		return r
	}, lower)
	return strings.FieldsFunc(cleaned, func(r rune) bool {
		return !unicode.IsLetter(r)
	})
}

// lookupTerm finds a token in the term lexicons, trying light suffix
// stripping so "soars" and "plunged" match their stems.
func lookupTerm(tok string) (weight float64, bullish bool, ok bool) {
	for _, candidate := range stemCandidates(tok) {
		if w, found := bullishTerms[candidate]; found {
			return w, true, true
		}
		if w, found := bearishTerms[candidate]; found {
			return w, false, true
		}
	}
	return 0, false, false
}

// stemCandidates returns the token plus crude de-suffixed variants.
func stemCandidates(tok string) []string {
	candidates := []string{tok}
	for _, suffix := range []string{"s", "es", "d", "ed", "ing"} {
		if trimmed := strings.TrimSuffix(tok, suffix); trimmed != tok && len(trimmed) >= 3 {
			candidates = append(candidates, trimmed)
		}
	}
	return candidates
}

// negated reports whether a negator appears within the window before
// tokens[i].
func negated(tokens []string, i int) bool {
	start := i - negationWindow
	if start < 0 {
		start = 0
	}
	for _, tok := range tokens[start:i] {
		if negators[tok] {
			return true
		}
	}
	return false
}

// hasShoutedWord reports whether text contains an all-caps word of at
// least three letters.
func hasShoutedWord(text string) bool {
	for _, word := range strings.Fields(text) {
		letters := 0
		upper := true
		for _, r := range word {
			if unicode.IsLetter(r) {
				letters++
				if !unicode.IsUpper(r) {
					upper = false
					break
				}
			}
		}
		if upper && letters >= 3 {
			return true
		}
	}
	return false
}
