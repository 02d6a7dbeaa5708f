package textkit

import "strings"

const maxWordLength = 30

// stopWords is a fixed set of common English function words that carry no
// value for vocabulary study. Membership is tested on the lowercased token.
var stopWords = map[string]struct{}{}

func init() {
	for _, w := range []string{
		"the", "be", "to", "of", "and", "a", "in", "that", "have", "i",
		"it", "for", "not", "on", "with", "he", "as", "you", "do", "at",
		"this", "but", "his", "by", "from", "they", "we", "say", "her",
		"she", "or", "an", "will", "my", "one", "all", "would", "there",
		"their", "what", "so", "up", "out", "if", "about", "who", "get",
		"which", "go", "me", "when", "make", "can", "like", "time", "no",
		"just", "him", "know", "take", "people", "into", "year", "your",
		"good", "some", "could", "them", "see", "other", "than", "then",
		"now", "look", "only", "come", "its", "over", "think", "also",
		"back", "after", "use", "two", "how", "our", "work", "first",
		"well", "way", "even", "new", "want", "because", "any", "these",
		"give", "day", "most", "us", "is", "are", "was", "were", "has", "had",
	} {
		stopWords[w] = struct{}{}
	}
}

// IsPlausibleWord applies structural heuristics to a raw (not yet
// lowercased) token to weed out code identifiers, abbreviations and
// garbage concatenations:
//
//   - at most 30 characters;
//   - no character repeated three or more times in a row ("coool");
//   - at least one vowel-like character (a, e, i, o, u, y), which drops
//     abbreviations such as "html" or "jpg";
//   - no lowercase letter immediately followed by an uppercase one, which
//     drops camelCase identifiers ("myVariable", "getElementById") while
//     letting all-uppercase and Capitalized tokens through.
func IsPlausibleWord(word string) bool {
	if len(word) > maxWordLength {
		return false
	}
	if hasTripleRepeat(word) {
		return false
	}
	if !strings.ContainsAny(word, "aeiouyAEIOUY") {
		return false
	}
	if hasCamelTransition(word) {
		return false
	}
	return true
}

func hasTripleRepeat(word string) bool {
	var prev rune
	run := 0
	for _, r := range word {
		if r == prev {
			run++
			if run >= 3 {
				return true
			}
		} else {
			prev = r
			run = 1
		}
	}
	return false
}

func hasCamelTransition(word string) bool {
	for i := 0; i+1 < len(word); i++ {
		if word[i] >= 'a' && word[i] <= 'z' && word[i+1] >= 'A' && word[i+1] <= 'Z' {
			return true
		}
	}
	return false
}

// IsAcceptedWord decides whether a lowercased token is worth tracking:
// it must be at least two characters long and not a stop word.
func IsAcceptedWord(lower string) bool {
	if len(lower) < 2 {
		return false
	}
	_, stop := stopWords[lower]
	return !stop
}

// Singularize reduces a lowercased word to a naive singular form: trailing
// "ies" becomes "y", a trailing "s" is stripped unless the word ends in
// "ss", "us" or "is". Words of three characters or fewer pass through
// untouched. Callers must re-apply the stop-word check afterwards, since
// the singular form may itself be a stop word.
func Singularize(lower string) string {
	if len(lower) <= 3 {
		return lower
	}
	if strings.HasSuffix(lower, "ies") {
		return lower[:len(lower)-3] + "y"
	}
	if strings.HasSuffix(lower, "s") {
		if strings.HasSuffix(lower, "ss") || strings.HasSuffix(lower, "us") || strings.HasSuffix(lower, "is") {
			return lower
		}
		return lower[:len(lower)-1]
	}
	return lower
}

// AcceptedWords runs the filter pipeline over raw extracted tokens:
// plausibility check, lowercasing, stop-word check. Surviving words come
// back lowercased in input order, in the form they appear on the page.
// Singularization is not applied here; ingestion stores page forms
// unchanged. Use SingularizeWords to fold plurals when a caller wants that.
func AcceptedWords(tokens []string) []string {
	var out []string
	for _, tok := range tokens {
		if !IsPlausibleWord(tok) {
			continue
		}
		lower := strings.ToLower(tok)
		if !IsAcceptedWord(lower) {
			continue
		}
		out = append(out, lower)
	}
	return out
}

// SingularizeWords is an optional post-filter over an accepted word list:
// each word is reduced to its naive singular form, and words whose singular
// form is a stop word are dropped.
func SingularizeWords(words []string) []string {
	var out []string
	for _, w := range words {
		singular := Singularize(w)
		if !IsAcceptedWord(singular) {
			continue
		}
		out = append(out, singular)
	}
	return out
}
