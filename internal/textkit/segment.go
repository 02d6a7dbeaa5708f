package textkit

import (
	"strings"
	"unicode"

	"github.com/ikawaha/kagome-dict/ipa"
	"github.com/ikawaha/kagome/v2/tokenizer"

	"github.com/tmorling/wordsieve/internal/models"
)

// Segmenter counts word-like segments in arbitrary text using a
// morphological tokenizer, so CJK text without spaces is segmented
// correctly alongside Latin text.
type Segmenter struct {
	t *tokenizer.Tokenizer
}

// NewSegmenter builds a Segmenter. Construction loads the dictionary and
// is expensive; build one and share it.
func NewSegmenter() (*Segmenter, error) {
	t, err := tokenizer.New(ipa.Dict(), tokenizer.OmitBosEos())
	if err != nil {
		return nil, err
	}
	return &Segmenter{t: t}, nil
}

// Stats returns the number of word-like segments and non-whitespace
// characters in text. Punctuation-only and whitespace-only tokens are not
// counted as segments.
func (s *Segmenter) Stats(text string) models.SelectionStats {
	var stats models.SelectionStats

	for _, r := range text {
		if !unicode.IsSpace(r) {
			stats.Characters++
		}
	}

	for _, tok := range s.t.Tokenize(text) {
		if tok.Class == tokenizer.DUMMY {
			continue
		}
		if isWordLike(tok.Surface) {
			stats.Segments++
		}
	}

	return stats
}

func isWordLike(surface string) bool {
	if strings.TrimSpace(surface) == "" {
		return false
	}
	for _, r := range surface {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return true
		}
	}
	return false
}
