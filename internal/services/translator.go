package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/tmorling/wordsieve/internal/models"
)

const (
	dictionaryAPIBaseURL   = "https://api.dictionaryapi.dev/api/v2/entries/en"
	dictionaryTimeout      = 10 * time.Second
	defaultTranslatorCache = 512
)

// ErrWordNotFound is returned when the word is not in the dictionary.
var ErrWordNotFound = fmt.Errorf("word not found in dictionary")

// dictionaryEntry mirrors the subset of the dictionary API response the
// translator consumes.
type dictionaryEntry struct {
	Word      string `json:"word"`
	Phonetic  string `json:"phonetic"`
	Phonetics []struct {
		Text string `json:"text"`
	} `json:"phonetics"`
	Meanings []struct {
		PartOfSpeech string `json:"partOfSpeech"`
		Definitions  []struct {
			Definition string `json:"definition"`
		} `json:"definitions"`
	} `json:"meanings"`
}

// TranslatorService resolves words to a short gloss via a dictionary API.
// Results are cached because review surfaces look up the same words over
// and over.
type TranslatorService struct {
	client  *http.Client
	baseURL string
	cache   *lru.Cache[string, models.Translation]
}

// NewTranslatorService creates a translator against the public dictionary
// API with a default cache.
func NewTranslatorService() *TranslatorService {
	return NewTranslatorServiceWithClient(&http.Client{Timeout: dictionaryTimeout}, dictionaryAPIBaseURL, defaultTranslatorCache)
}

// NewTranslatorServiceWithClient creates a translator with a custom HTTP
// client, base URL and cache size.
func NewTranslatorServiceWithClient(client *http.Client, baseURL string, cacheSize int) *TranslatorService {
	if cacheSize <= 0 {
		cacheSize = defaultTranslatorCache
	}
	cache, _ := lru.New[string, models.Translation](cacheSize)
	return &TranslatorService{client: client, baseURL: baseURL, cache: cache}
}

// Translate resolves a word to its first dictionary definition. A word the
// dictionary does not know yields a Translation with Found=false and no
// error; only transport-level failures are returned as errors, and callers
// are expected to degrade to a fallback display string.
func (s *TranslatorService) Translate(ctx context.Context, word string) (models.Translation, error) {
	if cached, ok := s.cache.Get(word); ok {
		return cached, nil
	}

	entry, err := s.lookup(ctx, word)
	if err == ErrWordNotFound {
		t := models.Translation{Word: word, Found: false}
		s.cache.Add(word, t)
		return t, nil
	}
	if err != nil {
		return models.Translation{Word: word}, err
	}

	t := models.Translation{Word: word, Found: true, Phonetic: entry.Phonetic}
	for _, p := range entry.Phonetics {
		if t.Phonetic == "" && p.Text != "" {
			t.Phonetic = p.Text
		}
	}
	for _, m := range entry.Meanings {
		if len(m.Definitions) > 0 {
			t.Gloss = m.Definitions[0].Definition
			if m.PartOfSpeech != "" {
				t.Gloss = fmt.Sprintf("(%s) %s", m.PartOfSpeech, t.Gloss)
			}
			break
		}
	}

	s.cache.Add(word, t)
	return t, nil
}

func (s *TranslatorService) lookup(ctx context.Context, word string) (*dictionaryEntry, error) {
	url := fmt.Sprintf("%s/%s", s.baseURL, word)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch definition: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrWordNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("dictionary API returned status %d", resp.StatusCode)
	}

	var entries []dictionaryEntry
	if err := json.NewDecoder(resp.Body).Decode(&entries); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if len(entries) == 0 {
		return nil, ErrWordNotFound
	}
	return &entries[0], nil
}
