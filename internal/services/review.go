package services

import (
	"context"
	"database/sql"
	"strings"

	"github.com/tmorling/wordsieve/internal/models"
	"github.com/tmorling/wordsieve/internal/repository"
)

// ReviewService backs the flashcard and spelling review surfaces. Both are
// read-only consumers of the store filtered by status; the only mutation
// they route is the explicit status transition on the vocabulary service.
type ReviewService struct {
	repo       repository.VocabularyRepository
	translator *TranslatorService
}

// NewReviewService creates a new review service. The translator may be
// nil, in which case spelling prompts carry no hint.
func NewReviewService(repo repository.VocabularyRepository, translator *TranslatorService) *ReviewService {
	return &ReviewService{repo: repo, translator: translator}
}

// Flashcards returns the review deck: entries with the given status,
// most recently touched first. An empty status means learning.
func (s *ReviewService) Flashcards(ctx context.Context, status models.Status, limit int) ([]*models.VocabularyEntry, error) {
	if status == "" {
		status = models.StatusLearning
	}
	return s.repo.List(ctx, models.EntryFilter{
		Status: status,
		Sort:   models.SortByUpdated,
		Limit:  limit,
	})
}

// SpellingPrompt holds one spelling-drill question: the hidden word plus
// a definition hint when available.
type SpellingPrompt struct {
	Word   string `json:"word"`
	Length int    `json:"length"`
	Hint   string `json:"hint,omitempty"`
}

// NextSpelling picks a random learning word for a spelling drill.
// Translator failures degrade to a prompt without a hint; they never block
// the drill.
func (s *ReviewService) NextSpelling(ctx context.Context) (*SpellingPrompt, error) {
	entry, err := s.repo.GetRandom(ctx, models.StatusLearning)
	if err != nil {
		return nil, err
	}

	prompt := &SpellingPrompt{Word: entry.Word, Length: len(entry.Word)}
	if s.translator != nil {
		if t, err := s.translator.Translate(ctx, entry.Word); err == nil && t.Found {
			prompt.Hint = t.Gloss
		}
	}
	return prompt, nil
}

// CheckSpelling reports whether the answer spells the word, ignoring case
// and surrounding whitespace. Unknown words are an error so the caller can
// distinguish a stale drill from a wrong answer.
func (s *ReviewService) CheckSpelling(ctx context.Context, word, answer string) (bool, error) {
	word = strings.ToLower(strings.TrimSpace(word))
	if _, err := s.repo.Get(ctx, word); err != nil {
		if err == sql.ErrNoRows {
			return false, err
		}
		return false, err
	}
	return strings.EqualFold(word, strings.TrimSpace(answer)), nil
}
