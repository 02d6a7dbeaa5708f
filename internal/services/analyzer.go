package services

import (
	"context"
	"fmt"

	"github.com/tmorling/wordsieve/internal/models"
	"github.com/tmorling/wordsieve/internal/repository"
	"github.com/tmorling/wordsieve/internal/textkit"
)

// AnalyzerService runs the extraction/filter/aggregation pipeline over
// page text and produces the candidate list shown to the user.
type AnalyzerService struct {
	repo      repository.VocabularyRepository
	segmenter *textkit.Segmenter
}

// NewAnalyzerService creates a new analyzer service. The segmenter may be
// nil, in which case SelectionStats is unavailable.
func NewAnalyzerService(repo repository.VocabularyRepository, segmenter *textkit.Segmenter) *AnalyzerService {
	return &AnalyzerService{repo: repo, segmenter: segmenter}
}

// AnalyzePage extracts, filters and aggregates candidate words from raw
// page text. UniqueWords counts every distinct accepted word on the page;
// words the store already tracks as mastered or ignored are then excluded
// from the returned list. That is a view-layer filter and does not affect
// what ingestion sees. Empty or word-free input yields an empty analysis,
// never an error.
func (s *AnalyzerService) AnalyzePage(ctx context.Context, text string) (*models.PageAnalysis, error) {
	tokens := textkit.Extract(text)
	accepted := textkit.AcceptedWords(tokens)
	list := textkit.Aggregate(accepted)

	words := make([]string, len(list))
	for i, cand := range list {
		words[i] = cand.Word
	}

	statuses, err := s.repo.Statuses(ctx, words)
	if err != nil {
		return nil, fmt.Errorf("failed to look up word statuses: %w", err)
	}

	unique := len(list)

	visible := list[:0]
	for _, cand := range list {
		switch statuses[cand.Word] {
		case models.StatusMastered, models.StatusIgnored:
			continue
		}
		visible = append(visible, cand)
	}

	return &models.PageAnalysis{
		TotalWords:  len(tokens),
		UniqueWords: unique,
		List:        visible,
	}, nil
}

// Candidates runs the pipeline without the display-time status filter.
// This is what ingestion consumes: terminal-status words are included and
// left for the store's own idempotency rules to skip.
func (s *AnalyzerService) Candidates(text string) []models.WordCandidate {
	return textkit.Aggregate(textkit.AcceptedWords(textkit.Extract(text)))
}

// SelectionStats counts word-like segments and characters in a selection.
func (s *AnalyzerService) SelectionStats(text string) (models.SelectionStats, error) {
	if s.segmenter == nil {
		return models.SelectionStats{}, fmt.Errorf("segmenter not configured")
	}
	return s.segmenter.Stats(text), nil
}
