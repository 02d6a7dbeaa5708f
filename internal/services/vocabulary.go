package services

import (
	"context"
	"database/sql"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/tmorling/wordsieve/internal/models"
	"github.com/tmorling/wordsieve/internal/repository"
)

// VocabularyService provides business logic for managing the persisted
// word list: listing, status transitions, resets, deletion and transfer.
type VocabularyService struct {
	repo     repository.VocabularyRepository
	capacity int64
}

// NewVocabularyService creates a new vocabulary service. Capacity bounds
// the learning pool for imports; zero means DefaultMaxLearningWords.
func NewVocabularyService(repo repository.VocabularyRepository, capacity int64) *VocabularyService {
	if capacity <= 0 {
		capacity = DefaultMaxLearningWords
	}
	return &VocabularyService{repo: repo, capacity: capacity}
}

// Get retrieves a single entry.
func (s *VocabularyService) Get(ctx context.Context, word string) (*models.VocabularyEntry, error) {
	return s.repo.Get(ctx, strings.ToLower(word))
}

// List retrieves entries with filtering and ordering.
func (s *VocabularyService) List(ctx context.Context, filter models.EntryFilter) ([]*models.VocabularyEntry, error) {
	return s.repo.List(ctx, filter)
}

// Count returns the number of entries matching the filter.
func (s *VocabularyService) Count(ctx context.Context, filter models.EntryFilter) (int64, error) {
	return s.repo.Count(ctx, filter)
}

// SetStatus applies an explicit status transition. Transitions never
// create entries and are not subject to the capacity check; only
// ingestion-time creation is.
func (s *VocabularyService) SetStatus(ctx context.Context, word string, status models.Status) error {
	return s.repo.SetStatus(ctx, strings.ToLower(word), status)
}

// ResetAllCounts zeroes every entry's occurrence count. No entries are
// removed and no statuses change.
func (s *VocabularyService) ResetAllCounts(ctx context.Context) error {
	return s.repo.ResetAllCounts(ctx)
}

// DeleteWord removes a single entry permanently.
func (s *VocabularyService) DeleteWord(ctx context.Context, word string) error {
	return s.repo.DeleteWord(ctx, strings.ToLower(word))
}

// DeleteByStatus removes every entry with the given effective status.
func (s *VocabularyService) DeleteByStatus(ctx context.Context, status models.Status) (int64, error) {
	return s.repo.DeleteByStatus(ctx, status)
}

// ExportText writes the word list as "{word} ({count})" lines in the
// given display order, the format used for copy-to-clipboard.
func (s *VocabularyService) ExportText(ctx context.Context, w io.Writer, sort models.EntrySort) error {
	entries, err := s.repo.List(ctx, models.EntryFilter{Sort: sort})
	if err != nil {
		return fmt.Errorf("failed to fetch entries: %w", err)
	}
	for _, e := range entries {
		if _, err := fmt.Fprintf(w, "%s (%d)\n", e.Word, e.Count); err != nil {
			return fmt.Errorf("failed to write entry: %w", err)
		}
	}
	return nil
}

// ExportCSV exports all entries to CSV format.
func (s *VocabularyService) ExportCSV(ctx context.Context, w io.Writer) error {
	entries, err := s.repo.List(ctx, models.EntryFilter{Sort: models.SortByAlphabet})
	if err != nil {
		return fmt.Errorf("failed to fetch entries: %w", err)
	}

	writer := csv.NewWriter(w)
	defer writer.Flush()

	header := []string{"word", "count", "status", "created_at", "updated_at"}
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for _, e := range entries {
		record := []string{
			e.Word,
			strconv.FormatInt(e.Count, 10),
			string(e.EffectiveStatus()),
			e.CreatedAt.Format("2006-01-02 15:04:05"),
			e.UpdatedAt.Format("2006-01-02 15:04:05"),
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("failed to write record: %w", err)
		}
	}

	return nil
}

// ImportCSV imports entries from a CSV reader with columns word, count
// and optionally status. Existing words are skipped; new words are
// created through the ingestion path, so the learning capacity applies.
func (s *VocabularyService) ImportCSV(ctx context.Context, r io.Reader) (*models.ImportResult, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}

	colIndex := make(map[string]int, len(header))
	for i, col := range header {
		colIndex[strings.ToLower(strings.TrimSpace(col))] = i
	}
	wordIdx, ok := colIndex["word"]
	if !ok {
		return nil, fmt.Errorf("CSV is missing required 'word' column")
	}

	result := &models.ImportResult{}
	lineNum := 1

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		lineNum++
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("line %d: %v", lineNum, err))
			result.Skipped++
			continue
		}

		word := strings.ToLower(strings.TrimSpace(record[wordIdx]))
		if word == "" {
			result.Errors = append(result.Errors, fmt.Sprintf("line %d: empty word", lineNum))
			result.Skipped++
			continue
		}

		var count int64 = 1
		if idx, ok := colIndex["count"]; ok && idx < len(record) {
			if parsed, err := strconv.ParseInt(strings.TrimSpace(record[idx]), 10, 64); err == nil && parsed > 0 {
				count = parsed
			}
		}

		status := models.StatusLearning
		if idx, ok := colIndex["status"]; ok && idx < len(record) {
			if val := strings.TrimSpace(record[idx]); val != "" {
				parsed, err := models.ParseStatus(val)
				if err != nil {
					result.Errors = append(result.Errors, fmt.Sprintf("line %d: %v", lineNum, err))
					result.Skipped++
					continue
				}
				status = parsed
			}
		}

		if existing, err := s.repo.Get(ctx, word); err == nil && existing != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("line %d: word %q already exists", lineNum, word))
			result.Skipped++
			continue
		} else if err != nil && err != sql.ErrNoRows {
			return nil, fmt.Errorf("failed to check for duplicate: %w", err)
		}

		outcome, err := s.repo.UpsertIngest(ctx, word, count, s.capacity)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("line %d: %v", lineNum, err))
			result.Skipped++
			continue
		}
		if !outcome.Created {
			result.Errors = append(result.Errors, fmt.Sprintf("line %d: word %q rejected (learning list full)", lineNum, word))
			result.Skipped++
			continue
		}

		if status != models.StatusLearning {
			if err := s.repo.SetStatus(ctx, word, status); err != nil {
				result.Errors = append(result.Errors, fmt.Sprintf("line %d: %v", lineNum, err))
			}
		}

		result.Imported++
	}

	return result, nil
}
