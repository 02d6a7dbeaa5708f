package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/tmorling/wordsieve/internal/models"
	"github.com/tmorling/wordsieve/internal/repository"
)

// DefaultMaxLearningWords caps how many entries may be in the learning
// state at once. Mastered and ignored entries do not count against it.
const DefaultMaxLearningWords = 1000

// HarvestService implements the merge/ingestion policy: it reconciles a
// freshly computed candidate list against the vocabulary store, on either
// the silent auto-collect path or the explicit user-save path.
type HarvestService struct {
	repo        repository.VocabularyRepository
	analyzer    *AnalyzerService
	fetcher     *PageFetcher
	logger      *slog.Logger
	capacity    int64
	settleDelay time.Duration
	autoDefault bool
}

// HarvestOptions configures a HarvestService.
type HarvestOptions struct {
	// Capacity bounds the learning pool; zero means DefaultMaxLearningWords.
	Capacity int64
	// SettleDelay is how long auto-collect waits before ingesting, giving
	// dynamic page content time to load. Zero means no delay.
	SettleDelay time.Duration
	// AutoCollectDefault applies when the flag was never persisted.
	AutoCollectDefault bool
}

// NewHarvestService creates a new harvest service.
func NewHarvestService(repo repository.VocabularyRepository, analyzer *AnalyzerService, fetcher *PageFetcher, logger *slog.Logger, opts HarvestOptions) *HarvestService {
	if opts.Capacity <= 0 {
		opts.Capacity = DefaultMaxLearningWords
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &HarvestService{
		repo:        repo,
		analyzer:    analyzer,
		fetcher:     fetcher,
		logger:      logger,
		capacity:    opts.Capacity,
		settleDelay: opts.SettleDelay,
		autoDefault: opts.AutoCollectDefault,
	}
}

// Save runs the explicit user-save path: analyze the text and ingest every
// candidate, returning a summary for user feedback. Words already mastered
// or ignored are silently skipped by the store; a full learning pool
// rejects new words but never aborts the batch.
func (s *HarvestService) Save(ctx context.Context, text string) (models.IngestSummary, error) {
	candidates := s.analyzer.Candidates(text)
	return s.repo.IngestBatch(ctx, candidates, s.capacity)
}

// SaveURL fetches a page, extracts its readable text and runs Save on it.
func (s *HarvestService) SaveURL(ctx context.Context, pageURL string) (models.IngestSummary, error) {
	if s.fetcher == nil {
		return models.IngestSummary{}, fmt.Errorf("page fetcher not configured")
	}
	text, err := s.fetcher.FetchText(ctx, pageURL)
	if err != nil {
		return models.IngestSummary{}, err
	}
	return s.Save(ctx, text)
}

// CollectSilent runs the passive auto-collect path. It returns immediately;
// ingestion happens in the background after the settle delay, and its
// outcome is only logged. When the persisted auto-collect flag is off,
// nothing is scheduled. If the process shuts down before the delay
// elapses the scheduled ingestion is harmlessly lost.
func (s *HarvestService) CollectSilent(ctx context.Context, text string) error {
	enabled, err := s.repo.AutoCollect(ctx, s.autoDefault)
	if err != nil {
		return err
	}
	if !enabled {
		return nil
	}

	candidates := s.analyzer.Candidates(text)
	if len(candidates) == 0 {
		return nil
	}

	if s.settleDelay == 0 {
		s.ingestSilent(ctx, candidates)
		return nil
	}

	go func() {
		time.Sleep(s.settleDelay)
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		s.ingestSilent(ctx, candidates)
	}()

	return nil
}

// CollectSilentURL fetches a page and runs the silent auto-collect path on
// its readable text. The auto-collect flag is checked before fetching, so a
// disabled collector costs no network round trip.
func (s *HarvestService) CollectSilentURL(ctx context.Context, pageURL string) error {
	enabled, err := s.repo.AutoCollect(ctx, s.autoDefault)
	if err != nil {
		return err
	}
	if !enabled {
		return nil
	}
	if s.fetcher == nil {
		return fmt.Errorf("page fetcher not configured")
	}

	text, err := s.fetcher.FetchText(ctx, pageURL)
	if err != nil {
		return err
	}
	return s.CollectSilent(ctx, text)
}

func (s *HarvestService) ingestSilent(ctx context.Context, candidates []models.WordCandidate) {
	summary, err := s.repo.IngestBatch(ctx, candidates, s.capacity)
	if err != nil {
		s.logger.Error("auto-collect ingestion failed", "error", err)
		return
	}
	s.logger.Debug("auto-collect ingested page",
		"new", summary.NewWordsAdded,
		"updated", summary.UpdatedWords,
		"capacity_hit", summary.CapacityHit,
	)
}

// AutoCollectEnabled reports the effective auto-collect flag.
func (s *HarvestService) AutoCollectEnabled(ctx context.Context) (bool, error) {
	return s.repo.AutoCollect(ctx, s.autoDefault)
}

// SetAutoCollect persists the auto-collect flag.
func (s *HarvestService) SetAutoCollect(ctx context.Context, enabled bool) error {
	return s.repo.SetAutoCollect(ctx, enabled)
}
