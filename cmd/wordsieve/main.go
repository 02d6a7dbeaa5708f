package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/mattn/go-sqlite3"

	"github.com/tmorling/wordsieve/internal/api"
	"github.com/tmorling/wordsieve/internal/config"
	"github.com/tmorling/wordsieve/internal/repository"
	"github.com/tmorling/wordsieve/internal/services"
	"github.com/tmorling/wordsieve/internal/textkit"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "wordsieve: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := newLogger(cfg.Log)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	db, err := sql.Open("sqlite3", cfg.Database.Path+"?_busy_timeout=5000&_journal_mode=WAL")
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if err := repository.Migrate(db); err != nil {
		return err
	}
	logger.Info("database ready", "path", cfg.Database.Path)

	segmenter, err := textkit.NewSegmenter()
	if err != nil {
		return fmt.Errorf("failed to build segmenter: %w", err)
	}

	repo := repository.NewSQLiteRepository(db)
	analyzer := services.NewAnalyzerService(repo, segmenter)
	fetcher := services.NewPageFetcher()
	harvest := services.NewHarvestService(repo, analyzer, fetcher, logger, services.HarvestOptions{
		Capacity:           cfg.Harvest.MaxLearningWords,
		SettleDelay:        cfg.Harvest.SettleDelay,
		AutoCollectDefault: cfg.Harvest.AutoCollectDefault,
	})
	vocab := services.NewVocabularyService(repo, cfg.Harvest.MaxLearningWords)
	translator := services.NewTranslatorServiceWithClient(
		&http.Client{Timeout: cfg.Dictionary.Timeout},
		cfg.Dictionary.BaseURL,
		cfg.Dictionary.CacheSize,
	)
	review := services.NewReviewService(repo, translator)

	handler := api.NewHandler(analyzer, harvest, vocab, review, translator, logger)
	router := api.NewRouter(handler, logger, cfg.Server.APIToken)

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}
	return nil
}
