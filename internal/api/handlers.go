package api

import (
	"database/sql"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/tmorling/wordsieve/internal/models"
	"github.com/tmorling/wordsieve/internal/services"
)

// Handler contains all HTTP handlers.
type Handler struct {
	analyzer   *services.AnalyzerService
	harvest    *services.HarvestService
	vocab      *services.VocabularyService
	review     *services.ReviewService
	translator *services.TranslatorService
	logger     *slog.Logger
}

// NewHandler creates a new handler.
func NewHandler(analyzer *services.AnalyzerService, harvest *services.HarvestService, vocab *services.VocabularyService, review *services.ReviewService, translator *services.TranslatorService, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		analyzer:   analyzer,
		harvest:    harvest,
		vocab:      vocab,
		review:     review,
		translator: translator,
		logger:     logger,
	}
}

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{Error: message})
}

// HealthCheck handles GET /health.
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type analyzeRequest struct {
	Text string `json:"text"`
}

// AnalyzePage handles POST /api/v1/analyze.
func (h *Handler) AnalyzePage(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	analysis, err := h.analyzer.AnalyzePage(r.Context(), req.Text)
	if err != nil {
		h.logger.Error("page analysis failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to analyze page")
		return
	}
	if analysis.List == nil {
		analysis.List = []models.WordCandidate{}
	}

	writeJSON(w, http.StatusOK, analysis)
}

// SelectionStats handles POST /api/v1/analyze/stats.
func (h *Handler) SelectionStats(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	stats, err := h.analyzer.SelectionStats(req.Text)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "segment counting unavailable")
		return
	}

	writeJSON(w, http.StatusOK, stats)
}

type harvestRequest struct {
	Text   string `json:"text,omitempty"`
	URL    string `json:"url,omitempty"`
	Silent bool   `json:"silent,omitempty"`
}

// Harvest handles POST /api/v1/harvest: the explicit save path by default,
// the silent auto-collect path when silent is set.
func (h *Handler) Harvest(w http.ResponseWriter, r *http.Request) {
	var req harvestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Text == "" && req.URL == "" {
		writeError(w, http.StatusBadRequest, "text or url is required")
		return
	}

	if req.Silent {
		var err error
		if req.Text != "" {
			err = h.harvest.CollectSilent(r.Context(), req.Text)
		} else {
			err = h.harvest.CollectSilentURL(r.Context(), req.URL)
		}
		if err != nil {
			h.logger.Warn("silent harvest failed", "error", err)
		}
		w.WriteHeader(http.StatusNoContent)
		return
	}

	var summary models.IngestSummary
	var err error
	if req.Text != "" {
		summary, err = h.harvest.Save(r.Context(), req.Text)
	} else {
		summary, err = h.harvest.SaveURL(r.Context(), req.URL)
	}
	if err != nil {
		h.logger.Error("harvest failed", "error", err)
		writeError(w, http.StatusBadGateway, "failed to harvest words")
		return
	}

	writeJSON(w, http.StatusOK, summary)
}

// ListVocabulary handles GET /api/v1/vocabulary.
func (h *Handler) ListVocabulary(w http.ResponseWriter, r *http.Request) {
	filter, ok := parseEntryFilter(w, r)
	if !ok {
		return
	}

	entries, err := h.vocab.List(r.Context(), filter)
	if err != nil {
		h.logger.Error("list vocabulary failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list vocabulary")
		return
	}

	total, _ := h.vocab.Count(r.Context(), filter)

	response := map[string]interface{}{
		"entries": entries,
		"total":   total,
	}
	if entries == nil {
		response["entries"] = []interface{}{}
	}

	writeJSON(w, http.StatusOK, response)
}

// GetEntry handles GET /api/v1/vocabulary/{word}.
func (h *Handler) GetEntry(w http.ResponseWriter, r *http.Request) {
	word := chi.URLParam(r, "word")

	entry, err := h.vocab.Get(r.Context(), word)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			writeError(w, http.StatusNotFound, "word not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to get word")
		return
	}

	writeJSON(w, http.StatusOK, entry)
}

type statusRequest struct {
	Status string `json:"status"`
}

// SetStatus handles PUT /api/v1/vocabulary/{word}/status.
func (h *Handler) SetStatus(w http.ResponseWriter, r *http.Request) {
	word := chi.URLParam(r, "word")

	var req statusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	status, err := models.ParseStatus(req.Status)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.vocab.SetStatus(r.Context(), word, status); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			writeError(w, http.StatusNotFound, "word not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to set status")
		return
	}

	entry, err := h.vocab.Get(r.Context(), word)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to reload word")
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

// ResetCounts handles POST /api/v1/vocabulary/reset.
func (h *Handler) ResetCounts(w http.ResponseWriter, r *http.Request) {
	if err := h.vocab.ResetAllCounts(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to reset counts")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DeleteEntry handles DELETE /api/v1/vocabulary/{word}.
func (h *Handler) DeleteEntry(w http.ResponseWriter, r *http.Request) {
	word := chi.URLParam(r, "word")

	if err := h.vocab.DeleteWord(r.Context(), word); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			writeError(w, http.StatusNotFound, "word not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to delete word")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DeleteByStatus handles DELETE /api/v1/vocabulary?status=...
func (h *Handler) DeleteByStatus(w http.ResponseWriter, r *http.Request) {
	status, err := models.ParseStatus(r.URL.Query().Get("status"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "status query parameter is required")
		return
	}

	deleted, err := h.vocab.DeleteByStatus(r.Context(), status)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to delete entries")
		return
	}

	writeJSON(w, http.StatusOK, map[string]int64{"deleted": deleted})
}

// ExportText handles GET /api/v1/vocabulary/export.
func (h *Handler) ExportText(w http.ResponseWriter, r *http.Request) {
	sort, ok := parseSort(w, r)
	if !ok {
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	if err := h.vocab.ExportText(r.Context(), w, sort); err != nil {
		h.logger.Error("text export failed", "error", err)
	}
}

// ExportCSV handles GET /api/v1/vocabulary/export.csv.
func (h *Handler) ExportCSV(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="vocabulary.csv"`)
	if err := h.vocab.ExportCSV(r.Context(), w); err != nil {
		h.logger.Error("csv export failed", "error", err)
	}
}

// ImportCSV handles POST /api/v1/vocabulary/import.
func (h *Handler) ImportCSV(w http.ResponseWriter, r *http.Request) {
	file, _, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "file upload is required")
		return
	}
	defer file.Close()

	result, err := h.vocab.ImportCSV(r.Context(), file)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// GetTranslation handles GET /api/v1/vocabulary/{word}/translation.
// Lookup failures are soft: the response degrades to found=false so
// review surfaces can show a fallback string.
func (h *Handler) GetTranslation(w http.ResponseWriter, r *http.Request) {
	word := strings.ToLower(chi.URLParam(r, "word"))

	translation, err := h.translator.Translate(r.Context(), word)
	if err != nil {
		h.logger.Warn("translation lookup failed", "word", word, "error", err)
		translation = models.Translation{Word: word, Found: false}
	}

	writeJSON(w, http.StatusOK, translation)
}

// Flashcards handles GET /api/v1/study/flashcards.
func (h *Handler) Flashcards(w http.ResponseWriter, r *http.Request) {
	var status models.Status
	if s := r.URL.Query().Get("status"); s != "" {
		parsed, err := models.ParseStatus(s)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		status = parsed
	}

	limit := 0
	if l := r.URL.Query().Get("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil {
			limit = parsed
		}
	}

	deck, err := h.review.Flashcards(r.Context(), status, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to build deck")
		return
	}
	if deck == nil {
		deck = []*models.VocabularyEntry{}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"cards": deck})
}

// NextSpelling handles GET /api/v1/study/spelling.
func (h *Handler) NextSpelling(w http.ResponseWriter, r *http.Request) {
	prompt, err := h.review.NextSpelling(r.Context())
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			writeError(w, http.StatusNotFound, "no learning words available")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to pick a word")
		return
	}

	writeJSON(w, http.StatusOK, prompt)
}

type spellingCheckRequest struct {
	Word   string `json:"word"`
	Answer string `json:"answer"`
}

// CheckSpelling handles POST /api/v1/study/spelling/check.
func (h *Handler) CheckSpelling(w http.ResponseWriter, r *http.Request) {
	var req spellingCheckRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	correct, err := h.review.CheckSpelling(r.Context(), req.Word, req.Answer)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			writeError(w, http.StatusNotFound, "word not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to check answer")
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"correct": correct})
}

// GetAutoCollect handles GET /api/v1/settings/autocollect.
func (h *Handler) GetAutoCollect(w http.ResponseWriter, r *http.Request) {
	enabled, err := h.harvest.AutoCollectEnabled(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to read setting")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"enabled": enabled})
}

type autoCollectRequest struct {
	Enabled bool `json:"enabled"`
}

// SetAutoCollect handles PUT /api/v1/settings/autocollect.
func (h *Handler) SetAutoCollect(w http.ResponseWriter, r *http.Request) {
	var req autoCollectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.harvest.SetAutoCollect(r.Context(), req.Enabled); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to persist setting")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"enabled": req.Enabled})
}

func parseEntryFilter(w http.ResponseWriter, r *http.Request) (models.EntryFilter, bool) {
	var filter models.EntryFilter

	if s := r.URL.Query().Get("status"); s != "" {
		status, err := models.ParseStatus(s)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return filter, false
		}
		filter.Status = status
	}

	sort, ok := parseSort(w, r)
	if !ok {
		return filter, false
	}
	filter.Sort = sort

	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if limit, err := strconv.Atoi(limitStr); err == nil {
			filter.Limit = limit
		}
	}
	if offsetStr := r.URL.Query().Get("offset"); offsetStr != "" {
		if offset, err := strconv.Atoi(offsetStr); err == nil {
			filter.Offset = offset
		}
	}

	return filter, true
}

func parseSort(w http.ResponseWriter, r *http.Request) (models.EntrySort, bool) {
	switch sort := models.EntrySort(r.URL.Query().Get("sort")); sort {
	case "", models.SortByCount:
		return models.SortByCount, true
	case models.SortByUpdated, models.SortByAlphabet:
		return sort, true
	default:
		writeError(w, http.StatusBadRequest, "invalid sort: must be count, updated or alpha")
		return "", false
	}
}
