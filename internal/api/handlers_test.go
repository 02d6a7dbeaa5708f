package api

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	_ "github.com/mattn/go-sqlite3"

	"github.com/tmorling/wordsieve/internal/models"
	"github.com/tmorling/wordsieve/internal/repository"
	"github.com/tmorling/wordsieve/internal/services"
)

type testServer struct {
	router  *chi.Mux
	repo    *repository.SQLiteRepository
	pageURL string
}

func newTestServer(t *testing.T, apiToken string) *testServer {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	_, err = db.Exec(`
		CREATE TABLE vocabulary (
			word TEXT PRIMARY KEY,
			count INTEGER NOT NULL DEFAULT 0 CHECK (count >= 0),
			status TEXT CHECK (status IN ('learning', 'mastered', 'ignored')),
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		);
		CREATE TABLE settings (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);
	`)
	if err != nil {
		t.Fatalf("failed to create schema: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	repo := repository.NewSQLiteRepository(db)

	dictionary := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"word":"tide","meanings":[{"partOfSpeech":"noun","definitions":[{"definition":"the rise and fall of the sea"}]}]}]`))
	}))
	t.Cleanup(dictionary.Close)
	translator := services.NewTranslatorServiceWithClient(dictionary.Client(), dictionary.URL, 16)

	page := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(`<html><body><article>
			<h1>Harbor Report</h1>
			<p>The lighthouse keeper logged every vessel entering the harbor,
			noting cargo manifests and weather conditions in a battered ledger.</p>
		</article></body></html>`))
	}))
	t.Cleanup(page.Close)
	fetcher := services.NewPageFetcherWithClient(page.Client())

	analyzer := services.NewAnalyzerService(repo, nil)
	harvest := services.NewHarvestService(repo, analyzer, fetcher, logger, services.HarvestOptions{
		AutoCollectDefault: true,
	})
	vocab := services.NewVocabularyService(repo, 0)
	review := services.NewReviewService(repo, translator)

	h := NewHandler(analyzer, harvest, vocab, review, translator, logger)
	return &testServer{
		router:  NewRouter(h, logger, apiToken),
		repo:    repo,
		pageURL: page.URL,
	}
}

func (ts *testServer) do(t *testing.T, method, path string, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	ts.router.ServeHTTP(rec, req)
	return rec
}

func (ts *testServer) seed(t *testing.T, word string, count int64, status models.Status) {
	t.Helper()
	ctx := context.Background()
	if _, err := ts.repo.UpsertIngest(ctx, word, count, 1000); err != nil {
		t.Fatalf("seed %q failed: %v", word, err)
	}
	if status != "" && status != models.StatusLearning {
		if err := ts.repo.SetStatus(ctx, word, status); err != nil {
			t.Fatalf("seed status for %q failed: %v", word, err)
		}
	}
}

func decodeJSON(t *testing.T, rec *httptest.ResponseRecorder, out interface{}) {
	t.Helper()
	if err := json.NewDecoder(rec.Body).Decode(out); err != nil {
		t.Fatalf("failed to decode response %q: %v", rec.Body.String(), err)
	}
}

func TestHealthCheck(t *testing.T) {
	ts := newTestServer(t, "")

	rec := ts.do(t, http.MethodGet, "/health", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var body map[string]string
	decodeJSON(t, rec, &body)
	if body["status"] != "ok" {
		t.Errorf("status field = %q, want ok", body["status"])
	}
}

func TestAnalyzeEndpoint(t *testing.T) {
	ts := newTestServer(t, "")
	ts.seed(t, "harbor", 1, models.StatusMastered)

	rec := ts.do(t, http.MethodPost, "/api/v1/analyze", `{"text":"tide tide harbor gull"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var analysis models.PageAnalysis
	decodeJSON(t, rec, &analysis)
	if analysis.TotalWords != 4 {
		t.Errorf("total_words = %d, want 4", analysis.TotalWords)
	}
	if analysis.UniqueWords != 3 {
		t.Errorf("unique_words = %d, want 3 regardless of statuses", analysis.UniqueWords)
	}
	if len(analysis.List) != 2 || analysis.List[0].Word != "tide" {
		t.Errorf("list = %v, want tide first", analysis.List)
	}
}

func TestAnalyzeEndpoint_BadBody(t *testing.T) {
	ts := newTestServer(t, "")

	rec := ts.do(t, http.MethodPost, "/api/v1/analyze", `{"text": `)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestHarvestEndpoint_ExplicitSave(t *testing.T) {
	ts := newTestServer(t, "")

	rec := ts.do(t, http.MethodPost, "/api/v1/harvest", `{"text":"tide tide gull"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var summary models.IngestSummary
	decodeJSON(t, rec, &summary)
	if summary.NewWordsAdded != 2 {
		t.Errorf("new_words_added = %d, want 2", summary.NewWordsAdded)
	}

	entry, err := ts.repo.Get(context.Background(), "tide")
	if err != nil {
		t.Fatalf("tide was not persisted: %v", err)
	}
	if entry.Count != 2 {
		t.Errorf("tide count = %d, want 2", entry.Count)
	}
}

func TestHarvestEndpoint_Silent(t *testing.T) {
	ts := newTestServer(t, "")

	rec := ts.do(t, http.MethodPost, "/api/v1/harvest", `{"text":"tide gull","silent":true}`)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", rec.Code)
	}
	if rec.Body.Len() != 0 {
		t.Errorf("silent harvest wrote a body: %s", rec.Body.String())
	}

	// With no settle delay the ingest is done before the response.
	if _, err := ts.repo.Get(context.Background(), "tide"); err != nil {
		t.Errorf("tide was not collected: %v", err)
	}
}

func TestHarvestEndpoint_SilentURLHonorsAutoCollect(t *testing.T) {
	ts := newTestServer(t, "")
	ctx := context.Background()

	if err := ts.repo.SetAutoCollect(ctx, false); err != nil {
		t.Fatalf("SetAutoCollect() failed: %v", err)
	}

	rec := ts.do(t, http.MethodPost, "/api/v1/harvest", `{"url":"`+ts.pageURL+`","silent":true}`)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", rec.Code)
	}
	if total, _ := ts.repo.Count(ctx, models.EntryFilter{}); total != 0 {
		t.Errorf("entries = %d, want 0: silent url harvest must honor the flag", total)
	}

	if err := ts.repo.SetAutoCollect(ctx, true); err != nil {
		t.Fatalf("SetAutoCollect() failed: %v", err)
	}
	rec = ts.do(t, http.MethodPost, "/api/v1/harvest", `{"url":"`+ts.pageURL+`","silent":true}`)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", rec.Code)
	}
	if total, _ := ts.repo.Count(ctx, models.EntryFilter{}); total == 0 {
		t.Error("expected words collected from the page with the flag on")
	}
}

func TestHarvestEndpoint_RequiresInput(t *testing.T) {
	ts := newTestServer(t, "")

	rec := ts.do(t, http.MethodPost, "/api/v1/harvest", `{}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestListVocabulary(t *testing.T) {
	ts := newTestServer(t, "")
	ts.seed(t, "tide", 5, "")
	ts.seed(t, "gull", 2, "")
	ts.seed(t, "harbor", 9, models.StatusMastered)

	rec := ts.do(t, http.MethodGet, "/api/v1/vocabulary?status=learning", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var body struct {
		Entries []models.VocabularyEntry `json:"entries"`
		Total   int64                    `json:"total"`
	}
	decodeJSON(t, rec, &body)
	if body.Total != 2 {
		t.Errorf("total = %d, want 2", body.Total)
	}
	if len(body.Entries) != 2 || body.Entries[0].Word != "tide" {
		t.Errorf("entries = %v, want tide first by count", body.Entries)
	}
}

func TestListVocabulary_InvalidSort(t *testing.T) {
	ts := newTestServer(t, "")

	rec := ts.do(t, http.MethodGet, "/api/v1/vocabulary?sort=bogus", "")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestGetEntry(t *testing.T) {
	ts := newTestServer(t, "")
	ts.seed(t, "tide", 3, "")

	rec := ts.do(t, http.MethodGet, "/api/v1/vocabulary/tide", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var entry models.VocabularyEntry
	decodeJSON(t, rec, &entry)
	if entry.Word != "tide" || entry.Count != 3 {
		t.Errorf("entry = %+v", entry)
	}

	rec = ts.do(t, http.MethodGet, "/api/v1/vocabulary/ghost", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404 for unknown word", rec.Code)
	}
}

func TestSetStatusEndpoint(t *testing.T) {
	ts := newTestServer(t, "")
	ts.seed(t, "tide", 3, "")

	rec := ts.do(t, http.MethodPut, "/api/v1/vocabulary/tide/status", `{"status":"mastered"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var entry models.VocabularyEntry
	decodeJSON(t, rec, &entry)
	if entry.EffectiveStatus() != models.StatusMastered {
		t.Errorf("status = %q, want mastered", entry.EffectiveStatus())
	}

	rec = ts.do(t, http.MethodPut, "/api/v1/vocabulary/tide/status", `{"status":"bogus"}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400 for invalid status", rec.Code)
	}

	rec = ts.do(t, http.MethodPut, "/api/v1/vocabulary/ghost/status", `{"status":"ignored"}`)
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404 for unknown word", rec.Code)
	}
}

func TestResetCountsEndpoint(t *testing.T) {
	ts := newTestServer(t, "")
	ts.seed(t, "tide", 3, "")

	rec := ts.do(t, http.MethodPost, "/api/v1/vocabulary/reset", "")
	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", rec.Code)
	}

	entry, _ := ts.repo.Get(context.Background(), "tide")
	if entry.Count != 0 {
		t.Errorf("count = %d, want 0 after reset", entry.Count)
	}
}

func TestDeleteEndpoints(t *testing.T) {
	ts := newTestServer(t, "")
	ts.seed(t, "tide", 1, "")
	ts.seed(t, "gull", 1, models.StatusIgnored)
	ts.seed(t, "harbor", 1, models.StatusIgnored)

	rec := ts.do(t, http.MethodDelete, "/api/v1/vocabulary/tide", "")
	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", rec.Code)
	}

	rec = ts.do(t, http.MethodDelete, "/api/v1/vocabulary?status=ignored", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var body map[string]int64
	decodeJSON(t, rec, &body)
	if body["deleted"] != 2 {
		t.Errorf("deleted = %d, want 2", body["deleted"])
	}

	rec = ts.do(t, http.MethodDelete, "/api/v1/vocabulary", "")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400 without status param", rec.Code)
	}
}

func TestExportEndpoint(t *testing.T) {
	ts := newTestServer(t, "")
	ts.seed(t, "tide", 5, "")
	ts.seed(t, "gull", 2, "")

	rec := ts.do(t, http.MethodGet, "/api/v1/vocabulary/export", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/plain") {
		t.Errorf("Content-Type = %q, want text/plain", ct)
	}
	if rec.Body.String() != "tide (5)\ngull (2)\n" {
		t.Errorf("body = %q", rec.Body.String())
	}
}

func TestImportEndpoint(t *testing.T) {
	ts := newTestServer(t, "")

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", "vocab.csv")
	if err != nil {
		t.Fatalf("failed to create form file: %v", err)
	}
	part.Write([]byte("word,count\ntide,4\ngull,1\n"))
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/vocabulary/import", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	ts.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var result models.ImportResult
	decodeJSON(t, rec, &result)
	if result.Imported != 2 {
		t.Errorf("imported = %d, want 2", result.Imported)
	}

	entry, err := ts.repo.Get(context.Background(), "tide")
	if err != nil {
		t.Fatalf("tide missing after import: %v", err)
	}
	if entry.Count != 4 {
		t.Errorf("tide count = %d, want 4", entry.Count)
	}
}

func TestTranslationEndpoint(t *testing.T) {
	ts := newTestServer(t, "")

	rec := ts.do(t, http.MethodGet, "/api/v1/vocabulary/tide/translation", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var translation models.Translation
	decodeJSON(t, rec, &translation)
	if !translation.Found {
		t.Error("expected found = true from the stub dictionary")
	}
	if translation.Gloss != "(noun) the rise and fall of the sea" {
		t.Errorf("gloss = %q", translation.Gloss)
	}
}

func TestStudyEndpoints(t *testing.T) {
	ts := newTestServer(t, "")

	rec := ts.do(t, http.MethodGet, "/api/v1/study/spelling", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404 with no learning words", rec.Code)
	}

	ts.seed(t, "tide", 1, "")

	rec = ts.do(t, http.MethodGet, "/api/v1/study/flashcards", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("flashcards status = %d", rec.Code)
	}
	var deck struct {
		Cards []models.VocabularyEntry `json:"cards"`
	}
	decodeJSON(t, rec, &deck)
	if len(deck.Cards) != 1 || deck.Cards[0].Word != "tide" {
		t.Errorf("cards = %v, want [tide]", deck.Cards)
	}

	rec = ts.do(t, http.MethodGet, "/api/v1/study/spelling", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("spelling status = %d", rec.Code)
	}
	var prompt struct {
		Word   string `json:"word"`
		Length int    `json:"length"`
	}
	decodeJSON(t, rec, &prompt)
	if prompt.Word != "tide" || prompt.Length != 4 {
		t.Errorf("prompt = %+v", prompt)
	}

	rec = ts.do(t, http.MethodPost, "/api/v1/study/spelling/check", `{"word":"tide","answer":"TIDE"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("check status = %d", rec.Code)
	}
	var check map[string]bool
	decodeJSON(t, rec, &check)
	if !check["correct"] {
		t.Error("expected correct = true for case-insensitive match")
	}
}

func TestAutoCollectSettings(t *testing.T) {
	ts := newTestServer(t, "")

	rec := ts.do(t, http.MethodGet, "/api/v1/settings/autocollect", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var body map[string]bool
	decodeJSON(t, rec, &body)
	if !body["enabled"] {
		t.Error("expected default-enabled auto-collect")
	}

	rec = ts.do(t, http.MethodPut, "/api/v1/settings/autocollect", `{"enabled":false}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	rec = ts.do(t, http.MethodGet, "/api/v1/settings/autocollect", "")
	decodeJSON(t, rec, &body)
	if body["enabled"] {
		t.Error("expected auto-collect off after update")
	}
}

func TestBearerAuth(t *testing.T) {
	ts := newTestServer(t, "secret")

	// Reads pass without a token.
	rec := ts.do(t, http.MethodGet, "/api/v1/vocabulary", "")
	if rec.Code != http.StatusOK {
		t.Errorf("GET status = %d, want 200 without token", rec.Code)
	}

	// Writes need the bearer token.
	rec = ts.do(t, http.MethodPost, "/api/v1/harvest", `{"text":"tide"}`)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("POST status = %d, want 401 without token", rec.Code)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/harvest", strings.NewReader(`{"text":"tide"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer wrong")
	rec = httptest.NewRecorder()
	ts.router.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("POST status = %d, want 401 with wrong token", rec.Code)
	}

	req = httptest.NewRequest(http.MethodPost, "/api/v1/harvest", strings.NewReader(`{"text":"tide"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer secret")
	rec = httptest.NewRecorder()
	ts.router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("POST status = %d, want 200 with valid token", rec.Code)
	}
}

func TestCORSPreflightAndSelectionStatsUnavailable(t *testing.T) {
	ts := newTestServer(t, "")

	rec := ts.do(t, http.MethodOptions, "/api/v1/analyze", "")
	if rec.Code != http.StatusOK {
		t.Errorf("OPTIONS status = %d, want 200", rec.Code)
	}
	if rec.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Error("missing CORS allow-origin header")
	}

	// The test stack has no segmenter wired.
	rec = ts.do(t, http.MethodPost, "/api/v1/analyze/stats", `{"text":"tide"}`)
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("stats status = %d, want 500 without a segmenter", rec.Code)
	}
}
