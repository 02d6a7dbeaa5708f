package models

import (
	"fmt"
	"time"
)

// Status is the lifecycle state of a vocabulary entry.
type Status string

const (
	// StatusLearning marks a word that is actively being studied.
	StatusLearning Status = "learning"
	// StatusMastered marks a word the user has confirmed knowledge of.
	StatusMastered Status = "mastered"
	// StatusIgnored marks a word flagged as not worth tracking.
	StatusIgnored Status = "ignored"
)

// ParseStatus validates a status string coming from a client.
func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusLearning, StatusMastered, StatusIgnored:
		return Status(s), nil
	}
	return "", fmt.Errorf("invalid status %q", s)
}

// VocabularyEntry is a persisted vocabulary record, one per unique
// lowercased word.
type VocabularyEntry struct {
	Word      string    `json:"word"`
	Count     int64     `json:"count"`
	Status    *Status   `json:"status,omitempty"` // nil for records created before status existed
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// EffectiveStatus normalizes the backward-compatible absent status:
// entries without an explicit status count as learning everywhere.
func (e *VocabularyEntry) EffectiveStatus() Status {
	if e.Status == nil {
		return StatusLearning
	}
	return *e.Status
}

// WordCandidate is a single extracted word with its occurrence count for
// one analysis pass. Candidates are ephemeral and never persisted directly.
type WordCandidate struct {
	Word  string `json:"word"`
	Count int64  `json:"count"`
}

// IngestSummary reports the outcome of ingesting a candidate batch.
type IngestSummary struct {
	NewWordsAdded    int  `json:"new_words_added"`
	UpdatedWords     int  `json:"updated_words"`
	SkippedTerminal  int  `json:"skipped_terminal"`
	CapacityRejected int  `json:"capacity_rejected"`
	CapacityHit      bool `json:"capacity_hit"`
}

// IngestOutcome reports the result of a single-word upsert.
type IngestOutcome struct {
	Created     bool `json:"created"`
	Updated     bool `json:"updated"`
	CapacityHit bool `json:"capacity_hit"`
}

// PageAnalysis is the result of analyzing a page's text: total extracted
// word tokens, the number of unique accepted words on the page, and the
// frequency-sorted candidate list shown to the user, which additionally
// omits words already mastered or ignored.
type PageAnalysis struct {
	TotalWords  int             `json:"total_words"`
	UniqueWords int             `json:"unique_words"`
	List        []WordCandidate `json:"list"`
}

// SelectionStats holds word/character counts for a text selection.
type SelectionStats struct {
	Segments   int `json:"segments"`
	Characters int `json:"characters"`
}

// EntrySort determines the ordering of listed vocabulary entries.
type EntrySort string

const (
	SortByCount    EntrySort = "count"    // count desc, then word asc
	SortByUpdated  EntrySort = "updated"  // updated_at desc
	SortByAlphabet EntrySort = "alpha"    // word asc
)

// EntryFilter represents query parameters for listing vocabulary entries.
type EntryFilter struct {
	Status Status // empty means all statuses
	Sort   EntrySort
	Limit  int
	Offset int
}

// ImportResult contains the results of a CSV import operation.
type ImportResult struct {
	Imported int      `json:"imported"`
	Skipped  int      `json:"skipped"`
	Errors   []string `json:"errors,omitempty"`
}

// Translation is the cached result of a dictionary lookup for a word.
type Translation struct {
	Word     string `json:"word"`
	Phonetic string `json:"phonetic,omitempty"`
	Gloss    string `json:"gloss"`
	Found    bool   `json:"found"`
}
