// Package metrics owns the aggregate funnel counters and the store that
// persists them under a single well-known key.
package metrics

import (
	"time"
)

// Visitor is one row of the visit log. Created only by the event recorder on
// a visit event; immutable afterwards. Rows are appended, never updated.
type Visitor struct {
	ID        string    `json:"id"`
	IPAddress string    `json:"ip_address"`
	Country   string    `json:"country"`
	Region    string    `json:"region"`
	City      string    `json:"city"`
	Timestamp time.Time `json:"timestamp"`
}

// Record is the sole aggregate root of the funnel. Every counter is
// monotonically non-decreasing between resets; a reset replaces the whole
// record with a fresh zero value, never a partial clear.
//
// The JSON shape is the persisted shape. Older persisted revisions may lack
// newer fields; decoding onto Zero() backfills them with defaults instead of
// treating the payload as corrupt.
type Record struct {
	Visits     uint64 `json:"visits"`
	QuizStarts uint64 `json:"quiz_starts"`
	Leads      uint64 `json:"leads"`

	// QuestionCompletions is sparse, keyed by 1-based question id.
	QuestionCompletions map[int]uint64 `json:"question_completions"`

	QuizCompletions uint64 `json:"quiz_completions"`
	AddToCarts      uint64 `json:"add_to_carts"`

	// Visitors is append-only, most recent last.
	Visitors []Visitor `json:"visitors"`
}

// Zero returns the canonical zero-valued record.
func Zero() *Record {
	return &Record{
		QuestionCompletions: make(map[int]uint64),
		Visitors:            []Visitor{},
	}
}

// normalize backfills fields a decoded older revision may have left nil, so
// consumers never see a nil map or list.
func (r *Record) normalize() {
	if r.QuestionCompletions == nil {
		r.QuestionCompletions = make(map[int]uint64)
	}
	if r.Visitors == nil {
		r.Visitors = []Visitor{}
	}
}

// CompletionsFor returns the completion count for a question id; absent keys
// read as zero.
func (r *Record) CompletionsFor(questionID int) uint64 {
	return r.QuestionCompletions[questionID]
}
