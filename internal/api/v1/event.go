package v1

import (
	"fmt"
	"time"
)

// EventKind names a funnel step a visitor passed through.
type EventKind string

const (
	KindVisit            EventKind = "visit"
	KindQuizStart        EventKind = "quiz_start"
	KindQuestionView     EventKind = "question_view"
	KindQuestionComplete EventKind = "question_complete"
	KindLeadSubmit       EventKind = "lead_submit"
	KindQuizComplete     EventKind = "quiz_complete"
	KindAddToCart        EventKind = "add_to_cart"

	// KindCheckoutStart is an accepted alias for KindAddToCart. Older funnel
	// variants emitted it; both mutate the same counter.
	KindCheckoutStart EventKind = "checkout_start"
)

// knownKinds is the closed set the recorder understands. Anything else is
// logged and dropped without failing the caller.
var knownKinds = map[EventKind]bool{
	KindVisit:            true,
	KindQuizStart:        true,
	KindQuestionView:     true,
	KindQuestionComplete: true,
	KindLeadSubmit:       true,
	KindQuizComplete:     true,
	KindAddToCart:        true,
	KindCheckoutStart:    true,
}

// Known reports whether k is part of the recorder's mutation table.
func Known(k EventKind) bool {
	return knownKinds[k]
}

// Payload carries optional event-scoped data. Only question-scoped kinds use
// it today.
type Payload struct {
	// QuestionID is the 1-based id of the question the event refers to.
	QuestionID int `json:"question_id,omitempty"`
}

// Event is one funnel occurrence in flight. It is transient: created when the
// visitor acts, consumed exactly once by the recorder, then discarded.
type Event struct {
	// Kind selects the mutation applied to the metrics record.
	Kind EventKind `json:"kind"`

	// Payload is optional; a question_complete without a question id is a
	// deliberate no-op, not an error.
	Payload *Payload `json:"payload,omitempty"`

	// OccurredAt is when the visitor action happened. Backfilled by the
	// ingestion layer when zero.
	OccurredAt time.Time `json:"occurred_at,omitempty"`
}

// Validate checks the envelope only. Unknown kinds pass validation on
// purpose: the recorder owns that policy and treats them as a logged no-op.
func (e *Event) Validate() error {
	if e.Kind == "" {
		return fmt.Errorf("kind is required")
	}
	return nil
}

// QuestionID returns the payload question id, or 0 when absent.
func (e *Event) QuestionID() int {
	if e.Payload == nil {
		return 0
	}
	return e.Payload.QuestionID
}
