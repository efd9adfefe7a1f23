// Package session owns the visitor's view state machine: which screen is
// active, where the visitor is in the quiz, and how user actions, timers and
// navigation signals move between screens.
package session

import (
	v1 "github.com/quizlab-dev/quizfunnel/internal/api/v1"
)

// View is the active screen.
type View string

const (
	ViewWelcome     View = "welcome"
	ViewQuiz        View = "quiz"
	ViewLeadCapture View = "lead_capture"
	ViewResults     View = "results"
	ViewAuth        View = "auth"
	ViewDashboard   View = "dashboard"
)

// State is a snapshot of the router's working set, safe to hand out: the
// router only ever replaces it through its transition operations.
type State struct {
	View View `json:"view"`

	// QuestionIndex is 0-based and only meaningful on the quiz view.
	QuestionIndex int `json:"question_index"`

	// Processing is the transient flag between lead submission and the
	// results view.
	Processing bool `json:"processing"`

	// Authorized mirrors the durable session flag behind the dashboard gate.
	Authorized bool `json:"authorized"`

	// DiagnosisLevel indexes the fixed set of diagnosis variants. Chosen at
	// lead submission.
	DiagnosisLevel int `json:"diagnosis_level"`

	// Lead is the captured contact record, present once submitted or
	// rehydrated from the results route.
	Lead *v1.Lead `json:"lead,omitempty"`

	// Message is the inline validation message for the current view. Empty
	// when the last action succeeded.
	Message string `json:"message,omitempty"`
}
