// Package funnel derives display-ready drop-off figures and conversion ratios
// from a metrics snapshot. Everything here is a pure transform: no state, no
// side effects.
package funnel

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/quizlab-dev/quizfunnel/internal/metrics"
)

// ratePlaces is the display precision for percentages.
const ratePlaces = 1

// Step is one row of the ordered funnel.
type Step struct {
	// Name is the display label of the step.
	Name string `json:"name"`

	// QuestionID is set only for question steps.
	QuestionID int `json:"question_id,omitempty"`

	// Count is the raw number of visitors that reached this step.
	Count uint64 `json:"count"`

	// Previous is the count of the immediately preceding step. Zero for the
	// head step, which has no predecessor.
	Previous uint64 `json:"previous"`

	// DropOff is max(0, Previous-Count).
	DropOff uint64 `json:"drop_off"`

	// DropOffRate is DropOff/Previous as a percentage, 0 when Previous is 0.
	DropOffRate decimal.Decimal `json:"drop_off_rate"`
}

// View is the aggregated funnel, ready for a dashboard surface.
type View struct {
	Visits          uint64 `json:"visits"`
	QuizStarts      uint64 `json:"quiz_starts"`
	Leads           uint64 `json:"leads"`
	QuizCompletions uint64 `json:"quiz_completions"`
	AddToCarts      uint64 `json:"add_to_carts"`

	VisitToStartRate     decimal.Decimal `json:"visit_to_start_rate"`
	StartToLeadRate      decimal.Decimal `json:"start_to_lead_rate"`
	LeadToCompletionRate decimal.Decimal `json:"lead_to_completion_rate"`
	CompletionToCartRate decimal.Decimal `json:"completion_to_cart_rate"`

	Steps []Step `json:"steps"`
}

// Aggregate builds the ordered funnel
//
//	quiz start → question 1..N → lead submit → quiz complete → add to cart
//
// annotating each step with its drop-off against the preceding step. Absent
// per-question keys read as zero, so a skipped question shows up as a full
// drop-off rather than an error.
func Aggregate(rec *metrics.Record, totalQuestions int) *View {
	view := &View{
		Visits:          rec.Visits,
		QuizStarts:      rec.QuizStarts,
		Leads:           rec.Leads,
		QuizCompletions: rec.QuizCompletions,
		AddToCarts:      rec.AddToCarts,

		VisitToStartRate:     percent(rec.QuizStarts, rec.Visits),
		StartToLeadRate:      percent(rec.Leads, rec.QuizStarts),
		LeadToCompletionRate: percent(rec.QuizCompletions, rec.Leads),
		CompletionToCartRate: percent(rec.AddToCarts, rec.QuizCompletions),
	}

	steps := make([]Step, 0, totalQuestions+4)
	steps = append(steps, Step{
		Name:        "Quiz Start",
		Count:       rec.QuizStarts,
		DropOffRate: decimal.Zero,
	})

	prev := rec.QuizStarts
	for id := 1; id <= totalQuestions; id++ {
		count := rec.CompletionsFor(id)
		steps = append(steps, newStep(fmt.Sprintf("Question %d", id), id, count, prev))
		prev = count
	}

	steps = append(steps, newStep("Lead Submit", 0, rec.Leads, prev))
	steps = append(steps, newStep("Quiz Complete", 0, rec.QuizCompletions, rec.Leads))
	steps = append(steps, newStep("Add to Cart", 0, rec.AddToCarts, rec.QuizCompletions))

	view.Steps = steps
	return view
}

func newStep(name string, questionID int, count, prev uint64) Step {
	var dropOff uint64
	if prev > count {
		dropOff = prev - count
	}
	return Step{
		Name:        name,
		QuestionID:  questionID,
		Count:       count,
		Previous:    prev,
		DropOff:     dropOff,
		DropOffRate: percent(dropOff, prev),
	}
}

// percent returns num/den*100 rounded to one decimal place. A zero
// denominator yields exactly zero, never NaN or an error.
func percent(num, den uint64) decimal.Decimal {
	if den == 0 {
		return decimal.Zero
	}
	return decimal.NewFromUint64(num).
		Div(decimal.NewFromUint64(den)).
		Mul(decimal.NewFromInt(100)).
		Round(ratePlaces)
}
