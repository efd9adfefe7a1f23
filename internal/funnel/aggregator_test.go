package funnel

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/quizlab-dev/quizfunnel/internal/metrics"
)

func requireRate(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	require.True(t, decimal.RequireFromString(want).Equal(got),
		"want %s, got %s", want, got)
}

func TestAggregate_ZeroRecordHasNoDivisionErrors(t *testing.T) {
	view := Aggregate(metrics.Zero(), 7)

	requireRate(t, "0", view.VisitToStartRate)
	requireRate(t, "0", view.StartToLeadRate)
	requireRate(t, "0", view.LeadToCompletionRate)
	requireRate(t, "0", view.CompletionToCartRate)

	require.Len(t, view.Steps, 7+4)
	for _, step := range view.Steps {
		require.Zero(t, step.Count)
		require.Zero(t, step.DropOff)
		requireRate(t, "0", step.DropOffRate)
	}
}

func TestAggregate_VisitToStartRatio(t *testing.T) {
	rec := metrics.Zero()
	rec.Visits = 3
	rec.QuizStarts = 1

	view := Aggregate(rec, 2)
	requireRate(t, "33.3", view.VisitToStartRate)
}

func TestAggregate_AbsentQuestionKeyIsFullDropOff(t *testing.T) {
	rec := metrics.Zero()
	rec.QuizStarts = 5
	rec.QuestionCompletions[2] = 3 // question 1 never completed

	view := Aggregate(rec, 3)

	q1 := view.Steps[1]
	require.Equal(t, "Question 1", q1.Name)
	require.EqualValues(t, 0, q1.Count)
	require.EqualValues(t, 5, q1.Previous)
	require.EqualValues(t, 5, q1.DropOff)
	requireRate(t, "100", q1.DropOffRate)

	// Question 2 recovered visitors; drop-off never goes negative.
	q2 := view.Steps[2]
	require.EqualValues(t, 3, q2.Count)
	require.EqualValues(t, 0, q2.Previous)
	require.EqualValues(t, 0, q2.DropOff)
	requireRate(t, "0", q2.DropOffRate)
}

func TestAggregate_StepOrderAndChaining(t *testing.T) {
	rec := metrics.Zero()
	rec.Visits = 100
	rec.QuizStarts = 80
	rec.QuestionCompletions[1] = 60
	rec.QuestionCompletions[2] = 40
	rec.Leads = 30
	rec.QuizCompletions = 25
	rec.AddToCarts = 10

	view := Aggregate(rec, 2)

	names := make([]string, 0, len(view.Steps))
	for _, s := range view.Steps {
		names = append(names, s.Name)
	}
	require.Equal(t, []string{
		"Quiz Start", "Question 1", "Question 2",
		"Lead Submit", "Quiz Complete", "Add to Cart",
	}, names)

	lead := view.Steps[3]
	require.EqualValues(t, 40, lead.Previous)
	require.EqualValues(t, 10, lead.DropOff)
	requireRate(t, "25", lead.DropOffRate)

	complete := view.Steps[4]
	require.EqualValues(t, 30, complete.Previous)
	require.EqualValues(t, 5, complete.DropOff)

	cart := view.Steps[5]
	require.EqualValues(t, 25, cart.Previous)
	require.EqualValues(t, 15, cart.DropOff)
	requireRate(t, "60", cart.DropOffRate)

	requireRate(t, "80", view.VisitToStartRate)
	requireRate(t, "37.5", view.StartToLeadRate)
	requireRate(t, "83.3", view.LeadToCompletionRate)
	requireRate(t, "40", view.CompletionToCartRate)
}

func TestAggregate_DropOffRateBounded(t *testing.T) {
	// Counts that exceed their predecessor (possible after partial resets or
	// deep links) must clamp to zero, and rates stay within [0,100].
	rec := metrics.Zero()
	rec.QuizStarts = 2
	rec.QuestionCompletions[1] = 9

	view := Aggregate(rec, 1)
	hundred := decimal.NewFromInt(100)

	for _, step := range view.Steps {
		require.True(t, step.DropOffRate.GreaterThanOrEqual(decimal.Zero),
			"step %s rate below 0", step.Name)
		require.True(t, step.DropOffRate.LessThanOrEqual(hundred),
			"step %s rate above 100", step.Name)
	}
}

func TestPercent(t *testing.T) {
	tests := []struct {
		num, den uint64
		want     string
	}{
		{0, 0, "0"},
		{5, 0, "0"},
		{1, 3, "33.3"},
		{2, 3, "66.7"},
		{3, 3, "100"},
		{1, 1000, "0.1"},
	}
	for _, tc := range tests {
		requireRate(t, tc.want, percent(tc.num, tc.den))
	}
}
