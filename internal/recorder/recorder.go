// Package recorder owns the authoritative metric-update rules: every funnel
// event maps to exactly one mutation of the metrics record.
package recorder

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/google/uuid"

	v1 "github.com/quizlab-dev/quizfunnel/internal/api/v1"
	"github.com/quizlab-dev/quizfunnel/internal/metrics"
)

// Locale is the fixed geo attribution stamped onto synthesized visitors.
type Locale struct {
	Country string
	Region  string
	City    string
}

// Recorder consumes funnel events and writes the resulting mutations through
// the metrics store.
//
// The store's read and write are not atomically coupled, so concurrent Record
// calls would race on the read-modify-write cycle and lose increments. The
// mutex serializes all mutating calls for the store; this is a correctness
// requirement, not an optimization.
type Recorder struct {
	mu    sync.Mutex
	store *metrics.Store
	ops   *Metrics

	locale Locale

	// Seams for deterministic tests.
	nowFn func() time.Time
	idFn  func() string
	ipFn  func() string
}

// New creates a recorder over the given store. ops may be nil when the
// recorder runs without Prometheus instrumentation.
func New(store *metrics.Store, locale Locale, ops *Metrics) *Recorder {
	if store == nil {
		panic("recorder: store must not be nil")
	}
	return &Recorder{
		store:  store,
		ops:    ops,
		locale: locale,
		nowFn: func() time.Time {
			return time.Now().UTC()
		},
		idFn: uuid.NewString,
		ipFn: pseudoIP,
	}
}

// Record applies the mutation for evt and persists the updated record before
// returning. It never fails the caller: unknown kinds are logged and dropped,
// malformed payloads degrade to a no-op, and storage failures are absorbed by
// the store's best-effort write policy.
func (r *Recorder) Record(ctx context.Context, evt *v1.Event) {
	if evt == nil {
		return
	}

	start := r.nowFn()

	r.mu.Lock()
	outcome := r.apply(ctx, evt)
	r.mu.Unlock()

	r.ops.observe(string(evt.Kind), outcome, r.nowFn().Sub(start).Seconds())
}

// apply holds the mutation table. Caller must hold r.mu.
func (r *Recorder) apply(ctx context.Context, evt *v1.Event) string {
	rec := r.store.Read(ctx)

	switch evt.Kind {
	case v1.KindVisit:
		rec.Visits++
		rec.Visitors = append(rec.Visitors, r.newVisitor())

	case v1.KindQuizStart:
		rec.QuizStarts++

	case v1.KindQuestionView:
		// No metrics mutation in the current funnel variant. Kept so future
		// instrumentation can land without a wire change.
		return OutcomeNoop

	case v1.KindQuestionComplete:
		qid := evt.QuestionID()
		if qid <= 0 {
			// Missing payload is a no-op, not an error.
			slog.Debug("question_complete without question id, skipping")
			return OutcomeNoop
		}
		rec.QuestionCompletions[qid]++

	case v1.KindLeadSubmit:
		rec.Leads++

	case v1.KindQuizComplete:
		rec.QuizCompletions++

	case v1.KindAddToCart, v1.KindCheckoutStart:
		rec.AddToCarts++

	default:
		slog.Warn("Unknown event kind, no mutation applied", "kind", evt.Kind)
		return OutcomeUnknown
	}

	r.store.Write(ctx, rec)
	return OutcomeRecorded
}

func (r *Recorder) newVisitor() metrics.Visitor {
	return metrics.Visitor{
		ID:        r.idFn(),
		IPAddress: r.ipFn(),
		Country:   r.locale.Country,
		Region:    r.locale.Region,
		City:      r.locale.City,
		Timestamp: r.nowFn(),
	}
}

// pseudoIP synthesizes an address in 203.0.113.0/24 (TEST-NET-3), which is
// reserved for documentation and never routes.
func pseudoIP() string {
	return fmt.Sprintf("203.0.113.%d", rand.IntN(256))
}
