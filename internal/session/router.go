package session

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"net/url"
	"sync"
	"time"

	v1 "github.com/quizlab-dev/quizfunnel/internal/api/v1"
	"github.com/quizlab-dev/quizfunnel/internal/checkout"
	"github.com/quizlab-dev/quizfunnel/internal/questions"
	"github.com/quizlab-dev/quizfunnel/internal/recorder"
)

const (
	defaultDiagnosisLevels = 3
	defaultProcessingDelay = 2500 * time.Millisecond
)

const msgWrongSecret = "Incorrect password. Try again."

// Authorizer answers whether a caller-supplied secret grants dashboard
// access.
type Authorizer interface {
	Verify(secret string) bool
}

// Config wires the router's collaborators.
type Config struct {
	Questions *questions.Set
	Recorder  *recorder.Recorder
	Navigator Navigator
	Auth      Authorizer
	Formatter *checkout.Formatter

	// DiagnosisLevels bounds the random diagnosis index. Defaults to 3.
	DiagnosisLevels int

	// ProcessingDelay is the fixed, non-cancellable pause between lead
	// submission and the results view. Defaults to 2.5s.
	ProcessingDelay time.Duration
}

// Router is the view state machine for one visitor session. All state is
// owned here and mutated only through transition methods; a full page reload
// is modeled as constructing a new Router.
//
// Transitions never fail the process: an action that does not apply to the
// current view leaves the state untouched, and bad input degrades to an
// inline validation message.
type Router struct {
	mu             sync.Mutex
	view           View
	questionIndex  int
	processing     bool
	diagnosisLevel int
	lead           *v1.Lead
	message        string

	questions *questions.Set
	rec       *recorder.Recorder
	nav       Navigator
	auth      Authorizer
	formatter *checkout.Formatter

	diagnosisLevels int
	processingDelay time.Duration

	// Seams: swapped for deterministic stubs in tests.
	chooseDiagnosis func() int
	schedule        func(d time.Duration, f func())
}

// New derives the initial view from the navigation context and, when the
// visitor lands on the welcome screen, records the visit.
func New(ctx context.Context, cfg Config) (*Router, error) {
	if cfg.Questions == nil || cfg.Questions.Len() == 0 {
		return nil, fmt.Errorf("session: question set must not be empty")
	}
	if cfg.Recorder == nil {
		return nil, fmt.Errorf("session: recorder must not be nil")
	}
	if cfg.Navigator == nil {
		return nil, fmt.Errorf("session: navigator must not be nil")
	}
	if cfg.Auth == nil {
		return nil, fmt.Errorf("session: authorizer must not be nil")
	}
	if cfg.Formatter == nil {
		return nil, fmt.Errorf("session: checkout formatter must not be nil")
	}
	if cfg.DiagnosisLevels <= 0 {
		cfg.DiagnosisLevels = defaultDiagnosisLevels
	}
	if cfg.ProcessingDelay <= 0 {
		cfg.ProcessingDelay = defaultProcessingDelay
	}

	r := &Router{
		questions:       cfg.Questions,
		rec:             cfg.Recorder,
		nav:             cfg.Navigator,
		auth:            cfg.Auth,
		formatter:       cfg.Formatter,
		diagnosisLevels: cfg.DiagnosisLevels,
		processingDelay: cfg.ProcessingDelay,
	}
	r.chooseDiagnosis = func() int {
		return rand.IntN(r.diagnosisLevels)
	}
	r.schedule = func(d time.Duration, f func()) {
		time.AfterFunc(d, f)
	}

	r.view = r.deriveView(r.nav.Location())
	if r.view == ViewResults {
		r.lead = leadFromQuery(r.nav.Location().Query)
	}
	if r.view == ViewWelcome {
		r.rec.Record(ctx, &v1.Event{Kind: v1.KindVisit})
	}

	return r, nil
}

// deriveView maps a navigation context onto a view, the same rule at
// initialization and on navigation signals.
func (r *Router) deriveView(loc Location) View {
	switch loc.Path {
	case PathDashboard:
		if r.nav.SessionFlag(authorizedFlag) {
			return ViewDashboard
		}
		return ViewAuth
	case PathResults:
		return ViewResults
	default:
		return ViewWelcome
	}
}

// Questions returns the ordered quiz content for rendering.
func (r *Router) Questions() []questions.Question {
	return r.questions.All()
}

// State returns a snapshot of the current session.
func (r *Router) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snapshot()
}

// snapshot builds the exported state. Caller must hold r.mu.
func (r *Router) snapshot() State {
	var lead *v1.Lead
	if r.lead != nil {
		l := *r.lead
		lead = &l
	}
	return State{
		View:           r.view,
		QuestionIndex:  r.questionIndex,
		Processing:     r.processing,
		Authorized:     r.nav.SessionFlag(authorizedFlag),
		DiagnosisLevel: r.diagnosisLevel,
		Lead:           lead,
		Message:        r.message,
	}
}

// Start moves welcome → quiz at question 0 and records the quiz start.
func (r *Router) Start(ctx context.Context) State {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.view != ViewWelcome {
		slog.Debug("Start ignored outside welcome view", "view", r.view)
		return r.snapshot()
	}

	r.view = ViewQuiz
	r.questionIndex = 0
	r.message = ""
	r.rec.Record(ctx, &v1.Event{Kind: v1.KindQuizStart})
	r.emitQuestionView(ctx)
	return r.snapshot()
}

// Answer records completion of the current question, then advances to the
// next question or, after the last one, to lead capture.
func (r *Router) Answer(ctx context.Context) State {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.view != ViewQuiz {
		slog.Debug("Answer ignored outside quiz view", "view", r.view)
		return r.snapshot()
	}

	q, err := r.questions.At(r.questionIndex)
	if err != nil {
		// Index is bounded by the transitions, so this is a programming
		// error; degrade to staying on the quiz.
		slog.Error("Quiz index out of range", "index", r.questionIndex, "error", err)
		return r.snapshot()
	}

	// Completion of the CURRENT question is recorded before advancing.
	r.rec.Record(ctx, &v1.Event{
		Kind:    v1.KindQuestionComplete,
		Payload: &v1.Payload{QuestionID: q.ID},
	})

	if r.questions.IsLast(r.questionIndex) {
		r.view = ViewLeadCapture
		return r.snapshot()
	}

	r.questionIndex++
	r.emitQuestionView(ctx)
	return r.snapshot()
}

// SubmitLead validates the contact form. On success it captures the lead,
// chooses a diagnosis, flips the processing flag and schedules the fixed
// delay after which the session lands on results. On a validation failure the
// visitor stays on lead capture with an inline message.
func (r *Router) SubmitLead(ctx context.Context, lead v1.Lead) State {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.view != ViewLeadCapture || r.processing {
		slog.Debug("SubmitLead ignored", "view", r.view, "processing", r.processing)
		return r.snapshot()
	}

	if err := lead.Validate(); err != nil {
		r.message = err.Error()
		return r.snapshot()
	}

	captured := lead
	r.lead = &captured
	r.message = ""
	r.processing = true
	r.diagnosisLevel = r.boundedDiagnosis()
	r.rec.Record(ctx, &v1.Event{Kind: v1.KindLeadSubmit})

	// The delay is fixed and never cancelled; if the process dies first the
	// transition is simply lost.
	r.schedule(r.processingDelay, func() {
		r.completeProcessing(context.Background())
	})

	return r.snapshot()
}

// completeProcessing finishes the lead-submit transition: results view,
// lead persisted into the navigation context, quiz completion recorded.
func (r *Router) completeProcessing(ctx context.Context) {
	r.mu.Lock()
	r.processing = false
	r.view = ViewResults
	if r.lead != nil {
		r.nav.SetLocation(resultsLocation(*r.lead))
	}
	r.mu.Unlock()

	r.rec.Record(ctx, &v1.Event{Kind: v1.KindQuizComplete})
}

// Checkout records the checkout start and returns the external hand-off URL.
// This is a terminal exit: navigation leaves the application, so no view
// change happens here. The second return is false when the session is not on
// the results view.
func (r *Router) Checkout(ctx context.Context) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.view != ViewResults {
		slog.Debug("Checkout ignored outside results view", "view", r.view)
		return "", false
	}

	lead := r.lead
	if lead == nil {
		lead = leadFromQuery(r.nav.Location().Query)
	}

	r.rec.Record(ctx, &v1.Event{Kind: v1.KindCheckoutStart})
	return r.formatter.CheckoutURL(lead), true
}

// Authenticate gates the dashboard. A matching secret durably marks the
// session authorized; a mismatch keeps the auth view with an inline error
// (the caller clears the input field).
func (r *Router) Authenticate(secret string) State {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.view != ViewAuth {
		slog.Debug("Authenticate ignored outside auth view", "view", r.view)
		return r.snapshot()
	}

	if !r.auth.Verify(secret) {
		r.message = msgWrongSecret
		return r.snapshot()
	}

	r.nav.SetSessionFlag(authorizedFlag, true)
	r.message = ""
	r.view = ViewDashboard
	return r.snapshot()
}

// Back leaves the dashboard for the welcome screen. Nothing else is cleared;
// the authorized flag survives for the rest of the session.
func (r *Router) Back() State {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.view != ViewDashboard {
		slog.Debug("Back ignored outside dashboard view", "view", r.view)
		return r.snapshot()
	}

	r.nav.SetLocation(Location{Path: PathRoot})
	r.view = ViewWelcome
	return r.snapshot()
}

// Navigate handles an external navigation signal (back/forward, deep link).
// The view is re-derived from the new location with one extra rule: when the
// context stops addressing dashboard or auth, those views collapse to
// welcome so the visitor is never stuck mid-auth. Mid-quiz progress is
// preserved unless the signal explicitly targets another route.
func (r *Router) Navigate(loc Location) State {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nav.SetLocation(loc)
	loc = r.nav.Location()

	switch loc.Path {
	case PathDashboard:
		r.view = r.deriveView(loc)
	case PathResults:
		r.view = ViewResults
		if lead := leadFromQuery(loc.Query); lead != nil {
			r.lead = lead
		}
	default:
		if r.view == ViewDashboard || r.view == ViewAuth {
			r.view = ViewWelcome
		}
	}

	return r.snapshot()
}

// emitQuestionView announces the currently active question. The recorder
// treats it as a no-op today; the emission point is kept for future
// instrumentation. Caller must hold r.mu.
func (r *Router) emitQuestionView(ctx context.Context) {
	q, err := r.questions.At(r.questionIndex)
	if err != nil {
		return
	}
	r.rec.Record(ctx, &v1.Event{
		Kind:    v1.KindQuestionView,
		Payload: &v1.Payload{QuestionID: q.ID},
	})
}

func (r *Router) boundedDiagnosis() int {
	level := r.chooseDiagnosis()
	if level < 0 || level >= r.diagnosisLevels {
		// The seam must not be able to push the index out of range.
		return 0
	}
	return level
}

// resultsLocation encodes a lead into the results route so a reload can
// rehydrate it.
func resultsLocation(lead v1.Lead) Location {
	q := url.Values{}
	q.Set("name", lead.Name)
	q.Set("email", lead.Email)
	q.Set("phone", lead.Phone)
	return Location{Path: PathResults, Query: q}
}

// leadFromQuery rehydrates a lead from the results route. All three
// parameters must be present; anything less returns nil.
func leadFromQuery(q url.Values) *v1.Lead {
	lead := v1.Lead{
		Name:  q.Get("name"),
		Email: q.Get("email"),
		Phone: q.Get("phone"),
	}
	if lead.Name == "" || lead.Email == "" || lead.Phone == "" {
		return nil
	}
	return &lead
}
