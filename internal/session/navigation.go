package session

import (
	"net/url"
	"sync"
)

// Recognized path markers in the navigation context.
const (
	PathRoot      = "/"
	PathDashboard = "/dashboard"
	PathResults   = "/results"
)

// authorizedFlag is the durable per-session flag set after a successful
// dashboard authentication. Scoped to the browsing session, not to the
// metrics record.
const authorizedFlag = "dashboard_authed"

// Location is the addressable navigation context: a path plus query
// parameters. The results route carries name/email/phone so a reload can
// rehydrate the captured lead.
type Location struct {
	Path  string
	Query url.Values
}

// Navigator abstracts the host's navigation context. The router reads it at
// initialization, rewrites it on transitions that change the address, and
// re-derives the view from it on external navigation signals.
type Navigator interface {
	Location() Location
	SetLocation(loc Location)

	// SessionFlag and SetSessionFlag expose the session-scoped flag store
	// (the browser's sessionStorage in the original surface).
	SessionFlag(name string) bool
	SetSessionFlag(name string, value bool)
}

// MemoryNavigator is the in-process Navigator for the single-visitor
// simulation and for tests.
type MemoryNavigator struct {
	mu    sync.RWMutex
	loc   Location
	flags map[string]bool
}

// NewMemoryNavigator starts at the given location. An empty path means the
// root route.
func NewMemoryNavigator(loc Location) *MemoryNavigator {
	if loc.Path == "" {
		loc.Path = PathRoot
	}
	if loc.Query == nil {
		loc.Query = url.Values{}
	}
	return &MemoryNavigator{
		loc:   loc,
		flags: make(map[string]bool),
	}
}

func (n *MemoryNavigator) Location() Location {
	n.mu.RLock()
	defer n.mu.RUnlock()

	out := Location{Path: n.loc.Path, Query: url.Values{}}
	for k, vs := range n.loc.Query {
		out.Query[k] = append([]string(nil), vs...)
	}
	return out
}

func (n *MemoryNavigator) SetLocation(loc Location) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if loc.Path == "" {
		loc.Path = PathRoot
	}
	if loc.Query == nil {
		loc.Query = url.Values{}
	}
	n.loc = loc
}

func (n *MemoryNavigator) SessionFlag(name string) bool {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.flags[name]
}

func (n *MemoryNavigator) SetSessionFlag(name string, value bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.flags[name] = value
}
