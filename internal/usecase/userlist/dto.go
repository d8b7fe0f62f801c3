package userlist

import (
	"time"

	domain "user-browser-service/internal/domain/user"
)

// Phase is the controller's current high-level activity.
type Phase string

const (
	PhaseIdle           Phase = "idle"
	PhaseInitialLoading Phase = "initial_loading"
	PhaseLoaded         Phase = "loaded"
	PhaseRefreshing     Phase = "refreshing"
	PhaseLoadingMore    Phase = "loading_more"
	PhaseError          Phase = "error"
)

// Loading reports whether the phase is one of the fetch phases.
func (p Phase) Loading() bool {
	return p == PhaseInitialLoading || p == PhaseRefreshing || p == PhaseLoadingMore
}

// operation tags the fetch currently owned by the controller.
type operation int

const (
	opNone operation = iota
	opInitial
	opRefresh
	opLoadMore
)

func (o operation) String() string {
	switch o {
	case opInitial:
		return "initial"
	case opRefresh:
		return "refresh"
	case opLoadMore:
		return "load_more"
	default:
		return "none"
	}
}

// Options configures a Controller.
type Options struct {
	PageSize      int           // Records requested per page
	Seed          string        // Optional remote seed for stable pages
	WarmUpDelay   time.Duration // Delay before the initial fetch
	LoadMoreDelay time.Duration // Delay before each load-more fetch
	FetchTimeout  time.Duration // Per-fetch timeout, zero means none

	// RollbackPageOnFailure keeps the page counter unchanged when a
	// load-more fetch fails. When false the counter advances as soon as the
	// fetch is issued and stays advanced on failure.
	RollbackPageOnFailure bool
}

// DefaultOptions returns the reference timings: 100 records per page, a 3s
// warm-up and a 2s load-more throttle.
func DefaultOptions() Options {
	return Options{
		PageSize:      domain.DefaultPageSize,
		WarmUpDelay:   3 * time.Second,
		LoadMoreDelay: 2 * time.Second,
	}
}

// Snapshot is a point-in-time copy of everything a view renders.
type Snapshot struct {
	Records     []domain.Record `json:"records"`
	Phase       Phase           `json:"phase"`
	AllLoaded   bool            `json:"all_loaded"`
	SearchQuery string          `json:"search_query"`
	Count       int             `json:"count"`
	Total       int             `json:"total"`
	CurrentPage int             `json:"current_page"`
	LastError   string          `json:"last_error,omitempty"`
}

// Selection is what a view shows when a record is picked.
type Selection struct {
	FullName string `json:"full_name"`
	Email    string `json:"email"`
}
