package feed

import "github.com/MrSnakeDoc/jobfeed/internal/domain"

// Phase is the loading state of the feed.
//
//	idle -> loading (page 1 / refresh) -> idle
//	idle -> loading_more (page n+1)    -> idle
type Phase string

const (
	PhaseIdle        Phase = "idle"
	PhaseLoading     Phase = "loading"
	PhaseLoadingMore Phase = "loading_more"
)

// State is a copy of the feed page state; mutating it does not affect the controller.
type State struct {
	Page      int
	Jobs      []domain.Job
	HasMore   bool
	LastError string
	Phase     Phase
}

// Loading reports whether any fetch is in flight.
func (s State) Loading() bool {
	return s.Phase != PhaseIdle
}

// View is how a list screen should present the state.
type View string

const (
	ViewLoading View = "loading" // first page in flight, nothing to show yet
	ViewError   View = "error"   // failed with no data: full-screen error
	ViewEmpty   View = "empty"
	ViewList    View = "list" // jobs shown; LastError, if any, goes in a banner
)

func (s State) View() View {
	switch {
	case s.Phase == PhaseLoading && len(s.Jobs) == 0:
		return ViewLoading
	case s.LastError != "" && len(s.Jobs) == 0:
		return ViewError
	case len(s.Jobs) == 0:
		return ViewEmpty
	default:
		return ViewList
	}
}
