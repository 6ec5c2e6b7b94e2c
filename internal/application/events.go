package application

import "time"

// EventKind identifies a completed workflow transition that external
// collaborators may react to.
type EventKind string

const (
	EventLoggedIn  EventKind = "logged_in"
	EventLoggedOut EventKind = "logged_out"
	// EventHistorySaved signals history views to refresh.
	EventHistorySaved EventKind = "history_saved"
)

// Event is emitted after the state transition it describes has fully
// completed; handlers observe the new state, never an intermediate one.
type Event struct {
	Kind  EventKind
	Email string
	At    time.Time
}

// Subscribe registers a listener for workflow events. Listeners are
// invoked synchronously outside the state lock and must not block.
func (w *Workflow) Subscribe(fn func(Event)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.listeners = append(w.listeners, fn)
}

func (w *Workflow) emit(event Event) {
	w.mu.Lock()
	listeners := make([]func(Event), len(w.listeners))
	copy(listeners, w.listeners)
	w.mu.Unlock()

	for _, fn := range listeners {
		fn(event)
	}
}
