package model

import "time"

// RunState is a step of a single monitoring run.
type RunState string

const (
	StateInit        RunState = "INIT"
	StateFetched     RunState = "FETCHED"
	StateFetchFailed RunState = "FETCH_FAILED"
	StateNoChange    RunState = "NO_CHANGE"
	StateDropsFound  RunState = "DROPS_FOUND"
	StatePersisted   RunState = "PERSISTED"
	StateDone        RunState = "DONE"
)

// Outcome summarises how a run ended.
type Outcome string

const (
	OutcomeNoChange    Outcome = "NO_CHANGE"
	OutcomeDrops       Outcome = "DROPS"
	OutcomeFetchFailed Outcome = "FETCH_FAILED"
	OutcomeFailed      Outcome = "FAILED" // recovered panic inside detect/notify/persist
)

// RunReport is the result of one run of the monitor.
type RunReport struct {
	ID         string
	StartedAt  time.Time
	FinishedAt time.Time
	Source     string

	// States lists every state the run passed through, in order.
	States  []RunState
	Outcome Outcome

	BaselineSize int
	FetchedItems int
	Drops        []DropEvent

	Notified  bool
	Persisted bool

	FetchErr  error
	NotifyErr error
	StoreErr  error
	Panic     string
}

// State returns the last state reached.
func (r *RunReport) State() RunState {
	if len(r.States) == 0 {
		return StateInit
	}
	return r.States[len(r.States)-1]
}

// Duration is the wall time the run took.
func (r *RunReport) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}
