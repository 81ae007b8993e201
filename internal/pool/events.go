package pool

// EventType identifies what happened to a job in the pool.
type EventType string

const (
	JobStarted  EventType = "started"
	JobFinished EventType = "finished"
	JobPanicked EventType = "panicked"
	JobSkipped  EventType = "skipped"
)

// Event reports a job transition. Active is the number of jobs running
// immediately after the transition.
type Event struct {
	Type   EventType
	Key    string
	Active int
	Queued int
}
