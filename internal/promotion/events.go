package promotion

// RunEventType identifies a run progress event.
type RunEventType string

const (
	EventStateChanged   RunEventType = "state_changed"
	EventGateDecided    RunEventType = "gate_decided"
	EventWorkerStarted  RunEventType = "worker_started"
	EventWorkerFinished RunEventType = "worker_finished"
	EventTaskFinished   RunEventType = "task_finished"
)

// RunEvent reports run progress to subscribers such as the terminal view.
type RunEvent struct {
	Type     RunEventType
	RunID    string
	State    RunState
	Artifact string
	Active   int
	Queued   int
	Gate     *GateDecision
	Result   *TaskResult
}
