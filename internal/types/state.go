package types

// MonitorState is the lifecycle state of the monitoring session.
type MonitorState int

const (
	// StateNotStarted is the state before the first Start.
	StateNotStarted MonitorState = iota
	// StateRunning means the server is up and lease events are applied.
	StateRunning
	// StatePaused means the server is up but lease events are discarded.
	StatePaused
	// StateStopped means the server was stopped; a new Start is allowed.
	StateStopped
)

func (s MonitorState) String() string {
	switch s {
	case StateNotStarted:
		return "not-started"
	case StateRunning:
		return "running"
	case StatePaused:
		return "paused"
	case StateStopped:
		return "stopped"
	default:
		return "invalid"
	}
}

// Active reports whether a server process belongs to the session.
func (s MonitorState) Active() bool {
	return s == StateRunning || s == StatePaused
}
