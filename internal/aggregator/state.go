package aggregator

// State is the lifecycle of a Stream.
type State int32

const (
	StateIdle State = iota
	StateStreaming
	// StateDraining means the consumer left before every adapter settled.
	// In-flight work finishes and its results are dropped.
	StateDraining
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateStreaming:
		return "streaming"
	case StateDraining:
		return "draining"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}
