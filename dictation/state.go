// Package dictation coordinates recording sessions: the state machine that
// sits between hotkey dispatch and the audio recorder, and the streaming
// session that turns emitted speech segments into ordered text.
package dictation

// Phase is the lifecycle position of a dictation session.
type Phase int

const (
	// Idle means no session is active.
	Idle Phase = iota
	// Recording means the recorder is capturing for a binding.
	Recording
	// Paused means capture is halted but samples are preserved.
	Paused
)

func (p Phase) String() string {
	switch p {
	case Idle:
		return "idle"
	case Recording:
		return "recording"
	case Paused:
		return "paused"
	default:
		return "unknown"
	}
}

// State is the single authoritative session state. Binding identifies the
// trigger that owns the session; it is empty while Idle.
type State struct {
	Phase   Phase
	Binding string
}
