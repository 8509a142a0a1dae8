package dictation

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.verba.dev/verba/audio"
)

const (
	// How long TryStartRecording will wait for a prior session to finish
	// transitioning out.
	startRetryAttempts = 10
	startRetryDelay    = 100 * time.Millisecond

	// Recordings shorter than this are zero-padded before transcription.
	minTranscribeSamples = audio.TargetSampleRate

	// DefaultPaddingRatio sets the padded length as a multiple of one
	// second. Tuned for whisper-family engines; override via Settings.
	DefaultPaddingRatio = 1.25
)

// Recorder is the capture surface the manager drives. *audio.Recorder
// satisfies it; tests substitute a fake.
type Recorder interface {
	Open(device string) error
	Start() error
	Stop() (audio.StopResult, error)
	Close() error
	IsOpen() bool
	SetSegmentSink(ch chan<- audio.SpeechSegment)
}

// Muter toggles the system audio output mute state, so playback does not
// bleed into the dictation.
type Muter interface {
	Mute() error
	Unmute() error
}

// Settings is the read-only slice of configuration the manager consumes.
type Settings struct {
	AlwaysOnMicrophone bool
	Microphone         string
	MuteWhileRecording bool
	PaddingRatio       float64
}

// SessionContext is the per-session metadata consumed at stop time.
type SessionContext struct {
	Selection string
	Coherent  bool
	Vision    []string
}

// Manager is the top-level session state machine. It owns the recording
// state and all session context; the recorder owns the hardware stream.
type Manager struct {
	rec      Recorder
	settings func() Settings
	muter    Muter

	mu            sync.Mutex
	state         State
	pausedSamples []float32
	ctx           SessionContext

	muteMu  sync.Mutex
	mutedBy bool
}

// NewManager wires the manager to its collaborators. settings is called on
// every decision that needs configuration, so live changes take effect
// without restart.
func NewManager(rec Recorder, muter Muter, settings func() Settings) *Manager {
	return &Manager{rec: rec, muter: muter, settings: settings}
}

// State returns a snapshot of the current session state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// IsRecording reports whether a session is actively capturing.
func (m *Manager) IsRecording() bool {
	return m.State().Phase == Recording
}

// PausedBinding returns the binding of a paused session, if any.
func (m *Manager) PausedBinding() (string, bool) {
	st := m.State()
	if st.Phase != Paused {
		return "", false
	}
	return st.Binding, true
}

// SetSegmentSink forwards a segment sink to the recorder.
func (m *Manager) SetSegmentSink(ch chan<- audio.SpeechSegment) {
	m.rec.SetSegmentSink(ch)
}

// EnsureOpen opens the hardware stream with the configured device.
func (m *Manager) EnsureOpen() error {
	if err := m.rec.Open(m.settings().Microphone); err != nil {
		return fmt.Errorf("open microphone: %w", err)
	}
	return nil
}

// TryStartRecording begins a session for binding. It retries briefly while
// another session is still transitioning out, then gives up; it never
// retries around hardware faults. Session context from any prior session is
// cleared on success.
func (m *Manager) TryStartRecording(binding string) bool {
	claimed := false
	for attempt := 0; attempt < startRetryAttempts; attempt++ {
		m.mu.Lock()
		if m.state.Phase == Idle {
			m.state = State{Phase: Recording, Binding: binding}
			m.pausedSamples = nil
			m.ctx = SessionContext{}
			claimed = true
			m.mu.Unlock()
			break
		}
		m.mu.Unlock()
		time.Sleep(startRetryDelay)
	}
	if !claimed {
		slog.Warn("recording start rejected, session still active", "binding", binding)
		return false
	}

	if err := m.EnsureOpen(); err != nil {
		slog.Error("start recording", "binding", binding, "error", err)
		m.setIdle()
		return false
	}
	if err := m.rec.Start(); err != nil {
		slog.Error("start capture", "binding", binding, "error", err)
		if !m.settings().AlwaysOnMicrophone {
			if cerr := m.rec.Close(); cerr != nil {
				slog.Error("close microphone", "error", cerr)
			}
		}
		m.setIdle()
		return false
	}
	slog.Info("recording started", "binding", binding)
	return true
}

// StopRecording ends the session owned by binding and returns its samples.
// A mismatched binding is a no-op: concurrently bound actions must not stop
// each other's sessions. The state flips to Idle before any recorder I/O so
// a new session can never observe stale state.
func (m *Manager) StopRecording(binding string) ([]float32, bool) {
	m.mu.Lock()
	if m.state.Phase != Recording || m.state.Binding != binding {
		m.mu.Unlock()
		return nil, false
	}
	m.state = State{}
	paused := m.pausedSamples
	m.pausedSamples = nil
	m.mu.Unlock()

	samples := paused
	res, err := m.rec.Stop()
	if err != nil {
		slog.Error("stop capture", "binding", binding, "error", err)
	} else {
		samples = append(samples, res.RawFull...)
	}

	if !m.settings().AlwaysOnMicrophone {
		if err := m.rec.Close(); err != nil {
			slog.Error("close microphone", "error", err)
		}
	}

	slog.Info("recording stopped", "binding", binding, "samples", len(samples))
	return m.padShort(samples), true
}

// padShort zero-fills a non-empty buffer shorter than one second up to the
// configured padded length.
func (m *Manager) padShort(samples []float32) []float32 {
	if len(samples) == 0 || len(samples) >= minTranscribeSamples {
		return samples
	}
	ratio := m.settings().PaddingRatio
	if ratio <= 0 {
		ratio = DefaultPaddingRatio
	}
	target := int(float64(audio.TargetSampleRate) * ratio)
	if len(samples) >= target {
		return samples
	}
	padded := make([]float32, target)
	copy(padded, samples)
	return padded
}

// PauseRecording halts capture while preserving everything captured so far.
// The session stays owned by its binding.
func (m *Manager) PauseRecording() bool {
	m.mu.Lock()
	if m.state.Phase != Recording {
		m.mu.Unlock()
		return false
	}
	m.state.Phase = Paused
	m.mu.Unlock()

	res, err := m.rec.Stop()
	if err != nil {
		slog.Error("pause capture", "error", err)
		return true
	}

	m.mu.Lock()
	// The session may have been cancelled while Stop was in flight; its
	// samples must not leak into the next session's buffer.
	if m.state.Phase == Paused {
		m.pausedSamples = append(m.pausedSamples, res.RawFull...)
	}
	m.mu.Unlock()
	slog.Debug("recording paused", "buffered", len(res.RawFull))
	return true
}

// ResumeRecording restarts capture for a paused session and returns its
// binding.
func (m *Manager) ResumeRecording() (string, bool) {
	m.mu.Lock()
	if m.state.Phase != Paused {
		m.mu.Unlock()
		return "", false
	}
	binding := m.state.Binding
	m.state.Phase = Recording
	m.mu.Unlock()

	if err := m.rec.Start(); err != nil {
		slog.Error("resume capture", "binding", binding, "error", err)
		m.mu.Lock()
		m.state.Phase = Paused
		m.mu.Unlock()
		return "", false
	}
	slog.Debug("recording resumed", "binding", binding)
	return binding, true
}

// CancelRecording discards the session entirely: no samples are returned,
// all buffers and context are dropped. Valid from Recording or Paused;
// anything else is a no-op, which makes it safe to race against a stop.
func (m *Manager) CancelRecording() bool {
	m.mu.Lock()
	phase := m.state.Phase
	if phase != Recording && phase != Paused {
		m.mu.Unlock()
		return false
	}
	m.state = State{}
	m.pausedSamples = nil
	m.ctx = SessionContext{}
	m.mu.Unlock()

	m.rec.SetSegmentSink(nil)
	if phase == Recording {
		if _, err := m.rec.Stop(); err != nil {
			slog.Error("cancel capture", "error", err)
		}
	}
	if !m.settings().AlwaysOnMicrophone {
		if err := m.rec.Close(); err != nil {
			slog.Error("close microphone", "error", err)
		}
	}
	slog.Info("recording cancelled")
	return true
}

// UpdateMode reconciles the hardware stream with a mode change. Switching
// to on-demand closes the stream only while Idle; switching to always-on
// opens it proactively.
func (m *Manager) UpdateMode(alwaysOn bool) error {
	if alwaysOn {
		return m.EnsureOpen()
	}
	m.mu.Lock()
	idle := m.state.Phase == Idle
	m.mu.Unlock()
	if idle && m.rec.IsOpen() {
		if err := m.rec.Close(); err != nil {
			return fmt.Errorf("close microphone: %w", err)
		}
	}
	return nil
}

// SetSelectionContext records the text selection captured at session start.
func (m *Manager) SetSelectionContext(text string) {
	m.mu.Lock()
	m.ctx.Selection = text
	m.mu.Unlock()
}

// SetCoherentMode flags the session for LLM refinement downstream.
func (m *Manager) SetCoherentMode(on bool) {
	m.mu.Lock()
	m.ctx.Coherent = on
	m.mu.Unlock()
}

// AddVisionContext attaches a base64 image to the session.
func (m *Manager) AddVisionContext(image string) {
	m.mu.Lock()
	m.ctx.Vision = append(m.ctx.Vision, image)
	m.mu.Unlock()
}

// ConsumeContext returns the session context and clears it.
func (m *Manager) ConsumeContext() SessionContext {
	m.mu.Lock()
	defer m.mu.Unlock()
	ctx := m.ctx
	m.ctx = SessionContext{}
	return ctx
}

// ApplyMute mutes system audio output if configured to, remembering that
// this manager did it. Redundant calls are safe.
func (m *Manager) ApplyMute() {
	if !m.settings().MuteWhileRecording || m.muter == nil {
		return
	}
	m.muteMu.Lock()
	defer m.muteMu.Unlock()
	if m.mutedBy {
		return
	}
	if err := m.muter.Mute(); err != nil {
		slog.Error("mute system audio", "error", err)
		return
	}
	m.mutedBy = true
}

// RemoveMute undoes a mute this manager applied. It never touches a mute
// the user set independently.
func (m *Manager) RemoveMute() {
	if m.muter == nil {
		return
	}
	m.muteMu.Lock()
	defer m.muteMu.Unlock()
	if !m.mutedBy {
		return
	}
	if err := m.muter.Unmute(); err != nil {
		slog.Error("unmute system audio", "error", err)
		return
	}
	m.mutedBy = false
}

func (m *Manager) setIdle() {
	m.mu.Lock()
	m.state = State{}
	m.mu.Unlock()
}
