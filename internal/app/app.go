// Package app wires the dictation pipeline together: hotkeys drive the
// recording manager, speech segments flow into transcription, finished text
// lands in history and on the clipboard.
package app

import (
	"fmt"
	"log/slog"
	"sync"

	"go.verba.dev/verba/actions"
	"go.verba.dev/verba/audio"
	"go.verba.dev/verba/config"
	"go.verba.dev/verba/dictation"
	"go.verba.dev/verba/history"
	"go.verba.dev/verba/hotkey"
	"go.verba.dev/verba/langdetect"
	"go.verba.dev/verba/notify"
	"go.verba.dev/verba/stt"
	"go.verba.dev/verba/vad"
)

// Service owns the application components and their lifecycles.
type Service struct {
	cfgMu sync.RWMutex
	cfg   *config.Config

	recorder  *audio.Recorder
	manager   *dictation.Manager
	registry  *actions.Registry
	listener  *hotkey.Listener
	providers *stt.Registry
	store     *history.Store
	detector  *langdetect.Detector
	player    *notify.Player

	levelMu sync.Mutex
	levels  []float32

	sessMu  sync.Mutex
	session *dictation.StreamingSession
}

// New builds the service from configuration. The hardware stream is not
// opened here; Start does that when the mode calls for it.
func New(cfg *config.Config) (*Service, error) {
	s := &Service{
		cfg:      cfg,
		detector: langdetect.New(),
		player:   notify.NewPlayer(),
	}

	s.recorder = audio.NewRecorder().
		WithVAD(vad.NewSmoothed(vad.NewEnergy(0), 0, 0, 0)).
		WithLevelCallback(s.onLevels)
	s.manager = dictation.NewManager(s.recorder, dictation.SystemMuter{}, s.settings)

	if err := s.setupProviders(); err != nil {
		return nil, err
	}

	dataDir, err := config.DataDir()
	if err != nil {
		return nil, err
	}
	s.store, err = history.Open(history.Options{Dir: dataDir})
	if err != nil {
		return nil, err
	}

	s.setupActions()
	return s, nil
}

// Start opens the microphone when configured always-on and begins hotkey
// dispatch.
func (s *Service) Start() error {
	if s.config().AlwaysOnMicrophone {
		if err := s.manager.EnsureOpen(); err != nil {
			slog.Error("open microphone", "error", err)
		}
	}
	if err := s.listener.Start(); err != nil {
		return fmt.Errorf("start hotkeys: %w", err)
	}
	slog.Info("service started", "bindings", s.registry.IDs())
	return nil
}

// Shutdown releases all resources.
func (s *Service) Shutdown() {
	s.listener.Stop()
	s.manager.CancelRecording()
	if err := s.recorder.Close(); err != nil {
		slog.Error("close recorder", "error", err)
	}
	if err := s.providers.Close(); err != nil {
		slog.Error("close stt providers", "error", err)
	}
	if err := s.store.Close(); err != nil {
		slog.Error("close history store", "error", err)
	}
	slog.Info("service stopped")
}

func (s *Service) setupProviders() error {
	cfg := s.config()
	s.providers = stt.NewRegistry()
	s.providers.Register(stt.NewOpenAI(stt.OpenAIConfig{
		APIKey:  cfg.OpenAIAPIKey,
		BaseURL: cfg.OpenAIBaseURL,
		Model:   cfg.OpenAIModel,
	}))
	if cfg.WhisperModelPath != "" {
		w, err := stt.NewWhisper(cfg.WhisperModelPath)
		if err != nil {
			slog.Error("load local whisper model", "path", cfg.WhisperModelPath, "error", err)
		} else {
			s.providers.Register(w)
		}
	}

	if _, err := s.providers.Get(cfg.Provider); err != nil {
		return fmt.Errorf("configured provider unavailable: %w", err)
	}
	return nil
}

func (s *Service) setupActions() {
	s.registry = actions.NewRegistry()

	cfg := s.config()
	bindings := make([]hotkey.Binding, 0, len(cfg.Bindings))
	for _, b := range cfg.Bindings {
		bindings = append(bindings, hotkey.Binding{ID: b.ID, Keys: b.Keys, Hold: b.Hold})
		if b.Hold {
			s.registry.Register(b.ID, actions.Funcs{
				OnPress:   s.startDictation,
				OnRelease: func(id string) { go s.finishDictation(id) },
			})
		} else {
			s.registry.Register(b.ID, actions.Funcs{
				OnPress: func(id string) { go s.toggleDictation(id) },
			})
		}
	}
	s.listener = hotkey.NewListener(s.registry, bindings)
}

// settings adapts the live configuration for the recording manager.
func (s *Service) settings() dictation.Settings {
	cfg := s.config()
	return dictation.Settings{
		AlwaysOnMicrophone: cfg.AlwaysOnMicrophone,
		Microphone:         cfg.SelectedMicrophone,
		MuteWhileRecording: cfg.MuteWhileRecording,
		PaddingRatio:       cfg.PaddingRatio,
	}
}

func (s *Service) config() *config.Config {
	s.cfgMu.RLock()
	defer s.cfgMu.RUnlock()
	return s.cfg
}

// UpdateConfig persists new configuration and reconciles the microphone
// mode with it.
func (s *Service) UpdateConfig(cfg *config.Config) error {
	if err := cfg.Save(); err != nil {
		return err
	}
	s.cfgMu.Lock()
	s.cfg = cfg
	s.cfgMu.Unlock()
	return s.manager.UpdateMode(cfg.AlwaysOnMicrophone)
}

func (s *Service) onLevels(levels []float32) {
	s.levelMu.Lock()
	s.levels = append(s.levels[:0], levels...)
	s.levelMu.Unlock()
}

// Levels returns the latest frequency-bucket levels for a meter UI.
func (s *Service) Levels() []float32 {
	s.levelMu.Lock()
	defer s.levelMu.Unlock()
	out := make([]float32, len(s.levels))
	copy(out, s.levels)
	return out
}

// Devices lists the available input devices.
func (s *Service) Devices() ([]audio.Device, error) {
	return audio.ListInputDevices()
}

// RecentHistory returns the newest dictations.
func (s *Service) RecentHistory(limit int) ([]history.Entry, error) {
	return s.store.Recent(limit)
}

// DeleteHistory removes one dictation and its audio.
func (s *Service) DeleteHistory(id string) error {
	return s.store.Delete(id)
}
