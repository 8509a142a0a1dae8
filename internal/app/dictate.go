package app

import (
	"context"
	"log/slog"
	"time"

	"go.verba.dev/verba/clipboard"
	"go.verba.dev/verba/dictation"
	"go.verba.dev/verba/stt"
)

const transcribeTimeout = 2 * time.Minute

// providerTranscriber adapts an stt.Provider to the streaming session's
// Transcriber contract.
type providerTranscriber struct {
	provider stt.Provider
	language string
}

func (t providerTranscriber) Transcribe(samples []float32) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), transcribeTimeout)
	defer cancel()
	res, err := t.provider.Transcribe(ctx, samples, t.language)
	if err != nil {
		return "", err
	}
	return res.Text, nil
}

func (s *Service) startDictation(binding string) {
	cfg := s.config()

	// The cue must finish before the mute lands, or it gets swallowed.
	go func() {
		if err := s.player.Play(cfg.Sounds.Start); err != nil {
			slog.Debug("start cue", "error", err)
		}
		s.manager.ApplyMute()
	}()

	provider, err := s.providers.Get(cfg.Provider)
	if err != nil {
		slog.Error("start dictation", "error", err)
		return
	}

	if cfg.StreamingTranscription && provider.Ready() {
		session := dictation.NewStreamingSession(providerTranscriber{
			provider: provider,
			language: cfg.Language,
		})
		s.sessMu.Lock()
		s.session = session
		s.sessMu.Unlock()
		s.manager.SetSegmentSink(session.SegmentSink())
	}

	if !s.manager.TryStartRecording(binding) {
		s.manager.RemoveMute()
		s.discardSession()
	}
}

func (s *Service) finishDictation(binding string) {
	samples, ok := s.manager.StopRecording(binding)
	if !ok {
		return
	}
	s.manager.SetSegmentSink(nil)
	s.manager.RemoveMute()

	cfg := s.config()
	go func() {
		if err := s.player.Play(cfg.Sounds.Stop); err != nil {
			slog.Debug("stop cue", "error", err)
		}
	}()

	text := s.takeSessionText()
	if text == "" {
		text = s.transcribeWhole(samples)
	}
	text = dictation.CleanTranscript(text)
	if text == "" {
		slog.Info("dictation produced no text", "binding", binding)
		return
	}

	lang := s.detector.Detect(text)

	var retained []float32
	if cfg.RetainAudio {
		retained = samples
	}
	entry, err := s.store.Add(text, lang, retained)
	if err != nil {
		slog.Error("store dictation", "error", err)
	} else {
		slog.Info("dictation stored", "id", entry.ID, "language", lang, "chars", len(text))
	}

	if err := clipboard.Copy(text); err != nil {
		slog.Error("copy to clipboard", "error", err)
	}
}

func (s *Service) toggleDictation(binding string) {
	st := s.manager.State()
	if st.Phase == dictation.Recording && st.Binding == binding {
		s.finishDictation(binding)
		return
	}
	s.startDictation(binding)
}

// CancelDictation discards the active session without producing text.
func (s *Service) CancelDictation() {
	if s.manager.CancelRecording() {
		s.manager.RemoveMute()
		s.discardSession()
	}
}

// PauseDictation and ResumeDictation expose the pause cycle.
func (s *Service) PauseDictation() bool { return s.manager.PauseRecording() }

func (s *Service) ResumeDictation() (string, bool) { return s.manager.ResumeRecording() }

// takeSessionText finishes the active streaming session and returns its
// reassembled text, empty when streaming was off or produced nothing.
func (s *Service) takeSessionText() string {
	s.sessMu.Lock()
	session := s.session
	s.session = nil
	s.sessMu.Unlock()
	if session == nil {
		return ""
	}
	return session.Finish()
}

// discardSession shuts down a streaming session whose output is unwanted.
func (s *Service) discardSession() {
	s.manager.SetSegmentSink(nil)
	s.sessMu.Lock()
	session := s.session
	s.session = nil
	s.sessMu.Unlock()
	if session != nil {
		go session.Finish()
	}
}

// transcribeWhole runs the full raw buffer through the configured provider,
// the fallback when no streaming segment produced text.
func (s *Service) transcribeWhole(samples []float32) string {
	if len(samples) == 0 {
		return ""
	}
	cfg := s.config()
	provider, err := s.providers.Get(cfg.Provider)
	if err != nil {
		slog.Error("transcribe", "error", err)
		return ""
	}

	ctx, cancel := context.WithTimeout(context.Background(), transcribeTimeout)
	defer cancel()
	res, err := provider.Transcribe(ctx, samples, cfg.Language)
	if err != nil {
		slog.Error("transcribe", "provider", provider.Name(), "error", err)
		return ""
	}
	return res.Text
}
