package stt

import (
	"context"
	"errors"
	"fmt"
	"io"
	"runtime"
	"strings"
	"sync"

	"github.com/ggerganov/whisper.cpp/bindings/go/pkg/whisper"
)

// Whisper transcribes locally through whisper.cpp. One loaded model serves
// all calls; each call gets its own inference context, serialized by a
// mutex because contexts from one model must not run concurrently.
type Whisper struct {
	mu    sync.Mutex
	model whisper.Model
}

// NewWhisper loads a ggml model from disk.
func NewWhisper(modelPath string) (*Whisper, error) {
	if modelPath == "" {
		return nil, errors.New("empty model path")
	}
	m, err := whisper.New(modelPath)
	if err != nil {
		return nil, fmt.Errorf("load whisper model: %w", err)
	}
	return &Whisper{model: m}, nil
}

func (w *Whisper) Name() string        { return "whisper" }
func (w *Whisper) DisplayName() string { return "Whisper (local)" }
func (w *Whisper) Local() bool         { return true }

func (w *Whisper) Ready() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.model != nil
}

func (w *Whisper) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.model == nil {
		return nil
	}
	err := w.model.Close()
	w.model = nil
	return err
}

func (w *Whisper) Transcribe(ctx context.Context, samples []float32, language string) (*Result, error) {
	if len(samples) == 0 {
		return &Result{}, nil
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.model == nil {
		return nil, fmt.Errorf("%w: model not loaded", ErrNotReady)
	}

	wctx, err := w.model.NewContext()
	if err != nil {
		return nil, fmt.Errorf("new whisper context: %w", err)
	}

	if language == "" {
		language = "auto"
	}
	if err := wctx.SetLanguage(language); err != nil {
		return nil, fmt.Errorf("set language: %w", err)
	}
	wctx.SetThreads(uint(runtime.NumCPU()))

	if err := wctx.Process(samples, nil, nil, nil); err != nil {
		return nil, fmt.Errorf("whisper process: %w", err)
	}

	var parts []string
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		seg, err := wctx.NextSegment()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("next segment: %w", err)
		}
		parts = append(parts, strings.TrimSpace(seg.Text))
	}

	lang := wctx.DetectedLanguage()
	if lang == "" {
		lang = wctx.Language()
	}

	return &Result{
		Text:     strings.Join(parts, " "),
		Language: lang,
	}, nil
}
