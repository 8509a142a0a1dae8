// Package stt provides the speech-to-text provider interface and its
// implementations.
package stt

import (
	"context"
	"errors"
	"fmt"
)

// ErrNotReady is returned by Transcribe when a provider is missing its
// prerequisites (API key, model file).
var ErrNotReady = errors.New("stt: provider not ready")

// Result is a finished transcription.
type Result struct {
	Text     string `json:"text"`
	Language string `json:"language"` // Detected language code, may be empty
}

// Provider converts audio into text. Both local (whisper.cpp) and remote
// (OpenAI API) implementations satisfy this interface; all of them must be
// safe to call from a background goroutine.
type Provider interface {
	// Name returns the provider identifier used in configuration.
	Name() string

	// DisplayName returns the human-readable provider name.
	DisplayName() string

	// Local reports whether transcription runs without network calls.
	Local() bool

	// Ready reports whether the provider can transcribe right now.
	Ready() bool

	// Transcribe converts PCM float32 samples at 16000 Hz to text.
	// language is a source language code; empty means auto-detect.
	Transcribe(ctx context.Context, samples []float32, language string) (*Result, error)

	// Close releases resources held by the provider.
	Close() error
}

// Registry holds the configured providers keyed by name.
type Registry struct {
	providers map[string]Provider
}

func NewRegistry() *Registry {
	return &Registry{providers: make(map[string]Provider)}
}

func (r *Registry) Register(p Provider) {
	r.providers[p.Name()] = p
}

// Get returns a provider by name.
func (r *Registry) Get(name string) (Provider, error) {
	p, ok := r.providers[name]
	if !ok {
		return nil, fmt.Errorf("stt: unknown provider %q", name)
	}
	return p, nil
}

// List returns all registered providers.
func (r *Registry) List() []Provider {
	result := make([]Provider, 0, len(r.providers))
	for _, p := range r.providers {
		result = append(result, p)
	}
	return result
}

// Close releases all providers, returning the first error.
func (r *Registry) Close() error {
	var first error
	for _, p := range r.providers {
		if err := p.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
