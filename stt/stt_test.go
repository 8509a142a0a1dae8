package stt

import (
	"context"
	"testing"
)

type stubProvider struct {
	name   string
	closed bool
}

func (p *stubProvider) Name() string        { return p.name }
func (p *stubProvider) DisplayName() string { return p.name }
func (p *stubProvider) Local() bool         { return true }
func (p *stubProvider) Ready() bool         { return true }
func (p *stubProvider) Close() error        { p.closed = true; return nil }

func (p *stubProvider) Transcribe(context.Context, []float32, string) (*Result, error) {
	return &Result{Text: p.name}, nil
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	a := &stubProvider{name: "a"}
	b := &stubProvider{name: "b"}
	r.Register(a)
	r.Register(b)

	got, err := r.Get("a")
	if err != nil {
		t.Fatalf("Get(a) error: %v", err)
	}
	if got != a {
		t.Error("Get(a) returned the wrong provider")
	}

	if _, err := r.Get("missing"); err == nil {
		t.Error("Get(missing) did not error")
	}

	if n := len(r.List()); n != 2 {
		t.Errorf("List() returned %d providers, want 2", n)
	}

	if err := r.Close(); err != nil {
		t.Fatalf("Close() error: %v", err)
	}
	if !a.closed || !b.closed {
		t.Error("Close() did not close all providers")
	}
}

func TestOpenAI_NotReadyWithoutKey(t *testing.T) {
	p := NewOpenAI(OpenAIConfig{})
	if p.Ready() {
		t.Error("Ready() = true without an API key")
	}
	if _, err := p.Transcribe(context.Background(), []float32{0}, ""); err == nil {
		t.Error("Transcribe succeeded without an API key")
	}
}
