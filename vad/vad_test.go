package vad

import (
	"errors"
	"testing"
)

func TestRMS(t *testing.T) {
	tests := []struct {
		name    string
		samples []float32
		want    float32
	}{
		{name: "empty", samples: nil, want: 0},
		{name: "all zeros", samples: []float32{0, 0, 0, 0}, want: 0},
		{name: "constant", samples: []float32{0.1, 0.1, 0.1, 0.1}, want: 0.1},
		{name: "mixed signs", samples: []float32{0.3, -0.3, 0.3, -0.3}, want: 0.3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := RMS(tt.samples)
			if d := got - tt.want; d > 0.001 || d < -0.001 {
				t.Errorf("RMS() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEnergy_Threshold(t *testing.T) {
	e := NewEnergy(0.02)

	if speech, _ := e.PushFrame(constFrame(100, 0.05)); !speech {
		t.Error("loud frame classified as noise")
	}
	if speech, _ := e.PushFrame(constFrame(100, 0.001)); speech {
		t.Error("quiet frame classified as speech")
	}
}

func TestSmoothed_EnterHysteresis(t *testing.T) {
	s := NewSmoothed(NewEnergy(0.02), 3, 5, 2)

	loud := constFrame(100, 0.05)
	for i := 0; i < 2; i++ {
		if speech, _ := s.PushFrame(loud); speech {
			t.Fatalf("entered speech after %d frames, want 3", i+1)
		}
	}
	if speech, _ := s.PushFrame(loud); !speech {
		t.Error("did not enter speech after 3 consecutive loud frames")
	}
}

func TestSmoothed_ExitHysteresis(t *testing.T) {
	s := NewSmoothed(NewEnergy(0.02), 1, 3, 1)

	loud := constFrame(100, 0.05)
	quiet := constFrame(100, 0.001)

	s.PushFrame(loud)

	// A single quiet frame must not end the run.
	if speech, _ := s.PushFrame(quiet); !speech {
		t.Fatal("left speech after one quiet frame, want 3")
	}
	// An interleaved loud frame resets the silence counter.
	s.PushFrame(loud)
	s.PushFrame(quiet)
	s.PushFrame(quiet)
	if speech, _ := s.PushFrame(quiet); speech {
		t.Error("still in speech after 3 consecutive quiet frames")
	}
}

func TestSmoothed_MinRunHoldsState(t *testing.T) {
	s := NewSmoothed(NewEnergy(0.02), 1, 1, 4)

	s.PushFrame(constFrame(100, 0.05))

	// exitFrames is satisfied immediately but the run is shorter than
	// minRun, so the state must hold.
	if speech, _ := s.PushFrame(constFrame(100, 0.001)); !speech {
		t.Error("left speech before the minimum run length")
	}
}

func TestSmoothed_Reset(t *testing.T) {
	s := NewSmoothed(NewEnergy(0.02), 1, 5, 1)
	s.PushFrame(constFrame(100, 0.05))
	s.Reset()

	if speech, _ := s.PushFrame(constFrame(100, 0.001)); speech {
		t.Error("speech state survived Reset")
	}
}

type failingDetector struct{}

func (failingDetector) PushFrame([]float32) (bool, error) {
	return false, errors.New("model not loaded")
}
func (failingDetector) Reset() {}

func TestSmoothed_PropagatesError(t *testing.T) {
	s := NewSmoothed(failingDetector{}, 1, 1, 1)
	if _, err := s.PushFrame(constFrame(10, 0)); err == nil {
		t.Error("inner detector error was swallowed")
	}
}

func constFrame(n int, amp float32) []float32 {
	f := make([]float32, n)
	for i := range f {
		f[i] = amp
	}
	return f
}
