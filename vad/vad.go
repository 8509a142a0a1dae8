// Package vad provides frame-level voice activity detection.
//
// Detectors classify fixed-duration audio frames as speech or noise. Callers
// are expected to fail open: when PushFrame returns an error the frame should
// be treated as speech, since over-capturing is preferable to silently
// dropping the user's audio.
package vad

import "math"

// Detector classifies audio frames.
type Detector interface {
	// PushFrame reports whether the frame contains speech. Detectors may
	// keep running state across frames; Reset clears it.
	PushFrame(frame []float32) (bool, error)

	// Reset clears internal state. Called at recording start.
	Reset()
}

// RMS returns the root mean square of the samples.
func RMS(samples []float32) float32 {
	if len(samples) == 0 {
		return 0
	}
	var sum float64
	for _, s := range samples {
		sum += float64(s) * float64(s)
	}
	return float32(math.Sqrt(sum / float64(len(samples))))
}
