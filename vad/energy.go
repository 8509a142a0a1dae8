package vad

// Energy is a stateless detector based on RMS energy. It is the fallback
// when no model-based detector is configured; a frame is speech when its RMS
// exceeds the threshold.
type Energy struct {
	threshold float32
}

// DefaultEnergyThreshold works for typical 16 kHz microphone input.
const DefaultEnergyThreshold = 0.015

// NewEnergy creates an energy detector. A zero threshold selects the
// default.
func NewEnergy(threshold float32) *Energy {
	if threshold == 0 {
		threshold = DefaultEnergyThreshold
	}
	return &Energy{threshold: threshold}
}

func (e *Energy) PushFrame(frame []float32) (bool, error) {
	return RMS(frame) > e.threshold, nil
}

func (e *Energy) Reset() {}
