package vad

// Smoothed wraps a detector with hysteresis so that single-frame glitches in
// the underlying classification do not flip the speech state back and forth.
// Entering speech requires enterFrames consecutive speech classifications;
// leaving it requires exitFrames consecutive noise classifications, and never
// before the current speech run has lasted minRun frames.
type Smoothed struct {
	inner       Detector
	enterFrames int
	exitFrames  int
	minRun      int

	inSpeech   bool
	speechRun  int
	silenceRun int
	run        int
}

// NewSmoothed wraps inner with hysteresis thresholds. Non-positive values
// fall back to defaults (enter 3, exit 15, min run 2).
func NewSmoothed(inner Detector, enterFrames, exitFrames, minRun int) *Smoothed {
	if enterFrames <= 0 {
		enterFrames = 3
	}
	if exitFrames <= 0 {
		exitFrames = 15
	}
	if minRun <= 0 {
		minRun = 2
	}
	return &Smoothed{
		inner:       inner,
		enterFrames: enterFrames,
		exitFrames:  exitFrames,
		minRun:      minRun,
	}
}

func (s *Smoothed) PushFrame(frame []float32) (bool, error) {
	raw, err := s.inner.PushFrame(frame)
	if err != nil {
		return false, err
	}

	if raw {
		s.speechRun++
		s.silenceRun = 0
		if !s.inSpeech && s.speechRun >= s.enterFrames {
			s.inSpeech = true
			s.run = 0
		}
	} else {
		s.silenceRun++
		s.speechRun = 0
		if s.inSpeech && s.silenceRun >= s.exitFrames && s.run >= s.minRun {
			s.inSpeech = false
		}
	}

	if s.inSpeech {
		s.run++
	}
	return s.inSpeech, nil
}

func (s *Smoothed) Reset() {
	s.inSpeech = false
	s.speechRun = 0
	s.silenceRun = 0
	s.run = 0
	s.inner.Reset()
}
