// Package audio provides microphone capture, resampling, voice-activity
// segmentation and level visualisation for the dictation pipeline.
package audio

import "time"

// FrameResampler converts irregularly sized chunks of audio at a native
// sample rate into fixed-duration frames at a target rate using linear
// interpolation. Leftover input is carried over between calls, so feeding
// the same chunk sequence always produces the same frame sequence.
//
// There is deliberately no anti-aliasing filter: for speech heading into a
// transcription model, latency matters more than stopband rejection.
type FrameResampler struct {
	srcRate  int
	dstRate  int
	frameLen int

	step  float64   // input samples consumed per output sample
	pos   float64   // fractional read cursor into carry
	carry []float32 // unconsumed input samples
	frame []float32 // partial output frame
}

// NewFrameResampler creates a resampler emitting frames of frameDur length
// at dstRate from input at srcRate.
func NewFrameResampler(srcRate, dstRate int, frameDur time.Duration) *FrameResampler {
	frameLen := int(float64(dstRate) * frameDur.Seconds())
	return &FrameResampler{
		srcRate:  srcRate,
		dstRate:  dstRate,
		frameLen: frameLen,
		step:     float64(srcRate) / float64(dstRate),
		carry:    make([]float32, 0, srcRate/10),
		frame:    make([]float32, 0, frameLen),
	}
}

// FrameLen returns the number of samples per emitted frame.
func (r *FrameResampler) FrameLen() int { return r.frameLen }

// Push appends chunk to the carry-over buffer and invokes emit once per
// completed frame. The slice passed to emit is reused; callers must copy if
// they keep it.
func (r *FrameResampler) Push(chunk []float32, emit func(frame []float32)) {
	r.carry = append(r.carry, chunk...)

	// Interpolation needs a right neighbour, so stop one short of the end.
	for int(r.pos)+1 < len(r.carry) {
		i := int(r.pos)
		frac := float32(r.pos - float64(i))
		s := r.carry[i]*(1-frac) + r.carry[i+1]*frac
		r.emitSample(s, emit)
		r.pos += r.step
	}

	r.trim()
}

// Finish flushes remaining carried samples, emitting a final (possibly
// shorter) frame if any output is pending. The resampler is reset afterwards
// and may be reused.
func (r *FrameResampler) Finish(emit func(frame []float32)) {
	for int(r.pos) < len(r.carry) {
		i := int(r.pos)
		frac := float32(r.pos - float64(i))
		s1 := r.carry[i]
		s2 := s1
		if i+1 < len(r.carry) {
			s2 = r.carry[i+1]
		}
		s := s1*(1-frac) + s2*frac
		r.emitSample(s, emit)
		r.pos += r.step
	}

	if len(r.frame) > 0 {
		emit(r.frame)
	}
	r.Reset()
}

// Reset discards all buffered input and partial output.
func (r *FrameResampler) Reset() {
	r.carry = r.carry[:0]
	r.frame = r.frame[:0]
	r.pos = 0
}

func (r *FrameResampler) emitSample(s float32, emit func(frame []float32)) {
	r.frame = append(r.frame, s)
	if len(r.frame) == r.frameLen {
		emit(r.frame)
		r.frame = r.frame[:0]
	}
}

// trim drops consumed input, keeping only the fractional remainder of the
// read cursor plus the samples after it.
func (r *FrameResampler) trim() {
	n := int(r.pos)
	if n == 0 {
		return
	}
	if n > len(r.carry) {
		n = len(r.carry)
	}
	r.carry = append(r.carry[:0], r.carry[n:]...)
	r.pos -= float64(n)
}
