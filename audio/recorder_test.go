package audio

import (
	"errors"
	"sync"
	"testing"

	"go.verba.dev/verba/vad"
)

// fakeOpener feeds the recorder directly, standing in for the hardware
// callback.
type fakeOpener struct {
	rate int

	mu sync.Mutex
	cb func([]float32)

	stream *fakeStream
}

func (f *fakeOpener) Open(_ string, cb func([]float32)) (Stream, StreamInfo, error) {
	f.mu.Lock()
	f.cb = cb
	f.mu.Unlock()
	f.stream = &fakeStream{}
	return f.stream, StreamInfo{SampleRate: f.rate, Channels: 1}, nil
}

func (f *fakeOpener) push(chunk []float32) {
	f.mu.Lock()
	cb := f.cb
	f.mu.Unlock()
	cb(chunk)
}

type fakeStream struct {
	mu      sync.Mutex
	started bool
	closed  bool
}

func (s *fakeStream) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.started = true
	return nil
}

func (s *fakeStream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func newTestRecorder(t *testing.T, det vad.Detector) (*Recorder, *fakeOpener) {
	t.Helper()
	opener := &fakeOpener{rate: TargetSampleRate}
	r := NewRecorder().WithStreamOpener(opener)
	if det != nil {
		r = r.WithVAD(det)
	}
	if err := r.Open(""); err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	t.Cleanup(func() { r.Close() })
	return r, opener
}

func pushFrames(o *fakeOpener, frames int, amp float32) {
	for i := 0; i < frames; i++ {
		o.push(constChunk(480, amp))
	}
}

func constChunk(n int, amp float32) []float32 {
	c := make([]float32, n)
	for i := range c {
		c[i] = amp
	}
	return c
}

func TestRecorder_CloseIdempotent(t *testing.T) {
	r, opener := newTestRecorder(t, nil)

	if err := r.Close(); err != nil {
		t.Fatalf("first Close() error: %v", err)
	}
	if err := r.Close(); err != nil {
		t.Fatalf("second Close() error: %v", err)
	}
	if r.IsOpen() {
		t.Error("IsOpen() = true after Close")
	}
	if !opener.stream.closed {
		t.Error("stream was not closed")
	}
}

func TestRecorder_OpenIdempotent(t *testing.T) {
	r, _ := newTestRecorder(t, nil)
	if err := r.Open(""); err != nil {
		t.Fatalf("second Open() error: %v", err)
	}
}

func TestRecorder_StartStopRequireOpen(t *testing.T) {
	r := NewRecorder().WithStreamOpener(&fakeOpener{rate: TargetSampleRate})

	if err := r.Start(); !errors.Is(err, ErrNotOpen) {
		t.Errorf("Start() before Open = %v, want ErrNotOpen", err)
	}
	if _, err := r.Stop(); !errors.Is(err, ErrNotOpen) {
		t.Errorf("Stop() before Open = %v, want ErrNotOpen", err)
	}
}

func TestRecorder_PassthroughWithoutVAD(t *testing.T) {
	r, opener := newTestRecorder(t, nil)

	if err := r.Start(); err != nil {
		t.Fatalf("Start() error: %v", err)
	}
	pushFrames(opener, 20, 0.1) // ~0.6s

	res, err := r.Stop()
	if err != nil {
		t.Fatalf("Stop() error: %v", err)
	}
	// All samples pass through in VAD-less mode, minus resampler rounding.
	if got := len(res.RawFull); got < 20*480-2 || got > 20*480 {
		t.Errorf("RawFull length = %d, want ~%d", got, 20*480)
	}
}

func TestRecorder_SegmentOrderingAndMinLength(t *testing.T) {
	r, opener := newTestRecorder(t, vad.NewEnergy(0.02))

	segs := make(chan SpeechSegment, 16)
	r.SetSegmentSink(segs)

	if err := r.Start(); err != nil {
		t.Fatalf("Start() error: %v", err)
	}

	// Two speech runs long enough to emit, one too short to keep.
	pushFrames(opener, 36, 0.1) // ~17k samples of speech
	pushFrames(opener, 15, 0)   // > endSilenceFrames of silence
	pushFrames(opener, 8, 0.1)  // ~3.8k samples, below the minimum
	pushFrames(opener, 15, 0)
	pushFrames(opener, 40, 0.1)
	pushFrames(opener, 15, 0)

	if _, err := r.Stop(); err != nil {
		t.Fatalf("Stop() error: %v", err)
	}

	var got []SpeechSegment
	for {
		select {
		case s := <-segs:
			got = append(got, s)
			continue
		default:
		}
		break
	}

	if len(got) != 2 {
		t.Fatalf("got %d segments, want 2", len(got))
	}
	for i, s := range got {
		if s.Index != uint64(i) {
			t.Errorf("segment %d has index %d, want %d", i, s.Index, i)
		}
		if len(s.Samples) < minSegmentSamples {
			t.Errorf("segment %d has %d samples, below minimum %d",
				i, len(s.Samples), minSegmentSamples)
		}
	}
}

func TestRecorder_IndicesResetPerStart(t *testing.T) {
	r, opener := newTestRecorder(t, vad.NewEnergy(0.02))

	segs := make(chan SpeechSegment, 16)
	r.SetSegmentSink(segs)

	record := func() SpeechSegment {
		if err := r.Start(); err != nil {
			t.Fatalf("Start() error: %v", err)
		}
		pushFrames(opener, 36, 0.1)
		pushFrames(opener, 15, 0)
		if _, err := r.Stop(); err != nil {
			t.Fatalf("Stop() error: %v", err)
		}
		return <-segs
	}

	if s := record(); s.Index != 0 {
		t.Errorf("first recording segment index = %d, want 0", s.Index)
	}
	if s := record(); s.Index != 0 {
		t.Errorf("second recording segment index = %d, want 0 after Start reset", s.Index)
	}
}

func TestRecorder_StopFinalizesOpenSegment(t *testing.T) {
	r, opener := newTestRecorder(t, vad.NewEnergy(0.02))

	segs := make(chan SpeechSegment, 16)
	r.SetSegmentSink(segs)

	if err := r.Start(); err != nil {
		t.Fatalf("Start() error: %v", err)
	}
	// Speech still in progress at stop time.
	pushFrames(opener, 40, 0.1)

	if _, err := r.Stop(); err != nil {
		t.Fatalf("Stop() error: %v", err)
	}

	select {
	case s := <-segs:
		if s.Index != 0 {
			t.Errorf("segment index = %d, want 0", s.Index)
		}
	default:
		t.Fatal("open segment was not emitted on Stop")
	}
}

func TestRecorder_StopFlushesShortTrailingUtterance(t *testing.T) {
	r, opener := newTestRecorder(t, vad.NewEnergy(0.02))

	segs := make(chan SpeechSegment, 16)
	r.SetSegmentSink(segs)

	if err := r.Start(); err != nil {
		t.Fatalf("Start() error: %v", err)
	}
	// Well under the minimum segment length, and no trailing silence: the
	// user released the key mid-word.
	pushFrames(opener, 8, 0.1)

	res, err := r.Stop()
	if err != nil {
		t.Fatalf("Stop() error: %v", err)
	}

	select {
	case s := <-segs:
		if len(s.Samples) == 0 {
			t.Error("flushed segment has no samples")
		}
		if len(s.Samples) != len(res.RawFull) {
			t.Errorf("flushed segment has %d samples, raw buffer has %d",
				len(s.Samples), len(res.RawFull))
		}
	default:
		t.Fatal("short trailing utterance was dropped on Stop")
	}
}

func TestRecorder_VADFailureCapturesAudio(t *testing.T) {
	r, opener := newTestRecorder(t, brokenDetector{})

	if err := r.Start(); err != nil {
		t.Fatalf("Start() error: %v", err)
	}
	// Silence, but the detector errors, so fail-open must keep it.
	pushFrames(opener, 20, 0)

	res, err := r.Stop()
	if err != nil {
		t.Fatalf("Stop() error: %v", err)
	}
	if len(res.RawFull) == 0 {
		t.Error("fail-open VAD dropped audio on detector error")
	}
}

type brokenDetector struct{}

func (brokenDetector) PushFrame([]float32) (bool, error) {
	return false, errors.New("inference engine not ready")
}
func (brokenDetector) Reset() {}

func TestRecorder_SegmentsDiscardedWithoutSink(t *testing.T) {
	r, opener := newTestRecorder(t, vad.NewEnergy(0.02))

	if err := r.Start(); err != nil {
		t.Fatalf("Start() error: %v", err)
	}
	pushFrames(opener, 36, 0.1)
	pushFrames(opener, 15, 0)

	// No sink installed: segments are dropped, raw capture is unaffected.
	res, err := r.Stop()
	if err != nil {
		t.Fatalf("Stop() error: %v", err)
	}
	if len(res.RawFull) == 0 {
		t.Error("raw buffer empty despite captured speech")
	}
}
