package audio

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.verba.dev/verba/vad"
)

const (
	// TargetSampleRate is the rate every transcription consumer expects.
	TargetSampleRate = 16000

	frameDuration = 30 * time.Millisecond

	// endSilenceFrames is how many consecutive noise frames close a speech
	// segment (~300ms at 30ms frames).
	endSilenceFrames = 10

	// minSegmentSamples is the shortest segment worth transcribing (~1s).
	minSegmentSamples = 16000

	visualiserWindow  = 512
	visualiserBuckets = 16
	vocalMinHz        = 400.0
	vocalMaxHz        = 4000.0

	// sampleQueueDepth bounds the callback-to-worker hand-off. The hardware
	// callback must never block, so overflow chunks are dropped with a log
	// instead.
	sampleQueueDepth = 256
)

// ErrNotOpen is returned by Start and Stop when the recorder has no worker.
var ErrNotOpen = errors.New("recorder is not open")

// SpeechSegment is a contiguous run of speech frames closed by silence or
// by stopping capture, ready for transcription. Index is monotonic within
// one recording.
type SpeechSegment struct {
	Index   uint64
	Samples []float32
}

// StopResult carries the complete raw sample buffer for a recording span.
type StopResult struct {
	RawFull []float32
}

type cmdKind int

const (
	cmdStart cmdKind = iota
	cmdStop
	cmdShutdown
)

type command struct {
	kind  cmdKind
	reply chan StopResult
}

// Recorder owns the hardware input stream and a worker goroutine that runs
// the resample → VAD → segmentation pipeline. Commands are delivered over a
// channel so the stream and all per-recording state live on a single
// goroutine.
//
// Lifecycle: NewRecorder → (builder options) → Open → Start/Stop cycles →
// Close. Close is safe to call repeatedly.
type Recorder struct {
	opener  StreamOpener
	det     vad.Detector
	levelFn func(levels []float32)
	device  string

	segMu sync.Mutex
	segCh chan<- SpeechSegment

	mu         sync.Mutex
	cmds       chan command
	workerDone chan struct{}
	open       bool
}

// NewRecorder creates a closed recorder using PortAudio for capture.
func NewRecorder() *Recorder {
	return &Recorder{opener: PortAudioOpener{}}
}

// WithVAD configures frame classification. Without a detector every frame is
// treated as speech. Must be called before Open.
func (r *Recorder) WithVAD(det vad.Detector) *Recorder {
	r.det = det
	return r
}

// WithLevelCallback installs a sink for visualiser bucket levels. The
// callback runs on the worker goroutine and must return quickly.
func (r *Recorder) WithLevelCallback(fn func(levels []float32)) *Recorder {
	r.levelFn = fn
	return r
}

// WithStreamOpener replaces the capture backend. Used by tests.
func (r *Recorder) WithStreamOpener(o StreamOpener) *Recorder {
	r.opener = o
	return r
}

// SetSegmentSink installs or removes (nil) the channel receiving completed
// speech segments. Safe to call at any time; a nil sink discards segments.
// Once a call with nil returns, no further sends are in flight and the
// caller may close the previous channel.
func (r *Recorder) SetSegmentSink(ch chan<- SpeechSegment) {
	r.segMu.Lock()
	r.segCh = ch
	r.segMu.Unlock()
}

// Open selects a device (empty name for the system default), opens the
// input stream and spawns the worker. Idempotent while open.
func (r *Recorder) Open(device string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.open {
		return nil
	}

	samples := make(chan []float32, sampleQueueDepth)
	var dropped int
	cb := func(chunk []float32) {
		select {
		case samples <- chunk:
		default:
			// Never block the hardware callback.
			dropped++
			if dropped%100 == 1 {
				slog.Warn("sample queue full, dropping audio", "dropped", dropped)
			}
		}
	}

	stream, info, err := r.opener.Open(device, cb)
	if err != nil {
		return fmt.Errorf("open recorder: %w", err)
	}
	if err := stream.Start(); err != nil {
		stream.Close()
		return fmt.Errorf("start stream: %w", err)
	}

	r.cmds = make(chan command, 4)
	r.workerDone = make(chan struct{})
	r.device = device
	r.open = true

	go r.run(stream, info, samples, r.cmds, r.workerDone)

	slog.Info("recorder opened", "rate", info.SampleRate, "channels", info.Channels)
	return nil
}

// Start begins capturing. All accumulation state is reset on the worker.
// Non-blocking; the state flip happens asynchronously.
func (r *Recorder) Start() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.open {
		return ErrNotOpen
	}
	r.cmds <- command{kind: cmdStart}
	return nil
}

// Stop ends capturing and blocks until the worker has flushed the resampler,
// finalized any in-progress segment and handed back the raw buffer.
func (r *Recorder) Stop() (StopResult, error) {
	r.mu.Lock()
	if !r.open {
		r.mu.Unlock()
		return StopResult{}, ErrNotOpen
	}
	cmds, done := r.cmds, r.workerDone
	r.mu.Unlock()

	reply := make(chan StopResult, 1)
	select {
	case cmds <- command{kind: cmdStop, reply: reply}:
	case <-done:
		return StopResult{}, ErrNotOpen
	}

	select {
	case res := <-reply:
		return res, nil
	case <-done:
		return StopResult{}, ErrNotOpen
	}
}

// Close shuts the worker down, releases the stream and returns once the
// worker has exited. Safe to call multiple times.
func (r *Recorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.open {
		return nil
	}

	select {
	case r.cmds <- command{kind: cmdShutdown}:
	case <-r.workerDone:
	}
	<-r.workerDone

	r.open = false
	slog.Debug("recorder closed")
	return nil
}

// IsOpen reports whether a worker is running.
func (r *Recorder) IsOpen() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.open
}

// run is the worker loop. It owns the stream, the resampler, the visualiser
// and all segmentation state, and exits on Shutdown or when the sample
// channel closes.
func (r *Recorder) run(stream Stream, info StreamInfo, samples <-chan []float32, cmds <-chan command, done chan<- struct{}) {
	defer close(done)
	defer stream.Close()

	resampler := NewFrameResampler(info.SampleRate, TargetSampleRate, frameDuration)
	vis := NewVisualiser(info.SampleRate, visualiserWindow, visualiserBuckets, vocalMinHz, vocalMaxHz)

	seg := &segmenter{recorder: r, det: r.det}
	recording := false

	consume := func(raw []float32) {
		if levels := vis.Feed(raw); levels != nil && r.levelFn != nil {
			r.levelFn(levels)
		}
		resampler.Push(raw, func(frame []float32) {
			seg.handleFrame(frame, recording)
		})
	}

	// Commands act after everything already queued ahead of them, so a Stop
	// never races past samples captured before it.
	drain := func() {
		for {
			select {
			case raw, ok := <-samples:
				if !ok {
					return
				}
				consume(raw)
			default:
				return
			}
		}
	}

	for {
		select {
		case raw, ok := <-samples:
			if !ok {
				return
			}
			consume(raw)

		case cmd := <-cmds:
			drain()
			switch cmd.kind {
			case cmdStart:
				seg.reset()
				resampler.Reset()
				vis.Reset()
				if r.det != nil {
					r.det.Reset()
				}
				recording = true

			case cmdStop:
				recording = false
				resampler.Finish(func(frame []float32) {
					seg.handleFrame(frame, true)
				})
				seg.finalize()
				cmd.reply <- StopResult{RawFull: seg.takeRaw()}
				seg.reset()

			case cmdShutdown:
				return
			}
		}
	}
}

// segmenter accumulates speech frames into segments and the raw buffer.
// Only ever touched by the worker goroutine.
type segmenter struct {
	recorder *Recorder
	det      vad.Detector

	rawFull     []float32
	current     []float32
	inSegment   bool
	index       uint64
	silenceRun  int
	vadFailures int
}

func (s *segmenter) handleFrame(frame []float32, recording bool) {
	if !recording {
		return
	}

	speech := true
	if s.det != nil {
		var err error
		speech, err = s.det.PushFrame(frame)
		if err != nil {
			// Fail open: better to capture noise than to drop the user's
			// words because the detector glitched.
			speech = true
			s.vadFailures++
			if s.vadFailures%100 == 1 {
				slog.Warn("vad failure, treating frame as speech",
					"error", err, "failures", s.vadFailures)
			}
		} else {
			s.vadFailures = 0
		}
	}

	if speech {
		s.rawFull = append(s.rawFull, frame...)
		s.current = append(s.current, frame...)
		s.inSegment = true
		s.silenceRun = 0
		return
	}

	if !s.inSegment {
		return
	}
	s.silenceRun++
	if s.silenceRun < endSilenceFrames {
		return
	}

	if len(s.current) >= minSegmentSamples {
		s.emit()
	} else {
		s.current = s.current[:0]
	}
	s.inSegment = false
	s.silenceRun = 0
}

// finalize closes out an in-progress segment at stop time. Unlike the
// silence path, any non-empty segment is flushed here: the utterance the
// user was in the middle of when they released the key must not be lost,
// however short.
func (s *segmenter) finalize() {
	if s.inSegment && len(s.current) > 0 {
		s.emit()
	}
	s.current = s.current[:0]
	s.inSegment = false
	s.silenceRun = 0
}

// emit hands the current segment to the sink. The send happens while segMu
// is held: SetSegmentSink(nil) cannot return with a send still in flight, so
// a consumer that detaches the sink may close its channel immediately. The
// flip side is that a consumer that stops draining the channel stalls the
// worker, including a pending Stop reply, until it detaches.
func (s *segmenter) emit() {
	s.recorder.segMu.Lock()
	ch := s.recorder.segCh
	if ch != nil {
		seg := SpeechSegment{Index: s.index, Samples: s.current}
		s.current = make([]float32, 0, minSegmentSamples)
		ch <- seg
		slog.Debug("speech segment emitted", "index", seg.Index, "samples", len(seg.Samples))
	} else {
		s.current = s.current[:0]
	}
	s.recorder.segMu.Unlock()
	s.index++
}

func (s *segmenter) takeRaw() []float32 {
	raw := s.rawFull
	s.rawFull = nil
	return raw
}

func (s *segmenter) reset() {
	s.rawFull = nil
	s.current = s.current[:0]
	s.inSegment = false
	s.index = 0
	s.silenceRun = 0
	s.vadFailures = 0
}
