package dictation

import (
	"log/slog"
	"sort"
	"strings"
	"sync"

	"go.verba.dev/verba/audio"
)

// Transcriber converts raw 16 kHz mono samples into text. Implementations
// must be safe to call from a background goroutine.
type Transcriber interface {
	Transcribe(samples []float32) (string, error)
}

type segmentResult struct {
	index uint64
	text  string
}

// StreamingSession transcribes speech segments as they arrive, out of band
// from the recording itself, and reassembles the results in segment-index
// order. One worker goroutine serves the session for its whole lifetime.
type StreamingSession struct {
	segs    chan audio.SpeechSegment
	results chan segmentResult
	done    chan struct{}

	mu        sync.Mutex
	collected map[uint64]string

	closeOnce sync.Once
}

// NewStreamingSession starts the transcription worker.
func NewStreamingSession(t Transcriber) *StreamingSession {
	s := &StreamingSession{
		segs:      make(chan audio.SpeechSegment, 32),
		results:   make(chan segmentResult, 32),
		done:      make(chan struct{}),
		collected: make(map[uint64]string),
	}
	go s.run(t)
	return s
}

func (s *StreamingSession) run(t Transcriber) {
	defer close(s.done)
	for seg := range s.segs {
		text, err := t.Transcribe(seg.Samples)
		if err != nil {
			// A failed segment is dropped from the final transcript,
			// never retried.
			slog.Error("transcribe segment", "index", seg.Index, "error", err)
			continue
		}
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}
		s.results <- segmentResult{index: seg.Index, text: text}
	}
}

// SegmentSink returns the channel to hand to the recorder.
func (s *StreamingSession) SegmentSink() chan<- audio.SpeechSegment {
	return s.segs
}

// CollectPending drains completed results without blocking.
func (s *StreamingSession) CollectPending() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for {
		select {
		case r := <-s.results:
			s.collected[r.index] = r.text
		default:
			return
		}
	}
}

// HasText reports whether any segment has produced text so far.
func (s *StreamingSession) HasText() bool {
	s.CollectPending()
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.collected) > 0
}

// Finish closes the segment channel, waits for the worker to drain, and
// returns all collected text joined in segment-index order. Transcriptions
// may complete in any order; the index keys restore temporal order.
func (s *StreamingSession) Finish() string {
	s.closeOnce.Do(func() { close(s.segs) })
	for {
		select {
		case r := <-s.results:
			s.mu.Lock()
			s.collected[r.index] = r.text
			s.mu.Unlock()
		case <-s.done:
			s.CollectPending()
			return s.joined()
		}
	}
}

func (s *StreamingSession) joined() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	indices := make([]uint64, 0, len(s.collected))
	for i := range s.collected {
		indices = append(indices, i)
	}
	sort.Slice(indices, func(a, b int) bool { return indices[a] < indices[b] })
	parts := make([]string, 0, len(indices))
	for _, i := range indices {
		parts = append(parts, s.collected[i])
	}
	return strings.Join(parts, " ")
}
