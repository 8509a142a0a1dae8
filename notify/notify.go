// Package notify plays short audio cues around recording transitions.
package notify

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/faiface/beep"
	"github.com/faiface/beep/mp3"
	"github.com/faiface/beep/speaker"
)

// Player plays mp3 cue files. Playback is synchronous to the calling
// goroutine, so callers that must not wait run it on their own goroutine.
type Player struct {
	initOnce sync.Once
	initErr  error
	rate     beep.SampleRate
}

func NewPlayer() *Player {
	return &Player{}
}

// Play decodes and plays one cue file, returning after playback finishes.
// An empty path is a no-op, which lets callers leave cues unconfigured.
func (p *Player) Play(path string) error {
	if path == "" {
		return nil
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open cue: %w", err)
	}

	streamer, format, err := mp3.Decode(f)
	if err != nil {
		f.Close()
		return fmt.Errorf("decode cue: %w", err)
	}
	defer streamer.Close()

	// The speaker is process-global; initialize it once with the first
	// cue's sample rate and resample later cues onto it.
	p.initOnce.Do(func() {
		p.rate = format.SampleRate
		p.initErr = speaker.Init(format.SampleRate, format.SampleRate.N(time.Second/10))
	})
	if p.initErr != nil {
		return fmt.Errorf("init speaker: %w", p.initErr)
	}

	var stream beep.Streamer = streamer
	if format.SampleRate != p.rate {
		stream = beep.Resample(4, format.SampleRate, p.rate, streamer)
	}

	done := make(chan struct{})
	speaker.Play(beep.Seq(stream, beep.Callback(func() {
		close(done)
	})))
	<-done
	return nil
}
