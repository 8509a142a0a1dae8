package audio

import (
	"fmt"
	"log/slog"

	"github.com/gordonklaus/portaudio"
)

// Stream is an open hardware input stream. Samples are delivered through the
// callback passed at open time; Close stops delivery and releases the
// device.
type Stream interface {
	Start() error
	Close() error
}

// StreamInfo describes the negotiated stream configuration.
type StreamInfo struct {
	SampleRate int
	Channels   int
}

// StreamOpener builds a callback-based input stream for a device. The
// callback receives mono float32 chunks it owns; it must never block, so
// implementations hand samples to a channel. An empty device name selects
// the system default input.
type StreamOpener interface {
	Open(device string, cb func(samples []float32)) (Stream, StreamInfo, error)
}

// Device describes an available audio input device.
type Device struct {
	Name       string
	SampleRate float64
	Channels   int
	IsDefault  bool
}

// ListInputDevices returns all devices with input channels. PortAudio must
// be initialized.
func ListInputDevices() ([]Device, error) {
	devs, err := portaudio.Devices()
	if err != nil {
		return nil, fmt.Errorf("list devices: %w", err)
	}
	def, _ := portaudio.DefaultInputDevice()

	var out []Device
	for _, d := range devs {
		if d.MaxInputChannels < 1 {
			continue
		}
		out = append(out, Device{
			Name:       d.Name,
			SampleRate: d.DefaultSampleRate,
			Channels:   d.MaxInputChannels,
			IsDefault:  def != nil && d.Name == def.Name,
		})
	}
	return out, nil
}

// PortAudioOpener opens input streams through PortAudio.
type PortAudioOpener struct{}

func (PortAudioOpener) Open(device string, cb func([]float32)) (Stream, StreamInfo, error) {
	dev, err := findInputDevice(device)
	if err != nil {
		return nil, StreamInfo{}, err
	}
	if dev.MaxInputChannels < 1 {
		return nil, StreamInfo{}, fmt.Errorf("device %q has no input channels", dev.Name)
	}

	// Preference order: float32 at the target rate, float32 at the device
	// default, int16 at the device default.
	attempts := []struct {
		rate  float64
		int16 bool
	}{
		{rate: float64(TargetSampleRate)},
		{rate: dev.DefaultSampleRate},
		{rate: dev.DefaultSampleRate, int16: true},
	}

	var lastErr error
	for _, a := range attempts {
		stream, err := openStream(dev, a.rate, a.int16, cb)
		if err != nil {
			lastErr = err
			continue
		}
		slog.Info("input stream opened",
			"device", dev.Name,
			"rate", a.rate,
			"int16", a.int16)
		return stream, StreamInfo{SampleRate: int(a.rate), Channels: 1}, nil
	}
	return nil, StreamInfo{}, fmt.Errorf("open input stream for %q: %w", dev.Name, lastErr)
}

func findInputDevice(name string) (*portaudio.DeviceInfo, error) {
	if name != "" {
		devs, err := portaudio.Devices()
		if err != nil {
			return nil, fmt.Errorf("list devices: %w", err)
		}
		for _, d := range devs {
			if d.Name == name && d.MaxInputChannels > 0 {
				return d, nil
			}
		}
		slog.Warn("configured input device not found, using default", "device", name)
	}

	dev, err := portaudio.DefaultInputDevice()
	if err != nil {
		return nil, fmt.Errorf("no input device found: %w", err)
	}
	return dev, nil
}

func openStream(dev *portaudio.DeviceInfo, rate float64, asInt16 bool, cb func([]float32)) (Stream, error) {
	params := portaudio.LowLatencyParameters(dev, nil)
	params.Input.Channels = 1
	params.SampleRate = rate
	params.FramesPerBuffer = 0

	var (
		s   *portaudio.Stream
		err error
	)
	if asInt16 {
		s, err = portaudio.OpenStream(params, func(in []int16) {
			buf := make([]float32, len(in))
			for i, v := range in {
				buf[i] = float32(v) / 32768
			}
			cb(buf)
		})
	} else {
		s, err = portaudio.OpenStream(params, func(in []float32) {
			buf := make([]float32, len(in))
			copy(buf, in)
			cb(buf)
		})
	}
	if err != nil {
		return nil, err
	}
	return &paStream{s: s}, nil
}

type paStream struct {
	s *portaudio.Stream
}

func (p *paStream) Start() error { return p.s.Start() }

func (p *paStream) Close() error {
	if err := p.s.Stop(); err != nil {
		slog.Debug("stop stream", "error", err)
	}
	return p.s.Close()
}
