package dictation

import (
	"fmt"
	"os/exec"
	"runtime"
)

// SystemMuter mutes the default audio output via whatever sound server the
// host runs. On Linux it tries PipeWire, then PulseAudio, then ALSA.
type SystemMuter struct{}

func (SystemMuter) Mute() error { return setOutputMute(true) }

func (SystemMuter) Unmute() error { return setOutputMute(false) }

func setOutputMute(mute bool) error {
	switch runtime.GOOS {
	case "darwin":
		script := fmt.Sprintf("set volume output muted %t", mute)
		return exec.Command("osascript", "-e", script).Run()
	case "linux":
		val := "0"
		state := "unmute"
		if mute {
			val = "1"
			state = "mute"
		}
		if exec.Command("wpctl", "set-mute", "@DEFAULT_AUDIO_SINK@", val).Run() == nil {
			return nil
		}
		if exec.Command("pactl", "set-sink-mute", "@DEFAULT_SINK@", val).Run() == nil {
			return nil
		}
		if err := exec.Command("amixer", "set", "Master", state).Run(); err != nil {
			return fmt.Errorf("mute output: no working audio backend: %w", err)
		}
		return nil
	default:
		return fmt.Errorf("output mute not supported on %s", runtime.GOOS)
	}
}
