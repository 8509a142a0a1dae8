// Package clipboard reads and writes the system clipboard through the
// platform's clipboard utility.
package clipboard

import (
	"fmt"
	"os/exec"
	"runtime"
	"strings"
)

// Copy puts text on the system clipboard.
func Copy(text string) error {
	switch runtime.GOOS {
	case "darwin":
		return pipeTo(text, "pbcopy")
	case "linux":
		// Wayland first, then X11.
		if err := pipeTo(text, "wl-copy"); err == nil {
			return nil
		}
		return pipeTo(text, "xclip", "-selection", "clipboard")
	default:
		return fmt.Errorf("clipboard not supported on %s", runtime.GOOS)
	}
}

// Get returns the current clipboard text.
func Get() (string, error) {
	switch runtime.GOOS {
	case "darwin":
		return readFrom("pbpaste")
	case "linux":
		if out, err := readFrom("wl-paste", "--no-newline"); err == nil {
			return out, nil
		}
		return readFrom("xclip", "-selection", "clipboard", "-o")
	default:
		return "", fmt.Errorf("clipboard not supported on %s", runtime.GOOS)
	}
}

func pipeTo(text string, name string, args ...string) error {
	cmd := exec.Command(name, args...)
	cmd.Stdin = strings.NewReader(text)
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	return nil
}

func readFrom(name string, args ...string) (string, error) {
	out, err := exec.Command(name, args...).Output()
	if err != nil {
		return "", fmt.Errorf("%s: %w", name, err)
	}
	return string(out), nil
}
