// Package hotkey turns global keyboard chords into binding dispatch.
package hotkey

import (
	"errors"
	"log/slog"
	"sync"

	hook "github.com/robotn/gohook"
)

// Binding associates a key chord with a binding identifier.
type Binding struct {
	ID   string
	Keys []string // chord, e.g. ["ctrl", "shift", "d"]; last key is the trigger
	Hold bool     // press starts, release stops; otherwise each press toggles
}

// Dispatcher receives binding events. *actions.Registry satisfies it.
type Dispatcher interface {
	Press(bindingID string) bool
	Release(bindingID string) bool
}

// Listener owns the OS keyboard hook for its lifetime. One listener per
// process; gohook keeps global state underneath.
type Listener struct {
	dispatch Dispatcher
	bindings []Binding

	mu      sync.Mutex
	pressed map[string]bool
	started bool
}

func NewListener(dispatch Dispatcher, bindings []Binding) *Listener {
	return &Listener{
		dispatch: dispatch,
		bindings: bindings,
		pressed:  make(map[string]bool),
	}
}

// Start registers the chords and begins processing OS events on a
// background goroutine.
func (l *Listener) Start() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.started {
		return nil
	}
	if len(l.bindings) == 0 {
		return errors.New("hotkey: no bindings configured")
	}

	for _, b := range l.bindings {
		b := b
		hook.Register(hook.KeyDown, b.Keys, func(hook.Event) { l.onPress(b) })
		if b.Hold {
			// Modifiers may release in any order; the trigger key alone
			// decides when a hold ends.
			trigger := []string{b.Keys[len(b.Keys)-1]}
			hook.Register(hook.KeyUp, trigger, func(hook.Event) { l.onRelease(b) })
		}
		slog.Info("hotkey registered", "binding", b.ID, "keys", b.Keys, "hold", b.Hold)
	}

	events := hook.Start()
	go func() {
		<-hook.Process(events)
		slog.Debug("hotkey event loop ended")
	}()
	l.started = true
	return nil
}

// Stop tears down the OS hook. Safe to call without Start.
func (l *Listener) Stop() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.started {
		return
	}
	hook.End()
	l.started = false
}

func (l *Listener) onPress(b Binding) {
	if b.Hold {
		l.mu.Lock()
		already := l.pressed[b.ID]
		l.pressed[b.ID] = true
		l.mu.Unlock()
		if already {
			// Key-repeat while held.
			return
		}
	}
	l.dispatch.Press(b.ID)
}

func (l *Listener) onRelease(b Binding) {
	l.mu.Lock()
	wasPressed := l.pressed[b.ID]
	l.pressed[b.ID] = false
	l.mu.Unlock()
	if !wasPressed {
		return
	}
	l.dispatch.Release(b.ID)
}
