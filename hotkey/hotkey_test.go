package hotkey

import "testing"

type recordingDispatcher struct {
	presses  []string
	releases []string
}

func (d *recordingDispatcher) Press(id string) bool {
	d.presses = append(d.presses, id)
	return true
}

func (d *recordingDispatcher) Release(id string) bool {
	d.releases = append(d.releases, id)
	return true
}

func TestListener_HoldSuppressesKeyRepeat(t *testing.T) {
	d := &recordingDispatcher{}
	b := Binding{ID: "dictate", Keys: []string{"ctrl", "d"}, Hold: true}
	l := NewListener(d, []Binding{b})

	l.onPress(b)
	l.onPress(b) // key repeat while held
	l.onPress(b)
	l.onRelease(b)

	if len(d.presses) != 1 {
		t.Errorf("got %d presses, want 1", len(d.presses))
	}
	if len(d.releases) != 1 {
		t.Errorf("got %d releases, want 1", len(d.releases))
	}
}

func TestListener_HoldCycles(t *testing.T) {
	d := &recordingDispatcher{}
	b := Binding{ID: "dictate", Keys: []string{"f9"}, Hold: true}
	l := NewListener(d, []Binding{b})

	l.onPress(b)
	l.onRelease(b)
	l.onPress(b)
	l.onRelease(b)

	if len(d.presses) != 2 || len(d.releases) != 2 {
		t.Errorf("presses=%d releases=%d, want 2 each", len(d.presses), len(d.releases))
	}
}

func TestListener_ReleaseWithoutPressIgnored(t *testing.T) {
	d := &recordingDispatcher{}
	b := Binding{ID: "dictate", Keys: []string{"f9"}, Hold: true}
	l := NewListener(d, []Binding{b})

	l.onRelease(b)
	if len(d.releases) != 0 {
		t.Error("release dispatched without a prior press")
	}
}

func TestListener_TogglePressesEveryTime(t *testing.T) {
	d := &recordingDispatcher{}
	b := Binding{ID: "toggle", Keys: []string{"f10"}}
	l := NewListener(d, []Binding{b})

	l.onPress(b)
	l.onPress(b)
	if len(d.presses) != 2 {
		t.Errorf("got %d presses, want 2", len(d.presses))
	}
}

func TestListener_StartWithoutBindings(t *testing.T) {
	l := NewListener(&recordingDispatcher{}, nil)
	if err := l.Start(); err == nil {
		t.Error("Start() with no bindings did not error")
	}
}
