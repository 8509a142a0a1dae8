package actions

import "testing"

func TestRegistry_Dispatch(t *testing.T) {
	r := NewRegistry()

	var presses, releases []string
	r.Register("dictate", Funcs{
		OnPress:   func(id string) { presses = append(presses, id) },
		OnRelease: func(id string) { releases = append(releases, id) },
	})

	if !r.Press("dictate") {
		t.Error("Press(dictate) = false for registered binding")
	}
	if !r.Release("dictate") {
		t.Error("Release(dictate) = false for registered binding")
	}
	if len(presses) != 1 || presses[0] != "dictate" {
		t.Errorf("presses = %v", presses)
	}
	if len(releases) != 1 || releases[0] != "dictate" {
		t.Errorf("releases = %v", releases)
	}
}

func TestRegistry_UnknownBinding(t *testing.T) {
	r := NewRegistry()
	if r.Press("ghost") {
		t.Error("Press(ghost) = true for unregistered binding")
	}
	if r.Release("ghost") {
		t.Error("Release(ghost) = true for unregistered binding")
	}
}

func TestRegistry_ReplaceAndUnregister(t *testing.T) {
	r := NewRegistry()

	first, second := 0, 0
	r.Register("b", Funcs{OnPress: func(string) { first++ }})
	r.Register("b", Funcs{OnPress: func(string) { second++ }})
	r.Press("b")
	if first != 0 || second != 1 {
		t.Errorf("replacement handler not used: first=%d second=%d", first, second)
	}

	r.Unregister("b")
	if r.Press("b") {
		t.Error("Press succeeded after Unregister")
	}
	if ids := r.IDs(); len(ids) != 0 {
		t.Errorf("IDs() = %v after Unregister", ids)
	}
}

func TestFuncs_NilFieldsAreNoOps(t *testing.T) {
	r := NewRegistry()
	r.Register("b", Funcs{})
	// Must not panic.
	r.Press("b")
	r.Release("b")
}
