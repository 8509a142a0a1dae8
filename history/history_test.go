package history

import (
	"errors"
	"testing"
	"time"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(Options{InMemory: true})
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStore_AddAndGet(t *testing.T) {
	s := openTestStore(t)

	samples := make([]float32, 32000) // 2s at 16 kHz
	entry, err := s.Add("hello world", "en", samples)
	if err != nil {
		t.Fatalf("Add() error: %v", err)
	}
	if entry.ID == "" {
		t.Fatal("Add() returned empty id")
	}
	if entry.Duration != 2*time.Second {
		t.Errorf("Duration = %v, want 2s", entry.Duration)
	}

	got, err := s.Get(entry.ID)
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if got.Text != "hello world" || got.Language != "en" {
		t.Errorf("Get() = %+v", got)
	}

	wav, err := s.Audio(entry.ID)
	if err != nil {
		t.Fatalf("Audio() error: %v", err)
	}
	if want := 44 + len(samples)*2; len(wav) != want {
		t.Errorf("audio blob is %d bytes, want %d", len(wav), want)
	}
}

func TestStore_AddWithoutAudio(t *testing.T) {
	s := openTestStore(t)

	entry, err := s.Add("text only", "", nil)
	if err != nil {
		t.Fatalf("Add() error: %v", err)
	}
	if _, err := s.Audio(entry.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Audio() error = %v, want ErrNotFound", err)
	}
}

func TestStore_GetMissing(t *testing.T) {
	s := openTestStore(t)
	if _, err := s.Get("nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get(missing) error = %v, want ErrNotFound", err)
	}
}

func TestStore_RecentOrdering(t *testing.T) {
	s := openTestStore(t)

	var ids []string
	for _, text := range []string{"first", "second", "third"} {
		entry, err := s.Add(text, "", nil)
		if err != nil {
			t.Fatalf("Add(%q) error: %v", text, err)
		}
		ids = append(ids, entry.ID)
		time.Sleep(2 * time.Millisecond) // distinct CreatedAt
	}

	entries, err := s.Recent(2)
	if err != nil {
		t.Fatalf("Recent() error: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("Recent(2) returned %d entries", len(entries))
	}
	if entries[0].Text != "third" || entries[1].Text != "second" {
		t.Errorf("Recent() order = %q, %q; want third, second", entries[0].Text, entries[1].Text)
	}
}

func TestStore_Delete(t *testing.T) {
	s := openTestStore(t)

	entry, err := s.Add("to delete", "", make([]float32, 100))
	if err != nil {
		t.Fatalf("Add() error: %v", err)
	}
	if err := s.Delete(entry.ID); err != nil {
		t.Fatalf("Delete() error: %v", err)
	}
	if _, err := s.Get(entry.ID); !errors.Is(err, ErrNotFound) {
		t.Error("entry still present after Delete")
	}
	if _, err := s.Audio(entry.ID); !errors.Is(err, ErrNotFound) {
		t.Error("audio still present after Delete")
	}

	if err := s.Delete("missing"); err != nil {
		t.Errorf("Delete(missing) error: %v", err)
	}
}
