// Package history persists finished dictations in a local badger store,
// text and metadata as JSON with the WAV-encoded audio under a sibling key.
package history

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"

	"go.verba.dev/verba/audio"
)

// ErrNotFound is returned when no entry exists for an id.
var ErrNotFound = errors.New("history: entry not found")

const (
	metaPrefix  = "dictation:"
	audioPrefix = "audio:"
)

// Entry is one finished dictation.
type Entry struct {
	ID        string        `json:"id"`
	Text      string        `json:"text"`
	Language  string        `json:"language,omitempty"`
	Duration  time.Duration `json:"duration"`
	CreatedAt time.Time     `json:"created_at"`
}

// Options configures the store.
type Options struct {
	// Dir is the directory for data files. Required unless InMemory.
	Dir string

	// InMemory runs the store without disk persistence, for tests.
	InMemory bool
}

// Store is a badger-backed dictation archive.
type Store struct {
	db *badger.DB
}

// Open opens or creates the store.
func Open(opts Options) (*Store, error) {
	if !opts.InMemory && opts.Dir == "" {
		return nil, errors.New("history: Options.Dir is required for on-disk mode")
	}
	dbOpts := badger.DefaultOptions(opts.Dir).WithLogger(slogLogger{})
	if opts.InMemory {
		dbOpts = dbOpts.WithInMemory(true)
	}
	db, err := badger.Open(dbOpts)
	if err != nil {
		return nil, fmt.Errorf("open history store: %w", err)
	}
	return &Store{db: db}, nil
}

// Add stores a dictation and returns the created entry. samples may be nil
// when audio retention is disabled.
func (s *Store) Add(text, language string, samples []float32) (*Entry, error) {
	entry := &Entry{
		ID:        uuid.NewString(),
		Text:      text,
		Language:  language,
		Duration:  time.Duration(len(samples)) * time.Second / audio.TargetSampleRate,
		CreatedAt: time.Now().UTC(),
	}
	meta, err := json.Marshal(entry)
	if err != nil {
		return nil, fmt.Errorf("marshal entry: %w", err)
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set([]byte(metaPrefix+entry.ID), meta); err != nil {
			return err
		}
		if len(samples) > 0 {
			wav := audio.EncodeWAV(samples, audio.TargetSampleRate)
			return txn.Set([]byte(audioPrefix+entry.ID), wav)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("store entry: %w", err)
	}
	return entry, nil
}

// Get returns one entry by id.
func (s *Store) Get(id string) (*Entry, error) {
	var entry Entry
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(metaPrefix + id))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &entry)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load entry: %w", err)
	}
	return &entry, nil
}

// Audio returns the stored WAV blob for an entry. ErrNotFound covers both
// a missing entry and an entry saved without audio.
func (s *Store) Audio(id string) ([]byte, error) {
	var wav []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(audioPrefix + id))
		if err != nil {
			return err
		}
		wav, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load audio: %w", err)
	}
	return wav, nil
}

// Recent returns up to limit entries, newest first.
func (s *Store) Recent(limit int) ([]Entry, error) {
	var entries []Entry
	prefix := []byte(metaPrefix)
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var entry Entry
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &entry)
			})
			if err != nil {
				return err
			}
			entries = append(entries, entry)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}

	sort.Slice(entries, func(a, b int) bool {
		return entries[a].CreatedAt.After(entries[b].CreatedAt)
	})
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}

// Delete removes an entry and its audio. Deleting an absent id is a no-op.
func (s *Store) Delete(id string) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Delete([]byte(metaPrefix + id)); err != nil {
			return err
		}
		return txn.Delete([]byte(audioPrefix + id))
	})
	if err != nil {
		return fmt.Errorf("delete entry: %w", err)
	}
	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// slogLogger routes badger output through slog, dropping its chatty info
// and debug lines.
type slogLogger struct{}

func (slogLogger) Errorf(f string, v ...interface{})   { slog.Error(fmt.Sprintf("badger: "+f, v...)) }
func (slogLogger) Warningf(f string, v ...interface{}) { slog.Warn(fmt.Sprintf("badger: "+f, v...)) }
func (slogLogger) Infof(string, ...interface{})        {}
func (slogLogger) Debugf(string, ...interface{})       {}
