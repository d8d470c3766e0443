// Package session caches resolved format lists between a command and
// the selection event that follows it.
package session

import (
	"fmt"
	"sync"

	"telefetch/internal/models"
)

// Well-known session keys. A single command run may populate more than
// one list, so each selectable list gets its own key.
const (
	KeyVideoOptions = "video-options"
	KeyAudioOptions = "audio-options"
	KeySubLangs     = "sub-langs"
)

// Entry is one cached resolve result. Gen identifies the resolve that
// produced it; a selection carrying a stale generation is expired.
type Entry struct {
	Source models.MediaSource
	Gen    uint64
}

type key struct {
	chatID int64
	userID int64
	name   string
}

// Store holds ephemeral per-(chat,user) selection state. Never durable:
// a process restart loses pending selections and the user re-issues the
// command.
type Store struct {
	mu      sync.RWMutex
	entries map[key]Entry
	gen     uint64
}

// NewStore returns an empty session store.
func NewStore() *Store {
	return &Store{entries: make(map[key]Entry)}
}

// Put caches source under (chatID, userID, name), superseding any prior
// entry for the same key, and returns the new generation.
func (s *Store) Put(chatID, userID int64, name string, source models.MediaSource) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.gen++
	s.entries[key{chatID, userID, name}] = Entry{Source: source, Gen: s.gen}
	return s.gen
}

// Get returns the entry for (chatID, userID, name) when one exists and
// its generation matches. Generations start at 1, so a selection
// carrying any other value (including zero) is expired.
func (s *Store) Get(chatID, userID int64, name string, gen uint64) (Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.entries[key{chatID, userID, name}]
	if !ok {
		return Entry{}, models.NewDownloadError(models.ErrCatSessionExpired,
			fmt.Errorf("no pending %s selection", name))
	}
	if e.Gen != gen {
		return Entry{}, models.NewDownloadError(models.ErrCatSessionExpired,
			fmt.Errorf("%s selection superseded by a newer command", name))
	}
	return e, nil
}

// Drop removes the entry for (chatID, userID, name).
func (s *Store) Drop(chatID, userID int64, name string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.entries, key{chatID, userID, name})
}
