package session_test

import (
	"testing"

	"telefetch/internal/models"
	"telefetch/internal/session"
)

func src(title string) models.MediaSource {
	return models.MediaSource{URL: "https://example.com/v", Title: title}
}

func TestPutGetRoundTrip(t *testing.T) {
	s := session.NewStore()

	gen := s.Put(1, 2, session.KeyVideoOptions, src("one"))

	e, err := s.Get(1, 2, session.KeyVideoOptions, gen)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if e.Source.Title != "one" {
		t.Fatalf("wrong entry: %q", e.Source.Title)
	}
}

func TestMissingEntryIsSessionExpired(t *testing.T) {
	s := session.NewStore()

	_, err := s.Get(1, 2, session.KeyAudioOptions, 1)
	if !models.IsCategory(err, models.ErrCatSessionExpired) {
		t.Fatalf("expected session-expired category, got %v", err)
	}
}

func TestNewResolveSupersedesOldGeneration(t *testing.T) {
	s := session.NewStore()

	old := s.Put(1, 2, session.KeyVideoOptions, src("old"))
	cur := s.Put(1, 2, session.KeyVideoOptions, src("new"))

	if _, err := s.Get(1, 2, session.KeyVideoOptions, old); !models.IsCategory(err, models.ErrCatSessionExpired) {
		t.Fatalf("stale generation must be expired, got %v", err)
	}

	e, err := s.Get(1, 2, session.KeyVideoOptions, cur)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if e.Source.Title != "new" {
		t.Fatalf("expected superseding entry, got %q", e.Source.Title)
	}
}

func TestZeroGenerationNeverMatches(t *testing.T) {
	s := session.NewStore()

	s.Put(1, 2, session.KeyVideoOptions, src("one"))

	// Generations start at 1; a selection carrying 0 is forged or
	// replayed, never current.
	if _, err := s.Get(1, 2, session.KeyVideoOptions, 0); !models.IsCategory(err, models.ErrCatSessionExpired) {
		t.Fatalf("zero generation must be expired, got %v", err)
	}
}

func TestKeysAreScopedPerChatUserAndName(t *testing.T) {
	s := session.NewStore()

	vidGen := s.Put(1, 2, session.KeyVideoOptions, src("video"))
	audGen := s.Put(1, 2, session.KeyAudioOptions, src("audio"))

	if _, err := s.Get(1, 3, session.KeyVideoOptions, vidGen); err == nil {
		t.Fatal("different user must not see the entry")
	}
	if _, err := s.Get(2, 2, session.KeyVideoOptions, vidGen); err == nil {
		t.Fatal("different chat must not see the entry")
	}

	e, err := s.Get(1, 2, session.KeyAudioOptions, audGen)
	if err != nil || e.Source.Title != "audio" {
		t.Fatalf("discriminator keys must be independent: %v %q", err, e.Source.Title)
	}
}

func TestDrop(t *testing.T) {
	s := session.NewStore()

	gen := s.Put(1, 2, session.KeySubLangs, src("subs"))
	s.Drop(1, 2, session.KeySubLangs)

	if _, err := s.Get(1, 2, session.KeySubLangs, gen); err == nil {
		t.Fatal("dropped entry must be gone")
	}
}
