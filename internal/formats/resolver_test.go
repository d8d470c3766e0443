package formats_test

import (
	"testing"

	"telefetch/internal/formats"
	"telefetch/internal/models"
)

func TestResolveDedupsByResolution(t *testing.T) {
	const mb = 1024 * 1024

	raw := []models.RawFormat{
		// Same resolution, low-compat entry is larger but loses.
		{ID: "vp9-1080", Ext: "webm", VCodec: "vp9", ACodec: "none", Height: 1080, Filesize: 50 * mb},
		{ID: "avc-1080", Ext: "mp4", VCodec: "avc1.640028", ACodec: "none", Height: 1080, Filesize: 48 * mb},
		{ID: "avc-720", Ext: "mp4", VCodec: "avc1.4d401f", ACodec: "none", Height: 720, Filesize: 20 * mb},
		{ID: "aud-128", Ext: "m4a", VCodec: "none", ACodec: "mp4a.40.2", ABR: 128, Filesize: 4 * mb},
	}

	video, _, err := formats.Resolve(raw)
	if err != nil {
		t.Fatalf("unexpected resolve error: %v", err)
	}

	if len(video) != 2 {
		t.Fatalf("expected 2 deduped video options, got %d", len(video))
	}

	// Ascending by resolution.
	if video[0].Resolution != "720p" || video[1].Resolution != "1080p" {
		t.Fatalf("wrong ordering: %q then %q", video[0].Resolution, video[1].Resolution)
	}

	// The 48MB high-compat entry beats the 50MB low-compat one.
	if got := video[1].FormatID; got != "avc-1080+aud-128" {
		t.Fatalf("expected high-compat 1080p entry paired with best audio, got %q", got)
	}
}

func TestResolvePairsBestAudioWithAdaptiveVideo(t *testing.T) {
	const mb = 1024 * 1024

	raw := []models.RawFormat{
		{ID: "v1", Ext: "mp4", VCodec: "avc1", ACodec: "none", Height: 1080, Filesize: 40 * mb},
		{ID: "a-opus", Ext: "webm", VCodec: "none", ACodec: "opus", ABR: 160, Filesize: 5 * mb},
		{ID: "a-aac", Ext: "m4a", VCodec: "none", ACodec: "mp4a.40.2", ABR: 128, Filesize: 4 * mb},
	}

	video, _, err := formats.Resolve(raw)
	if err != nil {
		t.Fatalf("unexpected resolve error: %v", err)
	}

	opt := video[0]
	if opt.StreamType != models.StreamAdaptive {
		t.Fatalf("expected adaptive stream type")
	}
	if opt.FormatID != "v1+a-aac" {
		t.Fatalf("expected pairing with the aac candidate, got %q", opt.FormatID)
	}
	if opt.TotalSize != 44*mb {
		t.Fatalf("expected combined size 44MB, got %d", opt.TotalSize)
	}
}

func TestResolveProgressiveKeepsOwnSize(t *testing.T) {
	const mb = 1024 * 1024

	raw := []models.RawFormat{
		{ID: "prog", Ext: "mp4", VCodec: "avc1", ACodec: "mp4a.40.2", Height: 720, Filesize: 30 * mb},
		{ID: "aud", Ext: "m4a", VCodec: "none", ACodec: "mp4a.40.2", ABR: 128, Filesize: 4 * mb},
	}

	video, _, err := formats.Resolve(raw)
	if err != nil {
		t.Fatalf("unexpected resolve error: %v", err)
	}

	opt := video[0]
	if opt.StreamType != models.StreamProgressive {
		t.Fatalf("expected progressive stream type")
	}
	if opt.FormatID != "prog" || opt.TotalSize != 30*mb {
		t.Fatalf("progressive option must keep its single-stream id and size, got %q/%d",
			opt.FormatID, opt.TotalSize)
	}
}

func TestResolveAudioDedupAndOrdering(t *testing.T) {
	const mb = 1024 * 1024

	raw := []models.RawFormat{
		{ID: "a1", Ext: "m4a", VCodec: "none", ACodec: "mp4a.40.2", ABR: 128, Filesize: 4 * mb},
		{ID: "a2", Ext: "m4a", VCodec: "none", ACodec: "mp4a.40.2", ABR: 128, Filesize: 5 * mb},
		{ID: "a3", Ext: "webm", VCodec: "none", ACodec: "opus", ABR: 160, Filesize: 5 * mb},
	}

	_, audio, err := formats.Resolve(raw)
	if err != nil {
		t.Fatalf("unexpected resolve error: %v", err)
	}

	if len(audio) != 2 {
		t.Fatalf("expected 2 deduped audio options, got %d", len(audio))
	}
	if audio[0].Bitrate != 160 || audio[1].Bitrate != 128 {
		t.Fatalf("expected descending bitrate order, got %d then %d",
			audio[0].Bitrate, audio[1].Bitrate)
	}
	if audio[1].FormatID != "a2" {
		t.Fatalf("expected largest-size representative at 128kbps, got %q", audio[1].FormatID)
	}
}

func TestResolveDiscardsSizelessEntries(t *testing.T) {
	raw := []models.RawFormat{
		{ID: "nosize", Ext: "mp4", VCodec: "avc1", ACodec: "none", Height: 1080},
	}

	if _, _, err := formats.Resolve(raw); err == nil {
		t.Fatal("expected error when every entry lacks a size estimate")
	}
}

func TestSanitizeTitle(t *testing.T) {
	cases := map[string]string{
		"Some Video: The \"Best\" One!": "Some_Video_The_Best_One",
		"///":                           "media",
		"plain-name.01":                 "plain-name.01",
	}

	for in, want := range cases {
		if got := formats.SanitizeTitle(in); got != want {
			t.Errorf("SanitizeTitle(%q) = %q, want %q", in, got, want)
		}
	}
}
