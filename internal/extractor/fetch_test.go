package extractor_test

import (
	"testing"
	"time"

	"telefetch/internal/extractor"
)

func TestParseProgressLine(t *testing.T) {
	line := "TFPROG|downloading|1048576|10485760|NA|524288.5|18|/tmp/u1/video.f137.mp4"

	ev, ok := extractor.ParseProgressLine(line)
	if !ok {
		t.Fatal("expected line to parse")
	}

	if ev.Status != "downloading" {
		t.Errorf("status = %q", ev.Status)
	}
	if ev.Downloaded != 1048576 || ev.Total != 10485760 {
		t.Errorf("bytes = %d/%d", ev.Downloaded, ev.Total)
	}
	if ev.Speed != 524288.5 {
		t.Errorf("speed = %f", ev.Speed)
	}
	if ev.ETA != 18*time.Second {
		t.Errorf("eta = %v", ev.ETA)
	}
	if ev.Filename != "/tmp/u1/video.f137.mp4" {
		t.Errorf("filename = %q", ev.Filename)
	}
}

func TestParseProgressLineFallsBackToEstimate(t *testing.T) {
	line := "TFPROG|downloading|100|NA|2048|NA|NA|f.webm"

	ev, ok := extractor.ParseProgressLine(line)
	if !ok {
		t.Fatal("expected line to parse")
	}
	if ev.Total != 2048 {
		t.Errorf("expected estimate fallback, total = %d", ev.Total)
	}
	if ev.Speed != 0 || ev.ETA != 0 {
		t.Errorf("NA fields must zero out, got speed=%f eta=%v", ev.Speed, ev.ETA)
	}
}

func TestParseProgressLineRejectsOtherOutput(t *testing.T) {
	for _, line := range []string{
		"[download] Destination: /tmp/file.mp4",
		"TFPROG|short",
		"",
	} {
		if _, ok := extractor.ParseProgressLine(line); ok {
			t.Errorf("line %q must not parse as progress", line)
		}
	}
}
