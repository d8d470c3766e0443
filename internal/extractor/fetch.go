package extractor

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"telefetch/internal/domain/consts"
	"telefetch/internal/domain/ytcmd"
	"telefetch/internal/models"
	"telefetch/internal/utils/logging"
)

// FetchRequest describes one stream acquisition.
type FetchRequest struct {
	URL      string
	FormatID string

	// OutputStem is the full path prefix; the tool appends the container
	// extension.
	OutputStem string

	// Remux names a target container for stream-copy remuxing (video).
	Remux string

	// ExtractAudio converts the download to AudioFormat (audio-only
	// fetches from sources whose native container plays poorly).
	ExtractAudio bool
	AudioFormat  string
}

// ProgressFunc receives raw extractor progress events. It runs on the
// output-scanner goroutine, not the caller's; returning an error aborts
// the download immediately.
type ProgressFunc func(models.ProgressEvent) error

// errCallbackAbort marks a download killed by its own progress callback.
var errCallbackAbort = errors.New("aborted by progress callback")

func newCommand(ctx context.Context, bin string, args ...string) *exec.Cmd {
	return exec.CommandContext(ctx, bin, args...)
}

// Fetch downloads one stream (or adaptive pair) and returns the final
// local path. The progress callback fires once per tool-reported event.
func (c *Client) Fetch(ctx context.Context, req FetchRequest, progress ProgressFunc) (string, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	args := c.buildFetchArgs(req)
	cmd := newCommand(ctx, c.Bin, args...)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return "", fmt.Errorf("stdout pipe error: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return "", fmt.Errorf("stderr pipe error: %w", err)
	}

	scan := &fetchScanner{
		progress: progress,
		abort:    cancel,
	}
	done := make(chan struct{})
	go func() {
		defer close(done)
		scan.run(io.MultiReader(stdout, stderr))
	}()

	logging.D(1, "Executing download command: %v", cmd.String())

	if err := cmd.Start(); err != nil {
		return "", fmt.Errorf("command start error: %w", err)
	}

	waitErr := cmd.Wait()
	<-done

	if scan.cbErr != nil {
		return "", fmt.Errorf("%w: %w", errCallbackAbort, scan.cbErr)
	}
	if waitErr != nil {
		if ctx.Err() != nil {
			return "", fmt.Errorf("download interrupted for %s: %w", req.URL, ctx.Err())
		}
		return "", fmt.Errorf("extractor failed for %s: %w: %s",
			req.URL, waitErr, scan.lastError)
	}

	path := scan.finalPath
	if path == "" {
		return "", fmt.Errorf("no output filename captured for %s", req.URL)
	}

	if err := waitForFile(path, consts.FileWaitTimeout); err != nil {
		return "", err
	}

	logging.S("Download finished: %s", path)
	return path, nil
}

func (c *Client) buildFetchArgs(req FetchRequest) []string {
	args := make([]string, 0, 24)

	args = append(args,
		ytcmd.RestrictFilenames,
		ytcmd.NoPlaylist,
		ytcmd.Format, req.FormatID,
		ytcmd.Output, req.OutputStem+".%(ext)s",
		ytcmd.Newline,
		ytcmd.ProgressTemplate, ytcmd.ProgressLine,
		ytcmd.Print, ytcmd.AfterMove)

	if req.Remux != "" {
		args = append(args, ytcmd.RemuxVideo, req.Remux,
			ytcmd.MergeOutputFormat, req.Remux)
	}

	if req.ExtractAudio {
		args = append(args, ytcmd.ExtractAudio)
		if req.AudioFormat != "" {
			args = append(args, ytcmd.AudioFormat, req.AudioFormat)
		}
	}

	args = append(args, c.cookieArgs()...)

	return append(args, req.URL)
}

// fetchScanner consumes the tool's combined output: progress lines feed
// the callback, the after-move print line yields the final path, and
// everything else is retained as error context.
type fetchScanner struct {
	progress ProgressFunc
	abort    context.CancelFunc

	cbErr     error
	finalPath string
	lastError string
}

func (s *fetchScanner) run(r io.Reader) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := scanner.Text()

		if ev, ok := ParseProgressLine(line); ok {
			if s.cbErr == nil && s.progress != nil {
				if err := s.progress(ev); err != nil {
					s.cbErr = err
					s.abort()
				}
			}
			continue
		}

		if isOutputPath(line) {
			s.finalPath = line
			continue
		}

		if strings.Contains(line, "ERROR") {
			s.lastError = line
		}
	}

	if err := scanner.Err(); err != nil {
		logging.D(1, "Output scanner error: %v", err)
	}
}

// isOutputPath reports whether line is the printed final file path.
func isOutputPath(line string) bool {
	if !strings.HasPrefix(line, "/") {
		return false
	}
	ext := filepath.Ext(line)
	for _, valid := range consts.AllVidExtensions {
		if ext == valid {
			return true
		}
	}
	for _, valid := range consts.AllAudioExtensions {
		if ext == valid {
			return true
		}
	}
	return false
}

// ParseProgressLine decodes one progress-template line. Fields the tool
// reports as NA come through zeroed.
func ParseProgressLine(line string) (models.ProgressEvent, bool) {
	if !strings.HasPrefix(line, ytcmd.ProgressPrefix+"|") {
		return models.ProgressEvent{}, false
	}

	parts := strings.Split(line, "|")
	if len(parts) < 8 {
		return models.ProgressEvent{}, false
	}

	ev := models.ProgressEvent{
		Status:     parts[1],
		Downloaded: parseInt(parts[2]),
		Total:      parseInt(parts[3]),
		Speed:      parseFloat(parts[5]),
		ETA:        time.Duration(parseInt(parts[6])) * time.Second,
		Filename:   parts[7],
	}

	// Fall back to the estimate when the exact total is unknown.
	if ev.Total == 0 {
		ev.Total = parseInt(parts[4])
	}

	return ev, true
}

func parseInt(s string) int64 {
	s = strings.TrimSpace(s)
	if s == "" || s == "NA" || s == "None" {
		return 0
	}
	// The template renders some counters as floats.
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return int64(f)
}

func parseFloat(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" || s == "NA" || s == "None" {
		return 0
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return f
}

// waitForFile polls until the file exists on disk or the timeout fires.
func waitForFile(path string, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for {
		if exists(path) {
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("file %q did not appear within %v", path, timeout)
		}
		time.Sleep(consts.FileCheckInterval)
	}
}
