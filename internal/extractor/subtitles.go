package extractor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"telefetch/internal/domain/consts"
	"telefetch/internal/domain/ytcmd"
	"telefetch/internal/utils/logging"
)

// ErrNoSubtitles is returned when the tool reports success but produced
// no subtitle file for the requested language.
var ErrNoSubtitles = errors.New("no subtitle file produced")

// FetchSubtitles downloads the subtitle track for lang, converted to
// SRT, and returns its local path.
func (c *Client) FetchSubtitles(ctx context.Context, url, lang, outputStem string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, consts.SubtitleTimeout)
	defer cancel()

	args := []string{
		ytcmd.RestrictFilenames,
		ytcmd.NoPlaylist,
		ytcmd.SkipVideo,
		ytcmd.WriteSubs,
		ytcmd.SubLangs, lang,
		ytcmd.ConvertSubs, consts.ExtSRT,
		ytcmd.Output, outputStem + ".%(ext)s",
	}
	args = append(args, c.cookieArgs()...)
	args = append(args, url)

	cmd := newCommand(ctx, c.Bin, args...)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	logging.D(1, "Running subtitle command for URL %q (%s)", url, lang)

	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("subtitle fetch failed for %s (%s): %w: %s",
			url, lang, err, lastLine(stderr.String()))
	}

	// The tool names the file <stem>.<lang>.srt; glob to be safe about
	// language-tag variants (e.g. en vs en-US).
	matches, err := filepath.Glob(outputStem + "*." + consts.ExtSRT)
	if err != nil || len(matches) == 0 {
		return "", ErrNoSubtitles
	}

	return matches[0], nil
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
