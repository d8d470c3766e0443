// Package extractor drives the external yt-dlp tool: metadata
// enumeration, stream downloads with progress callbacks, and subtitle
// fetches. The tool is a black box; its failures surface as opaque
// error strings classified upstream.
package extractor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"telefetch/internal/domain/consts"
	"telefetch/internal/domain/ytcmd"
	"telefetch/internal/models"
	"telefetch/internal/utils/logging"
)

// Client invokes yt-dlp per call. CookieBrowser hands cookie reading to
// the tool itself; CookieFile points at a pre-exported Netscape file.
// Zero values mean no cookie handling.
type Client struct {
	Bin           string
	CookieFile    string
	CookieBrowser string
}

// New returns a client for the given yt-dlp binary path.
func New(bin string) *Client {
	if bin == "" {
		bin = ytcmd.YTDLP
	}
	return &Client{Bin: bin}
}

// Metadata is the resolved description of one media URL.
type Metadata struct {
	Title      string
	Duration   time.Duration
	UploadDate string
	Formats    []models.RawFormat
	Subtitles  []string
}

// metadataJSON mirrors the yt-dlp -J fields we consume.
type metadataJSON struct {
	Title      string  `json:"title"`
	Duration   float64 `json:"duration"`
	UploadDate string  `json:"upload_date"`
	Formats    []struct {
		FormatID       string  `json:"format_id"`
		Ext            string  `json:"ext"`
		VCodec         string  `json:"vcodec"`
		ACodec         string  `json:"acodec"`
		Height         int     `json:"height"`
		ABR            float64 `json:"abr"`
		Filesize       int64   `json:"filesize"`
		FilesizeApprox int64   `json:"filesize_approx"`
	} `json:"formats"`
	Subtitles map[string]json.RawMessage `json:"subtitles"`
}

// Resolve enumerates the encodings available at url. Never partially
// succeeds: a full metadata set or an error.
func (c *Client) Resolve(ctx context.Context, url string) (*Metadata, error) {
	ctx, cancel := context.WithTimeout(ctx, consts.ResolveTimeout)
	defer cancel()

	args := []string{ytcmd.DumpJSON, ytcmd.NoPlaylist}
	args = append(args, c.cookieArgs()...)
	args = append(args, url)

	cmd := newCommand(ctx, c.Bin, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	logging.D(1, "Running metadata command for URL %q: %v", url, cmd.String())

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("extractor failed for %s: %w: %s",
			url, err, lastLine(stderr.String()))
	}

	var meta metadataJSON
	if err := json.Unmarshal(stdout.Bytes(), &meta); err != nil {
		return nil, fmt.Errorf("bad extractor metadata for %s: %w", url, err)
	}

	out := &Metadata{
		Title:      meta.Title,
		Duration:   time.Duration(meta.Duration * float64(time.Second)),
		UploadDate: meta.UploadDate,
	}

	out.Formats = make([]models.RawFormat, 0, len(meta.Formats))
	for _, f := range meta.Formats {
		out.Formats = append(out.Formats, models.RawFormat{
			ID:             f.FormatID,
			Ext:            f.Ext,
			VCodec:         f.VCodec,
			ACodec:         f.ACodec,
			Height:         f.Height,
			ABR:            f.ABR,
			Filesize:       f.Filesize,
			FilesizeApprox: f.FilesizeApprox,
		})
	}

	for lang := range meta.Subtitles {
		out.Subtitles = append(out.Subtitles, lang)
	}
	sort.Strings(out.Subtitles)

	return out, nil
}

// cookieArgs returns the cookie flags for a command invocation. A named
// browser takes precedence over an exported file.
func (c *Client) cookieArgs() []string {
	switch {
	case c.CookieBrowser != "":
		return []string{ytcmd.CookiesFromBrowser, c.CookieBrowser}
	case c.CookieFile != "":
		return []string{ytcmd.CookiePath, c.CookieFile}
	}
	return nil
}

// lastLine returns the final non-empty line of s, the usual home of
// yt-dlp's actual error message.
func lastLine(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if l := strings.TrimSpace(lines[i]); l != "" {
			return l
		}
	}
	return ""
}
