// Package formats turns raw extractor format lists into deduplicated,
// selectable options.
package formats

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"

	"telefetch/internal/domain/consts"
	"telefetch/internal/models"
	"telefetch/internal/utils/logging"
)

// ErrNoFormats is returned when no entry survives filtering.
var ErrNoFormats = errors.New("no usable formats found")

// Resolve builds the selectable option lists for one media source:
// video options ascending by resolution, audio options descending by
// bitrate, adaptive video paired with the best audio-only candidate.
func Resolve(raw []models.RawFormat) (video, audio []models.FormatOption, err error) {
	bestAudio, hasBestAudio := pickBestAudio(raw)

	video = resolveVideo(raw, bestAudio, hasBestAudio)
	audio = resolveAudio(raw)

	if len(video) == 0 && len(audio) == 0 {
		return nil, nil, ErrNoFormats
	}

	logging.D(1, "Resolved %d video and %d audio options from %d raw entries",
		len(video), len(audio), len(raw))
	return video, audio, nil
}

// resolveVideo keeps one representative per resolution label. Higher
// compatibility score wins; size breaks remaining ties.
func resolveVideo(raw []models.RawFormat, bestAudio models.RawFormat, hasBestAudio bool) []models.FormatOption {
	byRes := make(map[int]models.RawFormat)

	for _, f := range raw {
		if !f.HasVideo() || f.Height <= 0 || f.Size() <= 0 {
			continue
		}

		cur, ok := byRes[f.Height]
		if !ok || prefer(f, cur) {
			byRes[f.Height] = f
		}
	}

	opts := make([]models.FormatOption, 0, len(byRes))
	for height, f := range byRes {
		opt := models.FormatOption{
			Kind:       models.KindVideo,
			FormatID:   f.ID,
			Ext:        f.Ext,
			Resolution: strconv.Itoa(height) + "p",
			TotalSize:  f.Size(),
			Compat:     compatScore(f),
		}

		if f.HasAudio() {
			opt.StreamType = models.StreamProgressive
		} else {
			opt.StreamType = models.StreamAdaptive
			if hasBestAudio {
				opt.FormatID = f.ID + "+" + bestAudio.ID
				opt.TotalSize += bestAudio.Size()
			}
		}

		opts = append(opts, opt)
	}

	sort.Slice(opts, func(i, j int) bool {
		return resHeight(opts[i]) < resHeight(opts[j])
	})
	return opts
}

// resolveAudio keeps the largest-size representative per bitrate,
// ordered descending.
func resolveAudio(raw []models.RawFormat) []models.FormatOption {
	byRate := make(map[int]models.RawFormat)

	for _, f := range raw {
		if f.HasVideo() || !f.HasAudio() || f.Size() <= 0 {
			continue
		}

		rate := int(math.Round(f.ABR))
		if rate <= 0 {
			continue
		}

		cur, ok := byRate[rate]
		if !ok || prefer(f, cur) {
			byRate[rate] = f
		}
	}

	opts := make([]models.FormatOption, 0, len(byRate))
	for rate, f := range byRate {
		opts = append(opts, models.FormatOption{
			Kind:       models.KindAudio,
			StreamType: models.StreamProgressive,
			FormatID:   f.ID,
			Ext:        f.Ext,
			Bitrate:    rate,
			TotalSize:  f.Size(),
			Compat:     compatScore(f),
		})
	}

	sort.Slice(opts, func(i, j int) bool {
		return opts[i].Bitrate > opts[j].Bitrate
	})
	return opts
}

// pickBestAudio selects the audio-only stream paired with video-only
// encodings: best compatibility first, then highest bitrate, then size.
func pickBestAudio(raw []models.RawFormat) (models.RawFormat, bool) {
	var best models.RawFormat
	found := false

	for _, f := range raw {
		if f.HasVideo() || !f.HasAudio() || f.Size() <= 0 {
			continue
		}
		if !found {
			best, found = f, true
			continue
		}

		switch {
		case compatScore(f) != compatScore(best):
			if compatScore(f) > compatScore(best) {
				best = f
			}
		case f.ABR != best.ABR:
			if f.ABR > best.ABR {
				best = f
			}
		case f.Size() > best.Size():
			best = f
		}
	}
	return best, found
}

// prefer reports whether a should replace b as a group representative.
func prefer(a, b models.RawFormat) bool {
	if compatScore(a) != compatScore(b) {
		return compatScore(a) > compatScore(b)
	}
	return a.Size() > b.Size()
}

// compatScore ranks container/codec combinations by how widely players
// handle them without re-encoding.
func compatScore(f models.RawFormat) int {
	score := 0

	switch f.Ext {
	case consts.ExtMP4, consts.ExtM4A:
		score += 2
	case consts.ExtMP3:
		score += 2
	case consts.ExtWebM:
		score += 1
	}

	switch {
	case hasCodecPrefix(f.VCodec, consts.VCodecH264):
		score += 2
	case hasCodecPrefix(f.VCodec, consts.VCodecVP9):
		score += 1
	case hasCodecPrefix(f.VCodec, consts.VCodecAV1),
		hasCodecPrefix(f.VCodec, consts.VCodecHEVC):
		// Spotty hardware decode support; only wins when nothing else
		// exists at the resolution.
	}

	switch {
	case hasCodecPrefix(f.ACodec, consts.ACodecAAC), hasCodecPrefix(f.ACodec, consts.ACodecMP3):
		score += 2
	case hasCodecPrefix(f.ACodec, consts.ACodecOpus):
		score += 1
	}

	return score
}

func hasCodecPrefix(codec, prefix string) bool {
	return codec != "" && codec != "none" &&
		len(codec) >= len(prefix) && codec[:len(prefix)] == prefix
}

func resHeight(o models.FormatOption) int {
	n, err := strconv.Atoi(o.Resolution[:len(o.Resolution)-1])
	if err != nil {
		logging.E("Bad resolution label %q: %v", o.Resolution, err)
		return 0
	}
	return n
}

// Describe renders one option as a button label.
func Describe(o models.FormatOption) string {
	if o.Kind == models.KindAudio {
		return fmt.Sprintf("%dkbps (~%s)", o.Bitrate, sizeLabel(o.TotalSize))
	}
	return fmt.Sprintf("%s (~%s)", o.Resolution, sizeLabel(o.TotalSize))
}

func sizeLabel(n int64) string {
	const mb = 1024 * 1024
	if n >= 1024*mb {
		return fmt.Sprintf("%.2fGB", float64(n)/float64(1024*mb))
	}
	return fmt.Sprintf("%.1fMB", float64(n)/float64(mb))
}
