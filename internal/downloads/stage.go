package downloads

import (
	"telefetch/internal/models"
)

// mergingPct is the fixed percentage reported while the muxer runs;
// progress jumps to 100 once the merged file is confirmed on disk.
const mergingPct = 95

// stageState folds raw extractor events into the staged progress model
// for adaptive downloads (video, then audio, then merge). Progressive
// and audio-only downloads pass counters through unchanged.
//
// Stage detection keys off the reported filename changing away from the
// first-seen stream while bytes are already counted. The tracker clamps
// output percentage monotonic regardless, so a detection misfire can
// never walk the bar backwards.
type stageState struct {
	adaptive      bool
	stage         models.Stage
	expectedTotal int64

	firstFile   string
	lockedBytes int64 // first stream's counter, frozen at transition
	lockedTotal int64

	curBytes int64
	curTotal int64

	finishedStreams int
}

func newStageState(opt models.FormatOption) *stageState {
	return &stageState{
		adaptive:      opt.StreamType == models.StreamAdaptive && opt.Kind == models.KindVideo,
		stage:         models.StageVideo,
		expectedTotal: opt.TotalSize,
	}
}

// apply folds one event and returns the effective overall counters.
// Effective bytes are monotonically non-decreasing across the stage
// transition: the first stream's bytes lock at their last known total
// instead of resetting.
func (s *stageState) apply(ev models.ProgressEvent) (current, total int64) {
	if !s.adaptive {
		s.curBytes = ev.Downloaded
		s.curTotal = ev.Total
		return s.curBytes, s.totalOrEstimate(s.curTotal)
	}

	if s.firstFile == "" && ev.Filename != "" {
		s.firstFile = ev.Filename
	}

	if s.stage == models.StageVideo && s.curBytes > 0 &&
		ev.Filename != "" && ev.Filename != s.firstFile {
		// Second stream appeared; freeze the first one's contribution.
		s.lockedBytes = s.curTotal
		if s.lockedBytes < s.curBytes {
			s.lockedBytes = s.curBytes
		}
		s.lockedTotal = s.lockedBytes
		s.stage = models.StageAudio
		s.curBytes = 0
		s.curTotal = 0
	}

	s.curBytes = ev.Downloaded
	if ev.Total > 0 {
		s.curTotal = ev.Total
	}

	if ev.Status == models.StatusFinished {
		s.finishedStreams++
		if s.finishedStreams >= 2 {
			s.stage = models.StageMerging
		}
	}

	total = s.totalOrEstimate(s.lockedTotal + s.curTotal)

	if s.stage == models.StageMerging {
		return total * mergingPct / 100, total
	}
	return s.lockedBytes + s.curBytes, total
}

// Stage returns the current phase for status headers.
func (s *stageState) Stage() models.Stage {
	if !s.adaptive {
		return models.StageVideo
	}
	return s.stage
}

func (s *stageState) totalOrEstimate(known int64) int64 {
	if known > 0 {
		return known
	}
	return s.expectedTotal
}
