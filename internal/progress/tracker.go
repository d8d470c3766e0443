// Package progress throttles download and upload status edits so the
// reply channel is never hammered faster than the platform allows.
package progress

import (
	"context"
	"errors"
	"sync"
	"time"

	"telefetch/internal/domain/consts"
	"telefetch/internal/models"
	"telefetch/internal/utils/logging"
)

// Editor edits the status message a tracker reports through. A rate
// limit surfaces as *models.RateLimitedError.
type Editor interface {
	EditStatus(ctx context.Context, chatID int64, messageID int, text string) error
}

// Tracker converts raw byte counters into human-readable status edits,
// gated so updates stay well under platform rate limits. One tracker
// serves exactly one status message; download and upload phases use
// separate instances so their throttle state never bleeds together.
type Tracker struct {
	editor    Editor
	chatID    int64
	messageID int

	minInterval time.Duration
	byteDelta   int64

	mu                   sync.Mutex
	started              bool
	lastTime             time.Time
	lastBytes            int64
	lastPct              float64
	maxPct               float64
	cooldownUntil        time.Time
	consecutiveCooldowns int

	now func() time.Time
}

// New returns a tracker bound to one status message.
func New(editor Editor, chatID int64, messageID int, minInterval time.Duration, byteDelta int64) *Tracker {
	return &Tracker{
		editor:      editor,
		chatID:      chatID,
		messageID:   messageID,
		minInterval: minInterval,
		byteDelta:   byteDelta,
		now:         time.Now,
	}
}

// Report emits at most one status edit for the given counters and
// returns whether it actually emitted. Reports inside a platform
// cooldown window are dropped without blocking the caller.
func (t *Tracker) Report(ctx context.Context, header string, current, total int64, speed float64, eta time.Duration, force bool) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()

	if now.Before(t.cooldownUntil) {
		return false
	}

	pct := percent(current, total)
	if pct < t.maxPct {
		// Never let the bar regress, whatever the stage model reported.
		pct = t.maxPct
	}

	if !t.shouldEmit(now, current, total, pct, force) {
		return false
	}

	text := Render(header, current, total, pct, speed, eta)

	if err := t.editor.EditStatus(ctx, t.chatID, t.messageID, text); err != nil {
		var rl *models.RateLimitedError
		if errors.As(err, &rl) {
			t.enterCooldown(now, rl.RetryAfter)
			return false
		}

		logging.D(1, "Status edit failed for message %d: %v", t.messageID, err)
		return false
	}

	t.started = true
	t.lastTime = now
	t.lastBytes = current
	t.lastPct = pct
	t.maxPct = pct
	t.consecutiveCooldowns = 0
	return true
}

// Announce edits the status message with arbitrary text, bypassing the
// counter gates but still honoring a platform cooldown window.
func (t *Tracker) Announce(ctx context.Context, text string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	if now.Before(t.cooldownUntil) {
		return false
	}

	if err := t.editor.EditStatus(ctx, t.chatID, t.messageID, text); err != nil {
		var rl *models.RateLimitedError
		if errors.As(err, &rl) {
			t.enterCooldown(now, rl.RetryAfter)
		}
		return false
	}

	t.lastTime = now
	t.consecutiveCooldowns = 0
	return true
}

// shouldEmit applies the update gating rules.
func (t *Tracker) shouldEmit(now time.Time, current, total int64, pct float64, force bool) bool {
	switch {
	case force:
		return true
	case !t.started && current > 0:
		return true
	case total > 0 && current == total:
		return true
	case t.started && now.Sub(t.lastTime) >= t.minInterval:
		return true
	case t.started && pct-t.lastPct >= 1.0:
		return true
	case t.started && current-t.lastBytes >= t.byteDelta:
		return true
	}
	return false
}

// enterCooldown records a platform quiet period plus an exponential
// penalty that grows with consecutive cooldowns.
func (t *Tracker) enterCooldown(now time.Time, wait time.Duration) {
	backoff := consts.CooldownBackoffBase << t.consecutiveCooldowns
	if backoff > consts.CooldownBackoffCap {
		backoff = consts.CooldownBackoffCap
	}
	t.consecutiveCooldowns++

	until := now.Add(wait + backoff)
	if until.After(t.cooldownUntil) {
		t.cooldownUntil = until
	}

	logging.D(1, "Rate limited on message %d, quiet until %v (cooldown #%d)",
		t.messageID, t.cooldownUntil, t.consecutiveCooldowns)
}

func percent(current, total int64) float64 {
	if total <= 0 {
		return 0
	}
	return float64(current) / float64(total) * 100
}
