package progress

import (
	"fmt"
	"strings"
	"time"
)

const barWidth = 10

// Render builds the status text for one progress report. With an
// unknown total only bytes and speed are shown, no bar or percentage.
func Render(header string, current, total int64, pct float64, speed float64, eta time.Duration) string {
	var b strings.Builder

	if header != "" {
		b.WriteString(header)
		b.WriteString("\n")
	}

	if total > 0 {
		b.WriteString(Bar(pct))
		fmt.Fprintf(&b, " %.1f%%\n", pct)
		fmt.Fprintf(&b, "%s of %s", HumanBytes(current), HumanBytes(total))
	} else {
		b.WriteString(HumanBytes(current))
	}

	if speed > 0 {
		fmt.Fprintf(&b, " at %s", HumanSpeed(speed))
	}
	if total > 0 && eta > 0 {
		fmt.Fprintf(&b, "\nETA: %s", HumanETA(eta))
	}

	return b.String()
}

// Bar renders a fixed-width bar proportional to pct.
func Bar(pct float64) string {
	filled := int(pct / 100 * barWidth)
	if filled > barWidth {
		filled = barWidth
	}
	if filled < 0 {
		filled = 0
	}

	var b strings.Builder
	b.Grow(barWidth*3 + 2)
	b.WriteByte('[')
	for i := 0; i < barWidth; i++ {
		if i < filled {
			b.WriteRune('█')
		} else {
			b.WriteRune('░')
		}
	}
	b.WriteByte(']')
	return b.String()
}

// HumanBytes renders a byte count with a B/KB/MB/GB unit.
func HumanBytes(n int64) string {
	const (
		kb = 1024
		mb = kb * 1024
		gb = mb * 1024
	)

	switch {
	case n >= gb:
		return fmt.Sprintf("%.2fGB", float64(n)/float64(gb))
	case n >= mb:
		return fmt.Sprintf("%.1fMB", float64(n)/float64(mb))
	case n >= kb:
		return fmt.Sprintf("%.1fKB", float64(n)/float64(kb))
	}
	return fmt.Sprintf("%dB", n)
}

// HumanSpeed renders a bytes-per-second rate.
func HumanSpeed(bps float64) string {
	return HumanBytes(int64(bps)) + "/s"
}

// HumanETA renders a duration as "Xh Ym Zs", omitting zero leading
// units.
func HumanETA(d time.Duration) string {
	if d < 0 {
		d = 0
	}

	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60

	switch {
	case h > 0:
		return fmt.Sprintf("%dh %dm %ds", h, m, s)
	case m > 0:
		return fmt.Sprintf("%dm %ds", m, s)
	}
	return fmt.Sprintf("%ds", s)
}
