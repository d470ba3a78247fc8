package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/mattn/go-runewidth"
)

// truncateRunesHelper truncates a string to max visual width (cells), adding suffix if needed.
// Uses go-runewidth to handle wide characters correctly.
func truncateRunesHelper(s string, maxWidth int, suffix string) string {
	if maxWidth <= 0 {
		return ""
	}

	width := runewidth.StringWidth(s)
	if width <= maxWidth {
		return s
	}

	suffixWidth := runewidth.StringWidth(suffix)
	if suffixWidth > maxWidth {
		return runewidth.Truncate(suffix, maxWidth, "")
	}

	return runewidth.Truncate(s, maxWidth-suffixWidth, "") + suffix
}

// truncate truncates string s to maxWidth cells
func truncate(s string, maxWidth int) string {
	return truncateRunesHelper(s, maxWidth, "…")
}

// padRight pads s with spaces on the right to width cells
func padRight(s string, width int) string {
	return runewidth.FillRight(s, width)
}

// twoColumn lays out left and right text on one line of the given width,
// truncating left first.
func twoColumn(left, right string, width int) string {
	rw := runewidth.StringWidth(right)
	if rw >= width {
		return truncate(right, width)
	}
	return padRight(truncate(left, width-rw-1), width-rw) + right
}

// clockTime formats a departure time relative to now: "now", "5 min", or
// the wall clock time for anything further out.
func clockTime(t, now time.Time) string {
	if t.IsZero() {
		return ""
	}
	d := t.Sub(now)
	switch {
	case d < time.Minute:
		return "now"
	case d < 15*time.Minute:
		return fmt.Sprintf("%d min", int(d.Minutes()))
	default:
		return t.Local().Format("15:04")
	}
}

// fitLines pads or cuts lines to exactly n entries.
func fitLines(lines []string, n int) []string {
	if n <= 0 {
		return nil
	}
	if len(lines) >= n {
		return lines[:n]
	}
	return append(lines, make([]string, n-len(lines))...)
}

func joinLines(lines []string) string {
	return strings.Join(lines, "\n")
}
