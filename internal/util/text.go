package util

import (
	"strings"
	"unicode/utf8"

	"github.com/mattn/go-runewidth"
)

// SanitizeFilename makes a string safe for use as a filename.
func SanitizeFilename(name string) string {
	replacer := strings.NewReplacer(
		"/", "-",
		"\\", "-",
		":", "-",
		"*", "-",
		"?", "-",
		"\"", "-",
		"<", "-",
		">", "-",
		"|", "-",
		"%", "_",
		" ", "_",
		".", "_", // no dotfiles or traversal
	)
	safe := replacer.Replace(strings.TrimSpace(name))

	if len(safe) > 50 {
		for i := 50; i >= 0; i-- {
			if utf8.RuneStart(safe[i]) {
				return safe[:i]
			}
		}
		return safe[:50]
	}
	return safe
}

// FitCells truncates s to at most n terminal cells, marking the cut with an
// ellipsis, and pads shorter strings with spaces to exactly n cells.
func FitCells(s string, n int) string {
	if n <= 0 {
		return ""
	}
	if runewidth.StringWidth(s) > n {
		s = runewidth.Truncate(s, n, "…")
	}
	return runewidth.FillRight(s, n)
}
