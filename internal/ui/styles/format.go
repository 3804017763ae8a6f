package styles

import (
	"fmt"

	"github.com/mattn/go-runewidth"
)

// Truncate shortens s to fit maxWidth display cells, appending an
// ellipsis when something was cut.
func Truncate(s string, maxWidth int) string {
	if maxWidth < 1 {
		return ""
	}
	return runewidth.Truncate(s, maxWidth, "…")
}

// FormatAheadBehind renders the divergence from upstream, e.g. "↑2 ↓1".
// Returns empty string when the branch is in sync or has no upstream.
func FormatAheadBehind(ahead, behind int) string {
	switch {
	case ahead > 0 && behind > 0:
		return fmt.Sprintf("↑%d ↓%d", ahead, behind)
	case ahead > 0:
		return fmt.Sprintf("↑%d", ahead)
	case behind > 0:
		return fmt.Sprintf("↓%d", behind)
	default:
		return ""
	}
}

// FormatShortHash pads or trims a commit id to the conventional 7 chars.
func FormatShortHash(hash string) string {
	if len(hash) > 7 {
		return hash[:7]
	}
	return hash
}
