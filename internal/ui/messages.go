package ui

import (
	"github.com/zjrosen/githydra/internal/engine"
	domain "github.com/zjrosen/githydra/internal/git/domain"
)

// engineEventMsg delivers one engine event to the update loop.
type engineEventMsg struct {
	event engine.Event
}

// eventsClosedMsg signals the engine's event stream ended.
type eventsClosedMsg struct{}

// diffLoadedMsg carries a rendered diff for the pane, tagged with the key
// it was requested for so a stale load can be ignored.
type diffLoadedMsg struct {
	key   engine.DiffKey
	hunks []domain.DiffHunk
	err   error
}
