package engine

import (
	"context"
	"fmt"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/sergi/go-diff/diffmatchpatch"

	application "github.com/zjrosen/githydra/internal/git/application"
	domain "github.com/zjrosen/githydra/internal/git/domain"
	"github.com/zjrosen/githydra/internal/log"
)

// DiffKey identifies one cached rendered diff. The fingerprint ties the
// entry to the content it was rendered from, so a stale entry can never be
// returned for changed content.
type DiffKey struct {
	Path        string
	Staged      bool
	Fingerprint string
}

// DiffCache memoizes rendered diff hunks with bounded LRU eviction.
// Lookups are pure given the key; a miss renders through the gateway and
// stores the result before returning it.
type DiffCache struct {
	gateway application.Gateway
	entries *lru.Cache[DiffKey, []domain.DiffHunk]
}

// NewDiffCache creates a cache holding at most size rendered diffs.
func NewDiffCache(gateway application.Gateway, size int) (*DiffCache, error) {
	if gateway == nil {
		panic("gateway is required for DiffCache")
	}
	entries, err := lru.New[DiffKey, []domain.DiffHunk](size)
	if err != nil {
		return nil, fmt.Errorf("creating diff cache: %w", err)
	}
	return &DiffCache{gateway: gateway, entries: entries}, nil
}

// Hunks returns the rendered diff for key, rendering and caching it on a
// miss.
func (c *DiffCache) Hunks(ctx context.Context, key DiffKey) ([]domain.DiffHunk, error) {
	if hunks, ok := c.entries.Get(key); ok {
		return hunks, nil
	}

	raw, err := c.gateway.Diff(ctx, key.Path, key.Staged)
	if err != nil {
		return nil, err
	}

	hunks := ParseUnifiedDiff(raw)
	highlightIntraline(hunks)
	c.entries.Add(key, hunks)

	log.Debug(log.CatCache, "diff rendered", "path", key.Path, "staged", key.Staged, "hunks", len(hunks))
	return hunks, nil
}

// InvalidatePath drops every cached diff for path, staged and unstaged.
func (c *DiffCache) InvalidatePath(path string) {
	for _, key := range c.entries.Keys() {
		if key.Path == path {
			c.entries.Remove(key)
		}
	}
}

// InvalidateAll drops the whole cache.
func (c *DiffCache) InvalidateAll() {
	c.entries.Purge()
}

// Len returns the number of cached diffs.
func (c *DiffCache) Len() int {
	return c.entries.Len()
}

// ParseUnifiedDiff splits raw unified diff output into hunks. Everything
// before the first @@ header (the diff/index/--- /+++ preamble) is
// dropped; the views only show hunks.
func ParseUnifiedDiff(raw string) []domain.DiffHunk {
	var hunks []domain.DiffHunk
	var current *domain.DiffHunk

	for _, line := range strings.Split(raw, "\n") {
		if strings.HasPrefix(line, "@@") {
			if current != nil {
				hunks = append(hunks, *current)
			}
			current = &domain.DiffHunk{Header: line}
			continue
		}
		if current == nil {
			continue
		}

		switch {
		case strings.HasPrefix(line, "+"):
			current.Lines = append(current.Lines, domain.DiffLine{Tag: domain.LineAdded, Text: line[1:]})
		case strings.HasPrefix(line, "-"):
			current.Lines = append(current.Lines, domain.DiffLine{Tag: domain.LineRemoved, Text: line[1:]})
		case strings.HasPrefix(line, " "):
			current.Lines = append(current.Lines, domain.DiffLine{Tag: domain.LineContext, Text: line[1:]})
		case strings.HasPrefix(line, `\`):
			// "\ No newline at end of file" renders as context.
			current.Lines = append(current.Lines, domain.DiffLine{Tag: domain.LineContext, Text: line})
		}
	}
	if current != nil {
		hunks = append(hunks, *current)
	}
	return hunks
}

// highlightIntraline marks the changed character ranges on paired
// removed/added lines. A run of N removed lines directly followed by N
// added lines is treated as N line edits; anything unbalanced is left
// unmarked.
func highlightIntraline(hunks []domain.DiffHunk) {
	for h := range hunks {
		lines := hunks[h].Lines
		i := 0
		for i < len(lines) {
			if lines[i].Tag != domain.LineRemoved {
				i++
				continue
			}

			removedStart := i
			for i < len(lines) && lines[i].Tag == domain.LineRemoved {
				i++
			}
			addedStart := i
			for i < len(lines) && lines[i].Tag == domain.LineAdded {
				i++
			}

			removed := addedStart - removedStart
			added := i - addedStart
			if removed != added {
				continue
			}
			for j := 0; j < removed; j++ {
				r := &lines[removedStart+j]
				a := &lines[addedStart+j]
				r.Segments, a.Segments = intralineSegments(r.Text, a.Text)
			}
		}
	}
}

// intralineSegments computes the changed byte ranges between an old and a
// new version of one line.
func intralineSegments(oldText, newText string) (removed, added []domain.Segment) {
	dmp := diffmatchpatch.New()
	diffs := dmp.DiffCleanupSemantic(dmp.DiffMain(oldText, newText, false))

	oldPos, newPos := 0, 0
	for _, d := range diffs {
		n := len(d.Text)
		switch d.Type {
		case diffmatchpatch.DiffEqual:
			oldPos += n
			newPos += n
		case diffmatchpatch.DiffDelete:
			removed = append(removed, domain.Segment{Start: oldPos, End: oldPos + n})
			oldPos += n
		case diffmatchpatch.DiffInsert:
			added = append(added, domain.Segment{Start: newPos, End: newPos + n})
			newPos += n
		}
	}
	return removed, added
}
