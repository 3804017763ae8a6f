package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "github.com/zjrosen/githydra/internal/git/domain"
)

const sampleDiff = `diff --git a/main.go b/main.go
index 83db48f..bf269f4 100644
--- a/main.go
+++ b/main.go
@@ -1,3 +1,3 @@
 package main
-func left() {}
+func lost() {}
@@ -10,2 +10,3 @@ func helper() {
 	x := 1
+	y := 2
\ No newline at end of file
`

func TestParseUnifiedDiff(t *testing.T) {
	hunks := ParseUnifiedDiff(sampleDiff)
	require.Len(t, hunks, 2)

	first := hunks[0]
	assert.Equal(t, "@@ -1,3 +1,3 @@", first.Header)
	require.Len(t, first.Lines, 3)
	assert.Equal(t, domain.LineContext, first.Lines[0].Tag)
	assert.Equal(t, "package main", first.Lines[0].Text)
	assert.Equal(t, domain.LineRemoved, first.Lines[1].Tag)
	assert.Equal(t, domain.LineAdded, first.Lines[2].Tag)

	second := hunks[1]
	assert.Equal(t, "@@ -10,2 +10,3 @@ func helper() {", second.Header)
	require.Len(t, second.Lines, 3)
	assert.Equal(t, domain.LineContext, second.Lines[2].Tag)
	assert.Equal(t, `\ No newline at end of file`, second.Lines[2].Text)
}

func TestParseUnifiedDiffEmptyInput(t *testing.T) {
	assert.Empty(t, ParseUnifiedDiff(""))
	assert.Empty(t, ParseUnifiedDiff("diff --git a/x b/x\nindex 1..2\n"))
}

func TestIntralineSegments(t *testing.T) {
	removed, added := intralineSegments("func left() {}", "func lost() {}")
	require.NotEmpty(t, removed)
	require.NotEmpty(t, added)
	for _, seg := range removed {
		assert.GreaterOrEqual(t, seg.Start, 0)
		assert.LessOrEqual(t, seg.End, len("func left() {}"))
		assert.Less(t, seg.Start, seg.End)
	}
	for _, seg := range added {
		assert.GreaterOrEqual(t, seg.Start, 0)
		assert.LessOrEqual(t, seg.End, len("func lost() {}"))
		assert.Less(t, seg.Start, seg.End)
	}
}

func TestHighlightIntralinePairsBalancedRuns(t *testing.T) {
	hunks := []domain.DiffHunk{{
		Header: "@@ -1,2 +1,2 @@",
		Lines: []domain.DiffLine{
			{Tag: domain.LineRemoved, Text: "alpha one"},
			{Tag: domain.LineRemoved, Text: "beta two"},
			{Tag: domain.LineAdded, Text: "alpha 1"},
			{Tag: domain.LineAdded, Text: "beta 2"},
		},
	}}
	highlightIntraline(hunks)

	for _, line := range hunks[0].Lines {
		assert.NotEmpty(t, line.Segments, "line %q", line.Text)
	}
}

func TestHighlightIntralineSkipsUnbalancedRuns(t *testing.T) {
	hunks := []domain.DiffHunk{{
		Header: "@@ -1,2 +1,1 @@",
		Lines: []domain.DiffLine{
			{Tag: domain.LineRemoved, Text: "alpha"},
			{Tag: domain.LineRemoved, Text: "beta"},
			{Tag: domain.LineAdded, Text: "gamma"},
		},
	}}
	highlightIntraline(hunks)

	for _, line := range hunks[0].Lines {
		assert.Empty(t, line.Segments, "line %q", line.Text)
	}
}

func TestDiffCacheServesRepeatLookupsWithoutBackend(t *testing.T) {
	gw := newFakeGateway()
	gw.diff = sampleDiff
	cache, err := NewDiffCache(gw, 8)
	require.NoError(t, err)

	key := DiffKey{Path: "main.go", Staged: false, Fingerprint: "abc"}
	first, err := cache.Hunks(context.Background(), key)
	require.NoError(t, err)
	second, err := cache.Hunks(context.Background(), key)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, gw.callCount("diff"), "second lookup must hit the cache")
	assert.Equal(t, 1, cache.Len())
}

func TestDiffCacheDistinguishesFingerprints(t *testing.T) {
	gw := newFakeGateway()
	gw.diff = sampleDiff
	cache, err := NewDiffCache(gw, 8)
	require.NoError(t, err)

	_, err = cache.Hunks(context.Background(), DiffKey{Path: "main.go", Fingerprint: "v1"})
	require.NoError(t, err)
	_, err = cache.Hunks(context.Background(), DiffKey{Path: "main.go", Fingerprint: "v2"})
	require.NoError(t, err)

	assert.Equal(t, 2, gw.callCount("diff"), "a changed fingerprint is a different entry")
}

func TestDiffCacheEvictsBeyondCapacity(t *testing.T) {
	gw := newFakeGateway()
	gw.diff = sampleDiff
	cache, err := NewDiffCache(gw, 2)
	require.NoError(t, err)

	for _, path := range []string{"a.go", "b.go", "c.go"} {
		_, err := cache.Hunks(context.Background(), DiffKey{Path: path, Fingerprint: "x"})
		require.NoError(t, err)
	}
	assert.Equal(t, 2, cache.Len())
}

func TestDiffCacheInvalidatePath(t *testing.T) {
	gw := newFakeGateway()
	gw.diff = sampleDiff
	cache, err := NewDiffCache(gw, 8)
	require.NoError(t, err)

	_, err = cache.Hunks(context.Background(), DiffKey{Path: "a.go", Staged: true, Fingerprint: "x"})
	require.NoError(t, err)
	_, err = cache.Hunks(context.Background(), DiffKey{Path: "a.go", Staged: false, Fingerprint: "y"})
	require.NoError(t, err)
	_, err = cache.Hunks(context.Background(), DiffKey{Path: "b.go", Fingerprint: "z"})
	require.NoError(t, err)

	cache.InvalidatePath("a.go")
	assert.Equal(t, 1, cache.Len(), "both staged and unstaged entries for the path are dropped")
}

func TestDiffCacheInvalidateAll(t *testing.T) {
	gw := newFakeGateway()
	gw.diff = sampleDiff
	cache, err := NewDiffCache(gw, 8)
	require.NoError(t, err)

	_, err = cache.Hunks(context.Background(), DiffKey{Path: "a.go", Fingerprint: "x"})
	require.NoError(t, err)
	cache.InvalidateAll()
	assert.Equal(t, 0, cache.Len())
}

func TestDiffCachePropagatesBackendErrors(t *testing.T) {
	gw := newFakeGateway()
	gw.errs["diff"] = domain.NewOpError("diff", domain.ErrInvalidReference, "bad path")
	cache, err := NewDiffCache(gw, 8)
	require.NoError(t, err)

	_, err = cache.Hunks(context.Background(), DiffKey{Path: "a.go", Fingerprint: "x"})
	assert.Equal(t, domain.ErrInvalidReference, domain.KindOf(err))
	assert.Equal(t, 0, cache.Len(), "failed renders are not cached")
}
