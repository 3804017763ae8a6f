package log

import (
	"bytes"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// syncBuffer guards a bytes.Buffer for concurrent writers.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestLevelFiltering(t *testing.T) {
	var buf syncBuffer
	InitWriter(&buf, slog.LevelWarn)
	defer Close()

	Debug(CatEngine, "debug message")
	Info(CatEngine, "info message")
	Warn(CatEngine, "warn message")
	Error(CatEngine, "error message")

	out := buf.String()
	assert.NotContains(t, out, "debug message")
	assert.NotContains(t, out, "info message")
	assert.Contains(t, out, "warn message")
	assert.Contains(t, out, "error message")
}

func TestCategoryAndAttrs(t *testing.T) {
	var buf syncBuffer
	InitWriter(&buf, slog.LevelDebug)
	defer Close()

	Info(CatScheduler, "refresh applied", "section", "status", "seq", 3)

	out := buf.String()
	assert.Contains(t, out, "cat=scheduler")
	assert.Contains(t, out, "section=status")
	assert.Contains(t, out, "seq=3")
}

func TestSafeGo_RecoversPanic(t *testing.T) {
	var buf syncBuffer
	InitWriter(&buf, slog.LevelDebug)
	defer Close()

	done := make(chan struct{})
	SafeGo("test.panicker", func() {
		defer close(done)
		panic("boom")
	})

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("goroutine did not finish")
	}

	// SafeGo's recover runs after fn's own defers; wait for the write.
	require.Eventually(t, func() bool {
		return strings.Contains(buf.String(), "name=test.panicker") &&
			strings.Contains(buf.String(), "panic=boom")
	}, 2*time.Second, 10*time.Millisecond)
}

func TestLogBeforeInitIsNoop(t *testing.T) {
	Close()
	// Must not panic.
	Info(CatEngine, "dropped")
}
