package infrastructure

import (
	"context"
	"errors"
	"testing"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"

	domain "github.com/zjrosen/githydra/internal/git/domain"
)

// scriptRunner returns canned responses per leading git subcommand.
type scriptRunner struct {
	responses map[string]scriptResponse
	calls     []string
}

type scriptResponse struct {
	stdout string
	stderr string
	err    error
}

func (r *scriptRunner) run(ctx context.Context, args ...string) (string, string, error) {
	r.calls = append(r.calls, args[0])
	if err := ctx.Err(); err != nil {
		return "", "", err
	}
	resp, ok := r.responses[args[0]]
	if !ok {
		return "", "", nil
	}
	return resp.stdout, resp.stderr, resp.err
}

func newTestGateway(r runner) *CLIGateway {
	return &CLIGateway{
		dir:    "/nonexistent",
		run:    r,
		memo:   gocache.New(30*time.Second, time.Minute),
		tracer: otel.Tracer("test"),
	}
}

func TestStatus_ParsesAndFingerprints(t *testing.T) {
	r := &scriptRunner{responses: map[string]scriptResponse{
		"status": {stdout: "# branch.head main\n" +
			"# branch.oid abc\n" +
			"1 .M N... 100644 100644 100644 aaaa aaaa missing.go\n"},
	}}
	g := newTestGateway(r)

	res, err := g.Status(context.Background())
	require.NoError(t, err)
	require.Len(t, res.Files, 1)

	// The gateway dir does not exist, so the stat-based fingerprint
	// degrades to the "gone" sentinel rather than failing the refresh.
	assert.Equal(t, "gone", res.Files[0].Fingerprint)
}

func TestErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		stderr string
		want   domain.ErrorKind
	}{
		{"not a repo", "fatal: not a git repository (or any of the parent directories): .git", domain.ErrNotARepository},
		{"auth", "fatal: Authentication failed for 'https://github.com/x/y.git/'", domain.ErrAuthenticationFailed},
		{"ssh key", "git@github.com: Permission denied (publickey).", domain.ErrAuthenticationFailed},
		{"offline", "fatal: unable to access 'https://github.com/x/y.git/': Could not resolve host: github.com", domain.ErrNetworkUnavailable},
		{"dirty", "error: Your local changes to the following files would be overwritten by checkout:", domain.ErrDirtyWorkingTree},
		{"conflict", "fatal: Not possible to fast-forward, aborting.", domain.ErrMergeConflict},
		{"unmerged", "error: path 'a.txt' needs merge", domain.ErrMergeConflict},
		{"bad ref", "fatal: 'wat' - not a valid ref", domain.ErrInvalidReference},
		{"unknown rev", "fatal: ambiguous argument 'nope': unknown revision or path not in the working tree.", domain.ErrInvalidReference},
		{"unborn branch", "fatal: your current branch 'main' does not have any commits yet", domain.ErrInvalidReference},
		{"ambiguous", "warning: refname 'x' is ambiguous.", domain.ErrAmbiguousReference},
		{"unclassified", "fatal: something nobody anticipated", domain.ErrUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &scriptRunner{responses: map[string]scriptResponse{
				"push": {stderr: tt.stderr, err: errors.New("exit status 128")},
			}}
			g := newTestGateway(r)

			err := g.Push(context.Background(), "origin", "main")
			require.Error(t, err)
			assert.Equal(t, tt.want, domain.KindOf(err), "stderr: %s", tt.stderr)
		})
	}
}

func TestErrorMapping_ContextWinsOverStderr(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := &scriptRunner{responses: map[string]scriptResponse{
		"pull": {stderr: "fatal: unable to access ...", err: errors.New("signal: killed")},
	}}
	g := newTestGateway(r)

	err := g.Pull(ctx, "origin", "main")
	require.Error(t, err)
	assert.Equal(t, domain.ErrCancelled, domain.KindOf(err))
}

func TestErrorMapping_DeadlineBecomesTimeout(t *testing.T) {
	ctx, cancel := context.WithDeadline(context.Background(), time.Now().Add(-time.Second))
	defer cancel()

	r := &scriptRunner{responses: map[string]scriptResponse{}}
	g := newTestGateway(r)

	err := g.Push(ctx, "origin", "main")
	require.Error(t, err)
	assert.Equal(t, domain.ErrBackendTimeout, domain.KindOf(err))
}

func TestLog_UnbornRepositoryIsEmpty(t *testing.T) {
	// Both stderr shapes git emits for a repository with no commits.
	tests := []struct {
		name   string
		stderr string
	}{
		{"no head ref", "fatal: ambiguous argument 'HEAD': unknown revision or path not in the working tree."},
		{"unborn branch", "fatal: your current branch 'main' does not have any commits yet"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &scriptRunner{responses: map[string]scriptResponse{
				"log": {stderr: tt.stderr, err: errors.New("exit status 128")},
			}}
			g := newTestGateway(r)

			commits, err := g.Log(context.Background(), 50)
			require.NoError(t, err)
			assert.Empty(t, commits)
		})
	}
}

func TestRemotes_MemoizedUntilMutation(t *testing.T) {
	r := &scriptRunner{responses: map[string]scriptResponse{
		"remote": {stdout: "origin\tgit@github.com:z/r.git (fetch)\n"},
	}}
	g := newTestGateway(r)
	ctx := context.Background()

	_, err := g.Remotes(ctx)
	require.NoError(t, err)
	_, err = g.Remotes(ctx)
	require.NoError(t, err)

	count := 0
	for _, c := range r.calls {
		if c == "remote" {
			count++
		}
	}
	assert.Equal(t, 1, count, "second Remotes call should hit the memo")

	// A mutation flushes the memo.
	require.NoError(t, g.Stage(ctx, "a.txt"))
	_, err = g.Remotes(ctx)
	require.NoError(t, err)

	count = 0
	for _, c := range r.calls {
		if c == "remote" {
			count++
		}
	}
	assert.Equal(t, 2, count)
}

func TestMutationArguments(t *testing.T) {
	tests := []struct {
		name string
		call func(g *CLIGateway, ctx context.Context) error
		want string
	}{
		{"stage", func(g *CLIGateway, ctx context.Context) error { return g.Stage(ctx, "a.txt") }, "add"},
		{"unstage", func(g *CLIGateway, ctx context.Context) error { return g.Unstage(ctx, "a.txt") }, "restore"},
		{"commit", func(g *CLIGateway, ctx context.Context) error { return g.Commit(ctx, "msg") }, "commit"},
		{"create branch", func(g *CLIGateway, ctx context.Context) error { return g.CreateBranch(ctx, "f", "") }, "branch"},
		{"checkout", func(g *CLIGateway, ctx context.Context) error { return g.Checkout(ctx, "f") }, "checkout"},
		{"stash save", func(g *CLIGateway, ctx context.Context) error { return g.StashSave(ctx, "m") }, "stash"},
		{"push", func(g *CLIGateway, ctx context.Context) error { return g.Push(ctx, "origin", "main") }, "push"},
		{"pull", func(g *CLIGateway, ctx context.Context) error { return g.Pull(ctx, "origin", "main") }, "pull"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &scriptRunner{responses: map[string]scriptResponse{}}
			g := newTestGateway(r)
			require.NoError(t, tt.call(g, context.Background()))
			require.NotEmpty(t, r.calls)
			assert.Equal(t, tt.want, r.calls[len(r.calls)-1])
		})
	}
}
