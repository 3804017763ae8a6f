package engine

import (
	"context"
	"errors"
	"sync"

	domain "github.com/zjrosen/githydra/internal/git/domain"
)

// fakeGateway is an in-memory Gateway for engine tests. Every call is
// recorded; per-method errors and blocking network calls are opt-in.
type fakeGateway struct {
	mu    sync.Mutex
	calls []string

	status   domain.StatusResult
	commits  []domain.CommitRecord
	branches []domain.BranchRef
	remotes  []domain.Remote
	stashes  []domain.StashEntry
	diff     string

	errs map[string]error // method name to forced error

	// blockNetwork makes Push and Pull wait for ctx, mapping the ctx
	// error the way the real backend does.
	blockNetwork bool
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{errs: make(map[string]error)}
}

func (g *fakeGateway) record(call string) {
	g.mu.Lock()
	g.calls = append(g.calls, call)
	g.mu.Unlock()
}

func (g *fakeGateway) callLog() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]string(nil), g.calls...)
}

func (g *fakeGateway) callCount(name string) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	n := 0
	for _, c := range g.calls {
		if c == name || len(c) > len(name) && c[:len(name)+1] == name+" " {
			n++
		}
	}
	return n
}

func (g *fakeGateway) forced(name string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.errs[name]
}

func (g *fakeGateway) Status(ctx context.Context) (domain.StatusResult, error) {
	g.record("status")
	if err := g.forced("status"); err != nil {
		return domain.StatusResult{}, err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.status, nil
}

func (g *fakeGateway) Log(ctx context.Context, limit int) ([]domain.CommitRecord, error) {
	g.record("log")
	if err := g.forced("log"); err != nil {
		return nil, err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if limit < len(g.commits) {
		return g.commits[:limit], nil
	}
	return g.commits, nil
}

func (g *fakeGateway) Branches(ctx context.Context) ([]domain.BranchRef, error) {
	g.record("branches")
	if err := g.forced("branches"); err != nil {
		return nil, err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.branches, nil
}

func (g *fakeGateway) StashList(ctx context.Context) ([]domain.StashEntry, error) {
	g.record("stash list")
	if err := g.forced("stash list"); err != nil {
		return nil, err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.stashes, nil
}

func (g *fakeGateway) Remotes(ctx context.Context) ([]domain.Remote, error) {
	g.record("remotes")
	if err := g.forced("remotes"); err != nil {
		return nil, err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.remotes, nil
}

func (g *fakeGateway) Diff(ctx context.Context, path string, staged bool) (string, error) {
	g.record("diff " + path)
	if err := g.forced("diff"); err != nil {
		return "", err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.diff, nil
}

func (g *fakeGateway) Stage(ctx context.Context, path string) error {
	g.record("stage " + path)
	return g.forced("stage")
}

func (g *fakeGateway) Unstage(ctx context.Context, path string) error {
	g.record("unstage " + path)
	return g.forced("unstage")
}

func (g *fakeGateway) Commit(ctx context.Context, message string) error {
	g.record("commit " + message)
	return g.forced("commit")
}

func (g *fakeGateway) CreateBranch(ctx context.Context, name, startPoint string) error {
	g.record("create branch " + name)
	return g.forced("create branch")
}

func (g *fakeGateway) Checkout(ctx context.Context, ref string) error {
	g.record("checkout " + ref)
	return g.forced("checkout")
}

func (g *fakeGateway) DeleteBranch(ctx context.Context, name string, force bool) error {
	g.record("delete branch " + name)
	return g.forced("delete branch")
}

func (g *fakeGateway) StashSave(ctx context.Context, message string) error {
	g.record("stash save")
	return g.forced("stash save")
}

func (g *fakeGateway) StashPop(ctx context.Context, index int) error {
	g.record("stash pop")
	return g.forced("stash pop")
}

func (g *fakeGateway) StashDrop(ctx context.Context, index int) error {
	g.record("stash drop")
	return g.forced("stash drop")
}

func (g *fakeGateway) Push(ctx context.Context, remote, branch string) error {
	g.record("push " + remote + "/" + branch)
	return g.network(ctx, "push")
}

func (g *fakeGateway) Pull(ctx context.Context, remote, branch string) error {
	g.record("pull " + remote + "/" + branch)
	return g.network(ctx, "pull")
}

func (g *fakeGateway) network(ctx context.Context, op string) error {
	if err := g.forced(op); err != nil {
		return err
	}
	g.mu.Lock()
	block := g.blockNetwork
	g.mu.Unlock()
	if !block {
		return nil
	}
	<-ctx.Done()
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return domain.NewOpError(op, domain.ErrBackendTimeout, "timed out")
	}
	return domain.NewOpError(op, domain.ErrCancelled, "cancelled")
}
