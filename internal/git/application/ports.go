// Package application defines ports (interfaces) for backend operations.
package application

import (
	"context"

	domain "github.com/zjrosen/githydra/internal/git/domain"
)

// Gateway is the typed operation surface of the version-control backend.
// The core treats the backend as an opaque capability; this abstraction
// also allows testing every component against a fake implementation.
//
// Read calls have no side effects. Mutating calls alter working-tree,
// index or ref state observable by later reads. Every call honors ctx:
// a deadline maps to ErrBackendTimeout, cancellation to ErrCancelled.
type Gateway interface {
	// Reads.
	Status(ctx context.Context) (domain.StatusResult, error)
	Log(ctx context.Context, limit int) ([]domain.CommitRecord, error)
	Branches(ctx context.Context) ([]domain.BranchRef, error)
	StashList(ctx context.Context) ([]domain.StashEntry, error)
	Remotes(ctx context.Context) ([]domain.Remote, error)
	// Diff returns the raw unified diff for path. staged selects the
	// index-to-HEAD diff instead of the worktree-to-index diff.
	Diff(ctx context.Context, path string, staged bool) (string, error)

	// Mutations on the index and working tree.
	Stage(ctx context.Context, path string) error
	Unstage(ctx context.Context, path string) error
	Commit(ctx context.Context, message string) error

	// Branch mutations. An empty startPoint means current HEAD.
	CreateBranch(ctx context.Context, name, startPoint string) error
	Checkout(ctx context.Context, ref string) error
	DeleteBranch(ctx context.Context, name string, force bool) error

	// Stash mutations.
	StashSave(ctx context.Context, message string) error
	StashPop(ctx context.Context, index int) error
	StashDrop(ctx context.Context, index int) error

	// Network operations. Long-running; callers bound them with a
	// deadline and may cancel them mid-flight.
	Push(ctx context.Context, remote, branch string) error
	Pull(ctx context.Context, remote, branch string) error
}
