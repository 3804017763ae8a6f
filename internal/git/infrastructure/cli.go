// Package infrastructure implements the backend gateway by shelling out to
// the git binary and parsing its machine-readable output.
package infrastructure

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	application "github.com/zjrosen/githydra/internal/git/application"
	domain "github.com/zjrosen/githydra/internal/git/domain"
	"github.com/zjrosen/githydra/internal/log"
)

// remoteCacheKey indexes the memoized remote list.
const remoteCacheKey = "remotes"

// runner abstracts git invocation so tests can stub process execution.
type runner interface {
	run(ctx context.Context, args ...string) (stdout string, stderr string, err error)
}

// execRunner invokes the git binary rooted at dir.
type execRunner struct {
	dir string
}

func (r execRunner) run(ctx context.Context, args ...string) (string, string, error) {
	full := append([]string{"-C", r.dir}, args...)
	cmd := exec.CommandContext(ctx, "git", full...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	return stdout.String(), stderr.String(), err
}

// CLIGateway implements application.Gateway against a working tree.
type CLIGateway struct {
	dir    string
	run    runner
	memo   *gocache.Cache
	tracer trace.Tracer
}

// NewCLIGateway creates a gateway for the repository at dir. The caller is
// responsible for verifying dir is inside a repository (see RepoRoot).
func NewCLIGateway(dir string) *CLIGateway {
	return &CLIGateway{
		dir:    dir,
		run:    execRunner{dir: dir},
		memo:   gocache.New(30*time.Second, time.Minute),
		tracer: otel.Tracer("githydra/git"),
	}
}

// RepoRoot resolves the repository's top-level directory. It is the
// startup check: failure means dir is not inside a repository.
func (g *CLIGateway) RepoRoot(ctx context.Context) (string, error) {
	out, err := g.call(ctx, "rev-parse", "rev-parse", "--show-toplevel")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

// GitDir resolves the repository's .git directory, for the filesystem
// watcher.
func (g *CLIGateway) GitDir(ctx context.Context) (string, error) {
	out, err := g.call(ctx, "rev-parse", "rev-parse", "--absolute-git-dir")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

// Status implements application.Gateway.
func (g *CLIGateway) Status(ctx context.Context) (domain.StatusResult, error) {
	out, err := g.call(ctx, "status", "status", "--porcelain=v2", "--branch", "--untracked-files=all")
	if err != nil {
		return domain.StatusResult{}, err
	}
	res, err := parseStatusV2(out)
	if err != nil {
		return domain.StatusResult{}, domain.NewOpError("status", domain.ErrUnknown, err.Error())
	}
	g.fillWorktreeFingerprints(res.Files)
	return res, nil
}

// fillWorktreeFingerprints stamps unstaged and untracked entries with an
// mtime/size identity so cached diffs go stale when the file changes.
func (g *CLIGateway) fillWorktreeFingerprints(files []domain.FileEntry) {
	for i := range files {
		if files[i].Kind != domain.StatusUnstaged && files[i].Kind != domain.StatusUntracked {
			continue
		}
		info, err := os.Stat(fmt.Sprintf("%s/%s", g.dir, files[i].Path))
		if err != nil {
			files[i].Fingerprint = "gone"
			continue
		}
		files[i].Fingerprint = fmt.Sprintf("%d-%d", info.ModTime().UnixNano(), info.Size())
	}
}

// Log implements application.Gateway.
func (g *CLIGateway) Log(ctx context.Context, limit int) ([]domain.CommitRecord, error) {
	out, err := g.call(ctx, "log", "log", "-n", fmt.Sprint(limit), "--pretty=format:"+logFormat)
	if err != nil {
		// An unborn repository has no HEAD to log from.
		if domain.IsKind(err, domain.ErrInvalidReference) {
			return nil, nil
		}
		return nil, err
	}
	commits, err := parseLog(out)
	if err != nil {
		return nil, domain.NewOpError("log", domain.ErrUnknown, err.Error())
	}
	return commits, nil
}

// Branches implements application.Gateway.
func (g *CLIGateway) Branches(ctx context.Context) ([]domain.BranchRef, error) {
	out, err := g.call(ctx, "branches", "for-each-ref", "refs/heads", "refs/remotes", "--format="+branchFormat)
	if err != nil {
		return nil, err
	}
	branches, err := parseBranches(out)
	if err != nil {
		return nil, domain.NewOpError("branches", domain.ErrUnknown, err.Error())
	}
	return branches, nil
}

// StashList implements application.Gateway.
func (g *CLIGateway) StashList(ctx context.Context) ([]domain.StashEntry, error) {
	out, err := g.call(ctx, "stash-list", "stash", "list", "--format="+stashFormat)
	if err != nil {
		return nil, err
	}
	stashes, err := parseStashList(out)
	if err != nil {
		return nil, domain.NewOpError("stash-list", domain.ErrUnknown, err.Error())
	}
	return stashes, nil
}

// Remotes implements application.Gateway. The remote list changes rarely,
// so it is memoized with a short TTL and flushed on every mutation.
func (g *CLIGateway) Remotes(ctx context.Context) ([]domain.Remote, error) {
	if cached, ok := g.memo.Get(remoteCacheKey); ok {
		return cached.([]domain.Remote), nil
	}
	out, err := g.call(ctx, "remotes", "remote", "-v")
	if err != nil {
		return nil, err
	}
	remotes := parseRemotes(out)
	g.memo.SetDefault(remoteCacheKey, remotes)
	return remotes, nil
}

// Diff implements application.Gateway.
func (g *CLIGateway) Diff(ctx context.Context, path string, staged bool) (string, error) {
	var out string
	var err error
	if staged {
		out, err = g.call(ctx, "diff", "diff", "--cached", "--", path)
	} else {
		out, err = g.call(ctx, "diff", "diff", "--", path)
	}
	if err != nil {
		return "", err
	}

	// Untracked files have no index entry; diff them against /dev/null.
	// --no-index exits 1 when the files differ, which is not a failure.
	if out == "" && !staged {
		out, _, runErr := g.run.run(ctx, "diff", "--no-index", "--", os.DevNull, path)
		if runErr == nil || isExitCode(runErr, 1) {
			return out, nil
		}
	}
	return out, nil
}

// Stage implements application.Gateway.
func (g *CLIGateway) Stage(ctx context.Context, path string) error {
	return g.mutate(ctx, "stage", "add", "--", path)
}

// Unstage implements application.Gateway.
func (g *CLIGateway) Unstage(ctx context.Context, path string) error {
	return g.mutate(ctx, "unstage", "restore", "--staged", "--", path)
}

// Commit implements application.Gateway.
func (g *CLIGateway) Commit(ctx context.Context, message string) error {
	return g.mutate(ctx, "commit", "commit", "-m", message)
}

// CreateBranch implements application.Gateway.
func (g *CLIGateway) CreateBranch(ctx context.Context, name, startPoint string) error {
	if startPoint == "" {
		return g.mutate(ctx, "create-branch", "branch", name)
	}
	return g.mutate(ctx, "create-branch", "branch", name, startPoint)
}

// Checkout implements application.Gateway.
func (g *CLIGateway) Checkout(ctx context.Context, ref string) error {
	return g.mutate(ctx, "checkout", "checkout", ref)
}

// DeleteBranch implements application.Gateway.
func (g *CLIGateway) DeleteBranch(ctx context.Context, name string, force bool) error {
	flag := "-d"
	if force {
		flag = "-D"
	}
	return g.mutate(ctx, "delete-branch", "branch", flag, name)
}

// StashSave implements application.Gateway.
func (g *CLIGateway) StashSave(ctx context.Context, message string) error {
	if message == "" {
		return g.mutate(ctx, "stash-save", "stash", "push")
	}
	return g.mutate(ctx, "stash-save", "stash", "push", "-m", message)
}

// StashPop implements application.Gateway.
func (g *CLIGateway) StashPop(ctx context.Context, index int) error {
	return g.mutate(ctx, "stash-pop", "stash", "pop", fmt.Sprintf("stash@{%d}", index))
}

// StashDrop implements application.Gateway.
func (g *CLIGateway) StashDrop(ctx context.Context, index int) error {
	return g.mutate(ctx, "stash-drop", "stash", "drop", fmt.Sprintf("stash@{%d}", index))
}

// Push implements application.Gateway.
func (g *CLIGateway) Push(ctx context.Context, remote, branch string) error {
	return g.mutate(ctx, "push", "push", remote, branch)
}

// Pull implements application.Gateway. Only fast-forward merges are
// performed; anything needing a real merge fails as a conflict.
func (g *CLIGateway) Pull(ctx context.Context, remote, branch string) error {
	return g.mutate(ctx, "pull", "pull", "--ff-only", remote, branch)
}

// call runs a read-only git command under a span and maps failures onto
// the error taxonomy.
func (g *CLIGateway) call(ctx context.Context, op string, args ...string) (string, error) {
	ctx, span := g.tracer.Start(ctx, "git."+op,
		trace.WithAttributes(attribute.String("git.args", strings.Join(args, " "))))
	defer span.End()

	stdout, stderr, err := g.run.run(ctx, args...)
	if err != nil {
		mapped := mapRunError(op, ctx, stderr, err)
		span.RecordError(mapped)
		span.SetStatus(codes.Error, mapped.Error())
		return "", mapped
	}
	return stdout, nil
}

// mutate runs a state-changing git command and flushes memoized reads.
func (g *CLIGateway) mutate(ctx context.Context, op string, args ...string) error {
	_, err := g.call(ctx, op, args...)
	g.memo.Flush()
	if err != nil {
		log.Warn(log.CatGit, "mutation failed", "op", op, "err", err)
	}
	return err
}

// stderr patterns for classifying git failures, checked in order.
var errorPatterns = []struct {
	needle string
	kind   domain.ErrorKind
}{
	{"not a git repository", domain.ErrNotARepository},
	{"could not read username", domain.ErrAuthenticationFailed},
	{"could not read password", domain.ErrAuthenticationFailed},
	{"authentication failed", domain.ErrAuthenticationFailed},
	{"permission denied (publickey", domain.ErrAuthenticationFailed},
	{"could not resolve host", domain.ErrNetworkUnavailable},
	{"unable to access", domain.ErrNetworkUnavailable},
	{"network is unreachable", domain.ErrNetworkUnavailable},
	{"connection timed out", domain.ErrNetworkUnavailable},
	{"your local changes to the following files would be overwritten", domain.ErrDirtyWorkingTree},
	{"please commit your changes or stash them", domain.ErrDirtyWorkingTree},
	{"cannot pull with rebase: you have unstaged changes", domain.ErrDirtyWorkingTree},
	{"needs merge", domain.ErrMergeConflict},
	{"not possible to fast-forward", domain.ErrMergeConflict},
	{"automatic merge failed", domain.ErrMergeConflict},
	{"fix conflicts", domain.ErrMergeConflict},
	{"is ambiguous", domain.ErrAmbiguousReference},
	{"unknown revision or path not in the working tree", domain.ErrInvalidReference},
	{"does not have any commits yet", domain.ErrInvalidReference},
	{"did not match any file(s) known to git", domain.ErrInvalidReference},
	{"not a valid ref", domain.ErrInvalidReference},
	{"no upstream configured", domain.ErrInvalidReference},
	{"couldn't find remote ref", domain.ErrInvalidReference},
	{"does not appear to be a git repository", domain.ErrInvalidReference},
	{"bad revision", domain.ErrInvalidReference},
}

// mapRunError turns a failed git invocation into an OpError. Context
// expiry takes precedence over stderr content: a killed subprocess
// produces noise on stderr that must not be classified.
func mapRunError(op string, ctx context.Context, stderr string, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		if errors.Is(ctxErr, context.DeadlineExceeded) {
			return domain.NewOpError(op, domain.ErrBackendTimeout, "")
		}
		return domain.NewOpError(op, domain.ErrCancelled, "")
	}

	lower := strings.ToLower(stderr)
	for _, p := range errorPatterns {
		if strings.Contains(lower, p.needle) {
			return domain.NewOpError(op, p.kind, firstLine(stderr))
		}
	}

	detail := firstLine(stderr)
	if detail == "" {
		detail = err.Error()
	}
	return domain.NewOpError(op, domain.ErrUnknown, detail)
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	return s
}

func isExitCode(err error, code int) bool {
	var exitErr *exec.ExitError
	return errors.As(err, &exitErr) && exitErr.ExitCode() == code
}

// compile-time interface check
var _ application.Gateway = (*CLIGateway)(nil)
