// Package engine implements the coordination core: the command queue for
// mutating operations, the refresh scheduler, the diff cache and the
// session state the interface renders from.
package engine

import (
	"context"
	"fmt"
	"strings"

	"github.com/zjrosen/githydra/internal/config"
	application "github.com/zjrosen/githydra/internal/git/application"
	domain "github.com/zjrosen/githydra/internal/git/domain"
	"github.com/zjrosen/githydra/internal/log"
	"github.com/zjrosen/githydra/internal/pubsub"
)

// Engine owns the moving parts and exposes the two entry points the
// interface loop uses: Dispatch for inputs and Apply for events. Both must
// be called from a single goroutine; everything behind them is safe for
// the queue worker and scheduler timers to touch concurrently.
type Engine struct {
	gateway   application.Gateway
	events    *pubsub.Broker[Event]
	queue     *CommandQueue
	scheduler *RefreshScheduler
	cache     *DiffCache
	session   *SessionState
}

// Options carries the pieces New cannot derive from config alone.
type Options struct {
	// Gateway is the backend the engine drives. Required.
	Gateway application.Gateway

	// WatchDir is the repository's .git directory, used by the filesystem
	// watcher. Empty disables watching.
	WatchDir string
}

// New assembles an engine from cfg and opts. The engine does nothing
// until Start is called.
func New(cfg config.Config, opts Options) (*Engine, error) {
	if opts.Gateway == nil {
		return nil, fmt.Errorf("engine requires a gateway")
	}

	events := pubsub.NewBroker[Event](64)

	cache, err := NewDiffCache(opts.Gateway, cfg.DiffCacheSize)
	if err != nil {
		return nil, err
	}

	watchDir := opts.WatchDir
	idle := cfg.IdleRefreshInterval
	if !cfg.AutoRefresh {
		watchDir = ""
		idle = 0
	}

	scheduler := NewRefreshScheduler(SchedulerConfig{
		Gateway:      opts.Gateway,
		Events:       events,
		Debounce:     cfg.RefreshDebounce,
		IdleInterval: idle,
		LogLimit:     cfg.LogLimit,
		WatchDir:     watchDir,
	})

	e := &Engine{
		gateway:   opts.Gateway,
		events:    events,
		scheduler: scheduler,
		cache:     cache,
		session:   NewSessionState(),
	}

	e.queue = NewCommandQueue(QueueConfig{
		Gateway:        opts.Gateway,
		Events:         events,
		NetworkTimeout: cfg.NetworkTimeout,
		OnSuccess:      e.afterSuccess,
	})

	return e, nil
}

// Start launches the queue worker and scheduler and kicks off the first
// full refresh.
func (e *Engine) Start(ctx context.Context) {
	e.queue.Start(ctx)
	e.scheduler.Start(ctx)
	e.scheduler.RequestAll()
	log.Info(log.CatEngine, "engine started")
}

// Stop shuts the engine down: the running operation is cancelled, pending
// timers stop, and the event broker closes.
func (e *Engine) Stop() {
	e.queue.Stop()
	e.scheduler.Stop()
	e.events.Close()
	log.Info(log.CatEngine, "engine stopped")
}

// Subscribe returns a channel of engine events. The subscription ends when
// ctx is cancelled.
func (e *Engine) Subscribe(ctx context.Context) <-chan pubsub.Event[Event] {
	return e.events.Subscribe(ctx)
}

// Session exposes the session state for read access by the renderer.
func (e *Engine) Session() *SessionState {
	return e.session
}

// Render produces the current frame model.
func (e *Engine) Render() RenderModel {
	return e.session.Render()
}

// Apply folds one event into the session state. Interface loop only.
func (e *Engine) Apply(ev Event) {
	switch ev := ev.(type) {
	case SectionRefreshed:
		e.session.ApplySection(ev)
	case OperationUpdated:
		e.session.ApplyOperation(ev)
	}
}

// Dispatch routes one input action. Reads act on the session directly;
// mutations become queue submissions. Any keypress clears a lingering
// banner before the action takes effect. Interface loop only.
func (e *Engine) Dispatch(action Action) error {
	e.session.ClearBannerOnInput()

	switch a := action.(type) {
	case MoveSelection:
		e.session.MoveSelection(a.Delta)
		return nil
	case SwitchView:
		e.session.SwitchView(a.View)
		return nil
	case Refresh:
		e.scheduler.RequestAll()
		return nil
	case CancelPending:
		if op, ok := e.session.RunningNetworkOp(); ok {
			e.queue.Cancel(op.ID)
		}
		return nil

	case StageSelected:
		f, ok := e.session.SelectedFile()
		if !ok || f.Kind == domain.StatusStaged {
			return nil
		}
		return e.submit(PendingOperation{Kind: OpStage, Target: f.Path})
	case UnstageSelected:
		f, ok := e.session.SelectedFile()
		if !ok || f.Kind != domain.StatusStaged {
			return nil
		}
		return e.submit(PendingOperation{Kind: OpUnstage, Target: f.Path})
	case Commit:
		return e.submit(PendingOperation{Kind: OpCommit, Message: a.Message})

	case CreateBranch:
		return e.submit(PendingOperation{Kind: OpCreateBranch, Target: a.Name})
	case Checkout:
		ref := a.Ref
		if ref == "" {
			b, ok := e.session.SelectedBranch()
			if !ok {
				return nil
			}
			ref = b.Name
		}
		return e.submit(PendingOperation{Kind: OpCheckout, Target: ref})
	case DeleteBranch:
		name := a.Name
		if name == "" {
			b, ok := e.session.SelectedBranch()
			if !ok || b.Kind != domain.BranchLocal || b.IsCurrent {
				return nil
			}
			name = b.Name
		}
		return e.submit(PendingOperation{Kind: OpDeleteBranch, Target: name, Force: a.Force})

	case StashSave:
		return e.submit(PendingOperation{Kind: OpStashSave, Message: a.Message})
	case StashPop:
		return e.submit(PendingOperation{Kind: OpStashPop, Index: e.stashIndex(a.Index)})
	case StashDrop:
		return e.submit(PendingOperation{Kind: OpStashDrop, Index: e.stashIndex(a.Index)})

	case Push:
		remote, branch := e.resolveRemote(a.Remote, a.Branch)
		return e.submit(PendingOperation{
			Kind: OpPush, Remote: remote, Branch: branch,
			Target: remote + "/" + branch,
		})
	case Pull:
		remote, branch := e.resolveRemote(a.Remote, a.Branch)
		return e.submit(PendingOperation{
			Kind: OpPull, Remote: remote, Branch: branch,
			Target: remote + "/" + branch,
		})

	default:
		return fmt.Errorf("unhandled action %T", action)
	}
}

// DiffForSelection returns the rendered diff of the file under the status
// cursor, served from the cache when the content fingerprint matches.
// Interface loop only; asynchronous callers capture a key and use Diff.
func (e *Engine) DiffForSelection(ctx context.Context) ([]domain.DiffHunk, error) {
	key, ok := e.SelectedDiffKey()
	if !ok {
		return nil, nil
	}
	return e.cache.Hunks(ctx, key)
}

// SelectedDiffKey returns the cache key of the file under the status
// cursor. Interface loop only.
func (e *Engine) SelectedDiffKey() (DiffKey, bool) {
	f, ok := e.session.SelectedFile()
	if !ok {
		return DiffKey{}, false
	}
	return DiffKey{
		Path:        f.Path,
		Staged:      f.Kind == domain.StatusStaged,
		Fingerprint: f.Fingerprint,
	}, true
}

// Diff renders the diff for an explicit key. Safe from any goroutine.
func (e *Engine) Diff(ctx context.Context, key DiffKey) ([]domain.DiffHunk, error) {
	return e.cache.Hunks(ctx, key)
}

func (e *Engine) submit(op PendingOperation) error {
	_, err := e.queue.Submit(op)
	return err
}

// stashIndex substitutes the selected stash entry for a negative index.
func (e *Engine) stashIndex(i int) int {
	if i >= 0 {
		return i
	}
	if st, ok := e.session.SelectedStash(); ok {
		return st.Index
	}
	return 0
}

// resolveRemote fills empty remote/branch from the tracked upstream of the
// current branch, falling back to origin and the branch name.
func (e *Engine) resolveRemote(remote, branch string) (string, string) {
	snap := e.session.Snapshot()
	if branch == "" {
		branch = snap.Branch
	}
	if remote == "" {
		if upstream := snap.Upstream; upstream != "" {
			if r, _, ok := strings.Cut(upstream, "/"); ok {
				remote = r
			}
		}
		if remote == "" {
			remote = "origin"
		}
	}
	return remote, branch
}

// afterSuccess runs on the queue worker after each successful operation:
// it drops whatever cached diffs the operation could have made stale and
// schedules the refreshes that make the result visible.
func (e *Engine) afterSuccess(op PendingOperation) {
	switch op.Kind.CacheInvalidation() {
	case CachePath:
		e.cache.InvalidatePath(op.Target)
	case CacheAll:
		e.cache.InvalidateAll()
	}
	e.scheduler.RequestRefresh(op.Kind.AffectedSections()...)
}
