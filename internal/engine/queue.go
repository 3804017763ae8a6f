package engine

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	application "github.com/zjrosen/githydra/internal/git/application"
	domain "github.com/zjrosen/githydra/internal/git/domain"
	"github.com/zjrosen/githydra/internal/log"
	"github.com/zjrosen/githydra/internal/pubsub"
)

// ErrQueueFull is returned by Submit when the submission buffer is full.
var ErrQueueFull = errors.New("command queue is full")

// SuccessCallback runs on the worker goroutine after an operation
// succeeds, before the success event is published. Used to trigger
// refreshes and cache invalidation.
type SuccessCallback func(op PendingOperation)

// QueueConfig configures the CommandQueue.
type QueueConfig struct {
	// Gateway executes the operations.
	Gateway application.Gateway

	// Events receives OperationUpdated events.
	Events *pubsub.Broker[Event]

	// NetworkTimeout bounds push/pull. Defaults to 60s.
	NetworkTimeout time.Duration

	// OnSuccess is called after each successful operation.
	OnSuccess SuccessCallback

	// BufferSize is the submission buffer. Defaults to 64.
	BufferSize int
}

// CommandQueue serializes mutating repository operations. A single worker
// executes submissions in FIFO order, so at most one write is in flight
// and writes never overlap. A failed operation is reported individually
// and does not block later submissions.
type CommandQueue struct {
	gateway        application.Gateway
	events         *pubsub.Broker[Event]
	networkTimeout time.Duration
	onSuccess      SuccessCallback

	submitCh chan *PendingOperation

	mu        sync.Mutex
	cancels   map[uuid.UUID]context.CancelFunc
	queued    map[uuid.UUID]bool // submitted, not yet picked up by the worker
	cancelled map[uuid.UUID]bool // cancel requested while still queued

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

// NewCommandQueue creates a CommandQueue from cfg. Panics if cfg.Gateway
// is nil.
func NewCommandQueue(cfg QueueConfig) *CommandQueue {
	if cfg.Gateway == nil {
		panic("gateway is required for CommandQueue")
	}
	timeout := cfg.NetworkTimeout
	if timeout == 0 {
		timeout = 60 * time.Second
	}
	bufSize := cfg.BufferSize
	if bufSize == 0 {
		bufSize = 64
	}
	return &CommandQueue{
		gateway:        cfg.Gateway,
		events:         cfg.Events,
		networkTimeout: timeout,
		onSuccess:      cfg.OnSuccess,
		submitCh:       make(chan *PendingOperation, bufSize),
		cancels:        make(map[uuid.UUID]context.CancelFunc),
		queued:         make(map[uuid.UUID]bool),
		cancelled:      make(map[uuid.UUID]bool),
	}
}

// Start launches the worker loop. Safe to call once.
func (q *CommandQueue) Start(ctx context.Context) {
	q.mu.Lock()
	if q.done != nil {
		q.mu.Unlock()
		return
	}
	q.ctx, q.cancel = context.WithCancel(ctx)
	q.done = make(chan struct{})
	q.mu.Unlock()

	log.SafeGo("queue.worker", q.workerLoop)
}

// Stop cancels the running operation, if any, and waits for the worker to
// exit. Safe to call multiple times or before Start.
func (q *CommandQueue) Stop() {
	q.mu.Lock()
	if q.cancel == nil {
		q.mu.Unlock()
		return
	}
	cancel := q.cancel
	done := q.done
	q.mu.Unlock()

	cancel()
	<-done
}

// Submit enqueues op for execution and publishes its queued state.
// The operation's ID, submission time and status are filled in here.
func (q *CommandQueue) Submit(op PendingOperation) (PendingOperation, error) {
	op.ID = uuid.New()
	op.SubmittedAt = time.Now()
	op.Status = OpQueued

	// Mark queued before handing the operation to the worker so Cancel
	// never races the worker picking it up.
	q.mu.Lock()
	q.queued[op.ID] = true
	q.mu.Unlock()

	select {
	case q.submitCh <- &op:
	default:
		q.mu.Lock()
		delete(q.queued, op.ID)
		q.mu.Unlock()
		return PendingOperation{}, ErrQueueFull
	}

	log.Debug(log.CatQueue, "operation queued", "id", op.ID, "kind", op.Kind.String(), "target", op.Target)
	q.publish(op)
	return op, nil
}

// Cancel requests cancellation of the operation with the given ID. A
// running operation has its context cancelled; a queued one is marked and
// skipped when the worker reaches it. Cancelling an operation that
// already finished is a no-op.
func (q *CommandQueue) Cancel(id uuid.UUID) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if cancel, ok := q.cancels[id]; ok {
		cancel()
		return
	}
	if q.queued[id] {
		q.cancelled[id] = true
	}
}

func (q *CommandQueue) workerLoop() {
	defer close(q.done)

	for {
		select {
		case <-q.ctx.Done():
			return
		case op := <-q.submitCh:
			q.runOne(op)
		}
	}
}

func (q *CommandQueue) runOne(op *PendingOperation) {
	q.mu.Lock()
	delete(q.queued, op.ID)
	if q.cancelled[op.ID] {
		delete(q.cancelled, op.ID)
		q.mu.Unlock()
		op.Status = OpCancelled
		q.publish(*op)
		return
	}

	opCtx := q.ctx
	var cancel context.CancelFunc
	if op.Kind.IsNetwork() {
		opCtx, cancel = context.WithTimeout(q.ctx, q.networkTimeout)
	} else {
		opCtx, cancel = context.WithCancel(q.ctx)
	}
	q.cancels[op.ID] = cancel
	q.mu.Unlock()

	op.Status = OpRunning
	q.publish(*op)

	err := q.execute(opCtx, *op)

	q.mu.Lock()
	delete(q.cancels, op.ID)
	q.mu.Unlock()
	cancel()

	switch {
	case err == nil:
		op.Status = OpSucceeded
		if q.onSuccess != nil {
			q.onSuccess(*op)
		}
	case domain.IsKind(err, domain.ErrCancelled):
		// A discarded result leaves the snapshot untouched.
		op.Status = OpCancelled
		log.Info(log.CatQueue, "operation cancelled", "id", op.ID, "kind", op.Kind.String())
	default:
		op.Status = OpFailed
		op.Err = err
		log.Warn(log.CatQueue, "operation failed", "id", op.ID, "kind", op.Kind.String(), "err", err)
	}
	q.publish(*op)
}

func (q *CommandQueue) execute(ctx context.Context, op PendingOperation) error {
	switch op.Kind {
	case OpStage:
		return q.gateway.Stage(ctx, op.Target)
	case OpUnstage:
		return q.gateway.Unstage(ctx, op.Target)
	case OpCommit:
		return q.gateway.Commit(ctx, op.Message)
	case OpCreateBranch:
		return q.gateway.CreateBranch(ctx, op.Target, op.StartPoint)
	case OpCheckout:
		return q.gateway.Checkout(ctx, op.Target)
	case OpDeleteBranch:
		return q.gateway.DeleteBranch(ctx, op.Target, op.Force)
	case OpStashSave:
		return q.gateway.StashSave(ctx, op.Message)
	case OpStashPop:
		return q.gateway.StashPop(ctx, op.Index)
	case OpStashDrop:
		return q.gateway.StashDrop(ctx, op.Index)
	case OpPush:
		return q.gateway.Push(ctx, op.Remote, op.Branch)
	case OpPull:
		return q.gateway.Pull(ctx, op.Remote, op.Branch)
	default:
		return domain.NewOpError(op.Kind.String(), domain.ErrUnknown, "unhandled operation kind")
	}
}

func (q *CommandQueue) publish(op PendingOperation) {
	if q.events != nil {
		q.events.Publish(OperationUpdated{Op: op})
	}
}
