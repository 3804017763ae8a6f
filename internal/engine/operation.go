package engine

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	domain "github.com/zjrosen/githydra/internal/git/domain"
)

// OpKind identifies a mutating repository operation.
type OpKind int

const (
	OpStage OpKind = iota
	OpUnstage
	OpCommit
	OpCreateBranch
	OpCheckout
	OpDeleteBranch
	OpStashSave
	OpStashPop
	OpStashDrop
	OpPush
	OpPull
)

func (k OpKind) String() string {
	switch k {
	case OpStage:
		return "stage"
	case OpUnstage:
		return "unstage"
	case OpCommit:
		return "commit"
	case OpCreateBranch:
		return "create branch"
	case OpCheckout:
		return "checkout"
	case OpDeleteBranch:
		return "delete branch"
	case OpStashSave:
		return "stash save"
	case OpStashPop:
		return "stash pop"
	case OpStashDrop:
		return "stash drop"
	case OpPush:
		return "push"
	case OpPull:
		return "pull"
	default:
		return "unknown"
	}
}

// IsNetwork reports whether the operation talks to a remote and therefore
// runs under the network timeout and supports cancellation.
func (k OpKind) IsNetwork() bool {
	return k == OpPush || k == OpPull
}

// Section names one independently refreshable slice of the snapshot.
type Section int

const (
	SectionStatus Section = iota
	SectionLog
	SectionBranches
	SectionStash
)

func (s Section) String() string {
	switch s {
	case SectionStatus:
		return "status"
	case SectionLog:
		return "log"
	case SectionBranches:
		return "branches"
	case SectionStash:
		return "stash"
	default:
		return "unknown"
	}
}

// AllSections lists every snapshot section.
func AllSections() []Section {
	return []Section{SectionStatus, SectionLog, SectionBranches, SectionStash}
}

// AffectedSections returns the snapshot sections a successful operation of
// this kind can change.
func (k OpKind) AffectedSections() []Section {
	switch k {
	case OpStage, OpUnstage:
		return []Section{SectionStatus}
	case OpCommit:
		return []Section{SectionStatus, SectionLog, SectionBranches}
	case OpCheckout, OpPull:
		return []Section{SectionStatus, SectionLog, SectionBranches}
	case OpCreateBranch, OpDeleteBranch:
		return []Section{SectionBranches}
	case OpStashSave, OpStashPop, OpStashDrop:
		return []Section{SectionStatus, SectionStash}
	case OpPush:
		return []Section{SectionStatus, SectionBranches}
	default:
		return AllSections()
	}
}

// CacheScope describes how much of the diff cache an operation invalidates.
type CacheScope int

const (
	// CacheKeep leaves cached diffs alone.
	CacheKeep CacheScope = iota
	// CachePath invalidates cached diffs for the operation's target path.
	CachePath
	// CacheAll invalidates the whole cache.
	CacheAll
)

// CacheInvalidation returns the invalidation scope for a successful
// operation of this kind. Checkout-like events rewrite the working tree
// wholesale; staging only disturbs one path.
func (k OpKind) CacheInvalidation() CacheScope {
	switch k {
	case OpStage, OpUnstage:
		return CachePath
	case OpCommit, OpCheckout, OpStashPop, OpStashDrop, OpStashSave, OpPull:
		return CacheAll
	case OpCreateBranch, OpDeleteBranch, OpPush:
		return CacheKeep
	default:
		return CacheAll
	}
}

// OpStatus is the lifecycle state of a PendingOperation.
type OpStatus int

const (
	OpQueued OpStatus = iota
	OpRunning
	OpSucceeded
	OpFailed
	OpCancelled
)

func (s OpStatus) String() string {
	switch s {
	case OpQueued:
		return "queued"
	case OpRunning:
		return "running"
	case OpSucceeded:
		return "succeeded"
	case OpFailed:
		return "failed"
	case OpCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Terminal reports whether the status is final.
func (s OpStatus) Terminal() bool {
	return s == OpSucceeded || s == OpFailed || s == OpCancelled
}

// PendingOperation is one mutating operation travelling through the
// command queue. It is created on dispatch and discarded once its result
// has been recorded and displayed.
type PendingOperation struct {
	ID          uuid.UUID
	Kind        OpKind
	Target      string // path, ref or remote/branch the operation acts on
	Message     string // commit or stash message
	StartPoint  string // branch start point, empty means HEAD
	Remote      string
	Branch      string
	Index       int // stash index
	Force       bool
	SubmittedAt time.Time
	Status      OpStatus
	Err         error // set when Status is OpFailed
}

// Describe renders the operation for the banner area.
func (op PendingOperation) Describe() string {
	if op.Target == "" {
		return op.Kind.String()
	}
	return fmt.Sprintf("%s %s", op.Kind, op.Target)
}

// FailureKind returns the taxonomy kind of a failed operation.
func (op PendingOperation) FailureKind() domain.ErrorKind {
	return domain.KindOf(op.Err)
}
