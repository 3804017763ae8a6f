package engine

import (
	domain "github.com/zjrosen/githydra/internal/git/domain"
)

// Event is anything the engine publishes to the interface loop. The loop
// consumes events one per tick and feeds them back through Engine.Apply;
// no state crosses the boundary by shared mutation.
type Event interface {
	isEvent()
}

// OperationUpdated reports a pending operation changing state
// (queued → running → succeeded/failed/cancelled).
type OperationUpdated struct {
	Op PendingOperation
}

func (OperationUpdated) isEvent() {}

// SectionRefreshed carries the result of one section refresh together with
// the sequence number that decides whether it may be applied.
type SectionRefreshed struct {
	Section Section
	Seq     uint64

	Status   *domain.StatusResult
	Commits  []domain.CommitRecord
	Branches []domain.BranchRef
	Remotes  []domain.Remote
	Stashes  []domain.StashEntry

	Err error
}

func (SectionRefreshed) isEvent() {}
