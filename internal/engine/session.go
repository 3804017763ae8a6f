package engine

import (
	"fmt"

	"github.com/google/uuid"

	domain "github.com/zjrosen/githydra/internal/git/domain"
	"github.com/zjrosen/githydra/internal/log"
)

// SessionState owns the interface-facing state: the current view, one
// cursor per view, the published snapshot, the error banner and the set of
// unresolved operations. It is mutated only from the interface loop, via
// Engine.Dispatch and Engine.Apply, so it needs no locking.
type SessionState struct {
	view     ViewKind
	cursors  map[ViewKind]int
	snapshot domain.RepositorySnapshot

	appliedSeq map[Section]uint64

	banner      string
	bannerError bool

	pending map[uuid.UUID]PendingOperation
}

// NewSessionState creates an empty session positioned on the status view.
func NewSessionState() *SessionState {
	return &SessionState{
		view:       ViewStatus,
		cursors:    make(map[ViewKind]int),
		appliedSeq: make(map[Section]uint64),
		pending:    make(map[uuid.UUID]PendingOperation),
	}
}

// View returns the current view.
func (s *SessionState) View() ViewKind { return s.view }

// Snapshot returns the latest published snapshot.
func (s *SessionState) Snapshot() domain.RepositorySnapshot { return s.snapshot }

// Cursor returns the cursor of the given view.
func (s *SessionState) Cursor(v ViewKind) int { return s.cursors[v] }

// SwitchView changes the current view. The target view's cursor is left
// where it was.
func (s *SessionState) SwitchView(v ViewKind) {
	s.view = v
}

// MoveSelection moves the active view's cursor by delta, clamped into
// [0, len-1]. A no-op when the list is empty.
func (s *SessionState) MoveSelection(delta int) {
	length := s.listLen(s.view)
	if length == 0 {
		s.cursors[s.view] = 0
		return
	}
	s.cursors[s.view] = clamp(s.cursors[s.view]+delta, 0, length-1)
}

func (s *SessionState) listLen(v ViewKind) int {
	switch v {
	case ViewStatus:
		return len(s.snapshot.Files)
	case ViewLog:
		return len(s.snapshot.Commits)
	case ViewBranches:
		return len(s.snapshot.Branches)
	case ViewRemote:
		return len(s.snapshot.Remotes)
	case ViewStash:
		return len(s.snapshot.Stashes)
	default:
		return 0
	}
}

// SelectedFile returns the file under the status view's cursor.
func (s *SessionState) SelectedFile() (domain.FileEntry, bool) {
	i := s.cursors[ViewStatus]
	if i < 0 || i >= len(s.snapshot.Files) {
		return domain.FileEntry{}, false
	}
	return s.snapshot.Files[i], true
}

// SelectedBranch returns the branch under the branches view's cursor.
func (s *SessionState) SelectedBranch() (domain.BranchRef, bool) {
	i := s.cursors[ViewBranches]
	if i < 0 || i >= len(s.snapshot.Branches) {
		return domain.BranchRef{}, false
	}
	return s.snapshot.Branches[i], true
}

// SelectedStash returns the stash entry under the stash view's cursor.
func (s *SessionState) SelectedStash() (domain.StashEntry, bool) {
	i := s.cursors[ViewStash]
	if i < 0 || i >= len(s.snapshot.Stashes) {
		return domain.StashEntry{}, false
	}
	return s.snapshot.Stashes[i], true
}

// SelectedRemote returns the remote under the remote view's cursor.
func (s *SessionState) SelectedRemote() (domain.Remote, bool) {
	i := s.cursors[ViewRemote]
	if i < 0 || i >= len(s.snapshot.Remotes) {
		return domain.Remote{}, false
	}
	return s.snapshot.Remotes[i], true
}

// ApplySection folds a refresh result into the published snapshot. The
// result is applied only if its sequence number is the highest seen for
// its section; stale results are discarded and logged, never shown.
// Returns true if the snapshot was replaced.
func (s *SessionState) ApplySection(ev SectionRefreshed) bool {
	if ev.Seq <= s.appliedSeq[ev.Section] {
		log.Info(log.CatEngine, "stale refresh discarded",
			"section", ev.Section.String(), "seq", ev.Seq, "applied", s.appliedSeq[ev.Section])
		return false
	}

	if ev.Err != nil {
		// The refresh consumed the sequence number but produced nothing;
		// keep the previous snapshot and surface the failure.
		s.appliedSeq[ev.Section] = ev.Seq
		s.setError(fmt.Sprintf("refresh %s: %v", ev.Section, ev.Err))
		return false
	}

	s.appliedSeq[ev.Section] = ev.Seq

	// The snapshot is immutable: build a replacement, never patch.
	next := s.snapshot
	switch ev.Section {
	case SectionStatus:
		next.Branch = ev.Status.Branch
		next.Head = ev.Status.Head
		next.Upstream = ev.Status.Upstream
		next.Ahead = ev.Status.Ahead
		next.Behind = ev.Status.Behind
		next.Files = ev.Status.Files
	case SectionLog:
		next.Commits = ev.Commits
	case SectionBranches:
		next.Branches = ev.Branches
		next.Remotes = ev.Remotes
	case SectionStash:
		next.Stashes = ev.Stashes
	}
	s.snapshot = next

	s.clampAllCursors()
	return true
}

// ApplyOperation records an operation state change: tracks it while
// unresolved, sets the banner on failure, clears it on success, and
// discards it once terminal.
func (s *SessionState) ApplyOperation(ev OperationUpdated) {
	op := ev.Op
	switch op.Status {
	case OpQueued, OpRunning:
		s.pending[op.ID] = op
	case OpSucceeded:
		delete(s.pending, op.ID)
		s.clearBanner()
	case OpCancelled:
		delete(s.pending, op.ID)
		s.setInfo(fmt.Sprintf("%s cancelled", op.Kind))
	case OpFailed:
		delete(s.pending, op.ID)
		s.setError(fmt.Sprintf("%s failed: %s", op.Describe(), op.FailureKind()))
	}
}

// RunningNetworkOp returns the in-flight cancellable operation, if any.
func (s *SessionState) RunningNetworkOp() (PendingOperation, bool) {
	for _, op := range s.pending {
		if op.Kind.IsNetwork() && !op.Status.Terminal() {
			return op, true
		}
	}
	return PendingOperation{}, false
}

// ClearBannerOnInput clears a lingering banner; the input layer calls this
// on any keypress so errors do not stick around forever.
func (s *SessionState) ClearBannerOnInput() {
	s.clearBanner()
}

func (s *SessionState) setError(text string) {
	s.banner = text
	s.bannerError = true
}

func (s *SessionState) setInfo(text string) {
	s.banner = text
	s.bannerError = false
}

func (s *SessionState) clearBanner() {
	s.banner = ""
	s.bannerError = false
}

// clampAllCursors restores the selection invariant on every view after a
// snapshot replacement.
func (s *SessionState) clampAllCursors() {
	for _, v := range AllViews() {
		length := s.listLen(v)
		if length == 0 {
			s.cursors[v] = 0
			continue
		}
		s.cursors[v] = clamp(s.cursors[v], 0, length-1)
	}
}

// Render produces the pure per-frame model for the current view.
func (s *SessionState) Render() RenderModel {
	m := RenderModel{
		View:        s.view,
		Cursor:      s.cursors[s.view],
		Branch:      s.snapshot.Branch,
		Head:        s.snapshot.Head,
		Upstream:    s.snapshot.Upstream,
		Ahead:       s.snapshot.Ahead,
		Behind:      s.snapshot.Behind,
		Banner:      s.banner,
		BannerError: s.bannerError,
	}

	for _, op := range s.pending {
		if op.Status == OpRunning {
			m.Running = op.Describe()
			break
		}
	}

	switch s.view {
	case ViewStatus:
		for _, f := range s.snapshot.Files {
			m.Rows = append(m.Rows, RenderRow{Marker: f.Change, Text: fmt.Sprintf("%-10s %s", f.Kind, f.Path)})
		}
	case ViewLog:
		for _, c := range s.snapshot.Commits {
			m.Rows = append(m.Rows, RenderRow{Marker: c.ShortHash, Text: fmt.Sprintf("%s (%s)", c.Subject, c.Author)})
		}
	case ViewBranches:
		for _, b := range s.snapshot.Branches {
			marker := " "
			if b.IsCurrent {
				marker = "*"
			}
			text := b.Name
			if b.Upstream != "" {
				text = fmt.Sprintf("%s → %s", b.Name, b.Upstream)
			}
			m.Rows = append(m.Rows, RenderRow{Marker: marker, Text: text})
		}
	case ViewRemote:
		for _, r := range s.snapshot.Remotes {
			m.Rows = append(m.Rows, RenderRow{Marker: r.Name, Text: r.URL})
		}
	case ViewStash:
		for _, st := range s.snapshot.Stashes {
			m.Rows = append(m.Rows, RenderRow{Marker: fmt.Sprintf("{%d}", st.Index), Text: st.Message})
		}
	}

	return m
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
