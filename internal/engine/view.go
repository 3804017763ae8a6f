package engine

// ViewKind identifies one of the five views.
type ViewKind int

const (
	ViewStatus ViewKind = iota
	ViewLog
	ViewBranches
	ViewRemote
	ViewStash
)

func (v ViewKind) String() string {
	switch v {
	case ViewStatus:
		return "Status"
	case ViewLog:
		return "Log"
	case ViewBranches:
		return "Branches"
	case ViewRemote:
		return "Remote"
	case ViewStash:
		return "Stash"
	default:
		return "Unknown"
	}
}

// AllViews lists the views in tab order.
func AllViews() []ViewKind {
	return []ViewKind{ViewStatus, ViewLog, ViewBranches, ViewRemote, ViewStash}
}

// Action is a discrete input delivered by the input layer.
type Action interface {
	isAction()
}

// MoveSelection moves the active view's cursor by Delta, clamped to the
// list bounds.
type MoveSelection struct{ Delta int }

// SwitchView changes the current view without touching any cursor.
type SwitchView struct{ View ViewKind }

// StageSelected stages the file under the cursor in the status view.
type StageSelected struct{}

// UnstageSelected unstages the file under the cursor in the status view.
type UnstageSelected struct{}

// Commit commits the staged files with the given message.
type Commit struct{ Message string }

// CreateBranch creates a branch at the current HEAD.
type CreateBranch struct{ Name string }

// Checkout checks out the given ref, or the selected branch when empty.
type Checkout struct{ Ref string }

// DeleteBranch deletes the selected local branch.
type DeleteBranch struct {
	Name  string
	Force bool
}

// StashSave stashes the working tree with the given message.
type StashSave struct{ Message string }

// StashPop pops the stash entry at Index.
type StashPop struct{ Index int }

// StashDrop drops the stash entry at Index.
type StashDrop struct{ Index int }

// Push pushes Branch to Remote; empty fields default to the current
// branch and its remote.
type Push struct{ Remote, Branch string }

// Pull pulls Branch from Remote; empty fields default like Push.
type Pull struct{ Remote, Branch string }

// CancelPending cancels the in-flight network operation, if any.
type CancelPending struct{}

// Refresh requests an immediate refresh of every section.
type Refresh struct{}

func (MoveSelection) isAction()   {}
func (SwitchView) isAction()      {}
func (StageSelected) isAction()   {}
func (UnstageSelected) isAction() {}
func (Commit) isAction()          {}
func (CreateBranch) isAction()    {}
func (Checkout) isAction()        {}
func (DeleteBranch) isAction()    {}
func (StashSave) isAction()       {}
func (StashPop) isAction()        {}
func (StashDrop) isAction()       {}
func (Push) isAction()            {}
func (Pull) isAction()            {}
func (CancelPending) isAction()   {}
func (Refresh) isAction()         {}

// RenderRow is one line of a view list in the render model.
type RenderRow struct {
	Text   string
	Marker string // short leading marker: change code, current-branch star
}

// RenderModel is the pure per-frame picture handed to the renderer. It
// carries no behavior and references no mutable engine state.
type RenderModel struct {
	View     ViewKind
	Rows     []RenderRow
	Cursor   int
	Branch   string
	Head     string
	Upstream string
	Ahead    int
	Behind   int

	Banner      string
	BannerError bool
	Running     string // description of the running operation, if any
}
