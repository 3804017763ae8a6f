// Package domain provides the repository data model for githydra.
package domain

import "time"

// StatusKind classifies a file's inclusion state relative to the next commit.
type StatusKind int

const (
	StatusStaged StatusKind = iota
	StatusUnstaged
	StatusUntracked
	StatusConflicted
)

func (k StatusKind) String() string {
	switch k {
	case StatusStaged:
		return "staged"
	case StatusUnstaged:
		return "unstaged"
	case StatusUntracked:
		return "untracked"
	case StatusConflicted:
		return "conflicted"
	default:
		return "unknown"
	}
}

// FileEntry is one file in the status view.
type FileEntry struct {
	Path   string
	Kind   StatusKind
	Change string // porcelain change code, e.g. "M", "A", "D", "??"

	// Fingerprint identifies the content this entry's diff derives from.
	// For staged entries it is the index blob hash; for unstaged and
	// untracked entries it is a worktree mtime/size identity.
	Fingerprint string
}

// CommitRecord is one entry in the log view.
type CommitRecord struct {
	Hash      string
	ShortHash string
	Author    string
	Date      time.Time
	Subject   string
	Parents   []string // parent hashes, ordered
}

// BranchKind distinguishes local from remote-tracking branches.
type BranchKind int

const (
	BranchLocal BranchKind = iota
	BranchRemote
)

// BranchRef is one entry in the branches view.
type BranchRef struct {
	Name      string
	Kind      BranchKind
	Upstream  string // remote-tracking counterpart, empty if none
	Head      string // commit id the branch points at
	IsCurrent bool
}

// StashEntry is one entry in the stash view.
type StashEntry struct {
	Index   int
	Message string
	Commit  string // commit id of the stash
}

// Remote is a configured remote with its fetch URL.
type Remote struct {
	Name string
	URL  string
}

// StatusResult is everything a single status refresh produces.
type StatusResult struct {
	Branch   string
	Head     string // HEAD commit id, empty in an unborn repository
	Upstream string // upstream of the current branch, empty if none
	Ahead    int
	Behind   int
	Files    []FileEntry
}

// RepositorySnapshot is an immutable, fully-formed picture of repository
// state. It is replaced wholesale on every refresh, never mutated in place.
type RepositorySnapshot struct {
	Branch   string
	Head     string
	Upstream string
	Ahead    int
	Behind   int
	Files    []FileEntry
	Commits  []CommitRecord
	Branches []BranchRef
	Remotes  []Remote
	Stashes  []StashEntry
}

// StagedFiles returns the staged subset of Files, in order.
func (s RepositorySnapshot) StagedFiles() []FileEntry {
	var out []FileEntry
	for _, f := range s.Files {
		if f.Kind == StatusStaged {
			out = append(out, f)
		}
	}
	return out
}

// LineTag classifies a diff line.
type LineTag int

const (
	LineContext LineTag = iota
	LineAdded
	LineRemoved
)

// Segment marks a half-open byte range of a diff line that changed,
// used for intraline highlighting.
type Segment struct {
	Start int
	End   int
}

// DiffLine is one line of a rendered hunk.
type DiffLine struct {
	Tag      LineTag
	Text     string
	Segments []Segment // intraline changed ranges, added/removed lines only
}

// DiffHunk is one hunk of a rendered diff.
type DiffHunk struct {
	Header string // "@@ -a,b +c,d @@ ..." line
	Lines  []DiffLine
}
