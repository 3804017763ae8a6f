package infrastructure

import (
	"bufio"
	"fmt"
	"strconv"
	"strings"
	"time"

	domain "github.com/zjrosen/githydra/internal/git/domain"
)

// Field separators used in --pretty/--format strings. Unit and record
// separators survive arbitrary commit messages, unlike tabs or newlines.
const (
	unitSep   = "\x1f"
	recordSep = "\x1e"
)

// parseStatusV2 parses `git status --porcelain=v2 --branch` output.
// Worktree fingerprints are resolved afterwards by the caller; this
// function fills in index blob hashes for staged entries only.
func parseStatusV2(out string) (domain.StatusResult, error) {
	var res domain.StatusResult

	scanner := bufio.NewScanner(strings.NewReader(out))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}

		switch line[0] {
		case '#':
			parseBranchHeader(line, &res)
		case '1':
			// 1 XY sub mH mI mW hH hI path
			fields := strings.SplitN(line, " ", 9)
			if len(fields) < 9 {
				return res, fmt.Errorf("malformed status entry: %q", line)
			}
			xy, hashIndex, path := fields[1], fields[7], fields[8]
			appendChanged(&res, xy, hashIndex, path)
		case '2':
			// 2 XY sub mH mI mW hH hI Xscore path\torigPath
			fields := strings.SplitN(line, " ", 10)
			if len(fields) < 10 {
				return res, fmt.Errorf("malformed rename entry: %q", line)
			}
			xy, hashIndex := fields[1], fields[7]
			path := fields[9]
			if i := strings.IndexByte(path, '\t'); i >= 0 {
				path = path[:i] // new name
			}
			appendChanged(&res, xy, hashIndex, path)
		case 'u':
			fields := strings.SplitN(line, " ", 11)
			if len(fields) < 11 {
				return res, fmt.Errorf("malformed unmerged entry: %q", line)
			}
			res.Files = append(res.Files, domain.FileEntry{
				Path:   fields[10],
				Kind:   domain.StatusConflicted,
				Change: fields[1],
			})
		case '?':
			res.Files = append(res.Files, domain.FileEntry{
				Path:   strings.TrimPrefix(line, "? "),
				Kind:   domain.StatusUntracked,
				Change: "??",
			})
		case '!':
			// Ignored entries are not shown.
		}
	}

	if err := scanner.Err(); err != nil {
		return res, fmt.Errorf("scanning status output: %w", err)
	}
	return res, nil
}

func parseBranchHeader(line string, res *domain.StatusResult) {
	switch {
	case strings.HasPrefix(line, "# branch.oid "):
		oid := strings.TrimPrefix(line, "# branch.oid ")
		if oid != "(initial)" {
			res.Head = oid
		}
	case strings.HasPrefix(line, "# branch.head "):
		res.Branch = strings.TrimPrefix(line, "# branch.head ")
	case strings.HasPrefix(line, "# branch.upstream "):
		res.Upstream = strings.TrimPrefix(line, "# branch.upstream ")
	case strings.HasPrefix(line, "# branch.ab "):
		ab := strings.TrimPrefix(line, "# branch.ab ")
		parts := strings.Fields(ab)
		if len(parts) == 2 {
			res.Ahead, _ = strconv.Atoi(strings.TrimPrefix(parts[0], "+"))
			res.Behind, _ = strconv.Atoi(strings.TrimPrefix(parts[1], "-"))
		}
	}
}

// appendChanged emits a staged entry when X is set and an unstaged entry
// when Y is set. A file modified in both index and worktree yields two
// entries, matching how the status view lists it twice.
func appendChanged(res *domain.StatusResult, xy, hashIndex, path string) {
	if len(xy) != 2 {
		return
	}
	if x := xy[0]; x != '.' {
		res.Files = append(res.Files, domain.FileEntry{
			Path:        path,
			Kind:        domain.StatusStaged,
			Change:      string(x),
			Fingerprint: hashIndex,
		})
	}
	if y := xy[1]; y != '.' {
		res.Files = append(res.Files, domain.FileEntry{
			Path:   path,
			Kind:   domain.StatusUnstaged,
			Change: string(y),
		})
	}
}

// logFormat is the --pretty format for parseLog.
const logFormat = "%H%x1f%h%x1f%an%x1f%at%x1f%P%x1f%s%x1e"

// parseLog parses records produced by logFormat.
func parseLog(out string) ([]domain.CommitRecord, error) {
	var commits []domain.CommitRecord

	for _, record := range strings.Split(out, recordSep) {
		record = strings.TrimLeft(record, "\n")
		if record == "" {
			continue
		}
		fields := strings.Split(record, unitSep)
		if len(fields) != 6 {
			return nil, fmt.Errorf("malformed log record: %q", record)
		}

		unix, err := strconv.ParseInt(fields[3], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("malformed commit timestamp %q: %w", fields[3], err)
		}

		var parents []string
		if fields[4] != "" {
			parents = strings.Fields(fields[4])
		}

		commits = append(commits, domain.CommitRecord{
			Hash:      fields[0],
			ShortHash: fields[1],
			Author:    fields[2],
			Date:      time.Unix(unix, 0),
			Parents:   parents,
			Subject:   fields[5],
		})
	}

	return commits, nil
}

// branchFormat is the --format for parseBranches, tab separated.
const branchFormat = "%(refname)%09%(refname:short)%09%(objectname)%09%(upstream:short)%09%(HEAD)"

// parseBranches parses `git for-each-ref refs/heads refs/remotes` output.
func parseBranches(out string) ([]domain.BranchRef, error) {
	var branches []domain.BranchRef

	scanner := bufio.NewScanner(strings.NewReader(out))
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		fields := strings.Split(line, "\t")
		if len(fields) != 5 {
			return nil, fmt.Errorf("malformed branch entry: %q", line)
		}
		refname, short, head, upstream, headMark := fields[0], fields[1], fields[2], fields[3], fields[4]

		// Symbolic refs like origin/HEAD are noise in the branch list.
		if strings.HasSuffix(refname, "/HEAD") {
			continue
		}

		kind := domain.BranchLocal
		if strings.HasPrefix(refname, "refs/remotes/") {
			kind = domain.BranchRemote
		}

		branches = append(branches, domain.BranchRef{
			Name:      short,
			Kind:      kind,
			Upstream:  upstream,
			Head:      head,
			IsCurrent: headMark == "*",
		})
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scanning branch output: %w", err)
	}
	return branches, nil
}

// stashFormat is the --format for parseStashList, tab separated.
const stashFormat = "%gd%x09%H%x09%gs"

// parseStashList parses `git stash list` output.
func parseStashList(out string) ([]domain.StashEntry, error) {
	var stashes []domain.StashEntry

	scanner := bufio.NewScanner(strings.NewReader(out))
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		fields := strings.SplitN(line, "\t", 3)
		if len(fields) != 3 {
			return nil, fmt.Errorf("malformed stash entry: %q", line)
		}

		// %gd renders as stash@{N}.
		sel := fields[0]
		open := strings.IndexByte(sel, '{')
		end := strings.IndexByte(sel, '}')
		if open < 0 || end < open {
			return nil, fmt.Errorf("malformed stash selector: %q", sel)
		}
		index, err := strconv.Atoi(sel[open+1 : end])
		if err != nil {
			return nil, fmt.Errorf("malformed stash selector %q: %w", sel, err)
		}

		stashes = append(stashes, domain.StashEntry{
			Index:   index,
			Commit:  fields[1],
			Message: fields[2],
		})
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scanning stash output: %w", err)
	}
	return stashes, nil
}

// parseRemotes parses `git remote -v` output, keeping fetch URLs.
func parseRemotes(out string) []domain.Remote {
	var remotes []domain.Remote
	seen := make(map[string]bool)

	scanner := bufio.NewScanner(strings.NewReader(out))
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 2 || seen[fields[0]] {
			continue
		}
		seen[fields[0]] = true
		remotes = append(remotes, domain.Remote{Name: fields[0], URL: fields[1]})
	}
	return remotes
}
