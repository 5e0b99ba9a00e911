package workflow

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/deixis/gitrun/internal/runner"
)

// Status is the parsed output of `git status --porcelain=v1 -z --branch`.
type Status struct {
	Branch   string        `json:"branch"`             // empty when HEAD is detached
	Upstream string        `json:"upstream,omitempty"` // e.g. origin/main
	Ahead    int           `json:"ahead,omitempty"`
	Behind   int           `json:"behind,omitempty"`
	Entries  []StatusEntry `json:"entries,omitempty"`
}

// Clean reports whether there are no changed or untracked entries.
func (s *Status) Clean() bool { return len(s.Entries) == 0 }

// StatusEntry is one changed path.
type StatusEntry struct {
	Index    string `json:"index"`     // X: staged state
	Worktree string `json:"worktree"`  // Y: unstaged state
	Path     string `json:"path"`
	OrigPath string `json:"orig_path,omitempty"` // source of a rename or copy
}

// Untracked reports whether the entry is an untracked file.
func (e StatusEntry) Untracked() bool { return e.Index == "?" && e.Worktree == "?" }

// renamedOrCopied reports whether porcelain -z follows the entry with its
// source path. Either column may carry R or C.
func (e StatusEntry) renamedOrCopied() bool {
	return e.Index == "R" || e.Index == "C" || e.Worktree == "R" || e.Worktree == "C"
}

// Conflicted reports whether the entry is an unmerged path.
func (e StatusEntry) Conflicted() bool {
	switch e.Index + e.Worktree {
	case "DD", "AU", "UD", "UA", "DU", "AA", "UU":
		return true
	}
	return false
}

func (e StatusEntry) String() string {
	if e.OrigPath != "" {
		return fmt.Sprintf("%s%s %s -> %s", e.Index, e.Worktree, e.OrigPath, e.Path)
	}
	return fmt.Sprintf("%s%s %s", e.Index, e.Worktree, e.Path)
}

// Status runs git status and parses the result.
func (e *Engine) Status(ctx context.Context) (*Status, string, error) {
	run := e.Exec(ctx, "getStatus", []string{
		"--no-optional-locks", "status", "--untracked-files=all", "--branch", "--porcelain=v1", "-z",
	}, nil)
	if run.Err != nil {
		return nil, run.ID, run.Err
	}
	st, err := ParseStatus(run.Result.Stdout)
	return st, run.ID, err
}

// ParseStatus parses NUL-terminated porcelain v1 status output with a
// branch header. Paths are returned verbatim.
func ParseStatus(out []byte) (*Status, error) {
	st := &Status{}
	fields := bytes.Split(out, []byte{0})
	for i := 0; i < len(fields); i++ {
		f := string(fields[i])
		if f == "" {
			continue
		}
		if strings.HasPrefix(f, "## ") {
			parseBranch(st, f[3:])
			continue
		}
		if len(f) < 4 || f[2] != ' ' {
			return nil, fmt.Errorf("malformed status entry %q", f)
		}
		entry := StatusEntry{Index: f[0:1], Worktree: f[1:2], Path: f[3:]}
		if entry.renamedOrCopied() {
			i++
			if i >= len(fields) || len(fields[i]) == 0 {
				return nil, fmt.Errorf("status entry %q is missing its original path", f)
			}
			entry.OrigPath = string(fields[i])
		}
		st.Entries = append(st.Entries, entry)
	}
	return st, nil
}

// parseBranch handles headers such as
//
//	main...origin/main [ahead 1, behind 2]
//	No commits yet on main
//	HEAD (no branch)
func parseBranch(st *Status, h string) {
	if rest, ok := strings.CutPrefix(h, "No commits yet on "); ok {
		st.Branch = rest
		return
	}
	if rest, ok := strings.CutPrefix(h, "Initial commit on "); ok {
		st.Branch = rest
		return
	}
	if strings.HasPrefix(h, "HEAD (no branch)") {
		return
	}

	track := ""
	if i := strings.Index(h, " ["); i >= 0 && strings.HasSuffix(h, "]") {
		track = h[i+2 : len(h)-1]
		h = h[:i]
	}
	if local, upstream, ok := strings.Cut(h, "..."); ok {
		st.Branch, st.Upstream = local, upstream
	} else {
		st.Branch = h
	}

	for _, part := range strings.Split(track, ", ") {
		kind, n, ok := strings.Cut(part, " ")
		if !ok {
			continue
		}
		v, err := strconv.Atoi(n)
		if err != nil {
			continue
		}
		switch kind {
		case "ahead":
			st.Ahead = v
		case "behind":
			st.Behind = v
		}
	}
}

// HasChanges reports whether the working tree differs from the index,
// optionally restricted to paths. git diff --quiet exits 1 when it does.
func (e *Engine) HasChanges(ctx context.Context, paths ...string) (bool, error) {
	args := []string{"diff", "--quiet"}
	if len(paths) > 0 {
		args = append(append(args, "--"), paths...)
	}
	run := e.Exec(ctx, "hasChanges", args, runner.Codes(0, 1))
	if run.Err != nil {
		return false, run.Err
	}
	return run.Result.ExitCode == 1, nil
}

// CurrentBranch returns the checked-out branch name, or "HEAD" when
// detached.
func (e *Engine) CurrentBranch(ctx context.Context) (string, error) {
	run := e.Exec(ctx, "getCurrentBranch", []string{"rev-parse", "--abbrev-ref", "HEAD"}, nil)
	if run.Err != nil {
		return "", run.Err
	}
	return strings.TrimSpace(string(run.Result.Stdout)), nil
}
