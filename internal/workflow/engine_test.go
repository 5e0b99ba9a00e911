package workflow

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/deixis/gitrun/internal/report"
	"github.com/deixis/gitrun/internal/runner"
	"github.com/deixis/gitrun/internal/spawn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeGit is a spawn.Spawner that replays canned output keyed by the git
// subcommand (the first argument not starting with -).
type fakeGit struct {
	out   map[string]string
	codes map[string]int
	calls [][]string
}

func (f *fakeGit) Spawn(args []string, _ string) (spawn.Process, error) {
	f.calls = append(f.calls, args)
	key := subcommand(args)
	ch := make(chan spawn.Event, 5)
	ch <- spawn.Chunk(spawn.Stdout, []byte(f.out[key]))
	ch <- spawn.EndOf(spawn.Stdout)
	ch <- spawn.EndOf(spawn.Stderr)
	ch <- spawn.Exited(f.codes[key], "")
	close(ch)
	return events(ch), nil
}

type events chan spawn.Event

func (e events) Events() <-chan spawn.Event { return e }

func subcommand(args []string) string {
	for _, a := range args {
		if len(a) > 0 && a[0] != '-' {
			return a
		}
	}
	return ""
}

type memStore struct{ recs []*report.Record }

func (m *memStore) Save(r *report.Record) error {
	m.recs = append(m.recs, r)
	return nil
}

func (m *memStore) Load(string) (*report.Record, error) { return nil, report.ErrNotFound }

func newEngine(f *fakeGit, history report.Store) *Engine {
	return &Engine{Runner: &runner.Runner{Spawner: f}, History: history, RepoRoot: "/repo"}
}

func TestEngine_Status(t *testing.T) {
	f := &fakeGit{out: map[string]string{"status": "## main\x00?? new.txt\x00"}}
	hist := &memStore{}
	e := newEngine(f, hist)

	st, id, err := e.Status(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "main", st.Branch)
	require.Len(t, st.Entries, 1)
	assert.True(t, st.Entries[0].Untracked())

	require.Len(t, hist.recs, 1)
	assert.Equal(t, id, hist.recs[0].ID)
	assert.Equal(t, "getStatus", hist.recs[0].Label)
}

func TestEngine_StatusFailureRecorded(t *testing.T) {
	f := &fakeGit{codes: map[string]int{"status": 128}}
	hist := &memStore{}
	e := newEngine(f, hist)

	_, _, err := e.Status(context.Background())
	code, ok := runner.ExitCode(err)
	require.True(t, ok)
	assert.Equal(t, 128, code)
	require.Len(t, hist.recs, 1)
	assert.True(t, hist.recs[0].Failed())
	assert.Equal(t, 128, hist.recs[0].ExitCode)
}

func TestEngine_HasChanges(t *testing.T) {
	for code, want := range map[int]bool{0: false, 1: true} {
		f := &fakeGit{codes: map[string]int{"diff": code}}
		got, err := newEngine(f, nil).HasChanges(context.Background(), "a.txt")
		require.NoError(t, err)
		assert.Equal(t, want, got, "exit %d", code)
		assert.Equal(t, []string{"diff", "--quiet", "--", "a.txt"}, f.calls[0])
	}
}

func TestEngine_HasChangesError(t *testing.T) {
	f := &fakeGit{codes: map[string]int{"diff": 129}}
	_, err := newEngine(f, nil).HasChanges(context.Background())
	require.Error(t, err)
}

func TestEngine_CurrentBranch(t *testing.T) {
	f := &fakeGit{out: map[string]string{"rev-parse": "feature/x\n"}}
	got, err := newEngine(f, nil).CurrentBranch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "feature/x", got)
}

func TestEngine_ExecCustomCodes(t *testing.T) {
	f := &fakeGit{codes: map[string]int{"merge-base": 1}}
	e := newEngine(f, nil)
	run := e.Exec(context.Background(), "isAncestor", []string{"merge-base", "--is-ancestor", "a", "b"}, runner.Codes(0, 1))
	require.NoError(t, run.Err)
	assert.Equal(t, 1, run.Result.ExitCode)
	assert.NotEmpty(t, run.ID)
}

// --- real git ---

func gitRepo(t *testing.T) string {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not available")
	}
	dir := t.TempDir()
	for _, args := range [][]string{
		{"init", "-q", "-b", "main"},
		{"config", "user.email", "test@example.com"},
		{"config", "user.name", "Test"},
	} {
		cmd := exec.Command("git", args...)
		cmd.Dir = dir
		if out, err := cmd.CombinedOutput(); err != nil {
			t.Skipf("git %v: %v\n%s", args, err, out)
		}
	}
	return dir
}

func TestEngine_RealGitStatus(t *testing.T) {
	dir := gitRepo(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "hello world.txt"), []byte("hi\n"), 0o644))

	e := &Engine{Runner: &runner.Runner{}, RepoRoot: dir}
	st, _, err := e.Status(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "main", st.Branch)
	require.Len(t, st.Entries, 1)
	assert.Equal(t, "hello world.txt", st.Entries[0].Path)
	assert.True(t, st.Entries[0].Untracked())

	changed, err := e.HasChanges(context.Background())
	require.NoError(t, err)
	assert.False(t, changed, "untracked files are not diffs")
}

func TestEngine_RealGitUnknownCommand(t *testing.T) {
	dir := gitRepo(t)
	e := &Engine{Runner: &runner.Runner{}, RepoRoot: dir}
	run := e.Exec(context.Background(), "bogus", []string{"definitely-not-a-command"}, nil)
	require.Error(t, run.Err)
	assert.Contains(t, run.Err.Error(), "bogus returned an unexpected exit code '1'")
}
