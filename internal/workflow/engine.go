// Package workflow provides the git operations exposed by gitrun. Each
// operation builds an argument list, runs it through the runner, records
// the run in the history, and interprets the captured output. It is
// consumed by both the MCP server and the CLI commands.
package workflow

import (
	"context"
	"time"

	"github.com/deixis/gitrun/internal/report"
	"github.com/deixis/gitrun/internal/runner"
)

// Engine holds shared dependencies for all workflow operations.
type Engine struct {
	Runner   *runner.Runner
	History  report.Store // optional; every run is saved when set
	RepoRoot string       // working directory for every command
}

// Run is the outcome of one Exec call.
type Run struct {
	ID     string
	Result *runner.Result // nil when Err is set
	Err    error
}

// Exec runs git with args in the repository root. codes is the success
// exit-code set; nil means {0}.
func (e *Engine) Exec(ctx context.Context, label string, args []string, codes runner.ExitCodeSet) *Run {
	cmd := runner.Command{
		Args:             args,
		Dir:              e.RepoRoot,
		Label:            label,
		SuccessExitCodes: codes,
	}

	started := time.Now()
	inv := e.Runner.Start(cmd)
	res, err := inv.Wait(ctx)
	took := time.Since(started)

	if e.History != nil && ctx.Err() == nil {
		// History is best effort; a failed save must not fail the run.
		_ = e.History.Save(report.NewRecord(inv.ID(), cmd, res, err, started, took))
	}

	return &Run{ID: inv.ID(), Result: res, Err: err}
}
