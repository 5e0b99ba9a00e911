package mcp

import (
	"context"
	"fmt"
	"strings"

	"github.com/deixis/gitrun/internal/runner"
	"github.com/deixis/gitrun/internal/workflow"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type runParams struct {
	Args             []string `json:"args" jsonschema:"git arguments without the leading git (e.g. [\"log\", \"-5\", \"--oneline\"])"`
	Label            string   `json:"label,omitempty" jsonschema:"short name for the run, used in logs and error messages"`
	SuccessExitCodes []int    `json:"success_exit_codes,omitempty" jsonschema:"exit codes treated as success. Default: [0]."`
}

func (h *handler) runHandler(ctx context.Context, req *mcp.CallToolRequest, params runParams) (*mcp.CallToolResult, any, error) {
	if len(params.Args) == 0 {
		return errorResult("args is required")
	}
	label := params.Label
	if label == "" {
		label = params.Args[0]
	}
	// An explicit empty list means no exit code succeeds; only an absent
	// field selects the default.
	var codes runner.ExitCodeSet
	if params.SuccessExitCodes != nil {
		codes = runner.Codes(params.SuccessExitCodes...)
	}

	run := h.currentEngine().Exec(ctx, label, params.Args, codes)
	if run.Err != nil {
		h.log.With("run_id", run.ID).Warn(run.Err.Error())
		return errorResult(formatRunFailure(run))
	}
	return textResult(formatRun(run))
}

func formatRun(run *workflow.Run) string {
	var b strings.Builder
	res := run.Result
	fmt.Fprintln(&b, "Status: PASS")
	fmt.Fprintf(&b, "Run: %s\n", run.ID)
	fmt.Fprintf(&b, "Exit code: %d\n", res.ExitCode)
	writeStream(&b, "stdout", res.Stdout)
	writeStream(&b, "stderr", res.Stderr)
	return b.String()
}

func formatRunFailure(run *workflow.Run) string {
	var b strings.Builder
	fmt.Fprintln(&b, "Status: FAIL")
	fmt.Fprintf(&b, "Run: %s\n", run.ID)
	fmt.Fprintf(&b, "Error: %v\n", run.Err)
	return b.String()
}

// writeStream renders captured bytes for display. Invalid UTF-8 is
// replaced in the text only; stored output is untouched.
func writeStream(b *strings.Builder, name string, data []byte) {
	if len(data) == 0 {
		return
	}
	fmt.Fprintf(b, "\n%s (%d bytes):\n", name, len(data))
	b.WriteString(strings.ToValidUTF8(string(data), "�"))
	if data[len(data)-1] != '\n' {
		b.WriteByte('\n')
	}
}

type statusParams struct{}

func (h *handler) statusHandler(ctx context.Context, req *mcp.CallToolRequest, _ statusParams) (*mcp.CallToolResult, any, error) {
	st, runID, err := h.currentEngine().Status(ctx)
	if err != nil {
		return errorResult(fmt.Sprintf("git status failed (run %s): %v", runID, err))
	}
	return textResult(formatStatus(runID, st))
}

func formatStatus(runID string, st *workflow.Status) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Run: %s\n", runID)

	switch {
	case st.Branch == "":
		fmt.Fprintln(&b, "Branch: (detached HEAD)")
	case st.Upstream != "":
		fmt.Fprintf(&b, "Branch: %s -> %s", st.Branch, st.Upstream)
		if st.Ahead > 0 || st.Behind > 0 {
			fmt.Fprintf(&b, " (ahead %d, behind %d)", st.Ahead, st.Behind)
		}
		fmt.Fprintln(&b)
	default:
		fmt.Fprintf(&b, "Branch: %s\n", st.Branch)
	}
	fmt.Fprintln(&b)

	if st.Clean() {
		fmt.Fprintln(&b, "Working tree clean.")
		return b.String()
	}

	fmt.Fprintf(&b, "Changes (%d):\n", len(st.Entries))
	for _, e := range st.Entries {
		fmt.Fprintf(&b, "  %s\n", strings.ToValidUTF8(e.String(), "�"))
	}
	return b.String()
}

type hasChangesParams struct {
	Paths []string `json:"paths,omitempty" jsonschema:"limit the check to these paths (default: whole repository)"`
}

func (h *handler) hasChangesHandler(ctx context.Context, req *mcp.CallToolRequest, params hasChangesParams) (*mcp.CallToolResult, any, error) {
	changed, err := h.currentEngine().HasChanges(ctx, params.Paths...)
	if err != nil {
		return errorResult(fmt.Sprintf("git diff --quiet failed: %v", err))
	}
	scope := "Working tree"
	if len(params.Paths) > 0 {
		scope = strings.Join(params.Paths, ", ")
	}
	if changed {
		return textResult(scope + " has unstaged changes.")
	}
	return textResult(scope + " matches the index.")
}
