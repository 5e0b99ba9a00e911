package mcp

import (
	"context"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type inspectParams struct {
	RunID  string `json:"run_id" jsonschema:"the run ID from a git_run or git_status result"`
	Stream string `json:"stream,omitempty" jsonschema:"which output to return: stdout, stderr, or both (default)"`
}

func (h *handler) inspectHandler(ctx context.Context, req *mcp.CallToolRequest, params inspectParams) (*mcp.CallToolResult, any, error) {
	if params.RunID == "" {
		return errorResult("run_id is required")
	}

	rec, err := h.history.Load(params.RunID)
	if err != nil {
		return errorResult(fmt.Sprintf("Failed to load run %s: %v", params.RunID, err))
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Run: %s (%s: git %s)\n", rec.ID, rec.Label, strings.Join(rec.Args, " "))
	fmt.Fprintf(&b, "Exit code: %d\n", rec.ExitCode)
	if rec.Failed() {
		fmt.Fprintf(&b, "Error: %s\n", rec.Error)
	}

	switch params.Stream {
	case "stdout":
		writeStream(&b, "stdout", rec.Stdout)
	case "stderr":
		writeStream(&b, "stderr", rec.Stderr)
	case "", "both":
		writeStream(&b, "stdout", rec.Stdout)
		writeStream(&b, "stderr", rec.Stderr)
	default:
		return errorResult(fmt.Sprintf("unknown stream %q: want stdout, stderr, or both", params.Stream))
	}
	return textResult(b.String())
}

type historyParams struct {
	Limit int `json:"limit,omitempty" jsonschema:"maximum number of runs to list (default 10)"`
}

func (h *handler) historyHandler(ctx context.Context, req *mcp.CallToolRequest, params historyParams) (*mcp.CallToolResult, any, error) {
	limit := params.Limit
	if limit <= 0 {
		limit = 10
	}
	recs := h.history.Recent(limit)
	if len(recs) == 0 {
		return textResult("No runs yet.")
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Recent runs (%d):\n", len(recs))
	for _, r := range recs {
		fmt.Fprintf(&b, "  %s  [%s]\n", r.Summary(), r.Label)
	}
	return textResult(b.String())
}
