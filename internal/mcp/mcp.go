// Package mcp provides the gitrun MCP server, registering the git tools
// and publishing model instructions.
package mcp

import (
	"context"
	_ "embed"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/deixis/gitrun"
	"github.com/deixis/gitrun/internal/config"
	"github.com/deixis/gitrun/internal/logging"
	"github.com/deixis/gitrun/internal/report"
	"github.com/deixis/gitrun/internal/spawn"
	"github.com/deixis/gitrun/internal/workflow"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

//go:embed instructions.md
var Instructions string

// History is the run store used by the server. report.LRUStore implements it.
type History interface {
	report.Store
	Recent(n int) []*report.Record
}

// handler holds shared dependencies for all tool handlers.
type handler struct {
	history History
	log     *logging.Logger

	mu     sync.RWMutex
	engine *workflow.Engine // replaced, never mutated, when roots change
}

// NewServer creates an MCP server with all gitrun tools registered. The
// engine's history is replaced by history so every tool call is recorded.
// A nil log discards everything.
func NewServer(engine *workflow.Engine, history History, log *logging.Logger) *mcp.Server {
	if log == nil {
		log = logging.Nop()
	}
	engine.History = history
	h := &handler{engine: engine, history: history, log: log.WithComponent("mcp")}

	opts := &mcp.ServerOptions{
		Instructions: Instructions,
		Capabilities: &mcp.ServerCapabilities{
			Tools: &mcp.ToolCapabilities{ListChanged: false},
		},
		InitializedHandler: func(ctx context.Context, req *mcp.InitializedRequest) {
			h.updateRepoFromRoots(ctx, req.Session)
		},
	}
	s := mcp.NewServer(&mcp.Implementation{Name: "gitrun", Version: gitrun.Version}, opts)

	mcp.AddTool(s, &mcp.Tool{
		Name: "git_run",
		Description: `Run git with the given arguments in the repository and return its complete stdout and stderr.

Exit codes outside success_exit_codes (default [0]) are reported as failures.
Every run is stored; use git_inspect with the returned run ID to fetch its output again.`,
	}, h.runHandler)

	mcp.AddTool(s, &mcp.Tool{
		Name:        "git_status",
		Description: "Summarise the working tree: branch, upstream tracking, and changed paths.",
	}, h.statusHandler)

	mcp.AddTool(s, &mcp.Tool{
		Name:        "git_has_changes",
		Description: "Report whether tracked files differ from the index, optionally limited to paths (git diff --quiet).",
	}, h.hasChangesHandler)

	mcp.AddTool(s, &mcp.Tool{
		Name:        "git_inspect",
		Description: "Return the stored record of an earlier run by run ID: exit code, error, and the stdout or stderr of a passing run.",
	}, h.inspectHandler)

	mcp.AddTool(s, &mcp.Tool{
		Name:        "git_history",
		Description: "List the most recent runs with their exit codes and output sizes.",
	}, h.historyHandler)

	return s
}

// updateRepoFromRoots queries the client for MCP roots and points the
// engine at the first file root, reloading its configuration.
// This is called during session initialization, before any tool calls.
func (h *handler) updateRepoFromRoots(ctx context.Context, session *mcp.ServerSession) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	roots, err := session.ListRoots(ctx, &mcp.ListRootsParams{})
	if err != nil {
		return
	}
	if len(roots.Roots) == 0 {
		return
	}

	u, err := url.Parse(roots.Roots[0].URI)
	if err != nil || u.Scheme != "file" {
		return
	}
	if err := h.switchRepo(u.Path); err != nil {
		h.log.Error("ignoring client root", err)
	}
}

// switchRepo loads the configuration found from dir and installs a new
// engine for it. Calls in flight keep the engine they started with.
func (h *handler) switchRepo(dir string) error {
	loaded, err := config.Load(dir)
	if err != nil {
		return fmt.Errorf("loading config for %s: %w", dir, err)
	}
	cfg := loaded.Config

	cur := h.currentEngine()
	r := *cur.Runner
	r.Program = cfg.GitBinary()
	r.SlowThreshold = cfg.SlowThreshold()
	if _, ok := r.Spawner.(*spawn.Exec); ok {
		r.Spawner = &spawn.Exec{Binary: cfg.GitBinary(), Env: cfg.Env}
	}
	next := &workflow.Engine{Runner: &r, History: cur.History, RepoRoot: loaded.RepoRoot}

	h.mu.Lock()
	h.engine = next
	h.mu.Unlock()
	h.log.With("repo", loaded.RepoRoot).Info("switched repository")
	return nil
}

func (h *handler) currentEngine() *workflow.Engine {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.engine
}

// textResult is a helper to build a text-only tool result.
func textResult(text string) (*mcp.CallToolResult, any, error) {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
	}, nil, nil
}

// errorResult is a helper to build an error tool result.
func errorResult(text string) (*mcp.CallToolResult, any, error) {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
		IsError: true,
	}, nil, nil
}
