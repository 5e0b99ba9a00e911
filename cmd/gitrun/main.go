// Command gitrun runs git with fully captured output and serves git tools
// over MCP.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"

	"github.com/deixis/gitrun"
	"github.com/deixis/gitrun/internal/config"
	"github.com/deixis/gitrun/internal/logging"
	gitmcp "github.com/deixis/gitrun/internal/mcp"
	"github.com/deixis/gitrun/internal/report"
	"github.com/deixis/gitrun/internal/runner"
	"github.com/deixis/gitrun/internal/spawn"
	"github.com/deixis/gitrun/internal/workflow"
	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	cmd := os.Args[1]
	args := os.Args[2:]

	var err error
	switch cmd {
	case "run":
		err = runMain(args)
	case "status":
		err = statusMain(args)
	case "changed":
		err = changedMain(args)
	case "branch":
		err = branchMain(args)
	case "mcp":
		err = mcpMain(args)
	case "version":
		fmt.Println(gitrun.Version)
	case "help", "-h", "--help":
		usage()
	default:
		fmt.Fprintf(os.Stderr, "gitrun: unknown command %q\n", cmd)
		usage()
		os.Exit(2)
	}

	if errors.Is(err, errChanged) {
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "gitrun: %v\n", err)
		if code, ok := runner.ExitCode(err); ok && code > 0 {
			os.Exit(code)
		}
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `Usage: gitrun <command> [flags] [args]

Commands:
  run         Run git with the given arguments and print its output
  status      Show the parsed working tree status
  changed     Report whether tracked files have unstaged changes
  branch      Print the checked-out branch
  mcp         Start the MCP server
  version     Print the version
  help        Show this help

Use "gitrun <command> -h" for command-specific flags.`)
}

// --- run ---

func runMain(args []string) error {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	label := fs.String("label", "", "name used in logs and errors (default: the git subcommand)")
	ok := fs.String("ok", "", `comma-separated exit codes treated as success, or "none" (default: 0)`)
	dir := fs.String("C", "", "run in this directory instead of the current one")
	_ = fs.Parse(args)

	gitArgs := fs.Args()
	if len(gitArgs) == 0 {
		return fmt.Errorf("run: no git arguments given")
	}
	codes, err := parseCodes(*ok)
	if err != nil {
		return fmt.Errorf("run: %w", err)
	}
	if *label == "" {
		*label = gitArgs[0]
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	eng, err := newEngine(*dir)
	if err != nil {
		return err
	}

	run := eng.Exec(ctx, *label, gitArgs, codes)
	if run.Err != nil {
		return run.Err
	}
	_, _ = os.Stdout.Write(run.Result.Stdout)
	_, _ = os.Stderr.Write(run.Result.Stderr)
	return nil
}

// parseCodes parses the -ok flag. An empty value selects the default
// set; "none" selects the empty set.
func parseCodes(s string) (runner.ExitCodeSet, error) {
	switch strings.TrimSpace(s) {
	case "":
		return nil, nil
	case "none":
		return runner.Codes(), nil
	}
	var codes []int
	for _, part := range strings.Split(s, ",") {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return nil, fmt.Errorf("invalid exit code %q", part)
		}
		codes = append(codes, n)
	}
	return runner.Codes(codes...), nil
}

// --- status ---

func statusMain(args []string) error {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	jsonFlag := fs.Bool("json", false, "output status as JSON")
	dir := fs.String("C", "", "run in this directory instead of the current one")
	_ = fs.Parse(args)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	eng, err := newEngine(*dir)
	if err != nil {
		return err
	}

	st, _, err := eng.Status(ctx)
	if err != nil {
		return fmt.Errorf("status: %w", err)
	}

	if *jsonFlag {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(st)
	}
	fmt.Print(formatStatusCLI(st))
	return nil
}

func formatStatusCLI(st *workflow.Status) string {
	var b []byte
	w := func(format string, args ...any) {
		b = fmt.Appendf(b, format, args...)
	}

	branch := st.Branch
	if branch == "" {
		branch = "(detached)"
	}
	w("on %s", branch)
	if st.Upstream != "" {
		w(" tracking %s", st.Upstream)
		if st.Ahead > 0 {
			w(" +%d", st.Ahead)
		}
		if st.Behind > 0 {
			w(" -%d", st.Behind)
		}
	}
	w("\n")

	if st.Clean() {
		w("clean\n")
		return string(b)
	}
	w("\n")
	for _, e := range st.Entries {
		w("  %s\n", e)
	}
	return string(b)
}

// --- changed / branch ---

// errChanged makes `gitrun changed` exit 1 when changes exist, mirroring
// git diff --quiet for use in scripts.
var errChanged = errors.New("unstaged changes")

func changedMain(args []string) error {
	fs := flag.NewFlagSet("changed", flag.ExitOnError)
	dir := fs.String("C", "", "run in this directory instead of the current one")
	quiet := fs.Bool("q", false, "print nothing; report through the exit code only")
	_ = fs.Parse(args)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	eng, err := newEngine(*dir)
	if err != nil {
		return err
	}
	changed, err := eng.HasChanges(ctx, fs.Args()...)
	if err != nil {
		return fmt.Errorf("changed: %w", err)
	}
	if !*quiet {
		fmt.Println(changedWord(changed))
	}
	if changed {
		return errChanged
	}
	return nil
}

func changedWord(changed bool) string {
	if changed {
		return "changed"
	}
	return "clean"
}

func branchMain(args []string) error {
	fs := flag.NewFlagSet("branch", flag.ExitOnError)
	dir := fs.String("C", "", "run in this directory instead of the current one")
	_ = fs.Parse(args)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	eng, err := newEngine(*dir)
	if err != nil {
		return err
	}
	branch, err := eng.CurrentBranch(ctx)
	if err != nil {
		return fmt.Errorf("branch: %w", err)
	}
	fmt.Println(branch)
	return nil
}

// --- mcp ---

func mcpMain(args []string) error {
	fs := flag.NewFlagSet("mcp", flag.ExitOnError)
	instructions := fs.Bool("instructions", false, "print model instructions and exit")
	httpAddr := fs.String("http", "", "start HTTP server on address (e.g. :9090)")
	_ = fs.Parse(args)

	if *instructions {
		fmt.Print(gitmcp.Instructions)
		return nil
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	eng, cfg, log, err := setupEngine("")
	if err != nil {
		return err
	}
	history := report.NewLRUStore(cfg.History(), report.NewDiskStore(""))
	server := gitmcp.NewServer(eng, history, log)

	if *httpAddr != "" {
		return serveHTTP(ctx, server, *httpAddr, log)
	}
	return server.Run(ctx, &mcpsdk.StdioTransport{})
}

func serveHTTP(ctx context.Context, server *mcpsdk.Server, addr string, log *logging.Logger) error {
	handler := mcpsdk.NewStreamableHTTPHandler(
		func(_ *http.Request) *mcpsdk.Server { return server },
		nil,
	)

	httpServer := &http.Server{
		Addr:    addr,
		Handler: handler,
	}

	go func() {
		<-ctx.Done()
		_ = httpServer.Close()
	}()

	log.Info("listening on " + addr)
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error("http server stopped", err)
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

// --- shared ---

func newEngine(dir string) (*workflow.Engine, error) {
	eng, _, _, err := setupEngine(dir)
	return eng, err
}

func setupEngine(dir string) (*workflow.Engine, *config.Config, *logging.Logger, error) {
	if dir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, nil, nil, fmt.Errorf("determining workspace: %w", err)
		}
		dir = wd
	}

	loaded, err := config.Load(dir)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("loading config: %w", err)
	}
	cfg := loaded.Config
	log := logging.New(cfg.Logging())

	r := &runner.Runner{
		Spawner:       &spawn.Exec{Binary: cfg.GitBinary(), Env: cfg.Env},
		Program:       cfg.GitBinary(),
		Logger:        log.WithComponent("runner"),
		Clock:         runner.SystemClock{},
		SlowThreshold: cfg.SlowThreshold(),
	}

	return &workflow.Engine{Runner: r, RepoRoot: dir}, cfg, log, nil
}
