// Package runner executes a command-line tool, captures its complete
// stdout and stderr as raw bytes, and settles each invocation exactly
// once with the captured output or an error.
package runner

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/deixis/gitrun/internal/spawn"
	"github.com/google/uuid"
)

// DefaultSlowThreshold is the elapsed time above which a run is logged at
// info level.
const DefaultSlowThreshold = time.Second

// ExitCodeSet is a set of exit codes treated as success.
type ExitCodeSet map[int]struct{}

// Codes returns a set holding codes. Codes() with no arguments returns an
// empty, non-nil set under which no exit code succeeds.
func Codes(codes ...int) ExitCodeSet {
	s := make(ExitCodeSet, len(codes))
	for _, c := range codes {
		s[c] = struct{}{}
	}
	return s
}

// Has reports whether code is in the set.
func (s ExitCodeSet) Has(code int) bool {
	_, ok := s[code]
	return ok
}

// Sorted returns the codes in ascending order.
func (s ExitCodeSet) Sorted() []int {
	out := make([]int, 0, len(s))
	for c := range s {
		out = append(out, c)
	}
	sort.Ints(out)
	return out
}

// Command describes one invocation.
type Command struct {
	Args  []string // arguments passed to the tool, not including the binary
	Dir   string   // working directory
	Label string   // human-readable name used in logs and errors

	// SuccessExitCodes lists the exit codes treated as success. Nil means
	// {0}. An empty non-nil set is honoured as is.
	SuccessExitCodes ExitCodeSet
}

func (c Command) successCodes() ExitCodeSet {
	if c.SuccessExitCodes == nil {
		return Codes(0)
	}
	return c.SuccessExitCodes
}

// Logger receives runner log lines.
type Logger interface {
	Debug(msg string)
	Info(msg string)
}

// Clock is a monotonic time source.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock, which carries a monotonic reading.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// Runner starts invocations. The zero value spawns git through os/exec,
// logs nothing, and skips timing.
type Runner struct {
	Spawner spawn.Spawner
	Logger  Logger
	Clock   Clock // nil disables timing

	// Program names the tool in log lines. Defaults to "git".
	Program string

	// SlowThreshold is the elapsed time above which the run is logged
	// with its duration. Defaults to DefaultSlowThreshold.
	SlowThreshold time.Duration
}

// Run starts cmd and waits for it to settle.
func (r *Runner) Run(ctx context.Context, cmd Command) (*Result, error) {
	return r.Start(cmd).Wait(ctx)
}

// Start spawns cmd and returns a handle that settles exactly once.
func (r *Runner) Start(cmd Command) *Invocation {
	inv := &Invocation{id: uuid.New().String(), done: make(chan struct{})}
	name := r.commandName(cmd)

	if len(cmd.Args) == 0 {
		inv.settle(&outcome{err: &ProcessError{Command: name, Err: ErrNoArgs}})
		return inv
	}

	r.debug("Executing " + name)

	proc, err := r.spawner().Spawn(cmd.Args, cmd.Dir)
	if err != nil {
		inv.settle(&outcome{err: &ProcessError{Command: name, Err: err}})
		return inv
	}

	m := &machine{
		label:   cmd.Label,
		command: name,
		success: cmd.successCodes(),
	}
	if r.Clock != nil {
		start := r.Clock.Now()
		m.onStdoutEnd = func() { r.reportTiming(name, start) }
	}

	go r.drive(inv, m, proc.Events())
	return inv
}

// drive feeds events into m until the channel closes. Events after
// settlement are drained and ignored so the process never blocks.
func (r *Runner) drive(inv *Invocation, m *machine, events <-chan spawn.Event) {
	for ev := range events {
		if o := m.step(ev); o != nil {
			inv.settle(o)
		}
	}
	if o := m.close(); o != nil {
		inv.settle(o)
	}
}

func (r *Runner) reportTiming(name string, start time.Time) {
	elapsed := r.Clock.Now().Sub(start)
	if elapsed <= r.slowThreshold() {
		return
	}
	r.info(fmt.Sprintf("Executing %s (took %.3fs)", name, elapsed.Seconds()))
}

func (r *Runner) commandName(cmd Command) string {
	program := r.Program
	if program == "" {
		program = spawn.DefaultBinary
	}
	return fmt.Sprintf("%s: %s %s", cmd.Label, program, strings.Join(cmd.Args, " "))
}

func (r *Runner) spawner() spawn.Spawner {
	if r.Spawner == nil {
		return &spawn.Exec{}
	}
	return r.Spawner
}

func (r *Runner) slowThreshold() time.Duration {
	if r.SlowThreshold > 0 {
		return r.SlowThreshold
	}
	return DefaultSlowThreshold
}

func (r *Runner) debug(msg string) {
	if r.Logger != nil {
		r.Logger.Debug(msg)
	}
}

func (r *Runner) info(msg string) {
	if r.Logger != nil {
		r.Logger.Info(msg)
	}
}

// Invocation is a handle on one run.
type Invocation struct {
	id   string
	done chan struct{}
	res  *Result
	err  error
}

// ID returns the run identifier.
func (i *Invocation) ID() string { return i.id }

// Done is closed once the invocation has settled.
func (i *Invocation) Done() <-chan struct{} { return i.done }

// Wait blocks until the invocation settles or ctx is done. A done ctx
// only stops the wait; the process keeps running.
func (i *Invocation) Wait(ctx context.Context) (*Result, error) {
	select {
	case <-i.done:
		return i.res, i.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// settle is only called from the goroutine that owns the invocation,
// and at most once: machine refuses to produce a second outcome.
func (i *Invocation) settle(o *outcome) {
	if o.result != nil {
		o.result.RunID = i.id
	}
	i.res, i.err = o.result, o.err
	close(i.done)
}
