package runner

import "github.com/deixis/gitrun/internal/spawn"

// machine reconciles the events of one invocation into a single outcome.
// It is driven from one goroutine and needs no locking.
//
// Success requires both streams finalized and an exit whose code is in
// the success set. A fault or a bad exit code settles immediately.
// Nothing changes once settled.
type machine struct {
	label   string
	command string
	success ExitCodeSet

	stdout, stderr accumulator
	exitCode       int
	exited         bool
	settled        bool

	// onStdoutEnd runs once, when stdout is finalized.
	onStdoutEnd func()
}

// outcome is the settled result of an invocation.
type outcome struct {
	result *Result
	err    error
}

// step applies ev and returns the outcome if ev settled the invocation.
// Once settled only the end of stdout is still observed, for timing.
func (m *machine) step(ev spawn.Event) *outcome {
	if m.settled {
		if ev.Kind == spawn.End {
			m.end(ev.Stream)
		}
		return nil
	}

	switch ev.Kind {
	case spawn.Data:
		m.stream(ev.Stream).append(ev.Bytes())
	case spawn.End:
		m.end(ev.Stream)
	case spawn.Error:
		return m.settle(&outcome{err: &ProcessError{Command: m.command, Err: ev.Err}})
	case spawn.Exit:
		if m.exited {
			return nil
		}
		m.exited = true
		m.exitCode = ev.Code
		if !m.success.Has(ev.Code) {
			return m.settle(&outcome{err: &ExitCodeError{
				Label:   m.label,
				Command: m.command,
				Code:    ev.Code,
				Signal:  ev.Signal,
			}})
		}
	}

	if m.stdout.done && m.stderr.done && m.exited {
		return m.settle(&outcome{result: &Result{
			ExitCode: m.exitCode,
			Stdout:   m.stdout.buf,
			Stderr:   m.stderr.buf,
		}})
	}
	return nil
}

func (m *machine) end(s spawn.Stream) {
	if m.stream(s).finalize() && s == spawn.Stdout && m.onStdoutEnd != nil {
		m.onStdoutEnd()
	}
}

// close is called when the event stream ends. It settles with
// ErrEventsClosed if nothing else did.
func (m *machine) close() *outcome {
	if m.settled {
		return nil
	}
	return m.settle(&outcome{err: &ProcessError{Command: m.command, Err: ErrEventsClosed}})
}

func (m *machine) settle(o *outcome) *outcome {
	m.settled = true
	return o
}

func (m *machine) stream(s spawn.Stream) *accumulator {
	if s == spawn.Stderr {
		return &m.stderr
	}
	return &m.stdout
}
