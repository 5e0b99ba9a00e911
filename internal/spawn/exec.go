package spawn

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"
	"syscall"
)

// DefaultBinary is the executable spawned when Exec.Binary is empty.
const DefaultBinary = "git"

const chunkSize = 32 << 10

// Exec spawns processes with os/exec.
type Exec struct {
	Binary string   // executable path or name resolved via PATH
	Env    []string // extra key=value pairs merged with os.Environ
}

var _ Spawner = (*Exec)(nil)

// Spawn starts Binary with args in dir. An error is returned only when the
// process could not be started; later faults arrive as Error events.
func (s *Exec) Spawn(args []string, dir string) (Process, error) {
	bin := s.Binary
	if bin == "" {
		bin = DefaultBinary
	}

	c := exec.Command(bin, args...) //nolint:gosec // running caller-supplied argv is the point
	c.Dir = dir
	c.Env = mergeEnv(s.Env)

	stdout, err := c.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("stdout pipe for %s: %w", bin, err)
	}
	stderr, err := c.StderrPipe()
	if err != nil {
		_ = stdout.Close()
		return nil, fmt.Errorf("stderr pipe for %s: %w", bin, err)
	}
	if err := c.Start(); err != nil {
		return nil, fmt.Errorf("starting %s: %w", bin, err)
	}

	p := &execProcess{events: make(chan Event, 16)}

	var wg sync.WaitGroup
	wg.Add(2)
	go p.pump(Stdout, stdout, &wg)
	go p.pump(Stderr, stderr, &wg)

	// Wait must not be called before both pipes are drained.
	go func() {
		wg.Wait()
		p.events <- exitEvent(c.Wait(), c.ProcessState)
		close(p.events)
	}()

	return p, nil
}

type execProcess struct {
	events chan Event
}

func (p *execProcess) Events() <-chan Event { return p.events }

func (p *execProcess) pump(s Stream, r io.Reader, wg *sync.WaitGroup) {
	defer wg.Done()
	buf := make([]byte, chunkSize)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			chunk := make([]byte, n)
			copy(chunk, buf[:n])
			p.events <- Chunk(s, chunk)
		}
		if err != nil {
			if !errors.Is(err, io.EOF) && !errors.Is(err, os.ErrClosed) {
				p.events <- Failed(fmt.Errorf("reading %s: %w", s, err))
			}
			p.events <- EndOf(s)
			return
		}
	}
}

func exitEvent(err error, state *os.ProcessState) Event {
	var exitErr *exec.ExitError
	if err != nil && !errors.As(err, &exitErr) {
		return Failed(err)
	}
	if state == nil {
		return Failed(fmt.Errorf("process state unavailable"))
	}
	signal := ""
	if ws, ok := state.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
		signal = ws.Signal().String()
	}
	return Exited(state.ExitCode(), signal)
}

// mergeEnv merges additional env vars with the current environment.
func mergeEnv(extra []string) []string {
	if len(extra) == 0 {
		return nil // inherit parent env
	}
	return append(os.Environ(), extra...)
}
