// Package report keeps a history of runs so their captured output can be
// retrieved after the fact by run ID.
package report

import (
	"errors"
	"fmt"
	"time"

	"github.com/deixis/gitrun/internal/runner"
)

// ErrNotFound is returned by Load when no record exists for a run ID.
var ErrNotFound = errors.New("run not found")

// Store persists and retrieves run records.
type Store interface {
	Save(rec *Record) error
	Load(runID string) (*Record, error)
}

// Record describes one settled run.
type Record struct {
	ID        string        `json:"id"`
	Label     string        `json:"label"`
	Args      []string      `json:"args"`
	Dir       string        `json:"dir,omitempty"`
	ExitCode  int           `json:"exit_code"`
	Stdout    []byte        `json:"stdout,omitempty"`
	Stderr    []byte        `json:"stderr,omitempty"`
	Error     string        `json:"error,omitempty"`
	StartedAt time.Time     `json:"started_at"`
	Duration  time.Duration `json:"duration"`
}

// Failed reports whether the run settled with an error.
func (r *Record) Failed() bool { return r.Error != "" }

// NewRecord builds a record from a settled run. res may be nil when err is
// set; the exit code is recovered from err when possible.
func NewRecord(id string, cmd runner.Command, res *runner.Result, err error, started time.Time, took time.Duration) *Record {
	rec := &Record{
		ID:        id,
		Label:     cmd.Label,
		Args:      append([]string(nil), cmd.Args...),
		Dir:       cmd.Dir,
		StartedAt: started,
		Duration:  took,
	}
	if res != nil {
		rec.ExitCode = res.ExitCode
		rec.Stdout = res.Stdout
		rec.Stderr = res.Stderr
	}
	if err != nil {
		rec.Error = err.Error()
		if code, ok := runner.ExitCode(err); ok {
			rec.ExitCode = code
		} else {
			rec.ExitCode = -1
		}
	}
	return rec
}

// Summary returns a one-line description of the record.
func (r *Record) Summary() string {
	status := "ok"
	if r.Failed() {
		status = "FAIL"
	}
	return fmt.Sprintf("%s %s exit=%d stdout=%dB stderr=%dB took=%s",
		r.ID, status, r.ExitCode, len(r.Stdout), len(r.Stderr), r.Duration.Round(time.Millisecond))
}
