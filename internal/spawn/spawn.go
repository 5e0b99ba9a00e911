// Package spawn starts child processes and reports their activity as a
// single ordered stream of events: output chunks, end-of-stream markers,
// the exit status and process-level faults.
package spawn

// Stream identifies one of the child's output streams.
type Stream int

const (
	Stdout Stream = iota
	Stderr
)

func (s Stream) String() string {
	switch s {
	case Stdout:
		return "stdout"
	case Stderr:
		return "stderr"
	}
	return "unknown"
}

// Kind identifies the type of an Event.
type Kind int

const (
	// Data carries a chunk of output for Stream.
	Data Kind = iota
	// End signals that no more data will arrive on Stream.
	End
	// Exit carries the exit code and, if the process was killed, the signal.
	Exit
	// Error carries a spawn or I/O fault.
	Error
)

func (k Kind) String() string {
	switch k {
	case Data:
		return "data"
	case End:
		return "end"
	case Exit:
		return "exit"
	case Error:
		return "error"
	}
	return "unknown"
}

// Event is a single notification from a running process.
type Event struct {
	Kind   Kind
	Stream Stream // Data and End only

	// Data holds a binary chunk. Primitives that decode output as text
	// may set Text instead; consumers treat both as raw bytes.
	Data []byte
	Text string

	Code   int    // Exit only; -1 when killed by a signal
	Signal string // Exit only; empty unless killed by a signal
	Err    error  // Error only
}

// Bytes returns the chunk carried by a Data event.
func (e Event) Bytes() []byte {
	if e.Data != nil {
		return e.Data
	}
	return []byte(e.Text)
}

// Process is a running child process.
type Process interface {
	// Events returns the event channel. It is closed after the last event.
	Events() <-chan Event
}

// Spawner starts processes.
type Spawner interface {
	Spawn(args []string, dir string) (Process, error)
}

// Chunk returns a Data event for stream s.
func Chunk(s Stream, b []byte) Event { return Event{Kind: Data, Stream: s, Data: b} }

// EndOf returns an End event for stream s.
func EndOf(s Stream) Event { return Event{Kind: End, Stream: s} }

// Exited returns an Exit event.
func Exited(code int, signal string) Event { return Event{Kind: Exit, Code: code, Signal: signal} }

// Failed returns an Error event.
func Failed(err error) Event { return Event{Kind: Error, Err: err} }
