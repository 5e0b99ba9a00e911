package runner

// Result holds the captured output of a successful invocation.
type Result struct {
	RunID    string // unique identifier for this run
	ExitCode int    // process exit code, always in the success set
	Stdout   []byte // complete stdout, byte for byte
	Stderr   []byte // complete stderr, byte for byte
}

// accumulator collects one stream's chunks until end-of-stream.
type accumulator struct {
	buf  []byte
	done bool
}

func (a *accumulator) append(chunk []byte) {
	if a.done {
		return
	}
	a.buf = append(a.buf, chunk...)
}

// finalize reports whether this call finalized the stream.
func (a *accumulator) finalize() bool {
	if a.done {
		return false
	}
	a.done = true
	if a.buf == nil {
		a.buf = []byte{}
	}
	return true
}
