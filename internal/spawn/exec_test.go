package spawn

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type collected struct {
	stdout, stderr []byte
	ends           []Stream
	exit           *Event
	errs           []error
	order          []Kind
}

func collect(t *testing.T, p Process) collected {
	t.Helper()
	var c collected
	for ev := range p.Events() {
		c.order = append(c.order, ev.Kind)
		switch ev.Kind {
		case Data:
			if ev.Stream == Stdout {
				c.stdout = append(c.stdout, ev.Bytes()...)
			} else {
				c.stderr = append(c.stderr, ev.Bytes()...)
			}
		case End:
			c.ends = append(c.ends, ev.Stream)
		case Exit:
			e := ev
			c.exit = &e
		case Error:
			c.errs = append(c.errs, ev.Err)
		}
	}
	return c
}

func shell(t *testing.T, script string) collected {
	t.Helper()
	s := &Exec{Binary: "sh"}
	p, err := s.Spawn([]string{"-c", script}, t.TempDir())
	require.NoError(t, err)
	return collect(t, p)
}

func TestExec_CapturesBothStreams(t *testing.T) {
	c := shell(t, "printf out; printf err >&2")
	assert.Equal(t, "out", string(c.stdout))
	assert.Equal(t, "err", string(c.stderr))
	assert.ElementsMatch(t, []Stream{Stdout, Stderr}, c.ends)
	require.NotNil(t, c.exit)
	assert.Equal(t, 0, c.exit.Code)
	assert.Empty(t, c.errs)
	assert.Equal(t, Exit, c.order[len(c.order)-1], "exit is the last event")
}

func TestExec_BinarySafe(t *testing.T) {
	c := shell(t, `printf '\377\376\000'`)
	assert.Equal(t, []byte{0xFF, 0xFE, 0x00}, c.stdout)
}

func TestExec_LargeOutputSpansChunks(t *testing.T) {
	c := shell(t, "dd if=/dev/zero bs=1024 count=200 2>/dev/null")
	assert.Len(t, c.stdout, 200*1024)
	assert.True(t, bytes.Equal(c.stdout, make([]byte, 200*1024)))
}

func TestExec_ExitCode(t *testing.T) {
	c := shell(t, "exit 3")
	require.NotNil(t, c.exit)
	assert.Equal(t, 3, c.exit.Code)
	assert.Empty(t, c.exit.Signal)
}

func TestExec_Signal(t *testing.T) {
	c := shell(t, "kill -9 $$")
	require.NotNil(t, c.exit)
	assert.Equal(t, -1, c.exit.Code)
	assert.Equal(t, "killed", c.exit.Signal)
}

func TestExec_Env(t *testing.T) {
	s := &Exec{Binary: "sh", Env: []string{"GITRUN_TEST_VAR=hello123"}}
	p, err := s.Spawn([]string{"-c", "printf %s \"$GITRUN_TEST_VAR\""}, t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, "hello123", string(collect(t, p).stdout))
}

func TestExec_BinaryNotFound(t *testing.T) {
	s := &Exec{Binary: "nonexistent-binary-xyz-123"}
	_, err := s.Spawn(nil, t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nonexistent-binary-xyz-123")
}

func TestExec_MissingDir(t *testing.T) {
	s := &Exec{Binary: "sh"}
	_, err := s.Spawn([]string{"-c", "true"}, "/nonexistent/gitrun/dir")
	require.Error(t, err)
}

func TestEvent_BytesFromText(t *testing.T) {
	ev := Event{Kind: Data, Text: "\xff\xfe"}
	assert.Equal(t, []byte{0xFF, 0xFE}, ev.Bytes())
}
