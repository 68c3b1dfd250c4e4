package net

import (
	"bufio"
	"bytes"
	"io"
	"os"
	"sync"
)

// StdioTransport reads lines from an io.Reader and writes lines to an
// io.Writer, stdin and stdout by default.
type StdioTransport struct {
	r *bufio.Reader

	wLock sync.Mutex
	w     *bufio.Writer

	closer io.Closer
}

// NewStdioTransport returns a transport over the process's standard streams.
func NewStdioTransport() *StdioTransport {
	return NewStreamTransport(os.Stdin, os.Stdout)
}

// NewStreamTransport returns a transport over arbitrary streams. If r is an
// io.Closer it is closed by Close.
func NewStreamTransport(r io.Reader, w io.Writer) *StdioTransport {
	t := &StdioTransport{
		r: bufio.NewReader(r),
		w: bufio.NewWriter(w),
	}
	if c, ok := r.(io.Closer); ok {
		t.closer = c
	}
	return t
}

// ReadLine implements the Transport interface. Lines of any length are
// supported. A final line without a trailing newline is returned before
// io.EOF.
func (t *StdioTransport) ReadLine() ([]byte, error) {
	line, err := t.r.ReadBytes('\n')
	if err == io.EOF && len(bytes.TrimSpace(line)) > 0 {
		return bytes.TrimRight(line, "\r\n"), nil
	}
	if err != nil {
		return nil, err
	}
	return bytes.TrimRight(line, "\r\n"), nil
}

// WriteLine implements the Transport interface. Every line is flushed
// immediately, the harness reads messages as they come.
func (t *StdioTransport) WriteLine(line []byte) error {
	t.wLock.Lock()
	defer t.wLock.Unlock()

	if _, err := t.w.Write(line); err != nil {
		return err
	}
	if err := t.w.WriteByte('\n'); err != nil {
		return err
	}
	return t.w.Flush()
}

// Close implements the Transport interface.
func (t *StdioTransport) Close() error {
	if t.closer != nil {
		return t.closer.Close()
	}
	return nil
}
