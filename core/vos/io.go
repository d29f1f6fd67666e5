package vos

import (
	"bufio"
	"errors"
	"io"
	"os"
)

// Source is the read end of a byte stream: a command's standard input. It is
// backed by the previous pipeline stage, a file or the terminal. Exactly one
// reader owns a Source.
type Source interface {
	io.Reader
	io.Closer
}

// Sink is the write end of a byte stream: a command's standard output.
// Closing a Sink signals end-of-stream to whoever reads the paired Source.
type Sink interface {
	io.Writer
	io.Closer
}

// VIO holds the standard streams of a command.
type VIO interface {
	Stdin() Source
	Stdout() Sink
	Stderr() Sink
}

type VIOAdapter struct {
	IStdin  Source
	IStdout Sink
	IStderr Sink
}

// NewVIOAdapter builds a VIO from plain readers and writers. Writers that
// aren't io.Closers are wrapped with a no-op Close, nil streams read as
// closed and discard writes.
func NewVIOAdapter(stdin io.Reader, stdout, stderr io.Writer) *VIOAdapter {
	return &VIOAdapter{
		IStdin:  toReadCloserOrDiscard(stdin),
		IStdout: toWriteCloserOrDiscard(stdout),
		IStderr: toWriteCloserOrDiscard(stderr),
	}
}

// NewNullIO creates a valid /dev/null style I/O, reads won't work and
// writes will be discarded.
func NewNullIO() VIO {
	return NewVIOAdapter(nil, nil, nil)
}

var _ VIO = (*VIOAdapter)(nil)

func (pr *VIOAdapter) Stdin() Source {
	return pr.IStdin
}

func (pr *VIOAdapter) Stdout() Sink {
	return pr.IStdout
}

func (pr *VIOAdapter) Stderr() Sink {
	return pr.IStderr
}

// NopSink wraps w so closing the Sink leaves w open. Used for the terminal
// and other streams the pipeline doesn't own.
func NopSink(w io.Writer) Sink {
	return nopWriteCloser{w}
}

// NopSource wraps r so closing the Source leaves r open.
func NopSource(r io.Reader) Source {
	return nopReadCloser{r}
}

// OSFile returns the *os.File behind a stream, looking through the wrappers
// from this package. Child processes inherit such files directly instead of
// needing a copying goroutine.
func OSFile(stream interface{}) (*os.File, bool) {
	for {
		switch s := stream.(type) {
		case *os.File:
			return s, true
		case nopReadCloser:
			stream = s.Reader
		case nopWriteCloser:
			stream = s.Writer
		default:
			return nil, false
		}
	}
}

func toWriteCloserOrDiscard(w io.Writer) Sink {
	if w == nil {
		return &devNull{}
	}
	if wc, ok := w.(Sink); ok {
		return wc
	}

	return nopWriteCloser{w}
}

func toReadCloserOrDiscard(r io.Reader) Source {
	if r == nil {
		return &devNull{}
	}
	if rc, ok := r.(Source); ok {
		return rc
	}

	return nopReadCloser{r}
}

type nopReadCloser struct {
	io.Reader
}

func (nopReadCloser) Close() error { return nil }

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }

// devNull always reports EOF for reads and discards writes.
type devNull struct{}

var _ Source = (*devNull)(nil)
var _ Sink = (*devNull)(nil)

func (*devNull) Read([]byte) (int, error) {
	return 0, io.EOF
}

func (*devNull) Close() error {
	return nil
}

func (*devNull) Write(b []byte) (int, error) {
	return len(b), nil
}

// NewPipe creates a connected Source and Sink. Data written to the Sink is
// read from the Source in order. Writes block until the reader consumes them;
// if bufSize is positive the Sink accepts up to bufSize bytes before blocking.
//
// Closing the Sink delivers io.EOF to the reader once buffered data is read.
// Closing the Source makes further writes fail with io.ErrClosedPipe so a
// producer whose consumer went away stops instead of hanging.
func NewPipe(bufSize int) (Source, Sink) {
	pr, pw := io.Pipe()
	if bufSize <= 0 {
		return pr, pw
	}

	return pr, &bufferedSink{Writer: bufio.NewWriterSize(pw, bufSize), pw: pw}
}

type bufferedSink struct {
	*bufio.Writer
	pw *io.PipeWriter
}

func (b *bufferedSink) Close() error {
	flushErr := b.Flush()
	closeErr := b.pw.Close()
	return errors.Join(flushErr, closeErr)
}

// IsClosedPipe reports whether err means the reading end of a pipe went away.
func IsClosedPipe(err error) bool {
	return errors.Is(err, io.ErrClosedPipe) || errors.Is(err, os.ErrClosed)
}
