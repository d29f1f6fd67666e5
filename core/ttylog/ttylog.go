// Package ttylog records terminal output and plays it back.
package ttylog

import (
	"io"
	"sync"
	"time"

	"github.com/josephlewis42/nesh/core/vos"
)

// FD identifies the stream a chunk of terminal I/O belongs to.
type FD int

const (
	FDStdin FD = iota
	FDStdout
	FDStderr
)

// Entry is a chunk of terminal I/O.
type Entry struct {
	TimestampMicros int64
	FD              FD
	Data            []byte
}

// LogSink receives log events.
type LogSink func(e *Entry) error

// LogSource adapts log readers.
type LogSource interface {
	// Next fetches the next available log entry. It returns io.EOF if the
	// source has no more log entries.
	Next() (*Entry, error)
}

// NewRealTimePlayback plays back the results in real-time.
// If maxSleep > 0, it's used as the maximum duration to pause, otherwise
// entries are forwarded without pausing.
func NewRealTimePlayback(maxSleep time.Duration, next LogSink) LogSink {
	var once sync.Once
	var prevTimeMicros int64

	return func(e *Entry) error {
		once.Do(func() {
			prevTimeMicros = e.TimestampMicros
		})

		delta := e.TimestampMicros - prevTimeMicros
		prevTimeMicros = e.TimestampMicros

		if maxSleep > 0 {
			sleepDuration := time.Duration(delta) * time.Microsecond
			if sleepDuration > maxSleep {
				sleepDuration = maxSleep
			}
			time.Sleep(sleepDuration)
		}

		return next(e)
	}
}

// NewClientOutput writes stdout and stderr to the given writer.
func NewClientOutput(w io.Writer) LogSink {
	return func(e *Entry) error {
		if e.FD == FDStdin {
			return nil
		}
		_, err := w.Write(e.Data)
		return err
	}
}

// Replay reads a stream of events to a callback.
func Replay(recording LogSource, callback LogSink) error {
	for {
		e, err := recording.Next()
		switch {
		case err == io.EOF:
			return nil
		case err != nil:
			return err
		}

		if err := callback(e); err != nil {
			return err
		}
	}
}

// Recorder forwards everything written to the wrapped stdout and stderr to
// a LogSink. Stdin is passed through untouched.
type Recorder struct {
	*vos.VIOAdapter

	mutex  sync.Mutex
	output LogSink
	err    error
}

var _ vos.VIO = (*Recorder)(nil)

// NewRecorder creates a recorder that forwards output events to output.
func NewRecorder(toWrap vos.VIO, output LogSink) *Recorder {
	recorder := &Recorder{
		output: output,
	}

	recorder.VIOAdapter = &vos.VIOAdapter{
		IStdin:  toWrap.Stdin(),
		IStdout: &recorderSink{mockFd: FDStdout, r: recorder, wrapped: toWrap.Stdout()},
		IStderr: &recorderSink{mockFd: FDStderr, r: recorder, wrapped: toWrap.Stderr()},
	}

	return recorder
}

// Err returns the first error the LogSink returned. Recording stops after
// an error but writes still reach the wrapped streams.
func (r *Recorder) Err() error {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	return r.err
}

func (r *Recorder) record(mockFd FD, data []byte) {
	eventTime := time.Now()

	r.mutex.Lock()
	defer r.mutex.Unlock()
	if r.err != nil {
		return
	}

	r.err = r.output(&Entry{
		TimestampMicros: eventTime.UnixMicro(),
		FD:              mockFd,
		Data:            append([]byte(nil), data...),
	})
}

type recorderSink struct {
	r       *Recorder
	mockFd  FD
	wrapped vos.Sink
}

var _ vos.Sink = (*recorderSink)(nil)

func (rs *recorderSink) Write(p []byte) (int, error) {
	n, err := rs.wrapped.Write(p)
	if n > 0 {
		rs.r.record(rs.mockFd, p[:n])
	}
	return n, err
}

func (rs *recorderSink) Close() error {
	return rs.wrapped.Close()
}
