package logger

import (
	"bufio"
	"errors"
	"io"
	"sync"
)

// ErrWriterClosed is returned by writes that arrive after Shutdown.
var ErrWriterClosed = errors.New("logger: writer closed")

// asyncWriter hands log lines to a single goroutine that owns the sinks.
// The first sink error is kept and returned by later calls.
type asyncWriter struct {
	lines   chan []byte
	flushes chan chan error
	done    chan struct{}

	// closeMu guards closed and the lines channel against close during send.
	closeMu sync.RWMutex
	closed  bool

	errMu sync.Mutex
	err   error

	sinks []*bufio.Writer
}

func newAsyncWriter(writers []io.Writer, bufSize int) *asyncWriter {
	if bufSize <= 0 {
		bufSize = 64 * 1024
	}
	w := &asyncWriter{
		lines:   make(chan []byte, 256),
		flushes: make(chan chan error),
		done:    make(chan struct{}),
	}
	for _, out := range writers {
		if out != nil {
			w.sinks = append(w.sinks, bufio.NewWriterSize(out, bufSize))
		}
	}
	go w.run()
	return w
}

func (w *asyncWriter) run() {
	defer close(w.done)
	for {
		select {
		case line, ok := <-w.lines:
			if !ok {
				w.keep(w.flushSinks())
				return
			}
			w.keep(w.writeLine(line))
		case ack := <-w.flushes:
			open := w.drain()
			ack <- w.flushSinks()
			if !open {
				return
			}
		}
	}
}

// drain writes every line already queued; false means the queue was closed.
func (w *asyncWriter) drain() bool {
	for {
		select {
		case line, ok := <-w.lines:
			if !ok {
				return false
			}
			w.keep(w.writeLine(line))
		default:
			return true
		}
	}
}

// Write queues a copy of p. It blocks only while the queue is full and
// returns ErrWriterClosed once Close has been called.
func (w *asyncWriter) Write(p []byte) (int, error) {
	if err := w.firstErr(); err != nil {
		return 0, err
	}
	w.closeMu.RLock()
	defer w.closeMu.RUnlock()
	if w.closed {
		return 0, ErrWriterClosed
	}
	w.lines <- append([]byte(nil), p...)
	return len(p), nil
}

// Flush returns once every line queued before the call reached the sinks.
func (w *asyncWriter) Flush() error {
	ack := make(chan error, 1)
	select {
	case w.flushes <- ack:
		if err := <-ack; err != nil {
			return err
		}
		return w.firstErr()
	case <-w.done:
		return w.firstErr()
	}
}

// Close drains queued lines and stops the writer goroutine.
func (w *asyncWriter) Close() error {
	w.closeMu.Lock()
	if !w.closed {
		w.closed = true
		close(w.lines)
	}
	w.closeMu.Unlock()
	<-w.done
	return w.firstErr()
}

func (w *asyncWriter) writeLine(p []byte) error {
	for _, sink := range w.sinks {
		if _, err := sink.Write(p); err != nil {
			return err
		}
		if err := sink.Flush(); err != nil {
			return err
		}
	}
	return nil
}

func (w *asyncWriter) flushSinks() error {
	var errs []error
	for _, sink := range w.sinks {
		if err := sink.Flush(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (w *asyncWriter) firstErr() error {
	w.errMu.Lock()
	defer w.errMu.Unlock()
	return w.err
}

func (w *asyncWriter) keep(err error) {
	if err == nil {
		return
	}
	w.errMu.Lock()
	defer w.errMu.Unlock()
	if w.err == nil {
		w.err = err
	}
}
