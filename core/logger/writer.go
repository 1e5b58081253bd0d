package logger

import (
	"bufio"
	"io"
	"sync"
	"time"
)

// fanoutWriter serializes log lines through a single goroutine and fans
// them out to every configured sink. Writes never block the caller unless
// the queue is full.
type fanoutWriter struct {
	queue    chan []byte
	flushReq chan chan struct{}
	done     chan struct{}
	sinks    []*bufio.Writer

	closeOnce sync.Once
	closed    chan struct{}

	mu sync.Mutex
}

func newFanoutWriter(outputs []io.Writer, bufSize int) *fanoutWriter {
	if bufSize <= 0 {
		bufSize = 4 * 1024
	}
	w := &fanoutWriter{
		queue:    make(chan []byte, 1024),
		flushReq: make(chan chan struct{}),
		done:     make(chan struct{}),
		closed:   make(chan struct{}),
	}
	for _, out := range outputs {
		if out == nil {
			continue
		}
		w.sinks = append(w.sinks, bufio.NewWriterSize(out, bufSize))
	}
	go w.loop()
	return w
}

// Write enqueues one formatted line. The slice is copied so callers may
// reuse their buffers.
func (w *fanoutWriter) Write(line []byte) error {
	buf := make([]byte, len(line))
	copy(buf, line)
	select {
	case <-w.closed:
		w.writeAll(buf)
		return nil
	default:
	}
	select {
	case w.queue <- buf:
	case <-w.closed:
		w.writeAll(buf)
	}
	return nil
}

// Flush drains queued lines and flushes every sink.
func (w *fanoutWriter) Flush() error {
	select {
	case <-w.closed:
		w.flushAll()
		return nil
	default:
	}
	ack := make(chan struct{})
	select {
	case w.flushReq <- ack:
		select {
		case <-ack:
		case <-time.After(2 * time.Second):
		}
	case <-w.closed:
		w.flushAll()
	}
	return nil
}

// Close stops the background loop and flushes sinks. Writes issued after
// Close fall through to the sinks synchronously.
func (w *fanoutWriter) Close() error {
	w.closeOnce.Do(func() {
		close(w.closed)
		close(w.queue)
		<-w.done
	})
	return nil
}

func (w *fanoutWriter) loop() {
	defer close(w.done)
	for {
		select {
		case line, ok := <-w.queue:
			if !ok {
				w.flushAll()
				return
			}
			w.writeAll(line)
		case ack := <-w.flushReq:
			w.drain()
			w.flushAll()
			close(ack)
		}
	}
}

func (w *fanoutWriter) drain() {
	for {
		select {
		case line, ok := <-w.queue:
			if !ok {
				return
			}
			w.writeAll(line)
		default:
			return
		}
	}
}

func (w *fanoutWriter) writeAll(line []byte) {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, sink := range w.sinks {
		_, _ = sink.Write(line)
	}
}

func (w *fanoutWriter) flushAll() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, sink := range w.sinks {
		_ = sink.Flush()
	}
}
