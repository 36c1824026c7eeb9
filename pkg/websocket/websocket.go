package websocketPkg

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

var ErrClosed = errors.New("websocket writer closed")

// Conn is the write side shared by gorilla and fiber websocket connections.
type Conn interface {
	WriteJSON(v interface{}) error
	SetWriteDeadline(t time.Time) error
	WriteControl(messageType int, data []byte, deadline time.Time) error
}

// FrameWriter serialises writes to a connection. Session callbacks, the
// keepalive pinger and the read loop all write from different goroutines.
type FrameWriter struct {
	mu           sync.Mutex
	conn         Conn
	writeTimeout time.Duration
	closed       bool
}

func NewFrameWriter(conn Conn, writeTimeout time.Duration) *FrameWriter {
	if writeTimeout <= 0 {
		writeTimeout = 10 * time.Second
	}
	return &FrameWriter{conn: conn, writeTimeout: writeTimeout}
}

func (w *FrameWriter) WriteJSON(v interface{}) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return ErrClosed
	}

	if err := w.conn.SetWriteDeadline(time.Now().Add(w.writeTimeout)); err != nil {
		return err
	}
	if err := w.conn.WriteJSON(v); err != nil {
		return err
	}
	return w.conn.SetWriteDeadline(time.Time{})
}

func (w *FrameWriter) Ping() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return ErrClosed
	}
	return w.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(w.writeTimeout))
}

// KeepAlive pings every interval until ctx is done or a ping fails.
func (w *FrameWriter) KeepAlive(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := w.Ping(); err != nil {
				return err
			}
		}
	}
}

// Close stops further writes. The underlying connection is owned by the caller.
func (w *FrameWriter) Close() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.closed = true
}
