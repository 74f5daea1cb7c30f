package ws

import (
	"math"
	"sync"

	"github.com/gorilla/websocket"
)

// SafeWriter serializes concurrent writes to one websocket connection.
// gorilla/websocket allows a single writer at a time; the broadcast tick
// and per-connection replies share this mutex.
type SafeWriter struct {
	conn  *websocket.Conn
	mutex sync.Mutex
}

func NewSafeWriter(conn *websocket.Conn) *SafeWriter {
	return &SafeWriter{conn: conn}
}

func (w *SafeWriter) WriteJSON(v interface{}) error {
	w.mutex.Lock()
	defer w.mutex.Unlock()
	return w.conn.WriteJSON(v)
}

func (w *SafeWriter) Close() error {
	return w.conn.Close()
}

// safeValue replaces NaN and infinities so the wire never carries a value
// encoding/json cannot marshal.
func safeValue(v, fallback float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fallback
	}
	return v
}
