package stream

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

func WriteSSE(w io.Writer, ev StreamEvent) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	if ev.EventID != "" {
		if _, err := fmt.Fprintf(w, "id: %s\n", ev.EventID); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintf(w, "event: %s\n", ev.Event); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "data: %s\n\n", data); err != nil {
		return err
	}
	return nil
}

// Ping is the keepalive frame; it carries no id so it never moves a client's resume point.
func Ping(userID string, now time.Time) StreamEvent {
	return StreamEvent{
		Event:    "ping",
		UserID:   userID,
		ServerTS: now.UnixMilli(),
		Data:     map[string]any{"ts": now.UnixMilli()},
	}
}

// SetSSEHeaders applies headers that keep event streams stable across proxies.
func SetSSEHeaders(w http.ResponseWriter) {
	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache, no-transform")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	h.Set("X-Content-Type-Options", "nosniff")
}
