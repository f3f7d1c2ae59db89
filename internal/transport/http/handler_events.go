package httptransport

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"companion-world/internal/session"
	"companion-world/internal/sim"
	"companion-world/internal/stream"
)

var (
	ssePingInterval = 15 * time.Second
	wsWriteWait     = 10 * time.Second
	wsPongWait      = 60 * time.Second
)

type EventHandlers struct {
	mgr      *session.Manager
	upgrader websocket.Upgrader
}

func NewEventHandlers(mgr *session.Manager) *EventHandlers {
	return &EventHandlers{
		mgr:      mgr,
		upgrader: websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }},
	}
}

func (h *EventHandlers) SSE() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, err := h.mgr.Get(chi.URLParam(r, "user_id"))
		if err != nil {
			writeMappedError(w, err)
			return
		}
		flusher, ok := w.(http.Flusher)
		if !ok {
			WriteHTTPError(w, http.StatusInternalServerError, "stream_not_supported")
			return
		}
		metricSSEConnectionsTotal.Add(1)
		metricSSEConnectionsActive.Add(1)
		defer metricSSEConnectionsActive.Add(-1)

		buf := s.Events()
		ch := buf.Subscribe()
		defer buf.Unsubscribe(ch)

		stream.SetSSEHeaders(w)
		w.WriteHeader(http.StatusOK)
		var cursor stream.Cursor
		for _, ev := range buf.ReplayAfter(r.Header.Get("Last-Event-ID")) {
			if !cursor.Next(ev) {
				continue
			}
			if err := stream.WriteSSE(w, ev); err != nil {
				return
			}
		}
		flusher.Flush()

		ticker := time.NewTicker(ssePingInterval)
		defer ticker.Stop()
		for {
			select {
			case <-r.Context().Done():
				return
			case ev, ok := <-ch:
				if !ok {
					return
				}
				if !cursor.Next(ev) {
					continue
				}
				if err := stream.WriteSSE(w, ev); err != nil {
					return
				}
				flusher.Flush()
			case now := <-ticker.C:
				s.Touch()
				if err := stream.WriteSSE(w, stream.Ping(s.UserID, now)); err != nil {
					return
				}
				flusher.Flush()
			}
		}
	}
}

// wsInbound is a client frame on the websocket feed.
type wsInbound struct {
	Type      string      `json:"type"`
	RequestID string      `json:"request_id,omitempty"`
	Command   sim.Command `json:"command"`
}

type wsCommandResult struct {
	Type      string      `json:"type"`
	RequestID string      `json:"request_id,omitempty"`
	Ok        bool        `json:"ok"`
	Error     string      `json:"error,omitempty"`
	Message   string      `json:"message,omitempty"`
	Result    *sim.Result `json:"result,omitempty"`
}

// WS streams the same feed as SSE and also accepts commands.
func (h *EventHandlers) WS() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, err := h.mgr.Get(chi.URLParam(r, "user_id"))
		if err != nil {
			writeMappedError(w, err)
			return
		}
		conn, err := h.upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		metricWSConnectionsTotal.Add(1)
		metricWSConnectionsActive.Add(1)
		defer metricWSConnectionsActive.Add(-1)

		buf := s.Events()
		ch := buf.Subscribe()
		send := make(chan any, 16)
		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()

		go h.wsWriteLoop(ctx, conn, buf, ch, send, r.URL.Query().Get("last_event_id"))
		h.wsReadLoop(ctx, conn, s, send)
		buf.Unsubscribe(ch)
		_ = conn.Close()
	}
}

func (h *EventHandlers) wsReadLoop(ctx context.Context, conn *websocket.Conn, s *session.Session, send chan<- any) {
	_ = conn.SetReadDeadline(time.Now().Add(wsPongWait))
	conn.SetPongHandler(func(string) error {
		s.Touch()
		return conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})
	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var in wsInbound
		if err := json.Unmarshal(msg, &in); err != nil || in.Type != "command" {
			continue
		}
		cctx, cancel := context.WithTimeout(ctx, commandTimeout)
		res, err := s.Submit(cctx, in.Command)
		cancel()
		out := wsCommandResult{Type: "command_result", RequestID: in.RequestID, Ok: err == nil}
		if err != nil {
			_, out.Error, out.Message = MapCommandError(err)
		} else {
			out.Result = &res
		}
		select {
		case send <- out:
		case <-ctx.Done():
			return
		}
	}
}

func (h *EventHandlers) wsWriteLoop(ctx context.Context, conn *websocket.Conn, buf *stream.EventBuffer, ch chan stream.StreamEvent, send <-chan any, lastEventID string) {
	ticker := time.NewTicker(wsPongWait * 9 / 10)
	defer ticker.Stop()
	write := func(v any) bool {
		_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
		if err := conn.WriteJSON(v); err != nil {
			log.Debug().Err(err).Msg("websocket write failed")
			_ = conn.Close()
			return false
		}
		return true
	}
	var cursor stream.Cursor
	for _, ev := range buf.ReplayAfter(lastEventID) {
		if cursor.Next(ev) && !write(ev) {
			return
		}
	}
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-ch:
			if !ok {
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "session closed"),
					time.Now().Add(wsWriteWait))
				_ = conn.Close()
				return
			}
			if cursor.Next(ev) && !write(ev) {
				return
			}
		case msg := <-send:
			if !write(msg) {
				return
			}
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(wsWriteWait)); err != nil {
				_ = conn.Close()
				return
			}
		}
	}
}
