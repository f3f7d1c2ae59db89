package stream

import (
	"strconv"
	"sync"
	"time"
)

const DefaultBufferSize = 500

// StreamEvent is one entry of a user's feed. EventIDs are decimal and
// increase by one per append, so clients resume with Last-Event-ID.
type StreamEvent struct {
	EventID  string `json:"event_id"`
	Event    string `json:"event"`
	UserID   string `json:"user_id"`
	ServerTS int64  `json:"server_ts"`
	Data     any    `json:"data"`
}

type EventBuffer struct {
	mu       sync.Mutex
	nextID   int64
	max      int
	events   []StreamEvent
	watchers map[chan StreamEvent]struct{}
	closed   bool
}

func NewEventBuffer(max int) *EventBuffer {
	if max <= 0 {
		max = DefaultBufferSize
	}
	return &EventBuffer{
		max:      max,
		watchers: map[chan StreamEvent]struct{}{},
	}
}

// Append stores ev and fans it out. Slow watchers miss events rather than
// stall the publisher; they can catch up through ReplayAfter.
func (b *EventBuffer) Append(event, userID string, data any) StreamEvent {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return StreamEvent{}
	}
	b.nextID++
	ev := StreamEvent{
		EventID:  strconv.FormatInt(b.nextID, 10),
		Event:    event,
		UserID:   userID,
		ServerTS: time.Now().UnixMilli(),
		Data:     data,
	}
	b.events = append(b.events, ev)
	if len(b.events) > b.max {
		b.events = b.events[len(b.events)-b.max:]
	}
	for ch := range b.watchers {
		select {
		case ch <- ev:
		default:
		}
	}
	return ev
}

// ReplayAfter returns buffered events newer than lastEventID; an empty or
// unparsable id replays the whole buffer.
func (b *EventBuffer) ReplayAfter(lastEventID string) []StreamEvent {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.events) == 0 {
		return nil
	}
	last, err := strconv.ParseInt(lastEventID, 10, 64)
	if lastEventID == "" || err != nil {
		out := make([]StreamEvent, len(b.events))
		copy(out, b.events)
		return out
	}
	out := make([]StreamEvent, 0, len(b.events))
	for _, ev := range b.events {
		id, _ := strconv.ParseInt(ev.EventID, 10, 64)
		if id > last {
			out = append(out, ev)
		}
	}
	return out
}

func (b *EventBuffer) Subscribe() chan StreamEvent {
	ch := make(chan StreamEvent, 32)
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		close(ch)
		return ch
	}
	b.watchers[ch] = struct{}{}
	return ch
}

func (b *EventBuffer) Unsubscribe(ch chan StreamEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.watchers[ch]; ok {
		delete(b.watchers, ch)
		close(ch)
	}
}

func (b *EventBuffer) Watchers() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.watchers)
}

func (b *EventBuffer) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for ch := range b.watchers {
		close(ch)
		delete(b.watchers, ch)
	}
}

// Cursor remembers the newest event a reader has written. A reader that
// subscribes and then replays can see the same event twice; Cursor drops
// the second copy. Events without a numeric id, like pings, always pass.
type Cursor struct {
	last int64
}

// Next reports whether ev is new to the reader and advances the cursor.
func (c *Cursor) Next(ev StreamEvent) bool {
	id, err := strconv.ParseInt(ev.EventID, 10, 64)
	if err != nil {
		return true
	}
	if id <= c.last {
		return false
	}
	c.last = id
	return true
}
