package session

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"

	"companion-world/internal/sim"
	"companion-world/internal/store"
	"companion-world/internal/stream"
)

const (
	EventLog     = "log"
	EventState   = "state"
	EventCommand = "command"
)

// maxTickStep caps dt after a stall so a paused process does not drain a day of stats at once.
const maxTickStep = 5 * time.Second

type request struct {
	ctx   context.Context
	fn    func(e *sim.Engine) (any, error)
	reply chan response
}

type response struct {
	value any
	err   error
}

// CommandEvent is published on the feed after every command.
type CommandEvent struct {
	Command sim.Command `json:"command"`
	Result  *sim.Result `json:"result,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// Session owns one user's engine. A single goroutine runs ticks and
// commands, so the engine is never entered concurrently.
type Session struct {
	UserID   string
	Username string

	engine   *sim.Engine
	interval time.Duration
	buffer   *stream.EventBuffer
	persist  *persister

	requests chan request
	stop     chan struct{}
	done     chan struct{}
	stopped  chan struct{}
	stopOnce sync.Once

	lastActive atomic.Int64
}

func newSession(userID, username string, engine *sim.Engine, repo store.Repository, interval time.Duration) *Session {
	s := &Session{
		UserID:   userID,
		Username: username,
		engine:   engine,
		interval: interval,
		buffer:   stream.NewEventBuffer(stream.DefaultBufferSize),
		persist:  newPersister(repo, userID),
		requests: make(chan request),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
		stopped:  make(chan struct{}),
	}
	s.touch()
	s.publish(engine.Drain())
	return s
}

func (s *Session) start() {
	go s.run()
}

func (s *Session) run() {
	defer close(s.done)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	last := time.Now()
	for {
		select {
		case <-s.stop:
			return
		case now := <-ticker.C:
			dt := now.Sub(last)
			last = now
			if dt > maxTickStep {
				dt = maxTickStep
			}
			s.tick(dt)
		case req := <-s.requests:
			if err := req.ctx.Err(); err != nil {
				req.reply <- response{err: err}
				continue
			}
			v, err := req.fn(s.engine)
			s.publish(s.engine.Drain())
			req.reply <- response{value: v, err: err}
		}
	}
}

func (s *Session) tick(dt time.Duration) sim.TickReport {
	started := time.Now()
	rep := s.engine.Tick(dt)
	metricTicks.Inc()
	metricTickSeconds.Observe(time.Since(started).Seconds())
	if rep.QuestExpired {
		log.Info().Str("user_id", s.UserID).Msg("quest expired")
	}
	s.publish(s.engine.Drain())
	return rep
}

// publish persists the drained changes and fans them out to subscribers.
func (s *Session) publish(c sim.Changes) {
	if c.Empty() {
		return
	}
	s.persist.enqueue(c)
	for _, l := range c.Logs {
		s.buffer.Append(EventLog, s.UserID, l)
	}
	s.buffer.Append(EventState, s.UserID, s.engine.Snapshot())
}

// do runs fn on the session goroutine and waits for its result.
func (s *Session) do(ctx context.Context, fn func(e *sim.Engine) (any, error)) (any, error) {
	reply := make(chan response, 1)
	select {
	case <-s.done:
		return nil, ErrSessionClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	case s.requests <- request{ctx: ctx, fn: fn, reply: reply}:
	}
	// a taken request always runs and replies, even if ctx expires meanwhile
	r := <-reply
	return r.value, r.err
}

// Submit applies cmd and returns its result. Engine errors are returned
// unchanged so callers can match them with errors.Is.
func (s *Session) Submit(ctx context.Context, cmd sim.Command) (sim.Result, error) {
	s.touch()
	v, err := s.do(ctx, func(e *sim.Engine) (any, error) {
		res, err := e.Apply(cmd)
		ev := CommandEvent{Command: cmd}
		if err != nil {
			ev.Error = err.Error()
		} else {
			ev.Result = &res
		}
		s.buffer.Append(EventCommand, s.UserID, ev)
		return res, err
	})
	if errors.Is(err, ErrSessionClosed) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		metricCommands.WithLabelValues(string(cmd.Type), "aborted").Inc()
		return sim.Result{}, err
	}
	if err != nil {
		metricCommands.WithLabelValues(string(cmd.Type), "error").Inc()
		log.Debug().Err(err).Str("user_id", s.UserID).Str("command", string(cmd.Type)).Msg("command rejected")
		return sim.Result{}, err
	}
	metricCommands.WithLabelValues(string(cmd.Type), "ok").Inc()
	return v.(sim.Result), nil
}

func (s *Session) Snapshot(ctx context.Context) (sim.Snapshot, error) {
	s.touch()
	v, err := s.do(ctx, func(e *sim.Engine) (any, error) {
		return e.Snapshot(), nil
	})
	if err != nil {
		return sim.Snapshot{}, err
	}
	return v.(sim.Snapshot), nil
}

// Advance runs one tick of dt immediately, outside the ticker schedule.
func (s *Session) Advance(ctx context.Context, dt time.Duration) (sim.TickReport, error) {
	v, err := s.do(ctx, func(*sim.Engine) (any, error) {
		return s.tick(dt), nil
	})
	if err != nil {
		return sim.TickReport{}, err
	}
	return v.(sim.TickReport), nil
}

func (s *Session) Events() *stream.EventBuffer {
	return s.buffer
}

func (s *Session) Catalog() *sim.Catalog {
	return s.engine.Catalog()
}

func (s *Session) touch() {
	s.lastActive.Store(time.Now().UnixNano())
}

// Touch marks the session as in use, e.g. while a feed is connected.
func (s *Session) Touch() {
	s.touch()
}

func (s *Session) LastActive() time.Time {
	return time.Unix(0, s.lastActive.Load())
}

func (s *Session) Done() <-chan struct{} {
	return s.done
}

// Stopped is closed once Stop has flushed every pending write.
func (s *Session) Stopped() <-chan struct{} {
	return s.stopped
}

// Stop halts ticks, waits for the loop to exit and flushes pending writes.
// It is safe to call more than once.
func (s *Session) Stop() {
	s.stopOnce.Do(func() {
		close(s.stop)
		<-s.done
		s.persist.close()
		s.buffer.Close()
		close(s.stopped)
	})
}
