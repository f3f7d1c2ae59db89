package session

import (
	"context"
	"errors"
	"hash/fnv"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog/log"

	"companion-world/internal/sim"
	"companion-world/internal/store"
)

const (
	defaultTickInterval = time.Second
	defaultIdleTimeout  = 30 * time.Minute
	maxUsernameLen      = 64
)

type Options struct {
	Tuning       sim.Tuning
	Catalog      *sim.Catalog
	TickInterval time.Duration
	IdleTimeout  time.Duration
	// Seed makes every session reproducible; each user's stream is derived
	// from it and the user id. 0 seeds from time.
	Seed  int64
	Clock sim.Clock
}

// Manager tracks one running Session per user.
type Manager struct {
	repo store.Repository
	opts Options

	mu       sync.Mutex
	sessions map[string]*Session
	byName   map[string]string
	// closing holds sessions that left the maps but are still flushing.
	closing map[string]*Session
	closed  bool
}

func NewManager(repo store.Repository, opts Options) *Manager {
	if opts.TickInterval <= 0 {
		opts.TickInterval = defaultTickInterval
	}
	if opts.IdleTimeout <= 0 {
		opts.IdleTimeout = defaultIdleTimeout
	}
	if opts.Catalog == nil {
		opts.Catalog = sim.DefaultCatalog()
	}
	return &Manager{
		repo:     repo,
		opts:     opts,
		sessions: map[string]*Session{},
		byName:   map[string]string{},
		closing:  map[string]*Session{},
	}
}

func (m *Manager) Catalog() *sim.Catalog {
	return m.opts.Catalog
}

func (m *Manager) Repository() store.Repository {
	return m.repo
}

func normalizeUsername(username string) (string, error) {
	username = strings.TrimSpace(username)
	if username == "" || utf8.RuneCountInString(username) > maxUsernameLen {
		return "", ErrInvalidUsername
	}
	return username, nil
}

// Open returns the running session for username, loading or creating the
// user's world on first use.
func (m *Manager) Open(ctx context.Context, username string) (*Session, error) {
	username, err := normalizeUsername(username)
	if err != nil {
		return nil, err
	}
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil, ErrSessionClosed
	}
	if id, ok := m.byName[username]; ok {
		s := m.sessions[id]
		m.mu.Unlock()
		s.touch()
		return s, nil
	}
	m.mu.Unlock()

	user, err := m.repo.EnsureUser(ctx, username)
	if err != nil {
		return nil, err
	}
	if err := m.waitClosed(ctx, user.ID); err != nil {
		return nil, err
	}
	engine, err := m.load(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	if id, ok := m.byName[username]; ok {
		// lost a race with a concurrent Open; keep the session already running
		s := m.sessions[id]
		m.mu.Unlock()
		s.touch()
		return s, nil
	}
	if m.closed {
		m.mu.Unlock()
		return nil, ErrSessionClosed
	}
	s := newSession(user.ID, username, engine, m.repo, m.opts.TickInterval)
	m.sessions[user.ID] = s
	m.byName[username] = user.ID
	s.start()
	m.mu.Unlock()

	metricSessionsActive.Inc()
	log.Info().Str("user_id", user.ID).Str("username", username).Msg("session opened")
	return s, nil
}

// waitClosed blocks until a previous session of userID has written
// everything it had pending, so load sees the latest state.
func (m *Manager) waitClosed(ctx context.Context, userID string) error {
	m.mu.Lock()
	prev, ok := m.closing[userID]
	m.mu.Unlock()
	if !ok {
		return nil
	}
	select {
	case <-prev.Stopped():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// sessionSeed gives every user a distinct stream under a fixed Seed, so
// DNA and id entropy never repeat across users.
func sessionSeed(seed int64, userID string) int64 {
	if seed == 0 {
		return 0
	}
	h := fnv.New64a()
	_, _ = h.Write([]byte(userID))
	if mixed := seed ^ int64(h.Sum64()); mixed != 0 {
		return mixed
	}
	return seed
}

func (m *Manager) engineOptions(userID string) sim.Options {
	opts := sim.Options{
		Tuning:  m.opts.Tuning,
		Catalog: m.opts.Catalog,
		Rand:    sim.NewRand(sessionSeed(m.opts.Seed, userID)),
	}
	if m.opts.Clock != nil {
		opts.Clock = m.opts.Clock
	}
	return opts
}

func (m *Manager) load(ctx context.Context, userID string) (*sim.Engine, error) {
	state, err := m.repo.GetGameState(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		return sim.New(userID, m.engineOptions(userID)), nil
	}
	if err != nil {
		return nil, err
	}
	agents, err := m.repo.ListAgentsByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	logs, err := m.repo.ListLogs(ctx, userID, m.opts.Tuning.LogHistory)
	if err != nil {
		return nil, err
	}
	return sim.Restore(state, agents, logs, m.engineOptions(userID)), nil
}

func (m *Manager) Get(userID string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[userID]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

func (m *Manager) Active() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Close stops the session of userID and flushes its pending writes.
func (m *Manager) Close(userID string) error {
	m.mu.Lock()
	s, ok := m.sessions[userID]
	if ok {
		delete(m.sessions, userID)
		delete(m.byName, s.Username)
		m.closing[userID] = s
	}
	m.mu.Unlock()
	if !ok {
		return ErrSessionNotFound
	}
	s.Stop()
	m.mu.Lock()
	if m.closing[userID] == s {
		delete(m.closing, userID)
	}
	m.mu.Unlock()
	metricSessionsActive.Dec()
	log.Info().Str("user_id", userID).Msg("session closed")
	return nil
}

// Shutdown closes every session and refuses new ones.
func (m *Manager) Shutdown() {
	m.mu.Lock()
	m.closed = true
	ids := make([]string, 0, len(m.sessions))
	for id := range m.sessions {
		ids = append(ids, id)
	}
	m.mu.Unlock()
	for _, id := range ids {
		_ = m.Close(id)
	}
}

func (m *Manager) StartJanitor(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				m.expireIdle(now)
			}
		}
	}()
}

// expireIdle closes sessions with no activity for longer than IdleTimeout.
// Sessions with a connected feed are kept alive.
func (m *Manager) expireIdle(now time.Time) int {
	m.mu.Lock()
	var idle []string
	for id, s := range m.sessions {
		if s.buffer.Watchers() > 0 {
			continue
		}
		if now.Sub(s.LastActive()) > m.opts.IdleTimeout {
			idle = append(idle, id)
		}
	}
	m.mu.Unlock()
	for _, id := range idle {
		if err := m.Close(id); err == nil {
			log.Info().Str("user_id", id).Msg("idle session expired")
		}
	}
	return len(idle)
}
