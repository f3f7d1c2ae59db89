package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"companion-world/internal/sim"
)

// MemoryStore keeps everything in process. It backs tests and STORE_DRIVER=memory.
type MemoryStore struct {
	mu           sync.Mutex
	users        map[string]User
	agents       map[string]sim.Agent
	states       map[string]sim.GameState
	transactions []sim.Transaction
	logs         []sim.LogEntry
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:  map[string]User{},
		agents: map[string]sim.Agent{},
		states: map[string]sim.GameState{},
	}
}

func (m *MemoryStore) Ping(context.Context) error { return nil }

func (m *MemoryStore) Close() error { return nil }

func (m *MemoryStore) EnsureUser(_ context.Context, username string) (User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.users[username]; ok {
		return u, nil
	}
	u := User{ID: NewID(), Username: username, CreatedAt: time.Now().UTC()}
	m.users[username] = u
	return u, nil
}

// ListUsers returns every user, newest first.
func (m *MemoryStore) ListUsers(context.Context) ([]User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]User, 0, len(m.users))
	for _, u := range m.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (m *MemoryStore) GetAgent(_ context.Context, id string) (sim.Agent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.agents[id]
	if !ok {
		return sim.Agent{}, ErrNotFound
	}
	return a.Clone(), nil
}

func (m *MemoryStore) ListAgentsByUser(_ context.Context, userID string) ([]sim.Agent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sortedAgents(func(a sim.Agent) bool { return a.UserID != nil && *a.UserID == userID }), nil
}

func (m *MemoryStore) ListAllAgents(context.Context) ([]sim.Agent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sortedAgents(func(sim.Agent) bool { return true }), nil
}

func (m *MemoryStore) sortedAgents(keep func(sim.Agent) bool) []sim.Agent {
	out := []sim.Agent{}
	for _, a := range m.agents {
		if keep(a) {
			out = append(out, a.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].BirthDate.Equal(out[j].BirthDate) {
			return out[i].BirthDate.Before(out[j].BirthDate)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (m *MemoryStore) CreateAgent(_ context.Context, a sim.Agent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, other := range m.agents {
		if id == a.ID {
			return fmt.Errorf("create agent %s: %w", a.ID, ErrDuplicate)
		}
		if other.DNA == a.DNA {
			return fmt.Errorf("create agent %s: dna %s: %w", a.ID, a.DNA, ErrDuplicate)
		}
	}
	m.agents[a.ID] = a.Clone()
	return nil
}

func (m *MemoryStore) UpdateAgent(_ context.Context, a sim.Agent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.agents[a.ID]; !ok {
		return ErrNotFound
	}
	m.agents[a.ID] = a.Clone()
	return nil
}

func (m *MemoryStore) DeleteAgent(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.agents[id]; !ok {
		return ErrNotFound
	}
	delete(m.agents, id)
	return nil
}

func (m *MemoryStore) GetGameState(_ context.Context, userID string) (sim.GameState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	st, ok := m.states[userID]
	if !ok {
		return sim.GameState{}, ErrNotFound
	}
	return st.Clone(), nil
}

func (m *MemoryStore) CreateGameState(_ context.Context, st sim.GameState) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.states[st.UserID] = st.Clone()
	return nil
}

func (m *MemoryStore) UpdateGameState(_ context.Context, st sim.GameState) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.states[st.UserID]; !ok {
		return ErrNotFound
	}
	m.states[st.UserID] = st.Clone()
	return nil
}

func (m *MemoryStore) CreateTransaction(_ context.Context, tx sim.Transaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.transactions = append(m.transactions, tx)
	return nil
}

func (m *MemoryStore) ListTransactions(_ context.Context, userID string, limit int) ([]sim.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return newestFirst(m.transactions, normLimit(limit), func(tx sim.Transaction) bool { return tx.UserID == userID }), nil
}

func (m *MemoryStore) ListAllTransactions(_ context.Context, limit int) ([]sim.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return newestFirst(m.transactions, normLimit(limit), func(sim.Transaction) bool { return true }), nil
}

func (m *MemoryStore) CreateLog(_ context.Context, l sim.LogEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.logs = append(m.logs, l)
	return nil
}

func (m *MemoryStore) ListLogs(_ context.Context, userID string, limit int) ([]sim.LogEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return newestFirst(m.logs, normLimit(limit), func(l sim.LogEntry) bool { return l.UserID == userID }), nil
}

func (m *MemoryStore) AdminStats(context.Context) (AdminStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	st := AdminStats{
		TotalAgents:       len(m.agents),
		TotalUsers:        len(m.users),
		TotalTransactions: len(m.transactions),
	}
	for _, tx := range m.transactions {
		if tx.Cost > 0 {
			st.TotalRevenue += tx.Cost
		}
	}
	return st, nil
}

// newestFirst walks insertion order backwards. Callers append in time order.
func newestFirst[T any](items []T, limit int, keep func(T) bool) []T {
	out := []T{}
	for i := len(items) - 1; i >= 0 && len(out) < limit; i-- {
		if keep(items[i]) {
			out = append(out, items[i])
		}
	}
	return out
}
