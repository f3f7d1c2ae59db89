package store

import (
	"context"
	"errors"
	"time"

	"companion-world/internal/sim"
)

var (
	ErrNotFound  = errors.New("not_found")
	ErrDuplicate = errors.New("duplicate")
)

// DefaultListLimit bounds log and transaction listings when no limit is given.
const DefaultListLimit = 50

type User struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"created_at"`
}

type AdminStats struct {
	TotalAgents       int `json:"total_agents"`
	TotalUsers        int `json:"total_users"`
	TotalTransactions int `json:"total_transactions"`
	TotalRevenue      int `json:"total_revenue"`
}

// Repository persists users, companions, game state and the two append-only
// histories. Listings of transactions and logs are newest first.
type Repository interface {
	EnsureUser(ctx context.Context, username string) (User, error)
	ListUsers(ctx context.Context) ([]User, error)

	GetAgent(ctx context.Context, id string) (sim.Agent, error)
	ListAgentsByUser(ctx context.Context, userID string) ([]sim.Agent, error)
	ListAllAgents(ctx context.Context) ([]sim.Agent, error)
	CreateAgent(ctx context.Context, a sim.Agent) error
	UpdateAgent(ctx context.Context, a sim.Agent) error
	DeleteAgent(ctx context.Context, id string) error

	GetGameState(ctx context.Context, userID string) (sim.GameState, error)
	CreateGameState(ctx context.Context, st sim.GameState) error
	UpdateGameState(ctx context.Context, st sim.GameState) error

	CreateTransaction(ctx context.Context, tx sim.Transaction) error
	ListTransactions(ctx context.Context, userID string, limit int) ([]sim.Transaction, error)
	ListAllTransactions(ctx context.Context, limit int) ([]sim.Transaction, error)

	CreateLog(ctx context.Context, l sim.LogEntry) error
	ListLogs(ctx context.Context, userID string, limit int) ([]sim.LogEntry, error)

	AdminStats(ctx context.Context) (AdminStats, error)
	Ping(ctx context.Context) error
	Close() error
}

func normLimit(limit int) int {
	if limit <= 0 {
		return DefaultListLimit
	}
	return limit
}
