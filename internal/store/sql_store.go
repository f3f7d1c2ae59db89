package store

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"

	"companion-world/internal/sim"
)

//go:embed schema.sql
var schemaSQL string

// SQLStore implements Repository over database/sql. Queries are written
// with ? placeholders and rebound to $N for Postgres.
type SQLStore struct {
	DB     *sql.DB
	driver string
}

// OpenSQL opens a store for driver "postgres" (pgx) or "sqlite" (modernc).
func OpenSQL(driver, dsn string) (*SQLStore, error) {
	var name string
	switch driver {
	case "postgres", "pgx":
		name, driver = "pgx", "postgres"
	case "sqlite":
		name = "sqlite"
	default:
		return nil, fmt.Errorf("store: unsupported driver %q", driver)
	}
	db, err := sql.Open(name, dsn)
	if err != nil {
		return nil, err
	}
	if driver == "sqlite" {
		// one connection keeps :memory: databases and write locking coherent
		db.SetMaxOpenConns(1)
	}
	return &SQLStore{DB: db, driver: driver}, nil
}

func (s *SQLStore) Close() error {
	return s.DB.Close()
}

func (s *SQLStore) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return s.DB.PingContext(ctx)
}

// Migrate applies the embedded schema. Every statement is idempotent.
func (s *SQLStore) Migrate(ctx context.Context) error {
	for _, stmt := range strings.Split(schemaSQL, ";") {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		if _, err := s.DB.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

func (s *SQLStore) q(query string) string {
	if s.driver != "postgres" {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (s *SQLStore) EnsureUser(ctx context.Context, username string) (User, error) {
	_, err := s.DB.ExecContext(ctx,
		s.q(`INSERT INTO users (id, username, created_at) VALUES (?,?,?) ON CONFLICT (username) DO NOTHING`),
		NewID(), username, toMillis(time.Now()))
	if err != nil {
		return User{}, fmt.Errorf("ensure user: %w", err)
	}
	var u User
	var created int64
	row := s.DB.QueryRowContext(ctx, s.q(`SELECT id, username, created_at FROM users WHERE username = ?`), username)
	if err := row.Scan(&u.ID, &u.Username, &created); err != nil {
		return User{}, fmt.Errorf("ensure user: %w", err)
	}
	u.CreatedAt = fromMillis(created)
	return u, nil
}

// ListUsers returns every user, newest first.
func (s *SQLStore) ListUsers(ctx context.Context) ([]User, error) {
	rows, err := s.DB.QueryContext(ctx, `SELECT id, username, created_at FROM users ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()
	out := []User{}
	for rows.Next() {
		var u User
		var created int64
		if err := rows.Scan(&u.ID, &u.Username, &created); err != nil {
			return nil, fmt.Errorf("list users: %w", err)
		}
		u.CreatedAt = fromMillis(created)
		out = append(out, u)
	}
	return out, rows.Err()
}

const agentColumns = `id, user_id, dna, name, personality, color, pos_x, pos_y, target_x, target_y,
current_action, happiness, energy, friendship, smarts, skills, inventory, thoughts,
is_user_owned, auto_life_enabled, rarity, price, birth_date, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAgent(r rowScanner) (sim.Agent, error) {
	var (
		a                           sim.Agent
		userID                      sql.NullString
		price                       sql.NullInt64
		skills, inventory, thoughts string
		birth, updated              int64
	)
	err := r.Scan(&a.ID, &userID, &a.DNA, &a.Name, &a.Personality, &a.Color,
		&a.Position.X, &a.Position.Y, &a.Target.X, &a.Target.Y,
		&a.CurrentAction, &a.Stats.Happiness, &a.Stats.Energy, &a.Stats.Friendship, &a.Stats.Smarts,
		&skills, &inventory, &thoughts,
		&a.IsUserOwned, &a.AutoLifeEnabled, &a.Rarity, &price, &birth, &updated)
	if err != nil {
		return sim.Agent{}, err
	}
	if userID.Valid {
		v := userID.String
		a.UserID = &v
	}
	if price.Valid {
		v := int(price.Int64)
		a.Price = &v
	}
	if err := decodeJSON(skills, &a.Skills); err != nil {
		return sim.Agent{}, err
	}
	if err := decodeJSON(inventory, &a.Inventory); err != nil {
		return sim.Agent{}, err
	}
	if err := decodeJSON(thoughts, &a.Thoughts); err != nil {
		return sim.Agent{}, err
	}
	a.BirthDate = fromMillis(birth)
	a.UpdatedAt = fromMillis(updated)
	return a, nil
}

func agentArgs(a sim.Agent) ([]any, error) {
	skills, err := encodeJSON(a.Skills)
	if err != nil {
		return nil, err
	}
	inventory, err := encodeJSON(a.Inventory)
	if err != nil {
		return nil, err
	}
	thoughts, err := encodeJSON(a.Thoughts)
	if err != nil {
		return nil, err
	}
	var price any
	if a.Price != nil {
		price = int64(*a.Price)
	}
	return []any{
		nullString(a.UserID), a.DNA, a.Name, a.Personality, a.Color,
		a.Position.X, a.Position.Y, a.Target.X, a.Target.Y,
		string(a.CurrentAction), a.Stats.Happiness, a.Stats.Energy, a.Stats.Friendship, a.Stats.Smarts,
		skills, inventory, thoughts,
		a.IsUserOwned, a.AutoLifeEnabled, string(a.Rarity), price,
		toMillis(a.BirthDate), toMillis(a.UpdatedAt),
	}, nil
}

func (s *SQLStore) GetAgent(ctx context.Context, id string) (sim.Agent, error) {
	row := s.DB.QueryRowContext(ctx, s.q(`SELECT `+agentColumns+` FROM agents WHERE id = ?`), id)
	a, err := scanAgent(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return sim.Agent{}, ErrNotFound
		}
		return sim.Agent{}, err
	}
	return a, nil
}

func (s *SQLStore) ListAgentsByUser(ctx context.Context, userID string) ([]sim.Agent, error) {
	return s.listAgents(ctx, s.q(`SELECT `+agentColumns+` FROM agents WHERE user_id = ? ORDER BY birth_date, id`), userID)
}

func (s *SQLStore) ListAllAgents(ctx context.Context) ([]sim.Agent, error) {
	return s.listAgents(ctx, `SELECT `+agentColumns+` FROM agents ORDER BY birth_date, id`)
}

func (s *SQLStore) listAgents(ctx context.Context, query string, args ...any) ([]sim.Agent, error) {
	rows, err := s.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []sim.Agent{}
	for rows.Next() {
		a, err := scanAgent(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *SQLStore) CreateAgent(ctx context.Context, a sim.Agent) error {
	args, err := agentArgs(a)
	if err != nil {
		return err
	}
	_, err = s.DB.ExecContext(ctx, s.q(`INSERT INTO agents (`+agentColumns+`)
VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`), append([]any{a.ID}, args...)...)
	if err != nil {
		return fmt.Errorf("create agent: %w", err)
	}
	return nil
}

func (s *SQLStore) UpdateAgent(ctx context.Context, a sim.Agent) error {
	args, err := agentArgs(a)
	if err != nil {
		return err
	}
	res, err := s.DB.ExecContext(ctx, s.q(`UPDATE agents SET user_id = ?, dna = ?, name = ?, personality = ?, color = ?,
pos_x = ?, pos_y = ?, target_x = ?, target_y = ?, current_action = ?,
happiness = ?, energy = ?, friendship = ?, smarts = ?, skills = ?, inventory = ?, thoughts = ?,
is_user_owned = ?, auto_life_enabled = ?, rarity = ?, price = ?, birth_date = ?, updated_at = ?
WHERE id = ?`), append(args, a.ID)...)
	if err != nil {
		return fmt.Errorf("update agent: %w", err)
	}
	return expectRow(res)
}

func (s *SQLStore) DeleteAgent(ctx context.Context, id string) error {
	res, err := s.DB.ExecContext(ctx, s.q(`DELETE FROM agents WHERE id = ?`), id)
	if err != nil {
		return err
	}
	return expectRow(res)
}

func (s *SQLStore) GetGameState(ctx context.Context, userID string) (sim.GameState, error) {
	var (
		st      sim.GameState
		quest   sql.NullString
		nodes   string
		updated int64
	)
	row := s.DB.QueryRowContext(ctx, s.q(`SELECT user_id, currency, selected_agent_id, my_agent_id, has_onboarded,
active_quest, map_nodes, updated_at FROM game_states WHERE user_id = ?`), userID)
	err := row.Scan(&st.UserID, &st.Currency, &st.SelectedAgentID, &st.MyAgentID, &st.HasOnboarded, &quest, &nodes, &updated)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return sim.GameState{}, ErrNotFound
		}
		return sim.GameState{}, err
	}
	if quest.Valid && quest.String != "" && quest.String != "null" {
		var q sim.Quest
		if err := decodeJSON(quest.String, &q); err != nil {
			return sim.GameState{}, err
		}
		st.ActiveQuest = &q
	}
	if err := decodeJSON(nodes, &st.MapNodes); err != nil {
		return sim.GameState{}, err
	}
	if st.MapNodes == nil {
		st.MapNodes = []sim.MapNode{}
	}
	st.UpdatedAt = fromMillis(updated)
	return st, nil
}

func gameStateArgs(st sim.GameState) ([]any, error) {
	var quest any
	if st.ActiveQuest != nil {
		raw, err := encodeJSON(st.ActiveQuest)
		if err != nil {
			return nil, err
		}
		quest = raw
	}
	nodes, err := encodeJSON(st.MapNodes)
	if err != nil {
		return nil, err
	}
	return []any{st.Currency, st.SelectedAgentID, st.MyAgentID, st.HasOnboarded, quest, nodes, toMillis(st.UpdatedAt)}, nil
}

func (s *SQLStore) CreateGameState(ctx context.Context, st sim.GameState) error {
	args, err := gameStateArgs(st)
	if err != nil {
		return err
	}
	_, err = s.DB.ExecContext(ctx, s.q(`INSERT INTO game_states (user_id, currency, selected_agent_id, my_agent_id,
has_onboarded, active_quest, map_nodes, updated_at) VALUES (?,?,?,?,?,?,?,?)`), append([]any{st.UserID}, args...)...)
	if err != nil {
		return fmt.Errorf("create game state: %w", err)
	}
	return nil
}

func (s *SQLStore) UpdateGameState(ctx context.Context, st sim.GameState) error {
	args, err := gameStateArgs(st)
	if err != nil {
		return err
	}
	res, err := s.DB.ExecContext(ctx, s.q(`UPDATE game_states SET currency = ?, selected_agent_id = ?, my_agent_id = ?,
has_onboarded = ?, active_quest = ?, map_nodes = ?, updated_at = ? WHERE user_id = ?`), append(args, st.UserID)...)
	if err != nil {
		return fmt.Errorf("update game state: %w", err)
	}
	return expectRow(res)
}

func (s *SQLStore) CreateTransaction(ctx context.Context, tx sim.Transaction) error {
	_, err := s.DB.ExecContext(ctx, s.q(`INSERT INTO transactions (id, user_id, agent_id, item_name, cost, is_autonomous, created_at)
VALUES (?,?,?,?,?,?,?)`), tx.ID, tx.UserID, nullString(tx.AgentID), tx.ItemName, tx.Cost, tx.IsAutonomous, toMillis(tx.Timestamp))
	if err != nil {
		return fmt.Errorf("create transaction: %w", err)
	}
	return nil
}

const txColumns = `id, user_id, agent_id, item_name, cost, is_autonomous, created_at`

func (s *SQLStore) ListTransactions(ctx context.Context, userID string, limit int) ([]sim.Transaction, error) {
	return s.listTransactions(ctx, s.q(`SELECT `+txColumns+` FROM transactions WHERE user_id = ?
ORDER BY created_at DESC, id DESC LIMIT ?`), userID, normLimit(limit))
}

func (s *SQLStore) ListAllTransactions(ctx context.Context, limit int) ([]sim.Transaction, error) {
	return s.listTransactions(ctx, s.q(`SELECT `+txColumns+` FROM transactions
ORDER BY created_at DESC, id DESC LIMIT ?`), normLimit(limit))
}

func (s *SQLStore) listTransactions(ctx context.Context, query string, args ...any) ([]sim.Transaction, error) {
	rows, err := s.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []sim.Transaction{}
	for rows.Next() {
		var (
			tx      sim.Transaction
			agentID sql.NullString
			created int64
		)
		if err := rows.Scan(&tx.ID, &tx.UserID, &agentID, &tx.ItemName, &tx.Cost, &tx.IsAutonomous, &created); err != nil {
			return nil, err
		}
		if agentID.Valid {
			v := agentID.String
			tx.AgentID = &v
		}
		tx.Timestamp = fromMillis(created)
		out = append(out, tx)
	}
	return out, rows.Err()
}

func (s *SQLStore) CreateLog(ctx context.Context, l sim.LogEntry) error {
	_, err := s.DB.ExecContext(ctx, s.q(`INSERT INTO logs (id, user_id, message, type, created_at) VALUES (?,?,?,?,?)`),
		l.ID, l.UserID, l.Text, string(l.Type), toMillis(l.Timestamp))
	if err != nil {
		return fmt.Errorf("create log: %w", err)
	}
	return nil
}

func (s *SQLStore) ListLogs(ctx context.Context, userID string, limit int) ([]sim.LogEntry, error) {
	rows, err := s.DB.QueryContext(ctx, s.q(`SELECT id, user_id, message, type, created_at FROM logs WHERE user_id = ?
ORDER BY created_at DESC, id DESC LIMIT ?`), userID, normLimit(limit))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []sim.LogEntry{}
	for rows.Next() {
		var (
			l       sim.LogEntry
			created int64
		)
		if err := rows.Scan(&l.ID, &l.UserID, &l.Text, &l.Type, &created); err != nil {
			return nil, err
		}
		l.Timestamp = fromMillis(created)
		out = append(out, l)
	}
	return out, rows.Err()
}

// AdminStats counts revenue as the sum of debits; quest rewards are credits and excluded.
func (s *SQLStore) AdminStats(ctx context.Context) (AdminStats, error) {
	var st AdminStats
	row := s.DB.QueryRowContext(ctx, `SELECT
(SELECT COUNT(*) FROM agents),
(SELECT COUNT(*) FROM users),
(SELECT COUNT(*) FROM transactions),
(SELECT CAST(COALESCE(SUM(cost), 0) AS BIGINT) FROM transactions WHERE cost > 0)`)
	if err := row.Scan(&st.TotalAgents, &st.TotalUsers, &st.TotalTransactions, &st.TotalRevenue); err != nil {
		return AdminStats{}, err
	}
	return st, nil
}

func expectRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
