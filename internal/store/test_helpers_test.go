package store

import (
	"context"
	"fmt"
	"net/url"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"

	"companion-world/internal/config"
	"companion-world/internal/sim"
)

var testSchemaNamePattern = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// repoFactories lists every backend the contract tests run against. Postgres
// joins when TEST_DATABASE_DSN is set.
func repoFactories(t *testing.T) map[string]func(t *testing.T) Repository {
	t.Helper()
	out := map[string]func(t *testing.T) Repository{
		"memory": func(*testing.T) Repository { return NewMemoryStore() },
		"sqlite": openSQLite,
	}
	if cfg, err := config.LoadTest(); err == nil {
		out["postgres"] = func(t *testing.T) Repository { return openPostgres(t, cfg.TestDatabaseDSN) }
	}
	return out
}

func openSQLite(t *testing.T) Repository {
	t.Helper()
	st, err := OpenSQL("sqlite", filepath.Join(t.TempDir(), "world.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })
	if err := st.Migrate(context.Background()); err != nil {
		t.Fatalf("migrate sqlite: %v", err)
	}
	return st
}

func openPostgres(t *testing.T, dsn string) Repository {
	t.Helper()
	schema := fmt.Sprintf("test_%d", time.Now().UnixNano())
	base, err := OpenSQL("postgres", dsn)
	if err != nil {
		t.Fatalf("open base db: %v", err)
	}
	createSchemaSQL, err := schemaDDL("CREATE SCHEMA %s", schema)
	if err != nil {
		_ = base.Close()
		t.Fatalf("invalid schema name: %v", err)
	}
	if _, err := base.DB.Exec(createSchemaSQL); err != nil {
		_ = base.Close()
		t.Fatalf("create schema: %v", err)
	}

	st, err := OpenSQL("postgres", withSearchPath(dsn, schema))
	if err != nil {
		_ = base.Close()
		t.Fatalf("open store: %v", err)
	}
	if err := st.Migrate(context.Background()); err != nil {
		t.Fatalf("apply schema: %v", err)
	}
	t.Cleanup(func() {
		_ = st.Close()
		if dropSchemaSQL, ddlErr := schemaDDL("DROP SCHEMA %s CASCADE", schema); ddlErr == nil {
			_, _ = base.DB.Exec(dropSchemaSQL)
		}
		_ = base.Close()
	})
	return st
}

func withSearchPath(dsn, schema string) string {
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + "search_path=" + url.QueryEscape(schema)
}

func schemaDDL(format, schema string) (string, error) {
	if !testSchemaNamePattern.MatchString(schema) {
		return "", fmt.Errorf("schema %q does not match required pattern", schema)
	}
	return fmt.Sprintf(format, pgx.Identifier{schema}.Sanitize()), nil
}

var testEpoch = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func testAgent(id, userID string, born time.Time) sim.Agent {
	return sim.Agent{
		ID:            id,
		UserID:        &userID,
		DNA:           "DNA-" + id,
		Name:          "Rex",
		Personality:   "Playful",
		Color:         "#fb923c",
		Position:      sim.Point{X: 400, Y: 400},
		Target:        sim.Point{X: 420.5, Y: 380},
		CurrentAction: sim.ActionWalking,
		Stats:         sim.DefaultStats(),
		Skills:        []sim.Skill{{ID: "zoomies", Name: "Zoomies", Level: 1}},
		Inventory:     []sim.Item{},
		Thoughts:      []sim.Thought{{ID: "t1", Text: "Hi", Timestamp: born}},
		IsUserOwned:   true,
		Rarity:        sim.RarityCommon,
		BirthDate:     born,
		UpdatedAt:     born,
	}
}
