package pricing

import (
	"bufio"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/get2yaheart/get2ya/internal/modules/driver"
)

func TestStoreGetRate(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	rate, err := store.GetRate(ctx, driver.TierX)
	if err != nil {
		t.Fatalf("get rate: %v", err)
	}
	if rate.Tier != driver.TierX {
		t.Errorf("tier = %q, want %q", rate.Tier, driver.TierX)
	}
	if rate.BaseFare != 12000 || rate.PerKm != 9500 || rate.PerMin != 400 {
		t.Errorf("schedule = %d/%d/%d, want 12000/9500/400", rate.BaseFare, rate.PerKm, rate.PerMin)
	}
	if rate.Currency != "VND" {
		t.Errorf("currency = %q, want VND", rate.Currency)
	}

	if _, err := store.GetRate(ctx, driver.Tier("hoverboard")); !errors.Is(err, ErrNoRate) {
		t.Errorf("unknown tier error = %v, want ErrNoRate", err)
	}
}

func TestStoreSeedsMatchBuiltInSchedule(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	for tier, want := range DefaultRates() {
		got, err := store.GetRate(ctx, tier)
		if err != nil {
			t.Fatalf("get rate %s: %v", tier, err)
		}
		if got != want {
			t.Errorf("rate %s = %+v, want %+v", tier, got, want)
		}
	}
}

func setupTestStore(t *testing.T) *Store {
	t.Helper()

	dsn := os.Getenv("GET2YA_TEST_DSN")
	if dsn == "" {
		t.Skip("GET2YA_TEST_DSN not set; skipping DB-backed tests")
	}

	ctx := context.Background()
	db, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Fatalf("connect db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := applyMigration(ctx, db); err != nil {
		t.Fatalf("apply migration: %v", err)
	}

	return NewStore(db)
}

func applyMigration(ctx context.Context, db *pgxpool.Pool) error {
	root, err := repoRoot()
	if err != nil {
		return err
	}
	for _, name := range []string{"0001_init.sql", "0002_rates.sql"} {
		path := filepath.Join(root, "migrations", name)
		content, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		cleaned := stripSQLComments(string(content))
		for _, stmt := range splitSQL(cleaned) {
			if _, err := db.Exec(ctx, stmt); err != nil {
				return err
			}
		}
	}
	return nil
}

func repoRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}
	for i := 0; i < 6; i++ {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", os.ErrNotExist
}

func stripSQLComments(input string) string {
	var b strings.Builder
	scanner := bufio.NewScanner(strings.NewReader(input))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "--") {
			continue
		}
		b.WriteString(scanner.Text())
		b.WriteString("\n")
	}
	return b.String()
}

func splitSQL(input string) []string {
	parts := strings.Split(input, ";")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		stmt := strings.TrimSpace(p)
		if stmt == "" {
			continue
		}
		out = append(out, stmt)
	}
	return out
}
