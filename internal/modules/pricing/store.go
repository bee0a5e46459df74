// README: Pricing store backed by PostgreSQL.
package pricing

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/get2yaheart/get2ya/internal/modules/driver"
)

type Store struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

func (s *Store) GetRate(ctx context.Context, tier driver.Tier) (Rate, error) {
	query := `
		SELECT tier, base_fare, per_km, per_min, currency
		FROM rates
		WHERE tier = $1`

	var r Rate
	err := s.db.QueryRow(ctx, query, string(tier)).Scan(
		&r.Tier, &r.BaseFare, &r.PerKm, &r.PerMin, &r.Currency,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Rate{}, ErrNoRate
		}
		return Rate{}, fmt.Errorf("get rate: %w", err)
	}
	return r, nil
}
