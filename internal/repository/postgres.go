package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/Siddarth2230/url-mapping-service/internal/models"
	"github.com/Siddarth2230/url-mapping-service/pkg/metrics"
)

// uniqueViolation is the SQLSTATE PostgreSQL reports for duplicate keys.
const uniqueViolation = "23505"

const schema = `
	CREATE TABLE IF NOT EXISTS url_mapping (
		id BIGSERIAL PRIMARY KEY,
		full_url VARCHAR(2048) NOT NULL UNIQUE,
		short_url VARCHAR(10) NOT NULL UNIQUE
	)
`

// PostgresStore is a Store backed by the url_mapping table.
type PostgresStore struct {
	db  *sqlx.DB
	log *zap.Logger
}

func NewPostgresStore(db *sqlx.DB, log *zap.Logger) *PostgresStore {
	return &PostgresStore{db: db, log: log}
}

// Migrate creates the url_mapping table if it does not exist.
func (r *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("create url_mapping: %w", err)
	}
	return nil
}

func (r *PostgresStore) FindByFullURL(ctx context.Context, fullURL string) (*models.URLMapping, error) {
	return r.findOne(ctx, "find_by_full_url",
		`SELECT id, full_url, short_url FROM url_mapping WHERE full_url = $1`, fullURL)
}

func (r *PostgresStore) FindByShortURL(ctx context.Context, shortURL string) (*models.URLMapping, error) {
	return r.findOne(ctx, "find_by_short_url",
		`SELECT id, full_url, short_url FROM url_mapping WHERE short_url = $1`, shortURL)
}

func (r *PostgresStore) findOne(ctx context.Context, op, query string, arg string) (*models.URLMapping, error) {
	defer observe(op, time.Now())

	var m models.URLMapping
	if err := r.db.GetContext(ctx, &m, query, arg); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // Not found
		}
		r.log.Error("query failed", zap.String("operation", op), zap.Error(err))
		return nil, err
	}
	return &m, nil
}

func (r *PostgresStore) ExistsByShortURL(ctx context.Context, shortURL string) (bool, error) {
	defer observe("exists_by_short_url", time.Now())

	var exists bool
	query := `SELECT EXISTS(SELECT 1 FROM url_mapping WHERE short_url = $1)`
	if err := r.db.GetContext(ctx, &exists, query, shortURL); err != nil {
		r.log.Error("query failed", zap.String("operation", "exists_by_short_url"), zap.Error(err))
		return false, err
	}
	return exists, nil
}

func (r *PostgresStore) Save(ctx context.Context, m *models.URLMapping) error {
	defer observe("save", time.Now())

	query := `INSERT INTO url_mapping (full_url, short_url) VALUES ($1, $2) RETURNING id`
	if err := r.db.QueryRowxContext(ctx, query, m.FullURL, m.ShortURL).Scan(&m.ID); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return fmt.Errorf("%w: %s", ErrConstraintViolation, pqErr.Constraint)
		}
		r.log.Error("insert failed", zap.String("short_url", m.ShortURL), zap.Error(err))
		return err
	}
	return nil
}

func observe(op string, start time.Time) {
	metrics.DatabaseQueryDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}
