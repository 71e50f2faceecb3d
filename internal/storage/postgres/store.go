// Package postgres implements the register store on PostgreSQL using
// pgx. Writes on PEP records are compare-and-set on the version column.
package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/compliance/pep-registry/internal/config"
	"github.com/compliance/pep-registry/internal/pkg/logger"
)

// Store is a PostgreSQL-backed register store.
type Store struct {
	pool *pgxpool.Pool
	log  *logger.Logger
}

// New connects to PostgreSQL and verifies the connection.
func New(ctx context.Context, cfg *config.DatabaseConfig, log *logger.Logger) (*Store, error) {
	dsn := fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.Database, cfg.SSLMode)

	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse pgx config: %w", err)
	}

	if cfg.MaxOpenConns > 0 {
		poolConfig.MaxConns = int32(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		poolConfig.MinConns = int32(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		poolConfig.MaxConnLifetime = cfg.ConnMaxLifetime
	}
	if cfg.ConnMaxIdleTime > 0 {
		poolConfig.MaxConnIdleTime = cfg.ConnMaxIdleTime
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create pgx pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}

	return &Store{pool: pool, log: log.Named("postgres")}, nil
}

// Migrate creates the register schema if it does not exist.
func (s *Store) Migrate(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS pep_records (
			id                    UUID PRIMARY KEY,
			full_name             TEXT NOT NULL,
			phonetic_key          TEXT NOT NULL,
			date_of_birth         DATE,
			nationality           TEXT NOT NULL DEFAULT '',
			position_category     TEXT NOT NULL DEFAULT '',
			custom_position_title TEXT NOT NULL DEFAULT '',
			organization          TEXT NOT NULL DEFAULT '',
			organization_type     TEXT NOT NULL DEFAULT '',
			pep_type              TEXT NOT NULL,
			status                TEXT NOT NULL,
			risk_tier             TEXT NOT NULL,
			start_period          DATE,
			end_period            DATE,
			edd_status            TEXT NOT NULL,
			last_edd_review_date  DATE,
			next_edd_review_date  DATE NOT NULL,
			monitoring_frequency  TEXT NOT NULL,
			source                TEXT NOT NULL DEFAULT '',
			notes                 TEXT NOT NULL DEFAULT '',
			last_checked_at       TIMESTAMPTZ,
			active                BOOLEAN NOT NULL DEFAULT TRUE,
			version               BIGINT NOT NULL DEFAULT 1,
			created_at            TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at            TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_pep_records_phonetic_key
			ON pep_records (phonetic_key) WHERE active`,
		`CREATE INDEX IF NOT EXISTS idx_pep_records_lower_name
			ON pep_records (lower(full_name)) WHERE active`,
		`CREATE INDEX IF NOT EXISTS idx_pep_records_review
			ON pep_records (risk_tier, status, next_edd_review_date) WHERE active`,
		`CREATE TABLE IF NOT EXISTS related_persons (
			id                UUID PRIMARY KEY,
			pep_id            UUID NOT NULL REFERENCES pep_records(id) ON DELETE CASCADE,
			full_name         TEXT NOT NULL,
			date_of_birth     DATE,
			relationship_kind TEXT NOT NULL,
			family_relation   TEXT NOT NULL DEFAULT '',
			association_type  TEXT NOT NULL DEFAULT '',
			notes             TEXT NOT NULL DEFAULT '',
			created_at        TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_related_persons_pep_id
			ON related_persons (pep_id)`,
		`CREATE TABLE IF NOT EXISTS position_templates (
			id         UUID PRIMARY KEY,
			title      TEXT NOT NULL,
			category   TEXT NOT NULL,
			country    TEXT NOT NULL DEFAULT '',
			year       TEXT NOT NULL DEFAULT '',
			notes      TEXT NOT NULL DEFAULT '',
			active     BOOLEAN NOT NULL DEFAULT TRUE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS uq_position_templates_identity
			ON position_templates (lower(title), lower(country), year) WHERE active`,
	}

	for _, stmt := range statements {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to run migration: %w", err)
		}
	}
	s.log.Info("schema migration completed")
	return nil
}

// Ping verifies the database connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close releases the connection pool.
func (s *Store) Close() {
	s.pool.Close()
}
