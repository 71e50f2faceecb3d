package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/compliance/pep-registry/internal/domain"
)

const recordColumns = `id, full_name, phonetic_key, date_of_birth, nationality,
	position_category, custom_position_title, organization, organization_type,
	pep_type, status, risk_tier, start_period, end_period, edd_status,
	last_edd_review_date, next_edd_review_date, monitoring_frequency,
	source, notes, last_checked_at, active, version, created_at, updated_at`

// Save inserts or updates a record. Updates require the version read by
// the caller; a mismatch returns ErrVersionConflict. The version column
// is advanced by the database, never by the caller; on success the
// record's Version reflects the stored row.
func (s *Store) Save(ctx context.Context, record *domain.PEPRecord) error {
	var newVersion int64
	err := s.pool.QueryRow(ctx, `
		UPDATE pep_records SET
			full_name = $2, phonetic_key = $3, date_of_birth = $4, nationality = $5,
			position_category = $6, custom_position_title = $7, organization = $8,
			organization_type = $9, pep_type = $10, status = $11, risk_tier = $12,
			start_period = $13, end_period = $14, edd_status = $15,
			last_edd_review_date = $16, next_edd_review_date = $17,
			monitoring_frequency = $18, source = $19, notes = $20,
			last_checked_at = $21, active = $22, version = version + 1, updated_at = now()
		WHERE id = $1 AND version = $23
		RETURNING version`,
		record.ID, record.FullName, record.PhoneticKey, record.DateOfBirth,
		record.Nationality, record.PositionCategory, record.CustomPositionTitle,
		record.Organization, record.OrganizationType, record.PEPType, record.Status,
		record.RiskTier, record.StartPeriod, record.EndPeriod, record.EDDStatus,
		record.LastEDDReviewDate, record.NextEDDReviewDate, record.MonitoringFrequency,
		record.Source, record.Notes, record.LastCheckedAt, record.Active, record.Version).Scan(&newVersion)
	if err == nil {
		record.Version = newVersion
		return nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("failed to update record: %w", err)
	}

	// No row matched: the record is either new or the version is stale.
	var exists bool
	if err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM pep_records WHERE id = $1)`, record.ID).Scan(&exists); err != nil {
		return fmt.Errorf("failed to check record existence: %w", err)
	}
	if exists {
		return domain.ErrVersionConflict
	}

	version := record.Version
	if version == 0 {
		version = 1
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO pep_records (`+recordColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14,
			$15, $16, $17, $18, $19, $20, $21, $22, $23, $24, $25)`,
		record.ID, record.FullName, record.PhoneticKey, record.DateOfBirth,
		record.Nationality, record.PositionCategory, record.CustomPositionTitle,
		record.Organization, record.OrganizationType, record.PEPType, record.Status,
		record.RiskTier, record.StartPeriod, record.EndPeriod, record.EDDStatus,
		record.LastEDDReviewDate, record.NextEDDReviewDate, record.MonitoringFrequency,
		record.Source, record.Notes, record.LastCheckedAt, record.Active, version,
		record.CreatedAt, record.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert record: %w", err)
	}
	record.Version = version
	return nil
}

// FindByID returns the record or ErrNotFound. Deactivated records are
// still retrievable by ID for audit purposes.
func (s *Store) FindByID(ctx context.Context, id uuid.UUID) (*domain.PEPRecord, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+recordColumns+` FROM pep_records WHERE id = $1`, id)
	record, err := scanRecord(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	return record, err
}

// FindByPhoneticKeyOrSubstring returns every active record whose
// phonetic key equals key or whose full name contains text
// case-insensitively.
func (s *Store) FindByPhoneticKeyOrSubstring(ctx context.Context, key, text string) ([]*domain.PEPRecord, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+recordColumns+` FROM pep_records
		WHERE active
		  AND (($1 <> '' AND phonetic_key = $1)
		    OR ($2 <> '' AND lower(full_name) LIKE '%' || $2 || '%'))
		ORDER BY full_name`,
		key, text)
	if err != nil {
		return nil, fmt.Errorf("failed to search records: %w", err)
	}
	defer rows.Close()
	return collectRecords(rows)
}

// FindActiveByExactName returns active records whose full name equals
// name case-insensitively.
func (s *Store) FindActiveByExactName(ctx context.Context, name string) ([]*domain.PEPRecord, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+recordColumns+` FROM pep_records
		WHERE active AND lower(full_name) = lower($1)
		ORDER BY full_name`,
		name)
	if err != nil {
		return nil, fmt.Errorf("failed to find records by name: %w", err)
	}
	defer rows.Close()
	return collectRecords(rows)
}

// List returns all active records.
func (s *Store) List(ctx context.Context) ([]*domain.PEPRecord, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+recordColumns+` FROM pep_records WHERE active ORDER BY full_name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list records: %w", err)
	}
	defer rows.Close()
	return collectRecords(rows)
}

func collectRecords(rows pgx.Rows) ([]*domain.PEPRecord, error) {
	var out []*domain.PEPRecord
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, record)
	}
	return out, rows.Err()
}

func scanRecord(row pgx.Row) (*domain.PEPRecord, error) {
	var r domain.PEPRecord
	err := row.Scan(
		&r.ID, &r.FullName, &r.PhoneticKey, &r.DateOfBirth, &r.Nationality,
		&r.PositionCategory, &r.CustomPositionTitle, &r.Organization,
		&r.OrganizationType, &r.PEPType, &r.Status, &r.RiskTier,
		&r.StartPeriod, &r.EndPeriod, &r.EDDStatus,
		&r.LastEDDReviewDate, &r.NextEDDReviewDate, &r.MonitoringFrequency,
		&r.Source, &r.Notes, &r.LastCheckedAt, &r.Active, &r.Version,
		&r.CreatedAt, &r.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &r, nil
}
