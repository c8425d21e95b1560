// ABOUTME: Integration record database operations
// ABOUTME: Tracks each user's provider grant, active flag, and last sync time
package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/harperreed/shadecal/models"
)

const integrationColumns = `id, user_id, provider, grant_id, email, calendar_id, is_active, last_sync_at, created_at, updated_at`

// SaveIntegration creates the user's integration for rec.Provider, or
// replaces the grant on the existing one and reactivates it.
func (s *Store) SaveIntegration(ctx context.Context, rec *models.IntegrationRecord) error {
	if rec == nil || rec.UserID == "" || !rec.Provider.Valid() {
		return ErrInvalidIntegration
	}
	if rec.CalendarID == "" {
		rec.CalendarID = models.DefaultCalendarID
	}

	existing, err := s.GetIntegration(ctx, rec.UserID, rec.Provider)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	rec.IsActive = true
	rec.UpdatedAt = now

	if existing != nil {
		rec.ID = existing.ID
		rec.CreatedAt = existing.CreatedAt
		rec.LastSyncAt = existing.LastSyncAt

		_, err = s.db.ExecContext(ctx, `
			UPDATE integrations
			SET grant_id = ?, email = ?, calendar_id = ?, is_active = ?, updated_at = ?
			WHERE id = ?
		`, rec.GrantID, rec.Email, rec.CalendarID, true, rec.UpdatedAt, rec.ID.String())
		if err != nil {
			return fmt.Errorf("failed to update integration: %w", err)
		}
		return nil
	}

	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	rec.CreatedAt = now

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO integrations (`+integrationColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, rec.ID.String(), rec.UserID, string(rec.Provider), rec.GrantID, rec.Email, rec.CalendarID,
		true, nil, rec.CreatedAt, rec.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert integration: %w", err)
	}

	return nil
}

// GetIntegration returns the user's integration with provider, or nil.
func (s *Store) GetIntegration(ctx context.Context, userID string, provider models.Provider) (*models.IntegrationRecord, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+integrationColumns+`
		FROM integrations
		WHERE user_id = ? AND provider = ?
	`, userID, string(provider))
	return scanIntegrationRow(row)
}

// GetIntegrationByGrant resolves the integration that owns a provider grant, or nil.
func (s *Store) GetIntegrationByGrant(ctx context.Context, grantID string) (*models.IntegrationRecord, error) {
	if grantID == "" {
		return nil, nil
	}
	row := s.db.QueryRowContext(ctx, `
		SELECT `+integrationColumns+`
		FROM integrations
		WHERE grant_id = ?
		ORDER BY updated_at DESC
		LIMIT 1
	`, grantID)
	return scanIntegrationRow(row)
}

// ListIntegrations returns all integrations of a user.
func (s *Store) ListIntegrations(ctx context.Context, userID string) ([]models.IntegrationRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+integrationColumns+`
		FROM integrations
		WHERE user_id = ?
		ORDER BY provider
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query integrations: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var records []models.IntegrationRecord
	for rows.Next() {
		rec, err := scanIntegration(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan integration: %w", err)
		}
		records = append(records, *rec)
	}

	return records, rows.Err()
}

// ListActiveUserIDs returns the users holding an active integration with provider.
func (s *Store) ListActiveUserIDs(ctx context.Context, provider models.Provider) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT user_id FROM integrations
		WHERE provider = ? AND is_active = ?
		ORDER BY user_id
	`, string(provider), true)
	if err != nil {
		return nil, fmt.Errorf("failed to query active integrations: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var userIDs []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		userIDs = append(userIDs, id)
	}

	return userIDs, rows.Err()
}

// TouchIntegrationSync records a completed sync cycle.
func (s *Store) TouchIntegrationSync(ctx context.Context, id uuid.UUID, at time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE integrations SET last_sync_at = ?, updated_at = ? WHERE id = ?
	`, at.UTC(), time.Now().UTC(), id.String())
	if err != nil {
		return fmt.Errorf("failed to record last sync: %w", err)
	}
	return nil
}

// DeactivateIntegration marks an integration as requiring re-authorization.
func (s *Store) DeactivateIntegration(ctx context.Context, id uuid.UUID) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE integrations SET is_active = ?, updated_at = ? WHERE id = ?
	`, false, time.Now().UTC(), id.String())
	if err != nil {
		return fmt.Errorf("failed to deactivate integration: %w", err)
	}
	return nil
}

func scanIntegration(row rowScanner) (*models.IntegrationRecord, error) {
	var (
		rec        models.IntegrationRecord
		provider   string
		lastSyncAt sql.NullTime
	)

	err := row.Scan(
		&rec.ID,
		&rec.UserID,
		&provider,
		&rec.GrantID,
		&rec.Email,
		&rec.CalendarID,
		&rec.IsActive,
		&lastSyncAt,
		&rec.CreatedAt,
		&rec.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	rec.Provider = models.Provider(provider)
	if lastSyncAt.Valid {
		rec.LastSyncAt = &lastSyncAt.Time
	}

	return &rec, nil
}

func scanIntegrationRow(row *sql.Row) (*models.IntegrationRecord, error) {
	rec, err := scanIntegration(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get integration: %w", err)
	}
	return rec, nil
}
