// ABOUTME: Appointment database operations
// ABOUTME: Handles CRUD, provider-id lookups, and window queries over the appointments table
package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/harperreed/shadecal/models"
)

const appointmentColumns = `id, user_id, title, description, start_time, end_time, all_day, location,
	appointment_type, color, invited_client_emails, nylas_event_id, google_event_id, created_at, updated_at`

// eventIDColumn maps a provider to its correlation column. Only these two
// literals are ever interpolated into SQL.
func eventIDColumn(p models.Provider) (string, error) {
	switch p {
	case models.ProviderNylas:
		return "nylas_event_id", nil
	case models.ProviderGoogle:
		return "google_event_id", nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownProvider, p)
}

// CreateAppointment inserts a new appointment, assigning an ID when none is set.
func (s *Store) CreateAppointment(ctx context.Context, a *models.Appointment) error {
	if a == nil || a.UserID == "" {
		return ErrInvalidAppointment
	}
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	if a.AppointmentType == "" {
		a.AppointmentType = models.AppointmentPersonal
	}
	now := time.Now().UTC()
	a.CreatedAt = now
	a.UpdatedAt = now

	emails, err := encodeEmails(a.InvitedClientEmails)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO appointments (`+appointmentColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, a.ID.String(), a.UserID, a.Title, a.Description, a.StartTime.UTC(), a.EndTime.UTC(), a.AllDay, a.Location,
		a.AppointmentType, a.Color, emails, nullString(a.NylasEventID), nullString(a.GoogleEventID),
		a.CreatedAt, a.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert appointment: %w", err)
	}

	return nil
}

// GetAppointment returns the appointment with the given ID, or nil if none exists.
func (s *Store) GetAppointment(ctx context.Context, id uuid.UUID) (*models.Appointment, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+appointmentColumns+` FROM appointments WHERE id = ?`, id.String())
	return scanAppointmentRow(row)
}

// FindAppointmentByEventID returns the appointment linked to eventID at the
// given provider, or nil if none exists.
func (s *Store) FindAppointmentByEventID(ctx context.Context, provider models.Provider, eventID string) (*models.Appointment, error) {
	column, err := eventIDColumn(provider)
	if err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE `+column+` = ?
		ORDER BY created_at
		LIMIT 1
	`, eventID)
	return scanAppointmentRow(row)
}

// ListLinkedAppointments returns every appointment of the user linked to the
// given provider, regardless of time.
func (s *Store) ListLinkedAppointments(ctx context.Context, userID string, provider models.Provider) ([]models.Appointment, error) {
	column, err := eventIDColumn(provider)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE user_id = ? AND `+column+` IS NOT NULL
		ORDER BY start_time
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query linked appointments: %w", err)
	}
	return scanAppointments(rows)
}

// ListAppointmentsBetween returns the user's appointments starting in [from, to].
func (s *Store) ListAppointmentsBetween(ctx context.Context, userID string, from, to time.Time) ([]models.Appointment, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE user_id = ? AND start_time >= ? AND start_time <= ?
		ORDER BY start_time
	`, userID, from.UTC(), to.UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to query appointments: %w", err)
	}
	return scanAppointments(rows)
}

// ListAppointments returns the user's appointments ordered by start time.
func (s *Store) ListAppointments(ctx context.Context, userID string, limit int) ([]models.Appointment, error) {
	if limit <= 0 {
		limit = 500
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE user_id = ?
		ORDER BY start_time
		LIMIT ?
	`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query appointments: %w", err)
	}
	return scanAppointments(rows)
}

// UpdateAppointment overwrites every mutable field of an existing appointment.
func (s *Store) UpdateAppointment(ctx context.Context, a *models.Appointment) error {
	if a == nil || a.ID == uuid.Nil {
		return ErrInvalidAppointment
	}
	a.UpdatedAt = time.Now().UTC()

	emails, err := encodeEmails(a.InvitedClientEmails)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		UPDATE appointments
		SET title = ?, description = ?, start_time = ?, end_time = ?, all_day = ?, location = ?,
			appointment_type = ?, color = ?, invited_client_emails = ?,
			nylas_event_id = ?, google_event_id = ?, updated_at = ?
		WHERE id = ?
	`, a.Title, a.Description, a.StartTime.UTC(), a.EndTime.UTC(), a.AllDay, a.Location,
		a.AppointmentType, a.Color, emails,
		nullString(a.NylasEventID), nullString(a.GoogleEventID), a.UpdatedAt, a.ID.String())
	if err != nil {
		return fmt.Errorf("failed to update appointment: %w", err)
	}

	return nil
}

// SetAppointmentEventID rewrites the provider correlation id of one appointment.
func (s *Store) SetAppointmentEventID(ctx context.Context, id uuid.UUID, provider models.Provider, eventID string) error {
	column, err := eventIDColumn(provider)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		UPDATE appointments SET `+column+` = ?, updated_at = ? WHERE id = ?
	`, eventID, time.Now().UTC(), id.String())
	if err != nil {
		return fmt.Errorf("failed to set %s: %w", column, err)
	}

	return nil
}

func (s *Store) DeleteAppointment(ctx context.Context, id uuid.UUID) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM appointments WHERE id = ?`, id.String())
	if err != nil {
		return fmt.Errorf("failed to delete appointment: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanAppointment(row rowScanner) (*models.Appointment, error) {
	var (
		a             models.Appointment
		emailsJSON    string
		nylasEventID  sql.NullString
		googleEventID sql.NullString
	)

	err := row.Scan(
		&a.ID,
		&a.UserID,
		&a.Title,
		&a.Description,
		&a.StartTime,
		&a.EndTime,
		&a.AllDay,
		&a.Location,
		&a.AppointmentType,
		&a.Color,
		&emailsJSON,
		&nylasEventID,
		&googleEventID,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if emailsJSON != "" && emailsJSON != "null" {
		if err := json.Unmarshal([]byte(emailsJSON), &a.InvitedClientEmails); err != nil {
			return nil, fmt.Errorf("failed to decode invited emails: %w", err)
		}
	}
	if nylasEventID.Valid {
		a.NylasEventID = &nylasEventID.String
	}
	if googleEventID.Valid {
		a.GoogleEventID = &googleEventID.String
	}

	return &a, nil
}

func scanAppointmentRow(row *sql.Row) (*models.Appointment, error) {
	a, err := scanAppointment(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get appointment: %w", err)
	}
	return a, nil
}

func scanAppointments(rows *sql.Rows) ([]models.Appointment, error) {
	defer func() { _ = rows.Close() }()

	var appointments []models.Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan appointment: %w", err)
		}
		appointments = append(appointments, *a)
	}

	return appointments, rows.Err()
}

func encodeEmails(emails []string) (string, error) {
	if emails == nil {
		emails = []string{}
	}
	b, err := json.Marshal(emails)
	if err != nil {
		return "", fmt.Errorf("failed to encode invited emails: %w", err)
	}
	return string(b), nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}
