package database

import (
	"context"
	"database/sql"

	"github.com/hirepro/funnel/internal/entity"
)

type ExecutiveRepository struct {
	DB *sql.DB
}

func NewExecutiveRepository(db *sql.DB) *ExecutiveRepository {
	return &ExecutiveRepository{DB: db}
}

const executiveColumns = `id, phone_e164, username, display_name, active,
	assigned_count, last_assigned_at, created_at, updated_at`

func (r *ExecutiveRepository) AddOrReactivate(ctx context.Context, exec *entity.Executive) error {
	// Reactivation keeps the counter: a returning executive should not jump
	// the round-robin queue by resetting to zero.
	query := `
		INSERT INTO executives (id, phone_e164, username, display_name, active)
		VALUES ($1, $2, $3, $4, TRUE)
		ON CONFLICT (phone_e164)
		DO UPDATE SET
			username = EXCLUDED.username,
			display_name = COALESCE(NULLIF(EXCLUDED.display_name, ''), executives.display_name),
			active = TRUE,
			updated_at = now()
		RETURNING ` + executiveColumns

	return scanExecutive(r.DB.QueryRowContext(ctx, query,
		exec.ID, exec.PhoneE164, exec.Username, exec.DisplayName,
	), exec)
}

func (r *ExecutiveRepository) Deactivate(ctx context.Context, phoneE164 string) error {
	_, err := r.DB.ExecContext(ctx, `
		UPDATE executives SET active = FALSE, updated_at = now()
		WHERE phone_e164 = $1`, phoneE164)
	return err
}

func (r *ExecutiveRepository) List(ctx context.Context) ([]*entity.Executive, error) {
	query := `SELECT ` + executiveColumns + `
		FROM executives ORDER BY active DESC, assigned_count DESC, created_at ASC`

	rows, err := r.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var execs []*entity.Executive
	for rows.Next() {
		exec := &entity.Executive{}
		if err := scanExecutive(rows, exec); err != nil {
			return nil, err
		}
		execs = append(execs, exec)
	}
	return execs, rows.Err()
}

func scanExecutive(row rowScanner, exec *entity.Executive) error {
	var (
		displayName    sql.NullString
		lastAssignedAt sql.NullTime
	)

	err := row.Scan(
		&exec.ID, &exec.PhoneE164, &exec.Username, &displayName, &exec.Active,
		&exec.AssignedCount, &lastAssignedAt, &exec.CreatedAt, &exec.UpdatedAt,
	)
	if err != nil {
		return err
	}

	exec.DisplayName = displayName.String
	exec.LastAssignedAt = nil
	if lastAssignedAt.Valid {
		t := lastAssignedAt.Time
		exec.LastAssignedAt = &t
	}
	return nil
}
