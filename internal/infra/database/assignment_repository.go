package database

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"

	"github.com/hirepro/funnel/internal/entity"
)

type AssignmentRepository struct {
	DB *sql.DB
}

func NewAssignmentRepository(db *sql.DB) *AssignmentRepository {
	return &AssignmentRepository{DB: db}
}

// nextExecutiveQuery mirrors entity.NextExecutive: fewest assignments first,
// never-assigned before longest-idle, then insertion order. FOR UPDATE keeps
// two concurrent assignments from bumping the same counter row blindly.
const nextExecutiveQuery = `
	SELECT ` + executiveColumns + `
	FROM executives
	WHERE active
	ORDER BY assigned_count ASC, last_assigned_at ASC NULLS FIRST, created_at ASC, id ASC
	LIMIT 1
	FOR UPDATE`

func (r *AssignmentRepository) Assign(ctx context.Context, leadID string) (*entity.Assignment, *entity.Executive, error) {
	// Re-verification is the common repeat caller; serve the existing row
	// without touching any counter.
	assignment, exec, err := r.findWithExecutive(ctx, leadID)
	if err == nil {
		return assignment, exec, nil
	}
	if !errors.Is(err, entity.ErrAssignmentNotFound) {
		return nil, nil, err
	}

	assignment, exec, err = r.create(ctx, leadID)
	if isUniqueViolation(err, "assignments_lead_id_key") {
		// Lost the insert race to a concurrent verification of the same
		// lead. Exactly one row and one bump exist; return them.
		return r.findWithExecutive(ctx, leadID)
	}
	return assignment, exec, err
}

func (r *AssignmentRepository) create(ctx context.Context, leadID string) (*entity.Assignment, *entity.Executive, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, nil, err
	}
	defer tx.Rollback()

	exec := &entity.Executive{}
	execErr := scanExecutive(tx.QueryRowContext(ctx, nextExecutiveQuery), exec)
	if errors.Is(execErr, sql.ErrNoRows) {
		exec = nil // pending assignment; reconciled when the roster grows
	} else if execErr != nil {
		return nil, nil, execErr
	}

	assignment := &entity.Assignment{
		ID:     uuid.New().String(),
		LeadID: leadID,
	}

	var execID *string
	if exec != nil {
		assignment.ExecutiveID = exec.ID
		execID = &exec.ID
	}

	err = tx.QueryRowContext(ctx, `
		INSERT INTO assignments (id, lead_id, executive_id)
		VALUES ($1, $2, $3)
		RETURNING created_at`,
		assignment.ID, leadID, execID,
	).Scan(&assignment.CreatedAt)
	if err != nil {
		return nil, nil, err
	}

	if exec != nil {
		if err := bumpExecutive(ctx, tx, exec); err != nil {
			return nil, nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, nil, err
	}
	return assignment, exec, nil
}

func (r *AssignmentRepository) FindByLead(ctx context.Context, leadID string) (*entity.Assignment, error) {
	assignment, _, err := r.findWithExecutive(ctx, leadID)
	return assignment, err
}

// ClaimPending walks assignments created while the roster was empty and
// attaches executives to them, one transaction each so a crash mid-sweep
// loses at most in-flight work.
func (r *AssignmentRepository) ClaimPending(ctx context.Context) (int, error) {
	claimed := 0
	for {
		ok, err := r.claimOne(ctx)
		if err != nil {
			return claimed, err
		}
		if !ok {
			return claimed, nil
		}
		claimed++
	}
}

func (r *AssignmentRepository) claimOne(ctx context.Context) (bool, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer tx.Rollback()

	var assignmentID string
	err = tx.QueryRowContext(ctx, `
		SELECT id FROM assignments
		WHERE executive_id IS NULL
		ORDER BY created_at ASC
		LIMIT 1
		FOR UPDATE SKIP LOCKED`,
	).Scan(&assignmentID)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	exec := &entity.Executive{}
	err = scanExecutive(tx.QueryRowContext(ctx, nextExecutiveQuery), exec)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil // still nobody active
	}
	if err != nil {
		return false, err
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE assignments SET executive_id = $1 WHERE id = $2`, exec.ID, assignmentID,
	); err != nil {
		return false, err
	}
	if err := bumpExecutive(ctx, tx, exec); err != nil {
		return false, err
	}

	return true, tx.Commit()
}

func (r *AssignmentRepository) findWithExecutive(ctx context.Context, leadID string) (*entity.Assignment, *entity.Executive, error) {
	query := `
		SELECT a.id, a.lead_id, a.executive_id, a.created_at,
			e.id, e.phone_e164, e.username, e.display_name, e.active,
			e.assigned_count, e.last_assigned_at, e.created_at, e.updated_at
		FROM assignments a
		LEFT JOIN executives e ON e.id = a.executive_id
		WHERE a.lead_id = $1`

	var (
		assignment  entity.Assignment
		executiveID sql.NullString

		execID, execPhone, execUsername, execDisplayName sql.NullString
		execActive                                       sql.NullBool
		execAssignedCount                                sql.NullInt64
		execLastAssignedAt, execCreatedAt, execUpdatedAt sql.NullTime
	)

	err := r.DB.QueryRowContext(ctx, query, leadID).Scan(
		&assignment.ID, &assignment.LeadID, &executiveID, &assignment.CreatedAt,
		&execID, &execPhone, &execUsername, &execDisplayName, &execActive,
		&execAssignedCount, &execLastAssignedAt, &execCreatedAt, &execUpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil, entity.ErrAssignmentNotFound
	}
	if err != nil {
		return nil, nil, err
	}

	assignment.ExecutiveID = executiveID.String
	if !execID.Valid {
		return &assignment, nil, nil
	}

	exec := &entity.Executive{
		ID:            execID.String,
		PhoneE164:     execPhone.String,
		Username:      execUsername.String,
		DisplayName:   execDisplayName.String,
		Active:        execActive.Bool,
		AssignedCount: int(execAssignedCount.Int64),
		CreatedAt:     execCreatedAt.Time,
		UpdatedAt:     execUpdatedAt.Time,
	}
	if execLastAssignedAt.Valid {
		t := execLastAssignedAt.Time
		exec.LastAssignedAt = &t
	}
	return &assignment, exec, nil
}

func bumpExecutive(ctx context.Context, tx *sql.Tx, exec *entity.Executive) error {
	return tx.QueryRowContext(ctx, `
		UPDATE executives
		SET assigned_count = assigned_count + 1, last_assigned_at = now(), updated_at = now()
		WHERE id = $1
		RETURNING assigned_count, last_assigned_at, updated_at`,
		exec.ID,
	).Scan(&exec.AssignedCount, &exec.LastAssignedAt, &exec.UpdatedAt)
}
