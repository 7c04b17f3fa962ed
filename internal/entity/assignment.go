package entity

import (
	"context"
	"errors"
	"time"
)

var ErrAssignmentNotFound = errors.New("assignment not found")

// Assignment links a verified lead to the executive responsible for the
// follow-up. There is at most one per lead, enforced by the storage layer.
// ExecutiveID is empty while the assignment is pending (no active executive
// was available when the lead verified).
type Assignment struct {
	ID          string    `json:"id"`
	LeadID      string    `json:"lead_id"`
	ExecutiveID string    `json:"executive_id,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

type AssignmentRepositoryInterface interface {
	// Assign returns the existing assignment for the lead, or creates one by
	// choosing the next executive and bumping their counter in the same
	// transaction. The returned executive is nil for pending assignments.
	Assign(ctx context.Context, leadID string) (*Assignment, *Executive, error)

	FindByLead(ctx context.Context, leadID string) (*Assignment, error)

	// ClaimPending re-runs executive selection for assignments created while
	// the roster was empty. Returns how many were claimed.
	ClaimPending(ctx context.Context) (int, error)
}

func (a *Assignment) Pending() bool {
	return a.ExecutiveID == ""
}
