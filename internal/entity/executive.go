package entity

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

var ErrNoExecutiveAvailable = errors.New("no active executive available")

// Executive is a recruiter eligible to receive applicant assignments.
// Deactivated executives are kept (soft delete) so assignment history
// stays intact.
type Executive struct {
	ID             string     `json:"id"`
	PhoneE164      string     `json:"phone_e164"`
	Username       string     `json:"username"` // Telegram handle, stored without @
	DisplayName    string     `json:"display_name,omitempty"`
	Active         bool       `json:"active"`
	AssignedCount  int        `json:"assigned_count"`
	LastAssignedAt *time.Time `json:"last_assigned_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

type ExecutiveRepositoryInterface interface {
	// AddOrReactivate upserts by phone. An existing row is reactivated and
	// its username/display name refreshed; the assignment counter survives.
	AddOrReactivate(ctx context.Context, exec *Executive) error

	// Deactivate soft-deletes by phone. History and counter are preserved.
	Deactivate(ctx context.Context, phoneE164 string) error

	List(ctx context.Context) ([]*Executive, error)
}

func NewExecutive(phoneE164, username string) (*Executive, error) {
	if strings.TrimSpace(phoneE164) == "" {
		return nil, errors.New("phone_e164 is required")
	}
	if strings.TrimSpace(username) == "" {
		return nil, errors.New("username is required")
	}

	now := time.Now()
	return &Executive{
		ID:        uuid.New().String(),
		PhoneE164: phoneE164,
		Username:  strings.TrimPrefix(username, "@"),
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// Handle returns the Telegram handle with a leading @.
func (e *Executive) Handle() string {
	return "@" + e.Username
}

// NextExecutive picks the executive that should receive the next assignment:
// fewest assignments first, ties broken by oldest last-assignment (never
// assigned counts as oldest), then by insertion order. Inactive executives
// are skipped. Returns nil when nobody is eligible.
//
// This mirrors the ORDER BY used by the assignment transaction, so the
// selection policy stays testable without a database.
func NextExecutive(execs []*Executive) *Executive {
	var best *Executive
	for _, e := range execs {
		if !e.Active {
			continue
		}
		if best == nil || lessAssignable(e, best) {
			best = e
		}
	}
	return best
}

func lessAssignable(a, b *Executive) bool {
	if a.AssignedCount != b.AssignedCount {
		return a.AssignedCount < b.AssignedCount
	}
	switch {
	case a.LastAssignedAt == nil && b.LastAssignedAt != nil:
		return true
	case a.LastAssignedAt != nil && b.LastAssignedAt == nil:
		return false
	case a.LastAssignedAt != nil && b.LastAssignedAt != nil &&
		!a.LastAssignedAt.Equal(*b.LastAssignedAt):
		return a.LastAssignedAt.Before(*b.LastAssignedAt)
	}
	return a.CreatedAt.Before(b.CreatedAt)
}
