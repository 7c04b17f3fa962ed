package entity

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrLeadNotFound      = errors.New("lead not found")
	ErrLeadPhoneRequired = errors.New("lead phone_e164 is required")
)

// Lead is one applicant, keyed by the E.164 phone number submitted on the
// website form. WorkCode is issued once and never regenerated;
// GroupPostedAt is set once when the operations group has been notified.
type Lead struct {
	ID            string     `json:"id"`
	Name          string     `json:"name,omitempty"`
	Email         string     `json:"email,omitempty"`
	PhoneE164     string     `json:"phone_e164"`
	PhoneLast10   string     `json:"phone_last10"`
	RawPhone      string     `json:"raw_phone,omitempty"`
	Country       string     `json:"country,omitempty"`
	Gender        string     `json:"gender,omitempty"`
	Age           int        `json:"age,omitempty"`
	Note          string     `json:"note,omitempty"`
	IP            string     `json:"ip,omitempty"`
	WorkCode      string     `json:"work_code,omitempty"`
	GroupPostedAt *time.Time `json:"group_posted_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

type LeadRepositoryInterface interface {
	// Upsert inserts the lead or, when the phone already exists, overwrites
	// only the non-empty submitted fields. The work code and the group-posted
	// flag are never modified on the update path.
	Upsert(ctx context.Context, lead *Lead) error

	FindByPhone(ctx context.Context, e164 string) (*Lead, error)
	FindByLastDigits(ctx context.Context, last10 string) (*Lead, error)

	// EnsureWorkCode returns the existing code, or generates, persists and
	// returns a new one. Safe under concurrent callers: only one generated
	// code ever sticks.
	EnsureWorkCode(ctx context.Context, lead *Lead) (string, error)

	// MarkGroupPosted flips the group-posted flag. Returns true only for the
	// single caller that observed it unset.
	MarkGroupPosted(ctx context.Context, leadID string) (bool, error)
}

func NewLead(phoneE164, last10 string) (*Lead, error) {
	if strings.TrimSpace(phoneE164) == "" {
		return nil, ErrLeadPhoneRequired
	}

	now := time.Now()
	return &Lead{
		ID:          uuid.New().String(),
		PhoneE164:   phoneE164,
		PhoneLast10: last10,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

func (l *Lead) HasWorkCode() bool {
	return l.WorkCode != ""
}

func (l *Lead) GroupPosted() bool {
	return l.GroupPostedAt != nil
}
