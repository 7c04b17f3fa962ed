package usecase

import (
	"context"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/hirepro/funnel/internal/entity"
	"github.com/hirepro/funnel/internal/phone"
)

// RosterUseCase backs the operator commands: add-or-reactivate, deactivate
// and list executives. Adding an executive also sweeps assignments that were
// created while nobody was available.
type RosterUseCase struct {
	Executives  entity.ExecutiveRepositoryInterface
	Assignments entity.AssignmentRepositoryInterface
}

func NewRosterUseCase(
	executives entity.ExecutiveRepositoryInterface,
	assignments entity.AssignmentRepositoryInterface,
) *RosterUseCase {
	return &RosterUseCase{Executives: executives, Assignments: assignments}
}

// AddOrReactivate registers an executive by phone and Telegram username.
// Returns how many pending assignments the sweep claimed afterwards.
func (uc *RosterUseCase) AddOrReactivate(ctx context.Context, rawPhone, username string) (*entity.Executive, int, error) {
	e164, err := phone.ToE164(withPlus(rawPhone), "")
	if err != nil {
		return nil, 0, NewInvalidPhone()
	}

	exec, err := entity.NewExecutive(e164, username)
	if err != nil {
		return nil, 0, &DomainError{Code: CodeValidation, Message: err.Error()}
	}

	if err := uc.Executives.AddOrReactivate(ctx, exec); err != nil {
		return nil, 0, &TechnicalError{Code: CodeDatabase, Message: "failed to add executive: " + err.Error()}
	}

	claimed, err := uc.Assignments.ClaimPending(ctx)
	if err != nil {
		// The executive is registered; a failed sweep only delays orphaned
		// leads until the next /add.
		log.Warn().Err(err).Msg("pending assignment sweep failed")
		claimed = 0
	}

	log.Info().
		Str("phone", exec.PhoneE164).
		Str("username", exec.Username).
		Int("claimed_pending", claimed).
		Msg("executive added or reactivated")

	return exec, claimed, nil
}

func (uc *RosterUseCase) Deactivate(ctx context.Context, rawPhone string) error {
	e164, err := phone.ToE164(withPlus(rawPhone), "")
	if err != nil {
		return NewInvalidPhone()
	}
	if err := uc.Executives.Deactivate(ctx, e164); err != nil {
		return &TechnicalError{Code: CodeDatabase, Message: "failed to deactivate executive: " + err.Error()}
	}
	log.Info().Str("phone", e164).Msg("executive deactivated")
	return nil
}

func (uc *RosterUseCase) List(ctx context.Context) ([]*entity.Executive, error) {
	execs, err := uc.Executives.List(ctx)
	if err != nil {
		return nil, &TechnicalError{Code: CodeDatabase, Message: "failed to list executives: " + err.Error()}
	}
	return execs, nil
}

func withPlus(p string) string {
	p = strings.TrimSpace(p)
	if p == "" || strings.HasPrefix(p, "+") {
		return p
	}
	return "+" + p
}
