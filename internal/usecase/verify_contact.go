package usecase

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/hirepro/funnel/internal/entity"
	"github.com/hirepro/funnel/internal/infra/queue"
	"github.com/hirepro/funnel/internal/phone"
)

type VerifyContactInput struct {
	// RawPhone is whatever the chat client reports. Telegram sends the
	// international number without a leading +.
	RawPhone    string
	CountryHint string

	// FallbackName fills the group post when the form submission had no name.
	FallbackName string
}

type VerifyContactOutput struct {
	Code      string
	Executive *entity.Executive // nil while the assignment is pending
	Pending   bool
	Broadcast bool // this invocation won the one-time group post
}

// VerifyContactUseCase runs the handoff state machine: normalize, look up the
// form submission, compare numbers, issue the work code, assign an executive
// and fire the one-time group post. Every step past the comparison is an
// idempotent check-and-set, so re-shared contacts are safe no-ops beyond
// re-sending the private reply.
type VerifyContactUseCase struct {
	Leads       entity.LeadRepositoryInterface
	Assignments entity.AssignmentRepositoryInterface
	Producer    GroupPostProducerInterface
}

func NewVerifyContactUseCase(
	leads entity.LeadRepositoryInterface,
	assignments entity.AssignmentRepositoryInterface,
	producer GroupPostProducerInterface,
) *VerifyContactUseCase {
	return &VerifyContactUseCase{
		Leads:       leads,
		Assignments: assignments,
		Producer:    producer,
	}
}

func (uc *VerifyContactUseCase) Execute(ctx context.Context, input VerifyContactInput) (*VerifyContactOutput, error) {
	raw := strings.TrimSpace(input.RawPhone)
	if raw != "" && !strings.HasPrefix(raw, "+") {
		raw = "+" + raw
	}
	e164, err := phone.ToE164(raw, input.CountryHint)
	if err != nil {
		return nil, NewInvalidPhone()
	}

	lead, err := uc.lookup(ctx, e164)
	if err != nil {
		return nil, err
	}

	// Tolerate inconsistent country-code capture between the web form and
	// the chat client: trailing ten digits decide.
	if phone.Last10(lead.PhoneE164) != phone.Last10(e164) {
		return nil, NewVerificationFailed()
	}

	code, err := uc.Leads.EnsureWorkCode(ctx, lead)
	if err != nil {
		return nil, &TechnicalError{Code: CodeDatabase, Message: "failed to issue work code: " + err.Error()}
	}

	assignment, exec, err := uc.Assignments.Assign(ctx, lead.ID)
	if err != nil {
		return nil, &TechnicalError{Code: CodeDatabase, Message: "failed to assign executive: " + err.Error()}
	}

	out := &VerifyContactOutput{
		Code:      code,
		Executive: exec,
		Pending:   assignment.Pending(),
	}

	won, err := uc.Leads.MarkGroupPosted(ctx, lead.ID)
	if err != nil {
		return nil, &TechnicalError{Code: CodeDatabase, Message: "failed to mark group post: " + err.Error()}
	}
	if won {
		out.Broadcast = true
		payload := queue.GroupPostPayload{
			LeadID: lead.ID,
			Name:   coalesce(lead.Name, input.FallbackName, "(unknown)"),
			Age:    formatAge(lead.Age),
			Phone:  lead.PhoneE164,
			IP:     coalesce(lead.IP, "-"),
			Code:   code,
		}
		if err := uc.Producer.PublishGroupPost(ctx, payload); err != nil {
			// The group-posted flag already committed; losing the broadcast
			// must not fail the applicant's verification.
			log.Warn().Err(err).Str("lead_id", lead.ID).Msg("group post publish failed")
		}
	}

	log.Info().
		Str("lead_id", lead.ID).
		Bool("pending", out.Pending).
		Bool("broadcast", out.Broadcast).
		Msg("contact verified")

	return out, nil
}

func (uc *VerifyContactUseCase) lookup(ctx context.Context, e164 string) (*entity.Lead, error) {
	lead, err := uc.Leads.FindByPhone(ctx, e164)
	if err == nil {
		return lead, nil
	}
	if !errors.Is(err, entity.ErrLeadNotFound) {
		return nil, &TechnicalError{Code: CodeDatabase, Message: "lead lookup failed: " + err.Error()}
	}

	lead, err = uc.Leads.FindByLastDigits(ctx, phone.Last10(e164))
	if err == nil {
		return lead, nil
	}
	if errors.Is(err, entity.ErrLeadNotFound) {
		// Same error as a digit mismatch so replies cannot be used to probe
		// which phone numbers have applications on file.
		return nil, NewVerificationFailed()
	}
	return nil, &TechnicalError{Code: CodeDatabase, Message: "lead lookup failed: " + err.Error()}
}

func formatAge(age int) string {
	if age <= 0 {
		return "-"
	}
	return strconv.Itoa(age)
}

func coalesce(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
