package usecase

import (
	"context"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/hirepro/funnel/internal/entity"
	"github.com/hirepro/funnel/internal/phone"
)

type CaptureLeadInput struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	DialCode string `json:"dial_code"`
	Country  string `json:"country"`
	Gender   string `json:"gender"`
	Age      int    `json:"age"`
	Note     string `json:"note"`

	// IP is taken from the request, not the form body.
	IP string `json:"-"`
}

// CaptureLeadOutput acknowledges the submission. The work code is never
// part of it; the applicant only ever sees the code over Telegram after
// verifying their number.
type CaptureLeadOutput struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

type CaptureLeadUseCase struct {
	Leads entity.LeadRepositoryInterface
}

func NewCaptureLeadUseCase(leads entity.LeadRepositoryInterface) *CaptureLeadUseCase {
	return &CaptureLeadUseCase{Leads: leads}
}

func (uc *CaptureLeadUseCase) Execute(ctx context.Context, input CaptureLeadInput) (*CaptureLeadOutput, error) {
	if validationErrors := ValidateCaptureLeadInput(input); len(validationErrors) > 0 {
		msgs := make([]string, 0, len(validationErrors))
		for _, e := range validationErrors {
			msgs = append(msgs, e.Error())
		}
		return nil, &DomainError{
			Code:    CodeValidation,
			Message: "validation failed: " + strings.Join(msgs, ", "),
		}
	}

	e164, err := phone.ToE164(dialable(input), input.Country)
	if err != nil {
		return nil, NewInvalidPhone()
	}

	lead, err := entity.NewLead(e164, phone.Last10(e164))
	if err != nil {
		return nil, NewInvalidPhone()
	}
	lead.Name = strings.TrimSpace(input.Name)
	lead.Email = strings.TrimSpace(input.Email)
	lead.RawPhone = input.Phone
	lead.Country = strings.ToUpper(strings.TrimSpace(input.Country))
	lead.Gender = strings.TrimSpace(input.Gender)
	lead.Age = input.Age
	lead.Note = strings.TrimSpace(input.Note)
	lead.IP = input.IP

	if err := uc.Leads.Upsert(ctx, lead); err != nil {
		return nil, &TechnicalError{
			Code:    CodeDatabase,
			Message: "failed to store lead: " + err.Error(),
		}
	}

	log.Info().
		Str("lead_id", lead.ID).
		Str("phone", lead.PhoneE164).
		Msg("lead captured")

	return &CaptureLeadOutput{Success: true}, nil
}

// dialable prefers a pre-composed international number; otherwise it glues
// the form's dial-code fragment onto the local part.
func dialable(input CaptureLeadInput) string {
	p := strings.TrimSpace(input.Phone)
	if strings.HasPrefix(p, "+") {
		return p
	}
	dial := strings.TrimSpace(input.DialCode)
	if dial == "" {
		return p
	}
	if !strings.HasPrefix(dial, "+") {
		dial = "+" + dial
	}
	return dial + p
}
