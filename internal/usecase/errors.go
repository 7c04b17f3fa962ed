package usecase

// Error codes surfaced to transports. Handlers and the bot map these to
// user-facing wording; NotFound and digit-mismatch share one code on purpose
// so the reply cannot leak which of the two happened.
const (
	CodeValidation         = "VALIDATION_ERROR"
	CodeInvalidPhone       = "INVALID_PHONE"
	CodeVerificationFailed = "VERIFICATION_FAILED"
	CodeDatabase           = "DATABASE_ERROR"
)

type DomainError struct {
	Code    string
	Message string
}

func (e *DomainError) Error() string {
	return e.Message
}

func IsDomainError(err error) bool {
	_, ok := err.(*DomainError)
	return ok
}

type TechnicalError struct {
	Code    string
	Message string
}

func (e *TechnicalError) Error() string {
	return e.Message
}

func IsTechnicalError(err error) bool {
	_, ok := err.(*TechnicalError)
	return ok
}

func NewVerificationFailed() *DomainError {
	return &DomainError{
		Code:    CodeVerificationFailed,
		Message: "phone number does not match any submitted application",
	}
}

func NewInvalidPhone() *DomainError {
	return &DomainError{
		Code:    CodeInvalidPhone,
		Message: "phone number could not be parsed",
	}
}

// ErrCode extracts the taxonomy code from an error, or "" for plain errors.
func ErrCode(err error) string {
	switch e := err.(type) {
	case *DomainError:
		return e.Code
	case *TechnicalError:
		return e.Code
	default:
		return ""
	}
}
