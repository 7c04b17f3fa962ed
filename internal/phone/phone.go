// Package phone converts whatever the web form or a Telegram client reports
// into a strict E.164 string like "+918610080339".
package phone

import (
	"errors"
	"strings"

	"github.com/nyaruka/phonenumbers"
)

var ErrInvalidPhone = errors.New("invalid phone number")

// Last10Digits is the comparison window used to verify a Telegram contact
// against the number submitted on the form. Country-code capture differs
// between the two channels often enough that exact matching locks people out.
const Last10Digits = 10

// ToE164 parses raw into E.164. countryISO is an optional two-letter region
// hint ("IN", "US") used when raw has no + prefix.
func ToE164(raw, countryISO string) (string, error) {
	s := keepDialable(raw)
	if s == "" {
		return "", ErrInvalidPhone
	}

	num, err := phonenumbers.Parse(s, strings.ToUpper(strings.TrimSpace(countryISO)))
	if err != nil {
		return "", ErrInvalidPhone
	}
	if !phonenumbers.IsValidNumber(num) {
		return "", ErrInvalidPhone
	}
	return phonenumbers.Format(num, phonenumbers.E164), nil
}

// Last10 strips everything but digits and keeps the trailing ten.
func Last10(raw string) string {
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()
	if len(digits) <= Last10Digits {
		return digits
	}
	return digits[len(digits)-Last10Digits:]
}

// keepDialable keeps + and digits, dropping spaces, dashes and brackets.
func keepDialable(raw string) string {
	var b strings.Builder
	for _, r := range strings.TrimSpace(raw) {
		if r == '+' || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}
