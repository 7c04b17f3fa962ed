package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewLead(t *testing.T) {
	lead, err := NewLead("+12025550123", "2025550123")

	assert.NoError(t, err)
	assert.NotEmpty(t, lead.ID)
	assert.Equal(t, "+12025550123", lead.PhoneE164)
	assert.Equal(t, "2025550123", lead.PhoneLast10)
	assert.False(t, lead.HasWorkCode())
	assert.False(t, lead.GroupPosted())
}

func TestNewLeadRequiresPhone(t *testing.T) {
	_, err := NewLead("", "")
	assert.ErrorIs(t, err, ErrLeadPhoneRequired)

	_, err = NewLead("   ", "")
	assert.ErrorIs(t, err, ErrLeadPhoneRequired)
}
