package usecase_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/hirepro/funnel/internal/entity"
	"github.com/hirepro/funnel/internal/infra/queue"
	"github.com/hirepro/funnel/internal/usecase"
)

func newVerifyUseCase() (*usecase.VerifyContactUseCase, *MockLeadRepository, *MockAssignmentRepository, *MockGroupPostProducer) {
	leads := new(MockLeadRepository)
	assignments := new(MockAssignmentRepository)
	producer := new(MockGroupPostProducer)
	return usecase.NewVerifyContactUseCase(leads, assignments, producer), leads, assignments, producer
}

func TestVerifyContactInvalidPhone(t *testing.T) {
	uc, leads, _, _ := newVerifyUseCase()

	out, err := uc.Execute(context.Background(), usecase.VerifyContactInput{RawPhone: "not-a-phone"})

	assert.Nil(t, out)
	assert.Equal(t, usecase.CodeInvalidPhone, usecase.ErrCode(err))
	leads.AssertNotCalled(t, "FindByPhone", mock.Anything, mock.Anything)
}

func TestVerifyContactNoMatchingLead(t *testing.T) {
	uc, leads, assignments, producer := newVerifyUseCase()

	leads.On("FindByPhone", mock.Anything, "+12025550123").Return(nil, entity.ErrLeadNotFound)
	leads.On("FindByLastDigits", mock.Anything, "2025550123").Return(nil, entity.ErrLeadNotFound)

	out, err := uc.Execute(context.Background(), usecase.VerifyContactInput{RawPhone: "12025550123"})

	assert.Nil(t, out)
	assert.Equal(t, usecase.CodeVerificationFailed, usecase.ErrCode(err))
	// The not-found reply must be indistinguishable from a digit mismatch.
	assert.EqualError(t, err, usecase.NewVerificationFailed().Error())
	leads.AssertNotCalled(t, "EnsureWorkCode", mock.Anything, mock.Anything)
	assignments.AssertNotCalled(t, "Assign", mock.Anything, mock.Anything)
	producer.AssertNotCalled(t, "PublishGroupPost", mock.Anything, mock.Anything)
}

func TestVerifyContactSuccessFirstTime(t *testing.T) {
	uc, leads, assignments, producer := newVerifyUseCase()

	lead := &entity.Lead{
		ID:          "lead-1",
		Name:        "Ada",
		PhoneE164:   "+12025550123",
		PhoneLast10: "2025550123",
		Age:         29,
		IP:          "203.0.113.9",
	}
	exec := &entity.Executive{ID: "exec-1", PhoneE164: "+12025550199", Username: "recruiter", Active: true}
	assignment := &entity.Assignment{ID: "as-1", LeadID: "lead-1", ExecutiveID: "exec-1"}

	// The chat client reports the number without a plus; the last-10 lookup
	// absorbs any country-code drift.
	leads.On("FindByPhone", mock.Anything, "+12025550123").Return(nil, entity.ErrLeadNotFound)
	leads.On("FindByLastDigits", mock.Anything, "2025550123").Return(lead, nil)
	leads.On("EnsureWorkCode", mock.Anything, lead).Return("XKCDW234", nil)
	assignments.On("Assign", mock.Anything, "lead-1").Return(assignment, exec, nil)
	leads.On("MarkGroupPosted", mock.Anything, "lead-1").Return(true, nil)
	producer.On("PublishGroupPost", mock.Anything, mock.Anything).Return(nil)

	out, err := uc.Execute(context.Background(), usecase.VerifyContactInput{RawPhone: "12025550123"})

	assert.NoError(t, err)
	assert.Equal(t, "XKCDW234", out.Code)
	assert.Equal(t, exec, out.Executive)
	assert.False(t, out.Pending)
	assert.True(t, out.Broadcast)

	producer.AssertNumberOfCalls(t, "PublishGroupPost", 1)
	published := producer.Calls[0].Arguments.Get(1).(queue.GroupPostPayload)
	assert.Equal(t, "Ada", published.Name)
	assert.Equal(t, "29", published.Age)
	assert.Equal(t, "+12025550123", published.Phone)
	assert.Equal(t, "203.0.113.9", published.IP)
	assert.Equal(t, "XKCDW234", published.Code)
}

func TestVerifyContactRepeatIsSafeNoOp(t *testing.T) {
	uc, leads, assignments, producer := newVerifyUseCase()

	lead := &entity.Lead{
		ID:          "lead-1",
		PhoneE164:   "+12025550123",
		PhoneLast10: "2025550123",
		WorkCode:    "XKCDW234",
	}
	exec := &entity.Executive{ID: "exec-1", Username: "recruiter", Active: true}
	assignment := &entity.Assignment{ID: "as-1", LeadID: "lead-1", ExecutiveID: "exec-1"}

	leads.On("FindByPhone", mock.Anything, "+12025550123").Return(lead, nil)
	leads.On("EnsureWorkCode", mock.Anything, lead).Return("XKCDW234", nil)
	assignments.On("Assign", mock.Anything, "lead-1").Return(assignment, exec, nil)
	// Someone already won the group post; this call must not broadcast.
	leads.On("MarkGroupPosted", mock.Anything, "lead-1").Return(false, nil)

	out, err := uc.Execute(context.Background(), usecase.VerifyContactInput{RawPhone: "+12025550123"})

	assert.NoError(t, err)
	assert.Equal(t, "XKCDW234", out.Code)
	assert.False(t, out.Broadcast)
	producer.AssertNotCalled(t, "PublishGroupPost", mock.Anything, mock.Anything)
}

func TestVerifyContactPendingWhenRosterEmpty(t *testing.T) {
	uc, leads, assignments, producer := newVerifyUseCase()

	lead := &entity.Lead{ID: "lead-1", PhoneE164: "+12025550123", PhoneLast10: "2025550123"}
	pending := &entity.Assignment{ID: "as-1", LeadID: "lead-1"}

	leads.On("FindByPhone", mock.Anything, "+12025550123").Return(lead, nil)
	leads.On("EnsureWorkCode", mock.Anything, lead).Return("XKCDW234", nil)
	assignments.On("Assign", mock.Anything, "lead-1").Return(pending, nil, nil)
	leads.On("MarkGroupPosted", mock.Anything, "lead-1").Return(true, nil)
	producer.On("PublishGroupPost", mock.Anything, mock.Anything).Return(nil)

	out, err := uc.Execute(context.Background(), usecase.VerifyContactInput{RawPhone: "+12025550123"})

	assert.NoError(t, err)
	assert.True(t, out.Pending)
	assert.Nil(t, out.Executive)
}

func TestVerifyContactPublishFailureDoesNotFailVerification(t *testing.T) {
	uc, leads, assignments, producer := newVerifyUseCase()

	lead := &entity.Lead{ID: "lead-1", PhoneE164: "+12025550123", PhoneLast10: "2025550123"}
	exec := &entity.Executive{ID: "exec-1", Username: "recruiter", Active: true}
	assignment := &entity.Assignment{ID: "as-1", LeadID: "lead-1", ExecutiveID: "exec-1"}

	leads.On("FindByPhone", mock.Anything, "+12025550123").Return(lead, nil)
	leads.On("EnsureWorkCode", mock.Anything, lead).Return("XKCDW234", nil)
	assignments.On("Assign", mock.Anything, "lead-1").Return(assignment, exec, nil)
	leads.On("MarkGroupPosted", mock.Anything, "lead-1").Return(true, nil)
	producer.On("PublishGroupPost", mock.Anything, mock.Anything).Return(assert.AnError)

	out, err := uc.Execute(context.Background(), usecase.VerifyContactInput{RawPhone: "+12025550123"})

	// The committed state transitions stand; the lost broadcast is a warning.
	assert.NoError(t, err)
	assert.Equal(t, "XKCDW234", out.Code)
	assert.True(t, out.Broadcast)
}

func TestVerifyContactFallbackNameUsedInBroadcast(t *testing.T) {
	uc, leads, assignments, producer := newVerifyUseCase()

	lead := &entity.Lead{ID: "lead-1", PhoneE164: "+12025550123", PhoneLast10: "2025550123"}
	pending := &entity.Assignment{ID: "as-1", LeadID: "lead-1"}

	leads.On("FindByPhone", mock.Anything, "+12025550123").Return(lead, nil)
	leads.On("EnsureWorkCode", mock.Anything, lead).Return("XKCDW234", nil)
	assignments.On("Assign", mock.Anything, "lead-1").Return(pending, nil, nil)
	leads.On("MarkGroupPosted", mock.Anything, "lead-1").Return(true, nil)
	producer.On("PublishGroupPost", mock.Anything, mock.Anything).Return(nil)

	_, err := uc.Execute(context.Background(), usecase.VerifyContactInput{
		RawPhone:     "+12025550123",
		FallbackName: "Ada Lovelace",
	})

	assert.NoError(t, err)
	published := producer.Calls[0].Arguments.Get(1).(queue.GroupPostPayload)
	assert.Equal(t, "Ada Lovelace", published.Name)
	assert.Equal(t, "-", published.Age)
	assert.Equal(t, "-", published.IP)
}
