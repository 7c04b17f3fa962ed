package usecase_test

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/hirepro/funnel/internal/entity"
	"github.com/hirepro/funnel/internal/infra/queue"
)

type MockLeadRepository struct {
	mock.Mock
}

func (m *MockLeadRepository) Upsert(ctx context.Context, lead *entity.Lead) error {
	args := m.Called(ctx, lead)
	return args.Error(0)
}

func (m *MockLeadRepository) FindByPhone(ctx context.Context, e164 string) (*entity.Lead, error) {
	args := m.Called(ctx, e164)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Lead), args.Error(1)
}

func (m *MockLeadRepository) FindByLastDigits(ctx context.Context, last10 string) (*entity.Lead, error) {
	args := m.Called(ctx, last10)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Lead), args.Error(1)
}

func (m *MockLeadRepository) EnsureWorkCode(ctx context.Context, lead *entity.Lead) (string, error) {
	args := m.Called(ctx, lead)
	return args.String(0), args.Error(1)
}

func (m *MockLeadRepository) MarkGroupPosted(ctx context.Context, leadID string) (bool, error) {
	args := m.Called(ctx, leadID)
	return args.Bool(0), args.Error(1)
}

type MockExecutiveRepository struct {
	mock.Mock
}

func (m *MockExecutiveRepository) AddOrReactivate(ctx context.Context, exec *entity.Executive) error {
	args := m.Called(ctx, exec)
	return args.Error(0)
}

func (m *MockExecutiveRepository) Deactivate(ctx context.Context, phoneE164 string) error {
	args := m.Called(ctx, phoneE164)
	return args.Error(0)
}

func (m *MockExecutiveRepository) List(ctx context.Context) ([]*entity.Executive, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entity.Executive), args.Error(1)
}

type MockAssignmentRepository struct {
	mock.Mock
}

func (m *MockAssignmentRepository) Assign(ctx context.Context, leadID string) (*entity.Assignment, *entity.Executive, error) {
	args := m.Called(ctx, leadID)
	var assignment *entity.Assignment
	var exec *entity.Executive
	if args.Get(0) != nil {
		assignment = args.Get(0).(*entity.Assignment)
	}
	if args.Get(1) != nil {
		exec = args.Get(1).(*entity.Executive)
	}
	return assignment, exec, args.Error(2)
}

func (m *MockAssignmentRepository) FindByLead(ctx context.Context, leadID string) (*entity.Assignment, error) {
	args := m.Called(ctx, leadID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Assignment), args.Error(1)
}

func (m *MockAssignmentRepository) ClaimPending(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

type MockGroupPostProducer struct {
	mock.Mock
}

func (m *MockGroupPostProducer) PublishGroupPost(ctx context.Context, payload queue.GroupPostPayload) error {
	args := m.Called(ctx, payload)
	return args.Error(0)
}
