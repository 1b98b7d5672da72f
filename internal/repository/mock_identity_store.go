package repository

import (
	"context"

	"github.com/stretchr/testify/mock"

	"go-market-auth/internal/model"
)

type MockIdentityStore struct {
	mock.Mock
}

func (m *MockIdentityStore) CreateWithProfile(ctx context.Context, identity model.Identity, profile model.RoleProfile) error {
	args := m.Called(ctx, identity, profile)
	return args.Error(0)
}

func (m *MockIdentityStore) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	args := m.Called(ctx, username)
	return args.Bool(0), args.Error(1)
}

func (m *MockIdentityStore) FindByUsername(ctx context.Context, username string) (model.Identity, error) {
	args := m.Called(ctx, username)
	return args.Get(0).(model.Identity), args.Error(1)
}

func (m *MockIdentityStore) FindByID(ctx context.Context, id string) (model.Identity, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(model.Identity), args.Error(1)
}

func (m *MockIdentityStore) FindProfile(ctx context.Context, identityID string, role model.Role) (model.RoleProfile, error) {
	args := m.Called(ctx, identityID, role)
	return args.Get(0).(model.RoleProfile), args.Error(1)
}

func (m *MockIdentityStore) ListIdentities(ctx context.Context, query model.IdentityQuery) ([]model.Identity, model.Meta, error) {
	args := m.Called(ctx, query)
	if args.Get(0) == nil {
		return nil, args.Get(1).(model.Meta), args.Error(2)
	}
	return args.Get(0).([]model.Identity), args.Get(1).(model.Meta), args.Error(2)
}

func (m *MockIdentityStore) UpdateApprovalStatus(ctx context.Context, id string, from model.ApprovalStatus, to model.ApprovalStatus) (bool, error) {
	args := m.Called(ctx, id, from, to)
	return args.Bool(0), args.Error(1)
}

func (m *MockIdentityStore) DeleteIfStatus(ctx context.Context, id string, status model.ApprovalStatus) (bool, error) {
	args := m.Called(ctx, id, status)
	return args.Bool(0), args.Error(1)
}

func (m *MockIdentityStore) CountStats(ctx context.Context) (model.IdentityStats, error) {
	args := m.Called(ctx)
	return args.Get(0).(model.IdentityStats), args.Error(1)
}
