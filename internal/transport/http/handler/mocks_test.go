package handler

import (
	"context"

	"github.com/go-lms-api/internal/application/auth"
	"github.com/go-lms-api/internal/domain"
	"github.com/stretchr/testify/mock"
)

type mockAuthSvc struct{ mock.Mock }

func (m *mockAuthSvc) Login(ctx context.Context, req domain.LoginRequest) (*auth.Result, error) {
	args := m.Called(ctx, req)
	if res, _ := args.Get(0).(*auth.Result); res != nil {
		return res, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockAuthSvc) Register(ctx context.Context, req domain.RegisterRequest) (*auth.Result, error) {
	args := m.Called(ctx, req)
	if res, _ := args.Get(0).(*auth.Result); res != nil {
		return res, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockAuthSvc) Authenticate(ctx context.Context, token string) (*domain.AuthContext, error) {
	args := m.Called(ctx, token)
	if ac, _ := args.Get(0).(*domain.AuthContext); ac != nil {
		return ac, args.Error(1)
	}
	return nil, args.Error(1)
}

type mockOTPSvc struct{ mock.Mock }

func (m *mockOTPSvc) Generate() (string, error) {
	args := m.Called()
	return args.String(0), args.Error(1)
}

func (m *mockOTPSvc) Issue(ctx context.Context, email string) (string, error) {
	args := m.Called(ctx, email)
	return args.String(0), args.Error(1)
}

func (m *mockOTPSvc) Verify(ctx context.Context, email, code string) error {
	return m.Called(ctx, email, code).Error(0)
}

func (m *mockOTPSvc) Redeem(ctx context.Context, email, code string) error {
	return m.Called(ctx, email, code).Error(0)
}

type mockUserSvc struct{ mock.Mock }

func (m *mockUserSvc) Get(ctx context.Context, userID string) (*domain.User, error) {
	args := m.Called(ctx, userID)
	if u, _ := args.Get(0).(*domain.User); u != nil {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockUserSvc) UpdateRole(ctx context.Context, userID, role string) (*domain.User, error) {
	args := m.Called(ctx, userID, role)
	if u, _ := args.Get(0).(*domain.User); u != nil {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}
