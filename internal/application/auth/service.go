package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-lms-api/internal/domain"
	jwtinfra "github.com/go-lms-api/internal/infrastructure/jwt"
	"github.com/go-lms-api/internal/pkg/clock"
	"github.com/go-lms-api/internal/pkg/id"
	"golang.org/x/crypto/bcrypt"
)

// Result is returned by Login and Register.
type Result struct {
	Token string
	User  *domain.User
}

type Service interface {
	Login(ctx context.Context, req domain.LoginRequest) (*Result, error)
	Register(ctx context.Context, req domain.RegisterRequest) (*Result, error)
	// Authenticate verifies a bearer token and loads the user it names.
	Authenticate(ctx context.Context, token string) (*domain.AuthContext, error)
}

type userStore interface {
	Get(ctx context.Context, userID string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	Put(ctx context.Context, u *domain.User) error
}

type tokenProvider interface {
	Issue(userID string) (string, error)
	Verify(token string) (*jwtinfra.Claims, error)
}

type otpVerifier interface {
	Redeem(ctx context.Context, email, code string) error
}

type ServiceDeps struct {
	UserRepo   userStore
	Tokens     tokenProvider
	OTP        otpVerifier
	Clock      clock.Clock
	BcryptCost int
}

type service struct {
	users  userStore
	tokens tokenProvider
	otp    otpVerifier
	clock  clock.Clock
	cost   int
}

func NewService(deps ServiceDeps) Service {
	s := &service{
		users:  deps.UserRepo,
		tokens: deps.Tokens,
		otp:    deps.OTP,
		clock:  deps.Clock,
		cost:   deps.BcryptCost,
	}
	if s.clock == nil {
		s.clock = clock.Real{}
	}
	if s.cost == 0 {
		s.cost = bcrypt.DefaultCost
	}
	return s
}

func (s *service) Login(ctx context.Context, req domain.LoginRequest) (*Result, error) {
	u, err := s.users.GetByEmail(ctx, domain.NormalizeEmail(req.Email))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("invalid credentials: %w", domain.ErrUnauthorized)
		}
		return nil, fmt.Errorf("load user: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.Password)); err != nil {
		return nil, fmt.Errorf("invalid credentials: %w", domain.ErrUnauthorized)
	}
	token, err := s.tokens.Issue(u.UserID)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}
	slog.InfoContext(ctx, "user logged in", "user_id", u.UserID)
	return &Result{Token: token, User: u}, nil
}

// Register redeems the email's OTP, either a code already checked through
// Verify or a pending one, and creates a student account. The OTP is spent
// even if account creation fails afterwards; the caller must request a fresh
// code to retry.
func (s *service) Register(ctx context.Context, req domain.RegisterRequest) (*Result, error) {
	email := domain.NormalizeEmail(req.Email)
	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, fmt.Errorf("%s: %w", email, domain.ErrAlreadyRegistered)
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("check existing account: %w", err)
	}

	if err := s.otp.Redeem(ctx, email, req.Code); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.cost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	now := s.clock.Now().UTC()
	u := &domain.User{
		UserID:       id.New(),
		Name:         strings.TrimSpace(req.Name),
		Email:        email,
		PasswordHash: string(hash),
		Role:         domain.RoleStudent,
		Verified:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.users.Put(ctx, u); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	token, err := s.tokens.Issue(u.UserID)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}
	slog.InfoContext(ctx, "user registered", "user_id", u.UserID)
	return &Result{Token: token, User: u}, nil
}

func (s *service) Authenticate(ctx context.Context, token string) (*domain.AuthContext, error) {
	if token == "" {
		return nil, domain.ErrUnauthenticated
	}
	claims, err := s.tokens.Verify(token)
	if err != nil {
		return nil, err
	}
	u, err := s.users.Get(ctx, claims.UserID())
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", claims.UserID(), domain.ErrUserNotFound)
		}
		return nil, fmt.Errorf("load user: %w", err)
	}
	return domain.NewAuthContext(u), nil
}
