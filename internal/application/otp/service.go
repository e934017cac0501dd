package otp

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"time"

	"github.com/go-lms-api/internal/domain"
	"github.com/go-lms-api/internal/pkg/clock"
	"github.com/go-lms-api/internal/pkg/validate"
)

const (
	DefaultTTL = 10 * time.Minute
	// DefaultVerifiedTTL is how long a successful Verify stays redeemable by Redeem.
	DefaultVerifiedTTL = 30 * time.Minute

	codeMin   = 100000
	codeRange = 900000 // codes span [100000, 999999]
)

// Store persists at most one pending OTP per normalized email.
// Get returns an error wrapping domain.ErrNotFound when no record exists.
type Store interface {
	Get(ctx context.Context, email string) (*domain.OTPRecord, error)
	Set(ctx context.Context, rec *domain.OTPRecord) error
	Delete(ctx context.Context, email string) error
}

type userStore interface {
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
}

type mailer interface {
	SendEmail(to, subject, body string) error
}

type Service interface {
	Generate() (string, error)
	Issue(ctx context.Context, email string) (string, error)
	Verify(ctx context.Context, email, code string) error
	// Redeem authorizes account creation for email. It consumes the marker a
	// successful Verify left for the same code, or verifies code directly.
	Redeem(ctx context.Context, email, code string) error
}

type ServiceDeps struct {
	Store    Store
	UserRepo userStore
	Mailer   mailer
	Clock    clock.Clock
	Logger   *slog.Logger
	TTL      time.Duration
	// VerifiedTTL bounds the window between Verify and Redeem.
	VerifiedTTL time.Duration
	// Production hides codes from logs even when mail delivery fails.
	Production bool
	// Bypass accepts any well-formed code without consulting the store.
	Bypass bool
}

type service struct {
	store      Store
	users      userStore
	mailer     mailer
	clock      clock.Clock
	log        *slog.Logger
	ttl        time.Duration
	verified   time.Duration
	production bool
	bypass     bool
}

func NewService(deps ServiceDeps) Service {
	s := &service{
		store:      deps.Store,
		users:      deps.UserRepo,
		mailer:     deps.Mailer,
		clock:      deps.Clock,
		log:        deps.Logger,
		ttl:        deps.TTL,
		verified:   deps.VerifiedTTL,
		production: deps.Production,
		bypass:     deps.Bypass && !deps.Production,
	}
	if s.clock == nil {
		s.clock = clock.Real{}
	}
	if s.log == nil {
		s.log = slog.Default()
	}
	if s.ttl <= 0 {
		s.ttl = DefaultTTL
	}
	if s.verified <= 0 {
		s.verified = DefaultVerifiedTTL
	}
	return s
}

// Generate returns a uniformly random six-digit code in [100000, 999999].
func (s *service) Generate() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(codeRange))
	if err != nil {
		return "", fmt.Errorf("generate otp: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()+codeMin), nil
}

func (s *service) Issue(ctx context.Context, email string) (string, error) {
	email = domain.NormalizeEmail(email)
	if email == "" {
		return "", fmt.Errorf("email required: %w", domain.ErrBadRequest)
	}

	_, err := s.users.GetByEmail(ctx, email)
	switch {
	case err == nil:
		return "", fmt.Errorf("%s: %w", email, domain.ErrAlreadyRegistered)
	case !errors.Is(err, domain.ErrNotFound):
		return "", fmt.Errorf("check existing account: %w", err)
	}

	code, err := s.Generate()
	if err != nil {
		return "", err
	}
	rec := &domain.OTPRecord{
		Email:     email,
		Code:      code,
		ExpiresAt: s.clock.Now().Add(s.ttl),
	}
	if err := s.store.Set(ctx, rec); err != nil {
		return "", fmt.Errorf("store otp: %w", err)
	}

	body := fmt.Sprintf("Your verification code is %s. It expires in %d minutes.", code, int(s.ttl/time.Minute))
	if err := s.mailer.SendEmail(email, "Your LMS verification code", body); err != nil {
		// The code is already stored; the client can still verify it.
		s.log.WarnContext(ctx, "otp email delivery failed", "email", email, "err", err)
		if !s.production {
			s.log.DebugContext(ctx, "otp issued without delivery", "email", email, "code", code)
		}
	} else {
		s.log.InfoContext(ctx, "otp issued", "email", email, "expires_at", rec.ExpiresAt)
	}
	return code, nil
}

// Verify consumes the pending code for email and leaves a marker that Redeem
// accepts for the same code within the verified window.
func (s *service) Verify(ctx context.Context, email, code string) error {
	return s.consume(ctx, domain.NormalizeEmail(email), code, true)
}

func (s *service) consume(ctx context.Context, email, code string, mark bool) error {
	if err := validate.Var(code, "len=6,digits"); err != nil {
		return fmt.Errorf("code must be 6 digits: %w", domain.ErrBadRequest)
	}
	if s.bypass {
		s.log.WarnContext(ctx, "otp debug bypass accepted code", "email", email)
		return nil
	}

	rec, err := s.store.Get(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("%s: %w", email, domain.ErrOTPNotFound)
		}
		return fmt.Errorf("load otp: %w", err)
	}
	if rec.Expired(s.clock.Now()) {
		if err := s.store.Delete(ctx, email); err != nil {
			s.log.WarnContext(ctx, "failed to delete expired otp", "email", email, "err", err)
		}
		return fmt.Errorf("%s: %w", email, domain.ErrOTPExpired)
	}
	if subtle.ConstantTimeCompare([]byte(rec.Code), []byte(code)) != 1 {
		s.log.DebugContext(ctx, "otp mismatch", "email", email)
		return fmt.Errorf("%s: %w", email, domain.ErrOTPMismatch)
	}
	// A code that cannot be consumed must not be reported valid.
	if err := s.store.Delete(ctx, email); err != nil {
		return fmt.Errorf("consume otp: %w", err)
	}
	if !mark {
		s.log.InfoContext(ctx, "otp redeemed", "email", email)
		return nil
	}
	marker := &domain.OTPRecord{
		Email:     verifiedKey(email),
		Code:      code,
		ExpiresAt: s.clock.Now().Add(s.verified),
	}
	if err := s.store.Set(ctx, marker); err != nil {
		return fmt.Errorf("record verification: %w", err)
	}
	s.log.InfoContext(ctx, "otp verified", "email", email)
	return nil
}

func (s *service) Redeem(ctx context.Context, email, code string) error {
	email = domain.NormalizeEmail(email)
	key := verifiedKey(email)
	marker, err := s.store.Get(ctx, key)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return s.consume(ctx, email, code, false)
	case err != nil:
		return fmt.Errorf("load verification: %w", err)
	}
	if marker.Expired(s.clock.Now()) {
		if err := s.store.Delete(ctx, key); err != nil {
			s.log.WarnContext(ctx, "failed to delete expired verification", "email", email, "err", err)
		}
		return s.consume(ctx, email, code, false)
	}
	if subtle.ConstantTimeCompare([]byte(marker.Code), []byte(code)) != 1 {
		return fmt.Errorf("%s: %w", email, domain.ErrOTPMismatch)
	}
	if err := s.store.Delete(ctx, key); err != nil {
		return fmt.Errorf("consume verification: %w", err)
	}
	s.log.InfoContext(ctx, "verified otp redeemed", "email", email)
	return nil
}

// verifiedKey names the marker a successful Verify leaves for email. '#'
// cannot appear in an email domain, so it never collides with a pending code.
func verifiedKey(email string) string {
	return email + "#verified"
}
