package otp

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strconv"
	"testing"
	"time"

	"github.com/go-lms-api/internal/domain"
	"github.com/go-lms-api/internal/infrastructure/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// --- mocks ---

type mockUserStore struct{ mock.Mock }

func (m *mockUserStore) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if u, _ := args.Get(0).(*domain.User); u != nil {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}

type mockMailer struct{ mock.Mock }

func (m *mockMailer) SendEmail(to, subject, body string) error {
	return m.Called(to, subject, body).Error(0)
}

type fakeClock struct{ now time.Time }

func (c *fakeClock) Now() time.Time          { return c.now }
func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

type failingStore struct {
	*memory.OTPStore
	deleteErr error
}

func (s *failingStore) Delete(ctx context.Context, email string) error {
	if s.deleteErr != nil {
		return s.deleteErr
	}
	return s.OTPStore.Delete(ctx, email)
}

// --- builder ---

type fixture struct {
	svc    Service
	store  *memory.OTPStore
	users  *mockUserStore
	mailer *mockMailer
	clock  *fakeClock
}

func newFixture(t *testing.T, production, bypass bool) *fixture {
	t.Helper()
	f := &fixture{
		store:  memory.NewOTPStore(),
		users:  &mockUserStore{},
		mailer: &mockMailer{},
		clock:  &fakeClock{now: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)},
	}
	f.svc = NewService(ServiceDeps{
		Store:      f.store,
		UserRepo:   f.users,
		Mailer:     f.mailer,
		Clock:      f.clock,
		Logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
		TTL:        DefaultTTL,
		Production: production,
		Bypass:     bypass,
	})
	return f
}

// issueFor runs a successful Issue for email and returns the stored code.
func (f *fixture) issueFor(t *testing.T, email string) string {
	t.Helper()
	f.users.On("GetByEmail", mock.Anything, domain.NormalizeEmail(email)).Return(nil, domain.ErrNotFound)
	f.mailer.On("SendEmail", domain.NormalizeEmail(email), mock.Anything, mock.Anything).Return(nil)
	code, err := f.svc.Issue(context.Background(), email)
	require.NoError(t, err)
	return code
}

// --- Generate ---

func TestGenerate_SixDigitsInRange(t *testing.T) {
	f := newFixture(t, true, false)
	for i := 0; i < 2000; i++ {
		code, err := f.svc.Generate()
		require.NoError(t, err)
		require.Len(t, code, 6)
		n, err := strconv.Atoi(code)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, n, 100000)
		assert.LessOrEqual(t, n, 999999)
	}
}

func TestGenerate_RoughlyUniform(t *testing.T) {
	f := newFixture(t, true, false)
	const samples = 18000
	var buckets [9]int // leading digit 1..9
	for i := 0; i < samples; i++ {
		code, err := f.svc.Generate()
		require.NoError(t, err)
		buckets[code[0]-'1']++
	}
	expected := float64(samples) / 9
	var chi2 float64
	for _, observed := range buckets {
		d := float64(observed) - expected
		chi2 += d * d / expected
	}
	// 8 degrees of freedom; 26.12 is the p=0.001 critical value.
	assert.Less(t, chi2, 40.0, "buckets=%v", buckets)
}

// --- Issue ---

func TestIssue_StoresNormalizedRecord(t *testing.T) {
	f := newFixture(t, true, false)
	code := f.issueFor(t, "  User@Example.COM ")

	rec, err := f.store.Get(context.Background(), "user@example.com")
	require.NoError(t, err)
	assert.Equal(t, code, rec.Code)
	assert.Equal(t, f.clock.now.Add(10*time.Minute), rec.ExpiresAt)
	f.users.AssertExpectations(t)
	f.mailer.AssertExpectations(t)
}

func TestIssue_AlreadyRegistered(t *testing.T) {
	f := newFixture(t, true, false)
	f.users.On("GetByEmail", mock.Anything, "taken@example.com").Return(&domain.User{UserID: "u1"}, nil)

	_, err := f.svc.Issue(context.Background(), "Taken@example.com")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrAlreadyRegistered))
	assert.Equal(t, 0, f.store.Len())
	f.mailer.AssertNotCalled(t, "SendEmail", mock.Anything, mock.Anything, mock.Anything)
}

func TestIssue_UserLookupFailure(t *testing.T) {
	f := newFixture(t, true, false)
	f.users.On("GetByEmail", mock.Anything, "a@b.com").Return(nil, errors.New("dynamo unreachable"))

	_, err := f.svc.Issue(context.Background(), "a@b.com")
	require.Error(t, err)
	assert.False(t, errors.Is(err, domain.ErrAlreadyRegistered))
	assert.Equal(t, 0, f.store.Len())
}

func TestIssue_EmptyEmail(t *testing.T) {
	f := newFixture(t, true, false)
	_, err := f.svc.Issue(context.Background(), "   ")
	assert.True(t, errors.Is(err, domain.ErrBadRequest))
}

func TestIssue_MailFailureIsNotFatal(t *testing.T) {
	f := newFixture(t, true, false)
	f.users.On("GetByEmail", mock.Anything, "a@b.com").Return(nil, domain.ErrNotFound)
	f.mailer.On("SendEmail", "a@b.com", mock.Anything, mock.Anything).Return(errors.New("smtp down"))

	code, err := f.svc.Issue(context.Background(), "a@b.com")
	require.NoError(t, err)

	require.NoError(t, f.svc.Verify(context.Background(), "a@b.com", code))
}

func TestIssue_OverwritesEarlierCode(t *testing.T) {
	f := newFixture(t, true, false)
	first := f.issueFor(t, "a@b.com")
	var second string
	for {
		second = f.issueFor(t, "a@b.com")
		if second != first {
			break
		}
	}

	err := f.svc.Verify(context.Background(), "a@b.com", first)
	assert.True(t, errors.Is(err, domain.ErrOTPMismatch))
	assert.NoError(t, f.svc.Verify(context.Background(), "a@b.com", second))
}

// --- Verify ---

func TestVerify_Success_ConsumesCode(t *testing.T) {
	f := newFixture(t, true, false)
	code := f.issueFor(t, "a@b.com")

	require.NoError(t, f.svc.Verify(context.Background(), "A@B.com", code))

	err := f.svc.Verify(context.Background(), "a@b.com", code)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrOTPNotFound))
}

func TestVerify_NotFound(t *testing.T) {
	f := newFixture(t, true, false)
	err := f.svc.Verify(context.Background(), "nobody@example.com", "123456")
	assert.True(t, errors.Is(err, domain.ErrOTPNotFound))
}

func TestVerify_Mismatch_KeepsRecord(t *testing.T) {
	f := newFixture(t, true, false)
	code := f.issueFor(t, "a@b.com")
	wrong := "100000"
	if code == wrong {
		wrong = "100001"
	}

	err := f.svc.Verify(context.Background(), "a@b.com", wrong)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrOTPMismatch))
	assert.Equal(t, 1, f.store.Len())

	f.clock.Advance(9 * time.Minute)
	assert.NoError(t, f.svc.Verify(context.Background(), "a@b.com", code))
}

func TestVerify_Expired_DeletesRecord(t *testing.T) {
	f := newFixture(t, true, false)
	code := f.issueFor(t, "user@example.com")

	f.clock.Advance(10*time.Minute + time.Second)
	err := f.svc.Verify(context.Background(), "user@example.com", code)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrOTPExpired))

	_, err = f.store.Get(context.Background(), "user@example.com")
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestVerify_AtExactExpiryStillValid(t *testing.T) {
	f := newFixture(t, true, false)
	code := f.issueFor(t, "a@b.com")

	f.clock.Advance(10 * time.Minute)
	assert.NoError(t, f.svc.Verify(context.Background(), "a@b.com", code))
}

func TestVerify_MalformedCode(t *testing.T) {
	f := newFixture(t, false, true)
	for _, code := range []string{"", "12345", "1234567", "12a456", "-12345"} {
		err := f.svc.Verify(context.Background(), "a@b.com", code)
		assert.True(t, errors.Is(err, domain.ErrBadRequest), "code %q", code)
	}
}

func TestVerify_BypassOutsideProduction(t *testing.T) {
	f := newFixture(t, false, true)
	assert.NoError(t, f.svc.Verify(context.Background(), "anyone@example.com", "123456"))
	assert.NoError(t, f.svc.Verify(context.Background(), "anyone@example.com", "123456"))
}

func TestVerify_BypassIgnoredInProduction(t *testing.T) {
	f := newFixture(t, true, true)
	err := f.svc.Verify(context.Background(), "anyone@example.com", "123456")
	assert.True(t, errors.Is(err, domain.ErrOTPNotFound))
}

func TestVerify_NoBypassWithoutFlag(t *testing.T) {
	f := newFixture(t, false, false)
	err := f.svc.Verify(context.Background(), "anyone@example.com", "123456")
	assert.True(t, errors.Is(err, domain.ErrOTPNotFound))
}

func TestVerify_DeleteFailureIsNotSuccess(t *testing.T) {
	store := &failingStore{OTPStore: memory.NewOTPStore(), deleteErr: errors.New("write failed")}
	clk := &fakeClock{now: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
	require.NoError(t, store.Set(context.Background(), &domain.OTPRecord{
		Email: "a@b.com", Code: "654321", ExpiresAt: clk.now.Add(time.Minute),
	}))
	svc := NewService(ServiceDeps{Store: store, Clock: clk, Production: true})

	err := svc.Verify(context.Background(), "a@b.com", "654321")
	require.Error(t, err)
	assert.ErrorContains(t, err, "consume otp")
}

// --- Redeem ---

func TestRedeem_AfterVerify(t *testing.T) {
	f := newFixture(t, true, false)
	code := f.issueFor(t, "a@b.com")
	require.NoError(t, f.svc.Verify(context.Background(), "a@b.com", code))

	require.NoError(t, f.svc.Redeem(context.Background(), "A@b.com", code))
	assert.Equal(t, 0, f.store.Len())

	err := f.svc.Redeem(context.Background(), "a@b.com", code)
	assert.True(t, errors.Is(err, domain.ErrOTPNotFound))
}

func TestRedeem_PendingCodeLeavesNoMarker(t *testing.T) {
	f := newFixture(t, true, false)
	code := f.issueFor(t, "a@b.com")

	require.NoError(t, f.svc.Redeem(context.Background(), "a@b.com", code))
	assert.Equal(t, 0, f.store.Len())

	err := f.svc.Verify(context.Background(), "a@b.com", code)
	assert.True(t, errors.Is(err, domain.ErrOTPNotFound))
}

func TestRedeem_WrongCodeAfterVerify_KeepsMarker(t *testing.T) {
	f := newFixture(t, true, false)
	code := f.issueFor(t, "a@b.com")
	require.NoError(t, f.svc.Verify(context.Background(), "a@b.com", code))
	wrong := "100000"
	if code == wrong {
		wrong = "100001"
	}

	err := f.svc.Redeem(context.Background(), "a@b.com", wrong)
	assert.True(t, errors.Is(err, domain.ErrOTPMismatch))
	assert.NoError(t, f.svc.Redeem(context.Background(), "a@b.com", code))
}

func TestRedeem_ExpiredMarker(t *testing.T) {
	f := newFixture(t, true, false)
	code := f.issueFor(t, "a@b.com")
	require.NoError(t, f.svc.Verify(context.Background(), "a@b.com", code))

	f.clock.Advance(DefaultVerifiedTTL + time.Second)
	err := f.svc.Redeem(context.Background(), "a@b.com", code)
	assert.True(t, errors.Is(err, domain.ErrOTPNotFound))
	assert.Equal(t, 0, f.store.Len())
}

func TestRedeem_BypassOutsideProduction(t *testing.T) {
	f := newFixture(t, false, true)
	assert.NoError(t, f.svc.Redeem(context.Background(), "anyone@example.com", "123456"))
}
