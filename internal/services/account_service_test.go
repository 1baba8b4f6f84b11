package services

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"malinoise/internal/authz"
	"malinoise/internal/models"
	"malinoise/internal/repositories"
)

// fakeNotifier перехватывает исходящие письма вместо SMTP.
type fakeNotifier struct {
	mu                sync.Mutex
	verificationCodes map[string]string
	recoveryCodes     map[string]string
	welcomes          []string
	failSends         bool
}

func newFakeNotifier() *fakeNotifier {
	return &fakeNotifier{
		verificationCodes: make(map[string]string),
		recoveryCodes:     make(map[string]string),
	}
}

func (f *fakeNotifier) SendVerificationCode(email, name, code string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failSends {
		return errors.New("smtp unavailable")
	}
	f.verificationCodes[email] = code
	return nil
}

func (f *fakeNotifier) SendRecoveryCode(email, name, code string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failSends {
		return errors.New("smtp unavailable")
	}
	f.recoveryCodes[email] = code
	return nil
}

func (f *fakeNotifier) SendWelcomeEmail(email, name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.welcomes = append(f.welcomes, email)
	return nil
}

func (f *fakeNotifier) verificationCode(email string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.verificationCodes[email]
}

func (f *fakeNotifier) recoveryCode(email string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.recoveryCodes[email]
}

func (f *fakeNotifier) setFailSends(v bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failSends = v
}

type accountFixture struct {
	accounts AccountService
	users    repositories.UserRepository
	notifier *fakeNotifier
	clock    *fakeClock
}

func newAccountFixture() *accountFixture {
	clock := newFakeClock()
	users := repositories.NewMemoryUserRepository()
	notifier := newFakeNotifier()
	auth := NewAuthService("test-secret", time.Hour)
	verifications := NewVerificationService(repositories.NewMemoryVerificationRepository(), clock.Now)
	accounts := NewAccountService(users, verifications, notifier, auth, 10*time.Minute, 30*time.Minute, clock.Now)
	return &accountFixture{
		accounts: accounts,
		users:    users,
		notifier: notifier,
		clock:    clock,
	}
}

// wrongCode возвращает шестизначный код, заведомо не равный переданному.
func wrongCode(code string) string {
	if code == "000000" {
		return "000001"
	}
	return "000000"
}

func TestRegisterVerifyLoginRoundTrip(t *testing.T) {
	f := newAccountFixture()

	email, err := f.accounts.Register("alice@example.com", "secret1", "Alice")
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", email)

	code := f.notifier.verificationCode("alice@example.com")
	require.Len(t, code, 6)

	user, token, err := f.accounts.VerifyRegistration("alice@example.com", code)
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", user.Email)
	assert.Equal(t, "Alice", user.Name)
	assert.Equal(t, authz.RoleUser, user.Role)
	assert.True(t, user.IsVerified)
	assert.NotEmpty(t, token)
	assert.Contains(t, f.notifier.welcomes, "alice@example.com")

	logged, token, err := f.accounts.Login("alice@example.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, user.ID, logged.ID)
	assert.NotNil(t, logged.LastLogin)
	assert.NotEmpty(t, token)

	_, _, err = f.accounts.Login("alice@example.com", "wrong-password")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestRegisterValidation(t *testing.T) {
	f := newAccountFixture()

	cases := []struct {
		name     string
		email    string
		password string
		userName string
	}{
		{"bad email", "not-an-email", "secret1", "Alice"},
		{"short password", "alice@example.com", "12345", "Alice"},
		{"empty name", "alice@example.com", "secret1", " "},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.accounts.Register(tc.email, tc.password, tc.userName)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}
}

func TestRegisterNormalizesEmail(t *testing.T) {
	f := newAccountFixture()

	email, err := f.accounts.Register("  Alice@Example.COM ", "secret1", "Alice")
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", email)

	code := f.notifier.verificationCode("alice@example.com")
	require.NotEmpty(t, code)

	_, _, err = f.accounts.VerifyRegistration("ALICE@example.com", code)
	require.NoError(t, err)

	_, _, err = f.accounts.Login(" alice@EXAMPLE.com", "secret1")
	assert.NoError(t, err)
}

func TestVerifyWrongCodeCreatesNoAccount(t *testing.T) {
	f := newAccountFixture()

	_, err := f.accounts.Register("alice@example.com", "secret1", "Alice")
	require.NoError(t, err)

	code := f.notifier.verificationCode("alice@example.com")
	_, _, err = f.accounts.VerifyRegistration("alice@example.com", wrongCode(code))
	assert.ErrorIs(t, err, ErrCodeMismatch)

	user, err := f.users.GetByEmail("alice@example.com")
	require.NoError(t, err)
	assert.Nil(t, user)

	_, _, err = f.accounts.Login("alice@example.com", "secret1")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestRegisterDuplicates(t *testing.T) {
	f := newAccountFixture()

	_, err := f.accounts.Register("alice@example.com", "secret1", "Alice")
	require.NoError(t, err)

	// повторная регистрация при живом pending-коде
	_, err = f.accounts.Register("alice@example.com", "secret1", "Alice")
	assert.ErrorIs(t, err, ErrPendingAlready)

	code := f.notifier.verificationCode("alice@example.com")
	_, _, err = f.accounts.VerifyRegistration("alice@example.com", code)
	require.NoError(t, err)

	// и после создания аккаунта
	_, err = f.accounts.Register("alice@example.com", "other-pass", "Alice")
	assert.ErrorIs(t, err, ErrAlreadyRegistered)
}

func TestRegisterPendingExpiresAndFreesSlot(t *testing.T) {
	f := newAccountFixture()

	_, err := f.accounts.Register("alice@example.com", "secret1", "Alice")
	require.NoError(t, err)

	f.clock.Advance(11 * time.Minute)
	_, err = f.accounts.Register("alice@example.com", "secret1", "Alice")
	assert.NoError(t, err)
}

func TestNotifyFailureKeepsPendingForResend(t *testing.T) {
	f := newAccountFixture()
	f.notifier.setFailSends(true)

	_, err := f.accounts.Register("alice@example.com", "secret1", "Alice")
	assert.ErrorIs(t, err, ErrNotifySendFailed)

	// запись выдана, письмо не ушло; resend доставляет новый код
	f.notifier.setFailSends(false)
	err = f.accounts.ResendCode("alice@example.com", models.KindRegistration)
	require.NoError(t, err)

	code := f.notifier.verificationCode("alice@example.com")
	require.NotEmpty(t, code)

	user, _, err := f.accounts.VerifyRegistration("alice@example.com", code)
	require.NoError(t, err)
	assert.Equal(t, "Alice", user.Name)
}

func TestResendInvalidatesPreviousCode(t *testing.T) {
	f := newAccountFixture()

	_, err := f.accounts.Register("alice@example.com", "secret1", "Alice")
	require.NoError(t, err)
	first := f.notifier.verificationCode("alice@example.com")

	require.NoError(t, f.accounts.ResendCode("alice@example.com", models.KindRegistration))
	second := f.notifier.verificationCode("alice@example.com")
	require.NotEqual(t, first, second)

	_, _, err = f.accounts.VerifyRegistration("alice@example.com", first)
	assert.ErrorIs(t, err, ErrCodeMismatch)

	_, _, err = f.accounts.VerifyRegistration("alice@example.com", second)
	assert.NoError(t, err)
}

func TestResendWithoutPending(t *testing.T) {
	f := newAccountFixture()

	err := f.accounts.ResendCode("ghost@example.com", models.KindRegistration)
	assert.ErrorIs(t, err, ErrCodeNotFound)

	err = f.accounts.ResendCode("ghost@example.com", models.VerificationKind("bogus"))
	assert.ErrorIs(t, err, ErrValidation)
}

func TestPasswordResetEndToEnd(t *testing.T) {
	f := newAccountFixture()

	_, err := f.accounts.Register("alice@example.com", "old-pass", "Alice")
	require.NoError(t, err)
	code := f.notifier.verificationCode("alice@example.com")
	_, _, err = f.accounts.VerifyRegistration("alice@example.com", code)
	require.NoError(t, err)

	require.NoError(t, f.accounts.ForgotPassword("alice@example.com"))
	recovery := f.notifier.recoveryCode("alice@example.com")
	require.Len(t, recovery, 6)

	require.NoError(t, f.accounts.ResetPassword("alice@example.com", recovery, "new-pass"))

	_, _, err = f.accounts.Login("alice@example.com", "old-pass")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, _, err = f.accounts.Login("alice@example.com", "new-pass")
	assert.NoError(t, err)

	// код одноразовый
	err = f.accounts.ResetPassword("alice@example.com", recovery, "another-pass")
	assert.ErrorIs(t, err, ErrCodeNotFound)
}

func TestResetPasswordValidation(t *testing.T) {
	f := newAccountFixture()

	err := f.accounts.ResetPassword("alice@example.com", "123456", "short")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestForgotPasswordUnknownEmailUniform(t *testing.T) {
	f := newAccountFixture()

	// неизвестный email не раскрывается и письмо не уходит
	err := f.accounts.ForgotPassword("ghost@example.com")
	assert.NoError(t, err)
	assert.Empty(t, f.notifier.recoveryCode("ghost@example.com"))
}

func TestLoginNotVerified(t *testing.T) {
	f := newAccountFixture()

	require.NoError(t, f.users.Create(&models.User{
		Email:        "pending@example.com",
		Name:         "Pending",
		PasswordHash: "$2a$10$abcdefghijklmnopqrstuvwxyz012345678901234567890123456",
		Role:         authz.RoleUser,
		IsVerified:   false,
		CreatedAt:    f.clock.Now(),
	}))

	_, _, err := f.accounts.Login("pending@example.com", "whatever")
	assert.ErrorIs(t, err, ErrNotVerified)
}
