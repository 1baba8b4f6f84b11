package services

import (
	"errors"
	"fmt"
	"log"
	"regexp"
	"strings"
	"time"

	"malinoise/internal/authz"
	"malinoise/internal/models"
	"malinoise/internal/repositories"
)

var (
	ErrValidation         = errors.New("validation failed")
	ErrAlreadyRegistered  = errors.New("email already registered")
	ErrPendingAlready     = errors.New("registration pending verification")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrNotVerified        = errors.New("email not verified")
	ErrNotifySendFailed   = errors.New("failed to send email")
)

const minPasswordLen = 6

var emailRegex = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// AccountService — оркестрация двух потоков: регистрация → код → верификация
// → аккаунт, и forgot-password → код → reset. Сами коды живут в
// VerificationService; аккаунты — в UserRepository.
type AccountService interface {
	// Register возвращает нормализованный email, код уходит письмом.
	Register(email, password, name string) (string, error)
	VerifyRegistration(email, code string) (*models.User, string, error)
	Login(email, password string) (*models.User, string, error)
	// ForgotPassword отвечает одинаково вне зависимости от того, существует
	// ли аккаунт.
	ForgotPassword(email string) error
	ResetPassword(email, code, newPassword string) error
	ResendCode(email string, kind models.VerificationKind) error
}

type accountService struct {
	users         repositories.UserRepository
	verifications VerificationService
	emails        EmailService
	auth          AuthService
	regTTL        time.Duration
	recTTL        time.Duration
	now           func() time.Time
}

func NewAccountService(
	users repositories.UserRepository,
	verifications VerificationService,
	emails EmailService,
	auth AuthService,
	registrationTTL, recoveryTTL time.Duration,
	now func() time.Time,
) AccountService {
	if now == nil {
		now = time.Now
	}
	return &accountService{
		users:         users,
		verifications: verifications,
		emails:        emails,
		auth:          auth,
		regTTL:        registrationTTL,
		recTTL:        recoveryTTL,
		now:           now,
	}
}

// normalizeEmail — email всегда в нижнем регистре и без пробелов, иначе
// " A@B.com " и "a@b.com" разъезжаются по разным записям.
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *accountService) Register(email, password, name string) (string, error) {
	email = normalizeEmail(email)
	name = strings.TrimSpace(name)

	if !emailRegex.MatchString(email) {
		return "", fmt.Errorf("%w: invalid email address", ErrValidation)
	}
	if len(password) < minPasswordLen {
		return "", fmt.Errorf("%w: password must be at least %d characters", ErrValidation, minPasswordLen)
	}
	if len(name) < 2 {
		return "", fmt.Errorf("%w: name is required", ErrValidation)
	}

	existing, err := s.users.GetByEmail(email)
	if err != nil {
		return "", err
	}
	if existing != nil {
		return "", ErrAlreadyRegistered
	}

	pending, err := s.verifications.Peek(email, models.KindRegistration)
	if err != nil {
		return "", err
	}
	if pending != nil && !pending.Expired(s.now()) {
		return "", ErrPendingAlready
	}

	// в pending-записи хранится только хэш, никогда пароль
	hash, err := s.auth.HashPassword(password)
	if err != nil {
		return "", err
	}

	rec, err := s.verifications.Issue(email, models.KindRegistration, name, hash, s.regTTL)
	if err != nil {
		return "", err
	}

	if err := s.emails.SendVerificationCode(email, name, rec.Code); err != nil {
		// запись не откатываем: пользователь дойдёт до кода через resend
		log.Printf("[account][register] send code failed for %s: %v", email, err)
		return "", ErrNotifySendFailed
	}

	log.Printf("[account][register] pending verification issued for %s", email)
	return email, nil
}

func (s *accountService) VerifyRegistration(email, code string) (*models.User, string, error) {
	email = normalizeEmail(email)

	rec, err := s.verifications.Consume(email, models.KindRegistration, code)
	if err != nil {
		return nil, "", err
	}

	now := s.now()
	user := &models.User{
		Email:        email,
		Name:         rec.Name,
		PasswordHash: rec.PasswordHash,
		Role:         authz.RoleUser,
		IsVerified:   true,
		VerifiedAt:   &now,
		CreatedAt:    now,
	}
	if err := s.users.Create(user); err != nil {
		return nil, "", err
	}

	token, err := s.auth.IssueToken(user)
	if err != nil {
		return nil, "", err
	}

	if err := s.emails.SendWelcomeEmail(email, user.Name); err != nil {
		// warn but do not fail verification
		log.Printf("[account][verify] warning: failed to send welcome email to %s: %v", email, err)
	}

	log.Printf("[account][verify] user verified: id=%d email=%s", user.ID, email)
	return user, token, nil
}

func (s *accountService) Login(email, password string) (*models.User, string, error) {
	email = normalizeEmail(email)

	user, err := s.users.GetByEmail(email)
	if err != nil {
		return nil, "", err
	}
	if user == nil {
		// не различаем "нет такого" и "неверный пароль"
		return nil, "", ErrInvalidCredentials
	}
	if !user.IsVerified {
		return nil, "", ErrNotVerified
	}
	if !s.auth.CheckPassword(password, user.PasswordHash) {
		return nil, "", ErrInvalidCredentials
	}

	now := s.now()
	if err := s.users.UpdateLastLogin(user.ID, now); err != nil {
		log.Printf("[account][login] warning: update last_login failed for id=%d: %v", user.ID, err)
	}
	user.LastLogin = &now

	token, err := s.auth.IssueToken(user)
	if err != nil {
		return nil, "", err
	}

	log.Printf("[account][login] success id=%d email=%s", user.ID, email)
	return user, token, nil
}

func (s *accountService) ForgotPassword(email string) error {
	email = normalizeEmail(email)
	if !emailRegex.MatchString(email) {
		return fmt.Errorf("%w: invalid email address", ErrValidation)
	}

	user, err := s.users.GetByEmail(email)
	if err != nil {
		return err
	}
	if user == nil {
		// ответ одинаковый, существование аккаунта не раскрываем
		log.Printf("[account][forgot] request for unknown email %q ignored", email)
		return nil
	}

	rec, err := s.verifications.Issue(email, models.KindPasswordRecovery, "", "", s.recTTL)
	if err != nil {
		if errors.Is(err, ErrResendThrottled) {
			log.Printf("[account][forgot] throttled for %s", email)
			return nil
		}
		return err
	}

	if err := s.emails.SendRecoveryCode(email, user.Name, rec.Code); err != nil {
		log.Printf("[account][forgot] send code failed for %s: %v", email, err)
	}
	return nil
}

func (s *accountService) ResetPassword(email, code, newPassword string) error {
	email = normalizeEmail(email)
	if len(newPassword) < minPasswordLen {
		return fmt.Errorf("%w: password must be at least %d characters", ErrValidation, minPasswordLen)
	}

	if _, err := s.verifications.Consume(email, models.KindPasswordRecovery, code); err != nil {
		return err
	}

	user, err := s.users.GetByEmail(email)
	if err != nil {
		return err
	}
	if user == nil {
		return ErrCodeNotFound
	}

	hash, err := s.auth.HashPassword(newPassword)
	if err != nil {
		return err
	}
	if err := s.users.UpdatePassword(user.ID, hash); err != nil {
		return err
	}

	log.Printf("[account][reset] password updated for id=%d", user.ID)
	return nil
}

// ResendCode перевыдаёт код: Issue сам инвалидирует предыдущую запись, так
// что отдельной логики на каждый поток не нужно.
func (s *accountService) ResendCode(email string, kind models.VerificationKind) error {
	email = normalizeEmail(email)
	if !kind.Valid() {
		return fmt.Errorf("%w: unknown verification kind", ErrValidation)
	}

	prior, err := s.verifications.Peek(email, kind)
	if err != nil {
		return err
	}
	if prior == nil {
		return ErrCodeNotFound
	}

	ttl := s.regTTL
	if kind == models.KindPasswordRecovery {
		ttl = s.recTTL
	}
	rec, err := s.verifications.Issue(email, kind, prior.Name, prior.PasswordHash, ttl)
	if err != nil {
		return err
	}

	name := rec.Name
	var sendErr error
	if kind == models.KindRegistration {
		sendErr = s.emails.SendVerificationCode(email, name, rec.Code)
	} else {
		if user, err := s.users.GetByEmail(email); err == nil && user != nil {
			name = user.Name
		}
		sendErr = s.emails.SendRecoveryCode(email, name, rec.Code)
	}
	if sendErr != nil {
		log.Printf("[account][resend] send code failed for %s kind=%s: %v", email, kind, sendErr)
		return ErrNotifySendFailed
	}

	log.Printf("[account][resend] new code issued for %s kind=%s", email, kind)
	return nil
}
