package services

import (
	"crypto/subtle"
	"errors"
	"time"

	"malinoise/internal/models"
	"malinoise/internal/repositories"
	"malinoise/internal/utils"
)

var (
	ErrCodeNotFound    = errors.New("no pending verification")
	ErrCodeExpired     = errors.New("verification code expired")
	ErrCodeMismatch    = errors.New("verification code mismatch")
	ErrTooManyAttempts = errors.New("too many attempts")
	ErrResendThrottled = errors.New("resend throttled")
)

// Настройки безопасности (можно вынести в конфиг при желании)
const (
	maxConfirmAttempts = 5
	maxSendsPerWindow  = 3
	sendWindow         = 10 * time.Minute
)

// VerificationService владеет жизненным циклом кодов подтверждения: выдача с
// заменой предыдущего кода, одноразовое потребление, TTL, лимит попыток,
// троттлинг повторных отправок.
type VerificationService interface {
	Issue(subject string, kind models.VerificationKind, name, passwordHash string, ttl time.Duration) (*models.PendingVerification, error)
	Consume(subject string, kind models.VerificationKind, code string) (*models.PendingVerification, error)
	Peek(subject string, kind models.VerificationKind) (*models.PendingVerification, error)
	SweepExpired() (int, error)
}

type verificationService struct {
	repo         repositories.VerificationRepository
	now          func() time.Time
	generateCode func() (string, error)
}

// NewVerificationService: now == nil — использовать time.Now (в тестах
// подменяется).
func NewVerificationService(repo repositories.VerificationRepository, now func() time.Time) VerificationService {
	if now == nil {
		now = time.Now
	}
	return &verificationService{
		repo:         repo,
		now:          now,
		generateCode: utils.NewVerificationCode,
	}
}

// Issue заменяет активную запись для (subject, kind) новой — это и есть
// "переотправка кода". Прежний код после этого не потребляем.
func (s *verificationService) Issue(subject string, kind models.VerificationKind, name, passwordHash string, ttl time.Duration) (*models.PendingVerification, error) {
	now := s.now()

	sendCount := 1
	windowStart := now
	existing, err := s.repo.Get(subject, kind)
	if err != nil {
		return nil, err
	}
	if existing != nil && now.Sub(existing.WindowStartedAt) < sendWindow {
		if existing.SendCount >= maxSendsPerWindow {
			return nil, ErrResendThrottled
		}
		sendCount = existing.SendCount + 1
		windowStart = existing.WindowStartedAt
	}

	code, err := s.generateCode()
	if err != nil {
		return nil, err
	}

	rec := &models.PendingVerification{
		Subject:         subject,
		Kind:            kind,
		Code:            code,
		Name:            name,
		PasswordHash:    passwordHash,
		IssuedAt:        now,
		ExpiresAt:       now.Add(ttl),
		SendCount:       sendCount,
		WindowStartedAt: windowStart,
	}
	if err := s.repo.Replace(rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// Consume — атомарное одноразовое потребление: при гонке одинаковых запросов
// успех получит ровно один, остальные — ErrCodeNotFound.
func (s *verificationService) Consume(subject string, kind models.VerificationKind, code string) (*models.PendingVerification, error) {
	now := s.now()

	v, err := s.repo.Get(subject, kind)
	if err != nil {
		return nil, err
	}
	if v == nil {
		return nil, ErrCodeNotFound
	}
	if v.Expired(now) {
		// протухшую запись удаляем сразу — повторно она не потребляется
		if _, err := s.repo.Delete(v.ID); err != nil {
			return nil, err
		}
		return nil, ErrCodeExpired
	}

	if v.Attempts >= maxConfirmAttempts {
		return nil, ErrTooManyAttempts
	}

	if subtle.ConstantTimeCompare([]byte(v.Code), []byte(code)) != 1 {
		attempts, incErr := s.repo.IncrementAttempts(v.ID)
		if incErr != nil {
			return nil, incErr
		}
		if attempts >= maxConfirmAttempts {
			if err := s.repo.ExpireNow(v.ID, now); err != nil {
				return nil, err
			}
			return nil, ErrTooManyAttempts
		}
		return nil, ErrCodeMismatch
	}

	deleted, err := s.repo.Delete(v.ID)
	if err != nil {
		return nil, err
	}
	if !deleted {
		// проиграли гонку: код уже потреблён или заменён
		return nil, ErrCodeNotFound
	}
	return v, nil
}

// Peek — диагностическое чтение без потребления; TTL не продлевает.
func (s *verificationService) Peek(subject string, kind models.VerificationKind) (*models.PendingVerification, error) {
	return s.repo.Get(subject, kind)
}

func (s *verificationService) SweepExpired() (int, error) {
	return s.repo.DeleteExpired(s.now())
}
