package models

import "time"

type VerificationKind string

const (
	KindRegistration     VerificationKind = "registration"
	KindPasswordRecovery VerificationKind = "password_recovery"
)

func (k VerificationKind) Valid() bool {
	return k == KindRegistration || k == KindPasswordRecovery
}

// PendingVerification — одна запись на (subject, kind): каждая выдача кода
// заменяет предыдущую. Для регистрации вместе с кодом хранятся поля будущего
// аккаунта (имя и хэш пароля); для восстановления пароля они пустые, аккаунт
// уже существует.
type PendingVerification struct {
	ID           int64            `json:"id"`
	Subject      string           `json:"subject"`
	Kind         VerificationKind `json:"kind"`
	Code         string           `json:"-"`
	Name         string           `json:"name,omitempty"`
	PasswordHash string           `json:"-"`
	IssuedAt     time.Time        `json:"issued_at"`
	ExpiresAt    time.Time        `json:"expires_at"`
	Attempts     int              `json:"attempts"`

	// окно троттлинга повторных отправок
	SendCount       int       `json:"-"`
	WindowStartedAt time.Time `json:"-"`
}

func (v *PendingVerification) Expired(now time.Time) bool {
	return now.After(v.ExpiresAt)
}
