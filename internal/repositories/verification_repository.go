package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"malinoise/internal/database"
	"malinoise/internal/models"
)

// VerificationRepository хранит pending-записи с ключом (subject, kind).
// Инвариант "не более одной записи на ключ" держит Replace; атомарность
// одноразового потребления — Delete по id (ровно один вызов удалит строку).
type VerificationRepository interface {
	Get(subject string, kind models.VerificationKind) (*models.PendingVerification, error)
	// Replace удаляет прежнюю запись для (subject, kind) и вставляет новую —
	// семантика "resend": заменить, а не добавить.
	Replace(rec *models.PendingVerification) error
	// Delete возвращает true, если строка ещё существовала. Конкурирующие
	// вызовы для одного id дадут true ровно одному.
	Delete(id int64) (bool, error)
	IncrementAttempts(id int64) (int, error)
	ExpireNow(id int64, now time.Time) error
	DeleteExpired(now time.Time) (int, error)
	CountActive(now time.Time) (int, error)
}

type verificationRepository struct {
	DB *database.DB
}

func NewVerificationRepository(db *database.DB) VerificationRepository {
	return &verificationRepository{DB: db}
}

const verificationColumns = `id, subject, kind, code, name, password_hash, issued_at, expires_at, attempts, send_count, window_started_at`

func (r *verificationRepository) Get(subject string, kind models.VerificationKind) (*models.PendingVerification, error) {
	q := r.DB.Rebind(`
		SELECT ` + verificationColumns + `
		FROM pending_verifications
		WHERE subject = ? AND kind = ?
	`)
	row := r.DB.QueryRow(q, subject, string(kind))
	v := &models.PendingVerification{}
	var kindStr string
	err := row.Scan(
		&v.ID, &v.Subject, &kindStr, &v.Code, &v.Name, &v.PasswordHash,
		&v.IssuedAt, &v.ExpiresAt, &v.Attempts, &v.SendCount, &v.WindowStartedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("verification get: %w", err)
	}
	v.Kind = models.VerificationKind(kindStr)
	return v, nil
}

func (r *verificationRepository) Replace(rec *models.PendingVerification) error {
	tx, err := r.DB.Begin()
	if err != nil {
		return fmt.Errorf("verification replace begin: %w", err)
	}
	defer tx.Rollback()

	del := r.DB.Rebind(`DELETE FROM pending_verifications WHERE subject = ? AND kind = ?`)
	if _, err := tx.Exec(del, rec.Subject, string(rec.Kind)); err != nil {
		return fmt.Errorf("verification replace delete: %w", err)
	}

	const ins = `
		INSERT INTO pending_verifications
			(subject, kind, code, name, password_hash, issued_at, expires_at, attempts, send_count, window_started_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	if r.DB.Driver() == database.DriverPostgres {
		err = tx.QueryRow(r.DB.Rebind(ins+" RETURNING id"),
			rec.Subject, string(rec.Kind), rec.Code, rec.Name, rec.PasswordHash,
			rec.IssuedAt, rec.ExpiresAt, rec.Attempts, rec.SendCount, rec.WindowStartedAt,
		).Scan(&rec.ID)
		if err != nil {
			return fmt.Errorf("verification replace insert: %w", err)
		}
	} else {
		res, err := tx.Exec(ins,
			rec.Subject, string(rec.Kind), rec.Code, rec.Name, rec.PasswordHash,
			rec.IssuedAt, rec.ExpiresAt, rec.Attempts, rec.SendCount, rec.WindowStartedAt,
		)
		if err != nil {
			return fmt.Errorf("verification replace insert: %w", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("verification replace id: %w", err)
		}
		rec.ID = id
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("verification replace commit: %w", err)
	}
	return nil
}

func (r *verificationRepository) Delete(id int64) (bool, error) {
	q := r.DB.Rebind(`DELETE FROM pending_verifications WHERE id = ?`)
	res, err := r.DB.Exec(q, id)
	if err != nil {
		return false, fmt.Errorf("verification delete: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("verification delete rows: %w", err)
	}
	return n == 1, nil
}

func (r *verificationRepository) IncrementAttempts(id int64) (int, error) {
	if r.DB.Driver() == database.DriverPostgres {
		var attempts int
		q := r.DB.Rebind(`UPDATE pending_verifications SET attempts = attempts + 1 WHERE id = ? RETURNING attempts`)
		if err := r.DB.QueryRow(q, id).Scan(&attempts); err != nil {
			return 0, fmt.Errorf("verification increment attempts: %w", err)
		}
		return attempts, nil
	}
	if _, err := r.DB.Exec(`UPDATE pending_verifications SET attempts = attempts + 1 WHERE id = ?`, id); err != nil {
		return 0, fmt.Errorf("verification increment attempts: %w", err)
	}
	var attempts int
	if err := r.DB.QueryRow(`SELECT attempts FROM pending_verifications WHERE id = ?`, id).Scan(&attempts); err != nil {
		if err == sql.ErrNoRows {
			return 0, nil
		}
		return 0, fmt.Errorf("verification read attempts: %w", err)
	}
	return attempts, nil
}

func (r *verificationRepository) ExpireNow(id int64, now time.Time) error {
	q := r.DB.Rebind(`UPDATE pending_verifications SET expires_at = ? WHERE id = ?`)
	if _, err := r.DB.Exec(q, now, id); err != nil {
		return fmt.Errorf("verification expire now: %w", err)
	}
	return nil
}

func (r *verificationRepository) DeleteExpired(now time.Time) (int, error) {
	q := r.DB.Rebind(`DELETE FROM pending_verifications WHERE expires_at < ?`)
	res, err := r.DB.Exec(q, now)
	if err != nil {
		return 0, fmt.Errorf("verification delete expired: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("verification delete expired rows: %w", err)
	}
	return int(n), nil
}

func (r *verificationRepository) CountActive(now time.Time) (int, error) {
	q := r.DB.Rebind(`SELECT COUNT(*) FROM pending_verifications WHERE expires_at >= ?`)
	var c int
	if err := r.DB.QueryRow(q, now).Scan(&c); err != nil {
		return 0, fmt.Errorf("verification count active: %w", err)
	}
	return c, nil
}
