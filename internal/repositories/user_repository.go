package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"malinoise/internal/database"
	"malinoise/internal/models"
)

type UserRepository interface {
	Create(user *models.User) error
	GetByID(id int) (*models.User, error)
	GetByEmail(email string) (*models.User, error)
	UpdatePassword(userID int, passwordHash string) error
	UpdateLastLogin(userID int, at time.Time) error
	List(limit, offset int) ([]*models.User, error)
	GetCount() (int, error)
	GetVerifiedCount() (int, error)
}

type userRepository struct {
	DB *database.DB
}

func NewUserRepository(db *database.DB) UserRepository {
	return &userRepository{DB: db}
}

const userColumns = `id, email, name, password_hash, role, is_verified, verified_at, created_at, last_login`

func (r *userRepository) Create(user *models.User) error {
	const q = `
		INSERT INTO users (email, name, password_hash, role, is_verified, verified_at, created_at, last_login)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	if r.DB.Driver() == database.DriverPostgres {
		return r.DB.QueryRow(r.DB.Rebind(q+" RETURNING id"),
			user.Email, user.Name, user.PasswordHash, user.Role,
			user.IsVerified, user.VerifiedAt, user.CreatedAt, user.LastLogin,
		).Scan(&user.ID)
	}
	res, err := r.DB.Exec(q,
		user.Email, user.Name, user.PasswordHash, user.Role,
		user.IsVerified, user.VerifiedAt, user.CreatedAt, user.LastLogin,
	)
	if err != nil {
		return fmt.Errorf("user create: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("user create id: %w", err)
	}
	user.ID = int(id)
	return nil
}

func scanUser(row *sql.Row) (*models.User, error) {
	u := &models.User{}
	var verifiedAt, lastLogin sql.NullTime
	err := row.Scan(
		&u.ID, &u.Email, &u.Name, &u.PasswordHash, &u.Role,
		&u.IsVerified, &verifiedAt, &u.CreatedAt, &lastLogin,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("user scan: %w", err)
	}
	if verifiedAt.Valid {
		t := verifiedAt.Time
		u.VerifiedAt = &t
	}
	if lastLogin.Valid {
		t := lastLogin.Time
		u.LastLogin = &t
	}
	return u, nil
}

func (r *userRepository) GetByID(id int) (*models.User, error) {
	q := r.DB.Rebind(`SELECT ` + userColumns + ` FROM users WHERE id = ?`)
	return scanUser(r.DB.QueryRow(q, id))
}

func (r *userRepository) GetByEmail(email string) (*models.User, error) {
	q := r.DB.Rebind(`SELECT ` + userColumns + ` FROM users WHERE email = ?`)
	return scanUser(r.DB.QueryRow(q, email))
}

func (r *userRepository) UpdatePassword(userID int, passwordHash string) error {
	q := r.DB.Rebind(`UPDATE users SET password_hash = ? WHERE id = ?`)
	if _, err := r.DB.Exec(q, passwordHash, userID); err != nil {
		return fmt.Errorf("user update password: %w", err)
	}
	return nil
}

func (r *userRepository) UpdateLastLogin(userID int, at time.Time) error {
	q := r.DB.Rebind(`UPDATE users SET last_login = ? WHERE id = ?`)
	if _, err := r.DB.Exec(q, at, userID); err != nil {
		return fmt.Errorf("user update last_login: %w", err)
	}
	return nil
}

func (r *userRepository) List(limit, offset int) ([]*models.User, error) {
	q := r.DB.Rebind(`
		SELECT ` + userColumns + `
		FROM users
		ORDER BY created_at DESC
		LIMIT ? OFFSET ?
	`)
	rows, err := r.DB.Query(q, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("user list: %w", err)
	}
	defer rows.Close()

	var res []*models.User
	for rows.Next() {
		u := &models.User{}
		var verifiedAt, lastLogin sql.NullTime
		if err := rows.Scan(
			&u.ID, &u.Email, &u.Name, &u.PasswordHash, &u.Role,
			&u.IsVerified, &verifiedAt, &u.CreatedAt, &lastLogin,
		); err != nil {
			return nil, fmt.Errorf("user list scan: %w", err)
		}
		if verifiedAt.Valid {
			t := verifiedAt.Time
			u.VerifiedAt = &t
		}
		if lastLogin.Valid {
			t := lastLogin.Time
			u.LastLogin = &t
		}
		res = append(res, u)
	}
	return res, rows.Err()
}

func (r *userRepository) GetCount() (int, error) {
	var c int
	err := r.DB.QueryRow(`SELECT COUNT(*) FROM users`).Scan(&c)
	return c, err
}

func (r *userRepository) GetVerifiedCount() (int, error) {
	var c int
	err := r.DB.QueryRow(r.DB.Rebind(`SELECT COUNT(*) FROM users WHERE is_verified = ?`), true).Scan(&c)
	return c, err
}
