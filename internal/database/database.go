package database

import (
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// DB — обёртка над *sql.DB: один набор запросов с `?`-плейсхолдерами работает
// и на SQLite (разработка), и на PostgreSQL (продакшн). Драйвер выбирается
// конфигом, схема создаётся при старте.
type DB struct {
	*sql.DB
	driver string
}

func Open(driver, dsn string) (*DB, error) {
	var sqlDB *sql.DB
	var err error
	switch driver {
	case DriverPostgres:
		sqlDB, err = sql.Open("postgres", dsn)
	case DriverSQLite:
		sqlDB, err = sql.Open("sqlite3", dsn)
	default:
		return nil, fmt.Errorf("database: unknown driver %q", driver)
	}
	if err != nil {
		return nil, fmt.Errorf("database open (%s): %w", driver, err)
	}
	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("database ping (%s): %w", driver, err)
	}
	if driver == DriverSQLite {
		// одна запись за раз, иначе ловим SQLITE_BUSY на конкурентных consume
		sqlDB.SetMaxOpenConns(1)
	}
	return &DB{DB: sqlDB, driver: driver}, nil
}

func (d *DB) Driver() string { return d.driver }

// Rebind переводит `?` в `$1, $2, ...` для PostgreSQL; SQLite получает запрос
// как есть.
func (d *DB) Rebind(query string) string {
	if d.driver != DriverPostgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteByte(query[i])
	}
	return b.String()
}

const schemaPostgres = `
CREATE TABLE IF NOT EXISTS users (
	id            SERIAL PRIMARY KEY,
	email         TEXT NOT NULL UNIQUE,
	name          TEXT NOT NULL,
	password_hash TEXT NOT NULL,
	role          TEXT NOT NULL DEFAULT 'user',
	is_verified   BOOLEAN NOT NULL DEFAULT FALSE,
	verified_at   TIMESTAMPTZ,
	created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	last_login    TIMESTAMPTZ
);

CREATE TABLE IF NOT EXISTS pending_verifications (
	id                INT GENERATED BY DEFAULT AS IDENTITY PRIMARY KEY,
	subject           TEXT NOT NULL,
	kind              TEXT NOT NULL,
	code              TEXT NOT NULL,
	name              TEXT NOT NULL DEFAULT '',
	password_hash     TEXT NOT NULL DEFAULT '',
	issued_at         TIMESTAMPTZ NOT NULL,
	expires_at        TIMESTAMPTZ NOT NULL,
	attempts          INT NOT NULL DEFAULT 0,
	send_count        INT NOT NULL DEFAULT 1,
	window_started_at TIMESTAMPTZ NOT NULL,
	UNIQUE (subject, kind)
);
`

const schemaSQLite = `
CREATE TABLE IF NOT EXISTS users (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	email         TEXT NOT NULL UNIQUE,
	name          TEXT NOT NULL,
	password_hash TEXT NOT NULL,
	role          TEXT NOT NULL DEFAULT 'user',
	is_verified   BOOLEAN NOT NULL DEFAULT 0,
	verified_at   DATETIME,
	created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	last_login    DATETIME
);

CREATE TABLE IF NOT EXISTS pending_verifications (
	id                INTEGER PRIMARY KEY AUTOINCREMENT,
	subject           TEXT NOT NULL,
	kind              TEXT NOT NULL,
	code              TEXT NOT NULL,
	name              TEXT NOT NULL DEFAULT '',
	password_hash     TEXT NOT NULL DEFAULT '',
	issued_at         DATETIME NOT NULL,
	expires_at        DATETIME NOT NULL,
	attempts          INTEGER NOT NULL DEFAULT 0,
	send_count        INTEGER NOT NULL DEFAULT 1,
	window_started_at DATETIME NOT NULL,
	UNIQUE (subject, kind)
);
`

// EnsureSchema создаёт таблицы, если их нет (как это делали исходные серверы
// при инициализации).
func (d *DB) EnsureSchema() error {
	ddl := schemaSQLite
	if d.driver == DriverPostgres {
		ddl = schemaPostgres
	}
	if _, err := d.Exec(ddl); err != nil {
		return fmt.Errorf("database schema: %w", err)
	}
	return nil
}
