package auth

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/mysql"
	mysql "github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
)

type Account struct {
	Username     string    `db:"username"`
	PasswordHash string    `db:"password_hash"`
	Role         string    `db:"role"`
	IsDisabled   bool      `db:"is_disabled"`
	CreatedAt    time.Time `db:"created_at"`
}

type AccountStore interface {
	// 見つからない場合は (nil, nil)
	GetByUsername(ctx context.Context, username string) (*Account, error)
	// 同名があれば ErrAlreadyExists
	Create(ctx context.Context, a *Account) error
}

var accounts = goqu.Dialect("mysql").From("auth_accounts")

type Store struct{ db *sqlx.DB }

func NewStore(db *sql.DB) AccountStore {
	return &Store{db: sqlx.NewDb(db, "mysql")}
}

func (s *Store) GetByUsername(ctx context.Context, username string) (*Account, error) {
	q, args, err := accounts.
		Select("username", "password_hash", "role", "is_disabled", "created_at").
		Where(goqu.C("username").Eq(username)).
		Limit(1).Prepared(true).ToSQL()
	if err != nil {
		return nil, err
	}
	var a Account
	if err := s.db.GetContext(ctx, &a, q, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &a, nil
}

func (s *Store) Create(ctx context.Context, a *Account) error {
	const q = `
INSERT INTO auth_accounts (username, password_hash, role, is_disabled, created_at)
VALUES (?, ?, ?, 0, UTC_TIMESTAMP(6))
`
	_, err := s.db.ExecContext(ctx, q, a.Username, a.PasswordHash, a.Role)
	var me *mysql.MySQLError
	if errors.As(err, &me) && me.Number == 1062 {
		return ErrAlreadyExists
	}
	return err
}
