package auth

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"libadmin/internal/platform/httpx"
)

const (
	RoleAdmin     = "admin"
	RoleLibrarian = "librarian"
)

var (
	ErrAlreadyExists = errors.New("already exists")
	ErrBadCredential = errors.New("authentication failed")
)

type Service struct {
	store  AccountStore
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewService(db *sql.DB, secret []byte, ttl time.Duration) *Service {
	return NewServiceWithStore(NewStore(db), secret, ttl)
}

func NewServiceWithStore(store AccountStore, secret []byte, ttl time.Duration) *Service {
	return &Service{store: store, secret: secret, ttl: ttl, now: time.Now}
}

type AuthService interface {
	Login(ctx context.Context, username, password string) (string, error)
	Register(ctx context.Context, username, password, role string) error
	Info(ctx context.Context, username string) (*AccountInfo, error)
}

func (s *Service) Secret() []byte {
	return s.secret
}

func (s *Service) Login(ctx context.Context, username, password string) (string, error) {
	acct, err := s.store.GetByUsername(ctx, username)
	if err != nil {
		return "", err
	}
	if acct == nil || acct.IsDisabled {
		return "", ErrBadCredential
	}

	if err := bcrypt.CompareHashAndPassword([]byte(acct.PasswordHash), []byte(password)); err != nil {
		return "", ErrBadCredential
	}

	now := s.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  acct.Username,
		"role": acct.Role,
		"jti":  uuid.NewString(),
		"iat":  now.Unix(),
		"exp":  now.Add(s.ttl).Unix(),
	})

	return token.SignedString(s.secret)
}

func (s *Service) Register(ctx context.Context, username, password, role string) error {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return httpx.ErrInvalid("username and password are required")
	}
	if role != RoleAdmin && role != RoleLibrarian {
		return httpx.ErrInvalid("role must be admin or librarian")
	}

	exists, err := s.store.GetByUsername(ctx, username)
	if err != nil {
		return err
	}
	if exists != nil {
		return ErrAlreadyExists
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	return s.store.Create(ctx, &Account{
		Username:     username,
		PasswordHash: string(hash),
		Role:         role,
	})
}

type AccountInfo struct {
	Username  string    `json:"username"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

func (s *Service) Info(ctx context.Context, username string) (*AccountInfo, error) {
	acct, err := s.store.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if acct == nil || acct.IsDisabled {
		return nil, httpx.ErrUnauthenticated("account not available")
	}
	return &AccountInfo{Username: acct.Username, Role: acct.Role, CreatedAt: acct.CreatedAt}, nil
}
