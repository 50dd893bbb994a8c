package books

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"net/url"
	"strings"

	"libadmin/internal/platform/httpx"
	"libadmin/internal/platform/textnorm"
)

type Service struct {
	store BookStore
}

func NewService(db *sql.DB) *Service { return &Service{store: NewStore(db)} }

func NewServiceWithStore(store BookStore) *Service { return &Service{store: store} }

func (s *Service) List(ctx context.Context, q BookQuery, p httpx.Page) ([]Book, int64, error) {
	q.Name = strings.TrimSpace(q.Name)
	q.Author = strings.TrimSpace(q.Author)
	q.Publisher = strings.TrimSpace(q.Publisher)
	q.ISBN = textnorm.Identifier(q.ISBN)
	return s.store.List(ctx, q, p)
}

func (s *Service) Search(ctx context.Context, keyword string) ([]Book, error) {
	kw := textnorm.Keyword(keyword)
	if kw == "" {
		return []Book{}, nil
	}
	return s.store.Search(ctx, textnorm.Identifier(keyword), kw)
}

func (s *Service) Get(ctx context.Context, isbn string) (*Book, error) {
	b, err := s.store.Get(ctx, textnorm.Identifier(isbn))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, httpx.ErrNotFound("book not found")
		}
		return nil, err
	}
	return b, nil
}

func (s *Service) Create(ctx context.Context, in CreateBookRequest) (*Book, error) {
	in.ISBN = textnorm.Identifier(in.ISBN)
	in.Name = strings.TrimSpace(in.Name)
	in.Author = strings.TrimSpace(in.Author)
	in.Publisher = strings.TrimSpace(in.Publisher)
	if in.ISBN == "" || in.Name == "" || in.Author == "" || in.Publisher == "" || in.Count == nil {
		return nil, httpx.ErrInvalid("isbn, name, author, publisher, count are required")
	}
	if err := validateCount(in.Count); err != nil {
		return nil, err
	}
	if err := validateCover(in.Cover); err != nil {
		return nil, err
	}

	revived, err := s.store.Insert(ctx, in)
	if err != nil {
		if api := httpx.FromMySQL(err, "isbn already exists", "invalid reference"); api != nil {
			return nil, api
		}
		return nil, err
	}
	if revived {
		log.Printf("[INFO] book relisted: %s", in.ISBN)
	}
	return s.Get(ctx, in.ISBN)
}

func (s *Service) Update(ctx context.Context, isbn string, in UpdateBookRequest) (*Book, error) {
	isbn = textnorm.Identifier(isbn)
	for _, f := range []*string{in.Name, in.Author, in.Publisher} {
		if f != nil && strings.TrimSpace(*f) == "" {
			return nil, httpx.ErrInvalid("name, author, publisher must not be empty")
		}
	}
	if err := validateCount(in.Count); err != nil {
		return nil, err
	}
	if err := validateCover(in.Cover); err != nil {
		return nil, err
	}

	if err := s.store.Update(ctx, isbn, in); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, httpx.ErrNotFound("book not found")
		}
		return nil, err
	}
	return s.Get(ctx, isbn)
}

// 貸出中の記録がある本は下架できない
func (s *Service) Delist(ctx context.Context, isbn string) error {
	isbn = textnorm.Identifier(isbn)
	n, err := s.store.CountUnreturned(ctx, isbn)
	if err != nil {
		return err
	}
	if n > 0 {
		return httpx.ErrConflict("book has unreturned borrowing records")
	}
	if err := s.store.Delist(ctx, isbn); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return httpx.ErrNotFound("book not found")
		}
		return err
	}
	return nil
}

func validateCount(count *int) error {
	if count != nil && *count < 0 {
		return httpx.ErrInvalid("count must be >= 0")
	}
	return nil
}

func validateCover(cover *string) error {
	if cover == nil || *cover == "" {
		return nil
	}
	u, err := url.ParseRequestURI(*cover)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return httpx.ErrInvalid("cover must be an http(s) URL")
	}
	return nil
}
