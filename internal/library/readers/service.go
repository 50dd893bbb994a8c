package readers

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"strings"

	"libadmin/internal/platform/httpx"
	"libadmin/internal/platform/textnorm"
)

type Service struct {
	store ReaderStore
}

func NewService(db *sql.DB) *Service { return &Service{store: NewStore(db)} }

func NewServiceWithStore(store ReaderStore) *Service { return &Service{store: store} }

func (s *Service) List(ctx context.Context, q ReaderQuery, p httpx.Page) ([]Reader, int64, error) {
	q.Name = strings.TrimSpace(q.Name)
	q.IDCard = textnorm.Identifier(q.IDCard)
	q.Phone = textnorm.Identifier(q.Phone)
	return s.store.List(ctx, q, p)
}

func (s *Service) Search(ctx context.Context, keyword string) ([]Reader, error) {
	kw := textnorm.Keyword(keyword)
	if kw == "" {
		return []Reader{}, nil
	}
	return s.store.Search(ctx, textnorm.Identifier(keyword), kw)
}

func (s *Service) Get(ctx context.Context, idCard string) (*Reader, error) {
	r, err := s.store.Get(ctx, textnorm.Identifier(idCard))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, httpx.ErrNotFound("reader not found")
		}
		return nil, err
	}
	return r, nil
}

func (s *Service) Create(ctx context.Context, in CreateReaderRequest) (*Reader, error) {
	in.IDCard = textnorm.Identifier(in.IDCard)
	in.Name = strings.TrimSpace(in.Name)
	if in.IDCard == "" || in.Name == "" {
		return nil, httpx.ErrInvalid("id_card and name are required")
	}
	if in.Gender == nil {
		g := GenderMale
		in.Gender = &g
	}
	if err := validate(in.Phone, in.Gender); err != nil {
		return nil, err
	}

	revived, err := s.store.Insert(ctx, in)
	if err != nil {
		if api := httpx.FromMySQL(err, "id_card already exists", "invalid reference"); api != nil {
			return nil, api
		}
		return nil, err
	}
	if revived {
		log.Printf("[INFO] reader reactivated: %s", in.IDCard)
	}
	return s.Get(ctx, in.IDCard)
}

func (s *Service) Update(ctx context.Context, idCard string, in UpdateReaderRequest) (*Reader, error) {
	idCard = textnorm.Identifier(idCard)
	if in.Name != nil && strings.TrimSpace(*in.Name) == "" {
		return nil, httpx.ErrInvalid("name must not be empty")
	}
	if err := validate(in.Phone, in.Gender); err != nil {
		return nil, err
	}
	if err := s.store.Update(ctx, idCard, in); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, httpx.ErrNotFound("reader not found")
		}
		return nil, err
	}
	return s.Get(ctx, idCard)
}

// 未返却の本がある読者は削除できない
func (s *Service) Delete(ctx context.Context, idCard string) error {
	idCard = textnorm.Identifier(idCard)
	n, err := s.store.CountUnreturned(ctx, idCard)
	if err != nil {
		return err
	}
	if n > 0 {
		return httpx.ErrConflict("reader has unreturned books")
	}
	if err := s.store.Deactivate(ctx, idCard); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return httpx.ErrNotFound("reader not found")
		}
		return err
	}
	return nil
}

func validate(phone *int64, gender *int) error {
	if phone != nil && *phone < 0 {
		return httpx.ErrInvalid("phone must be numeric")
	}
	if gender != nil && *gender != GenderMale && *gender != GenderFemale {
		return httpx.ErrInvalid("gender must be 0 or 1")
	}
	return nil
}
