package records

import (
	"context"
	"crypto/rand"
	"database/sql"
	"errors"
	"io"
	"log"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/shopspring/decimal"

	"libadmin/internal/borrowing"
	"libadmin/internal/platform/httpx"
	"libadmin/internal/platform/textnorm"
)

// ===== インターフェース群 =====

type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now().UTC() }

type IDGen interface {
	New() (string, error)
}

// 同一ミリ秒内でも単調増加させるため entropy を共有する
type ulidGen struct {
	mu      sync.Mutex
	entropy io.Reader
}

func newULIDGen() *ulidGen {
	return &ulidGen{entropy: ulid.Monotonic(rand.Reader, 0)}
}

func (g *ulidGen) New() (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	id, err := ulid.New(ulid.Timestamp(time.Now().UTC()), g.entropy)
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

// ===== Service本体 =====

type Service struct {
	store     RecordStore
	clock     Clock
	id        IDGen
	dailyRate decimal.Decimal
}

func NewService(db *sql.DB, dailyRate decimal.Decimal) *Service {
	return NewServiceWithStore(NewStore(db), realClock{}, newULIDGen(), dailyRate)
}

func NewServiceWithStore(store RecordStore, clock Clock, id IDGen, dailyRate decimal.Decimal) *Service {
	return &Service{store: store, clock: clock, id: id, dailyRate: dailyRate}
}

func (s *Service) List(ctx context.Context, q RecordQuery, p httpx.Page) ([]Record, int64, error) {
	f, err := s.toFilter(q)
	if err != nil {
		return nil, 0, err
	}
	return s.store.List(ctx, f, p)
}

func (s *Service) toFilter(q RecordQuery) (recordFilter, error) {
	f := recordFilter{
		UUID:   textnorm.Identifier(q.UUID),
		ISBN:   textnorm.Identifier(q.Book),
		IDCard: textnorm.Identifier(q.Reader),
	}
	var err error
	if f.ReturnFrom, f.ReturnTo, err = dateRange("return_date", q.ReturnDate); err != nil {
		return f, err
	}
	if f.CreatedFrom, f.CreatedTo, err = dateRange("created_at", q.CreatedAt); err != nil {
		return f, err
	}

	// status は保存しない。サーバ時刻で都度判定する
	if q.Status != "" {
		now := s.clock.Now()
		switch borrowing.Status(q.Status) {
		case borrowing.StatusReturned:
			f.ReturnedOnly = true
		case borrowing.StatusDelayed:
			f.OverdueBefore = &now
		case borrowing.StatusBorrowing:
			f.DueFrom = &now
		default:
			return f, httpx.ErrInvalid("status must be one of borrowing, delayed, returned")
		}
	}
	return f, nil
}

func dateRange(name string, r []time.Time) (*time.Time, *time.Time, error) {
	switch len(r) {
	case 0:
		return nil, nil, nil
	case 2:
		from, to := r[0].UTC(), r[1].UTC()
		if to.Before(from) {
			return nil, nil, httpx.ErrInvalid(name + " range end is before start")
		}
		return &from, &to, nil
	}
	return nil, nil, httpx.ErrInvalid(name + " must be [start, end]")
}

// 詳細。表示前に延滞金を確定させる
func (s *Service) Get(ctx context.Context, uuid string) (*Record, error) {
	uuid = textnorm.Identifier(uuid)
	if _, err := s.store.AccrueFees(ctx, uuid, s.clock.Now(), s.dailyRate); err != nil {
		return nil, err
	}
	rec, err := s.store.Get(ctx, uuid)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, httpx.ErrNotFound("record not found")
		}
		return nil, err
	}
	return rec, nil
}

// 借阅登记
func (s *Service) Borrow(ctx context.Context, in CreateRecordRequest) (*Record, error) {
	in.IDCard = textnorm.Identifier(in.IDCard)
	in.ISBN = textnorm.Identifier(in.ISBN)
	if in.IDCard == "" || in.ISBN == "" || in.ReturnDate.IsZero() {
		return nil, httpx.ErrInvalid("id_card, isbn, return_date are required")
	}
	now := s.clock.Now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	if in.ReturnDate.Before(today) {
		return nil, httpx.ErrInvalid("return_date must not be in the past")
	}

	id, err := s.id.New()
	if err != nil {
		return nil, err
	}
	if err := s.store.Borrow(ctx, id, in.IDCard, in.ISBN, in.ReturnDate.UTC(), now); err != nil {
		return nil, err
	}
	log.Printf("[INFO] book borrowed: record=%s reader=%s isbn=%s", id, in.IDCard, in.ISBN)
	return s.Get(ctx, id)
}

// 返却。延滞金が残っている間は返却できない
func (s *Service) Return(ctx context.Context, uuid string) error {
	uuid = textnorm.Identifier(uuid)
	now := s.clock.Now()
	// 先に確定させておく（ロールバックされても延滞金は残る）
	if _, err := s.store.AccrueFees(ctx, uuid, now, s.dailyRate); err != nil {
		return err
	}
	err := s.store.Return(ctx, uuid, func(l *Ledger) error {
		if l.Returned == 1 {
			return httpx.ErrConflict("book already returned")
		}
		s.accrue(l, now)
		if !borrowing.CanReturn(l.Amount, l.Paid, l.Returned) {
			return httpx.ErrFeeOutstanding("late fee outstanding: " + borrowing.Outstanding(l.Amount, l.Paid).StringFixed(2))
		}
		l.Returned = 1
		l.ReturnedAt = &now
		return nil
	})
	if err != nil {
		return err
	}
	log.Printf("[INFO] book returned: record=%s", uuid)
	return nil
}

// 延滞金の支払い（分割可）
func (s *Service) Pay(ctx context.Context, in PaymentRequest) (*Record, error) {
	uuid := textnorm.Identifier(in.UUID)
	if uuid == "" {
		return nil, httpx.ErrInvalid("uuid is required")
	}
	if !in.Amount.IsPositive() {
		return nil, httpx.ErrInvalid("amount must be > 0")
	}
	if !in.Amount.Equal(in.Amount.Round(2)) {
		return nil, httpx.ErrInvalid("amount must have at most 2 decimal places")
	}

	now := s.clock.Now()
	id, err := s.id.New()
	if err != nil {
		return nil, err
	}
	err = s.store.Pay(ctx, uuid, func(l *Ledger) (*Payment, error) {
		s.accrue(l, now)
		out := borrowing.Outstanding(l.Amount, l.Paid)
		if in.Amount.GreaterThan(out) {
			return nil, httpx.ErrInvalid("amount exceeds outstanding fee " + decimal.Max(out, decimal.Zero).StringFixed(2))
		}
		l.Paid = l.Paid.Add(in.Amount)
		return &Payment{UUID: id, Amount: in.Amount, CreatedAt: now}, nil
	})
	if err != nil {
		return nil, err
	}
	log.Printf("[INFO] fee paid: record=%s amount=%s", uuid, in.Amount.StringFixed(2))
	return s.Get(ctx, uuid)
}

func (s *Service) accrue(l *Ledger, now time.Time) {
	if l.Returned == 1 {
		return
	}
	l.Amount = decimal.Max(l.Amount, borrowing.LateFee(l.ReturnDate, now, s.dailyRate))
}

// 未返却・期限切れの全記録の延滞金を更新する
func (s *Service) AccrueAll(ctx context.Context) (int64, error) {
	return s.store.AccrueFees(ctx, "", s.clock.Now(), s.dailyRate)
}

// ctx が閉じるまで interval ごとに AccrueAll を回す
func (s *Service) RunAccrual(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		if n, err := s.AccrueAll(ctx); err != nil {
			if ctx.Err() != nil {
				return
			}
			log.Printf("[WARN] fee accrual failed: %v", err)
		} else if n > 0 {
			log.Printf("[INFO] fee accrual updated %d records", n)
		}
		select {
		case <-ctx.Done():
			return
		case <-t.C:
		}
	}
}
