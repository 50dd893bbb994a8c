package readers

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	"github.com/doug-martin/goqu/v9"
	"github.com/jmoiron/sqlx"

	"libadmin/internal/library/listing"
	"libadmin/internal/platform/httpx"
)

type ReaderStore interface {
	List(ctx context.Context, q ReaderQuery, p httpx.Page) ([]Reader, int64, error)
	Search(ctx context.Context, idPrefix, keyword string) ([]Reader, error)
	Get(ctx context.Context, idCard string) (*Reader, error)
	Insert(ctx context.Context, in CreateReaderRequest) (revived bool, err error)
	Update(ctx context.Context, idCard string, in UpdateReaderRequest) error
	Deactivate(ctx context.Context, idCard string) error
	CountUnreturned(ctx context.Context, idCard string) (int64, error)
}

var readerColumns = []any{"id_card", "name", "phone", "address", "gender", "created_at", "updated_at"}

type Store struct {
	db *sql.DB
	x  *sqlx.DB
}

func NewStore(db *sql.DB) *Store { return &Store{db: db, x: sqlx.NewDb(db, "mysql")} }

func (s *Store) List(ctx context.Context, q ReaderQuery, p httpx.Page) ([]Reader, int64, error) {
	ds := listing.Dialect.From("readers").Select(readerColumns...).Where(goqu.C("deactivated_at").IsNull())
	if q.Name != "" {
		ds = ds.Where(listing.Contains("name", q.Name))
	}
	if q.IDCard != "" {
		ds = ds.Where(goqu.C("id_card").Eq(q.IDCard))
	}
	if q.Phone != "" {
		// 数値以外は一致しようがないので空結果にする
		phone, err := strconv.ParseInt(q.Phone, 10, 64)
		if err != nil {
			return []Reader{}, 0, nil
		}
		ds = ds.Where(goqu.C("phone").Eq(phone))
	}
	return listing.Fetch[Reader](ctx, s.x, ds, p, goqu.C("created_at").Desc(), goqu.C("id_card").Asc())
}

func (s *Store) Search(ctx context.Context, idPrefix, keyword string) ([]Reader, error) {
	ds := listing.Dialect.From("readers").Select(readerColumns...).
		Where(
			goqu.C("deactivated_at").IsNull(),
			goqu.Or(
				listing.HasPrefix("id_card", idPrefix),
				listing.Contains("name", keyword),
			),
		)
	return listing.Top[Reader](ctx, s.x, ds, listing.SearchLimit, goqu.C("name").Asc())
}

func (s *Store) Get(ctx context.Context, idCard string) (*Reader, error) {
	const q = `
	SELECT id_card, name, phone, address, gender, created_at, updated_at
	FROM readers WHERE id_card = ? AND deactivated_at IS NULL`
	var r Reader
	if err := s.x.GetContext(ctx, &r, q, idCard); err != nil {
		return nil, err
	}
	return &r, nil
}

func (s *Store) Insert(ctx context.Context, in CreateReaderRequest) (bool, error) {
	const revive = `
	UPDATE readers
	SET name = ?, phone = ?, address = ?, gender = ?, deactivated_at = NULL, updated_at = UTC_TIMESTAMP(6)
	WHERE id_card = ? AND deactivated_at IS NOT NULL`
	res, err := s.db.ExecContext(ctx, revive, in.Name, in.Phone, in.Address, *in.Gender, in.IDCard)
	if err != nil {
		return false, err
	}
	if aff, _ := res.RowsAffected(); aff == 1 {
		return true, nil
	}

	const q = `
	INSERT INTO readers (id_card, name, phone, address, gender, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?, UTC_TIMESTAMP(6), UTC_TIMESTAMP(6))`
	_, err = s.db.ExecContext(ctx, q, in.IDCard, in.Name, in.Phone, in.Address, *in.Gender)
	return false, err
}

func (s *Store) Update(ctx context.Context, idCard string, in UpdateReaderRequest) error {
	sets := []string{}
	args := []any{}
	if in.Name != nil {
		sets = append(sets, "name = ?")
		args = append(args, *in.Name)
	}
	if in.Phone != nil {
		sets = append(sets, "phone = ?")
		args = append(args, *in.Phone)
	}
	if in.Address != nil {
		sets = append(sets, "address = ?")
		args = append(args, *in.Address)
	}
	if in.Gender != nil {
		sets = append(sets, "gender = ?")
		args = append(args, *in.Gender)
	}
	if len(sets) == 0 {
		_, err := s.Get(ctx, idCard)
		return err
	}
	sets = append(sets, "updated_at = UTC_TIMESTAMP(6)")
	args = append(args, idCard)
	q := fmt.Sprintf(`UPDATE readers SET %s WHERE id_card = ? AND deactivated_at IS NULL`, strings.Join(sets, ", "))

	res, err := s.db.ExecContext(ctx, q, args...)
	if err != nil {
		return err
	}
	if aff, _ := res.RowsAffected(); aff == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (s *Store) Deactivate(ctx context.Context, idCard string) error {
	const q = `UPDATE readers SET deactivated_at = UTC_TIMESTAMP(6) WHERE id_card = ? AND deactivated_at IS NULL`
	res, err := s.db.ExecContext(ctx, q, idCard)
	if err != nil {
		return err
	}
	if aff, _ := res.RowsAffected(); aff == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (s *Store) CountUnreturned(ctx context.Context, idCard string) (int64, error) {
	const q = `SELECT COUNT(*) FROM borrowing_records WHERE id_card = ? AND returned = 0`
	var n int64
	if err := s.db.QueryRowContext(ctx, q, idCard).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}
