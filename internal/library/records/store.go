package records

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"libadmin/internal/library/listing"
	"libadmin/internal/platform/db"
	"libadmin/internal/platform/httpx"
)

type RecordStore interface {
	List(ctx context.Context, f recordFilter, p httpx.Page) ([]Record, int64, error)
	// punishments 込み。存在しなければ sql.ErrNoRows
	Get(ctx context.Context, uuid string) (*Record, error)
	Borrow(ctx context.Context, uuid, idCard, isbn string, returnDate, now time.Time) error
	// 行ロック中に fn を呼び、fn が書き換えた Ledger を保存して在庫を戻す
	Return(ctx context.Context, uuid string, fn func(l *Ledger) error) error
	// 行ロック中に fn を呼び、返された支払いを登録して Ledger を保存する
	Pay(ctx context.Context, uuid string, fn func(l *Ledger) (*Payment, error)) error
	// 未返却・期限切れの記録の延滞金を引き上げる。uuid が空なら全件
	AccrueFees(ctx context.Context, uuid string, now time.Time, dailyRate decimal.Decimal) (int64, error)
}

var recordColumns = []any{
	goqu.I("r.uuid").As("uuid"),
	goqu.I("r.return_date").As("return_date"),
	goqu.I("r.returned").As("returned"),
	goqu.I("r.returned_at").As("returned_at"),
	goqu.I("r.amount").As("amount"),
	goqu.I("r.paid").As("paid"),
	goqu.I("r.created_at").As("created_at"),
	goqu.I("rd.id_card").As("reader_id_card"),
	goqu.I("rd.name").As("reader_name"),
	goqu.I("rd.phone").As("reader_phone"),
	goqu.I("rd.address").As("reader_address"),
	goqu.I("rd.gender").As("reader_gender"),
	goqu.I("rd.created_at").As("reader_created_at"),
	goqu.I("rd.updated_at").As("reader_updated_at"),
	goqu.I("b.isbn").As("book_isbn"),
	goqu.I("b.name").As("book_name"),
	goqu.I("b.author").As("book_author"),
	goqu.I("b.publisher").As("book_publisher"),
	goqu.I("b.publish_date").As("book_publish_date"),
	goqu.I("b.count").As("book_count"),
	goqu.I("b.cover").As("book_cover"),
	goqu.I("b.created_at").As("book_created_at"),
	goqu.I("b.updated_at").As("book_updated_at"),
}

type Store struct {
	db *sql.DB
	x  *sqlx.DB
}

func NewStore(conn *sql.DB) *Store { return &Store{db: conn, x: sqlx.NewDb(conn, "mysql")} }

func baseQuery() *goqu.SelectDataset {
	return listing.Dialect.From(goqu.T("borrowing_records").As("r")).
		Join(goqu.T("readers").As("rd"), goqu.On(goqu.I("rd.id_card").Eq(goqu.I("r.id_card")))).
		Join(goqu.T("books").As("b"), goqu.On(goqu.I("b.isbn").Eq(goqu.I("r.isbn")))).
		Select(recordColumns...)
}

func applyFilter(ds *goqu.SelectDataset, f recordFilter) *goqu.SelectDataset {
	if f.UUID != "" {
		ds = ds.Where(goqu.I("r.uuid").Eq(f.UUID))
	}
	if f.ISBN != "" {
		ds = ds.Where(goqu.I("r.isbn").Eq(f.ISBN))
	}
	if f.IDCard != "" {
		ds = ds.Where(goqu.I("r.id_card").Eq(f.IDCard))
	}
	if f.ReturnFrom != nil {
		ds = ds.Where(goqu.I("r.return_date").Gte(*f.ReturnFrom))
	}
	if f.ReturnTo != nil {
		ds = ds.Where(goqu.I("r.return_date").Lte(*f.ReturnTo))
	}
	if f.CreatedFrom != nil {
		ds = ds.Where(goqu.I("r.created_at").Gte(*f.CreatedFrom))
	}
	if f.CreatedTo != nil {
		ds = ds.Where(goqu.I("r.created_at").Lte(*f.CreatedTo))
	}
	if f.ReturnedOnly {
		ds = ds.Where(goqu.I("r.returned").Eq(1))
	}
	if f.OverdueBefore != nil {
		ds = ds.Where(goqu.I("r.returned").Eq(0), goqu.I("r.return_date").Lt(*f.OverdueBefore))
	}
	if f.DueFrom != nil {
		ds = ds.Where(goqu.I("r.returned").Eq(0), goqu.I("r.return_date").Gte(*f.DueFrom))
	}
	return ds
}

func (s *Store) List(ctx context.Context, f recordFilter, p httpx.Page) ([]Record, int64, error) {
	rows, total, err := listing.Fetch[recordRow](ctx, s.x, applyFilter(baseQuery(), f), p,
		goqu.I("r.created_at").Desc(), goqu.I("r.uuid").Desc())
	if err != nil {
		return nil, 0, err
	}
	out := make([]Record, 0, len(rows))
	for i := 0; i < len(rows); i++ {
		out = append(out, rows[i].toDTO())
	}
	return out, total, nil
}

func (s *Store) Get(ctx context.Context, uuid string) (*Record, error) {
	query, args, err := baseQuery().Where(goqu.I("r.uuid").Eq(uuid)).Prepared(true).ToSQL()
	if err != nil {
		return nil, err
	}
	var row recordRow
	if err := s.x.GetContext(ctx, &row, query, args...); err != nil {
		return nil, err
	}
	rec := row.toDTO()

	const pq = `
	SELECT uuid, amount, created_at FROM punishments
	WHERE record_uuid = ? ORDER BY created_at ASC, uuid ASC`
	if err := s.x.SelectContext(ctx, &rec.Punishments, pq, uuid); err != nil {
		return nil, err
	}
	return &rec, nil
}

func (s *Store) Borrow(ctx context.Context, uuid, idCard, isbn string, returnDate, now time.Time) error {
	return db.RunInTx(ctx, s.db, nil, func(ctx context.Context, tx db.DBTX) error {
		var one int
		err := tx.QueryRowContext(ctx,
			`SELECT 1 FROM readers WHERE id_card = ? AND deactivated_at IS NULL`, idCard).Scan(&one)
		if errors.Is(err, sql.ErrNoRows) {
			return httpx.ErrNotFound("reader not found")
		}
		if err != nil {
			return err
		}

		// 在庫行をロック
		var count int
		err = tx.QueryRowContext(ctx,
			`SELECT count FROM books WHERE isbn = ? AND delisted_at IS NULL FOR UPDATE`, isbn).Scan(&count)
		if errors.Is(err, sql.ErrNoRows) {
			return httpx.ErrNotFound("book not found")
		}
		if err != nil {
			return err
		}
		if count <= 0 {
			return httpx.ErrConflict("book out of stock")
		}

		const ins = `
		INSERT INTO borrowing_records (uuid, id_card, isbn, return_date, returned, amount, paid, created_at)
		VALUES (?, ?, ?, ?, 0, 0, 0, ?)`
		if _, err := tx.ExecContext(ctx, ins, uuid, idCard, isbn, returnDate, now); err != nil {
			return err
		}
		return updateStock(ctx, tx, isbn, -1)
	})
}

func (s *Store) Return(ctx context.Context, uuid string, fn func(l *Ledger) error) error {
	return db.RunInTx(ctx, s.db, nil, func(ctx context.Context, tx db.DBTX) error {
		l, err := lockLedger(ctx, tx, uuid)
		if err != nil {
			return err
		}
		if err := fn(l); err != nil {
			return err
		}
		if err := saveLedger(ctx, tx, l); err != nil {
			return err
		}
		return updateStock(ctx, tx, l.ISBN, +1)
	})
}

func (s *Store) Pay(ctx context.Context, uuid string, fn func(l *Ledger) (*Payment, error)) error {
	return db.RunInTx(ctx, s.db, nil, func(ctx context.Context, tx db.DBTX) error {
		l, err := lockLedger(ctx, tx, uuid)
		if err != nil {
			return err
		}
		p, err := fn(l)
		if err != nil {
			return err
		}
		const ins = `INSERT INTO punishments (uuid, record_uuid, amount, created_at) VALUES (?, ?, ?, ?)`
		if _, err := tx.ExecContext(ctx, ins, p.UUID, uuid, p.Amount, p.CreatedAt); err != nil {
			return err
		}
		return saveLedger(ctx, tx, l)
	})
}

func (s *Store) AccrueFees(ctx context.Context, uuid string, now time.Time, dailyRate decimal.Decimal) (int64, error) {
	// 開始した日数で数える（1秒でも過ぎたら1日分）
	q := `
	UPDATE borrowing_records
	SET amount = GREATEST(amount, CEIL(TIMESTAMPDIFF(SECOND, return_date, ?) / 86400) * ?)
	WHERE returned = 0 AND return_date < ?`
	args := []any{now, dailyRate, now}
	if uuid != "" {
		q += " AND uuid = ?"
		args = append(args, uuid)
	}
	res, err := s.db.ExecContext(ctx, q, args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func lockLedger(ctx context.Context, tx db.DBTX, uuid string) (*Ledger, error) {
	const q = `
	SELECT uuid, isbn, return_date, returned, returned_at, amount, paid
	FROM borrowing_records WHERE uuid = ? FOR UPDATE`
	var l Ledger
	var returnedAt sql.NullTime
	err := tx.QueryRowContext(ctx, q, uuid).Scan(
		&l.UUID, &l.ISBN, &l.ReturnDate, &l.Returned, &returnedAt, &l.Amount, &l.Paid,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, httpx.ErrNotFound("record not found")
	}
	if err != nil {
		return nil, err
	}
	if returnedAt.Valid {
		t := returnedAt.Time
		l.ReturnedAt = &t
	}
	return &l, nil
}

func saveLedger(ctx context.Context, tx db.DBTX, l *Ledger) error {
	const q = `UPDATE borrowing_records SET amount = ?, paid = ?, returned = ?, returned_at = ? WHERE uuid = ?`
	_, err := tx.ExecContext(ctx, q, l.Amount, l.Paid, l.Returned, l.ReturnedAt, l.UUID)
	return err
}

func updateStock(ctx context.Context, tx db.DBTX, isbn string, delta int) error {
	const q = `UPDATE books SET count = count + ?, updated_at = UTC_TIMESTAMP(6) WHERE isbn = ?`
	res, err := tx.ExecContext(ctx, q, delta, isbn)
	if err != nil {
		return err
	}
	if aff, _ := res.RowsAffected(); aff != 1 {
		return httpx.ErrConflict("stock row not updated")
	}
	return nil
}
