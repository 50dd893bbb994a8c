package books

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/doug-martin/goqu/v9"
	"github.com/jmoiron/sqlx"

	"libadmin/internal/library/listing"
	"libadmin/internal/platform/httpx"
)

type BookStore interface {
	List(ctx context.Context, q BookQuery, p httpx.Page) ([]Book, int64, error)
	Search(ctx context.Context, isbnPrefix, keyword string) ([]Book, error)
	// 下架済みは sql.ErrNoRows
	Get(ctx context.Context, isbn string) (*Book, error)
	// 下架済みの同一 ISBN があれば上書きして再入庫する。revived=true
	Insert(ctx context.Context, in CreateBookRequest) (revived bool, err error)
	Update(ctx context.Context, isbn string, in UpdateBookRequest) error
	Delist(ctx context.Context, isbn string) error
	CountUnreturned(ctx context.Context, isbn string) (int64, error)
}

var bookColumns = []any{"isbn", "name", "author", "publisher", "publish_date", "count", "cover", "created_at", "updated_at"}

type Store struct {
	db *sql.DB
	x  *sqlx.DB
}

func NewStore(db *sql.DB) *Store { return &Store{db: db, x: sqlx.NewDb(db, "mysql")} }

func (s *Store) List(ctx context.Context, q BookQuery, p httpx.Page) ([]Book, int64, error) {
	ds := listing.Dialect.From("books").Select(bookColumns...).Where(goqu.C("delisted_at").IsNull())
	if q.Name != "" {
		ds = ds.Where(listing.Contains("name", q.Name))
	}
	if q.ISBN != "" {
		ds = ds.Where(goqu.C("isbn").Eq(q.ISBN))
	}
	if q.Author != "" {
		ds = ds.Where(listing.Contains("author", q.Author))
	}
	if q.Publisher != "" {
		ds = ds.Where(listing.Contains("publisher", q.Publisher))
	}
	return listing.Fetch[Book](ctx, s.x, ds, p, goqu.C("created_at").Desc(), goqu.C("isbn").Asc())
}

func (s *Store) Search(ctx context.Context, isbnPrefix, keyword string) ([]Book, error) {
	ds := listing.Dialect.From("books").Select(bookColumns...).
		Where(
			goqu.C("delisted_at").IsNull(),
			goqu.Or(
				listing.HasPrefix("isbn", isbnPrefix),
				listing.Contains("name", keyword),
				listing.Contains("author", keyword),
			),
		)
	return listing.Top[Book](ctx, s.x, ds, listing.SearchLimit, goqu.C("name").Asc())
}

func (s *Store) Get(ctx context.Context, isbn string) (*Book, error) {
	const q = `
	SELECT isbn, name, author, publisher, publish_date, count, cover, created_at, updated_at
	FROM books WHERE isbn = ? AND delisted_at IS NULL`
	var b Book
	if err := s.x.GetContext(ctx, &b, q, isbn); err != nil {
		return nil, err
	}
	return &b, nil
}

func (s *Store) Insert(ctx context.Context, in CreateBookRequest) (bool, error) {
	// 下架済みの行は再入庫として上書き、それ以外の重複は 1062 で弾く
	const revive = `
	UPDATE books
	SET name = ?, author = ?, publisher = ?, publish_date = ?, count = ?, cover = ?,
	    delisted_at = NULL, updated_at = UTC_TIMESTAMP(6)
	WHERE isbn = ? AND delisted_at IS NOT NULL`
	res, err := s.db.ExecContext(ctx, revive, in.Name, in.Author, in.Publisher, in.PublishDate, *in.Count, in.Cover, in.ISBN)
	if err != nil {
		return false, err
	}
	if aff, _ := res.RowsAffected(); aff == 1 {
		return true, nil
	}

	const q = `
	INSERT INTO books (isbn, name, author, publisher, publish_date, count, cover, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, UTC_TIMESTAMP(6), UTC_TIMESTAMP(6))`
	_, err = s.db.ExecContext(ctx, q, in.ISBN, in.Name, in.Author, in.Publisher, in.PublishDate, *in.Count, in.Cover)
	return false, err
}

func (s *Store) Update(ctx context.Context, isbn string, in UpdateBookRequest) error {
	// 動的アップデート
	sets := []string{}
	args := []any{}
	if in.Name != nil {
		sets = append(sets, "name = ?")
		args = append(args, *in.Name)
	}
	if in.Author != nil {
		sets = append(sets, "author = ?")
		args = append(args, *in.Author)
	}
	if in.Publisher != nil {
		sets = append(sets, "publisher = ?")
		args = append(args, *in.Publisher)
	}
	if in.PublishDate != nil {
		sets = append(sets, "publish_date = ?")
		args = append(args, *in.PublishDate)
	}
	if in.Count != nil {
		sets = append(sets, "count = ?")
		args = append(args, *in.Count)
	}
	if in.Cover != nil {
		sets = append(sets, "cover = ?")
		args = append(args, *in.Cover)
	}
	if len(sets) == 0 {
		// 変更なしでも存在確認だけはする
		_, err := s.Get(ctx, isbn)
		return err
	}
	sets = append(sets, "updated_at = UTC_TIMESTAMP(6)")
	args = append(args, isbn)
	q := fmt.Sprintf(`UPDATE books SET %s WHERE isbn = ? AND delisted_at IS NULL`, strings.Join(sets, ", "))

	res, err := s.db.ExecContext(ctx, q, args...)
	if err != nil {
		return err
	}
	if aff, _ := res.RowsAffected(); aff == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (s *Store) Delist(ctx context.Context, isbn string) error {
	const q = `UPDATE books SET delisted_at = UTC_TIMESTAMP(6) WHERE isbn = ? AND delisted_at IS NULL`
	res, err := s.db.ExecContext(ctx, q, isbn)
	if err != nil {
		return err
	}
	if aff, _ := res.RowsAffected(); aff == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (s *Store) CountUnreturned(ctx context.Context, isbn string) (int64, error) {
	const q = `SELECT COUNT(*) FROM borrowing_records WHERE isbn = ? AND returned = 0`
	var n int64
	if err := s.db.QueryRowContext(ctx, q, isbn).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}
