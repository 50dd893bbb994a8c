package records

import (
	"time"

	"github.com/shopspring/decimal"

	"libadmin/internal/library/books"
	"libadmin/internal/library/readers"
)

// 一覧・詳細の JOIN 結果（スキャン用）
type recordRow struct {
	UUID       string          `db:"uuid"`
	ReturnDate time.Time       `db:"return_date"`
	Returned   int             `db:"returned"`
	ReturnedAt *time.Time      `db:"returned_at"`
	Amount     decimal.Decimal `db:"amount"`
	Paid       decimal.Decimal `db:"paid"`
	CreatedAt  time.Time       `db:"created_at"`

	ReaderIDCard    string    `db:"reader_id_card"`
	ReaderName      string    `db:"reader_name"`
	ReaderPhone     *int64    `db:"reader_phone"`
	ReaderAddress   *string   `db:"reader_address"`
	ReaderGender    int       `db:"reader_gender"`
	ReaderCreatedAt time.Time `db:"reader_created_at"`
	ReaderUpdatedAt time.Time `db:"reader_updated_at"`

	BookISBN        string     `db:"book_isbn"`
	BookName        string     `db:"book_name"`
	BookAuthor      string     `db:"book_author"`
	BookPublisher   string     `db:"book_publisher"`
	BookPublishDate *time.Time `db:"book_publish_date"`
	BookCount       int        `db:"book_count"`
	BookCover       *string    `db:"book_cover"`
	BookCreatedAt   time.Time  `db:"book_created_at"`
	BookUpdatedAt   time.Time  `db:"book_updated_at"`
}

func (r recordRow) toDTO() Record {
	return Record{
		UUID: r.UUID,
		Reader: readers.Reader{
			IDCard:    r.ReaderIDCard,
			Name:      r.ReaderName,
			Phone:     r.ReaderPhone,
			Address:   r.ReaderAddress,
			Gender:    r.ReaderGender,
			CreatedAt: r.ReaderCreatedAt.UTC(),
			UpdatedAt: r.ReaderUpdatedAt.UTC(),
		},
		Book: books.Book{
			ISBN:        r.BookISBN,
			Name:        r.BookName,
			Author:      r.BookAuthor,
			Publisher:   r.BookPublisher,
			PublishDate: r.BookPublishDate,
			Count:       r.BookCount,
			Cover:       r.BookCover,
			CreatedAt:   r.BookCreatedAt.UTC(),
			UpdatedAt:   r.BookUpdatedAt.UTC(),
		},
		ReturnDate:  r.ReturnDate.UTC(),
		Returned:    r.Returned,
		ReturnedAt:  r.ReturnedAt,
		Amount:      r.Amount,
		Paid:        r.Paid,
		Punishments: []Payment{},
		CreatedAt:   r.CreatedAt.UTC(),
	}
}

// Ledger: 返却・支払い時に行ロックした状態で扱う延滞金まわりの値
type Ledger struct {
	UUID       string
	ISBN       string
	ReturnDate time.Time
	Returned   int
	ReturnedAt *time.Time
	Amount     decimal.Decimal
	Paid       decimal.Decimal
}

// 一覧検索条件（正規化済み）
type recordFilter struct {
	UUID          string
	ISBN          string
	IDCard        string
	ReturnFrom    *time.Time
	ReturnTo      *time.Time
	CreatedFrom   *time.Time
	CreatedTo     *time.Time
	ReturnedOnly  bool
	OverdueBefore *time.Time // returned = 0 AND return_date < t
	DueFrom       *time.Time // returned = 0 AND return_date >= t
}
