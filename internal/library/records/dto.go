package records

import (
	"time"

	"github.com/shopspring/decimal"

	"libadmin/internal/library/books"
	"libadmin/internal/library/readers"
)

// ===== Requests =====

// 借阅登记
type CreateRecordRequest struct {
	IDCard     string    `json:"id_card" binding:"required"`
	ISBN       string    `json:"isbn" binding:"required"`
	ReturnDate time.Time `json:"return_date" binding:"required"`
}

// 延滞金の支払い（分割可）
type PaymentRequest struct {
	Amount decimal.Decimal `json:"amount"`
	UUID   string          `json:"uuid" binding:"required"`
}

// POST /record/all の query 部。日付範囲は [start, end] の2要素
type RecordQuery struct {
	UUID       string      `json:"uuid"`
	Book       string      `json:"book"`
	Reader     string      `json:"reader"`
	ReturnDate []time.Time `json:"return_date"`
	CreatedAt  []time.Time `json:"created_at"`
	Status     string      `json:"status"`
}

// ===== Responses =====

type Payment struct {
	UUID      string          `json:"uuid" db:"uuid"`
	Amount    decimal.Decimal `json:"amount" db:"amount"`
	CreatedAt time.Time       `json:"created_at" db:"created_at"`
}

type Record struct {
	UUID        string          `json:"uuid"`
	Reader      readers.Reader  `json:"reader"`
	Book        books.Book      `json:"book"`
	ReturnDate  time.Time       `json:"return_date"`
	Returned    int             `json:"returned"`
	ReturnedAt  *time.Time      `json:"returned_at,omitempty"`
	Amount      decimal.Decimal `json:"amount"`
	Paid        decimal.Decimal `json:"paid"`
	Punishments []Payment       `json:"punishments"`
	CreatedAt   time.Time       `json:"created_at"`
}
