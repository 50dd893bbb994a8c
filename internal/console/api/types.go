package api

import (
	"time"

	"github.com/shopspring/decimal"
)

type Book struct {
	ISBN        string     `json:"isbn"`
	Name        string     `json:"name"`
	Author      string     `json:"author"`
	Publisher   string     `json:"publisher"`
	PublishDate *time.Time `json:"publish_date,omitempty"`
	Count       int        `json:"count"`
	Cover       *string    `json:"cover,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

type Reader struct {
	IDCard    string    `json:"id_card"`
	Name      string    `json:"name"`
	Phone     *int64    `json:"phone,omitempty"`
	Address   *string   `json:"address,omitempty"`
	Gender    int       `json:"gender"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Payment struct {
	UUID      string          `json:"uuid"`
	Amount    decimal.Decimal `json:"amount"`
	CreatedAt time.Time       `json:"created_at"`
}

type Record struct {
	UUID        string          `json:"uuid"`
	Reader      Reader          `json:"reader"`
	Book        Book            `json:"book"`
	ReturnDate  time.Time       `json:"return_date"`
	Returned    int             `json:"returned"`
	ReturnedAt  *time.Time      `json:"returned_at,omitempty"`
	Amount      decimal.Decimal `json:"amount"`
	Paid        decimal.Decimal `json:"paid"`
	Punishments []Payment       `json:"punishments"`
	CreatedAt   time.Time       `json:"created_at"`
}

type Account struct {
	Username  string    `json:"username"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

type Page[T any] struct {
	Items []T   `json:"items"`
	Total int64 `json:"total"`
}

// 一覧取得の本文 {query, page, size}
type ListRequest struct {
	Query map[string]any `json:"query"`
	Page  int            `json:"page"`
	Size  int            `json:"size"`
}

// 追加・更新はフォームの値をそのまま送る
type Fields map[string]any
