package books

import "time"

// ===== Requests =====

type CreateBookRequest struct {
	ISBN        string     `json:"isbn" binding:"required"`
	Name        string     `json:"name" binding:"required"`
	Author      string     `json:"author" binding:"required"`
	Publisher   string     `json:"publisher" binding:"required"`
	PublishDate *time.Time `json:"publish_date,omitempty"`
	Count       *int       `json:"count" binding:"required"`
	Cover       *string    `json:"cover,omitempty"`
}

// isbn は主キーなので変更不可
type UpdateBookRequest struct {
	Name        *string    `json:"name,omitempty"`
	Author      *string    `json:"author,omitempty"`
	Publisher   *string    `json:"publisher,omitempty"`
	PublishDate *time.Time `json:"publish_date,omitempty"`
	Count       *int       `json:"count,omitempty"`
	Cover       *string    `json:"cover,omitempty"`
}

// POST /book/all の query 部
type BookQuery struct {
	Name      string `json:"name"`
	ISBN      string `json:"isbn"`
	Author    string `json:"author"`
	Publisher string `json:"publisher"`
}

// ===== Responses =====

type Book struct {
	ISBN        string     `json:"isbn" db:"isbn"`
	Name        string     `json:"name" db:"name"`
	Author      string     `json:"author" db:"author"`
	Publisher   string     `json:"publisher" db:"publisher"`
	PublishDate *time.Time `json:"publish_date,omitempty" db:"publish_date"`
	Count       int        `json:"count" db:"count"`
	Cover       *string    `json:"cover,omitempty" db:"cover"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at" db:"updated_at"`
}
