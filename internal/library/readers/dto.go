package readers

import "time"

const (
	GenderMale   = 0
	GenderFemale = 1
)

type CreateReaderRequest struct {
	IDCard  string  `json:"id_card" binding:"required"`
	Name    string  `json:"name" binding:"required"`
	Phone   *int64  `json:"phone,omitempty"`
	Address *string `json:"address,omitempty"`
	Gender  *int    `json:"gender,omitempty"`
}

// id_card は主キーなので変更不可
type UpdateReaderRequest struct {
	Name    *string `json:"name,omitempty"`
	Phone   *int64  `json:"phone,omitempty"`
	Address *string `json:"address,omitempty"`
	Gender  *int    `json:"gender,omitempty"`
}

type ReaderQuery struct {
	Name   string `json:"name"`
	IDCard string `json:"id_card"`
	Phone  string `json:"phone"`
}

type Reader struct {
	IDCard    string    `json:"id_card" db:"id_card"`
	Name      string    `json:"name" db:"name"`
	Phone     *int64    `json:"phone,omitempty" db:"phone"`
	Address   *string   `json:"address,omitempty" db:"address"`
	Gender    int       `json:"gender" db:"gender"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}
