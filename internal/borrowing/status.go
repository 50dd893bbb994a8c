// Package borrowing holds the rules shared by the server and the console for
// classifying a borrowing record and gating its fee and return actions.
package borrowing

import (
	"math"
	"time"

	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusBorrowing Status = "borrowing"
	StatusDelayed   Status = "delayed"
	StatusReturned  Status = "returned"
)

func (s Status) Valid() bool {
	switch s {
	case StatusBorrowing, StatusDelayed, StatusReturned:
		return true
	}
	return false
}

// Derive classifies a record against now. It is never stored: a record moves
// from borrowing to delayed purely because the clock passes its return date.
func Derive(returnDate time.Time, returned int, now time.Time) Status {
	if returned == 1 {
		return StatusReturned
	}
	if returnDate.Before(now) {
		return StatusDelayed
	}
	return StatusBorrowing
}

func Outstanding(amount, paid decimal.Decimal) decimal.Decimal {
	return amount.Sub(paid)
}

// CanPay gates the pay-fee action.
func CanPay(amount, paid decimal.Decimal) bool {
	return Outstanding(amount, paid).IsPositive()
}

// CanReturn gates the return action. An overdue record whose fee is fully
// paid is returnable.
func CanReturn(amount, paid decimal.Decimal, returned int) bool {
	return !Outstanding(amount, paid).IsPositive() && returned == 0
}

// OverdueDays counts every started day after the return date.
func OverdueDays(returnDate, now time.Time) int64 {
	if !now.After(returnDate) {
		return 0
	}
	return int64(math.Ceil(now.Sub(returnDate).Hours() / 24))
}

func LateFee(returnDate, now time.Time, dailyRate decimal.Decimal) decimal.Decimal {
	return dailyRate.Mul(decimal.NewFromInt(OverdueDays(returnDate, now)))
}
