package borrowing

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

var now = time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestDerive(t *testing.T) {
	testCases := []struct {
		name       string
		returnDate time.Time
		returned   int
		expected   Status
	}{
		{"returned with past date", now.Add(-72 * time.Hour), 1, StatusReturned},
		{"returned with future date", now.Add(72 * time.Hour), 1, StatusReturned},
		{"overdue", now.Add(-time.Second), 0, StatusDelayed},
		{"due exactly now", now, 0, StatusBorrowing},
		{"due later", now.Add(time.Hour), 0, StatusBorrowing},
	}
	for _, tt := range testCases {
		assert.Equal(t, tt.expected, Derive(tt.returnDate, tt.returned, now), tt.name)
	}
}

func TestDeriveFlipsWithClockOnly(t *testing.T) {
	due := now.Add(time.Minute)
	assert.Equal(t, StatusBorrowing, Derive(due, 0, now))
	assert.Equal(t, StatusDelayed, Derive(due, 0, now.Add(2*time.Minute)))
}

func TestFeeGates(t *testing.T) {
	testCases := []struct {
		amount    string
		paid      string
		returned  int
		canPay    bool
		canReturn bool
	}{
		{"0", "0", 0, false, true},
		{"3.5", "0", 0, true, false},
		{"3.5", "1.5", 0, true, false},
		{"3.5", "3.5", 0, false, true},
		{"3.5", "3.5", 1, false, false},
		{"0", "0", 1, false, false},
	}
	for _, tt := range testCases {
		assert.Equal(t, tt.canPay, CanPay(d(tt.amount), d(tt.paid)), "pay %s/%s", tt.amount, tt.paid)
		assert.Equal(t, tt.canReturn, CanReturn(d(tt.amount), d(tt.paid), tt.returned), "return %s/%s/%d", tt.amount, tt.paid, tt.returned)
	}
}

func TestGatesIgnoreStatus(t *testing.T) {
	overdue := now.Add(-48 * time.Hour)
	assert.Equal(t, StatusDelayed, Derive(overdue, 0, now))
	assert.True(t, CanReturn(d("2"), d("2"), 0))
}

func TestOverdueDays(t *testing.T) {
	testCases := []struct {
		late     time.Duration
		expected int64
	}{
		{-time.Hour, 0},
		{0, 0},
		{time.Minute, 1},
		{24 * time.Hour, 1},
		{24*time.Hour + time.Second, 2},
		{176 * time.Hour, 8},
	}
	for _, tt := range testCases {
		assert.Equal(t, tt.expected, OverdueDays(now.Add(-tt.late), now), tt.late.String())
	}
}

func TestLateFee(t *testing.T) {
	fee := LateFee(now.Add(-49*time.Hour), now, d("0.5"))
	assert.True(t, fee.Equal(d("1.5")), fee.String())
	assert.True(t, LateFee(now.Add(time.Hour), now, d("0.5")).IsZero())
}
