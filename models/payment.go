package models

import (
	"fmt"
	"strings"
	"time"
)

// PaymentStatus is the state of one guest's rent for one month.
type PaymentStatus string

const (
	PaymentPaid    PaymentStatus = "paid"
	PaymentPending PaymentStatus = "pending"
	PaymentOverdue PaymentStatus = "overdue"
)

// ParsePaymentStatus accepts any casing of paid, pending or overdue.
func ParsePaymentStatus(raw string) (PaymentStatus, bool) {
	switch PaymentStatus(strings.ToLower(strings.TrimSpace(raw))) {
	case PaymentPaid:
		return PaymentPaid, true
	case PaymentPending:
		return PaymentPending, true
	case PaymentOverdue:
		return PaymentOverdue, true
	}
	return "", false
}

// MonthLayout is the wire format of a calendar year-month.
const MonthLayout = "2006-01"

// Month is a calendar year-month, always stored as YYYY-MM so that string
// order is chronological order.
type Month string

// ParseMonth validates raw as YYYY-MM.
func ParseMonth(raw string) (Month, error) {
	t, err := time.Parse(MonthLayout, strings.TrimSpace(raw))
	if err != nil {
		return "", fmt.Errorf("parse month %q: %w", raw, err)
	}
	return MonthOf(t), nil
}

// MonthOf returns the calendar month containing t.
func MonthOf(t time.Time) Month {
	return Month(t.Format(MonthLayout))
}

func (m Month) String() string { return string(m) }

// PaymentRecord holds the single status of a (guest, month) pair.
type PaymentRecord struct {
	ID        uint          `gorm:"primaryKey" json:"-"`
	GuestID   uint          `gorm:"column:guest_id;not null;uniqueIndex:idx_payment_guest_month" json:"guestId"`
	Month     Month         `gorm:"column:month;size:7;not null;uniqueIndex:idx_payment_guest_month" json:"month"`
	Status    PaymentStatus `gorm:"column:status;size:16;not null" json:"status"`
	Amount    int64         `gorm:"column:amount;not null" json:"amount"`
	UpdatedBy string        `gorm:"column:updated_by;size:255" json:"updatedBy,omitempty"`
	CreatedAt time.Time     `json:"createdAt"`
	UpdatedAt time.Time     `json:"updatedAt"`
}

// Time returns the first instant of the month in UTC, or the zero time for
// a malformed value.
func (m Month) Time() time.Time {
	t, _ := time.Parse(MonthLayout, string(m))
	return t
}
