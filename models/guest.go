package models

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Guest struct {
	ID uint `gorm:"primaryKey;autoIncrement" json:"id"`

	Name  string `gorm:"size:255;not null" json:"name"`
	Email string `gorm:"size:255;not null;index" json:"email"`
	Phone string `gorm:"size:10;not null" json:"phone"`

	// nil means the guest is not assigned to any room
	RoomNumber *int `gorm:"column:room_number;index" json:"roomNumber"`

	AdmitDate datatypes.Date `gorm:"column:admit_date" json:"admitDate"`

	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// InRoom reports whether the guest currently points at room n.
func (g Guest) InRoom(n int) bool {
	return g.RoomNumber != nil && *g.RoomNumber == n
}

// AdmitDateString formats the admit date as YYYY-MM-DD.
func (g Guest) AdmitDateString() string {
	return time.Time(g.AdmitDate).Format(DateLayout)
}

// MarshalJSON renders admitDate as YYYY-MM-DD.
func (g Guest) MarshalJSON() ([]byte, error) {
	type plain Guest
	return json.Marshal(struct {
		plain
		AdmitDate string `json:"admitDate"`
	}{plain(g), g.AdmitDateString()})
}

// DateLayout is the wire format of calendar dates.
const DateLayout = "2006-01-02"

// IntPtr is a small helper for optional room numbers.
func IntPtr(n int) *int { return &n }
