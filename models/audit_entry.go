package models

import (
	"time"

	"gorm.io/datatypes"
)

type AuditEntry struct {
	ID         uint           `gorm:"primaryKey" json:"id"`
	Actor      string         `gorm:"size:150;index" json:"actor"`
	Action     string         `gorm:"size:64;index" json:"action"`
	GuestID    *uint          `gorm:"index" json:"guestId,omitempty"`
	RoomNumber *int           `json:"roomNumber,omitempty"`
	Details    datatypes.JSON `json:"details,omitempty"`
	CreatedAt  time.Time      `gorm:"index" json:"at"`
}
