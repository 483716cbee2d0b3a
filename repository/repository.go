// Package repository holds the authoritative store for rooms, guests,
// payments, admins, sessions and the audit log.
package repository

import (
	"context"
	"errors"

	"pg-backend/models"
)

var (
	// ErrNotFound is returned when a requested row does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate is returned when a unique key would be violated.
	ErrDuplicate = errors.New("duplicate record")
	// ErrReadOnly is returned when a write is attempted inside Store.Read.
	ErrReadOnly = errors.New("write in read-only transaction")
)

// Store runs units of work against the authoritative state.
type Store interface {
	// Atomic runs fn as a single transaction: every write made through tx is
	// applied if fn returns nil and none is applied otherwise.
	Atomic(ctx context.Context, fn func(tx Tx) error) error
	// Read runs fn against a consistent snapshot. Writes through tx fail.
	Read(ctx context.Context, fn func(tx Tx) error) error
}

// GuestFilter narrows ListGuests. The zero value lists every live guest.
type GuestFilter struct {
	RoomNumber *int
}

// Tx is the set of operations available inside a unit of work.
type Tx interface {
	ListRooms() ([]models.Room, error)
	// GetRoom loads one room. forUpdate locks the row until the end of the
	// enclosing Atomic call.
	GetRoom(number int, forUpdate bool) (models.Room, error)
	SetRoomOccupied(number, occupied int) error

	CreateGuest(g *models.Guest) error
	// GetGuest loads one live guest. forUpdate locks the row like GetRoom.
	GetGuest(id uint, forUpdate bool) (models.Guest, error)
	SaveGuest(g *models.Guest) error
	// DeleteGuest soft-deletes the guest; its payment records are retained.
	DeleteGuest(id uint) error
	// ListGuests returns live guests ordered by id ascending.
	ListGuests(filter GuestFilter) ([]models.Guest, error)

	// UpsertPayment creates or overwrites the (GuestID, Month) record.
	UpsertPayment(p *models.PaymentRecord) error
	GetPayment(guestID uint, month models.Month) (models.PaymentRecord, error)
	// ListPayments returns a guest's records ordered by month ascending.
	ListPayments(guestID uint) ([]models.PaymentRecord, error)
	ListPaymentsForMonth(month models.Month) ([]models.PaymentRecord, error)

	CountAdmins() (int64, error)
	CreateAdmin(a *models.Admin) error
	GetAdminByEmail(email string) (models.Admin, error)

	CreateSession(s *models.Session) error
	GetSession(token string) (models.Session, error)
	DeleteSession(token string) error

	AppendAudit(e *models.AuditEntry) error
	// ListAudit returns up to limit entries, newest first.
	ListAudit(limit int) ([]models.AuditEntry, error)
}
