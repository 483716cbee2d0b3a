package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-sql-driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"pg-backend/models"
)

// mysqlDuplicateEntry is ER_DUP_ENTRY.
const mysqlDuplicateEntry = 1062

// GormStore keeps state in MySQL through gorm.
type GormStore struct {
	DB *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{DB: db}
}

func (s *GormStore) Atomic(ctx context.Context, fn func(tx Tx) error) error {
	return s.DB.WithContext(ctx).Transaction(func(db *gorm.DB) error {
		return fn(&gormTx{db: db})
	})
}

func (s *GormStore) Read(ctx context.Context, fn func(tx Tx) error) error {
	return s.DB.WithContext(ctx).Transaction(func(db *gorm.DB) error {
		return fn(&gormTx{db: db, readOnly: true})
	}, &sql.TxOptions{ReadOnly: true})
}

type gormTx struct {
	db       *gorm.DB
	readOnly bool
}

func translate(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	var me *mysql.MySQLError
	if errors.As(err, &me) && me.Number == mysqlDuplicateEntry {
		return fmt.Errorf("%w: %s", ErrDuplicate, me.Message)
	}
	return err
}

func (t *gormTx) writable() error {
	if t.readOnly {
		return ErrReadOnly
	}
	return nil
}

// ----------------------------------------------------
// Rooms
// ----------------------------------------------------

func (t *gormTx) ListRooms() ([]models.Room, error) {
	var rooms []models.Room
	err := t.db.Order("number ASC").Find(&rooms).Error
	return rooms, translate(err)
}

func (t *gormTx) GetRoom(number int, forUpdate bool) (models.Room, error) {
	q := t.db
	if forUpdate && !t.readOnly {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var room models.Room
	err := q.Where("number = ?", number).First(&room).Error
	return room, translate(err)
}

func (t *gormTx) SetRoomOccupied(number, occupied int) error {
	if err := t.writable(); err != nil {
		return err
	}
	res := t.db.Model(&models.Room{}).
		Where("number = ?", number).
		Update("occupied", occupied)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ----------------------------------------------------
// Guests
// ----------------------------------------------------

func (t *gormTx) CreateGuest(g *models.Guest) error {
	if err := t.writable(); err != nil {
		return err
	}
	return translate(t.db.Create(g).Error)
}

func (t *gormTx) GetGuest(id uint, forUpdate bool) (models.Guest, error) {
	q := t.db
	if forUpdate && !t.readOnly {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var g models.Guest
	err := q.First(&g, id).Error
	return g, translate(err)
}

func (t *gormTx) SaveGuest(g *models.Guest) error {
	if err := t.writable(); err != nil {
		return err
	}
	// Select("*") so a nil RoomNumber is written as NULL.
	res := t.db.Model(g).Select("*").Omit("id", "created_at", "deleted_at").Updates(g)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected > 0 {
		return nil
	}
	// MySQL counts changed rows only, so an identical write also reports 0.
	var n int64
	if err := t.db.Model(&models.Guest{}).Where("id = ?", g.ID).Count(&n).Error; err != nil {
		return translate(err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (t *gormTx) DeleteGuest(id uint) error {
	if err := t.writable(); err != nil {
		return err
	}
	res := t.db.Delete(&models.Guest{}, id)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (t *gormTx) ListGuests(filter GuestFilter) ([]models.Guest, error) {
	q := t.db.Order("id ASC")
	if filter.RoomNumber != nil {
		q = q.Where("room_number = ?", *filter.RoomNumber)
	}
	var guests []models.Guest
	err := q.Find(&guests).Error
	return guests, translate(err)
}

// ----------------------------------------------------
// Payments
// ----------------------------------------------------

func (t *gormTx) UpsertPayment(p *models.PaymentRecord) error {
	if err := t.writable(); err != nil {
		return err
	}
	err := t.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "guest_id"}, {Name: "month"}},
		DoUpdates: clause.AssignmentColumns([]string{"status", "amount", "updated_by", "updated_at"}),
	}).Create(p).Error
	return translate(err)
}

func (t *gormTx) GetPayment(guestID uint, month models.Month) (models.PaymentRecord, error) {
	var p models.PaymentRecord
	err := t.db.Where("guest_id = ? AND month = ?", guestID, month).First(&p).Error
	return p, translate(err)
}

func (t *gormTx) ListPayments(guestID uint) ([]models.PaymentRecord, error) {
	var list []models.PaymentRecord
	err := t.db.Where("guest_id = ?", guestID).Order("month ASC").Find(&list).Error
	return list, translate(err)
}

func (t *gormTx) ListPaymentsForMonth(month models.Month) ([]models.PaymentRecord, error) {
	var list []models.PaymentRecord
	err := t.db.Where("month = ?", month).Order("guest_id ASC").Find(&list).Error
	return list, translate(err)
}

// ----------------------------------------------------
// Admins & sessions
// ----------------------------------------------------

func (t *gormTx) CountAdmins() (int64, error) {
	var n int64
	err := t.db.Model(&models.Admin{}).Count(&n).Error
	return n, translate(err)
}

func (t *gormTx) CreateAdmin(a *models.Admin) error {
	if err := t.writable(); err != nil {
		return err
	}
	return translate(t.db.Create(a).Error)
}

func (t *gormTx) GetAdminByEmail(email string) (models.Admin, error) {
	var a models.Admin
	err := t.db.Where("LOWER(email) = LOWER(?)", email).First(&a).Error
	return a, translate(err)
}

func (t *gormTx) CreateSession(s *models.Session) error {
	if err := t.writable(); err != nil {
		return err
	}
	return translate(t.db.Create(s).Error)
}

func (t *gormTx) GetSession(token string) (models.Session, error) {
	var s models.Session
	err := t.db.Where("token = ?", token).First(&s).Error
	return s, translate(err)
}

func (t *gormTx) DeleteSession(token string) error {
	if err := t.writable(); err != nil {
		return err
	}
	return translate(t.db.Where("token = ?", token).Delete(&models.Session{}).Error)
}

// ----------------------------------------------------
// Audit
// ----------------------------------------------------

func (t *gormTx) AppendAudit(e *models.AuditEntry) error {
	if err := t.writable(); err != nil {
		return err
	}
	return translate(t.db.Create(e).Error)
}

func (t *gormTx) ListAudit(limit int) ([]models.AuditEntry, error) {
	var list []models.AuditEntry
	err := t.db.Order("id DESC").Limit(limit).Find(&list).Error
	return list, translate(err)
}
