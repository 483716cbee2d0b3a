package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	mysqldriver "github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"pg-backend/models"
)

func newMockStore(t *testing.T) (*GormStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	gdb, err := gorm.Open(mysql.New(mysql.Config{
		Conn:                      db,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	return NewGormStore(gdb), mock
}

func TestGormGetRoomForUpdateLocks(t *testing.T) {
	store, mock := newMockStore(t)
	now := time.Now()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT \\* FROM `rooms` WHERE number = \\?.*FOR UPDATE").
		WillReturnRows(sqlmock.NewRows([]string{"number", "capacity", "occupied", "created_at", "updated_at"}).
			AddRow(101, 2, 1, now, now))
	mock.ExpectExec("UPDATE `rooms` SET `occupied`=\\?").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := store.Atomic(context.Background(), func(tx Tx) error {
		r, err := tx.GetRoom(101, true)
		if err != nil {
			return err
		}
		assert.Equal(t, 1, r.Occupied)
		return tx.SetRoomOccupied(101, r.Occupied+1)
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGormAtomicRollsBackOnError(t *testing.T) {
	store, mock := newMockStore(t)
	boom := errors.New("boom")

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE `rooms` SET `occupied`=\\?").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectRollback()

	err := store.Atomic(context.Background(), func(tx Tx) error {
		if err := tx.SetRoomOccupied(101, 1); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGormSetRoomOccupiedMissing(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE `rooms`").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := store.Atomic(context.Background(), func(tx Tx) error {
		return tx.SetRoomOccupied(999, 1)
	})
	assert.ErrorIs(t, err, ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGormGetGuestNotFound(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT \\* FROM `guests` WHERE `guests`.`id` = \\? AND `guests`.`deleted_at` IS NULL").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectRollback()

	err := store.Read(context.Background(), func(tx Tx) error {
		_, err := tx.GetGuest(7, false)
		return err
	})
	assert.ErrorIs(t, err, ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGormGetGuestForUpdateLocks(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT \\* FROM `guests` WHERE `guests`.`id` = \\? AND `guests`.`deleted_at` IS NULL .*FOR UPDATE").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "room_number"}).AddRow(4, "asha", 105))
	mock.ExpectCommit()

	err := store.Atomic(context.Background(), func(tx Tx) error {
		g, err := tx.GetGuest(4, true)
		if err != nil {
			return err
		}
		assert.True(t, g.InRoom(105))
		return nil
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGormSaveGuestUnchangedRowIsNotMissing(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE `guests` SET").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT count\\(\\*\\) FROM `guests` WHERE id = \\?").
		WillReturnRows(sqlmock.NewRows([]string{"count(*)"}).AddRow(1))
	mock.ExpectCommit()

	err := store.Atomic(context.Background(), func(tx Tx) error {
		return tx.SaveGuest(&models.Guest{ID: 4, Name: "asha"})
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGormSaveGuestMissing(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE `guests` SET").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT count\\(\\*\\) FROM `guests` WHERE id = \\?").
		WillReturnRows(sqlmock.NewRows([]string{"count(*)"}).AddRow(0))
	mock.ExpectRollback()

	err := store.Atomic(context.Background(), func(tx Tx) error {
		return tx.SaveGuest(&models.Guest{ID: 9, Name: "ghost"})
	})
	assert.ErrorIs(t, err, ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGormReadRejectsWrites(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectRollback()

	err := store.Read(context.Background(), func(tx Tx) error {
		return tx.CreateGuest(&models.Guest{Name: "asha"})
	})
	assert.ErrorIs(t, err, ErrReadOnly)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGormListGuestsByRoom(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT \\* FROM `guests` WHERE room_number = \\? AND `guests`.`deleted_at` IS NULL ORDER BY id ASC").
		WithArgs(105).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "email", "phone", "room_number"}).
			AddRow(1, "asha", "asha@example.com", "9876543210", 105).
			AddRow(2, "ravi", "ravi@example.com", "9876543211", 105))
	mock.ExpectCommit()

	var guests []models.Guest
	err := store.Read(context.Background(), func(tx Tx) error {
		var err error
		guests, err = tx.ListGuests(GuestFilter{RoomNumber: models.IntPtr(105)})
		return err
	})
	require.NoError(t, err)
	require.Len(t, guests, 2)
	assert.True(t, guests[1].InRoom(105))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGormDeleteGuestIsSoft(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE `guests` SET `deleted_at`=\\? WHERE `guests`.`id` = \\? AND `guests`.`deleted_at` IS NULL").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := store.Atomic(context.Background(), func(tx Tx) error { return tx.DeleteGuest(3) })
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGormUpsertPayment(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO `payment_records` .* ON DUPLICATE KEY UPDATE .*`status`").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	err := store.Atomic(context.Background(), func(tx Tx) error {
		return tx.UpsertPayment(&models.PaymentRecord{GuestID: 1, Month: "2024-03", Status: models.PaymentPaid, Amount: 5000})
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGormDuplicateAdmin(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO `admins`").
		WillReturnError(&mysqldriver.MySQLError{Number: 1062, Message: "Duplicate entry 'a@b.c' for key 'email'"})
	mock.ExpectRollback()

	err := store.Atomic(context.Background(), func(tx Tx) error {
		return tx.CreateAdmin(&models.Admin{Email: "a@b.c", Password: "x"})
	})
	assert.ErrorIs(t, err, ErrDuplicate)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGormListAuditNewestFirst(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT \\* FROM `audit_entries` ORDER BY id DESC LIMIT").
		WillReturnRows(sqlmock.NewRows([]string{"id", "actor", "action"}).
			AddRow(9, "system", "guest.delete").
			AddRow(8, "system", "guest.add"))
	mock.ExpectCommit()

	var list []models.AuditEntry
	err := store.Read(context.Background(), func(tx Tx) error {
		var err error
		list, err = tx.ListAudit(2)
		return err
	})
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.EqualValues(t, 9, list[0].ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTranslate(t *testing.T) {
	assert.NoError(t, translate(nil))
	assert.ErrorIs(t, translate(gorm.ErrRecordNotFound), ErrNotFound)
	assert.ErrorIs(t, translate(&mysqldriver.MySQLError{Number: 1062}), ErrDuplicate)

	other := &mysqldriver.MySQLError{Number: 1213, Message: "Deadlock found"}
	assert.Same(t, other, translate(other))
}
