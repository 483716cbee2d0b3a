package services

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"pg-backend/repository"
)

func newMySQLStore(t *testing.T) (*repository.GormStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	gdb, err := gorm.Open(mysql.New(mysql.Config{
		Conn:                      db,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	return repository.NewGormStore(gdb), mock
}

var (
	guestColumns = []string{"id", "name", "email", "phone", "room_number", "admit_date", "created_at", "updated_at", "deleted_at"}
	roomColumns  = []string{"number", "capacity", "occupied", "created_at", "updated_at"}
)

func expectGuestLock(mock sqlmock.Sqlmock, id uint, roomNumber int) {
	mock.ExpectQuery("SELECT \\* FROM `guests` WHERE `guests`.`id` = \\? .*FOR UPDATE").
		WillReturnRows(sqlmock.NewRows(guestColumns).
			AddRow(id, "asha", "asha@example.com", "9876543210", roomNumber, fixedNow, fixedNow, fixedNow, nil))
}

func expectRoomLock(mock sqlmock.Sqlmock, number, occupied int) {
	mock.ExpectQuery("SELECT \\* FROM `rooms` WHERE number = \\?.*FOR UPDATE").
		WillReturnRows(sqlmock.NewRows(roomColumns).AddRow(number, 2, occupied, fixedNow, fixedNow))
}

func TestMySQLUpdateMovesGuestInOneTransaction(t *testing.T) {
	store, mock := newMySQLStore(t)
	guests := NewGuestService(store, zap.NewNop())

	mock.ExpectBegin()
	expectGuestLock(mock, 4, 106)
	// Rooms are locked ascending even though the guest moves down. Swapped
	// locks would hand the rows to the wrong updates below.
	expectRoomLock(mock, 105, 0)
	expectRoomLock(mock, 106, 1)
	mock.ExpectExec("UPDATE `rooms` SET `occupied`=\\?").
		WithArgs(1, sqlmock.AnyArg(), 105).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE `rooms` SET `occupied`=\\?").
		WithArgs(0, sqlmock.AnyArg(), 106).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE `guests` SET .*`room_number`=\\?").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO `audit_entries`").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	g, err := guests.Update(context.Background(), 4, validInput("asha", room(105)))
	require.NoError(t, err)
	assert.True(t, g.InRoom(105))
	assert.Equal(t, fixedNow.Format("2006-01-02"), g.AdmitDateString())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMySQLAssignToFullRoomRollsBack(t *testing.T) {
	store, mock := newMySQLStore(t)
	rooms := NewRoomService(store, zap.NewNop())

	mock.ExpectBegin()
	expectGuestLock(mock, 7, 103)
	expectRoomLock(mock, 103, 1)
	expectRoomLock(mock, 110, 2)
	mock.ExpectRollback()

	err := rooms.Assign(context.Background(), 110, 7)
	assert.ErrorIs(t, err, ErrRoomFull)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMySQLDeleteReleasesLockedRoom(t *testing.T) {
	store, mock := newMySQLStore(t)
	guests := NewGuestService(store, zap.NewNop())

	mock.ExpectBegin()
	expectGuestLock(mock, 2, 120)
	expectRoomLock(mock, 120, 2)
	mock.ExpectExec("UPDATE `rooms` SET `occupied`=\\?").
		WithArgs(1, sqlmock.AnyArg(), 120).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE `guests` SET .*`room_number`=\\?").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE `guests` SET `deleted_at`=\\?").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO `audit_entries`").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	require.NoError(t, guests.Delete(context.Background(), 2))
	require.NoError(t, mock.ExpectationsWereMet())
}
