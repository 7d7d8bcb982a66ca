package repository

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/event-accommodation/internal/model"
)

func TestRoomTypeRepo_UpdateTx_ClampsOverrides(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE room_types SET name = \\?").
		WithArgs("Double", uint32(5), uint32(9900), nil, 3).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE room_availability SET available_rooms = LEAST\\(available_rooms, \\?\\)").
		WithArgs(uint32(5), 3, uint32(5)).
		WillReturnResult(sqlmock.NewResult(0, 12))
	mock.ExpectCommit()

	repo := NewRoomTypeRepo(db)
	tx, err := db.Begin()
	require.NoError(t, err)
	rt := &model.RoomType{ID: 3, Name: "Double", TotalRooms: 5, BasePriceCents: 9900}
	require.NoError(t, repo.UpdateTx(context.Background(), tx, rt))
	require.NoError(t, tx.Commit())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRoomTypeRepo_UpdateTx_MissingRow(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE room_types SET name = \\?").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT id FROM room_types WHERE id = \\?").
		WithArgs(99).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectRollback()

	repo := NewRoomTypeRepo(db)
	tx, err := db.Begin()
	require.NoError(t, err)
	rt := &model.RoomType{ID: 99, Name: "Double", TotalRooms: 5}
	err = repo.UpdateTx(context.Background(), tx, rt)
	require.ErrorIs(t, err, ErrRoomTypeNotFound)
	require.NoError(t, tx.Rollback())
}

func TestRoomTypeRepo_DeleteCascadeTx_Order(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	// Dependent rows must go before the room type itself.
	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM bookings WHERE room_type_id = \\?").
		WithArgs(3).WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec("DELETE FROM room_availability WHERE room_type_id = \\?").
		WithArgs(3).WillReturnResult(sqlmock.NewResult(0, 30))
	mock.ExpectExec("DELETE FROM room_types WHERE id = \\?").
		WithArgs(3).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	repo := NewRoomTypeRepo(db)
	tx, err := db.Begin()
	require.NoError(t, err)
	require.NoError(t, repo.DeleteCascadeTx(context.Background(), tx, 3))
	require.NoError(t, tx.Commit())
	require.NoError(t, mock.ExpectationsWereMet())
}
