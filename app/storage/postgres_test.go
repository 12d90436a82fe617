package storage

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"

	"github.com/m3rciful/ridebot/app/domain"
	"github.com/m3rciful/ridebot/app/models"
)

func newMockStore(t *testing.T) (*Postgres, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return NewPostgres(sqlx.NewDb(db, "sqlmock")), mock
}

func rideRows(ride models.Ride) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "date", "direction", "seats_total", "seats_free"}).
		AddRow(ride.ID, ride.Date, ride.Direction, ride.SeatsTotal, ride.SeatsFree)
}

const lockRideQuery = `SELECT id, date, direction, seats_total, seats_free FROM rides WHERE id = $1 FOR UPDATE`

func TestWithRideLockCommitsReservation(t *testing.T) {
	store, mock := newMockStore(t)
	ride := models.Ride{
		ID:         7,
		Date:       time.Date(2025, 10, 25, 0, 0, 0, 0, time.UTC),
		Direction:  "UA -> CZ",
		SeatsTotal: 8,
		SeatsFree:  5,
	}
	created := time.Now().UTC()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(lockRideQuery)).
		WithArgs(ride.ID).
		WillReturnRows(rideRows(ride))
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO bookings`)).
		WithArgs(ride.ID, "Name Surname", "+420600000000", 2, nil, nil, nil).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(int64(31), created))
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE rides SET seats_free = seats_free - $1 WHERE id = $2`)).
		WithArgs(2, ride.ID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := store.WithRideLock(context.Background(), ride.ID, func(tx ReserveTx) error {
		locked := tx.Ride()
		if locked.SeatsFree != 5 {
			t.Fatalf("locked seats_free = %d, want 5", locked.SeatsFree)
		}
		booking, err := tx.InsertBooking(context.Background(), models.Booking{
			RideID: ride.ID,
			Name:   "Name Surname",
			Phone:  "+420600000000",
			Seats:  2,
		})
		if err != nil {
			return err
		}
		if booking.ID != 31 {
			t.Fatalf("booking id = %d, want 31", booking.ID)
		}
		return tx.TakeSeats(context.Background(), 2)
	})
	if err != nil {
		t.Fatalf("WithRideLock: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestWithRideLockRollsBackOnFnError(t *testing.T) {
	store, mock := newMockStore(t)
	ride := models.Ride{ID: 7, Direction: "UA -> CZ", SeatsTotal: 8, SeatsFree: 1}

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(lockRideQuery)).
		WithArgs(ride.ID).
		WillReturnRows(rideRows(ride))
	mock.ExpectRollback()

	wantErr := &domain.CapacityError{RideID: ride.ID, Free: 1}
	err := store.WithRideLock(context.Background(), ride.ID, func(tx ReserveTx) error {
		return wantErr
	})
	var capErr *domain.CapacityError
	if !errors.As(err, &capErr) {
		t.Fatalf("expected CapacityError, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestWithRideLockUnknownRide(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(lockRideQuery)).
		WithArgs(int64(404)).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	err := store.WithRideLock(context.Background(), 404, func(tx ReserveTx) error {
		t.Fatal("fn must not run without a locked row")
		return nil
	})
	if !errors.Is(err, domain.ErrRideNotFound) {
		t.Fatalf("expected ErrRideNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestGetRideNotFoundMapsSentinel(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, date, direction, seats_total, seats_free FROM rides WHERE id = $1`)).
		WithArgs(int64(404)).
		WillReturnError(sql.ErrNoRows)

	_, err := store.GetRide(context.Background(), 404)
	if !errors.Is(err, domain.ErrRideNotFound) {
		t.Fatalf("expected ErrRideNotFound, got %v", err)
	}
}

func TestListOpenRidesFiltersOnFreeSeats(t *testing.T) {
	store, mock := newMockStore(t)
	ride := models.Ride{
		ID:         3,
		Date:       time.Date(2025, 10, 25, 0, 0, 0, 0, time.UTC),
		Direction:  "UA -> CZ",
		SeatsTotal: 8,
		SeatsFree:  2,
	}

	mock.ExpectQuery(regexp.QuoteMeta(`FROM rides WHERE seats_free > 0 ORDER BY date, id`)).
		WillReturnRows(rideRows(ride))

	rides, err := store.ListOpenRides(context.Background())
	if err != nil {
		t.Fatalf("ListOpenRides: %v", err)
	}
	if len(rides) != 1 || rides[0].ID != 3 {
		t.Fatalf("unexpected rides: %+v", rides)
	}
}

func TestCountParcelsByDirection(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT direction, COUNT(*) AS count FROM parcels GROUP BY direction ORDER BY direction`)).
		WillReturnRows(sqlmock.NewRows([]string{"direction", "count"}).
			AddRow("CZ -> UA", 2).
			AddRow("UA -> CZ", 5))

	counts, err := store.CountParcelsByDirection(context.Background())
	if err != nil {
		t.Fatalf("CountParcelsByDirection: %v", err)
	}
	if len(counts) != 2 || counts[1].Direction != "UA -> CZ" || counts[1].Count != 5 {
		t.Fatalf("unexpected counts: %+v", counts)
	}
}

func TestPersistenceErrorCarriesOp(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(regexp.QuoteMeta(`FROM rides ORDER BY date, id`)).
		WillReturnError(errors.New("connection reset"))

	_, err := store.ListRides(context.Background())
	var perr *domain.PersistenceError
	if !errors.As(err, &perr) {
		t.Fatalf("expected PersistenceError, got %v", err)
	}
	if perr.Op != "list_rides" {
		t.Fatalf("op = %q, want list_rides", perr.Op)
	}
}
