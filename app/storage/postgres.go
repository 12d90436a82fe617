package storage

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
	"log/slog"

	"github.com/m3rciful/ridebot/app/domain"
	"github.com/m3rciful/ridebot/app/models"
	"github.com/m3rciful/ridebot/core/logger"
)

// Postgres implements Store on top of sqlx. Row-level exclusivity for
// reservations uses SELECT ... FOR UPDATE.
type Postgres struct {
	db *sqlx.DB
}

// NewPostgres wraps an open sqlx handle.
func NewPostgres(db *sqlx.DB) *Postgres {
	return &Postgres{db: db}
}

const rideColumns = "id, date, direction, seats_total, seats_free"

// CreateRide inserts a new ride and returns it with the assigned id.
func (p *Postgres) CreateRide(ctx context.Context, ride models.Ride) (models.Ride, error) {
	const q = `INSERT INTO rides (date, direction, seats_total, seats_free)
		VALUES ($1, $2, $3, $4) RETURNING id`
	err := p.db.QueryRowxContext(ctx, q, ride.Date, ride.Direction, ride.SeatsTotal, ride.SeatsFree).
		Scan(&ride.ID)
	if err != nil {
		return models.Ride{}, domain.Persistence("create_ride", err)
	}
	return ride, nil
}

// ListRides returns all rides ordered by date.
func (p *Postgres) ListRides(ctx context.Context) ([]models.Ride, error) {
	var rides []models.Ride
	const q = `SELECT ` + rideColumns + ` FROM rides ORDER BY date, id`
	if err := p.db.SelectContext(ctx, &rides, q); err != nil {
		return nil, domain.Persistence("list_rides", err)
	}
	return rides, nil
}

// ListOpenRides returns rides that still report free seats. The counter is
// advisory: it may be stale by the time the user commits a booking.
func (p *Postgres) ListOpenRides(ctx context.Context) ([]models.Ride, error) {
	var rides []models.Ride
	const q = `SELECT ` + rideColumns + ` FROM rides WHERE seats_free > 0 ORDER BY date, id`
	if err := p.db.SelectContext(ctx, &rides, q); err != nil {
		return nil, domain.Persistence("list_open_rides", err)
	}
	return rides, nil
}

// GetRide returns a single ride by id.
func (p *Postgres) GetRide(ctx context.Context, id int64) (models.Ride, error) {
	var ride models.Ride
	const q = `SELECT ` + rideColumns + ` FROM rides WHERE id = $1`
	err := p.db.GetContext(ctx, &ride, q, id)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Ride{}, domain.ErrRideNotFound
	}
	if err != nil {
		return models.Ride{}, domain.Persistence("get_ride", err)
	}
	return ride, nil
}

// ListBookings returns all bookings for a ride ordered by id.
func (p *Postgres) ListBookings(ctx context.Context, rideID int64) ([]models.Booking, error) {
	var bookings []models.Booking
	const q = `SELECT id, ride_id, name, phone, seats, comment, from_city, to_city, created_at
		FROM bookings WHERE ride_id = $1 ORDER BY id`
	if err := p.db.SelectContext(ctx, &bookings, q, rideID); err != nil {
		return nil, domain.Persistence("list_bookings", err)
	}
	return bookings, nil
}

// CreateParcel inserts a parcel record.
func (p *Postgres) CreateParcel(ctx context.Context, parcel models.Parcel) (models.Parcel, error) {
	const q = `INSERT INTO parcels (direction, sender, sender_phone, receiver, receiver_phone, office, description)
		VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id, created_at`
	err := p.db.QueryRowxContext(ctx, q,
		parcel.Direction, parcel.Sender, parcel.SenderPhone,
		parcel.Receiver, parcel.ReceiverPhone, parcel.Office, parcel.Description,
	).Scan(&parcel.ID, &parcel.CreatedAt)
	if err != nil {
		return models.Parcel{}, domain.Persistence("create_parcel", err)
	}
	return parcel, nil
}

// CountParcelsByDirection groups parcels by their direction string.
func (p *Postgres) CountParcelsByDirection(ctx context.Context) ([]models.DirectionCount, error) {
	var counts []models.DirectionCount
	const q = `SELECT direction, COUNT(*) AS count FROM parcels GROUP BY direction ORDER BY direction`
	if err := p.db.SelectContext(ctx, &counts, q); err != nil {
		return nil, domain.Persistence("count_parcels", err)
	}
	return counts, nil
}

// WithRideLock opens a transaction, locks the ride row with FOR UPDATE,
// and runs fn. The lock serializes reservations against the same ride;
// other rides stay unaffected. The transaction commits only when fn
// returns nil, otherwise every write is rolled back.
func (p *Postgres) WithRideLock(ctx context.Context, rideID int64, fn func(tx ReserveTx) error) error {
	start := time.Now()
	tx, err := p.db.BeginTxx(ctx, nil)
	if err != nil {
		return domain.Persistence("begin", err)
	}
	defer func() {
		// No-op after a successful commit.
		_ = tx.Rollback()
	}()

	var ride models.Ride
	const q = `SELECT ` + rideColumns + ` FROM rides WHERE id = $1 FOR UPDATE`
	err = tx.GetContext(ctx, &ride, q, rideID)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ErrRideNotFound
	}
	if err != nil {
		return domain.Persistence("lock_ride", err)
	}

	if err := fn(&pgReserveTx{tx: tx, ride: ride}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return domain.Persistence("commit", err)
	}
	logger.DB.Debug("ride lock released",
		slog.String("event", "db.ride_lock"),
		slog.Int64("ride_id", rideID),
		slog.Duration("duration", logger.Took(start)),
	)
	return nil
}

type pgReserveTx struct {
	tx   *sqlx.Tx
	ride models.Ride
}

func (t *pgReserveTx) Ride() models.Ride { return t.ride }

func (t *pgReserveTx) InsertBooking(ctx context.Context, b models.Booking) (models.Booking, error) {
	const q = `INSERT INTO bookings (ride_id, name, phone, seats, comment, from_city, to_city)
		VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id, created_at`
	err := t.tx.QueryRowxContext(ctx, q,
		b.RideID, b.Name, b.Phone, b.Seats, b.Comment, b.FromCity, b.ToCity,
	).Scan(&b.ID, &b.CreatedAt)
	if err != nil {
		return models.Booking{}, domain.Persistence("insert_booking", err)
	}
	return b, nil
}

func (t *pgReserveTx) TakeSeats(ctx context.Context, n int) error {
	const q = `UPDATE rides SET seats_free = seats_free - $1 WHERE id = $2`
	if _, err := t.tx.ExecContext(ctx, q, n, t.ride.ID); err != nil {
		return domain.Persistence("take_seats", err)
	}
	return nil
}
