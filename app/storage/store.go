// Package storage defines the persistence surface of the booking domain
// and its PostgreSQL and in-memory implementations.
package storage

import (
	"context"

	"github.com/m3rciful/ridebot/app/models"
)

// Store is the domain persistence surface. All read methods outside
// WithRideLock are non-locking snapshots and may be stale by the time a
// user acts on them.
type Store interface {
	CreateRide(ctx context.Context, ride models.Ride) (models.Ride, error)
	ListRides(ctx context.Context) ([]models.Ride, error)
	ListOpenRides(ctx context.Context) ([]models.Ride, error)
	GetRide(ctx context.Context, id int64) (models.Ride, error)

	ListBookings(ctx context.Context, rideID int64) ([]models.Booking, error)

	CreateParcel(ctx context.Context, p models.Parcel) (models.Parcel, error)
	CountParcelsByDirection(ctx context.Context) ([]models.DirectionCount, error)

	// WithRideLock runs fn while holding an exclusive lock on the ride.
	// Concurrent calls for the same ride serialize; calls for different
	// rides do not block each other. If the ride does not exist,
	// domain.ErrRideNotFound is returned and fn never runs. Any error
	// from fn rolls back every write made through the ReserveTx.
	WithRideLock(ctx context.Context, rideID int64, fn func(tx ReserveTx) error) error
}

// ReserveTx is the capability set available while holding a ride's
// exclusive lock. Writes become visible atomically when WithRideLock
// returns nil.
type ReserveTx interface {
	// Ride returns the row as read under the lock.
	Ride() models.Ride
	// InsertBooking writes a booking row and returns it with its
	// assigned id and creation timestamp.
	InsertBooking(ctx context.Context, b models.Booking) (models.Booking, error)
	// TakeSeats decrements the locked ride's free-seat counter.
	TakeSeats(ctx context.Context, n int) error
}
