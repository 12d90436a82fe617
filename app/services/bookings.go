package services

import (
	"context"

	"log/slog"

	"github.com/m3rciful/ridebot/app/domain"
	"github.com/m3rciful/ridebot/app/models"
	"github.com/m3rciful/ridebot/app/storage"
	"github.com/m3rciful/ridebot/core/logger"
)

// ReservationInput carries the passenger fields collected by the booking
// flow.
type ReservationInput struct {
	Name     string
	Phone    string
	Seats    int
	Comment  string
	FromCity string
	ToCity   string
}

// Bookings owns the reservation transaction. Reserve is the only code
// path that mutates a ride's free-seat counter.
type Bookings struct {
	store storage.Store
}

// NewBookings constructs the booking service.
func NewBookings(store storage.Store) *Bookings {
	return &Bookings{store: store}
}

// Reserve commits a booking if sufficient capacity remains at commit
// time. Under the ride's exclusive lock it re-reads the counter, inserts
// the booking row and decrements seats_free as one atomic unit. On
// domain.ErrRideNotFound or *domain.CapacityError nothing is written.
// The returned ride is the snapshot read under the lock, before the
// decrement.
func (s *Bookings) Reserve(ctx context.Context, rideID int64, in ReservationInput) (models.Booking, models.Ride, error) {
	if in.Seats <= 0 {
		return models.Booking{}, models.Ride{}, domain.Validationf("seat count must be a positive integer")
	}

	var (
		booking models.Booking
		ride    models.Ride
	)
	err := s.store.WithRideLock(ctx, rideID, func(tx storage.ReserveTx) error {
		ride = tx.Ride()
		if ride.SeatsFree < in.Seats {
			return &domain.CapacityError{RideID: rideID, Free: ride.SeatsFree}
		}
		var err error
		booking, err = tx.InsertBooking(ctx, models.Booking{
			RideID:   rideID,
			Name:     in.Name,
			Phone:    in.Phone,
			Seats:    in.Seats,
			Comment:  models.OptString(in.Comment),
			FromCity: models.OptString(in.FromCity),
			ToCity:   models.OptString(in.ToCity),
		})
		if err != nil {
			return err
		}
		return tx.TakeSeats(ctx, in.Seats)
	})
	if err != nil {
		logger.Warn(ctx, "service.bookings", "reserve.rejected",
			slog.Int64("ride_id", rideID),
			slog.Int("seats", in.Seats),
			slog.String("err", err.Error()),
		)
		return models.Booking{}, models.Ride{}, err
	}

	logger.Info(ctx, "service.bookings", "reserve.committed",
		slog.Int64("ride_id", rideID),
		slog.Int64("booking_id", booking.ID),
		slog.Int("seats", in.Seats),
		slog.Int("seats_free", ride.SeatsFree-in.Seats),
	)
	return booking, ride, nil
}
