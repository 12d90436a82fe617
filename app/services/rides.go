// Package services holds the application services between the
// conversation flows and the storage layer.
package services

import (
	"context"
	"time"

	"log/slog"

	"github.com/m3rciful/ridebot/app/domain"
	"github.com/m3rciful/ridebot/app/models"
	"github.com/m3rciful/ridebot/app/storage"
	"github.com/m3rciful/ridebot/core/logger"
)

// Rides manages scheduled departures.
type Rides struct {
	store storage.Store
}

// NewRides constructs the ride service.
func NewRides(store storage.Store) *Rides {
	return &Rides{store: store}
}

// Create registers a new ride with seats_free = seats_total = seats.
// A seat count of zero is valid and produces a ride that is immediately
// unbookable.
func (s *Rides) Create(ctx context.Context, date time.Time, direction string, seats int) (models.Ride, error) {
	if seats < 0 {
		return models.Ride{}, domain.Validationf("seat count must not be negative")
	}
	ride, err := s.store.CreateRide(ctx, models.Ride{
		Date:       date,
		Direction:  direction,
		SeatsTotal: seats,
		SeatsFree:  seats,
	})
	if err != nil {
		return models.Ride{}, err
	}
	logger.Info(ctx, "service.rides", "ride.created",
		slog.Int64("ride_id", ride.ID),
		slog.String("direction", ride.Direction),
		slog.Int("seats", ride.SeatsTotal),
	)
	return ride, nil
}

// List returns every ride ordered by date.
func (s *Rides) List(ctx context.Context) ([]models.Ride, error) {
	return s.store.ListRides(ctx)
}

// ListOpen returns rides still reporting free seats. The listing is a
// snapshot, not a reservation.
func (s *Rides) ListOpen(ctx context.Context) ([]models.Ride, error) {
	return s.store.ListOpenRides(ctx)
}

// Get returns a single ride by id.
func (s *Rides) Get(ctx context.Context, id int64) (models.Ride, error) {
	return s.store.GetRide(ctx, id)
}
