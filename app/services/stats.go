package services

import (
	"context"

	"github.com/m3rciful/ridebot/app/models"
	"github.com/m3rciful/ridebot/app/storage"
)

// RideReport is the per-ride statistics projection: the ride with all its
// bookings.
type RideReport struct {
	Ride     models.Ride
	Bookings []models.Booking
}

// Stats serves the read-only aggregations shown to managers.
type Stats struct {
	store storage.Store
}

// NewStats constructs the statistics service.
func NewStats(store storage.Store) *Stats {
	return &Stats{store: store}
}

// RideReport returns the ride and its full booking list.
func (s *Stats) RideReport(ctx context.Context, rideID int64) (RideReport, error) {
	ride, err := s.store.GetRide(ctx, rideID)
	if err != nil {
		return RideReport{}, err
	}
	bookings, err := s.store.ListBookings(ctx, rideID)
	if err != nil {
		return RideReport{}, err
	}
	return RideReport{Ride: ride, Bookings: bookings}, nil
}

// ParcelTotals returns parcel counts grouped by direction.
func (s *Stats) ParcelTotals(ctx context.Context) ([]models.DirectionCount, error) {
	return s.store.CountParcelsByDirection(ctx)
}
