package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/m3rciful/ridebot/app/domain"
	"github.com/m3rciful/ridebot/app/models"
	"github.com/m3rciful/ridebot/app/storage"
)

func newRide(t *testing.T, store *storage.Memory, seats int) models.Ride {
	t.Helper()
	ride, err := store.CreateRide(context.Background(), models.Ride{
		Date:       time.Date(2025, 11, 1, 0, 0, 0, 0, time.UTC),
		Direction:  "UA -> CZ",
		SeatsTotal: seats,
		SeatsFree:  seats,
	})
	if err != nil {
		t.Fatalf("CreateRide: %v", err)
	}
	return ride
}

func TestReserveConcurrentOversubscription(t *testing.T) {
	const (
		seats   = 3
		callers = 8
	)
	store := storage.NewMemory()
	ride := newRide(t, store, seats)
	bookings := NewBookings(store)

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		committed int
		rejected  int
	)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			_, _, err := bookings.Reserve(context.Background(), ride.ID, ReservationInput{
				Name:  fmt.Sprintf("Passenger %d", n),
				Phone: fmt.Sprintf("+42060000000%d", n),
				Seats: 1,
			})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				committed++
			default:
				var capErr *domain.CapacityError
				if !errors.As(err, &capErr) {
					t.Errorf("caller %d: unexpected error: %v", n, err)
					return
				}
				rejected++
			}
		}(i)
	}
	wg.Wait()

	if committed != seats {
		t.Fatalf("committed = %d, want exactly %d", committed, seats)
	}
	if rejected != callers-seats {
		t.Fatalf("rejected = %d, want %d", rejected, callers-seats)
	}

	got, err := store.GetRide(context.Background(), ride.ID)
	if err != nil {
		t.Fatalf("GetRide: %v", err)
	}
	if got.SeatsFree != 0 {
		t.Fatalf("seats_free = %d, want 0", got.SeatsFree)
	}
	rows, err := store.ListBookings(context.Background(), ride.ID)
	if err != nil {
		t.Fatalf("ListBookings: %v", err)
	}
	if len(rows) != seats {
		t.Fatalf("bookings = %d, want %d", len(rows), seats)
	}
}

func TestReserveExactRemainingCapacity(t *testing.T) {
	store := storage.NewMemory()
	ride := newRide(t, store, 4)
	bookings := NewBookings(store)

	booking, snapshot, err := bookings.Reserve(context.Background(), ride.ID, ReservationInput{
		Name:  "Full Bus",
		Phone: "+420600000000",
		Seats: 4,
	})
	if err != nil {
		t.Fatalf("Reserve: %v", err)
	}
	if booking.ID == 0 {
		t.Fatal("booking must carry its assigned id")
	}
	if snapshot.SeatsFree != 4 {
		t.Fatalf("returned ride must be the pre-decrement snapshot, got %d", snapshot.SeatsFree)
	}

	got, _ := store.GetRide(context.Background(), ride.ID)
	if got.SeatsFree != 0 {
		t.Fatalf("seats_free = %d, want 0", got.SeatsFree)
	}

	// The ride is now full; one more seat must be rejected.
	_, _, err = bookings.Reserve(context.Background(), ride.ID, ReservationInput{
		Name:  "Late Comer",
		Phone: "+420600000001",
		Seats: 1,
	})
	var capErr *domain.CapacityError
	if !errors.As(err, &capErr) {
		t.Fatalf("expected CapacityError, got %v", err)
	}
	if capErr.Free != 0 {
		t.Fatalf("CapacityError.Free = %d, want 0", capErr.Free)
	}
}

func TestReserveInvalidSeatCount(t *testing.T) {
	store := storage.NewMemory()
	ride := newRide(t, store, 2)
	bookings := NewBookings(store)

	for _, seats := range []int{0, -3} {
		_, _, err := bookings.Reserve(context.Background(), ride.ID, ReservationInput{
			Name:  "Nobody",
			Phone: "+420600000000",
			Seats: seats,
		})
		if !domain.IsValidation(err) {
			t.Fatalf("seats=%d: expected validation error, got %v", seats, err)
		}
	}

	got, _ := store.GetRide(context.Background(), ride.ID)
	if got.SeatsFree != 2 {
		t.Fatalf("seats_free = %d, want 2", got.SeatsFree)
	}
}

func TestReserveUnknownRide(t *testing.T) {
	store := storage.NewMemory()
	bookings := NewBookings(store)

	_, _, err := bookings.Reserve(context.Background(), 404, ReservationInput{
		Name:  "Ghost",
		Phone: "+420600000000",
		Seats: 1,
	})
	if !errors.Is(err, domain.ErrRideNotFound) {
		t.Fatalf("expected ErrRideNotFound, got %v", err)
	}
}

func TestReserveStoresOptionalFieldsAsNull(t *testing.T) {
	store := storage.NewMemory()
	ride := newRide(t, store, 2)
	bookings := NewBookings(store)

	_, _, err := bookings.Reserve(context.Background(), ride.ID, ReservationInput{
		Name:  "No Extras",
		Phone: "+420600000000",
		Seats: 1,
	})
	if err != nil {
		t.Fatalf("Reserve: %v", err)
	}
	rows, _ := store.ListBookings(context.Background(), ride.ID)
	if len(rows) != 1 {
		t.Fatalf("bookings = %d, want 1", len(rows))
	}
	b := rows[0]
	if b.Comment != nil || b.FromCity != nil || b.ToCity != nil {
		t.Fatalf("empty optional fields must store nil: %+v", b)
	}
}
