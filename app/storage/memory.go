package storage

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/m3rciful/ridebot/app/domain"
	"github.com/m3rciful/ridebot/app/models"
)

// Memory implements Store with plain maps and a per-ride mutex. It backs
// tests and local development; the lock contract matches Postgres:
// reservations on the same ride serialize, different rides proceed
// independently.
type Memory struct {
	mu        sync.RWMutex
	rides     map[int64]*models.Ride
	bookings  map[int64][]models.Booking
	parcels   []models.Parcel
	rideLocks map[int64]*sync.Mutex

	nextRideID    int64
	nextBookingID int64
	nextParcelID  int64
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		rides:     make(map[int64]*models.Ride),
		bookings:  make(map[int64][]models.Booking),
		rideLocks: make(map[int64]*sync.Mutex),
	}
}

// CreateRide inserts a new ride and assigns it an id.
func (m *Memory) CreateRide(_ context.Context, ride models.Ride) (models.Ride, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextRideID++
	ride.ID = m.nextRideID
	copied := ride
	m.rides[ride.ID] = &copied
	m.rideLocks[ride.ID] = &sync.Mutex{}
	return ride, nil
}

// ListRides returns all rides ordered by date then id.
func (m *Memory) ListRides(_ context.Context) ([]models.Ride, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.collectRides(func(models.Ride) bool { return true }), nil
}

// ListOpenRides returns rides with free seats.
func (m *Memory) ListOpenRides(_ context.Context) ([]models.Ride, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.collectRides(func(r models.Ride) bool { return r.SeatsFree > 0 }), nil
}

func (m *Memory) collectRides(keep func(models.Ride) bool) []models.Ride {
	out := make([]models.Ride, 0, len(m.rides))
	for _, r := range m.rides {
		if keep(*r) {
			out = append(out, *r)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// GetRide returns a ride snapshot by id.
func (m *Memory) GetRide(_ context.Context, id int64) (models.Ride, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.rides[id]
	if !ok {
		return models.Ride{}, domain.ErrRideNotFound
	}
	return *r, nil
}

// ListBookings returns bookings for a ride in insertion order.
func (m *Memory) ListBookings(_ context.Context, rideID int64) ([]models.Booking, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]models.Booking(nil), m.bookings[rideID]...), nil
}

// CreateParcel appends a parcel record.
func (m *Memory) CreateParcel(_ context.Context, p models.Parcel) (models.Parcel, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextParcelID++
	p.ID = m.nextParcelID
	p.CreatedAt = time.Now().UTC()
	m.parcels = append(m.parcels, p)
	return p, nil
}

// CountParcelsByDirection groups stored parcels by direction string.
func (m *Memory) CountParcelsByDirection(_ context.Context) ([]models.DirectionCount, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	byDir := make(map[string]int)
	for _, p := range m.parcels {
		byDir[p.Direction]++
	}
	dirs := make([]string, 0, len(byDir))
	for d := range byDir {
		dirs = append(dirs, d)
	}
	sort.Strings(dirs)
	out := make([]models.DirectionCount, 0, len(dirs))
	for _, d := range dirs {
		out = append(out, models.DirectionCount{Direction: d, Count: byDir[d]})
	}
	return out, nil
}

// WithRideLock serializes callers on the ride's own mutex. Writes stage in
// the ReserveTx and apply only when fn returns nil, mirroring the rollback
// behavior of the SQL implementation.
func (m *Memory) WithRideLock(_ context.Context, rideID int64, fn func(tx ReserveTx) error) error {
	m.mu.RLock()
	lock, ok := m.rideLocks[rideID]
	m.mu.RUnlock()
	if !ok {
		return domain.ErrRideNotFound
	}

	lock.Lock()
	defer lock.Unlock()

	m.mu.RLock()
	ride, ok := m.rides[rideID]
	m.mu.RUnlock()
	if !ok {
		return domain.ErrRideNotFound
	}

	tx := &memReserveTx{store: m, ride: *ride}
	if err := fn(tx); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.bookings[rideID] = append(m.bookings[rideID], tx.staged...)
	m.rides[rideID].SeatsFree -= tx.taken
	return nil
}

type memReserveTx struct {
	store  *Memory
	ride   models.Ride
	staged []models.Booking
	taken  int
}

func (t *memReserveTx) Ride() models.Ride { return t.ride }

func (t *memReserveTx) InsertBooking(_ context.Context, b models.Booking) (models.Booking, error) {
	// Ids come from a sequence, so a rollback leaves a gap just like the
	// SQL implementation.
	t.store.mu.Lock()
	t.store.nextBookingID++
	b.ID = t.store.nextBookingID
	t.store.mu.Unlock()
	b.CreatedAt = time.Now().UTC()
	t.staged = append(t.staged, b)
	return b, nil
}

func (t *memReserveTx) TakeSeats(_ context.Context, n int) error {
	t.taken += n
	return nil
}
