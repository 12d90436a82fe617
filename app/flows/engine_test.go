package flows

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/m3rciful/ridebot/app/access"
	"github.com/m3rciful/ridebot/app/domain"
	"github.com/m3rciful/ridebot/app/models"
	"github.com/m3rciful/ridebot/app/services"
	"github.com/m3rciful/ridebot/app/storage"
	"github.com/m3rciful/ridebot/core/state"
)

const testManagerKey = "sesame"

type testEnv struct {
	engine *Engine
	store  *storage.Memory
	roles  *access.Service
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	store := storage.NewMemory()
	roles := access.NewService()
	engine, err := NewEngine(state.NewMemoryManager(),
		NewAddRideFlow(services.NewRides(store), roles),
		NewBookingFlow(services.NewBookings(store)),
		NewLoginFlow(roles, testManagerKey),
		NewParcelFlow(services.NewParcels(store)),
	)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	return &testEnv{engine: engine, store: store, roles: roles}
}

func (e *testEnv) addRide(t *testing.T, seats int) models.Ride {
	t.Helper()
	ride, err := e.store.CreateRide(context.Background(), models.Ride{
		Date:       time.Date(2025, 10, 25, 0, 0, 0, 0, time.UTC),
		Direction:  "UA -> CZ",
		SeatsTotal: seats,
		SeatsFree:  seats,
	})
	if err != nil {
		t.Fatalf("CreateRide: %v", err)
	}
	return ride
}

func turn(t *testing.T, e *Engine, userID int64, input string) Reply {
	t.Helper()
	reply, handled, err := e.HandleTurn(context.Background(), userID, input)
	if !handled {
		t.Fatalf("turn %q: not handled, no active flow", input)
	}
	if err != nil {
		t.Fatalf("turn %q: %v", input, err)
	}
	return reply
}

func startBooking(t *testing.T, e *testEnv, userID, rideID int64) Reply {
	t.Helper()
	reply, err := e.engine.Start(context.Background(), userID, BookingFlowName, map[string]interface{}{
		"ride_id": rideID,
	})
	if err != nil {
		t.Fatalf("Start booking: %v", err)
	}
	return reply
}

func TestBookingFlowReservesSeats(t *testing.T) {
	env := newTestEnv(t)
	ride := env.addRide(t, 5)
	userID := int64(100)

	reply := startBooking(t, env, userID, ride.ID)
	if !strings.Contains(reply.Text, "departing from") {
		t.Fatalf("unexpected entry prompt: %q", reply.Text)
	}
	if !env.engine.InProgress(userID) {
		t.Fatal("flow should be in progress after start")
	}

	turn(t, env.engine, userID, "Prague")
	turn(t, env.engine, userID, "Lviv")
	turn(t, env.engine, userID, "+420123456789")
	turn(t, env.engine, userID, "Shevchenko Taras")
	turn(t, env.engine, userID, "2")
	reply = turn(t, env.engine, userID, "-")

	if !strings.Contains(reply.Text, "Booking confirmed") {
		t.Fatalf("expected confirmation, got %q", reply.Text)
	}
	if env.engine.InProgress(userID) {
		t.Fatal("flow should be finished after commit")
	}

	got, err := env.store.GetRide(context.Background(), ride.ID)
	if err != nil {
		t.Fatalf("GetRide: %v", err)
	}
	if got.SeatsFree != 3 {
		t.Fatalf("seats_free = %d, want 3", got.SeatsFree)
	}

	bookings, err := env.store.ListBookings(context.Background(), ride.ID)
	if err != nil {
		t.Fatalf("ListBookings: %v", err)
	}
	if len(bookings) != 1 {
		t.Fatalf("bookings = %d, want 1", len(bookings))
	}
	b := bookings[0]
	if b.Name != "Shevchenko Taras" || b.Seats != 2 {
		t.Fatalf("unexpected booking: %+v", b)
	}
	if b.Comment != nil {
		t.Fatalf("skipped comment should store nil, got %q", *b.Comment)
	}
	if b.FromCity == nil || *b.FromCity != "Prague" {
		t.Fatalf("unexpected from_city: %v", b.FromCity)
	}
}

func TestBookingSeatValidationLoops(t *testing.T) {
	env := newTestEnv(t)
	ride := env.addRide(t, 5)
	userID := int64(101)

	startBooking(t, env, userID, ride.ID)
	turn(t, env.engine, userID, "Prague")
	turn(t, env.engine, userID, "Lviv")
	turn(t, env.engine, userID, "+420000000000")
	turn(t, env.engine, userID, "Name Surname")

	for _, bad := range []string{"zero", "-1", "0", "1.5"} {
		reply := turn(t, env.engine, userID, bad)
		if !strings.Contains(reply.Text, "positive whole number") {
			t.Fatalf("input %q: expected validation reprompt, got %q", bad, reply.Text)
		}
		if !env.engine.InProgress(userID) {
			t.Fatalf("input %q: flow must stay active after rejection", bad)
		}
	}

	reply := turn(t, env.engine, userID, "1")
	if !strings.Contains(reply.Text, "comment") {
		t.Fatalf("expected comment prompt after valid seats, got %q", reply.Text)
	}
}

func TestBookingCapacityExhaustedAtCommit(t *testing.T) {
	env := newTestEnv(t)
	ride := env.addRide(t, 1)
	userID := int64(102)

	startBooking(t, env, userID, ride.ID)
	turn(t, env.engine, userID, "Prague")
	turn(t, env.engine, userID, "Lviv")
	turn(t, env.engine, userID, "+420000000000")
	turn(t, env.engine, userID, "Name Surname")
	turn(t, env.engine, userID, "2")

	reply, handled, err := env.engine.HandleTurn(context.Background(), userID, "-")
	if !handled {
		t.Fatal("terminal turn must be handled")
	}
	var capErr *domain.CapacityError
	if !errors.As(err, &capErr) {
		t.Fatalf("expected CapacityError, got %v", err)
	}
	if capErr.Free != 1 {
		t.Fatalf("CapacityError.Free = %d, want 1", capErr.Free)
	}
	if !strings.Contains(reply.Text, "Only 1 free") {
		t.Fatalf("unexpected failure text: %q", reply.Text)
	}
	if env.engine.InProgress(userID) {
		t.Fatal("session must be cleared after failed commit")
	}

	got, _ := env.store.GetRide(context.Background(), ride.ID)
	if got.SeatsFree != 1 {
		t.Fatalf("seats_free = %d, want 1 (nothing written)", got.SeatsFree)
	}
	bookings, _ := env.store.ListBookings(context.Background(), ride.ID)
	if len(bookings) != 0 {
		t.Fatalf("bookings = %d, want 0", len(bookings))
	}
}

func TestBookingZeroSeatRide(t *testing.T) {
	env := newTestEnv(t)
	ride := env.addRide(t, 0)
	userID := int64(103)

	startBooking(t, env, userID, ride.ID)
	turn(t, env.engine, userID, "Prague")
	turn(t, env.engine, userID, "Lviv")
	turn(t, env.engine, userID, "+420000000000")
	turn(t, env.engine, userID, "Name Surname")
	turn(t, env.engine, userID, "1")

	reply, _, err := env.engine.HandleTurn(context.Background(), userID, "-")
	var capErr *domain.CapacityError
	if !errors.As(err, &capErr) {
		t.Fatalf("expected CapacityError, got %v", err)
	}
	if !strings.Contains(reply.Text, "Only 0 free") {
		t.Fatalf("unexpected failure text: %q", reply.Text)
	}
}

func TestAddRideDeniedForNonManager(t *testing.T) {
	env := newTestEnv(t)
	userID := int64(104)

	reply, err := env.engine.Start(context.Background(), userID, AddRideFlowName, nil)
	var authErr *domain.AuthorizationError
	if !errors.As(err, &authErr) {
		t.Fatalf("expected AuthorizationError, got %v", err)
	}
	if reply.Text != "Only a manager can do that." {
		t.Fatalf("unexpected denial text: %q", reply.Text)
	}
	if env.engine.InProgress(userID) {
		t.Fatal("denied start must not open a session")
	}
}

func TestAddRideFlowCreatesRide(t *testing.T) {
	env := newTestEnv(t)
	userID := int64(105)
	env.roles.Grant(userID)

	reply, err := env.engine.Start(context.Background(), userID, AddRideFlowName, nil)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if !strings.Contains(reply.Text, "YYYY-MM-DD") {
		t.Fatalf("unexpected date prompt: %q", reply.Text)
	}

	// Wrong format self-loops without advancing.
	reply = turn(t, env.engine, userID, "25-10-2025")
	if !strings.Contains(reply.Text, "YYYY-MM-DD") {
		t.Fatalf("expected date reprompt, got %q", reply.Text)
	}

	turn(t, env.engine, userID, "2025-10-25")
	turn(t, env.engine, userID, "UA -> CZ")
	reply = turn(t, env.engine, userID, "7")
	if !strings.Contains(reply.Text, "Ride added") {
		t.Fatalf("expected success, got %q", reply.Text)
	}

	rides, err := env.store.ListRides(context.Background())
	if err != nil {
		t.Fatalf("ListRides: %v", err)
	}
	if len(rides) != 1 {
		t.Fatalf("rides = %d, want 1", len(rides))
	}
	r := rides[0]
	if r.Direction != "UA -> CZ" || r.SeatsTotal != 7 || r.SeatsFree != 7 {
		t.Fatalf("unexpected ride: %+v", r)
	}
	if r.Date.Format("2006-01-02") != "2025-10-25" {
		t.Fatalf("unexpected date: %v", r.Date)
	}
}

func TestManagerLoginFlow(t *testing.T) {
	env := newTestEnv(t)
	userID := int64(106)

	if _, err := env.engine.Start(context.Background(), userID, LoginFlowName, nil); err != nil {
		t.Fatalf("Start: %v", err)
	}
	reply := turn(t, env.engine, userID, "wrong-key")
	if reply.Text != "Wrong manager key." {
		t.Fatalf("unexpected reply: %q", reply.Text)
	}
	if env.roles.IsManager(userID) {
		t.Fatal("wrong key must not grant the role")
	}
	if env.engine.InProgress(userID) {
		t.Fatal("login attempt must clear the session either way")
	}

	if _, err := env.engine.Start(context.Background(), userID, LoginFlowName, nil); err != nil {
		t.Fatalf("Start: %v", err)
	}
	// Comparison is case-sensitive.
	reply = turn(t, env.engine, userID, strings.ToUpper(testManagerKey))
	if reply.Text != "Wrong manager key." {
		t.Fatalf("case-insensitive match must fail, got %q", reply.Text)
	}

	if _, err := env.engine.Start(context.Background(), userID, LoginFlowName, nil); err != nil {
		t.Fatalf("Start: %v", err)
	}
	reply = turn(t, env.engine, userID, testManagerKey)
	if reply.Text != "Logged in as manager." {
		t.Fatalf("unexpected reply: %q", reply.Text)
	}
	if reply.Menu != MenuManager {
		t.Fatal("successful login must switch to the manager menu")
	}
	if !env.roles.IsManager(userID) {
		t.Fatal("role must be granted after the correct key")
	}
}

func TestEmptyConfiguredKeyNeverMatches(t *testing.T) {
	roles := access.NewService()
	engine, err := NewEngine(state.NewMemoryManager(), NewLoginFlow(roles, ""))
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	userID := int64(107)
	if _, err := engine.Start(context.Background(), userID, LoginFlowName, nil); err != nil {
		t.Fatalf("Start: %v", err)
	}
	reply := turn(t, engine, userID, "")
	if reply.Text != "Wrong manager key." {
		t.Fatalf("empty configured key must reject everyone, got %q", reply.Text)
	}
	if roles.IsManager(userID) {
		t.Fatal("role must not be granted")
	}
}

func TestCancelMidFlowAndIdle(t *testing.T) {
	env := newTestEnv(t)
	ride := env.addRide(t, 5)
	userID := int64(108)

	startBooking(t, env, userID, ride.ID)
	turn(t, env.engine, userID, "Prague")

	reply := turn(t, env.engine, userID, "/cancel")
	if reply.Text != "Operation cancelled." {
		t.Fatalf("unexpected cancel reply: %q", reply.Text)
	}
	if env.engine.InProgress(userID) {
		t.Fatal("cancel must clear the session")
	}

	// A second cancel has nothing to act on.
	reply = env.engine.Cancel(context.Background(), userID)
	if reply.Text != "There is no active operation to cancel." {
		t.Fatalf("unexpected idle cancel reply: %q", reply.Text)
	}

	bookings, _ := env.store.ListBookings(context.Background(), ride.ID)
	if len(bookings) != 0 {
		t.Fatalf("cancelled flow must write nothing, got %d bookings", len(bookings))
	}
}

func TestStartSupersedesActiveFlow(t *testing.T) {
	env := newTestEnv(t)
	ride := env.addRide(t, 5)
	userID := int64(109)

	startBooking(t, env, userID, ride.ID)
	turn(t, env.engine, userID, "Prague")

	// Starting another flow drops the partial booking state.
	reply, err := env.engine.Start(context.Background(), userID, ParcelFlowName, nil)
	if err != nil {
		t.Fatalf("Start parcel: %v", err)
	}
	if !strings.Contains(reply.Text, "Registering a parcel") {
		t.Fatalf("unexpected prompt: %q", reply.Text)
	}

	turn(t, env.engine, userID, "UA -> CZ")
	turn(t, env.engine, userID, "Sender Name")
	turn(t, env.engine, userID, "+420111111111")
	turn(t, env.engine, userID, "Receiver Name")
	turn(t, env.engine, userID, "+380222222222")
	turn(t, env.engine, userID, "Main office")
	reply = turn(t, env.engine, userID, "fragile")
	if !strings.Contains(reply.Text, "Parcel registered") {
		t.Fatalf("unexpected reply: %q", reply.Text)
	}

	bookings, _ := env.store.ListBookings(context.Background(), ride.ID)
	if len(bookings) != 0 {
		t.Fatalf("superseded booking flow must not commit, got %d", len(bookings))
	}
	totals, err := env.store.CountParcelsByDirection(context.Background())
	if err != nil {
		t.Fatalf("CountParcelsByDirection: %v", err)
	}
	if len(totals) != 1 || totals[0].Count != 1 || totals[0].Direction != "UA -> CZ" {
		t.Fatalf("unexpected parcel totals: %+v", totals)
	}
}

func TestHandleTurnIgnoredWhenIdle(t *testing.T) {
	env := newTestEnv(t)
	_, handled, err := env.engine.HandleTurn(context.Background(), 110, "hello")
	if err != nil {
		t.Fatalf("HandleTurn: %v", err)
	}
	if handled {
		t.Fatal("idle user input must not be consumed by the engine")
	}
}

func TestEngineRejectsBrokenTables(t *testing.T) {
	flow := &Flow{
		Name:  "broken",
		Entry: "broken:start",
		Steps: map[state.State]Step{
			"broken:start": {Prompt: "?", Field: "x", Next: "broken:missing"},
		},
	}
	if _, err := NewEngine(state.NewMemoryManager(), flow); err == nil {
		t.Fatal("expected error for dangling Next state")
	}

	dup := &Flow{
		Name:  "dup",
		Entry: "dup:start",
		Steps: map[state.State]Step{"dup:start": {Prompt: "?"}},
	}
	dup2 := &Flow{
		Name:  "dup2",
		Entry: "dup:start",
		Steps: map[state.State]Step{"dup:start": {Prompt: "?"}},
	}
	if _, err := NewEngine(state.NewMemoryManager(), dup, dup2); err == nil {
		t.Fatal("expected error for a state registered by two flows")
	}
}
