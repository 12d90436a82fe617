package botapp

import (
	"context"
	"strconv"
	"strings"
	"testing"
	"time"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/ridebot/app/models"
	coretelegram "github.com/m3rciful/ridebot/core/telegram"
)

func seedRideForCallback(t *testing.T, app *App) models.Ride {
	t.Helper()
	ride, err := app.store.CreateRide(context.Background(), models.Ride{
		Date:       time.Date(2025, 10, 25, 0, 0, 0, 0, time.UTC),
		Direction:  "UA -> CZ",
		SeatsTotal: 8,
		SeatsFree:  8,
	})
	if err != nil {
		t.Fatalf("CreateRide: %v", err)
	}
	return ride
}

func statsCallback(t *testing.T, app *App, c tele.Context) error {
	t.Helper()
	reg := coretelegram.NewRegistry()
	if err := app.registerCallbacks(reg); err != nil {
		t.Fatalf("registerCallbacks: %v", err)
	}
	handler, ok := reg.GetCallback(rideStatsAction)
	if !ok {
		t.Fatalf("callback %q not registered", rideStatsAction)
	}
	return handler(c)
}

func TestRideStatsCallbackDeniedForNonManager(t *testing.T) {
	app, _ := newTestApp(t)
	ride := seedRideForCallback(t, app)

	// The token is well formed and points at a real ride; the role check
	// must still reject the press.
	c := newStubContext(55)
	c.callback = &tele.Callback{Data: "ride_stats_select|" + strconv.FormatInt(ride.ID, 10)}

	if err := statsCallback(t, app, c); err != nil {
		t.Fatalf("callback: %v", err)
	}
	if len(c.sent) != 1 || c.sent[0] != managerDeniedText {
		t.Fatalf("expected only the denial text, got %q", c.sent)
	}
}

func TestRideStatsCallbackServesManager(t *testing.T) {
	app, _ := newTestApp(t)
	ride := seedRideForCallback(t, app)
	app.roles.Grant(55)

	c := newStubContext(55)
	c.callback = &tele.Callback{Data: "ride_stats_select|1"}

	if err := statsCallback(t, app, c); err != nil {
		t.Fatalf("callback: %v", err)
	}
	if len(c.sent) != 1 {
		t.Fatalf("expected one message, got %q", c.sent)
	}
	if !strings.Contains(c.sent[0], ride.Direction) || !strings.Contains(c.sent[0], "No bookings yet.") {
		t.Fatalf("expected the ride report, got %q", c.sent[0])
	}
}

func TestRideStatsCallbackMalformedPayload(t *testing.T) {
	app, _ := newTestApp(t)
	app.roles.Grant(55)

	c := newStubContext(55)
	c.callback = &tele.Callback{Data: "ride_stats_select|garbage"}

	if err := statsCallback(t, app, c); err != nil {
		t.Fatalf("callback: %v", err)
	}
	if len(c.sent) != 1 || !strings.Contains(c.sent[0], "Malformed") {
		t.Fatalf("expected the malformed-selection text, got %q", c.sent)
	}
}

func TestBookRideCallbackStartsBookingFlow(t *testing.T) {
	app, _ := newTestApp(t)
	seedRideForCallback(t, app)

	c := newStubContext(56)
	c.callback = &tele.Callback{Data: "book_ride|1"}

	reg := coretelegram.NewRegistry()
	if err := app.registerCallbacks(reg); err != nil {
		t.Fatalf("registerCallbacks: %v", err)
	}
	handler, ok := reg.GetCallback(bookRideAction)
	if !ok {
		t.Fatalf("callback %q not registered", bookRideAction)
	}
	if err := handler(c); err != nil {
		t.Fatalf("callback: %v", err)
	}
	if len(c.sent) != 1 || !strings.Contains(c.sent[0], "departing from") {
		t.Fatalf("expected the booking entry prompt, got %q", c.sent)
	}
	if !app.engine.InProgress(56) {
		t.Fatal("booking flow must be active after the selection")
	}
}
