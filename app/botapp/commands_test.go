package botapp

import (
	"strings"
	"testing"

	coretelegram "github.com/m3rciful/ridebot/core/telegram"
	"github.com/m3rciful/ridebot/core/telegram/middleware"
)

func TestManagerCommandsCarryTheGateFlag(t *testing.T) {
	app, _ := newTestApp(t)
	reg := coretelegram.NewRegistry()
	app.registerCommands(reg)

	for _, name := range []string{"/add_ride", "/ride_stats", "/parcels_stats"} {
		_, cmd, ok := reg.LookupCommand(name)
		if !ok {
			t.Fatalf("%s not registered", name)
		}
		if !cmd.ManagerOnly {
			t.Fatalf("%s must be manager-only", name)
		}
	}
	for _, name := range []string{"/rides", "/book", "/parcel", "/cancel", "/help"} {
		_, cmd, ok := reg.LookupCommand(name)
		if !ok {
			t.Fatalf("%s not registered", name)
		}
		if cmd.ManagerOnly {
			t.Fatalf("%s must stay public", name)
		}
	}
}

func TestManagerGateRejectsBeforeHandlerRuns(t *testing.T) {
	app, _ := newTestApp(t)
	reg := coretelegram.NewRegistry()
	app.registerCommands(reg)
	_, cmd, ok := reg.LookupCommand("/add_ride")
	if !ok {
		t.Fatal("/add_ride not registered")
	}

	// Same wrapping the command router applies to manager-only commands.
	gated := middleware.ManagerOnlyMiddleware(middleware.ManagerOptions{
		Roles:    app.roles,
		OnReject: app.denyManager,
	})(cmd.Handler)

	c := newStubContext(77)
	if err := gated(c); err != nil {
		t.Fatalf("gated handler: %v", err)
	}
	if len(c.sent) != 1 || c.sent[0] != managerDeniedText {
		t.Fatalf("expected only the denial text, got %q", c.sent)
	}
	if app.engine.InProgress(77) {
		t.Fatal("rejected command must not reach the handler")
	}

	app.roles.Grant(77)
	c = newStubContext(77)
	if err := gated(c); err != nil {
		t.Fatalf("gated handler: %v", err)
	}
	if len(c.sent) != 1 || !strings.Contains(c.sent[0], "YYYY-MM-DD") {
		t.Fatalf("expected the add-ride prompt, got %q", c.sent)
	}
	if !app.engine.InProgress(77) {
		t.Fatal("granted manager must reach the handler")
	}
}
