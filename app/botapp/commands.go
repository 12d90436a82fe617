package botapp

import (
	"errors"
	"strconv"
	"strings"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/ridebot/app/domain"
	"github.com/m3rciful/ridebot/app/flows"
	"github.com/m3rciful/ridebot/app/models"
	coretelegram "github.com/m3rciful/ridebot/core/telegram"
	"github.com/m3rciful/ridebot/core/telegram/commands"
	tghelpers "github.com/m3rciful/ridebot/core/telegram/helpers"
)

const (
	storeFailureText  = "Temporary failure, please try again later."
	managerDeniedText = "Only a manager can do that."
)

func (a *App) registerCommands(reg *coretelegram.Registry) {
	reg.RegisterCommand("/start", commands.Command{
		Handler:     a.handleStart,
		Description: "Show the welcome message",
		Hidden:      true,
	})
	reg.RegisterCommand("/help", commands.Command{
		Handler:     a.handleHelp,
		Description: "List available commands",
	})
	reg.RegisterCommand("/rides", commands.Command{
		Handler:     a.handleRides,
		Description: "Show scheduled rides",
		Aliases:     []string{"schedule"},
	})
	reg.RegisterCommand("/book", commands.Command{
		Handler:     a.handleBook,
		Description: "Book seats on a ride",
	})
	reg.RegisterCommand("/parcel", commands.Command{
		Handler:     a.handleParcel,
		Description: "Register a parcel shipment",
	})
	reg.RegisterCommand("/cancel", commands.Command{
		Handler:     a.handleCancel,
		Description: "Cancel the current operation",
	})
	reg.RegisterCommand("/manager_login", commands.Command{
		Handler:     a.handleManagerLogin,
		Description: "Log in as a manager",
		Hidden:      true,
	})
	reg.RegisterCommand("/manager_logout", commands.Command{
		Handler:     a.handleManagerLogout,
		Description: "Drop manager privileges",
		Hidden:      true,
	})
	reg.RegisterCommand("/add_ride", commands.Command{
		Handler:     a.handleAddRide,
		Description: "Schedule a new ride",
		ManagerOnly: true,
	})
	reg.RegisterCommand("/ride_stats", commands.Command{
		Handler:     a.handleRideStats,
		Description: "Show bookings for a ride",
		ManagerOnly: true,
	})
	reg.RegisterCommand("/parcels_stats", commands.Command{
		Handler:     a.handleParcelsStats,
		Description: "Show parcel totals by direction",
		ManagerOnly: true,
	})
}

func (a *App) menuFor(userID int64) flows.Menu {
	if a.roles.IsManager(userID) {
		return flows.MenuManager
	}
	return flows.MenuPublic
}

func (a *App) handleStart(c tele.Context) error {
	return a.sendReply(c, flows.Reply{
		Text: "Welcome! I can show the ride schedule, book seats and register parcels.\n" +
			"Use the menu below or /help to see what I can do.",
		Menu: a.menuFor(c.Sender().ID),
	})
}

func (a *App) handleHelp(c tele.Context) error {
	lines := []string{
		"/rides - show scheduled rides",
		"/book - book seats on a ride",
		"/parcel - register a parcel shipment",
		"/cancel - cancel the current operation",
	}
	if a.roles.IsManager(c.Sender().ID) {
		lines = append(lines,
			"/add_ride - schedule a new ride",
			"/ride_stats - show bookings for a ride",
			"/parcels_stats - show parcel totals",
			"/manager_logout - drop manager privileges",
		)
	}
	return a.sendReply(c, flows.Reply{
		Text: strings.Join(lines, "\n"),
		Menu: a.menuFor(c.Sender().ID),
	})
}

func (a *App) handleRides(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	rides, err := a.rides.List(ctx)
	if err != nil {
		_ = tghelpers.SendText(c, storeFailureText)
		return err
	}
	return tghelpers.SendText(c, rideListText(rides))
}

func (a *App) handleBook(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)

	if payload := strings.TrimSpace(c.Message().Payload); payload != "" {
		rideID, err := strconv.ParseInt(payload, 10, 64)
		if err != nil {
			return tghelpers.SendText(c, "Ride id must be a number, e.g. /book 3")
		}
		return a.startBooking(c, rideID)
	}

	rides, err := a.rides.ListOpen(ctx)
	if err != nil {
		_ = tghelpers.SendText(c, storeFailureText)
		return err
	}
	if len(rides) == 0 {
		return tghelpers.SendText(c, "No rides with free seats right now.")
	}
	return a.sendReply(c, flows.Reply{
		Text:    "Pick a ride to book:",
		Buttons: rideButtons(rides, bookRideAction),
	})
}

func (a *App) handleParcel(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	reply, err := a.engine.Start(ctx, c.Sender().ID, flows.ParcelFlowName, nil)
	if sendErr := a.sendReply(c, reply); sendErr != nil {
		return sendErr
	}
	return err
}

func (a *App) handleCancel(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	return a.sendReply(c, a.engine.Cancel(ctx, c.Sender().ID))
}

func (a *App) handleManagerLogin(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	if a.roles.IsManager(c.Sender().ID) {
		return tghelpers.SendText(c, "You are already logged in as a manager.")
	}
	reply, err := a.engine.Start(ctx, c.Sender().ID, flows.LoginFlowName, nil)
	if sendErr := a.sendReply(c, reply); sendErr != nil {
		return sendErr
	}
	return err
}

func (a *App) handleManagerLogout(c tele.Context) error {
	if !a.roles.Revoke(c.Sender().ID) {
		return tghelpers.SendText(c, "You are not logged in as a manager.")
	}
	return a.sendReply(c, flows.Reply{
		Text: "Manager privileges dropped.",
		Menu: flows.MenuPublic,
	})
}

func (a *App) handleAddRide(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	reply, err := a.engine.Start(ctx, c.Sender().ID, flows.AddRideFlowName, nil)
	if sendErr := a.sendReply(c, reply); sendErr != nil {
		return sendErr
	}
	return err
}

func (a *App) handleRideStats(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)

	if payload := strings.TrimSpace(c.Message().Payload); payload != "" {
		rideID, err := strconv.ParseInt(payload, 10, 64)
		if err != nil {
			return tghelpers.SendText(c, "Ride id must be a number, e.g. /ride_stats 3")
		}
		return a.sendRideReport(c, rideID)
	}

	rides, err := a.rides.List(ctx)
	if err != nil {
		_ = tghelpers.SendText(c, storeFailureText)
		return err
	}
	if len(rides) == 0 {
		return tghelpers.SendText(c, "No rides scheduled yet.")
	}
	return a.sendReply(c, flows.Reply{
		Text:    "Pick a ride:",
		Buttons: rideButtons(rides, rideStatsAction),
	})
}

func (a *App) handleParcelsStats(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	totals, err := a.stats.ParcelTotals(ctx)
	if err != nil {
		_ = tghelpers.SendText(c, storeFailureText)
		return err
	}
	return tghelpers.SendText(c, parcelTotalsText(totals))
}

// startBooking verifies the ride before the flow collects passenger
// details. Capacity is re-checked under the ride lock at commit time.
func (a *App) startBooking(c tele.Context, rideID int64) error {
	ctx := tghelpers.BuildContext(c)
	ride, err := a.rides.Get(ctx, rideID)
	if errors.Is(err, domain.ErrRideNotFound) {
		return tghelpers.SendText(c, "Ride not found or already cancelled.")
	}
	if err != nil {
		_ = tghelpers.SendText(c, storeFailureText)
		return err
	}
	if ride.SeatsFree <= 0 {
		return tghelpers.SendText(c, "No free seats left on this ride.")
	}
	reply, err := a.engine.Start(ctx, c.Sender().ID, flows.BookingFlowName, map[string]interface{}{
		"ride_id": rideID,
	})
	if sendErr := a.sendReply(c, reply); sendErr != nil {
		return sendErr
	}
	return err
}

func (a *App) sendRideReport(c tele.Context, rideID int64) error {
	ctx := tghelpers.BuildContext(c)
	rep, err := a.stats.RideReport(ctx, rideID)
	if errors.Is(err, domain.ErrRideNotFound) {
		return tghelpers.SendText(c, "Ride not found or already cancelled.")
	}
	if err != nil {
		_ = tghelpers.SendText(c, storeFailureText)
		return err
	}
	return tghelpers.SendText(c, rideReportText(rep))
}

func (a *App) denyManager(c tele.Context) error {
	return tghelpers.SendText(c, managerDeniedText)
}

func rideButtons(rides []models.Ride, action string) []flows.Button {
	buttons := make([]flows.Button, 0, len(rides))
	for _, r := range rides {
		buttons = append(buttons, flows.Button{
			Label:   rideLine(r),
			Action:  action,
			Payload: strconv.FormatInt(r.ID, 10),
		})
	}
	return buttons
}
