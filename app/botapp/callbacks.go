package botapp

import (
	tele "gopkg.in/telebot.v4"

	coretelegram "github.com/m3rciful/ridebot/core/telegram"
	"github.com/m3rciful/ridebot/core/telegram/callbacks"
	tghelpers "github.com/m3rciful/ridebot/core/telegram/helpers"
)

const (
	bookRideAction  = "book_ride"
	rideStatsAction = "ride_stats_select"
)

func (a *App) registerCallbacks(reg *coretelegram.Registry) error {
	if err := reg.RegisterCallback(bookRideAction, a.onBookRide); err != nil {
		return err
	}
	return reg.RegisterCallback(rideStatsAction, a.onRideStatsSelect)
}

func (a *App) onBookRide(c tele.Context) error {
	rideID, err := callbacks.PayloadInt64(c)
	if err != nil {
		return tghelpers.SendText(c, "Malformed ride selection.")
	}
	return a.startBooking(c, rideID)
}

// onRideStatsSelect re-checks the role: a well-formed token does not
// grant access by itself.
func (a *App) onRideStatsSelect(c tele.Context) error {
	if !a.roles.IsManager(c.Sender().ID) {
		return tghelpers.SendText(c, managerDeniedText)
	}
	rideID, err := callbacks.PayloadInt64(c)
	if err != nil {
		return tghelpers.SendText(c, "Malformed ride selection.")
	}
	return a.sendRideReport(c, rideID)
}
