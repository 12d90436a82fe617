package botapp

import (
	"fmt"
	"strings"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/ridebot/app/flows"
	"github.com/m3rciful/ridebot/app/models"
	"github.com/m3rciful/ridebot/app/services"
	"github.com/m3rciful/ridebot/core/telegram/format"
	tghelpers "github.com/m3rciful/ridebot/core/telegram/helpers"
	"github.com/m3rciful/ridebot/core/telegram/keyboard"
)

const dateLayout = "2006-01-02"

func publicMenu() *tele.ReplyMarkup {
	return keyboard.ReplyButtons(
		[]string{"/rides", "/book"},
		[]string{"/parcel", "/help"},
	)
}

func managerMenu() *tele.ReplyMarkup {
	return keyboard.ReplyButtons(
		[]string{"/rides", "/book", "/parcel"},
		[]string{"/add_ride", "/ride_stats", "/parcels_stats"},
		[]string{"/help", "/manager_logout"},
	)
}

func replyMarkup(r flows.Reply) *tele.ReplyMarkup {
	if len(r.Buttons) > 0 {
		btns := make([]keyboard.InlineBtn, len(r.Buttons))
		for i, b := range r.Buttons {
			btns[i] = keyboard.InlineBtn{Text: b.Label, Unique: b.Action, Data: b.Payload}
		}
		return keyboard.InlineButtons(btns)
	}
	switch r.Menu {
	case flows.MenuPublic:
		return publicMenu()
	case flows.MenuManager:
		return managerMenu()
	}
	return nil
}

// sendReply renders a flow reply into a Telegram message.
func (a *App) sendReply(c tele.Context, r flows.Reply) error {
	if r.Text == "" {
		return nil
	}
	if markup := replyMarkup(r); markup != nil {
		return tghelpers.SendText(c, r.Text, &tele.SendOptions{ReplyMarkup: markup})
	}
	return tghelpers.SendText(c, r.Text)
}

func rideLine(r models.Ride) string {
	return fmt.Sprintf("#%d  %s  %s  seats free: %d/%d",
		r.ID, r.Date.Format(dateLayout), r.Direction, r.SeatsFree, r.SeatsTotal)
}

func rideListText(rides []models.Ride) string {
	if len(rides) == 0 {
		return "No rides scheduled yet."
	}
	var b strings.Builder
	b.WriteString("Scheduled rides:\n")
	for _, r := range rides {
		b.WriteString(rideLine(r))
		b.WriteByte('\n')
	}
	return strings.TrimRight(b.String(), "\n")
}

func rideReportText(rep services.RideReport) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Ride %s\n", rideLine(rep.Ride))
	if len(rep.Bookings) == 0 {
		b.WriteString("No bookings yet.")
		return b.String()
	}
	fmt.Fprintf(&b, "Bookings (%d):\n", len(rep.Bookings))
	for _, bk := range rep.Bookings {
		fmt.Fprintf(&b, "• %s, %s, seats: %d", bk.Name, bk.Phone, bk.Seats)
		from := format.DerefString(bk.FromCity, "")
		to := format.DerefString(bk.ToCity, "")
		if from != "" && to != "" {
			fmt.Fprintf(&b, " (%s -> %s)", from, to)
		}
		if comment := format.DerefString(bk.Comment, ""); comment != "" {
			fmt.Fprintf(&b, " - %s", comment)
		}
		b.WriteByte('\n')
	}
	return strings.TrimRight(b.String(), "\n")
}

func parcelTotalsText(totals []models.DirectionCount) string {
	if len(totals) == 0 {
		return "No parcels registered yet."
	}
	var b strings.Builder
	b.WriteString("Parcels by direction:\n")
	for _, t := range totals {
		fmt.Fprintf(&b, "%s: %d\n", t.Direction, t.Count)
	}
	return strings.TrimRight(b.String(), "\n")
}
