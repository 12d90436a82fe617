package botapp

import (
	tele "gopkg.in/telebot.v4"

	tghelpers "github.com/m3rciful/ridebot/core/telegram/helpers"
	"github.com/m3rciful/ridebot/core/telegram/ui"
)

var _ ui.FallbackProvider = (*App)(nil)

// UnknownText handles free text sent outside of any flow.
func (a *App) UnknownText() tele.HandlerFunc {
	return func(c tele.Context) error {
		return tghelpers.SendText(c, "Use the command menu or /help.")
	}
}

// UnknownDocument handles attachments, which no flow accepts.
func (a *App) UnknownDocument() tele.HandlerFunc {
	return func(c tele.Context) error {
		return tghelpers.SendText(c, "I can only work with text messages.")
	}
}

// UnknownCallback handles stale or unregistered button presses.
func (a *App) UnknownCallback() tele.HandlerFunc {
	return func(c tele.Context) error {
		return c.Respond(&tele.CallbackResponse{Text: "This button is no longer active."})
	}
}
