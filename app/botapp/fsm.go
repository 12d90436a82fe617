package botapp

import (
	tele "gopkg.in/telebot.v4"

	tghelpers "github.com/m3rciful/ridebot/core/telegram/helpers"
)

// fsmAdapter bridges the transport-agnostic conversation engine to the
// message router's FSM contract.
type fsmAdapter struct {
	app *App
}

func (f fsmAdapter) InProgress(userID int64) bool {
	return f.app.engine.InProgress(userID)
}

func (f fsmAdapter) HandleTurn(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	reply, _, err := f.app.engine.HandleTurn(ctx, c.Sender().ID, c.Text())
	if sendErr := f.app.sendReply(c, reply); sendErr != nil {
		return sendErr
	}
	return err
}
