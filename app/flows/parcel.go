package flows

import (
	"context"
	"fmt"

	"github.com/m3rciful/ridebot/app/services"
	"github.com/m3rciful/ridebot/core/state"
)

// ParcelFlowName identifies the parcel-registration flow.
const ParcelFlowName = "parcel"

const (
	// StateParcelDirection awaits the direction string.
	StateParcelDirection state.State = "parcel:direction"
	// StateParcelSender awaits the sender name.
	StateParcelSender state.State = "parcel:sender"
	// StateParcelSenderPhone awaits the sender phone.
	StateParcelSenderPhone state.State = "parcel:sender_phone"
	// StateParcelReceiver awaits the receiver name.
	StateParcelReceiver state.State = "parcel:receiver"
	// StateParcelReceiverPhone awaits the receiver phone.
	StateParcelReceiverPhone state.State = "parcel:receiver_phone"
	// StateParcelOffice awaits the drop-off office.
	StateParcelOffice state.State = "parcel:office"
	// StateParcelDescription awaits an optional description and commits.
	StateParcelDescription state.State = "parcel:description"
)

// NewParcelFlow builds the parcel-registration transition table. Parcels
// are matched to rides only by direction string, so the flow never asks
// for a ride.
func NewParcelFlow(parcels *services.Parcels) *Flow {
	return &Flow{
		Name:  ParcelFlowName,
		Entry: StateParcelDirection,
		Steps: map[state.State]Step{
			StateParcelDirection: {
				Prompt: "Registering a parcel. Enter the direction (e.g. UA -> CZ).\nSend /cancel to abort.",
				Field:  "direction",
				Next:   StateParcelSender,
			},
			StateParcelSender: {
				Prompt: "Sender name:",
				Field:  "sender",
				Next:   StateParcelSenderPhone,
			},
			StateParcelSenderPhone: {
				Prompt: "Sender phone number:",
				Field:  "sender_phone",
				Next:   StateParcelReceiver,
			},
			StateParcelReceiver: {
				Prompt: "Receiver name:",
				Field:  "receiver",
				Next:   StateParcelReceiverPhone,
			},
			StateParcelReceiverPhone: {
				Prompt: "Receiver phone number:",
				Field:  "receiver_phone",
				Next:   StateParcelOffice,
			},
			StateParcelOffice: {
				Prompt: "Drop-off office:",
				Field:  "office",
				Next:   StateParcelDescription,
			},
			StateParcelDescription: {
				Prompt:   "Parcel description? (send '-' to skip)",
				Field:    "description",
				Validate: optionalText,
			},
		},
		Commit: func(ctx context.Context, _ int64, bag Bag) (Reply, error) {
			parcel, err := parcels.Register(ctx, services.ParcelInput{
				Direction:     bag.String("direction"),
				Sender:        bag.String("sender"),
				SenderPhone:   bag.String("sender_phone"),
				Receiver:      bag.String("receiver"),
				ReceiverPhone: bag.String("receiver_phone"),
				Office:        bag.String("office"),
				Description:   bag.String("description"),
			})
			if err != nil {
				return Reply{Text: "Could not register the parcel, please try again later."}, err
			}
			return Reply{Text: fmt.Sprintf(
				"Parcel registered. id=%d, direction: %s\nWe will pass the details to the driver of the matching ride.",
				parcel.ID, parcel.Direction,
			)}, nil
		},
	}
}
