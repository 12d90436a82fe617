package flows

import (
	"context"
	"fmt"
	"time"

	"github.com/m3rciful/ridebot/app/domain"
	"github.com/m3rciful/ridebot/app/services"
	"github.com/m3rciful/ridebot/core/state"
)

// AddRideFlowName identifies the manager-only ride-creation flow.
const AddRideFlowName = "add_ride"

const (
	// StateAddRideDate awaits the departure date.
	StateAddRideDate state.State = "add_ride:date"
	// StateAddRideDirection awaits the direction string.
	StateAddRideDirection state.State = "add_ride:direction"
	// StateAddRideSeats awaits the seat count and commits.
	StateAddRideSeats state.State = "add_ride:seats"
)

// RoleChecker reports whether a user holds manager privilege.
type RoleChecker interface {
	IsManager(userID int64) bool
}

// NewAddRideFlow builds the ride-creation transition table. Entry is
// guarded: only managers may start it.
func NewAddRideFlow(rides *services.Rides, roles RoleChecker) *Flow {
	return &Flow{
		Name:  AddRideFlowName,
		Entry: StateAddRideDate,
		Guard: func(userID int64) error {
			if !roles.IsManager(userID) {
				return &domain.AuthorizationError{UserID: userID}
			}
			return nil
		},
		Steps: map[state.State]Step{
			StateAddRideDate: {
				Prompt:   "Adding a ride. Step 1/3 - enter the date as YYYY-MM-DD (e.g. 2025-10-25).\nSend /cancel to abort.",
				Field:    "date",
				Validate: isoDate,
				Next:     StateAddRideDirection,
			},
			StateAddRideDirection: {
				Prompt: "Step 2/3 - enter the direction (e.g. UA -> CZ).",
				Field:  "direction",
				Next:   StateAddRideSeats,
			},
			StateAddRideSeats: {
				Prompt:   "Step 3/3 - enter the number of seats (a whole number).",
				Field:    "seats",
				Validate: nonNegativeInt("Seat count must be a whole number. Try again or send /cancel."),
			},
		},
		Commit: func(ctx context.Context, _ int64, bag Bag) (Reply, error) {
			date, _ := bag["date"].(time.Time)
			ride, err := rides.Create(ctx, date, bag.String("direction"), bag.Int("seats"))
			if err != nil {
				return Reply{Text: "Could not add the ride, please try again later."}, err
			}
			return Reply{Text: fmt.Sprintf(
				"Ride added: id=%d, %s %s, seats: %d",
				ride.ID, ride.Date.Format(isoDateLayout), ride.Direction, ride.SeatsTotal,
			)}, nil
		},
	}
}
