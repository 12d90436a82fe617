package flows

import (
	"context"
	"errors"
	"fmt"

	"github.com/m3rciful/ridebot/app/domain"
	"github.com/m3rciful/ridebot/app/services"
	"github.com/m3rciful/ridebot/core/state"
)

// BookingFlowName identifies the seat-booking flow. It is started from a
// ride selection callback; the seed bag must carry "ride_id".
const BookingFlowName = "booking"

const (
	// StateBookingFrom awaits the departure city.
	StateBookingFrom state.State = "booking:from"
	// StateBookingTo awaits the destination city.
	StateBookingTo state.State = "booking:to"
	// StateBookingPhone awaits the phone number.
	StateBookingPhone state.State = "booking:phone"
	// StateBookingName awaits the passenger name.
	StateBookingName state.State = "booking:name"
	// StateBookingSeats awaits the seat count.
	StateBookingSeats state.State = "booking:seats"
	// StateBookingComment awaits an optional comment and commits.
	StateBookingComment state.State = "booking:comment"
)

// NewBookingFlow builds the booking transition table. The terminal step
// runs the reservation transaction; the ride's free-seat counter is
// re-checked under the row lock, so the listing the user selected from is
// advisory only.
func NewBookingFlow(bookings *services.Bookings) *Flow {
	return &Flow{
		Name:  BookingFlowName,
		Entry: StateBookingFrom,
		Steps: map[state.State]Step{
			StateBookingFrom: {
				Prompt: "Which city are you departing from?",
				Field:  "from_city",
				Next:   StateBookingTo,
			},
			StateBookingTo: {
				Prompt: "Which city are you going to?",
				Field:  "to_city",
				Next:   StateBookingPhone,
			},
			StateBookingPhone: {
				Prompt: "Please enter your phone number:",
				Field:  "phone",
				Next:   StateBookingName,
			},
			StateBookingName: {
				Prompt: "Enter your full name (surname and given name):",
				Field:  "name",
				Next:   StateBookingSeats,
			},
			StateBookingSeats: {
				Prompt:   "How many seats do you need? (a number)",
				Field:    "seats",
				Validate: positiveInt("Seat count must be a positive whole number. Try again or send /cancel."),
				Next:     StateBookingComment,
			},
			StateBookingComment: {
				Prompt:   "Any additional comment? (send '-' to skip)",
				Field:    "comment",
				Validate: optionalText,
			},
		},
		Commit: func(ctx context.Context, _ int64, bag Bag) (Reply, error) {
			rideID := bag.Int64("ride_id")
			in := services.ReservationInput{
				Name:     bag.String("name"),
				Phone:    bag.String("phone"),
				Seats:    bag.Int("seats"),
				Comment:  bag.String("comment"),
				FromCity: bag.String("from_city"),
				ToCity:   bag.String("to_city"),
			}
			booking, ride, err := bookings.Reserve(ctx, rideID, in)
			if err != nil {
				return Reply{Text: reserveFailureText(err)}, err
			}
			return Reply{Text: fmt.Sprintf(
				"Booking confirmed. id=%d\nRide: %s  %s\nFrom: %s\nTo: %s\nName: %s\nPhone: %s\nSeats: %d\n\nWe will contact you a day before departure to confirm.",
				booking.ID, ride.Date.Format(isoDateLayout), ride.Direction,
				in.FromCity, in.ToCity, in.Name, in.Phone, in.Seats,
			)}, nil
		},
	}
}

func reserveFailureText(err error) string {
	var capErr *domain.CapacityError
	switch {
	case errors.As(err, &capErr):
		return fmt.Sprintf("Not enough seats. Only %d free.", capErr.Free)
	case errors.Is(err, domain.ErrRideNotFound):
		return "Ride not found or already cancelled."
	default:
		return "Booking failed, please try again later."
	}
}
