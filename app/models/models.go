// Package models declares the persistent entities of the booking domain.
package models

import "time"

// Ride is a scheduled transport departure with finite seat capacity.
// SeatsFree is mutated only by the reservation transaction and satisfies
// 0 <= SeatsFree <= SeatsTotal after every commit.
type Ride struct {
	ID         int64     `db:"id"`
	Date       time.Time `db:"date"`
	Direction  string    `db:"direction"`
	SeatsTotal int       `db:"seats_total"`
	SeatsFree  int       `db:"seats_free"`
}

// Booking is a confirmed seat reservation against a ride. Immutable once
// created; removed together with its ride.
type Booking struct {
	ID        int64     `db:"id"`
	RideID    int64     `db:"ride_id"`
	Name      string    `db:"name"`
	Phone     string    `db:"phone"`
	Seats     int       `db:"seats"`
	Comment   *string   `db:"comment"`
	FromCity  *string   `db:"from_city"`
	ToCity    *string   `db:"to_city"`
	CreatedAt time.Time `db:"created_at"`
}

// Parcel is an independent courier-shipment record. It carries no foreign
// key to a ride; association is inferred by matching direction strings.
type Parcel struct {
	ID            int64     `db:"id"`
	Direction     string    `db:"direction"`
	Sender        string    `db:"sender"`
	SenderPhone   string    `db:"sender_phone"`
	Receiver      string    `db:"receiver"`
	ReceiverPhone string    `db:"receiver_phone"`
	Office        string    `db:"office"`
	Description   *string   `db:"description"`
	CreatedAt     time.Time `db:"created_at"`
}

// DirectionCount is the per-direction parcel aggregation row.
type DirectionCount struct {
	Direction string `db:"direction"`
	Count     int    `db:"count"`
}

// OptString returns a pointer to s, or nil for the empty string so the
// column stores NULL.
func OptString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
