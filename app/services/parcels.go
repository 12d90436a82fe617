package services

import (
	"context"

	"log/slog"

	"github.com/m3rciful/ridebot/app/models"
	"github.com/m3rciful/ridebot/app/storage"
	"github.com/m3rciful/ridebot/core/logger"
)

// ParcelInput carries the fields collected by the parcel flow.
type ParcelInput struct {
	Direction     string
	Sender        string
	SenderPhone   string
	Receiver      string
	ReceiverPhone string
	Office        string
	Description   string
}

// Parcels registers courier shipments. Parcels are not linked to rides;
// they share only the direction string.
type Parcels struct {
	store storage.Store
}

// NewParcels constructs the parcel service.
func NewParcels(store storage.Store) *Parcels {
	return &Parcels{store: store}
}

// Register stores a new parcel record.
func (s *Parcels) Register(ctx context.Context, in ParcelInput) (models.Parcel, error) {
	parcel, err := s.store.CreateParcel(ctx, models.Parcel{
		Direction:     in.Direction,
		Sender:        in.Sender,
		SenderPhone:   in.SenderPhone,
		Receiver:      in.Receiver,
		ReceiverPhone: in.ReceiverPhone,
		Office:        in.Office,
		Description:   models.OptString(in.Description),
	})
	if err != nil {
		return models.Parcel{}, err
	}
	logger.Info(ctx, "service.parcels", "parcel.registered",
		slog.Int64("parcel_id", parcel.ID),
		slog.String("direction", parcel.Direction),
	)
	return parcel, nil
}
