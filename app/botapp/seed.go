package botapp

import (
	"context"
	"fmt"
	"time"

	"log/slog"

	"github.com/m3rciful/ridebot/app/models"
	appstorage "github.com/m3rciful/ridebot/app/storage"
	"github.com/m3rciful/ridebot/core/bootstrap"
	"github.com/m3rciful/ridebot/core/logger"
)

const (
	seedDirection  = "Riverport -> Hilltown"
	seedSeatsTotal = 8
)

// seedDefaultRide inserts a placeholder ride when the schedule is empty,
// so the bot has something to show right after the first deployment.
func seedDefaultRide(ctx context.Context, st bootstrap.Storage) error {
	store, ok := st.(appstorage.Store)
	if !ok {
		return fmt.Errorf("seed: unexpected storage type %T", st)
	}

	rides, err := store.ListRides(ctx)
	if err != nil {
		return err
	}
	if len(rides) > 0 {
		logger.SEED.LogAttrs(ctx, slog.LevelDebug, "rides present, skipping",
			slog.Int("count", len(rides)),
		)
		return nil
	}

	date := time.Now().UTC().AddDate(0, 0, 1).Truncate(24 * time.Hour)
	ride, err := store.CreateRide(ctx, models.Ride{
		Date:       date,
		Direction:  seedDirection,
		SeatsTotal: seedSeatsTotal,
		SeatsFree:  seedSeatsTotal,
	})
	if err != nil {
		return err
	}

	logger.SEED.LogAttrs(ctx, slog.LevelInfo, "default ride seeded",
		slog.Int64("ride_id", ride.ID),
		slog.String("direction", ride.Direction),
		slog.Int("seats", ride.SeatsTotal),
	)
	return nil
}
