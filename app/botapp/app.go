// Package botapp wires the booking domain into the Telegram runtime.
package botapp

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/m3rciful/ridebot/app/access"
	"github.com/m3rciful/ridebot/app/config"
	"github.com/m3rciful/ridebot/app/flows"
	"github.com/m3rciful/ridebot/app/services"
	appstorage "github.com/m3rciful/ridebot/app/storage"
	"github.com/m3rciful/ridebot/core/bootstrap"
	"github.com/m3rciful/ridebot/core/state"
	coretelegram "github.com/m3rciful/ridebot/core/telegram"
	"github.com/m3rciful/ridebot/core/telegram/router"
)

// App holds the assembled application: storage, services, conversation
// engine and the access-control service, all constructor-injected.
type App struct {
	cfg *config.Config
	db  *sqlx.DB

	store    appstorage.Store
	roles    *access.Service
	sessions state.Manager
	engine   *flows.Engine

	rides    *services.Rides
	bookings *services.Bookings
	parcels  *services.Parcels
	stats    *services.Stats
}

// New bootstraps infrastructure (logger, database, migrations), seeds
// reference data and assembles the services and flows.
func New(cfg *config.Config) (*App, error) {
	res, err := bootstrap.Run(bootstrap.Options{
		Config:   cfg.CoreConfig(),
		Database: cfg.Database,
	})
	if err != nil {
		return nil, err
	}

	store := appstorage.NewPostgres(res.DB)
	app, err := build(cfg, store)
	if err != nil {
		_ = res.DB.Close()
		return nil, err
	}
	app.db = res.DB

	mods := bootstrap.Modules{
		Seeders: []bootstrap.Seeder{bootstrap.SeederFunc(seedDefaultRide)},
	}
	for _, seeder := range mods.Seeders {
		if err := seeder.Seed(context.Background(), store); err != nil {
			_ = res.DB.Close()
			return nil, fmt.Errorf("botapp: seed failed: %w", err)
		}
	}

	return app, nil
}

// build assembles the application around an arbitrary store. Split out
// from New so tests can use the in-memory store.
func build(cfg *config.Config, store appstorage.Store) (*App, error) {
	app := &App{
		cfg:      cfg,
		store:    store,
		roles:    access.NewService(),
		sessions: state.NewMemoryManager(),
		rides:    services.NewRides(store),
		bookings: services.NewBookings(store),
		parcels:  services.NewParcels(store),
		stats:    services.NewStats(store),
	}

	engine, err := flows.NewEngine(app.sessions,
		flows.NewAddRideFlow(app.rides, app.roles),
		flows.NewBookingFlow(app.bookings),
		flows.NewLoginFlow(app.roles, cfg.Manager.Key),
		flows.NewParcelFlow(app.parcels),
	)
	if err != nil {
		return nil, fmt.Errorf("botapp: flow wiring: %w", err)
	}
	app.engine = engine
	return app, nil
}

// TelegramRunOptions builds the runtime configuration consumed by the
// core runner.
func (a *App) TelegramRunOptions() (coretelegram.RunOptions, error) {
	reg := coretelegram.NewRegistry()
	a.registerCommands(reg)
	if err := a.registerCallbacks(reg); err != nil {
		return coretelegram.RunOptions{}, err
	}
	reg.SetTextFallback(a.UnknownText())
	reg.SetCallbackNotFound(a.UnknownCallback())

	routes := router.CommandRoutes(reg, router.CommandRouteOptions{
		Roles:           a.roles,
		OnManagerReject: a.denyManager,
	})
	routes = append(routes, router.CallbackRoute(reg, router.CallbackOptions{}))
	routes = append(routes, router.TextRoutes(fsmAdapter{app: a}, reg, router.TextOptions{
		UnknownText:     a.UnknownText(),
		UnknownDocument: a.UnknownDocument(),
	})...)

	return coretelegram.RunOptions{
		Config:      a.cfg.CoreConfig(),
		Registry:    reg,
		Middlewares: coretelegram.DefaultMiddlewares(a.cfg.CoreConfig(), nil),
		Routes:      routes,
	}, nil
}

// Close releases the database handle.
func (a *App) Close() error {
	if a.db != nil {
		return a.db.Close()
	}
	return nil
}
