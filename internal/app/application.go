package app

import (
	"context"
	"fmt"

	"github.com/fueltag-io/fueltag/internal/app/services/payments"
	"github.com/fueltag-io/fueltag/internal/app/services/registration"
	"github.com/fueltag-io/fueltag/internal/app/services/resolver"
	"github.com/fueltag-io/fueltag/internal/app/storage"
	"github.com/fueltag-io/fueltag/internal/app/storage/memory"
	"github.com/fueltag-io/fueltag/internal/app/system"
	"github.com/fueltag-io/fueltag/pkg/logger"
)

// Stores encapsulates persistence dependencies. Nil stores default to the
// in-memory implementation.
type Stores struct {
	Users         storage.UserStore
	Vehicles      storage.VehicleStore
	Ledger        storage.LedgerStore
	Registrations storage.RegistrationStore
}

// Application ties domain services together and manages their lifecycle.
type Application struct {
	manager *system.Manager
	log     *logger.Logger

	Registration *registration.Service
	Resolver     *resolver.Service
	Payments     *payments.Service
}

// New builds a fully initialised application with the provided stores.
func New(stores Stores, log *logger.Logger) (*Application, error) {
	if log == nil {
		log = logger.NewDefault("app")
	}

	mem := memory.New()
	if stores.Users == nil {
		stores.Users = mem
	}
	if stores.Vehicles == nil {
		stores.Vehicles = mem
	}
	if stores.Ledger == nil {
		stores.Ledger = mem
	}
	if stores.Registrations == nil {
		stores.Registrations = mem
	}

	manager := system.NewManager()

	regService := registration.New(registration.Stores{
		Users:         stores.Users,
		Vehicles:      stores.Vehicles,
		Ledger:        stores.Ledger,
		Registrations: stores.Registrations,
	}, log)
	resolverService := resolver.New(resolver.Stores{
		Users:    stores.Users,
		Vehicles: stores.Vehicles,
		Ledger:   stores.Ledger,
	}, log)
	paymentsService := payments.New(stores.Ledger, log)

	for _, name := range []string{"registration", "resolver", "payments"} {
		if err := manager.Register(system.NoopService{ServiceName: name}); err != nil {
			return nil, fmt.Errorf("register %s service: %w", name, err)
		}
	}

	return &Application{
		manager:      manager,
		log:          log,
		Registration: regService,
		Resolver:     resolverService,
		Payments:     paymentsService,
	}, nil
}

// Attach registers an additional lifecycle-managed service. Call before Start.
func (a *Application) Attach(service system.Service) error {
	return a.manager.Register(service)
}

// Start begins all registered services.
func (a *Application) Start(ctx context.Context) error {
	return a.manager.Start(ctx)
}

// Stop stops all services.
func (a *Application) Stop(ctx context.Context) error {
	return a.manager.Stop(ctx)
}
