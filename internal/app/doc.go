// Package app provides the application composition layer for the prepaid
// fuel-payment service.
//
// # Architecture Role
//
// The app package composes domain services, storage, and the HTTP surface
// into a running application. It is NOT a business logic layer - business
// logic belongs in internal/app/services/.
//
// # Package Structure
//
//	internal/app/
//	├── application.go      # Main application struct, wiring, and lifecycle
//	├── domain/             # Domain models (pure data structures)
//	│   ├── ledger/         # Accounts and transactions
//	│   ├── token/          # Scannable vehicle token payload
//	│   ├── user/           # Fund owners
//	│   └── vehicle/        # Registered vehicles
//	├── storage/            # Storage interfaces and implementations
//	│   ├── interfaces.go   # Store interfaces (UserStore, LedgerStore, etc.)
//	│   ├── memory/         # In-memory implementation for testing
//	│   └── postgres/       # PostgreSQL implementation for production
//	├── services/           # Business logic (registration, resolver, payments)
//	├── httpapi/            # HTTP API handlers and routing
//	├── system/             # System management (lifecycle)
//	└── metrics/            # Application metrics
//
// # Responsibilities
//
// The app package is responsible for:
//
//   - Composing services with their storage dependencies
//   - Defining storage interfaces that services depend on
//   - Providing domain models shared across services
//   - Exposing HTTP API endpoints for external access
//   - Managing application-level concerns (metrics, lifecycle)
//
// # Dependency Direction
//
//	cmd/server/
//	      │
//	      ▼
//	internal/app/runtime (process lifecycle)
//	      │
//	      ▼
//	internal/app/ (composition)
//	      │
//	      ├──► internal/app/services/ (business logic)
//	      │
//	      └──► internal/platform/ (database, migrations)
//
// # Example: Adding a New Domain
//
// When adding a new domain (e.g., "fleets"):
//
//  1. Create domain models in internal/app/domain/fleet/
//  2. Add a storage interface to internal/app/storage/interfaces.go
//  3. Implement storage in internal/app/storage/postgres/ and memory/
//  4. Create a service in internal/app/services/fleets/service.go
//  5. Wire the service in internal/app/application.go
//  6. Add HTTP handlers in internal/app/httpapi/
package app
