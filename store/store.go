// Package store defines the aggregate persistence interface. Each subsystem
// (capability, group, membership, grant, audit) defines its own store
// interface. The composite Store composes them all.
// Backends: Postgres, SQLite, Mongo, and Memory.
package store

import (
	"context"

	"github.com/xraph/sentinel/audit"
	"github.com/xraph/sentinel/capability"
	"github.com/xraph/sentinel/grant"
	"github.com/xraph/sentinel/group"
	"github.com/xraph/sentinel/membership"
)

// Store is the aggregate persistence interface.
// Each subsystem store is a composable interface; a single backend
// (postgres, sqlite, mongo, memory) implements all of them.
type Store interface {
	capability.Store
	group.Store
	membership.Store
	grant.Store
	audit.Store

	// Migrate runs all schema migrations.
	Migrate(ctx context.Context) error

	// Ping checks database connectivity.
	Ping(ctx context.Context) error

	// Close closes the store connection.
	Close() error
}
