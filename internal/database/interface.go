// SPDX-License-Identifier: Apache-2.0

package database

import (
	"context"
	"database/sql"

	"github.com/meshview/provisioner/internal/schema"
)

// Manager provisions server-level objects on a PostgreSQL instance and
// hands out per-database connections. Every Ensure method is idempotent;
// calling it against an already provisioned server reports AlreadyExists
// and changes nothing.
type Manager interface {
	// Ping verifies the administrative connection is alive.
	Ping(ctx context.Context) error

	// ServerVersion returns the server version string, e.g. "15.4".
	ServerVersion(ctx context.Context) (string, error)

	// EnsureRole creates the named login role if it does not exist. The
	// role is created without superuser, createdb or createrole rights.
	EnsureRole(ctx context.Context, name string) (Outcome, error)

	// EnsureDatabase creates the named database owned by owner if it does
	// not exist, then loads the schema dump from src. The dump runs only
	// when the database was just created; an existing database is never
	// touched, even if its contents have drifted from the dump.
	EnsureDatabase(ctx context.Context, name string, owner string, src schema.Source) (Outcome, error)

	// Database returns a pooled connection to the named database.
	// Connections are cached and stay open until Close.
	Database(ctx context.Context, name string) (*sql.DB, error)

	// TableExists reports whether the table exists in the public schema of
	// the named database.
	TableExists(ctx context.Context, dbName string, table string) (bool, error)

	// ColumnExists reports whether the column exists on the table in the
	// public schema of the named database.
	ColumnExists(ctx context.Context, dbName string, table string, column string) (bool, error)

	// Exec runs a single statement against the named database.
	Exec(ctx context.Context, dbName string, statement string) error

	// Close releases the administrative connection and every cached
	// per-database connection.
	Close() error
}
