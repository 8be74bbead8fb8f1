// SPDX-License-Identifier: Apache-2.0

// Package database provisions roles and databases on a PostgreSQL server.
// It connects as an administrative user, checks the system catalogs before
// every create so reruns are no-ops, and loads schema dumps statement by
// statement without a surrounding transaction.
package database

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/rs/zerolog"
	"github.com/automa-saga/logx"

	"github.com/meshview/provisioner/internal/schema"
	"github.com/meshview/provisioner/pkg/sanity"
)

const (
	driverName = "pgx"

	connectAttempts = 5
	connectBackoff  = 2 * time.Second
)

const (
	roleExistsQuery     = "SELECT EXISTS(SELECT 1 FROM pg_catalog.pg_roles WHERE rolname = $1)"
	databaseExistsQuery = "SELECT EXISTS(SELECT 1 FROM pg_catalog.pg_database WHERE datname = $1)"
	tableExistsQuery    = "SELECT EXISTS(SELECT 1 FROM information_schema.tables WHERE table_schema = 'public' AND table_name = $1)"
	columnExistsQuery   = "SELECT EXISTS(SELECT 1 FROM information_schema.columns WHERE table_schema = 'public' AND table_name = $1 AND column_name = $2)"
)

type manager struct {
	cfg   Config
	log   *zerolog.Logger
	admin *sql.DB

	mu    sync.Mutex
	conns map[string]*sql.DB
}

// NewManager connects to the maintenance database and verifies the server
// answers before returning. The server may still be starting when the
// provisioner runs, so the first ping is retried with a short backoff.
func NewManager(ctx context.Context, cfg Config) (Manager, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	admin, err := open(cfg.DSN(cfg.Maintenance))
	if err != nil {
		return nil, err
	}

	m := &manager{
		cfg:   cfg,
		log:   logx.As(),
		admin: admin,
		conns: make(map[string]*sql.DB),
	}

	if err = m.pingWithRetry(ctx); err != nil {
		_ = admin.Close()
		return nil, err
	}

	return m, nil
}

func open(dsn string) (*sql.DB, error) {
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, ConnectionError.Wrap(err, "failed to open database connection")
	}

	// The provisioner runs statements strictly one after another.
	db.SetMaxOpenConns(2)
	db.SetMaxIdleConns(1)
	db.SetConnMaxIdleTime(time.Minute)
	return db, nil
}

func (m *manager) pingWithRetry(ctx context.Context) error {
	var err error
	for attempt := 1; attempt <= connectAttempts; attempt++ {
		if err = m.admin.PingContext(ctx); err == nil {
			return nil
		}

		m.log.Warn().Err(err).
			Int("attempt", attempt).
			Int("max_attempts", connectAttempts).
			Msg("Database server not answering yet")

		if attempt == connectAttempts {
			break
		}

		select {
		case <-ctx.Done():
			return ConnectionError.Wrap(ctx.Err(), "gave up waiting for the database server")
		case <-time.After(connectBackoff):
		}
	}

	return ConnectionError.Wrap(err, "failed to reach database server at %s:%d", m.cfg.Host, m.cfg.Port)
}

func (m *manager) Ping(ctx context.Context) error {
	if err := m.admin.PingContext(ctx); err != nil {
		return ConnectionError.Wrap(err, "failed to reach database server at %s:%d", m.cfg.Host, m.cfg.Port)
	}
	return nil
}

func (m *manager) ServerVersion(ctx context.Context) (string, error) {
	var v string
	if err := m.admin.QueryRowContext(ctx, "SHOW server_version").Scan(&v); err != nil {
		return "", ConnectionError.Wrap(err, "failed to read server version")
	}
	return v, nil
}

func (m *manager) EnsureRole(ctx context.Context, name string) (Outcome, error) {
	ident, err := sanity.Identifier(name)
	if err != nil {
		return OutcomeNone, err
	}

	var exists bool
	if err = m.admin.QueryRowContext(ctx, roleExistsQuery, ident).Scan(&exists); err != nil {
		return OutcomeNone, ProvisionError.Wrap(err, "failed to look up role %s", ident)
	}

	if exists {
		m.log.Info().Str("role", ident).Msg("Role already exists, leaving it untouched")
		return OutcomeAlreadyExists, nil
	}

	// Identifiers cannot be bound as parameters, hence the sanitized quoting.
	stmt := "CREATE ROLE " + pgx.Identifier{ident}.Sanitize() +
		" LOGIN NOSUPERUSER NOCREATEDB NOCREATEROLE INHERIT"
	if _, err = m.admin.ExecContext(ctx, stmt); err != nil {
		return OutcomeNone, ProvisionError.Wrap(err, "failed to create role %s", ident)
	}

	m.log.Info().Str("role", ident).Msg("Created database role")
	return OutcomeCreated, nil
}

func (m *manager) EnsureDatabase(ctx context.Context, name string, owner string, src schema.Source) (Outcome, error) {
	ident, err := sanity.Identifier(name)
	if err != nil {
		return OutcomeNone, err
	}
	ownerIdent, err := sanity.Identifier(owner)
	if err != nil {
		return OutcomeNone, err
	}

	var exists bool
	if err = m.admin.QueryRowContext(ctx, databaseExistsQuery, ident).Scan(&exists); err != nil {
		return OutcomeNone, ProvisionError.Wrap(err, "failed to look up database %s", ident)
	}

	if exists {
		m.log.Info().Str("database", ident).Msg("Database already exists, leaving its contents untouched")
		return OutcomeAlreadyExists, nil
	}

	stmt := "CREATE DATABASE " + pgx.Identifier{ident}.Sanitize() +
		" OWNER " + pgx.Identifier{ownerIdent}.Sanitize()
	if _, err = m.admin.ExecContext(ctx, stmt); err != nil {
		return OutcomeNone, ProvisionError.Wrap(err, "failed to create database %s", ident)
	}
	m.log.Info().Str("database", ident).Str("owner", ownerIdent).Msg("Created database")

	if src == nil {
		return OutcomeCreated, nil
	}

	// The database exists from here on, so schema failures report Created
	// alongside the error.
	if err = m.loadSchema(ctx, ident, src); err != nil {
		return OutcomeCreated, err
	}

	return OutcomeCreated, nil
}

func (m *manager) loadSchema(ctx context.Context, dbName string, src schema.Source) error {
	text, err := schema.Text(src)
	if err != nil {
		return err
	}

	stmts := SplitStatements(text)
	if len(stmts) == 0 {
		m.log.Warn().Str("database", dbName).Str("dump", src.Name()).Msg("Schema dump contains no statements")
		return nil
	}

	db, err := m.Database(ctx, dbName)
	if err != nil {
		return err
	}

	start := time.Now()
	executed, err := runStatements(ctx, db, stmts)
	if err != nil {
		return ScriptError.Wrap(err, "schema dump %s failed after %d of %d statements", src.Name(), executed, len(stmts))
	}

	m.log.Info().
		Str("database", dbName).
		Str("dump", src.Name()).
		Int("statements", executed).
		Dur("took", time.Since(start)).
		Msg("Loaded schema dump")
	return nil
}

func (m *manager) Database(ctx context.Context, name string) (*sql.DB, error) {
	ident, err := sanity.Identifier(name)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if db, ok := m.conns[ident]; ok {
		return db, nil
	}

	db, err := open(m.cfg.DSN(ident))
	if err != nil {
		return nil, err
	}
	if err = db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, ConnectionError.Wrap(err, "failed to connect to database %s", ident)
	}

	m.conns[ident] = db
	return db, nil
}

func (m *manager) TableExists(ctx context.Context, dbName string, table string) (bool, error) {
	db, err := m.Database(ctx, dbName)
	if err != nil {
		return false, err
	}

	var exists bool
	if err = db.QueryRowContext(ctx, tableExistsQuery, table).Scan(&exists); err != nil {
		return false, ProvisionError.Wrap(err, "failed to look up table %s.%s", dbName, table)
	}
	return exists, nil
}

func (m *manager) ColumnExists(ctx context.Context, dbName string, table string, column string) (bool, error) {
	db, err := m.Database(ctx, dbName)
	if err != nil {
		return false, err
	}

	var exists bool
	if err = db.QueryRowContext(ctx, columnExistsQuery, table, column).Scan(&exists); err != nil {
		return false, ProvisionError.Wrap(err, "failed to look up column %s.%s.%s", dbName, table, column)
	}
	return exists, nil
}

func (m *manager) Exec(ctx context.Context, dbName string, statement string) error {
	db, err := m.Database(ctx, dbName)
	if err != nil {
		return err
	}

	if _, err = db.ExecContext(ctx, statement); err != nil {
		return ScriptError.Wrap(err, "statement failed on database %s", dbName)
	}
	return nil
}

func (m *manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var errs []error
	for name, db := range m.conns {
		if err := db.Close(); err != nil {
			errs = append(errs, err)
		}
		delete(m.conns, name)
	}
	if err := m.admin.Close(); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}
