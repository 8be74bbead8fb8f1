// SPDX-License-Identifier: Apache-2.0

package migration

import (
	"context"

	"github.com/meshview/provisioner/internal/schema"
	"github.com/meshview/provisioner/internal/version"
)

// Releases that changed the storage layout. A step applies to upgrades
// starting at or before its release.
var (
	// UsersTableRelease is 2.6-1, which moved user accounts from the flat
	// credential file into the relational users table. Exported because the
	// upgrade workflow gates the one-time credential import on it.
	UsersTableRelease = version.New("2.6-1")

	// 2.7-1 added the enabled flag so accounts can be switched off without
	// deleting them.
	usersEnabledRelease = version.New("2.7-1")

	// 2.13-1 split saved user filters out into their own database.
	userFiltersRelease = version.New("2.13-1")
)

// Defaults returns the static migration table for this release, in
// ascending threshold order. usersDB names the database holding the users
// table; filtersDB, owner and filtersDump describe the split-out filter
// database introduced in 2.13-1.
func Defaults(usersDB string, filtersDB string, owner string, filtersDump schema.Source) []Step {
	return []Step{
		NewCreateUsersTable(usersDB),
		NewAddUsersEnabledColumn(usersDB),
		NewEnsureUserFiltersDatabase(filtersDB, owner, filtersDump),
	}
}

// The users table as it first shipped; the enabled column arrived one
// release later and is added by its own step.
const createUsersTableSQL = `CREATE TABLE IF NOT EXISTS users (
username TEXT PRIMARY KEY,
longname TEXT NOT NULL DEFAULT '',
email TEXT NOT NULL DEFAULT '',
password TEXT NOT NULL,
roles TEXT NOT NULL DEFAULT 'view'
)`

const addEnabledColumnSQL = `ALTER TABLE users ADD COLUMN enabled BOOLEAN NOT NULL DEFAULT TRUE`

type createUsersTable struct {
	BaseStep
	database string
}

// NewCreateUsersTable returns the step that creates the users table in the
// given database.
func NewCreateUsersTable(database string) Step {
	return &createUsersTable{
		BaseStep: NewBaseStep("create-users-table", "Create the relational users table", UsersTableRelease),
		database: database,
	}
}

func (s *createUsersTable) Execute(ctx context.Context, mctx *Context) error {
	return mctx.DB.Exec(ctx, s.database, createUsersTableSQL)
}

type addUsersEnabledColumn struct {
	BaseStep
	database string
}

// NewAddUsersEnabledColumn returns the step that adds the enabled flag to
// the users table.
func NewAddUsersEnabledColumn(database string) Step {
	return &addUsersEnabledColumn{
		BaseStep: NewBaseStep("add-users-enabled-column", "Add the enabled flag to the users table", usersEnabledRelease),
		database: database,
	}
}

func (s *addUsersEnabledColumn) Execute(ctx context.Context, mctx *Context) error {
	exists, err := mctx.DB.ColumnExists(ctx, s.database, "users", "enabled")
	if err != nil {
		return err
	}
	if exists {
		mctx.Logger.Debug().
			Str("database", s.database).
			Msg("Column users.enabled already present")
		return nil
	}

	return mctx.DB.Exec(ctx, s.database, addEnabledColumnSQL)
}

type ensureUserFiltersDatabase struct {
	BaseStep
	database string
	owner    string
	dump     schema.Source
}

// NewEnsureUserFiltersDatabase returns the step that provisions the
// dedicated filter database for deployments predating the split.
func NewEnsureUserFiltersDatabase(database string, owner string, dump schema.Source) Step {
	return &ensureUserFiltersDatabase{
		BaseStep: NewBaseStep("create-userfilters-database", "Create the dedicated user filter database", userFiltersRelease),
		database: database,
		owner:    owner,
		dump:     dump,
	}
}

func (s *ensureUserFiltersDatabase) Execute(ctx context.Context, mctx *Context) error {
	outcome, err := mctx.DB.EnsureDatabase(ctx, s.database, s.owner, s.dump)
	if err != nil {
		return err
	}

	mctx.Logger.Info().
		Str("database", s.database).
		Str("outcome", outcome.String()).
		Msg("Ensured user filter database")
	return nil
}
