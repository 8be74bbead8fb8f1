// SPDX-License-Identifier: Apache-2.0

package workflows

import (
	"github.com/automa-saga/automa"

	"github.com/meshview/provisioner/internal/config"
	"github.com/meshview/provisioner/internal/core"
	"github.com/meshview/provisioner/internal/database"
	"github.com/meshview/provisioner/internal/migration"
	"github.com/meshview/provisioner/internal/version"
	"github.com/meshview/provisioner/internal/workflows/steps"
)

const (
	FreshInstallWorkflowId = "fresh-install"
	UpgradeWorkflowId      = "upgrade"

	userFiltersDatabase = "userfilters"
)

// NewFreshInstallWorkflow provisions a pristine host: the application role,
// every configured database with its schema dump, and the initial
// administrator account. Steps continue past failures so one bad database
// does not keep the rest of the host from being provisioned.
func NewFreshInstallWorkflow(mgr database.Manager, cfg *config.Config) *automa.WorkflowBuilder {
	builders := []automa.Builder{
		steps.EnsureRoleStep(mgr, cfg.Provision.Role),
	}

	for _, spec := range cfg.Provision.Databases {
		builders = append(builders, steps.EnsureDatabaseStep(mgr, spec, cfg.Provision.Role))
	}

	builders = append(builders,
		steps.CreateAdminUserStep(mgr, cfg.Provision.UsersDatabase, cfg.Admin))

	return automa.NewWorkflowBuilder().WithId(FreshInstallWorkflowId).
		Steps(builders...).
		WithExecutionMode(automa.ContinueOnError)
}

// NewUpgradeWorkflow carries an existing deployment forward from the given
// prior version: applicable schema migrations first, then the one-time
// legacy credential import when the upgrade crosses the release that
// introduced the users table. Returns nil when the prior version is recent
// enough that nothing needs to run.
func NewUpgradeWorkflow(mgr database.Manager, cfg *config.Config, from version.Version) (*automa.WorkflowBuilder, error) {
	migrationMgr, err := NewMigrationManager(cfg)
	if err != nil {
		return nil, err
	}

	mctx := &migration.Context{
		FromVersion: from,
		Target:      version.Current(),
		DB:          mgr,
	}

	var builders []automa.Builder
	if mw := BuildMigrationWorkflow(migrationMgr, mctx); mw != nil {
		builders = append(builders, mw)
	}

	if from.LessOrEqual(migration.UsersTableRelease) {
		builders = append(builders,
			steps.ImportLegacyUsersStep(mgr, cfg.Provision.UsersDatabase, cfg.Legacy.UsersFile))
	}

	if len(builders) == 0 {
		return nil, nil
	}

	return automa.NewWorkflowBuilder().WithId(UpgradeWorkflowId).
		Steps(builders...).
		WithExecutionMode(automa.ContinueOnError), nil
}

// userFiltersSpec resolves the user filter database from the configuration,
// falling back to the packaged defaults when the operator has not listed it.
func userFiltersSpec(cfg *config.Config) config.DatabaseSpec {
	for _, spec := range cfg.Provision.Databases {
		if spec.Name == userFiltersDatabase {
			return spec
		}
	}

	return config.DatabaseSpec{
		Name: userFiltersDatabase,
		Dump: core.DefaultUserFiltersDump,
	}
}
