// SPDX-License-Identifier: Apache-2.0

// migrations.go provides the component-level orchestration for schema
// migrations.
//
// This file contains:
//   - NewMigrationManager(): assembles the registry of released migrations
//   - BuildMigrationWorkflow(): wraps the applicable migrations in an automa
//     workflow so upgrades report through the same surface as fresh installs
//
// Individual migration steps are implemented in internal/migration.

package workflows

import (
	"context"

	"github.com/automa-saga/automa"
	"github.com/automa-saga/logx"

	"github.com/meshview/provisioner/internal/config"
	"github.com/meshview/provisioner/internal/migration"
	"github.com/meshview/provisioner/internal/workflows/notify"
	"github.com/meshview/provisioner/internal/workflows/steps"
)

// MigrationComponent is the component name stamped on migration log lines.
const MigrationComponent = "meshview"

// MigrationWorkflowId identifies the nested migration workflow inside an
// upgrade run.
const MigrationWorkflowId = "schema-migrations"

const migrationThresholdKey = "threshold"

// NewMigrationManager assembles the registry of schema migrations in release
// order.
func NewMigrationManager(cfg *config.Config) (*migration.Manager, error) {
	mgr := migration.NewManager(
		migration.WithComponent(MigrationComponent),
		migration.WithLogger(logx.As()),
	)

	filters := userFiltersSpec(cfg)
	defaults := migration.Defaults(
		cfg.Provision.UsersDatabase,
		filters.Name,
		cfg.Provision.Role,
		steps.DumpSource(filters.Dump),
	)
	for _, step := range defaults {
		if err := mgr.Register(step); err != nil {
			return nil, err
		}
	}

	return mgr, nil
}

// BuildMigrationWorkflow returns an automa workflow executing the migrations
// that apply when upgrading from mctx.FromVersion. Returns nil when nothing
// applies.
func BuildMigrationWorkflow(mgr *migration.Manager, mctx *migration.Context) *automa.WorkflowBuilder {
	applicable := mgr.GetApplicable(mctx)
	if len(applicable) == 0 {
		return nil
	}

	return MigrationsToWorkflow(applicable, mctx)
}

// MigrationsToWorkflow wraps migration steps in an automa workflow so their
// results surface through the same step reports as the rest of provisioning.
// The workflow continues past failed steps; every migration is idempotent
// and the next upgrade run picks up whatever failed.
func MigrationsToWorkflow(migrations []migration.Step, mctx *migration.Context) *automa.WorkflowBuilder {
	if mctx.Logger == nil {
		mctx.Logger = logx.As()
	}

	builders := make([]automa.Builder, 0, len(migrations))
	for _, mig := range migrations {
		builders = append(builders, migrationStep(mig, mctx))
	}

	return automa.NewWorkflowBuilder().WithId(MigrationWorkflowId).
		Steps(builders...).
		WithExecutionMode(automa.ContinueOnError)
}

func migrationStep(mig migration.Step, mctx *migration.Context) automa.Builder {
	return automa.NewStepBuilder().WithId(mig.ID()).
		WithExecute(func(ctx context.Context, stp automa.Step) *automa.Report {
			meta := map[string]string{migrationThresholdKey: mig.Threshold().String()}

			if err := mig.Execute(ctx, mctx); err != nil {
				return automa.FailureReport(stp,
					automa.WithError(automa.StepExecutionError.Wrap(err,
						"migration step '%s' failed", mig.ID())),
					automa.WithMetadata(meta))
			}

			return automa.SuccessReport(stp, automa.WithMetadata(meta))
		}).
		WithPrepare(func(ctx context.Context, stp automa.Step) (context.Context, error) {
			notify.As().StepStart(ctx, stp, "%s", mig.Description())
			return ctx, nil
		}).
		WithOnFailure(func(ctx context.Context, stp automa.Step, rpt *automa.Report) {
			notify.As().StepFailure(ctx, stp, rpt, "Migration step '%s' failed", mig.ID())
		}).
		WithOnCompletion(func(ctx context.Context, stp automa.Step, rpt *automa.Report) {
			notify.As().StepCompletion(ctx, stp, rpt, "Migration step '%s' finished", mig.ID())
		})
}
