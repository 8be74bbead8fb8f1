// SPDX-License-Identifier: Apache-2.0

package steps

import (
	"context"

	"github.com/automa-saga/automa"

	"github.com/meshview/provisioner/internal/config"
	"github.com/meshview/provisioner/internal/database"
	"github.com/meshview/provisioner/internal/workflows/notify"
)

// EnsureDatabaseStep provisions a single database owned by the application
// role. The schema dump is loaded only when the database is created by this
// step; an existing database is left exactly as found.
func EnsureDatabaseStep(mgr database.Manager, spec config.DatabaseSpec, owner string) automa.Builder {
	stepId := "ensure-database-" + spec.Name

	return automa.NewStepBuilder().WithId(stepId).
		WithExecute(func(ctx context.Context, stp automa.Step) *automa.Report {
			meta := map[string]string{KeyDatabase: spec.Name}

			src := DumpSource(spec.Dump)
			if src != nil {
				meta[KeyDump] = src.Name()
			}

			outcome, err := mgr.EnsureDatabase(ctx, spec.Name, owner, src)
			meta[KeyOutcome] = outcome.String()
			if err != nil {
				return automa.FailureReport(stp,
					automa.WithError(automa.StepExecutionError.Wrap(err,
						"failed to provision database '%s'", spec.Name)),
					automa.WithMetadata(meta))
			}

			return automa.SuccessReport(stp, automa.WithMetadata(meta))
		}).
		WithPrepare(func(ctx context.Context, stp automa.Step) (context.Context, error) {
			notify.As().StepStart(ctx, stp, "Ensuring database '%s' exists", spec.Name)
			return ctx, nil
		}).
		WithOnFailure(func(ctx context.Context, stp automa.Step, rpt *automa.Report) {
			notify.As().StepFailure(ctx, stp, rpt, "Failed to provision database '%s'", spec.Name)
		}).
		WithOnCompletion(func(ctx context.Context, stp automa.Step, rpt *automa.Report) {
			notify.As().StepCompletion(ctx, stp, rpt, "Database '%s' ensured", spec.Name)
		})
}
