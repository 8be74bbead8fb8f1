// SPDX-License-Identifier: Apache-2.0

package steps

import (
	"context"

	"github.com/automa-saga/automa"
	"github.com/automa-saga/logx"

	"github.com/meshview/provisioner/internal/database"
	"github.com/meshview/provisioner/internal/workflows/notify"
)

const EnsureRoleStepId = "ensure-role"

// EnsureRoleStep makes sure the application role exists on the database
// server. Errors are downgraded to a warning in the step metadata and the
// step still reports success; the role usually exists already on hosts that
// ran an earlier release.
func EnsureRoleStep(mgr database.Manager, role string) automa.Builder {
	return automa.NewStepBuilder().WithId(EnsureRoleStepId).
		WithExecute(func(ctx context.Context, stp automa.Step) *automa.Report {
			meta := map[string]string{KeyRole: role}

			outcome, err := mgr.EnsureRole(ctx, role)
			if err != nil {
				logx.As().Warn().Err(err).Str("role", role).
					Msg("Failed to ensure database role, continuing")
				meta[KeyWarnings] = err.Error()
				return automa.SuccessReport(stp, automa.WithMetadata(meta))
			}

			meta[KeyOutcome] = outcome.String()
			return automa.SuccessReport(stp, automa.WithMetadata(meta))
		}).
		WithPrepare(func(ctx context.Context, stp automa.Step) (context.Context, error) {
			notify.As().StepStart(ctx, stp, "Ensuring database role '%s' exists", role)
			return ctx, nil
		}).
		WithOnFailure(func(ctx context.Context, stp automa.Step, rpt *automa.Report) {
			notify.As().StepFailure(ctx, stp, rpt, "Failed to ensure database role '%s'", role)
		}).
		WithOnCompletion(func(ctx context.Context, stp automa.Step, rpt *automa.Report) {
			notify.As().StepCompletion(ctx, stp, rpt, "Database role '%s' ensured", role)
		})
}
