package steps

import (
	"context"

	"github.com/automa-saga/automa"

	"github.com/meshview/provisioner/internal/config"
	"github.com/meshview/provisioner/internal/database"
	"github.com/meshview/provisioner/internal/users"
	"github.com/meshview/provisioner/internal/workflows/notify"
)

const CreateAdminUserStepId = "create-admin-user"

// CreateAdminUserStep seeds the initial administrator account on fresh
// installs. The step is skipped when no credentials are configured; the
// account can then be created later through the application itself.
func CreateAdminUserStep(mgr database.Manager, usersDB string, admin config.AdminConfig) automa.Builder {
	return automa.NewStepBuilder().WithId(CreateAdminUserStepId).
		WithExecute(func(ctx context.Context, stp automa.Step) *automa.Report {
			if admin.Username == "" || admin.Password == "" {
				return automa.SkippedReport(stp,
					automa.WithDetail("no administrator credentials configured"))
			}

			db, err := mgr.Database(ctx, usersDB)
			if err != nil {
				return automa.FailureReport(stp,
					automa.WithError(automa.StepExecutionError.Wrap(err,
						"failed to open users database '%s'", usersDB)))
			}

			store := users.NewStore(db)
			if err := store.EnsureAdministrator(ctx, admin.Username, admin.Password, admin.LongName, admin.Email); err != nil {
				return automa.FailureReport(stp,
					automa.WithError(automa.StepExecutionError.Wrap(err,
						"failed to create administrator '%s'", admin.Username)))
			}

			meta := map[string]string{
				KeyUsername: admin.Username,
				KeyDatabase: usersDB,
			}
			return automa.SuccessReport(stp, automa.WithMetadata(meta))
		}).
		WithPrepare(func(ctx context.Context, stp automa.Step) (context.Context, error) {
			notify.As().StepStart(ctx, stp, "Creating initial administrator account")
			return ctx, nil
		}).
		WithOnFailure(func(ctx context.Context, stp automa.Step, rpt *automa.Report) {
			notify.As().StepFailure(ctx, stp, rpt, "Failed to create administrator account")
		}).
		WithOnCompletion(func(ctx context.Context, stp automa.Step, rpt *automa.Report) {
			if rpt != nil && rpt.Status == automa.StatusSkipped {
				notify.As().StepSkipped(ctx, stp, rpt, "Administrator account not seeded")
				return
			}
			notify.As().StepCompletion(ctx, stp, rpt, "Administrator account ready")
		})
}
