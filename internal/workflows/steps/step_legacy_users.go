package steps

import (
	"context"
	"os"
	"strconv"
	"strings"

	"github.com/automa-saga/automa"

	"github.com/meshview/provisioner/internal/database"
	"github.com/meshview/provisioner/internal/users"
	"github.com/meshview/provisioner/internal/workflows/notify"
)

const ImportLegacyUsersStepId = "import-legacy-users"

// ImportLegacyUsersStep moves accounts from the flat credential file into
// the users table. Runs once, on upgrades that cross the release where the
// table was introduced. A missing file means there is nothing to import and
// the step is skipped.
func ImportLegacyUsersStep(mgr database.Manager, usersDB string, path string) automa.Builder {
	return automa.NewStepBuilder().WithId(ImportLegacyUsersStepId).
		WithExecute(func(ctx context.Context, stp automa.Step) *automa.Report {
			if strings.TrimSpace(path) == "" {
				return automa.SkippedReport(stp,
					automa.WithDetail("no legacy credential file configured"))
			}

			if _, err := os.Stat(path); os.IsNotExist(err) {
				return automa.SkippedReport(stp,
					automa.WithDetail("legacy credential file not present"))
			}

			db, err := mgr.Database(ctx, usersDB)
			if err != nil {
				return automa.FailureReport(stp,
					automa.WithError(automa.StepExecutionError.Wrap(err,
						"failed to open users database '%s'", usersDB)))
			}

			stats, err := users.NewImporter(users.NewStore(db)).ImportFile(ctx, path)
			if err != nil {
				return automa.FailureReport(stp,
					automa.WithError(automa.StepExecutionError.Wrap(err,
						"failed to import legacy credential file %s", path)))
			}

			meta := map[string]string{
				KeyImported: strconv.Itoa(stats.Imported),
				KeyElevated: strconv.Itoa(stats.Elevated),
				KeySkipped:  strconv.Itoa(stats.Skipped),
			}
			return automa.SuccessReport(stp, automa.WithMetadata(meta))
		}).
		WithPrepare(func(ctx context.Context, stp automa.Step) (context.Context, error) {
			notify.As().StepStart(ctx, stp, "Importing legacy user credentials from %s", path)
			return ctx, nil
		}).
		WithOnFailure(func(ctx context.Context, stp automa.Step, rpt *automa.Report) {
			notify.As().StepFailure(ctx, stp, rpt, "Failed to import legacy user credentials")
		}).
		WithOnCompletion(func(ctx context.Context, stp automa.Step, rpt *automa.Report) {
			if rpt != nil && rpt.Status == automa.StatusSkipped {
				notify.As().StepSkipped(ctx, stp, rpt, "Legacy credential import not needed")
				return
			}
			notify.As().StepCompletion(ctx, stp, rpt, "Legacy user credentials imported")
		})
}
