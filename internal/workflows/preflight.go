// SPDX-License-Identifier: Apache-2.0

package workflows

import (
	"context"
	"fmt"
	"os"
	"os/user"
	"strconv"
	"strings"

	"github.com/automa-saga/automa"
	"github.com/automa-saga/logx"
	"github.com/joomcode/errorx"

	"github.com/meshview/provisioner/internal/config"
	"github.com/meshview/provisioner/internal/database"
	"github.com/meshview/provisioner/internal/doctor"
	"github.com/meshview/provisioner/internal/sysctl"
	"github.com/meshview/provisioner/internal/tomlx"
	"github.com/meshview/provisioner/internal/workflows/notify"
	"github.com/meshview/provisioner/internal/workflows/steps"
	"github.com/meshview/provisioner/pkg/fsx"
	"github.com/meshview/provisioner/pkg/hardware"
	osx "github.com/meshview/provisioner/pkg/os"
	"github.com/meshview/provisioner/pkg/software"
)

const HealthCheckWorkflowId = "health-check"

const postgresService = "postgresql"

// Hosts with less free space than this on the data directory get a warning
// from the disk space check.
const minFreeDiskBytes uint64 = 1 << 30

// CheckPrivilegesStep validates that the current user has superuser privileges
func CheckPrivilegesStep() automa.Builder {
	return automa.NewStepBuilder().WithId("validate-privileges").
		WithExecute(func(ctx context.Context, stp automa.Step) *automa.Report {
			current, err := user.Current()
			if err != nil {
				return automa.FailureReport(stp,
					automa.WithError(errorx.IllegalState.Wrap(err, "failed to get current user")))
			}

			if current.Uid != "0" {
				return automa.FailureReport(stp,
					automa.WithError(
						errorx.IllegalState.New("requires superuser privilege").
							WithProperty(doctor.ErrPropertyResolution,
								fmt.Sprintf("Run the command with 'sudo' or as root user: `sudo %s`",
									strings.Join(os.Args, " ")))))
			}

			logx.As().Info().Msg("Superuser privilege validated")
			return automa.SuccessReport(stp)
		}).
		WithPrepare(func(ctx context.Context, stp automa.Step) (context.Context, error) {
			notify.As().StepStart(ctx, stp, "Starting privilege validation")
			return ctx, nil
		}).
		WithOnFailure(func(ctx context.Context, stp automa.Step, rpt *automa.Report) {
			notify.As().StepFailure(ctx, stp, rpt, "Privilege validation failed")
		}).
		WithOnCompletion(func(ctx context.Context, stp automa.Step, rpt *automa.Report) {
			notify.As().StepCompletion(ctx, stp, rpt, "Privilege validation step completed successfully")
		})
}

// HostProfileStep records the host's OS, kernel and sizing in the report.
// Informational only; it never fails.
func HostProfileStep() automa.Builder {
	return automa.NewStepBuilder().WithId("host-profile").
		WithExecute(func(ctx context.Context, stp automa.Step) *automa.Report {
			hostProfile := hardware.GetHostProfile()

			meta := map[string]string{
				"os":        hostProfile.GetOSVendor() + " " + hostProfile.GetOSVersion(),
				"kernel":    hostProfile.GetKernelRelease(),
				"cpu_cores": strconv.FormatUint(uint64(hostProfile.GetCPUCores()), 10),
				"memory_gb": strconv.FormatUint(hostProfile.GetTotalMemoryGB(), 10),
			}

			logx.As().Info().Str("host_profile", hostProfile.String()).Msg("Retrieved host profile")
			return automa.SuccessReport(stp, automa.WithMetadata(meta))
		}).
		WithPrepare(func(ctx context.Context, stp automa.Step) (context.Context, error) {
			logx.As().Info().Msg("Collecting host profile")
			return ctx, nil
		})
}

// CheckPostgresPackageStep validates that the PostgreSQL server package is
// installed.
func CheckPostgresPackageStep() automa.Builder {
	return automa.NewStepBuilder().WithId("check-postgres-package").
		WithExecute(func(ctx context.Context, stp automa.Step) *automa.Report {
			pkg, err := software.NewPostgresServer()
			if err != nil {
				return automa.FailureReport(stp,
					automa.WithError(errorx.IllegalState.Wrap(err, "no usable system package manager").
						WithProperty(doctor.ErrPropertyResolution,
							"This check needs a Debian host with apt available.")))
			}
			meta := map[string]string{"package": pkg.Name()}

			if !pkg.IsInstalled() {
				meta[steps.KeyInstructions] = fmt.Sprintf(
					"The package '%s' is not installed.\n\nInstall it with:\n\n  sudo apt-get install %s\n",
					pkg.Name(), pkg.Name())
				return automa.FailureReport(stp,
					automa.WithError(
						errorx.IllegalState.New("package '%s' is not installed", pkg.Name()).
							WithProperty(doctor.ErrPropertyResolution,
								fmt.Sprintf("Install the PostgreSQL server package: `sudo apt-get install %s`", pkg.Name()))),
					automa.WithMetadata(meta))
			}

			meta["version"] = pkg.InstalledVersion()
			logx.As().Info().
				Str("package", pkg.Name()).
				Str("version", meta["version"]).
				Msg("PostgreSQL server package present")
			return automa.SuccessReport(stp, automa.WithMetadata(meta))
		}).
		WithPrepare(func(ctx context.Context, stp automa.Step) (context.Context, error) {
			notify.As().StepStart(ctx, stp, "Checking PostgreSQL server package")
			return ctx, nil
		}).
		WithOnFailure(func(ctx context.Context, stp automa.Step, rpt *automa.Report) {
			notify.As().StepFailure(ctx, stp, rpt, "PostgreSQL package check failed")
		}).
		WithOnCompletion(func(ctx context.Context, stp automa.Step, rpt *automa.Report) {
			notify.As().StepCompletion(ctx, stp, rpt, "PostgreSQL package check completed")
		})
}

// CheckPostgresServiceStep validates that the PostgreSQL systemd unit is
// active.
func CheckPostgresServiceStep() automa.Builder {
	return automa.NewStepBuilder().WithId("check-postgres-service").
		WithExecute(func(ctx context.Context, stp automa.Step) *automa.Report {
			meta := map[string]string{"service": postgresService}

			running, err := osx.IsServiceRunning(ctx, postgresService)
			if err != nil {
				return automa.FailureReport(stp,
					automa.WithError(
						errorx.IllegalState.Wrap(err, "failed to query service '%s'", postgresService).
							WithProperty(doctor.ErrPropertyResolution,
								fmt.Sprintf("Confirm systemd is available and the unit exists: `systemctl status %s`", postgresService))),
					automa.WithMetadata(meta))
			}

			if !running {
				meta[steps.KeyInstructions] = fmt.Sprintf(
					"The service '%s' is not active.\n\nStart it with:\n\n  sudo systemctl start %s\n",
					postgresService, postgresService)
				return automa.FailureReport(stp,
					automa.WithError(
						errorx.IllegalState.New("service '%s' is not active", postgresService).
							WithProperty(doctor.ErrPropertyResolution,
								fmt.Sprintf("Start the service: `sudo systemctl start %s`", postgresService))),
					automa.WithMetadata(meta))
			}

			meta["state"] = "active"
			logx.As().Info().Str("service", postgresService).Msg("PostgreSQL service is active")
			return automa.SuccessReport(stp, automa.WithMetadata(meta))
		}).
		WithPrepare(func(ctx context.Context, stp automa.Step) (context.Context, error) {
			notify.As().StepStart(ctx, stp, "Checking PostgreSQL service state")
			return ctx, nil
		}).
		WithOnFailure(func(ctx context.Context, stp automa.Step, rpt *automa.Report) {
			notify.As().StepFailure(ctx, stp, rpt, "PostgreSQL service check failed")
		}).
		WithOnCompletion(func(ctx context.Context, stp automa.Step, rpt *automa.Report) {
			notify.As().StepCompletion(ctx, stp, rpt, "PostgreSQL service check completed")
		})
}

// CheckKernelSettingsStep snapshots the shared memory kernel parameters.
// Parameters that cannot be read are reported as warnings; the step itself
// always succeeds.
func CheckKernelSettingsStep() automa.Builder {
	return automa.NewStepBuilder().WithId("check-kernel-settings").
		WithExecute(func(ctx context.Context, stp automa.Step) *automa.Report {
			values, missing := sysctl.Snapshot(sysctl.SharedMemoryKeys()...)

			meta := make(map[string]string, len(values)+1)
			for key, value := range values {
				meta[key] = value
			}

			if len(missing) > 0 {
				meta[steps.KeyWarnings] = "unreadable kernel parameters: " + strings.Join(missing, ", ")
				logx.As().Warn().Strs("parameters", missing).Msg("Some kernel parameters could not be read")
			}

			return automa.SuccessReport(stp, automa.WithMetadata(meta))
		}).
		WithPrepare(func(ctx context.Context, stp automa.Step) (context.Context, error) {
			notify.As().StepStart(ctx, stp, "Checking kernel shared memory settings")
			return ctx, nil
		}).
		WithOnCompletion(func(ctx context.Context, stp automa.Step, rpt *automa.Report) {
			notify.As().StepCompletion(ctx, stp, rpt, "Kernel settings check completed")
		})
}

// CheckDiskSpaceStep validates that the database data directory has free
// space. An unreadable path is a failure; low space is only a warning, the
// operator may know better.
func CheckDiskSpaceStep(dataDir string) automa.Builder {
	return automa.NewStepBuilder().WithId("check-disk-space").
		WithExecute(func(ctx context.Context, stp automa.Step) *automa.Report {
			meta := map[string]string{"path": dataDir}

			space, err := fsx.StatDiskSpace(dataDir)
			if err != nil {
				return automa.FailureReport(stp,
					automa.WithError(
						errorx.IllegalState.Wrap(err, "failed to inspect disk space for %s", dataDir).
							WithProperty(doctor.ErrPropertyResolution,
								"Confirm the data directory exists, or point database.dataDir at the correct path")),
					automa.WithMetadata(meta))
			}

			meta["free_gb"] = strconv.FormatUint(space.FreeGB(), 10)
			meta["total_gb"] = strconv.FormatUint(space.TotalGB(), 10)

			if space.FreeBytes < minFreeDiskBytes {
				meta[steps.KeyWarnings] = fmt.Sprintf(
					"less than 1 GB free on %s; PostgreSQL may refuse writes soon", dataDir)
				logx.As().Warn().
					Str("path", dataDir).
					Uint64("free_bytes", space.FreeBytes).
					Msg("Data directory is low on disk space")
			}

			return automa.SuccessReport(stp, automa.WithMetadata(meta))
		}).
		WithPrepare(func(ctx context.Context, stp automa.Step) (context.Context, error) {
			notify.As().StepStart(ctx, stp, "Checking disk space for %s", dataDir)
			return ctx, nil
		}).
		WithOnFailure(func(ctx context.Context, stp automa.Step, rpt *automa.Report) {
			notify.As().StepFailure(ctx, stp, rpt, "Disk space check failed")
		}).
		WithOnCompletion(func(ctx context.Context, stp automa.Step, rpt *automa.Report) {
			notify.As().StepCompletion(ctx, stp, rpt, "Disk space check completed")
		})
}

// CheckAdminConnectionStep validates the administrative database connection
// end to end: connect, authenticate, and read the server version. The step
// opens its own short-lived connection so the check command works without
// any prior provisioning state.
func CheckAdminConnectionStep(dbCfg database.Config) automa.Builder {
	return automa.NewStepBuilder().WithId("check-admin-connection").
		WithExecute(func(ctx context.Context, stp automa.Step) *automa.Report {
			meta := map[string]string{
				"host": dbCfg.Host,
				"port": strconv.Itoa(dbCfg.Port),
			}

			mgr, err := database.NewManager(ctx, dbCfg)
			if err != nil {
				return automa.FailureReport(stp,
					automa.WithError(
						errorx.IllegalState.Wrap(err, "cannot establish administrative connection").
							WithProperty(doctor.ErrPropertyResolution,
								"Verify the database host, port and credentials in the provisioner configuration, and that PostgreSQL is running")),
					automa.WithMetadata(meta))
			}
			defer func() { _ = mgr.Close() }()

			serverVersion, err := mgr.ServerVersion(ctx)
			if err != nil {
				return automa.FailureReport(stp,
					automa.WithError(errorx.IllegalState.Wrap(err, "failed to read server version")),
					automa.WithMetadata(meta))
			}

			meta["server_version"] = serverVersion
			logx.As().Info().Str("server_version", serverVersion).Msg("Administrative connection validated")
			return automa.SuccessReport(stp, automa.WithMetadata(meta))
		}).
		WithPrepare(func(ctx context.Context, stp automa.Step) (context.Context, error) {
			notify.As().StepStart(ctx, stp, "Checking administrative database connection")
			return ctx, nil
		}).
		WithOnFailure(func(ctx context.Context, stp automa.Step, rpt *automa.Report) {
			notify.As().StepFailure(ctx, stp, rpt, "Administrative connection check failed")
		}).
		WithOnCompletion(func(ctx context.Context, stp automa.Step, rpt *automa.Report) {
			notify.As().StepCompletion(ctx, stp, rpt, "Administrative connection check completed")
		})
}

// CheckAppSettingsStep validates that the web application's settings file
// exists and names an administrative contact. Skipped when no settings file
// is configured.
func CheckAppSettingsStep(settingsFile string) automa.Builder {
	return automa.NewStepBuilder().WithId("check-app-settings").
		WithExecute(func(ctx context.Context, stp automa.Step) *automa.Report {
			if strings.TrimSpace(settingsFile) == "" {
				return automa.SkippedReport(stp,
					automa.WithDetail("no application settings file configured"))
			}

			meta := map[string]string{"settings_file": settingsFile}

			settings, err := tomlx.Load(settingsFile)
			if err != nil {
				resolution := "Fix the application settings file; it could not be parsed"
				if os.IsNotExist(err) {
					resolution = "Deploy the web application so its settings file exists, or adjust app.settingsFile"
				}
				return automa.FailureReport(stp,
					automa.WithError(
						errorx.IllegalState.Wrap(err, "failed to read application settings %s", settingsFile).
							WithProperty(doctor.ErrPropertyResolution, resolution)),
					automa.WithMetadata(meta))
			}

			email, ok := tomlx.LookupString(settings, "admin.email")
			if !ok {
				return automa.FailureReport(stp,
					automa.WithError(
						errorx.IllegalState.New("application settings have no administrative contact").
							WithProperty(doctor.ErrPropertyResolution,
								fmt.Sprintf("Set admin.email in %s", settingsFile))),
					automa.WithMetadata(meta))
			}

			meta["contact"] = email
			logx.As().Info().Str("contact", email).Msg("Application settings validated")
			return automa.SuccessReport(stp, automa.WithMetadata(meta))
		}).
		WithPrepare(func(ctx context.Context, stp automa.Step) (context.Context, error) {
			notify.As().StepStart(ctx, stp, "Checking application settings")
			return ctx, nil
		}).
		WithOnFailure(func(ctx context.Context, stp automa.Step, rpt *automa.Report) {
			notify.As().StepFailure(ctx, stp, rpt, "Application settings check failed")
		}).
		WithOnCompletion(func(ctx context.Context, stp automa.Step, rpt *automa.Report) {
			if rpt != nil && rpt.Status == automa.StatusSkipped {
				notify.As().StepSkipped(ctx, stp, rpt, "Application settings check skipped")
				return
			}
			notify.As().StepCompletion(ctx, stp, rpt, "Application settings check completed")
		})
}

// NewHealthCheckWorkflow builds the full environment validation run used by
// the check command. Every step executes regardless of earlier failures so
// one report covers everything that needs fixing.
func NewHealthCheckWorkflow(cfg config.Config) *automa.WorkflowBuilder {
	return automa.NewWorkflowBuilder().WithId(HealthCheckWorkflowId).Steps(
		CheckPrivilegesStep(),
		HostProfileStep(),
		CheckPostgresPackageStep(),
		CheckPostgresServiceStep(),
		CheckKernelSettingsStep(),
		CheckDiskSpaceStep(cfg.Database.DataDir),
		CheckAdminConnectionStep(cfg.Database.ManagerConfig()),
		CheckAppSettingsStep(cfg.App.SettingsFile),
	).
		WithExecutionMode(automa.ContinueOnError).
		WithPrepare(func(ctx context.Context, stp automa.Step) (context.Context, error) {
			notify.As().StepStart(ctx, stp, "Starting environment health checks")
			return ctx, nil
		}).
		WithOnFailure(func(ctx context.Context, stp automa.Step, rpt *automa.Report) {
			notify.As().StepFailure(ctx, stp, rpt, "Environment health checks failed")
		}).
		WithOnCompletion(func(ctx context.Context, stp automa.Step, rpt *automa.Report) {
			notify.As().StepCompletion(ctx, stp, rpt, "Environment health checks completed")
		})
}
