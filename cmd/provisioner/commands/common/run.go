// SPDX-License-Identifier: Apache-2.0

package common

import (
	"context"
	"fmt"
	"path"
	"time"

	"github.com/automa-saga/automa"
	"github.com/automa-saga/logx"

	"github.com/meshview/provisioner/internal/core"
	"github.com/meshview/provisioner/internal/doctor"
	"github.com/meshview/provisioner/internal/workflows/steps"
)

// ReportPath returns the timestamped location a workflow report is written
// to when report saving is enabled.
func ReportPath(prefix string) string {
	timestamp := time.Now().Format("20060102_150405")
	return path.Join(core.LogsDir, fmt.Sprintf("%s_report_%s.yaml", prefix, timestamp))
}

// RunProvisioningWorkflow executes a provisioning workflow and prints its
// report. Step failures are logged but never terminate the process: the
// package manager must see configure exit cleanly whenever the provisioner
// itself could run, and a rerun repairs whatever failed. Only a workflow
// that cannot even be built is fatal.
func RunProvisioningWorkflow(ctx context.Context, b automa.Builder, saveReport bool) {
	wf, err := b.Build()
	if err != nil {
		doctor.CheckErr(ctx, err)
	}

	report := wf.Execute(ctx)

	savePath := ""
	if saveReport {
		savePath = ReportPath("provision")
	}
	steps.PrintWorkflowReport(report, savePath)

	if failed := failedSteps(report); len(failed) > 0 {
		logx.As().Warn().
			Strs("steps", failed).
			Msg("Some provisioning steps failed; fix the cause and rerun configure")
		return
	}

	logx.As().Info().Str("workflow", report.Id).Msg("Provisioning completed")
}

// RunCheckWorkflow executes a diagnostic workflow and terminates with a
// non-zero exit code when any check failed.
func RunCheckWorkflow(ctx context.Context, b automa.Builder, saveReport bool) {
	wf, err := b.Build()
	if err != nil {
		doctor.CheckErr(ctx, err)
	}

	report := wf.Execute(ctx)

	savePath := ""
	if saveReport {
		savePath = ReportPath("check")
	}
	steps.PrintWorkflowReport(report, savePath)

	if report.Error != nil || len(failedSteps(report)) > 0 {
		doctor.CheckReportErr(ctx, report)
	}

	logx.As().Info().Msg("All environment checks passed")
}

func failedSteps(report *automa.Report) []string {
	var failed []string
	if report == nil {
		return failed
	}

	for _, stepReport := range report.StepReports {
		if stepReport.Status == automa.StatusFailed || stepReport.HasError() {
			failed = append(failed, stepReport.Id)
		}
	}

	return failed
}
