package steps

import (
	"context"
	"testing"

	"github.com/automa-saga/automa"
	"github.com/golang/mock/gomock"
	"github.com/joomcode/errorx"
	"github.com/stretchr/testify/require"

	"github.com/meshview/provisioner/internal/database"
)

func TestEnsureRoleStep_ReportsOutcome(t *testing.T) {
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	mgr := database.NewMockManager(ctrl)
	mgr.EXPECT().EnsureRole(gomock.Any(), "meshview").Return(database.OutcomeCreated, nil)

	step, err := EnsureRoleStep(mgr, "meshview").Build()
	require.NoError(t, err)

	report := step.Execute(context.Background())
	require.NoError(t, report.Error)
	require.Equal(t, automa.StatusSuccess, report.Status)
	require.Equal(t, "meshview", report.Metadata[KeyRole])
	require.Equal(t, database.OutcomeCreated.String(), report.Metadata[KeyOutcome])
}

func TestEnsureRoleStep_ErrorBecomesWarning(t *testing.T) {
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	mgr := database.NewMockManager(ctrl)
	mgr.EXPECT().EnsureRole(gomock.Any(), "meshview").
		Return(database.OutcomeNone, errorx.ExternalError.New("permission denied to create role"))

	step, err := EnsureRoleStep(mgr, "meshview").Build()
	require.NoError(t, err)

	report := step.Execute(context.Background())

	// Role trouble must not fail package configuration
	require.NoError(t, report.Error)
	require.Equal(t, automa.StatusSuccess, report.Status)
	require.Contains(t, report.Metadata[KeyWarnings], "permission denied")
}
