package steps

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/automa-saga/automa"
	"github.com/golang/mock/gomock"
	"github.com/joomcode/errorx"
	"github.com/stretchr/testify/require"

	"github.com/meshview/provisioner/internal/config"
	"github.com/meshview/provisioner/internal/database"
	"github.com/meshview/provisioner/internal/schema"
)

func TestEnsureDatabaseStep_WithDump(t *testing.T) {
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	dump := filepath.Join(t.TempDir(), "views.sql")
	require.NoError(t, os.WriteFile(dump, []byte("CREATE TABLE vw (id INTEGER);"), 0644))

	mgr := database.NewMockManager(ctrl)
	mgr.EXPECT().
		EnsureDatabase(gomock.Any(), "views", "meshview", gomock.AssignableToTypeOf(&schema.FileSource{})).
		Return(database.OutcomeCreated, nil)

	spec := config.DatabaseSpec{Name: "views", Dump: dump}
	step, err := EnsureDatabaseStep(mgr, spec, "meshview").Build()
	require.NoError(t, err)

	report := step.Execute(context.Background())
	require.NoError(t, report.Error)
	require.Equal(t, automa.StatusSuccess, report.Status)
	require.Equal(t, "views", report.Metadata[KeyDatabase])
	require.Equal(t, database.OutcomeCreated.String(), report.Metadata[KeyOutcome])
	require.NotEmpty(t, report.Metadata[KeyDump])
}

func TestEnsureDatabaseStep_MissingDumpCreatesEmpty(t *testing.T) {
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	mgr := database.NewMockManager(ctrl)
	mgr.EXPECT().
		EnsureDatabase(gomock.Any(), "userfilters", "meshview", gomock.Nil()).
		Return(database.OutcomeCreated, nil)

	spec := config.DatabaseSpec{
		Name: "userfilters",
		Dump: filepath.Join(t.TempDir(), "nope.sql"),
	}
	step, err := EnsureDatabaseStep(mgr, spec, "meshview").Build()
	require.NoError(t, err)

	report := step.Execute(context.Background())
	require.NoError(t, report.Error)
	require.Equal(t, automa.StatusSuccess, report.Status)
	require.Empty(t, report.Metadata[KeyDump])
}

func TestEnsureDatabaseStep_Failure(t *testing.T) {
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	mgr := database.NewMockManager(ctrl)
	mgr.EXPECT().
		EnsureDatabase(gomock.Any(), "views", "meshview", gomock.Nil()).
		Return(database.OutcomeNone, errorx.ExternalError.New("connection reset"))

	spec := config.DatabaseSpec{Name: "views"}
	step, err := EnsureDatabaseStep(mgr, spec, "meshview").Build()
	require.NoError(t, err)

	report := step.Execute(context.Background())
	require.Error(t, report.Error)
	require.Equal(t, automa.StatusFailed, report.Status)
	require.Equal(t, "views", report.Metadata[KeyDatabase])
}
