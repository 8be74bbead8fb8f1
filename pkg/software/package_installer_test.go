// SPDX-License-Identifier: Apache-2.0

package software

import (
	"errors"
	"testing"

	"github.com/bluet/syspkg"
	"github.com/bluet/syspkg/manager"
	"github.com/joomcode/errorx"
	"github.com/stretchr/testify/require"
)

// fakeFinder implements packageFinder with canned results
type fakeFinder struct {
	packages []syspkg.PackageInfo
	err      error
}

func (f *fakeFinder) Find(keywords []string, opts *manager.Options) ([]syspkg.PackageInfo, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.packages, nil
}

func newTestInstaller(t *testing.T, finder *fakeFinder) *PackageInstaller {
	t.Helper()

	p, err := NewPackageInstaller(
		WithPackageName("postgresql"),
		WithPackageOptions(manager.Options{AssumeYes: true}),
		WithPackageManager(finder),
	)
	require.NoError(t, err)
	return p
}

func Test_PackageInstaller_Info(t *testing.T) {
	finder := &fakeFinder{
		packages: []syspkg.PackageInfo{
			{Name: "postgresql-client", Status: manager.PackageStatusInstalled, Version: "15+248"},
			{Name: "postgresql", Status: manager.PackageStatusInstalled, Version: "15+248"},
		},
	}

	p := newTestInstaller(t, finder)

	info, err := p.Info()
	require.NoError(t, err)
	require.Equal(t, "postgresql", info.Name)
	require.Equal(t, "15+248", info.Version)
}

func Test_PackageInstaller_Info_NotFound(t *testing.T) {
	p := newTestInstaller(t, &fakeFinder{})

	_, err := p.Info()
	require.Error(t, err)
	require.True(t, errorx.IsOfType(err, PackageNotFoundError))
}

func Test_PackageInstaller_Info_QueryFailure(t *testing.T) {
	p := newTestInstaller(t, &fakeFinder{err: errors.New("apt-cache exploded")})

	_, err := p.Info()
	require.Error(t, err)
	require.True(t, errorx.IsOfType(err, PackageQueryError))
	require.Contains(t, err.Error(), "postgresql")
}

func Test_PackageInstaller_IsInstalled(t *testing.T) {
	tests := []struct {
		name     string
		status   manager.PackageStatus
		expected bool
	}{
		{name: "Installed package", status: manager.PackageStatusInstalled, expected: true},
		{name: "Available package", status: manager.PackageStatusAvailable, expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			finder := &fakeFinder{
				packages: []syspkg.PackageInfo{
					{Name: "postgresql", Status: tt.status, Version: "15+248"},
				},
			}

			p := newTestInstaller(t, finder)
			require.Equal(t, tt.expected, p.IsInstalled())
		})
	}
}

func Test_PackageInstaller_InstalledVersion(t *testing.T) {
	finder := &fakeFinder{
		packages: []syspkg.PackageInfo{
			{Name: "postgresql", Status: manager.PackageStatusInstalled, Version: "15+248"},
		},
	}

	p := newTestInstaller(t, finder)
	require.Equal(t, "15+248", p.InstalledVersion())
}

func Test_PackageInstaller_InstalledVersion_NotInstalled(t *testing.T) {
	finder := &fakeFinder{
		packages: []syspkg.PackageInfo{
			{Name: "postgresql", Status: manager.PackageStatusAvailable, Version: "15+248"},
		},
	}

	p := newTestInstaller(t, finder)
	require.Equal(t, "", p.InstalledVersion())
}
