// SPDX-License-Identifier: Apache-2.0

package software

import (
	"sync"

	"github.com/bluet/syspkg"
	"github.com/bluet/syspkg/manager"
)

var (
	pkgManager syspkg.PackageManager
	once       sync.Once
)

func GetPackageManager() (syspkg.PackageManager, error) {
	var initErr error
	once.Do(func() {
		includeOptions := syspkg.IncludeOptions{AllAvailable: true}
		sysPackageManager, err := syspkg.New(includeOptions)
		if err != nil {
			initErr = NewPackageQueryError(err, "package-manager")
			return
		}

		// Let syspkg automatically detect the best available package manager
		pm, err := sysPackageManager.GetPackageManager("") // Empty string returns first available
		if err != nil {
			initErr = NewPackageQueryError(err, "package-manager")
			return
		}

		pkgManager = pm
	})

	return pkgManager, initErr
}

// packageFinder is the slice of the package manager surface the probe needs.
// Keeping it narrow lets tests substitute a fake without implementing the
// whole syspkg interface.
type packageFinder interface {
	Find(keywords []string, opts *manager.Options) ([]syspkg.PackageInfo, error)
}

type option func(*PackageInstaller)

// PackageInstaller is the default implementation of the Package interface that
// queries a system package through the standard package manager
type PackageInstaller struct {
	pkgName    string
	pkgOptions manager.Options
	pkgManager packageFinder
}

func (p *PackageInstaller) Name() string {
	return p.pkgName
}

func (p *PackageInstaller) IsInstalled() bool {
	info, err := p.Info()
	if err != nil {
		return false
	}

	return info.Status == manager.PackageStatusInstalled
}

// InstalledVersion returns the version string of the installed package, or
// the empty string when the package is absent or only configured.
func (p *PackageInstaller) InstalledVersion() string {
	info, err := p.Info()
	if err != nil || info.Status != manager.PackageStatusInstalled {
		return ""
	}

	return info.Version
}

func (p *PackageInstaller) Info() (*syspkg.PackageInfo, error) {
	// Instead of using ListInstalled, use Find to get more reliable results
	// as the current syspkg apt ListInstalled implementation does not check whether only the config of a package is there.
	resp, err := p.pkgManager.Find([]string{p.pkgName}, &p.pkgOptions)
	if err != nil {
		return nil, NewPackageQueryError(err, p.pkgName)
	}

	// go through the list and verify if the package is found
	for _, pkg := range resp {
		if pkg.Name == p.pkgName {
			return &pkg, nil
		}
	}

	return nil, NewPackageNotFoundError(p.pkgName)
}

func WithPackageName(name string) func(*PackageInstaller) {
	return func(pb *PackageInstaller) {
		pb.pkgName = name
	}
}

func WithPackageOptions(opts manager.Options) func(*PackageInstaller) {
	return func(pb *PackageInstaller) {
		pb.pkgOptions = opts
	}
}

func WithPackageManager(pm packageFinder) func(*PackageInstaller) {
	return func(pb *PackageInstaller) {
		pb.pkgManager = pm
	}
}

func NewPackageInstaller(opts ...option) (*PackageInstaller, error) {
	p := &PackageInstaller{}

	for _, opt := range opts {
		opt(p)
	}

	if p.pkgManager == nil {
		pm, err := GetPackageManager()
		if err != nil {
			return nil, err
		}
		p.pkgManager = pm
	}

	return p, nil
}
