package software

import "github.com/bluet/syspkg"

// Package describes a system package known to the host package manager.
// The provisioner runs inside maintainer scripts, so packages are installed
// and removed by the package manager itself; this surface only inspects them.
type Package interface {
	Name() string
	Info() (*syspkg.PackageInfo, error)
	IsInstalled() bool
	InstalledVersion() string
}
