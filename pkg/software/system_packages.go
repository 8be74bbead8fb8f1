package software

import "github.com/bluet/syspkg/manager"

// NewPostgresServer probes the PostgreSQL server metapackage. Debian installs
// the version-specific server through this package, so its status tells us
// whether a cluster is expected on the host.
func NewPostgresServer() (Package, error) {
	return NewPackageInstaller(WithPackageName("postgresql"), WithPackageOptions(manager.Options{AssumeYes: true}))
}
