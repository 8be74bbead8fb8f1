// SPDX-License-Identifier: Apache-2.0

// Package core holds the filesystem contract shared across commands.
package core

import "path"

const DefaultFilePerm = 0755

var (
	ConfigDir = "/etc/meshview"
	ShareDir  = "/usr/share/meshview"
	LogsDir   = "/var/log/meshview"

	DefaultConfigFile      = path.Join(ConfigDir, "provisioner.yaml")
	DefaultLegacyUsersFile = path.Join(ConfigDir, "users")
	DefaultSettingsFile    = path.Join(ConfigDir, "settings.toml")
	DefaultViewsDump       = path.Join(ShareDir, "views.sql")
	DefaultUserFiltersDump = path.Join(ShareDir, "userfilters.sql")
)
