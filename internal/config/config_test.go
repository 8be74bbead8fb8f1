// SPDX-License-Identifier: Apache-2.0

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/joomcode/errorx"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "provisioner.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestInitialize_FileOverridesDefaults(t *testing.T) {
	yamlCfg := `
log:
  level: "Debug"
database:
  host: "db.internal"
  port: 5433
  password: "s3cret"
admin:
  username: "admin"
  password: "initial"
`
	path := writeConfigFile(t, yamlCfg)

	require.NoError(t, Initialize(path))
	defer func() { globalConfig = Defaults() }()

	cfg := Get()
	require.Equal(t, "db.internal", cfg.Database.Host)
	require.Equal(t, 5433, cfg.Database.Port)
	require.Equal(t, "admin", cfg.Admin.Username)

	// values the file does not set keep their compiled defaults
	require.Equal(t, "meshview", cfg.Provision.Role)
	require.Equal(t, "views", cfg.Provision.UsersDatabase)
	require.Len(t, cfg.Provision.Databases, 2)
	require.Equal(t, "postgres", cfg.Database.Maintenance)
}

func TestInitialize_EnvOverride(t *testing.T) {
	yamlCfg := `
database:
  host: "db.internal"
  password: "from-file"
`
	path := writeConfigFile(t, yamlCfg)

	t.Setenv("PROVISIONER_DATABASE_PASSWORD", "from-env")

	require.NoError(t, Initialize(path))
	defer func() { globalConfig = Defaults() }()

	require.Equal(t, "from-env", Get().Database.Password)
	require.Equal(t, "db.internal", Get().Database.Host)
}

func TestInitialize_MissingFile(t *testing.T) {
	err := Initialize(filepath.Join(t.TempDir(), "absent.yaml"))
	defer func() { globalConfig = Defaults() }()

	require.Error(t, err)
	require.True(t, errorx.IsOfType(err, NotFoundError))

	// defaults remain usable after a failed load
	require.Equal(t, "meshview", Get().Provision.Role)
}

func TestConfig_Validate(t *testing.T) {
	cfg := Defaults()
	require.NoError(t, cfg.Validate())

	cfg.Provision.Role = "no;pe"
	require.Error(t, cfg.Validate())

	cfg = Defaults()
	cfg.Provision.Databases = append(cfg.Provision.Databases, DatabaseSpec{Name: "Bad-Name"})
	require.Error(t, cfg.Validate())

	cfg = Defaults()
	cfg.Admin.Username = "../root"
	require.Error(t, cfg.Validate())

	cfg = Defaults()
	cfg.Legacy.UsersFile = "relative/path"
	require.Error(t, cfg.Validate())
}
