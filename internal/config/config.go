// SPDX-License-Identifier: Apache-2.0

package config

import (
	"strings"

	"github.com/automa-saga/logx"
	"github.com/joomcode/errorx"
	"github.com/meshview/provisioner/internal/core"
	"github.com/meshview/provisioner/pkg/sanity"
	"github.com/spf13/viper"
)

// Config holds the global configuration for the application.
type Config struct {
	Log       logx.LoggingConfig `yaml:"log" json:"log"`
	Database  DatabaseConfig     `yaml:"database" json:"database"`
	Provision ProvisionConfig    `yaml:"provision" json:"provision"`
	Admin     AdminConfig        `yaml:"admin" json:"admin"`
	Legacy    LegacyConfig       `yaml:"legacy" json:"legacy"`
	App       AppConfig          `yaml:"app" json:"app"`
}

// DatabaseConfig describes the administrative connection used for all
// role and database DDL. The maintenance database is only a connection
// target; nothing is provisioned into it.
type DatabaseConfig struct {
	Host        string `yaml:"host" json:"host"`
	Port        int    `yaml:"port" json:"port"`
	User        string `yaml:"user" json:"user"`
	Password    string `yaml:"password" json:"password"`
	Maintenance string `yaml:"maintenance" json:"maintenance"`
	SSLMode     string `yaml:"sslMode" json:"sslMode"`
	DataDir     string `yaml:"dataDir" json:"dataDir"`
}

// Validate checks the administrative connection settings.
func (c *DatabaseConfig) Validate() error {
	if c.Maintenance != "" {
		if _, err := sanity.Identifier(c.Maintenance); err != nil {
			return errorx.IllegalArgument.Wrap(err, "invalid maintenance database name: %s", c.Maintenance)
		}
	}

	if c.DataDir != "" {
		if _, err := sanity.SanitizePath(c.DataDir); err != nil {
			return errorx.IllegalArgument.Wrap(err, "invalid data directory: %s", c.DataDir)
		}
	}

	return nil
}

// DatabaseSpec names one database to provision and the schema dump loaded
// into it at first creation. A dump path ending in .gz is decompressed on
// the fly; a missing dump means the database is created empty.
type DatabaseSpec struct {
	Name string `yaml:"name" json:"name"`
	Dump string `yaml:"dump" json:"dump"`
}

// ProvisionConfig names the role and databases this tool owns. Mutations
// are confined to what is listed here.
type ProvisionConfig struct {
	Role      string         `yaml:"role" json:"role"`
	Databases []DatabaseSpec `yaml:"databases" json:"databases"`

	// UsersDatabase is the provisioned database holding the users table.
	UsersDatabase string `yaml:"usersDatabase" json:"usersDatabase"`
}

// Validate checks every provision target name before any DDL runs.
func (c *ProvisionConfig) Validate() error {
	if c.Role != "" {
		if _, err := sanity.Identifier(c.Role); err != nil {
			return errorx.IllegalArgument.Wrap(err, "invalid role name: %s", c.Role)
		}
	}

	for _, db := range c.Databases {
		if _, err := sanity.Identifier(db.Name); err != nil {
			return errorx.IllegalArgument.Wrap(err, "invalid database name: %s", db.Name)
		}
		if db.Dump != "" {
			if _, err := sanity.SanitizePath(db.Dump); err != nil {
				return errorx.IllegalArgument.Wrap(err, "invalid dump path for database %s: %s", db.Name, db.Dump)
			}
		}
	}

	if c.UsersDatabase != "" {
		if _, err := sanity.Identifier(c.UsersDatabase); err != nil {
			return errorx.IllegalArgument.Wrap(err, "invalid users database name: %s", c.UsersDatabase)
		}
	}

	return nil
}

// AdminConfig carries the initial administrator account, consulted only on
// fresh installs. The packaging layer writes these values into the config
// file before invoking this tool.
type AdminConfig struct {
	Username string `yaml:"username" json:"username"`
	Password string `yaml:"password" json:"password"`
	LongName string `yaml:"longName" json:"longName"`
	Email    string `yaml:"email" json:"email"`
}

// Validate checks the administrator account settings.
// Password content is deliberately not constrained here.
func (c *AdminConfig) Validate() error {
	if c.Username != "" {
		if _, err := sanity.Username(c.Username); err != nil {
			return errorx.IllegalArgument.Wrap(err, "invalid admin username: %s", c.Username)
		}
	}

	return nil
}

// LegacyConfig locates the flat-file credential store imported once when
// upgrading from releases that predate the users table.
type LegacyConfig struct {
	UsersFile string `yaml:"usersFile" json:"usersFile"`
}

// Validate checks the legacy store location.
func (c *LegacyConfig) Validate() error {
	if c.UsersFile != "" {
		if _, err := sanity.SanitizePath(c.UsersFile); err != nil {
			return errorx.IllegalArgument.Wrap(err, "invalid legacy users file path: %s", c.UsersFile)
		}
	}

	return nil
}

// AppConfig points at the web application's own settings file, read only by
// the check command.
type AppConfig struct {
	SettingsFile string `yaml:"settingsFile" json:"settingsFile"`
}

// Validate checks the settings file location.
func (c *AppConfig) Validate() error {
	if c.SettingsFile != "" {
		if _, err := sanity.SanitizePath(c.SettingsFile); err != nil {
			return errorx.IllegalArgument.Wrap(err, "invalid app settings file path: %s", c.SettingsFile)
		}
	}

	return nil
}

// Validate validates all configuration fields to ensure they are safe and secure.
func (c Config) Validate() error {
	if err := c.Database.Validate(); err != nil {
		return err
	}
	if err := c.Provision.Validate(); err != nil {
		return err
	}
	if err := c.Admin.Validate(); err != nil {
		return err
	}
	if err := c.Legacy.Validate(); err != nil {
		return err
	}
	if err := c.App.Validate(); err != nil {
		return err
	}
	return nil
}

var globalConfig = Defaults()

func init() {
	// logging must work before Initialize runs, config errors are logged too
	_ = logx.Initialize(globalConfig.Log)
}

// Defaults returns the compiled-in configuration. The packaged config file
// overrides only what it sets.
func Defaults() Config {
	return Config{
		Log: logx.LoggingConfig{
			Level:          "Info",
			ConsoleLogging: true,
			FileLogging:    false,
			Directory:      core.LogsDir,
			Filename:       "provisioner.log",
		},
		Database: DatabaseConfig{
			Host:        "localhost",
			Port:        5432,
			User:        "postgres",
			Maintenance: "postgres",
			SSLMode:     "disable",
			DataDir:     "/var/lib/postgresql",
		},
		Provision: ProvisionConfig{
			Role: "meshview",
			Databases: []DatabaseSpec{
				{Name: "views", Dump: core.DefaultViewsDump},
				{Name: "userfilters", Dump: core.DefaultUserFiltersDump},
			},
			UsersDatabase: "views",
		},
		Legacy: LegacyConfig{
			UsersFile: core.DefaultLegacyUsersFile,
		},
		App: AppConfig{
			SettingsFile: core.DefaultSettingsFile,
		},
	}
}

// Initialize loads the configuration from the specified file.
//
// Parameters:
//   - path: The path to the configuration file.
//
// Returns:
//   - An error if the configuration cannot be loaded. A missing file is
//     reported as NotFoundError so callers can decide whether absence is
//     acceptable; defaults stay in effect in that case.
func Initialize(path string) error {
	if path != "" {
		globalConfig = Defaults()
		viper.Reset()
		viper.SetConfigFile(path)
		viper.SetEnvPrefix("PROVISIONER")
		viper.AutomaticEnv()
		viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

		err := viper.ReadInConfig()
		if err != nil {
			return NotFoundError.Wrap(err, "failed to read config file: %s", path).
				WithProperty(errorx.PropertyPayload(), path)
		}

		if err := viper.Unmarshal(&globalConfig); err != nil {
			return errorx.IllegalFormat.Wrap(err, "failed to parse configuration").
				WithProperty(errorx.PropertyPayload(), path)
		}
	}

	return nil
}

// Get returns the loaded configuration.
func Get() Config {
	return globalConfig
}

func Set(c *Config) error {
	globalConfig = *c
	return nil
}
