// SPDX-License-Identifier: Apache-2.0

package config

import "github.com/meshview/provisioner/internal/database"

// ManagerConfig maps the loaded database settings onto the connection
// configuration the database manager consumes.
func (c DatabaseConfig) ManagerConfig() database.Config {
	return database.Config{
		Host:        c.Host,
		Port:        c.Port,
		User:        c.User,
		Password:    c.Password,
		Maintenance: c.Maintenance,
		SSLMode:     c.SSLMode,
	}
}
