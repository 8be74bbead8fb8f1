// SPDX-License-Identifier: Apache-2.0

package database

import (
	"fmt"
	"strings"

	"github.com/joomcode/errorx"
)

// Config carries the connection parameters for the PostgreSQL server the
// provisioner manages. The Maintenance database is what the administrative
// connection attaches to; provisioned databases get their own connections.
type Config struct {
	Host        string
	Port        int
	User        string
	Password    string
	Maintenance string
	SSLMode     string
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.Host) == "" {
		return errorx.IllegalArgument.New("database host cannot be empty")
	}
	if c.Port <= 0 || c.Port > 65535 {
		return errorx.IllegalArgument.New("database port %d is out of range", c.Port)
	}
	if strings.TrimSpace(c.User) == "" {
		return errorx.IllegalArgument.New("database user cannot be empty")
	}
	if strings.TrimSpace(c.Maintenance) == "" {
		return errorx.IllegalArgument.New("maintenance database cannot be empty")
	}
	return nil
}

// DSN renders a keyword/value connection string for the given database.
// Values are quoted per the libpq rules so passwords containing spaces or
// quotes survive the round trip.
func (c Config) DSN(dbname string) string {
	parts := []string{
		"host=" + quoteDSNValue(c.Host),
		fmt.Sprintf("port=%d", c.Port),
		"user=" + quoteDSNValue(c.User),
		"dbname=" + quoteDSNValue(dbname),
		"sslmode=" + quoteDSNValue(c.SSLMode),
	}
	if c.Password != "" {
		parts = append(parts, "password="+quoteDSNValue(c.Password))
	}

	return strings.Join(parts, " ")
}

func quoteDSNValue(v string) string {
	if v != "" && !strings.ContainsAny(v, ` '\`) {
		return v
	}

	v = strings.ReplaceAll(v, `\`, `\\`)
	v = strings.ReplaceAll(v, `'`, `\'`)
	return "'" + v + "'"
}
