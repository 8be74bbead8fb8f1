// SPDX-License-Identifier: Apache-2.0

// Package users manages application user accounts in the relational user
// table, including the one-time import of the legacy flat-file credential
// store.
package users

import (
	"strings"

	"github.com/joomcode/errorx"
	"golang.org/x/crypto/bcrypt"
)

// Role is a capability tag granted to a user. The web application
// interprets the tags; the provisioner only assigns them.
type Role string

const (
	RoleView          Role = "view"
	RoleConfigureView Role = "configure-view"
	RoleEditConfig    Role = "edit-config"
	RoleEditUsers     Role = "edit-users"
)

// BaselineRoles is the role set granted to ordinary imported users.
func BaselineRoles() []Role {
	return []Role{RoleView}
}

// AdministratorRoles is the full administrative role set. It is always a
// superset of BaselineRoles.
func AdministratorRoles() []Role {
	return []Role{RoleView, RoleConfigureView, RoleEditConfig, RoleEditUsers}
}

// User is one account in the users table. PasswordHash holds a salted
// bcrypt hash; plaintext passwords are never stored.
type User struct {
	Username     string `json:"username" yaml:"username"`
	LongName     string `json:"longname" yaml:"longname"`
	Email        string `json:"email" yaml:"email"`
	PasswordHash string `json:"-" yaml:"-"`
	Roles        []Role `json:"roles" yaml:"roles"`
	Enabled      bool   `json:"enabled" yaml:"enabled"`
}

// HasRole reports whether the user carries the given role tag.
func (u User) HasRole(role Role) bool {
	for _, r := range u.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// HashPassword derives a salted bcrypt hash from a plaintext password.
func HashPassword(plaintext string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plaintext), bcrypt.DefaultCost)
	if err != nil {
		return "", errorx.IllegalState.Wrap(err, "failed to hash password")
	}
	return string(hash), nil
}

// CheckPassword reports whether the plaintext password matches the hash.
func CheckPassword(hash string, plaintext string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext)) == nil
}

// encodeRoles renders a role set into its single-column storage form.
func encodeRoles(roles []Role) string {
	parts := make([]string, 0, len(roles))
	for _, r := range roles {
		parts = append(parts, string(r))
	}
	return strings.Join(parts, ",")
}

func decodeRoles(encoded string) []Role {
	var roles []Role
	for _, part := range strings.Split(encoded, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		roles = append(roles, Role(part))
	}
	return roles
}
