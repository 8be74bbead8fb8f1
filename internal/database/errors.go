// SPDX-License-Identifier: Apache-2.0

package database

import "github.com/joomcode/errorx"

var (
	// ErrNamespace is the root namespace for database provisioning errors.
	ErrNamespace = errorx.NewNamespace("database")

	// ConnectionError indicates the administrative connection could not be
	// established or was lost. These are fatal to a provisioning run.
	ConnectionError = ErrNamespace.NewType("connection")

	// ProvisionError indicates a role or database could not be inspected or
	// created.
	ProvisionError = ErrNamespace.NewType("provision")

	// ScriptError indicates a schema dump statement failed. Statements that
	// ran before the failure stay committed.
	ScriptError = ErrNamespace.NewType("script")
)
