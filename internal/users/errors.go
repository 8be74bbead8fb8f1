// SPDX-License-Identifier: Apache-2.0

package users

import "github.com/joomcode/errorx"

var (
	// ErrNamespace is the root namespace for user management errors.
	ErrNamespace = errorx.NewNamespace("users")

	// NotFoundError indicates the requested user does not exist.
	NotFoundError = ErrNamespace.NewType("not_found", errorx.NotFound())

	// StorageError indicates the users table could not be read or written.
	StorageError = ErrNamespace.NewType("storage")
)
