// SPDX-License-Identifier: Apache-2.0

package software

import (
	"github.com/joomcode/errorx"
)

var (
	ErrorsNamespace      = errorx.NewNamespace("software")
	PackageNotFoundError = ErrorsNamespace.NewType("package_not_found")
	PackageQueryError    = ErrorsNamespace.NewType("package_query_error")

	packageNameProperty = errorx.RegisterPrintableProperty("package_name")
)

const (
	packageNotFoundErrorMsg = "package '%s' not found in the system package index"
	packageQueryErrorMsg    = "failed to query package '%s'"
)

func NewPackageNotFoundError(pkgName string) *errorx.Error {
	return PackageNotFoundError.New(packageNotFoundErrorMsg, pkgName).
		WithProperty(packageNameProperty, pkgName)
}

func NewPackageQueryError(cause error, pkgName string) *errorx.Error {
	err := PackageQueryError.New(packageQueryErrorMsg, pkgName).
		WithProperty(packageNameProperty, pkgName)

	if cause != nil {
		err = err.WithUnderlyingErrors(cause)
	}

	return err
}
