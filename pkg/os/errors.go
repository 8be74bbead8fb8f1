package os

import "github.com/joomcode/errorx"

var (
	ErrNamespace = errorx.NewNamespace("os")

	SystemdErrTrait = errorx.RegisterTrait("systemd_error")

	ErrSystemdConnection = ErrNamespace.NewType("systemd_connection", SystemdErrTrait)
	ErrSystemdOperation  = ErrNamespace.NewType("systemd_operation", SystemdErrTrait)

	ServiceProperty = errorx.RegisterProperty("service")
)
