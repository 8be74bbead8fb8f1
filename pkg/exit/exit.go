// SPDX-License-Identifier: Apache-2.0

// Package exit defines process exit codes.
package exit

import (
	"os"
	"strconv"
)

type Code int

func (ec Code) String() string {
	return strconv.Itoa(int(ec))
}

func (ec Code) Int() int {
	return int(ec)
}

func (ec Code) TerminateProcess() {
	os.Exit(int(ec))
}

func (ec Code) Is(other int) bool {
	return int(ec) == other
}

const (
	MinValidExitCode Code = 0
	MaxValidExitCode Code = 255
)

// POSIX standard exit code definitions.
const (
	NormalTermination   Code = 0
	GeneralError        Code = 1
	UsageError          Code = 64
	DataFormatError     Code = 65
	MissingInputError   Code = 66
	UserUnknown         Code = 67
	HostUnknown         Code = 68
	ServiceUnavailable  Code = 69
	InternalError       Code = 70
	SystemError         Code = 71
	CriticalFileMissing Code = 72
	FileCreationError   Code = 73
	InputOutputError    Code = 74
	TemporaryFailure    Code = 75
	ProtocolError       Code = 76
	PermissionDenied    Code = 77
	ConfigurationError  Code = 78
)
