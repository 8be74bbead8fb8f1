// SPDX-License-Identifier: Apache-2.0

// Package lifecycle interprets the events the host package manager hands to
// the provisioner and decides which provisioning transition to run.
//
// A configure event without a prior version is a fresh install; with a
// prior version it is an upgrade starting from that version. The abort
// family acknowledges a cancelled package operation and performs no
// provisioning at all. Anything else is a failure the process must report
// with a non-zero exit.
package lifecycle

import (
	"github.com/joomcode/errorx"

	"github.com/meshview/provisioner/internal/version"
	"github.com/meshview/provisioner/pkg/exit"
)

// Recognized life-cycle event names. They mirror the maintainer script
// arguments the package manager invokes the provisioner with.
const (
	EventConfigure        = "configure"
	EventAbortUpgrade     = "abort-upgrade"
	EventAbortRemove      = "abort-remove"
	EventAbortDeconfigure = "abort-deconfigure"
)

// Event is one life-cycle transition request.
type Event struct {
	// Name is the event name, e.g. "configure".
	Name string

	// PriorVersion is the previously configured version, zero on fresh
	// installs and on events that carry no version.
	PriorVersion version.Version
}

// State is the provisioning transition selected for an event.
type State int

const (
	// StateFailed is the zero value: the event was not recognized.
	StateFailed State = iota

	// StateFreshInstall provisions roles, databases and the initial
	// administrator from scratch.
	StateFreshInstall

	// StateUpgrade carries an existing deployment forward from
	// Event.PriorVersion.
	StateUpgrade

	// StateAborted acknowledges a cancelled package operation; nothing is
	// provisioned and the process exits cleanly.
	StateAborted
)

func (s State) String() string {
	switch s {
	case StateFreshInstall:
		return "fresh-install"
	case StateUpgrade:
		return "upgrade"
	case StateAborted:
		return "aborted"
	default:
		return "failed"
	}
}

// ExitCode maps the state to the process exit code the package manager
// sees. Only Failed is non-zero.
func (s State) ExitCode() exit.Code {
	if s == StateFailed {
		return exit.UsageError
	}
	return exit.NormalTermination
}

// IsAbort reports whether the event name belongs to the abort family.
func IsAbort(name string) bool {
	switch name {
	case EventAbortUpgrade, EventAbortRemove, EventAbortDeconfigure:
		return true
	default:
		return false
	}
}

// Decide selects the provisioning transition for the event. Unrecognized
// events yield StateFailed together with the error to report.
func Decide(event Event) (State, error) {
	switch {
	case event.Name == EventConfigure && event.PriorVersion.IsZero():
		return StateFreshInstall, nil
	case event.Name == EventConfigure:
		return StateUpgrade, nil
	case IsAbort(event.Name):
		return StateAborted, nil
	default:
		return StateFailed, errorx.IllegalArgument.New("unrecognized life-cycle event %q", event.Name)
	}
}
