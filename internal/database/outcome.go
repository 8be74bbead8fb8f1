// SPDX-License-Identifier: Apache-2.0

package database

// Outcome reports what a provisioning call actually did. Re-running the
// provisioner against an already provisioned server yields AlreadyExists
// outcomes everywhere and changes nothing.
type Outcome int

const (
	// OutcomeNone is the zero value, reported when the call failed before
	// the object could be inspected.
	OutcomeNone Outcome = iota

	// OutcomeCreated means the object did not exist and was created.
	OutcomeCreated

	// OutcomeAlreadyExists means the object was present and left untouched.
	OutcomeAlreadyExists
)

func (o Outcome) String() string {
	switch o {
	case OutcomeCreated:
		return "created"
	case OutcomeAlreadyExists:
		return "already-exists"
	default:
		return "none"
	}
}
