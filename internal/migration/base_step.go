// SPDX-License-Identifier: Apache-2.0

package migration

import (
	"context"

	"github.com/joomcode/errorx"

	"github.com/meshview/provisioner/internal/version"
)

// BaseStep provides the threshold-gated Applies behavior shared by every
// schema change. Embed it and implement Execute.
type BaseStep struct {
	id          string
	description string
	threshold   version.Version
}

// NewBaseStep creates a base step gated by the given release threshold.
func NewBaseStep(id, description string, threshold version.Version) BaseStep {
	return BaseStep{
		id:          id,
		description: description,
		threshold:   threshold,
	}
}

func (b *BaseStep) ID() string                 { return b.id }
func (b *BaseStep) Description() string        { return b.description }
func (b *BaseStep) Threshold() version.Version { return b.threshold }

// Applies implements the threshold gate: the step runs when the upgrade
// starts from a version at or before the threshold. Fresh installs carry
// no starting version and never run migration steps.
func (b *BaseStep) Applies(mctx *Context) bool {
	if mctx.FromVersion.IsZero() {
		return false
	}
	return mctx.FromVersion.LessOrEqual(b.threshold)
}

// Execute must be overridden by concrete steps.
func (b *BaseStep) Execute(ctx context.Context, mctx *Context) error {
	return errorx.NotImplemented.New("Execute not implemented for base step %s", b.id)
}
