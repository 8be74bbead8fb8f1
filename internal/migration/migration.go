// SPDX-License-Identifier: Apache-2.0

// Package migration applies the ordered schema changes that carry an
// installed deployment forward to the current release.
//
// Each Step is gated by a version threshold: it runs when the version the
// upgrade starts from is at or before the threshold, under Debian-style
// version ordering. Steps are registered in ascending threshold order and
// an upgrade runs them in that order.
//
// Failures do not stop the run. Every step is internally idempotent, so a
// failed or interrupted upgrade is repaired by running the sequencer again
// rather than by rolling back; the policy is to keep making forward
// progress and report what failed at the end.
package migration

import (
	"context"
	"fmt"

	"github.com/joomcode/errorx"
	"github.com/rs/zerolog"

	"github.com/meshview/provisioner/internal/database"
	"github.com/meshview/provisioner/internal/version"
)

// Step is one versioned schema change.
// Implementations must be stateless and idempotent: running an already
// applied step again must succeed without changing anything.
type Step interface {
	// ID returns a unique identifier for this step.
	ID() string

	// Description returns a human-readable summary of the change.
	Description() string

	// Threshold returns the release this change first shipped in. The step
	// applies to upgrades starting from a version at or before it.
	Threshold() version.Version

	// Applies reports whether this step needs to run for the given context.
	Applies(mctx *Context) bool

	// Execute performs the schema change.
	Execute(ctx context.Context, mctx *Context) error
}

// Context carries what steps need to do their work.
type Context struct {
	// FromVersion is the previously installed version the upgrade starts
	// from. The zero value means fresh install, which skips every step.
	FromVersion version.Version

	// Target is the version being provisioned, used for logging only.
	Target version.Version

	// DB is the administrative connection steps mutate schema through.
	DB database.Manager

	// Logger for step logging. Filled from the manager when nil.
	Logger *zerolog.Logger
}

func (c *Context) validate() error {
	if c == nil {
		return errorx.IllegalArgument.New("migration context cannot be nil")
	}
	if c.DB == nil {
		return errorx.IllegalArgument.New("migration context needs a database manager")
	}
	return nil
}

// StepFailure records one step that failed during a run.
type StepFailure struct {
	ID  string
	Err error
}

// Result summarizes one sequencer run.
type Result struct {
	// Applied lists step IDs that ran successfully, in execution order.
	Applied []string

	// Skipped lists step IDs whose threshold was already behind the
	// starting version.
	Skipped []string

	// Failures lists steps that errored. Their errors were logged and the
	// run continued past them.
	Failures []StepFailure
}

func (r *Result) HasFailures() bool {
	return len(r.Failures) > 0
}

func (r *Result) Summary() string {
	return fmt.Sprintf("%d applied, %d skipped, %d failed",
		len(r.Applied), len(r.Skipped), len(r.Failures))
}

// Manager holds the registered steps for one component and runs them.
type Manager struct {
	component string
	steps     []Step
	logger    *zerolog.Logger
}

// Option configures a Manager.
type Option func(*Manager)

// WithLogger sets the logger for the migration manager.
func WithLogger(logger *zerolog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// WithComponent sets the component name for the migration manager.
func WithComponent(component string) Option {
	return func(m *Manager) {
		m.component = component
	}
}

// NewManager creates a new migration manager with the given options.
func NewManager(opts ...Option) *Manager {
	nop := zerolog.Nop()
	m := &Manager{
		component: "schema",
		steps:     make([]Step, 0),
		logger:    &nop,
	}

	for _, opt := range opts {
		opt(m)
	}

	return m
}

// Register adds a step to the manager. Steps must arrive in strictly
// ascending threshold order; the table is static per release, so a
// violation is a programming error worth failing loudly on.
func (m *Manager) Register(step Step) error {
	if len(m.steps) > 0 {
		last := m.steps[len(m.steps)-1]
		if version.Compare(last.Threshold(), step.Threshold()) != version.Less {
			return errorx.IllegalArgument.New(
				"migration step %q (threshold %s) must be registered after %q (threshold %s)",
				step.ID(), step.Threshold(), last.ID(), last.Threshold())
		}
	}

	m.steps = append(m.steps, step)
	m.logger.Debug().
		Str("component", m.component).
		Str("stepID", step.ID()).
		Str("threshold", step.Threshold().String()).
		Msg("Registered migration step")
	return nil
}

// GetApplicable returns the steps that apply for the given context, in the
// order they would be executed.
func (m *Manager) GetApplicable(mctx *Context) []Step {
	var applicable []Step
	for _, step := range m.steps {
		if step.Applies(mctx) {
			applicable = append(applicable, step)
		}
	}
	return applicable
}

// RequiresMigration checks if any steps are needed for the given context.
// Returns true if at least one step applies, along with a summary.
func (m *Manager) RequiresMigration(mctx *Context) (bool, string) {
	applicable := m.GetApplicable(mctx)
	if len(applicable) == 0 {
		return false, ""
	}

	var summary string
	if len(applicable) == 1 {
		summary = fmt.Sprintf("1 migration step required for %s: %s - %s",
			m.component, applicable[0].ID(), applicable[0].Description())
	} else {
		summary = fmt.Sprintf("%d migration steps required for %s:\n", len(applicable), m.component)
		for i, step := range applicable {
			summary += fmt.Sprintf("  %d. %s - %s\n", i+1, step.ID(), step.Description())
		}
	}

	return true, summary
}

// Apply runs every applicable step in threshold order. A failed step is
// logged and recorded, and the run continues with the next step. The
// returned error covers invalid input only; execution failures are
// reported through the Result.
func (m *Manager) Apply(ctx context.Context, mctx *Context) (*Result, error) {
	if err := mctx.validate(); err != nil {
		return nil, err
	}
	if mctx.Logger == nil {
		mctx.Logger = m.logger
	}

	result := &Result{}

	if mctx.FromVersion.IsZero() {
		m.logger.Info().
			Str("component", m.component).
			Msg("No prior version, skipping schema migrations")
		return result, nil
	}

	m.logger.Info().
		Str("component", m.component).
		Int("registered", len(m.steps)).
		Str("fromVersion", mctx.FromVersion.String()).
		Str("targetVersion", mctx.Target.String()).
		Msg("Applying schema migrations")

	for _, step := range m.steps {
		if !step.Applies(mctx) {
			m.logger.Debug().
				Str("component", m.component).
				Str("stepID", step.ID()).
				Str("threshold", step.Threshold().String()).
				Msg("Step already behind starting version, skipping")
			result.Skipped = append(result.Skipped, step.ID())
			continue
		}

		m.logger.Info().
			Str("component", m.component).
			Str("stepID", step.ID()).
			Str("description", step.Description()).
			Msg("Executing migration step")

		if err := step.Execute(ctx, mctx); err != nil {
			m.logger.Error().
				Err(err).
				Str("component", m.component).
				Str("stepID", step.ID()).
				Msg("Migration step failed, continuing with remaining steps")
			result.Failures = append(result.Failures, StepFailure{ID: step.ID(), Err: err})
			continue
		}

		result.Applied = append(result.Applied, step.ID())
		m.logger.Info().
			Str("component", m.component).
			Str("stepID", step.ID()).
			Msg("Migration step completed")
	}

	m.logger.Info().
		Str("component", m.component).
		Str("result", result.Summary()).
		Msg("Schema migrations finished")

	return result, nil
}
