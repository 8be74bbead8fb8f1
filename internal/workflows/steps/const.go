package steps

// Metadata keys shared by provisioning and health check step reports.
const (
	KeyRole         = "role"
	KeyDatabase     = "database"
	KeyOutcome      = "outcome"
	KeyDump         = "dump"
	KeyUsername     = "username"
	KeyImported     = "imported"
	KeyElevated     = "elevated"
	KeySkipped      = "skipped"
	KeyWarnings     = "warnings"
	KeyInstructions = "instructions"
)
