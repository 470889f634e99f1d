package constants

// BatchStatus represents the lifecycle phase of a batch
type BatchStatus string

const (
	AppName           = "cohort"
	DefaultConfigPath = "~/.config/cohort/cohort.json"
	Version           = "v0.2.0"

	// DateFormat is the standard date format used throughout the application (YYYY-MM-DD)
	DateFormat = "2006-01-02"

	// Batch status constants
	BatchPrePhase  BatchStatus = "pre-phase"
	BatchActive    BatchStatus = "active"
	BatchCompleted BatchStatus = "completed"

	// DefaultBatchSpanDays is the standard batch length. Day numbers are
	// clamped to [1, span]. The 90-day profile is selected through settings,
	// never hardcoded at call sites.
	DefaultBatchSpanDays  = 66
	ExtendedBatchSpanDays = 90

	// DefaultChargePerMiss is the charge in euros per missed weekly occurrence
	DefaultChargePerMiss = 0.50

	// DefaultTimezone governs what "today" means for day-number arithmetic
	DefaultTimezone = "Europe/Berlin"

	// TrendDeadBandPoints is the completion-rate point difference below which
	// week-over-week movement is reported as steady
	TrendDeadBandPoints = 5
)
