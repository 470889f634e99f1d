package models

// Settings holds the persisted application configuration.
type Settings struct {
	Timezone      string  `json:"timezone"`        // IANA name, e.g. "Europe/Berlin"
	BatchSpanDays int     `json:"batch_span_days"` // day numbers are clamped to [1, span]
	ChargePerMiss float64 `json:"charge_per_miss"` // euros per missed weekly occurrence
}
