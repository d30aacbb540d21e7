package risk

import "time"

// HourlyReading is one forecast hour for a site, localized to the site's zone.
// Measurements are pointers because upstream providers return nulls; the
// evaluator drops hours with missing values instead of zero-filling them.
type HourlyReading struct {
	SiteID       string
	TS           time.Time
	TemperatureF *float64
	WindMPH      *float64
	HumidityPct  *float64
}

// Thresholds are one site's safety limits, pre-normalized to US units by the
// configuration layer. Humidity is a minimum: low humidity is the unsafe side.
type Thresholds struct {
	MaxTempF       float64
	MaxWindMPH     float64
	MinHumidityPct float64
}

// HourlyRiskFlags is the per-hour classification of a reading.
type HourlyRiskFlags struct {
	SiteID       string
	TS           time.Time
	TemperatureF float64
	WindMPH      float64
	HumidityPct  float64

	TemperatureBreach bool
	WindBreach        bool
	HumidityBreach    bool
	AnyBreach         bool

	// TriggerLabel lists the breached conditions for this single hour in
	// evaluation order, e.g. "Temperature, Humidity". Not yet canonical.
	TriggerLabel string
}

// RiskWindow is a maximal contiguous run of breach hours for one site.
// Start and end are inclusive and carry the site's zone.
type RiskWindow struct {
	SiteID         string
	StartTime      time.Time
	EndTime        time.Time
	DurationHours  int
	PeakTempF      float64
	PeakWindMPH    float64
	MinHumidityPct float64
	Triggers       string
	RiskScore      int
}

// SiteRiskSnapshot is the per-site "right now" record: the operative window's
// score and how soon it starts. Both time fields are nil when no window is
// active or upcoming.
type SiteRiskSnapshot struct {
	SiteID          string
	RiskScore       int
	NextWindowStart *time.Time
	HoursUntilStart *int
}
