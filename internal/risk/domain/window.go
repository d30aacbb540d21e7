package risk

import (
	"strings"
	"time"
)

// SegmentWindows groups one site's flagged hours, already in strictly
// increasing time order, into maximal contiguous runs of breach hours. The
// toggle state is local to this call, so segmentation can never leak across
// sites: callers hand in one site's series at a time.
func SegmentWindows(flags []HourlyRiskFlags) []RiskWindow {
	if len(flags) == 0 {
		return nil
	}

	var windows []RiskWindow
	var run []HourlyRiskFlags
	for _, row := range flags {
		if row.AnyBreach {
			run = append(run, row)
			continue
		}
		if len(run) > 0 {
			windows = append(windows, buildWindow(run))
			run = nil
		}
	}
	if len(run) > 0 {
		windows = append(windows, buildWindow(run))
	}
	return windows
}

// buildWindow derives one window from a non-empty breach run. Duration is the
// inclusive count of hourly stamps between the run's ends; a run with hours
// missing mid-stream (upstream fetch holes) still counts the wall-clock span,
// matching how durations have always been persisted.
func buildWindow(run []HourlyRiskFlags) RiskWindow {
	first := run[0]
	last := run[len(run)-1]

	window := RiskWindow{
		SiteID:         first.SiteID,
		StartTime:      first.TS,
		EndTime:        last.TS,
		DurationHours:  inclusiveHours(first.TS, last.TS),
		PeakTempF:      first.TemperatureF,
		PeakWindMPH:    first.WindMPH,
		MinHumidityPct: first.HumidityPct,
	}

	labels := make([]string, 0, len(run))
	for _, row := range run {
		if row.TemperatureF > window.PeakTempF {
			window.PeakTempF = row.TemperatureF
		}
		if row.WindMPH > window.PeakWindMPH {
			window.PeakWindMPH = row.WindMPH
		}
		if row.HumidityPct < window.MinHumidityPct {
			window.MinHumidityPct = row.HumidityPct
		}
		if row.TriggerLabel != "" {
			labels = append(labels, row.TriggerLabel)
		}
	}

	window.Triggers = NormalizeTriggers(strings.Join(labels, ", "))
	window.RiskScore = ScoreTriggers(window.Triggers)
	return window
}

// inclusiveHours counts hourly stamps from start to end inclusive, so a
// single-hour window has duration 1.
func inclusiveHours(start, end time.Time) int {
	if end.Before(start) {
		return 0
	}
	return int(end.Sub(start)/time.Hour) + 1
}
