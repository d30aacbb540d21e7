package risk

import (
	"sort"
	"time"
)

// BuildSnapshot selects the operative window for a site at now and derives the
// snapshot an operator needs: the window currently containing now, else the
// earliest upcoming window, else a neutral record. now must be expressed in
// the same zone as the windows' timestamps; mixing zones corrupts the
// comparison.
func BuildSnapshot(siteID string, windows []RiskWindow, now time.Time) SiteRiskSnapshot {
	snapshot := SiteRiskSnapshot{SiteID: siteID}
	if len(windows) == 0 {
		return snapshot
	}

	ordered := make([]RiskWindow, len(windows))
	copy(ordered, windows)
	sort.Slice(ordered, func(i, j int) bool {
		return ordered[i].StartTime.Before(ordered[j].StartTime)
	})

	for _, window := range ordered {
		active := !now.Before(window.StartTime) && !now.After(window.EndTime)
		if active || window.StartTime.After(now) {
			start := window.StartTime
			hours := hoursUntil(start, now)
			snapshot.RiskScore = window.RiskScore
			snapshot.NextWindowStart = &start
			snapshot.HoursUntilStart = &hours
			return snapshot
		}
	}

	// Every window is already in the past: no active risk.
	return snapshot
}

// hoursUntil floors the distance from now to start to whole hours, clamped at
// zero. Zero means "starts this hour or is already active".
func hoursUntil(start, now time.Time) int {
	if !start.After(now) {
		return 0
	}
	return int(start.Sub(now) / time.Hour)
}
