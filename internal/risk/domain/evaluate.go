package risk

import "strings"

// Trigger names form the fixed vocabulary for labels and scoring.
const (
	TriggerTemperature = "Temperature"
	TriggerWind        = "Wind"
	TriggerHumidity    = "Humidity"
)

// EvaluateHours classifies one site's readings against its thresholds and
// returns one flag row per usable hour, in input order. Hours missing any
// measurement are excluded, not zero-filled.
func EvaluateHours(readings []HourlyReading, thresholds Thresholds) []HourlyRiskFlags {
	if len(readings) == 0 {
		return nil
	}

	flags := make([]HourlyRiskFlags, 0, len(readings))
	for _, reading := range readings {
		if reading.TemperatureF == nil || reading.WindMPH == nil || reading.HumidityPct == nil {
			continue
		}

		row := HourlyRiskFlags{
			SiteID:       reading.SiteID,
			TS:           reading.TS,
			TemperatureF: *reading.TemperatureF,
			WindMPH:      *reading.WindMPH,
			HumidityPct:  *reading.HumidityPct,
		}

		row.TemperatureBreach = row.TemperatureF >= thresholds.MaxTempF
		row.WindBreach = row.WindMPH >= thresholds.MaxWindMPH
		// Humidity risk is a low-humidity condition, unlike the other two.
		row.HumidityBreach = row.HumidityPct <= thresholds.MinHumidityPct
		row.AnyBreach = row.TemperatureBreach || row.WindBreach || row.HumidityBreach
		row.TriggerLabel = hourTriggerLabel(row)

		flags = append(flags, row)
	}
	return flags
}

// hourTriggerLabel joins the breached condition names in evaluation order.
func hourTriggerLabel(row HourlyRiskFlags) string {
	var triggers []string
	if row.TemperatureBreach {
		triggers = append(triggers, TriggerTemperature)
	}
	if row.WindBreach {
		triggers = append(triggers, TriggerWind)
	}
	if row.HumidityBreach {
		triggers = append(triggers, TriggerHumidity)
	}
	return strings.Join(triggers, ", ")
}
