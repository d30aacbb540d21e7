package risk

import (
	"testing"
	"time"
)

var testZone = time.FixedZone("MST", -7*60*60)

func f64(v float64) *float64 { return &v }

func reading(site string, ts time.Time, temp, wind, humidity float64) HourlyReading {
	return HourlyReading{
		SiteID:       site,
		TS:           ts,
		TemperatureF: f64(temp),
		WindMPH:      f64(wind),
		HumidityPct:  f64(humidity),
	}
}

func TestEvaluateHoursAnyBreachIsOr(t *testing.T) {
	thresholds := Thresholds{MaxTempF: 100, MaxWindMPH: 20, MinHumidityPct: 15}
	base := time.Date(2025, 7, 1, 0, 0, 0, 0, testZone)

	cases := []struct {
		name                 string
		temp, wind, humidity float64
		wantTemp, wantWind   bool
		wantHumidity, any    bool
	}{
		{"calm", 80, 5, 40, false, false, false, false},
		{"temp at threshold", 100, 5, 40, true, false, false, true},
		{"wind only", 80, 25, 40, false, true, false, true},
		{"low humidity", 80, 5, 15, false, false, true, true},
		{"high humidity is safe", 80, 5, 95, false, false, false, false},
		{"all three", 110, 30, 5, true, true, true, true},
	}

	for i, tc := range cases {
		flags := EvaluateHours([]HourlyReading{
			reading("site-a", base.Add(time.Duration(i)*time.Hour), tc.temp, tc.wind, tc.humidity),
		}, thresholds)
		if len(flags) != 1 {
			t.Fatalf("%s: expected 1 flag row, got %d", tc.name, len(flags))
		}
		row := flags[0]
		if row.TemperatureBreach != tc.wantTemp || row.WindBreach != tc.wantWind || row.HumidityBreach != tc.wantHumidity {
			t.Fatalf("%s: breaches = %v/%v/%v, want %v/%v/%v",
				tc.name, row.TemperatureBreach, row.WindBreach, row.HumidityBreach,
				tc.wantTemp, tc.wantWind, tc.wantHumidity)
		}
		if row.AnyBreach != tc.any {
			t.Fatalf("%s: any breach = %v, want %v", tc.name, row.AnyBreach, tc.any)
		}
		if row.AnyBreach != (row.TemperatureBreach || row.WindBreach || row.HumidityBreach) {
			t.Fatalf("%s: any breach is not the OR of the three flags", tc.name)
		}
	}
}

func TestEvaluateHoursDropsMissingMeasurements(t *testing.T) {
	thresholds := Thresholds{MaxTempF: 100, MaxWindMPH: 20, MinHumidityPct: 15}
	base := time.Date(2025, 7, 1, 0, 0, 0, 0, testZone)

	readings := []HourlyReading{
		reading("site-a", base, 101, 5, 40),
		{SiteID: "site-a", TS: base.Add(time.Hour), TemperatureF: nil, WindMPH: f64(5), HumidityPct: f64(40)},
		{SiteID: "site-a", TS: base.Add(2 * time.Hour), TemperatureF: f64(90), WindMPH: f64(5), HumidityPct: nil},
		reading("site-a", base.Add(3*time.Hour), 90, 5, 40),
	}

	flags := EvaluateHours(readings, thresholds)
	if len(flags) != 2 {
		t.Fatalf("expected incomplete hours dropped, got %d rows", len(flags))
	}
	if !flags[0].TS.Equal(base) || !flags[1].TS.Equal(base.Add(3*time.Hour)) {
		t.Fatalf("unexpected surviving timestamps: %v, %v", flags[0].TS, flags[1].TS)
	}
}

func TestEvaluateHoursTriggerLabelEvaluationOrder(t *testing.T) {
	thresholds := Thresholds{MaxTempF: 100, MaxWindMPH: 20, MinHumidityPct: 15}
	base := time.Date(2025, 7, 1, 0, 0, 0, 0, testZone)

	flags := EvaluateHours([]HourlyReading{
		reading("site-a", base, 101, 5, 10),
	}, thresholds)
	if len(flags) != 1 {
		t.Fatalf("expected 1 flag row, got %d", len(flags))
	}
	// Hour labels follow evaluation order, not canonical order.
	if flags[0].TriggerLabel != "Temperature, Humidity" {
		t.Fatalf("trigger label = %q, want %q", flags[0].TriggerLabel, "Temperature, Humidity")
	}
}
