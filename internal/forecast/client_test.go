package forecast

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	risk "heatwatch/internal/risk/domain"
)

type fixedClock struct {
	at time.Time
}

func (c fixedClock) Now() time.Time { return c.at }

// hourlyBody renders an Open-Meteo style hourly payload. A value of "null"
// is emitted verbatim so nulls survive into the JSON.
func hourlyBody(timezone string, times []string, temps, winds, humidities []string) string {
	quote := func(values []string) string {
		quoted := make([]string, len(values))
		for i, v := range values {
			quoted[i] = fmt.Sprintf("%q", v)
		}
		return strings.Join(quoted, ",")
	}
	return fmt.Sprintf(`{
		"timezone": %q,
		"hourly": {
			"time": [%s],
			"temperature_2m": [%s],
			"relative_humidity_2m": [%s],
			"wind_speed_10m": [%s]
		}
	}`, timezone, quote(times), strings.Join(temps, ","), strings.Join(humidities, ","), strings.Join(winds, ","))
}

func TestClientRequestsExpectedQuery(t *testing.T) {
	var query url.Values
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		query = r.URL.Query()
		fmt.Fprint(w, hourlyBody("UTC", nil, nil, nil, nil))
	}))
	defer server.Close()

	client, err := NewClient(server.URL, 30)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	if _, err := client.HourlyForecast(context.Background(), "north-ridge", 39.7392, -104.9903, ""); err != nil {
		t.Fatalf("fetch: %v", err)
	}

	if got := query.Get("hourly"); got != "temperature_2m,relative_humidity_2m,wind_speed_10m" {
		t.Fatalf("hourly param = %q", got)
	}
	if query.Get("temperature_unit") != "fahrenheit" || query.Get("windspeed_unit") != "mph" {
		t.Fatalf("unit params = %q / %q, want US units", query.Get("temperature_unit"), query.Get("windspeed_unit"))
	}
	if got := query.Get("timezone"); got != "auto" {
		t.Fatalf("timezone param = %q, want auto default", got)
	}
	// 30 hours needs two forecast days.
	if got := query.Get("forecast_days"); got != "2" {
		t.Fatalf("forecast_days = %q, want 2", got)
	}
	if query.Get("latitude") != "39.7392" || query.Get("longitude") != "-104.9903" {
		t.Fatalf("coordinates = %q, %q", query.Get("latitude"), query.Get("longitude"))
	}
}

func TestClientSlicesToHorizonAfterNow(t *testing.T) {
	times := []string{
		"2025-07-01T10:00", "2025-07-01T11:00", "2025-07-01T12:00",
		"2025-07-01T13:00", "2025-07-01T14:00", "2025-07-01T15:00",
	}
	values := []string{"90", "91", "92", "93", "94", "95"}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, hourlyBody("UTC", times, values, values, values))
	}))
	defer server.Close()

	now := time.Date(2025, 7, 1, 11, 30, 0, 0, time.UTC)
	client, err := NewClient(server.URL, 3, WithClock(fixedClock{at: now}))
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	readings, err := client.HourlyForecast(context.Background(), "north-ridge", 1, 2, "UTC")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(readings) != 3 {
		t.Fatalf("readings = %d, want horizon of 3", len(readings))
	}
	want := time.Date(2025, 7, 1, 12, 0, 0, 0, time.UTC)
	if !readings[0].TS.Equal(want) {
		t.Fatalf("first reading at %v, want first hour after now %v", readings[0].TS, want)
	}
	if readings[0].TemperatureF == nil || *readings[0].TemperatureF != 92 {
		t.Fatalf("first reading temperature = %v, want 92", readings[0].TemperatureF)
	}
	if readings[0].SiteID != "north-ridge" {
		t.Fatalf("site id = %q", readings[0].SiteID)
	}
}

func TestClientKeepsNullMeasurementsNil(t *testing.T) {
	times := []string{"2025-07-01T12:00"}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, hourlyBody("UTC", times, []string{"null"}, []string{"12"}, []string{"40"}))
	}))
	defer server.Close()

	now := time.Date(2025, 7, 1, 10, 0, 0, 0, time.UTC)
	client, err := NewClient(server.URL, 24, WithClock(fixedClock{at: now}))
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	readings, err := client.HourlyForecast(context.Background(), "north-ridge", 1, 2, "UTC")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(readings) != 1 {
		t.Fatalf("readings = %d, want 1", len(readings))
	}
	if readings[0].TemperatureF != nil {
		t.Fatalf("null temperature must stay nil, got %v", *readings[0].TemperatureF)
	}
	if readings[0].WindMPH == nil || *readings[0].WindMPH != 12 {
		t.Fatalf("wind = %v, want 12", readings[0].WindMPH)
	}
}

func TestClientDropsUnparseableTimestamps(t *testing.T) {
	times := []string{"not-a-time", "2025-07-01T12:00"}
	values := []string{"90", "91"}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, hourlyBody("UTC", times, values, values, values))
	}))
	defer server.Close()

	now := time.Date(2025, 7, 1, 10, 0, 0, 0, time.UTC)
	client, err := NewClient(server.URL, 24, WithClock(fixedClock{at: now}))
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	readings, err := client.HourlyForecast(context.Background(), "north-ridge", 1, 2, "UTC")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(readings) != 1 {
		t.Fatalf("readings = %d, want the malformed row dropped", len(readings))
	}
	if readings[0].TemperatureF == nil || *readings[0].TemperatureF != 91 {
		t.Fatalf("surviving row temperature = %v, want 91", readings[0].TemperatureF)
	}
}

func TestClientUnresolvableZone(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, hourlyBody("Mars/Olympus_Mons", []string{"2025-07-01T12:00"}, []string{"90"}, []string{"5"}, []string{"40"}))
	}))
	defer server.Close()

	client, err := NewClient(server.URL, 24)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	if _, err := client.HourlyForecast(context.Background(), "north-ridge", 1, 2, "auto"); !errors.Is(err, risk.ErrUnresolvedTimeZone) {
		t.Fatalf("expected ErrUnresolvedTimeZone, got %v", err)
	}
}

func TestClientUpstreamError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client, err := NewClient(server.URL, 24)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	if _, err := client.HourlyForecast(context.Background(), "north-ridge", 1, 2, "UTC"); err == nil {
		t.Fatal("expected an error for a 500 response")
	}
}
