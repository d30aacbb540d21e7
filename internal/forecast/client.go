// Package forecast fetches hourly Open-Meteo forecasts and converts them into
// site-local readings for the risk engine.
package forecast

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sony/gobreaker/v2"

	risk "heatwatch/internal/risk/domain"
)

// hourLayout is Open-Meteo's hourly timestamp layout: local wall-clock time
// without an offset, interpreted in the site's effective zone.
const hourLayout = "2006-01-02T15:04"

// TimezoneAuto asks the provider to resolve the zone from the coordinates.
const TimezoneAuto = "auto"

// Clock provides time for horizon slicing.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// Client is a minimal Open-Meteo forecast client. Requests run behind a
// circuit breaker so a flapping upstream degrades into per-site skips instead
// of hammering the API once per site per run.
type Client struct {
	baseURL      string
	horizonHours int
	client       *http.Client
	breaker      *gobreaker.CircuitBreaker[*http.Response]
	clock        Clock
}

// ClientOption customizes the client.
type ClientOption func(*Client)

// WithHTTPClient assigns the underlying HTTP client.
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		if httpClient != nil {
			c.client = httpClient
		}
	}
}

// WithClock assigns a clock.
func WithClock(clock Clock) ClientOption {
	return func(c *Client) {
		if clock != nil {
			c.clock = clock
		}
	}
}

// NewClient constructs a forecast client.
func NewClient(baseURL string, horizonHours int, opts ...ClientOption) (*Client, error) {
	if baseURL == "" {
		return nil, errors.New("forecast: empty base url")
	}
	if horizonHours <= 0 {
		return nil, errors.New("forecast: horizon must be positive")
	}
	client := &Client{
		baseURL:      strings.TrimRight(baseURL, "/"),
		horizonHours: horizonHours,
		client:       &http.Client{Timeout: 20 * time.Second},
		clock:        systemClock{},
	}
	client.breaker = gobreaker.NewCircuitBreaker[*http.Response](gobreaker.Settings{
		Name:        "open-meteo",
		MaxRequests: 1,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 5
		},
	})
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

type openMeteoResponse struct {
	Timezone string `json:"timezone"`
	Hourly   struct {
		Time               []string   `json:"time"`
		Temperature2M      []*float64 `json:"temperature_2m"`
		RelativeHumidity2M []*float64 `json:"relative_humidity_2m"`
		WindSpeed10M       []*float64 `json:"wind_speed_10m"`
	} `json:"hourly"`
}

// HourlyForecast fetches the hourly forecast for one site, localizes it to the
// site's effective zone, and returns only the hours strictly after now, at
// most the configured horizon of them. Rows with unparseable timestamps are
// dropped; null measurements stay nil for the evaluator to judge.
func (c *Client) HourlyForecast(ctx context.Context, siteID string, lat, lon float64, timezone string) ([]risk.HourlyReading, error) {
	if c == nil {
		return nil, errors.New("forecast: nil client")
	}
	if siteID == "" {
		return nil, errors.New("forecast: empty site id")
	}

	requestURL := c.forecastURL(lat, lon, timezone)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return nil, fmt.Errorf("forecast: [%s] build request: %w", siteID, err)
	}

	resp, err := c.breaker.Execute(func() (*http.Response, error) {
		resp, err := c.client.Do(req)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
		}
		return resp, nil
	})
	if err != nil {
		return nil, fmt.Errorf("forecast: [%s] fetch: %w", siteID, err)
	}
	defer resp.Body.Close()

	var payload openMeteoResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("forecast: [%s] decode response: %w", siteID, err)
	}

	zone, err := resolveZone(timezone, payload.Timezone)
	if err != nil {
		return nil, fmt.Errorf("forecast: [%s]: %w", siteID, err)
	}

	now := c.clock.Now().In(zone)
	readings := make([]risk.HourlyReading, 0, c.horizonHours)
	for i, raw := range payload.Hourly.Time {
		ts, err := time.ParseInLocation(hourLayout, raw, zone)
		if err != nil {
			continue
		}
		if !ts.After(now) {
			continue
		}
		readings = append(readings, risk.HourlyReading{
			SiteID:       siteID,
			TS:           ts,
			TemperatureF: valueAt(payload.Hourly.Temperature2M, i),
			WindMPH:      valueAt(payload.Hourly.WindSpeed10M, i),
			HumidityPct:  valueAt(payload.Hourly.RelativeHumidity2M, i),
		})
		if len(readings) == c.horizonHours {
			break
		}
	}
	return readings, nil
}

// forecastURL sizes the request just large enough for the horizon: one
// forecast day covers up to 24 hours, two up to 48, and so on. Units are
// requested in US form so no conversion happens downstream.
func (c *Client) forecastURL(lat, lon float64, timezone string) string {
	if timezone == "" {
		timezone = TimezoneAuto
	}
	forecastDays := (c.horizonHours + 23) / 24
	if forecastDays < 1 {
		forecastDays = 1
	}

	params := url.Values{}
	params.Set("latitude", strconv.FormatFloat(lat, 'f', -1, 64))
	params.Set("longitude", strconv.FormatFloat(lon, 'f', -1, 64))
	params.Set("hourly", "temperature_2m,relative_humidity_2m,wind_speed_10m")
	params.Set("temperature_unit", "fahrenheit")
	params.Set("windspeed_unit", "mph")
	params.Set("precipitation_unit", "inch")
	params.Set("timezone", timezone)
	params.Set("forecast_days", strconv.Itoa(forecastDays))

	return c.baseURL + "/v1/forecast?" + params.Encode()
}

// resolveZone picks the effective IANA zone: the configured one, or the
// provider's resolved zone when the config says auto.
func resolveZone(configured, resolved string) (*time.Location, error) {
	name := configured
	if name == "" || name == TimezoneAuto {
		name = resolved
	}
	if name == "" {
		return nil, risk.ErrUnresolvedTimeZone
	}
	zone, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", risk.ErrUnresolvedTimeZone, name)
	}
	return zone, nil
}

func valueAt(values []*float64, i int) *float64 {
	if i >= len(values) {
		return nil
	}
	return values[i]
}
