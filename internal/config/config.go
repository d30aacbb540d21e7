package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	risk "heatwatch/internal/risk/domain"
)

// Threshold units accepted in the sites file.
const (
	UnitsUS = "US"
	UnitsSI = "SI"
)

const (
	defaultHorizonHours = 72
	defaultTimezone     = "auto"

	mpsToMPH = 2.2369362921
)

// ErrNoSites is returned when the sites file lists no sites. This is the only
// fatal configuration condition: a run with zero sites has nothing to produce.
var ErrNoSites = errors.New("config: sites list is empty")

// siteFile mirrors the YAML layout of the sites file.
type siteFile struct {
	HorizonHours int          `yaml:"horizon_hours"`
	Timezone     string       `yaml:"timezone"`
	Sites        []siteRecord `yaml:"sites"`
}

type siteRecord struct {
	Name       string          `yaml:"name"`
	Lat        float64         `yaml:"lat"`
	Lon        float64         `yaml:"lon"`
	Timezone   string          `yaml:"timezone"`
	Thresholds thresholdRecord `yaml:"thresholds"`
}

type thresholdRecord struct {
	Units                  string  `yaml:"units"`
	MaxTemp                float64 `yaml:"max_temp"`
	MaxWind                float64 `yaml:"max_wind"`
	MinRelativeHumidityPct float64 `yaml:"min_relative_humidity_pct"`
}

// Site is one configured site with thresholds normalized to US units and its
// effective time zone already resolved (per-site override, else default).
type Site struct {
	ID         string
	Lat        float64
	Lon        float64
	Timezone   string
	Thresholds risk.Thresholds
}

// Sites is the loaded, normalized site configuration.
type Sites struct {
	HorizonHours    int
	DefaultTimezone string
	Sites           []Site
}

// LoadSites reads and normalizes the YAML sites file. Thresholds declared in
// SI units are converted to US at load so the engine only ever sees one unit
// system.
func LoadSites(path string) (Sites, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Sites{}, fmt.Errorf("config: read sites file: %w", err)
	}

	var file siteFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return Sites{}, fmt.Errorf("config: parse sites file: %w", err)
	}

	cfg := Sites{
		HorizonHours:    file.HorizonHours,
		DefaultTimezone: file.Timezone,
	}
	if cfg.HorizonHours <= 0 {
		cfg.HorizonHours = defaultHorizonHours
	}
	if cfg.DefaultTimezone == "" {
		cfg.DefaultTimezone = defaultTimezone
	}
	if len(file.Sites) == 0 {
		return Sites{}, ErrNoSites
	}

	for _, record := range file.Sites {
		if record.Name == "" {
			return Sites{}, errors.New("config: site with empty name")
		}
		thresholds, err := normalizeThresholds(record.Thresholds)
		if err != nil {
			return Sites{}, fmt.Errorf("config: site %q: %w", record.Name, err)
		}
		timezone := record.Timezone
		if timezone == "" {
			timezone = cfg.DefaultTimezone
		}
		cfg.Sites = append(cfg.Sites, Site{
			ID:         record.Name,
			Lat:        record.Lat,
			Lon:        record.Lon,
			Timezone:   timezone,
			Thresholds: thresholds,
		})
	}
	return cfg, nil
}

// normalizeThresholds converts a threshold record to US units.
func normalizeThresholds(record thresholdRecord) (risk.Thresholds, error) {
	switch record.Units {
	case UnitsUS:
		return risk.Thresholds{
			MaxTempF:       record.MaxTemp,
			MaxWindMPH:     record.MaxWind,
			MinHumidityPct: record.MinRelativeHumidityPct,
		}, nil
	case UnitsSI:
		return risk.Thresholds{
			MaxTempF:       record.MaxTemp*9.0/5.0 + 32.0,
			MaxWindMPH:     record.MaxWind * mpsToMPH,
			MinHumidityPct: record.MinRelativeHumidityPct,
		}, nil
	default:
		return risk.Thresholds{}, fmt.Errorf("thresholds units must be %q or %q, got %q", UnitsUS, UnitsSI, record.Units)
	}
}

// Runtime holds process-level settings resolved from the environment.
type Runtime struct {
	DatabaseURL     string        `envconfig:"DATABASE_URL" required:"true"`
	HTTPAddr        string        `envconfig:"HTTP_ADDR" default:":8080"`
	SitesPath       string        `envconfig:"SITES_CONFIG" default:"Sites.yaml"`
	ReportDir       string        `envconfig:"REPORT_DIR" default:"reports"`
	RunInterval     time.Duration `envconfig:"RUN_INTERVAL" default:"1h"`
	ForecastBaseURL string        `envconfig:"FORECAST_BASE_URL" default:"https://api.open-meteo.com"`
	FetchTimeout    time.Duration `envconfig:"FETCH_TIMEOUT" default:"20s"`
	SiteConcurrency int           `envconfig:"SITE_CONCURRENCY" default:"4"`
	DisableReports  bool          `envconfig:"DISABLE_REPORTS" default:"false"`
}

// LoadRuntime resolves runtime settings from the environment.
func LoadRuntime() (Runtime, error) {
	var rt Runtime
	if err := envconfig.Process("", &rt); err != nil {
		return Runtime{}, fmt.Errorf("config: %w", err)
	}
	return rt, nil
}
