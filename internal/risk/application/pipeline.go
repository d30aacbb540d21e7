package application

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/hashicorp/go-multierror"
	"golang.org/x/sync/errgroup"

	risk "heatwatch/internal/risk/domain"
)

const defaultConcurrency = 4

// Clock provides time for pipeline runs.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SiteInput is one configured site fed into a run.
type SiteInput struct {
	SiteID     string
	Latitude   float64
	Longitude  float64
	Timezone   string
	Thresholds risk.Thresholds
}

// ForecastSource returns one site's hourly readings, already localized to the
// site's effective zone and sliced to the forecast horizon.
type ForecastSource interface {
	HourlyForecast(ctx context.Context, siteID string, lat, lon float64, timezone string) ([]risk.HourlyReading, error)
}

// Result is one run's combined output across sites. Hourly and Windows keep
// configured site order; Snapshots holds one entry per site that produced a
// usable (possibly empty) series.
type Result struct {
	GeneratedAt  time.Time
	Hourly       []risk.HourlyRiskFlags
	Windows      []risk.RiskWindow
	Snapshots    []risk.SiteRiskSnapshot
	SkippedSites []string

	// Warnings aggregates per-site soft failures. A non-nil value still means
	// the run succeeded for the remaining sites.
	Warnings error
}

// Pipeline runs the risk engine per site and merges the outputs.
type Pipeline struct {
	source      ForecastSource
	clock       Clock
	logger      *log.Logger
	concurrency int
}

// Option customizes the pipeline.
type Option func(*Pipeline)

// WithClock assigns a clock.
func WithClock(clock Clock) Option {
	return func(p *Pipeline) {
		if clock != nil {
			p.clock = clock
		}
	}
}

// WithLogger assigns a logger.
func WithLogger(logger *log.Logger) Option {
	return func(p *Pipeline) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithConcurrency bounds the per-site worker fan-out.
func WithConcurrency(n int) Option {
	return func(p *Pipeline) {
		if n > 0 {
			p.concurrency = n
		}
	}
}

// NewPipeline constructs a pipeline.
func NewPipeline(source ForecastSource, opts ...Option) (*Pipeline, error) {
	if source == nil {
		return nil, errors.New("pipeline: nil forecast source")
	}
	pipeline := &Pipeline{
		source:      source,
		clock:       systemClock{},
		logger:      log.Default(),
		concurrency: defaultConcurrency,
	}
	for _, opt := range opts {
		opt(pipeline)
	}
	return pipeline, nil
}

// siteResult is one worker's slot. Workers never share slots, so the merge
// step needs no synchronization.
type siteResult struct {
	hourly   []risk.HourlyRiskFlags
	windows  []risk.RiskWindow
	snapshot *risk.SiteRiskSnapshot
	skipped  bool
	warning  error
}

// Run evaluates every configured site independently and assembles the
// combined hourly table, window table, and per-site snapshots. Sites whose
// forecast is unavailable are skipped with a warning; sites with zero usable
// hours yield a neutral snapshot. Only context cancellation aborts the run.
func (p *Pipeline) Run(ctx context.Context, sites []SiteInput) (*Result, error) {
	if p == nil || p.source == nil {
		return nil, errors.New("pipeline: not initialized")
	}

	result := &Result{GeneratedAt: p.clock.Now()}
	if len(sites) == 0 {
		p.logger.Printf("pipeline: no sites configured, nothing to do")
		return result, nil
	}

	slots := make([]siteResult, len(sites))
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(p.concurrency)

	for i, site := range sites {
		i, site := i, site
		group.Go(func() error {
			if err := groupCtx.Err(); err != nil {
				return err
			}
			slots[i] = p.runSite(groupCtx, site)
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}

	for i, slot := range slots {
		if slot.warning != nil {
			result.Warnings = multierror.Append(result.Warnings, slot.warning)
		}
		if slot.skipped {
			result.SkippedSites = append(result.SkippedSites, sites[i].SiteID)
			continue
		}
		result.Hourly = append(result.Hourly, slot.hourly...)
		result.Windows = append(result.Windows, slot.windows...)
		if slot.snapshot != nil {
			result.Snapshots = append(result.Snapshots, *slot.snapshot)
		}
	}
	return result, nil
}

// runSite executes fetch → evaluate → segment → snapshot for one site.
func (p *Pipeline) runSite(ctx context.Context, site SiteInput) siteResult {
	readings, err := p.source.HourlyForecast(ctx, site.SiteID, site.Latitude, site.Longitude, site.Timezone)
	if err != nil {
		p.logger.Printf("pipeline: [%s] forecast unavailable, skipping: %v", site.SiteID, err)
		return siteResult{
			skipped: true,
			warning: fmt.Errorf("site %s: forecast unavailable: %w", site.SiteID, err),
		}
	}

	flags := risk.EvaluateHours(readings, site.Thresholds)
	if len(flags) == 0 {
		p.logger.Printf("pipeline: [%s] no usable readings, neutral snapshot", site.SiteID)
		neutral := risk.SiteRiskSnapshot{SiteID: site.SiteID}
		return siteResult{
			snapshot: &neutral,
			warning:  fmt.Errorf("site %s: %w", site.SiteID, risk.ErrEmptySiteSeries),
		}
	}

	windows := risk.SegmentWindows(flags)

	// Compare in the zone the site's timestamps are expressed in.
	now := p.clock.Now().In(flags[0].TS.Location())
	snapshot := risk.BuildSnapshot(site.SiteID, windows, now)

	return siteResult{
		hourly:   flags,
		windows:  windows,
		snapshot: &snapshot,
	}
}
