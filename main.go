package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"heatwatch/internal/config"
	"heatwatch/internal/forecast"
	"heatwatch/internal/observability/metrics"
	"heatwatch/internal/risk/application"
	riskpostgres "heatwatch/internal/risk/infrastructure/postgres"
	riskinterfaces "heatwatch/internal/risk/interfaces"
	riskhttp "heatwatch/internal/risk/interfaces/http"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	_ = godotenv.Load()

	logger := log.New(os.Stdout, "", log.LstdFlags)

	rt, err := config.LoadRuntime()
	if err != nil {
		logger.Fatalf("runtime config error: %v", err)
	}
	sites, err := config.LoadSites(rt.SitesPath)
	if err != nil {
		logger.Fatalf("sites config error: %v", err)
	}
	logger.Printf("loaded %d sites, horizon %dh", len(sites.Sites), sites.HorizonHours)

	db, err := sql.Open("pgx", rt.DatabaseURL)
	if err != nil {
		logger.Fatalf("db open error: %v", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		logger.Fatalf("db ping error: %v", err)
	}

	repo := riskpostgres.NewRepository(db)
	if err := repo.EnsureSchema(context.Background()); err != nil {
		logger.Fatalf("schema error: %v", err)
	}

	metrics.Init(db, logger)

	source, err := forecast.NewClient(
		rt.ForecastBaseURL,
		sites.HorizonHours,
		forecast.WithHTTPClient(&http.Client{Timeout: rt.FetchTimeout}),
	)
	if err != nil {
		logger.Fatalf("forecast client error: %v", err)
	}

	pipeline, err := application.NewPipeline(
		source,
		application.WithLogger(logger),
		application.WithConcurrency(rt.SiteConcurrency),
	)
	if err != nil {
		logger.Fatalf("pipeline error: %v", err)
	}

	inputs := siteInputs(sites)
	runner := &runner{
		pipeline:       pipeline,
		repo:           repo,
		sites:          inputs,
		reportDir:      rt.ReportDir,
		disableReports: rt.DisableReports,
		logger:         logger,
	}

	runner.runOnce(context.Background())
	go func() {
		ticker := time.NewTicker(rt.RunInterval)
		defer ticker.Stop()
		for range ticker.C {
			runner.runOnce(context.Background())
		}
	}()

	handler, err := riskhttp.NewHandler(repo, nil)
	if err != nil {
		logger.Fatalf("risk handler error: %v", err)
	}

	mux := http.NewServeMux()
	mux.Handle("/api/v1/risk/now", handler)
	mux.Handle("/api/v1/risk/windows", handler)
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	server := &http.Server{Addr: rt.HTTPAddr, Handler: loggingMiddleware(mux, logger)}
	logger.Printf("http listening on %s", rt.HTTPAddr)
	logger.Fatal(server.ListenAndServe())
}

func siteInputs(sites config.Sites) []application.SiteInput {
	inputs := make([]application.SiteInput, 0, len(sites.Sites))
	for _, site := range sites.Sites {
		inputs = append(inputs, application.SiteInput{
			SiteID:     site.ID,
			Latitude:   site.Lat,
			Longitude:  site.Lon,
			Timezone:   site.Timezone,
			Thresholds: site.Thresholds,
		})
	}
	return inputs
}

type runner struct {
	pipeline       *application.Pipeline
	repo           *riskpostgres.Repository
	sites          []application.SiteInput
	reportDir      string
	disableReports bool
	logger         *log.Logger
}

// runOnce executes one evaluation run: fetch, evaluate, persist, report. A run
// with skipped sites or persistence trouble is recorded as partial; only a run
// producing nothing at all counts as an error.
func (r *runner) runOnce(ctx context.Context) {
	start := time.Now()
	result := metrics.ResultSuccess

	out, err := r.pipeline.Run(ctx, r.sites)
	if err != nil {
		r.logger.Printf("run failed: %v", err)
		metrics.ObserveRun(metrics.ResultError, time.Since(start))
		return
	}
	if out.Warnings != nil {
		r.logger.Printf("run warnings: %v", out.Warnings)
		result = metrics.ResultPartial
	}
	for _, site := range out.SkippedSites {
		metrics.IncFetchError(site)
	}
	metrics.AddSitesSkipped(len(out.SkippedSites))
	metrics.AddWindowsDetected(len(out.Windows))

	if err := r.repo.UpsertHourly(ctx, out.Hourly); err != nil {
		r.logger.Printf("persist hourly error: %v", err)
		result = metrics.ResultPartial
	} else {
		metrics.AddRowsPersisted("risk_hourly", len(out.Hourly))
	}
	if err := r.repo.InsertWindows(ctx, out.Windows); err != nil {
		r.logger.Printf("persist windows error: %v", err)
		result = metrics.ResultPartial
	} else {
		metrics.AddRowsPersisted("risk_windows", len(out.Windows))
	}
	if err := r.repo.UpsertSnapshots(ctx, out.Snapshots); err != nil {
		r.logger.Printf("persist snapshots error: %v", err)
		result = metrics.ResultPartial
	} else {
		metrics.AddRowsPersisted("risk_now", len(out.Snapshots))
	}

	if !r.disableReports {
		r.writeReports(out)
	}

	metrics.ObserveRun(result, time.Since(start))
	r.logger.Printf("run complete: sites=%d windows=%d skipped=%d in %s",
		len(out.Snapshots), len(out.Windows), len(out.SkippedSites), time.Since(start))
}

func (r *runner) writeReports(out *application.Result) {
	if err := os.MkdirAll(r.reportDir, 0o755); err != nil {
		r.logger.Printf("report dir error: %v", err)
		return
	}
	stamp := out.GeneratedAt.UTC().Format("20060102T150405Z")

	exportStart := time.Now()
	if data, err := riskinterfaces.BuildRiskXLSX(out.Hourly, out.Windows); err != nil {
		r.logger.Printf("xlsx report error: %v", err)
		metrics.ObserveReportExport("xlsx", metrics.ResultError, time.Since(exportStart))
	} else {
		path := filepath.Join(r.reportDir, fmt.Sprintf("risk_report_%s.xlsx", stamp))
		if err := os.WriteFile(path, data, 0o644); err != nil {
			r.logger.Printf("xlsx write error: %v", err)
			metrics.ObserveReportExport("xlsx", metrics.ResultError, time.Since(exportStart))
		} else {
			metrics.ObserveReportExport("xlsx", metrics.ResultSuccess, time.Since(exportStart))
		}
	}

	exportStart = time.Now()
	if data, err := riskinterfaces.BuildRiskPDF(out.Windows, out.Snapshots, out.GeneratedAt); err != nil {
		r.logger.Printf("pdf report error: %v", err)
		metrics.ObserveReportExport("pdf", metrics.ResultError, time.Since(exportStart))
	} else {
		path := filepath.Join(r.reportDir, fmt.Sprintf("risk_report_%s.pdf", stamp))
		if err := os.WriteFile(path, data, 0o644); err != nil {
			r.logger.Printf("pdf write error: %v", err)
			metrics.ObserveReportExport("pdf", metrics.ResultError, time.Since(exportStart))
		} else {
			metrics.ObserveReportExport("pdf", metrics.ResultSuccess, time.Since(exportStart))
		}
	}
}

func loggingMiddleware(next http.Handler, logger *log.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		resp := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(resp, r)
		elapsed := time.Since(start)
		metrics.ObserveAPIRequest(r.URL.Path, strconv.Itoa(resp.status), elapsed)
		logger.Printf("http %s %s %d %s", r.Method, r.URL.Path, resp.status, elapsed)
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}
