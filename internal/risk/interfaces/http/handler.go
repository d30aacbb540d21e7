package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	risk "heatwatch/internal/risk/domain"
)

const timeLayout = time.RFC3339

// RiskReader loads persisted engine output for the read API.
type RiskReader interface {
	ListSnapshots(ctx context.Context) ([]risk.SiteRiskSnapshot, error)
	ListWindowsEndingAfter(ctx context.Context, at time.Time) ([]risk.RiskWindow, error)
}

// Clock provides time for the windows cutoff.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// Handler provides the risk read endpoints.
type Handler struct {
	reader RiskReader
	clock  Clock
}

// NewHandler constructs a handler.
func NewHandler(reader RiskReader, clock Clock) (*Handler, error) {
	if reader == nil {
		return nil, errors.New("risk handler: nil reader")
	}
	if clock == nil {
		clock = systemClock{}
	}
	return &Handler{reader: reader, clock: clock}, nil
}

// ServeHTTP handles /api/v1/risk subroutes.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Path {
	case "/api/v1/risk/now":
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h.handleNow(w, r)
	case "/api/v1/risk/windows":
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h.handleWindows(w, r)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

type snapshotDTO struct {
	Site            string  `json:"site"`
	RiskScore       int     `json:"risk_score"`
	NextWindowStart *string `json:"next_window_start_ts"`
	HoursUntilStart *int    `json:"next_window_starts_in_h"`
}

func (h *Handler) handleNow(w http.ResponseWriter, r *http.Request) {
	snapshots, err := h.reader.ListSnapshots(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	site := r.URL.Query().Get("site")
	out := make([]snapshotDTO, 0, len(snapshots))
	for _, snapshot := range snapshots {
		if site != "" && snapshot.SiteID != site {
			continue
		}
		dto := snapshotDTO{
			Site:            snapshot.SiteID,
			RiskScore:       snapshot.RiskScore,
			HoursUntilStart: snapshot.HoursUntilStart,
		}
		if snapshot.NextWindowStart != nil {
			formatted := snapshot.NextWindowStart.Format(timeLayout)
			dto.NextWindowStart = &formatted
		}
		out = append(out, dto)
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(out)
}

type windowDTO struct {
	Site           string  `json:"site"`
	StartTime      string  `json:"start_ts"`
	EndTime        string  `json:"end_ts"`
	DurationHours  int     `json:"duration_h"`
	PeakTempF      float64 `json:"peak_temp"`
	PeakWindMPH    float64 `json:"peak_wind"`
	MinHumidityPct float64 `json:"min_rh_pct"`
	Triggers       string  `json:"triggers"`
	RiskScore      int     `json:"risk_score"`
}

func (h *Handler) handleWindows(w http.ResponseWriter, r *http.Request) {
	windows, err := h.reader.ListWindowsEndingAfter(r.Context(), h.clock.Now())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	site := r.URL.Query().Get("site")
	out := make([]windowDTO, 0, len(windows))
	for _, window := range windows {
		if site != "" && window.SiteID != site {
			continue
		}
		out = append(out, windowDTO{
			Site:           window.SiteID,
			StartTime:      window.StartTime.Format(timeLayout),
			EndTime:        window.EndTime.Format(timeLayout),
			DurationHours:  window.DurationHours,
			PeakTempF:      window.PeakTempF,
			PeakWindMPH:    window.PeakWindMPH,
			MinHumidityPct: window.MinHumidityPct,
			Triggers:       window.Triggers,
			RiskScore:      window.RiskScore,
		})
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(out)
}
