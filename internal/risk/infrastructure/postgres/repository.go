package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	risk "heatwatch/internal/risk/domain"
)

// schemaDDL is idempotent; EnsureSchema may run on every start.
const schemaDDL = `
CREATE TABLE IF NOT EXISTS risk_now (
	site TEXT PRIMARY KEY,
	risk_score INT NOT NULL,
	next_window_start_ts TIMESTAMPTZ,
	next_window_starts_in_h INT,
	generated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS risk_windows (
	id TEXT PRIMARY KEY,
	site TEXT NOT NULL,
	start_ts TIMESTAMPTZ NOT NULL,
	end_ts TIMESTAMPTZ NOT NULL,
	duration_h INT NOT NULL,
	peak_temp NUMERIC NOT NULL,
	peak_wind NUMERIC NOT NULL,
	min_rh_pct NUMERIC NOT NULL,
	triggers TEXT NOT NULL,
	risk_score INT NOT NULL,
	generated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS risk_hourly (
	site TEXT NOT NULL,
	ts TIMESTAMPTZ NOT NULL,
	temp NUMERIC NOT NULL,
	wind NUMERIC NOT NULL,
	rh_pct NUMERIC NOT NULL,
	temperature_risk BOOLEAN,
	wind_risk BOOLEAN,
	humidity_risk BOOLEAN,
	any_risk BOOLEAN,
	triggers TEXT,
	generated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (site, ts)
);

CREATE INDEX IF NOT EXISTS idx_windows_site_start ON risk_windows(site, start_ts DESC);
CREATE INDEX IF NOT EXISTS idx_hourly_site_ts ON risk_hourly(site, ts DESC);
`

// Repository persists risk engine output to Postgres. The connection is
// injected; the repository never owns connection lifecycle or credentials.
type Repository struct {
	db *sql.DB
}

// NewRepository constructs a repository.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// EnsureSchema creates tables and indexes if they do not exist.
func (r *Repository) EnsureSchema(ctx context.Context) error {
	if r == nil || r.db == nil {
		return errors.New("risk repo: nil db")
	}
	_, err := r.db.ExecContext(ctx, schemaDDL)
	return err
}

// UpsertHourly writes the combined per-hour flag table, replacing rows that
// already exist for the same (site, ts).
func (r *Repository) UpsertHourly(ctx context.Context, rows []risk.HourlyRiskFlags) error {
	if r == nil || r.db == nil {
		return errors.New("risk repo: nil db")
	}
	for _, row := range rows {
		_, err := r.db.ExecContext(ctx, `
INSERT INTO risk_hourly (
	site, ts, temp, wind, rh_pct,
	temperature_risk, wind_risk, humidity_risk, any_risk, triggers
) VALUES (
	$1, $2, $3, $4, $5,
	$6, $7, $8, $9, $10
)
ON CONFLICT (site, ts) DO UPDATE SET
	temp = EXCLUDED.temp,
	wind = EXCLUDED.wind,
	rh_pct = EXCLUDED.rh_pct,
	temperature_risk = EXCLUDED.temperature_risk,
	wind_risk = EXCLUDED.wind_risk,
	humidity_risk = EXCLUDED.humidity_risk,
	any_risk = EXCLUDED.any_risk,
	triggers = EXCLUDED.triggers,
	generated_at = now()`,
			row.SiteID, row.TS, row.TemperatureF, row.WindMPH, row.HumidityPct,
			row.TemperatureBreach, row.WindBreach, row.HumidityBreach, row.AnyBreach, row.TriggerLabel)
		if err != nil {
			return err
		}
	}
	return nil
}

// InsertWindows appends detected windows. Row identifiers are generated here
// so the engine's output stays a pure function of its inputs.
func (r *Repository) InsertWindows(ctx context.Context, windows []risk.RiskWindow) error {
	if r == nil || r.db == nil {
		return errors.New("risk repo: nil db")
	}
	for _, window := range windows {
		_, err := r.db.ExecContext(ctx, `
INSERT INTO risk_windows (
	id, site, start_ts, end_ts, duration_h,
	peak_temp, peak_wind, min_rh_pct, triggers, risk_score
) VALUES (
	$1, $2, $3, $4, $5,
	$6, $7, $8, $9, $10
)`,
			uuid.NewString(), window.SiteID, window.StartTime, window.EndTime, window.DurationHours,
			window.PeakTempF, window.PeakWindMPH, window.MinHumidityPct, window.Triggers, window.RiskScore)
		if err != nil {
			return err
		}
	}
	return nil
}

// UpsertSnapshots writes one risk_now row per site.
func (r *Repository) UpsertSnapshots(ctx context.Context, snapshots []risk.SiteRiskSnapshot) error {
	if r == nil || r.db == nil {
		return errors.New("risk repo: nil db")
	}
	for _, snapshot := range snapshots {
		_, err := r.db.ExecContext(ctx, `
INSERT INTO risk_now (site, risk_score, next_window_start_ts, next_window_starts_in_h)
VALUES ($1, $2, $3, $4)
ON CONFLICT (site) DO UPDATE SET
	risk_score = EXCLUDED.risk_score,
	next_window_start_ts = EXCLUDED.next_window_start_ts,
	next_window_starts_in_h = EXCLUDED.next_window_starts_in_h,
	generated_at = now()`,
			snapshot.SiteID, snapshot.RiskScore, nullableTime(snapshot.NextWindowStart), nullableInt(snapshot.HoursUntilStart))
		if err != nil {
			return err
		}
	}
	return nil
}

// ListSnapshots loads the current risk_now table ordered by site.
func (r *Repository) ListSnapshots(ctx context.Context) ([]risk.SiteRiskSnapshot, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("risk repo: nil db")
	}
	rows, err := r.db.QueryContext(ctx, `
SELECT site, risk_score, next_window_start_ts, next_window_starts_in_h
FROM risk_now
ORDER BY site`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var snapshots []risk.SiteRiskSnapshot
	for rows.Next() {
		var snapshot risk.SiteRiskSnapshot
		var start sql.NullTime
		var hours sql.NullInt64
		if err := rows.Scan(&snapshot.SiteID, &snapshot.RiskScore, &start, &hours); err != nil {
			return nil, err
		}
		if start.Valid {
			ts := start.Time
			snapshot.NextWindowStart = &ts
		}
		if hours.Valid {
			h := int(hours.Int64)
			snapshot.HoursUntilStart = &h
		}
		snapshots = append(snapshots, snapshot)
	}
	return snapshots, rows.Err()
}

// ListWindowsEndingAfter loads windows still relevant at the given instant,
// ordered by site and start.
func (r *Repository) ListWindowsEndingAfter(ctx context.Context, at time.Time) ([]risk.RiskWindow, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("risk repo: nil db")
	}
	rows, err := r.db.QueryContext(ctx, `
SELECT site, start_ts, end_ts, duration_h, peak_temp, peak_wind, min_rh_pct, triggers, risk_score
FROM risk_windows
WHERE end_ts >= $1
ORDER BY site, start_ts`, at)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var windows []risk.RiskWindow
	for rows.Next() {
		var window risk.RiskWindow
		if err := rows.Scan(
			&window.SiteID,
			&window.StartTime,
			&window.EndTime,
			&window.DurationHours,
			&window.PeakTempF,
			&window.PeakWindMPH,
			&window.MinHumidityPct,
			&window.Triggers,
			&window.RiskScore,
		); err != nil {
			return nil, err
		}
		windows = append(windows, window)
	}
	return windows, rows.Err()
}

func nullableTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return *t
}

func nullableInt(i *int) any {
	if i == nil {
		return nil
	}
	return *i
}
