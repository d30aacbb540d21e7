package metrics

import (
	"database/sql"
	"log"

	"github.com/prometheus/client_golang/prometheus"
)

func registerDBMetrics(db *sql.DB, logger *log.Logger) {
	prometheus.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: metricPrefix + "sites_at_risk",
			Help: "Sites whose current risk score is above zero",
		},
		func() float64 {
			return queryCount(db, logger, "SELECT COUNT(*) FROM risk_now WHERE risk_score > 0")
		},
	))

	prometheus.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: metricPrefix + "max_risk_score",
			Help: "Highest current risk score across sites",
		},
		func() float64 {
			return queryCount(db, logger, "SELECT COALESCE(MAX(risk_score), 0) FROM risk_now")
		},
	))
}

func queryCount(db *sql.DB, logger *log.Logger, query string) float64 {
	if db == nil {
		return 0
	}
	var count int64
	if err := db.QueryRow(query).Scan(&count); err != nil {
		if logger != nil {
			logger.Printf("metrics query failed: %v", err)
		}
		return 0
	}
	if count < 0 {
		return 0
	}
	return float64(count)
}
