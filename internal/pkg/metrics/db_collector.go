package metrics

import (
	"github.com/jackc/pgx/v5/pgxpool"
)

// RecordDBPool copies the pool statistics into the connection gauges.
func RecordDBPool(pool *pgxpool.Pool) {
	stats := pool.Stat()

	DBPoolConnections.WithLabelValues("in_use").Set(float64(stats.AcquiredConns()))
	DBPoolConnections.WithLabelValues("idle").Set(float64(stats.IdleConns()))
	DBPoolConnections.WithLabelValues("constructing").Set(float64(stats.ConstructingConns()))
	DBPoolConnections.WithLabelValues("total").Set(float64(stats.TotalConns()))
	DBPoolConnections.WithLabelValues("max").Set(float64(stats.MaxConns()))
	DBPoolEmptyAcquires.Set(float64(stats.EmptyAcquireCount()))
}
