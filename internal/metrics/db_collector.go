package metrics

import (
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
)

// DBStatsCollector periodically samples sql.DB pool statistics into the
// db connection gauges.
type DBStatsCollector struct {
	db     *sqlx.DB
	log    *slog.Logger
	stopCh chan struct{}
}

// NewDBStatsCollector creates a collector over the shared sqlx pool
func NewDBStatsCollector(db *sqlx.DB, log *slog.Logger) *DBStatsCollector {
	if log == nil {
		log = slog.Default()
	}
	return &DBStatsCollector{
		db:     db,
		log:    log,
		stopCh: make(chan struct{}),
	}
}

// Start begins sampling at the given interval
func (c *DBStatsCollector) Start(interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		c.collect()
		for {
			select {
			case <-ticker.C:
				c.collect()
			case <-c.stopCh:
				return
			}
		}
	}()
	c.log.Info("database stats collector started", "interval", interval)
}

// Stop halts the collector
func (c *DBStatsCollector) Stop() {
	close(c.stopCh)
}

func (c *DBStatsCollector) collect() {
	stats := c.db.DB.Stats()
	DBConnectionsOpen.Set(float64(stats.OpenConnections))
	DBConnectionsInUse.Set(float64(stats.InUse))
	DBConnectionsIdle.Set(float64(stats.Idle))
}

// TimeQuery times a database operation.
// Usage: defer metrics.TimeQuery("select_votes")()
func TimeQuery(operation string) func() {
	start := time.Now()
	return func() {
		DBQueryDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
	}
}
