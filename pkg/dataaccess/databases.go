package dataaccess

import (
	"errors"

	"github.com/Jacobbrewer1/rabbit/pkg/dataaccess/monitoring"
	"github.com/prometheus/client_golang/prometheus"
)

const (
	collGuilds           = "guilds"
	collTickets          = "tickets"
	collApplicationTypes = "application_types"
	collApplications     = "applications"
	collPanels           = "panels"
	collBlacklist        = "blacklist"
)

var (
	// ErrNotFound is returned when no record matches the lookup.
	ErrNotFound = errors.New("record not found")

	// ErrNoMatch is returned by conditional writes when the record exists but is no longer in the expected state.
	ErrNoMatch = errors.New("record is not in the expected state")

	// ErrDuplicate is returned when a unique constraint is violated.
	ErrDuplicate = errors.New("record already exists")
)

// track starts the prometheus metrics for a query. Call ObserveDuration on the result when the query is done.
func track(dal, query, database, collection string) *prometheus.Timer {
	monitoring.MongoTotalRequests.WithLabelValues(dal, query, database, collection).Inc()
	return prometheus.NewTimer(monitoring.MongoLatency.WithLabelValues(dal, query, database, collection))
}
