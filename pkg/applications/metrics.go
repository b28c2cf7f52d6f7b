package applications

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ApplicationsSubmitted is the number of applications submitted.
	ApplicationsSubmitted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "applications_submitted_total",
			Help: "Total number of applications submitted",
		},
	)

	// ApplicationsReviewed is the number of applications reviewed, by outcome.
	ApplicationsReviewed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "applications_reviewed_total",
			Help: "Total number of applications reviewed",
		},
		[]string{"status"},
	)

	// RoleChangesSkipped is the number of role changes skipped because the role sits at or above the bot's highest
	// role.
	RoleChangesSkipped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "application_role_changes_skipped_total",
			Help: "Total number of application role changes skipped by the role hierarchy",
		},
	)
)
