package nav

import (
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	routesRegistered = promauto.NewCounter(prometheus.CounterOpts{
		Name: "clubgate_routes_registered_total",
		Help: "Dynamic routes successfully injected into session routers",
	})
	routeRegistrationFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "clubgate_route_registration_failures_total",
		Help: "Dynamic route entries that failed to register",
	})
)

// RegistrationResult reports the per-entry outcome of one registration pass.
type RegistrationResult struct {
	AddedPaths  []string
	FailedPaths []string
}

// Register injects materialized entries into the table as children of the
// layout. It is not idempotent by path; once-per-session is enforced by the
// caller through RegistrationState. A failing entry is recorded and skipped,
// never aborting its siblings.
func Register(table *RouteTable, entries []RouteEntry, logger *slog.Logger) RegistrationResult {
	var result RegistrationResult
	for _, entry := range entries {
		if err := table.Attach(entry); err != nil {
			routeRegistrationFailures.Inc()
			logger.Warn("dynamic route registration failed",
				"path", entry.Path,
				"route_id", entry.RouteID,
				"error", err,
			)
			result.FailedPaths = append(result.FailedPaths, entry.Path)
			continue
		}
		routesRegistered.Inc()
		result.AddedPaths = append(result.AddedPaths, entry.Path)
	}
	return result
}
