package gantry

import (
	"context"
	"time"
)

// HealthStatus is the aggregate health of the application.
type HealthStatus string

const (
	HealthStatusHealthy   HealthStatus = "healthy"
	HealthStatusUnhealthy HealthStatus = "unhealthy"
)

// HealthReport aggregates per-service health check results. Services opt in
// by implementing a Health(ctx) error method; everything else is omitted.
type HealthReport struct {
	Status    HealthStatus      `json:"status"`
	Services  map[string]string `json:"services,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
}

// buildHealthReport runs the container's health checks and folds the
// results into one report.
func buildHealthReport(ctx context.Context, container Container) HealthReport {
	report := HealthReport{
		Status:    HealthStatusHealthy,
		Services:  make(map[string]string),
		Timestamp: time.Now().UTC(),
	}

	for identifier, err := range container.HealthReport(ctx) {
		if err != nil {
			report.Status = HealthStatusUnhealthy
			report.Services[identifier] = err.Error()
		} else {
			report.Services[identifier] = "ok"
		}
	}

	return report
}
