// Package health provides system health monitoring and status reporting.
package health

import "time"

// SystemStatus represents the overall health state of the system or a component.
type SystemStatus string

const (
	StatusHealthy  SystemStatus = "healthy"
	StatusDegraded SystemStatus = "degraded"
	StatusCritical SystemStatus = "critical"
)

// ServiceHealth contains the latest probe outcome for one backing service.
type ServiceHealth struct {
	Service   string    `json:"service"`
	Status    string    `json:"status"`
	LatencyMS float64   `json:"response_time_ms"`
	CheckedAt time.Time `json:"checked_at"`
}

// HealthReport contains the full system health report.
type HealthReport struct {
	SystemStatus SystemStatus             `json:"system_status"`
	Services     map[string]ServiceHealth `json:"services"`
}
