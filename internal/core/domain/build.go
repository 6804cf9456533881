package domain

import "time"

// FitnessSample records the quality metric of one build iteration.
type FitnessSample struct {
	Version   string  `json:"version"`
	Metric    float64 `json:"metric"`
	Iteration int     `json:"iteration"`
}

type BuildStatus string

const (
	BuildStatusSuccess BuildStatus = "success"
	BuildStatusFailed  BuildStatus = "failed"
	BuildStatusAborted BuildStatus = "aborted"
)

// BuildRecord is the persisted outcome of one build iteration.
type BuildRecord struct {
	ID         string      `json:"id"`
	Timestamp  time.Time   `json:"timestamp"`
	Strategy   string      `json:"strategy_name"`
	Status     BuildStatus `json:"status"`
	Fitness    float64     `json:"fitness"`
	Duration   int64       `json:"duration_seconds"`
	Error      string      `json:"error_message,omitempty"`
	Iterations int         `json:"iterations"`
}

// HealthSample is one probe result for a service.
type HealthSample struct {
	Service   ServiceID `json:"service"`
	Status    string    `json:"status"`
	LatencyMS float64   `json:"response_time_ms"`
	Timestamp time.Time `json:"timestamp"`
}
