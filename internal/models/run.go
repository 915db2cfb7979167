package models

import (
	"time"
)

// Domain identifies one ingestion pipeline.
type Domain string

const (
	DomainNews    Domain = "news"
	DomainMarket  Domain = "market"
	DomainOptions Domain = "options"
)

// ParseDomain validates a domain name.
func ParseDomain(s string) (Domain, bool) {
	switch Domain(s) {
	case DomainNews, DomainMarket, DomainOptions:
		return Domain(s), true
	}
	return "", false
}

// RunStatus is the lifecycle state of an IngestionRun.
type RunStatus string

const (
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
)

// IngestionRun records one invocation of a pipeline.
type IngestionRun struct {
	ID         string     `json:"id"`
	Domain     Domain     `json:"domain"`
	Status     RunStatus  `json:"status"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
	Requested  int        `json:"requested"`
	Failed     int        `json:"failed"`
	Stored     int        `json:"stored"`
	Error      string     `json:"error,omitempty"`
}

// Duration returns the elapsed run time, zero while running.
func (r IngestionRun) Duration() time.Duration {
	if r.FinishedAt == nil {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}
