package handlers

import (
	"github.com/ternarybob/marketpulse/internal/services/scheduler"
)

// JobTrigger starts a registered ingestion job in the background.
type JobTrigger interface {
	TriggerJob(name string) error
	GetAllJobStatuses() []*scheduler.JobStatus
}
