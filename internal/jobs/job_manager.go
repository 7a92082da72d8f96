package jobs

import (
	"fmt"
	"slices"
)

// Job is a scheduled task with a start/stop lifecycle.
type Job interface {
	Name() string
	Start() error
	Stop()
}

// JobManager coordinates all scheduled jobs in the application.
type JobManager struct {
	jobs []Job
}

func NewJobManager(jobs ...Job) *JobManager {
	return &JobManager{jobs: jobs}
}

// StartAll starts the jobs in order. When one fails, the ones already started are stopped.
func (jm *JobManager) StartAll() error {
	for i, job := range jm.jobs {
		if err := job.Start(); err != nil {
			for _, started := range slices.Backward(jm.jobs[:i]) {
				started.Stop()
			}
			return fmt.Errorf("failed to start %s: %w", job.Name(), err)
		}
	}
	return nil
}

// StopAll stops the jobs in reverse start order, waiting for running executions.
func (jm *JobManager) StopAll() {
	for _, job := range slices.Backward(jm.jobs) {
		job.Stop()
	}
}
