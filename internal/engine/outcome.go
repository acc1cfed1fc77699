package engine

import (
	"fmt"

	"wadispatch/internal/domain"
)

// Policy constants for the retry/dead-letter state machine.
const (
	MaxAttempts = 5
	BatchSize   = 50
)

// passResult is the tally of one dispatch pass over a job's resolved
// recipients.
type passResult struct {
	attempted int
	sent      int
	failed    int
	lastErr   string
}

// outcome is the job-level status transition the aggregator derives from one
// pass. attempts only moves on a full-failure pass.
type outcome struct {
	Status    domain.JobStatus
	Attempts  int
	LastError string
}

// aggregate applies the status state machine:
//
//	all sent        -> sent, attempts unchanged, error cleared
//	mixed           -> processing, attempts unchanged
//	all failed      -> pending until MaxAttempts, then failed (dead-letter)
//	zero recipients -> same rule as all failed
func aggregate(job domain.Job, pass passResult) outcome {
	if pass.attempted > 0 && pass.failed == 0 {
		return outcome{Status: domain.JobSent, Attempts: job.Attempts}
	}
	if pass.sent > 0 {
		return outcome{
			Status:    domain.JobProcessing,
			Attempts:  job.Attempts,
			LastError: fmt.Sprintf("%d recipients failed", pass.failed),
		}
	}
	return failurePass(job, failureSummary(pass))
}

// failurePass is the full-failure transition, also used when a job cannot be
// dispatched at all (missing account, no recipients, status-write failure).
func failurePass(job domain.Job, errText string) outcome {
	attempts := job.Attempts + 1
	status := domain.JobPending
	if attempts >= MaxAttempts {
		status = domain.JobFailed
	}
	return outcome{Status: status, Attempts: attempts, LastError: errText}
}

func failureSummary(pass passResult) string {
	if pass.attempted == 0 {
		if pass.lastErr != "" {
			return pass.lastErr
		}
		return "No recipients found"
	}
	return fmt.Sprintf("all %d recipients failed: %s", pass.failed, pass.lastErr)
}
