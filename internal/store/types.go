package store

import "time"

type RecipientSent struct {
	ID                string
	ProviderMessageID string
	Now               time.Time
}

type RecipientFailed struct {
	ID           string
	ErrorMessage string
	Now          time.Time
}

// JobOutcome is the aggregator's end-of-pass write for one job.
type JobOutcome struct {
	ID        string
	Status    string
	Attempts  int
	LastError string
	Now       time.Time
}

// JobReschedule re-arms a recurring job for its next occurrence.
type JobReschedule struct {
	ID          string
	ScheduledAt time.Time
	Now         time.Time
}
