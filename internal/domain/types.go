package domain

import "time"

type JobStatus string

const (
	JobPending    JobStatus = "pending"
	JobProcessing JobStatus = "processing"
	JobSent       JobStatus = "sent"
	JobFailed     JobStatus = "failed"
	JobCancelled  JobStatus = "cancelled"
)

type RecipientStatus string

const (
	RecipientPending RecipientStatus = "pending"
	RecipientSent    RecipientStatus = "sent"
	RecipientFailed  RecipientStatus = "failed"
)

type RepeatType string

const (
	RepeatDaily   RepeatType = "daily"
	RepeatWeekly  RepeatType = "weekly"
	RepeatMonthly RepeatType = "monthly"
)

// Job is one scheduled-message unit of work, one-time or recurring.
// Rows are created by the dashboard; once claimed, only the dispatch
// engine mutates status, attempts, last_error and scheduled_at.
type Job struct {
	ID            string
	AccountID     string
	Body          string
	MediaURL      string
	MediaType     string
	MediaFilename string

	// Phone is the legacy single-recipient field, honored only when the
	// job has no recipient rows.
	Phone string

	IsRecurring      bool
	RepeatType       RepeatType
	RepeatWeekday    int    // 0=Sunday..6=Saturday, weekly only
	RepeatDayOfMonth int    // 1..30, monthly only
	RepeatTime       string // "HH:MM" civil time of day

	IsActive    bool
	Status      JobStatus
	Attempts    int
	LastError   string
	ScheduledAt time.Time // next fire time, UTC
}

// Recipient is one phone-number target within a job, tracked independently
// so a retry pass only re-attempts targets that were never sent.
type Recipient struct {
	ID                string
	JobID             string
	Phone             string
	Status            RecipientStatus
	SentAt            *time.Time
	ProviderMessageID string
	ErrorMessage      string
}

// Account holds the WhatsApp gateway credentials for one business number.
// Provider selects the gateway client implementation.
type Account struct {
	ID          string
	Name        string
	Provider    string
	InstanceID  string
	APIToken    string
	CountryCode string
	IsActive    bool
}

type JobResult struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// RunSummary is the JSON body returned by the trigger endpoint for one
// dispatch invocation.
type RunSummary struct {
	ClaimedCount int         `json:"claimed_count"`
	SentCount    int         `json:"sent_count"`
	FailedCount  int         `json:"failed_count"`
	RetryCount   int         `json:"retry_count"`
	DurationMS   int64       `json:"duration_ms"`
	Results      []JobResult `json:"results"`
}
