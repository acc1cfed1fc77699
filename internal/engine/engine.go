package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"wadispatch/internal/domain"
	"wadispatch/internal/observability"
	"wadispatch/internal/providers"
	"wadispatch/internal/recurrence"
	"wadispatch/internal/store"
	"wadispatch/internal/util"
)

// Store is the persistence surface the engine needs. The pg package
// implements it; tests substitute fakes.
type Store interface {
	ClaimDueJobs(ctx context.Context, now time.Time, staleAfter time.Duration, maxBatch int) ([]domain.Job, error)
	GetAccount(ctx context.Context, accountID string) (domain.Account, bool, error)
	ListPendingRecipients(ctx context.Context, jobID string) ([]domain.Recipient, error)
	HasRecipients(ctx context.Context, jobID string) (bool, error)
	MarkRecipientSent(ctx context.Context, in store.RecipientSent) error
	MarkRecipientFailed(ctx context.Context, in store.RecipientFailed) error
	ResetFailedRecipients(ctx context.Context, jobID string, now time.Time) error
	UpdateJobOutcome(ctx context.Context, in store.JobOutcome) error
	RearmRecurring(ctx context.Context, in store.JobReschedule) error
}

// SenderFactory builds the gateway client for an account's provider tag.
type SenderFactory func(domain.Account) (providers.Sender, error)

// Runner drives one dispatch invocation: claim a batch of due jobs, then
// per job resolve recipients, render, send, aggregate the outcome and
// re-arm recurring jobs. Jobs and recipients are processed strictly
// sequentially; the claim is the only step that needs concurrency safety.
type Runner struct {
	Store   Store
	Senders SenderFactory
	Limiter *rate.Limiter
	Breaker *gobreaker.CircuitBreaker

	// CountryCode is the default trunk-prefix replacement; an account-level
	// override wins.
	CountryCode string
	// Location is the business civil timezone for recurrence arithmetic.
	Location *time.Location
	// StaleAfter is how long a job may sit in 'processing' before a claim
	// may take it again.
	StaleAfter time.Duration

	Now func() time.Time
}

const defaultStaleAfter = 10 * time.Minute

func (r *Runner) now() time.Time {
	if r.Now != nil {
		return r.Now()
	}
	return util.NowUTC()
}

// Run executes one claim cycle. A claim failure aborts the whole invocation
// with nothing reserved; every claimed job ends up in the summary no matter
// how its pass went.
func (r *Runner) Run(ctx context.Context) (domain.RunSummary, error) {
	runID := util.NewRunID()
	start := time.Now()
	now := r.now()

	staleAfter := r.StaleAfter
	if staleAfter <= 0 {
		staleAfter = defaultStaleAfter
	}

	jobs, err := r.Store.ClaimDueJobs(ctx, now, staleAfter, BatchSize)
	if err != nil {
		observability.DispatchRuns.WithLabelValues("claim_error").Inc()
		return domain.RunSummary{}, fmt.Errorf("claim due jobs: %w", err)
	}

	observability.DispatchRuns.WithLabelValues("ok").Inc()
	observability.JobsClaimed.Add(float64(len(jobs)))

	summary := domain.RunSummary{
		ClaimedCount: len(jobs),
		Results:      []domain.JobResult{},
	}

	for _, job := range jobs {
		res := r.processJob(ctx, job)
		summary.Results = append(summary.Results, res)

		switch domain.JobStatus(res.Status) {
		case domain.JobSent:
			summary.SentCount++
		case domain.JobFailed:
			summary.FailedCount++
		case domain.JobPending:
			summary.RetryCount++
		}
		observability.JobOutcomes.WithLabelValues(res.Status).Inc()

		slog.Info("job processed",
			"run_id", runID,
			"job_id", job.ID,
			"status", res.Status,
			"error", res.Error,
		)
	}

	summary.DurationMS = time.Since(start).Milliseconds()
	slog.Info("dispatch run completed",
		"run_id", runID,
		"claimed", summary.ClaimedCount,
		"sent", summary.SentCount,
		"failed", summary.FailedCount,
		"retry", summary.RetryCount,
		"duration_ms", summary.DurationMS,
	)
	return summary, nil
}

// processJob runs one claimed job through the pipeline. Errors here are
// contained: they drive the job's own retry policy and never abort the batch.
func (r *Runner) processJob(ctx context.Context, job domain.Job) domain.JobResult {
	account, found, err := r.Store.GetAccount(ctx, job.AccountID)
	if err != nil {
		return r.finalize(ctx, job, failurePass(job, "load account: "+err.Error()))
	}
	if !found {
		return r.finalize(ctx, job, failurePass(job, "account not found"))
	}
	if !account.IsActive {
		return r.finalize(ctx, job, failurePass(job, "account disabled"))
	}
	if account.InstanceID == "" || account.APIToken == "" {
		return r.finalize(ctx, job, failurePass(job, "account credentials missing"))
	}

	sender, err := r.Senders(account)
	if err != nil {
		return r.finalize(ctx, job, failurePass(job, err.Error()))
	}

	recips, err := resolveRecipients(ctx, r.Store, job)
	if err != nil {
		return r.finalize(ctx, job, failurePass(job, "resolve recipients: "+err.Error()))
	}
	if len(recips) == 0 {
		return r.finalize(ctx, job, failurePass(job, "No recipients found"))
	}

	countryCode := account.CountryCode
	if countryCode == "" {
		countryCode = r.CountryCode
	}

	pass := passResult{attempted: len(recips)}
	for _, rec := range recips {
		providerMsgID, sendErr := r.sendRecipient(ctx, sender, job, rec, countryCode)
		now := r.now()

		if sendErr != nil {
			pass.failed++
			pass.lastErr = sendErr.Error()
			observability.ProviderSend.WithLabelValues(account.Provider, "error").Inc()
			if rec.ID != "" {
				if werr := r.Store.MarkRecipientFailed(ctx, store.RecipientFailed{
					ID: rec.ID, ErrorMessage: sendErr.Error(), Now: now,
				}); werr != nil {
					slog.Warn("recipient failure write failed", "job_id", job.ID, "recipient_id", rec.ID, "err", werr)
				}
			}
			continue
		}

		pass.sent++
		observability.ProviderSend.WithLabelValues(account.Provider, "ok").Inc()
		if rec.ID != "" {
			if werr := r.Store.MarkRecipientSent(ctx, store.RecipientSent{
				ID: rec.ID, ProviderMessageID: providerMsgID, Now: now,
			}); werr != nil {
				slog.Warn("recipient sent write failed", "job_id", job.ID, "recipient_id", rec.ID, "err", werr)
			}
		}
	}

	return r.finalize(ctx, job, aggregate(job, pass))
}

// finalize persists the job-level transition. A recurring job whose pass
// fully succeeded is re-armed before the summary is finalized; a failure
// persisting the job's own status counts as a full-failure pass.
func (r *Runner) finalize(ctx context.Context, job domain.Job, out outcome) domain.JobResult {
	now := r.now()

	if out.Status == domain.JobSent && job.IsRecurring {
		next, err := recurrence.NextFireTime(recurrence.Rule{
			Type:       job.RepeatType,
			Weekday:    job.RepeatWeekday,
			DayOfMonth: job.RepeatDayOfMonth,
		}, job.RepeatTime, now, r.Location)
		if err == nil {
			err = r.Store.RearmRecurring(ctx, store.JobReschedule{ID: job.ID, ScheduledAt: next, Now: now})
			if err == nil {
				return domain.JobResult{ID: job.ID, Status: string(domain.JobSent)}
			}
		}
		out = failurePass(job, "rearm recurring: "+err.Error())
	}

	if out.Status == domain.JobPending || out.Status == domain.JobProcessing {
		if err := r.Store.ResetFailedRecipients(ctx, job.ID, now); err != nil {
			slog.Warn("reset failed recipients failed", "job_id", job.ID, "err", err)
		}
	}

	if err := r.Store.UpdateJobOutcome(ctx, store.JobOutcome{
		ID:        job.ID,
		Status:    string(out.Status),
		Attempts:  out.Attempts,
		LastError: out.LastError,
		Now:       now,
	}); err != nil {
		slog.Error("job status write failed", "job_id", job.ID, "err", err)
		fb := failurePass(job, "status write failed: "+err.Error())
		_ = r.Store.UpdateJobOutcome(ctx, store.JobOutcome{
			ID:        job.ID,
			Status:    string(fb.Status),
			Attempts:  fb.Attempts,
			LastError: fb.LastError,
			Now:       now,
		})
		out = fb
	}

	return domain.JobResult{ID: job.ID, Status: string(out.Status), Error: out.LastError}
}
