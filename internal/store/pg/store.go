package pg

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"wadispatch/internal/domain"
	"wadispatch/internal/store"
)

type Store struct {
	DB *pgxpool.Pool
}

func New(db *pgxpool.Pool) *Store { return &Store{DB: db} }

// ClaimDueJobs reserves up to maxBatch due jobs in one statement. The
// FOR UPDATE SKIP LOCKED subquery plus the status flip to 'processing'
// make the reservation atomic: a concurrent claim cannot select rows this
// one already locked, and a failed claim reserves nothing.
//
// Jobs parked in 'processing' (partial-success passes, crashed invocations)
// become claimable again once updated_at is older than staleAfter.
func (s *Store) ClaimDueJobs(ctx context.Context, now time.Time, staleAfter time.Duration, maxBatch int) ([]domain.Job, error) {
	staleBefore := now.Add(-staleAfter)
	rows, err := s.DB.Query(ctx, `
		UPDATE jobs SET status='processing', updated_at=$1
		WHERE id IN (
			SELECT id FROM jobs
			WHERE is_active AND scheduled_at <= $1
			  AND (status='pending' OR (status='processing' AND updated_at < $3))
			ORDER BY scheduled_at
			FOR UPDATE SKIP LOCKED
			LIMIT $2
		)
		RETURNING id, account_id, body,
		          COALESCE(media_url,''), COALESCE(media_type,''), COALESCE(media_filename,''),
		          COALESCE(phone,''),
		          is_recurring, COALESCE(repeat_type,''), COALESCE(repeat_weekday,0),
		          COALESCE(repeat_day_of_month,0), COALESCE(repeat_time,''),
		          is_active, attempts, COALESCE(last_error,''), scheduled_at
	`, now, maxBatch, staleBefore)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var jobs []domain.Job
	for rows.Next() {
		var j domain.Job
		var repeatType string
		if err := rows.Scan(
			&j.ID, &j.AccountID, &j.Body,
			&j.MediaURL, &j.MediaType, &j.MediaFilename,
			&j.Phone,
			&j.IsRecurring, &repeatType, &j.RepeatWeekday,
			&j.RepeatDayOfMonth, &j.RepeatTime,
			&j.IsActive, &j.Attempts, &j.LastError, &j.ScheduledAt,
		); err != nil {
			return nil, err
		}
		j.RepeatType = domain.RepeatType(repeatType)
		j.Status = domain.JobProcessing
		jobs = append(jobs, j)
	}
	return jobs, rows.Err()
}

func (s *Store) GetAccount(ctx context.Context, accountID string) (domain.Account, bool, error) {
	var a domain.Account
	row := s.DB.QueryRow(ctx, `
		SELECT id, name, provider, COALESCE(instance_id,''), COALESCE(api_token,''),
		       COALESCE(country_code,''), is_active
		FROM accounts WHERE id=$1
	`, accountID)
	err := row.Scan(&a.ID, &a.Name, &a.Provider, &a.InstanceID, &a.APIToken, &a.CountryCode, &a.IsActive)
	if err != nil {
		if err.Error() == "no rows in result set" {
			return domain.Account{}, false, nil
		}
		return domain.Account{}, false, err
	}
	return a, true, nil
}

// ListPendingRecipients returns the job's not-yet-sent targets in insertion
// order. Recipients already marked sent stay excluded on retry passes.
func (s *Store) ListPendingRecipients(ctx context.Context, jobID string) ([]domain.Recipient, error) {
	rows, err := s.DB.Query(ctx, `
		SELECT id, job_id, phone, status, sent_at,
		       COALESCE(provider_message_id,''), COALESCE(error_message,'')
		FROM recipients
		WHERE job_id=$1 AND status='pending'
		ORDER BY id
	`, jobID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var recips []domain.Recipient
	for rows.Next() {
		var r domain.Recipient
		var status string
		if err := rows.Scan(&r.ID, &r.JobID, &r.Phone, &status, &r.SentAt, &r.ProviderMessageID, &r.ErrorMessage); err != nil {
			return nil, err
		}
		r.Status = domain.RecipientStatus(status)
		recips = append(recips, r)
	}
	return recips, rows.Err()
}

// HasRecipients reports whether any recipient rows exist for the job at all,
// sent or not. The resolver uses this to tell "all already sent" apart from
// the legacy single-phone fallback.
func (s *Store) HasRecipients(ctx context.Context, jobID string) (bool, error) {
	row := s.DB.QueryRow(ctx, `SELECT 1 FROM recipients WHERE job_id=$1 LIMIT 1`, jobID)
	var one int
	err := row.Scan(&one)
	if err != nil {
		if err.Error() == "no rows in result set" {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (s *Store) MarkRecipientSent(ctx context.Context, in store.RecipientSent) error {
	_, err := s.DB.Exec(ctx, `
		UPDATE recipients
		SET status='sent', sent_at=$2, provider_message_id=$3, error_message=NULL, updated_at=$2
		WHERE id=$1
	`, in.ID, in.Now, in.ProviderMessageID)
	return err
}

func (s *Store) MarkRecipientFailed(ctx context.Context, in store.RecipientFailed) error {
	_, err := s.DB.Exec(ctx, `
		UPDATE recipients
		SET status='failed', error_message=$2, updated_at=$3
		WHERE id=$1
	`, in.ID, in.ErrorMessage, in.Now)
	return err
}

// ResetFailedRecipients moves a job's failed recipients back to pending so a
// later claim cycle re-attempts exactly the targets that did not go out.
func (s *Store) ResetFailedRecipients(ctx context.Context, jobID string, now time.Time) error {
	_, err := s.DB.Exec(ctx, `
		UPDATE recipients SET status='pending', updated_at=$2
		WHERE job_id=$1 AND status='failed'
	`, jobID, now)
	return err
}

func (s *Store) UpdateJobOutcome(ctx context.Context, in store.JobOutcome) error {
	_, err := s.DB.Exec(ctx, `
		UPDATE jobs SET status=$2, attempts=$3, last_error=$4, updated_at=$5
		WHERE id=$1
	`, in.ID, in.Status, in.Attempts, nullIfEmpty(in.LastError), in.Now)
	return err
}

// RearmRecurring closes the sent->pending loop for a recurring job and
// reopens its recipient set so the next occurrence fans out to everyone
// again. Attempts carry forward deliberately; only the dashboard resets them.
func (s *Store) RearmRecurring(ctx context.Context, in store.JobReschedule) error {
	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `
		UPDATE jobs SET status='pending', scheduled_at=$2, last_error=NULL, updated_at=$3
		WHERE id=$1
	`, in.ID, in.ScheduledAt, in.Now); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `
		UPDATE recipients SET status='pending', updated_at=$2
		WHERE job_id=$1
	`, in.ID, in.Now); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
