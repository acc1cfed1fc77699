package engine

import (
	"context"

	"wadispatch/internal/domain"
)

// resolveRecipients expands a claimed job into its pending targets.
// Explicit recipient rows win; a job with no rows at all falls back to the
// legacy single-phone field carried on the job itself. The synthesized
// fallback recipient has no row id, which tells the dispatch pass to skip
// per-recipient persistence.
func resolveRecipients(ctx context.Context, st Store, job domain.Job) ([]domain.Recipient, error) {
	recips, err := st.ListPendingRecipients(ctx, job.ID)
	if err != nil {
		return nil, err
	}
	if len(recips) > 0 {
		return recips, nil
	}

	has, err := st.HasRecipients(ctx, job.ID)
	if err != nil {
		return nil, err
	}
	if has {
		// Rows exist but none are pending; nothing left to send this pass.
		return nil, nil
	}

	if job.Phone != "" {
		return []domain.Recipient{{JobID: job.ID, Phone: job.Phone, Status: domain.RecipientPending}}, nil
	}
	return nil, nil
}
