package engine

import (
	"context"
	"errors"
	"net/url"
	"path"
	"time"

	"github.com/sony/gobreaker"

	"wadispatch/internal/domain"
	"wadispatch/internal/observability"
	"wadispatch/internal/providers"
	"wadispatch/internal/util"
)

// sendRecipient delivers the job's message to one recipient: normalize the
// phone, render the body, send media or text through the limiter and
// breaker. The returned error is scoped to this recipient only.
func (r *Runner) sendRecipient(ctx context.Context, sender providers.Sender, job domain.Job, rec domain.Recipient, countryCode string) (string, error) {
	to := util.NormalizePhone(rec.Phone, countryCode)
	if to == "" {
		return "", errors.New("invalid phone number")
	}

	text := RenderBody(ctx, job.Body, rec.Phone, func(ctx context.Context) (string, error) {
		return sender.GetContactName(ctx, to)
	})

	if r.Limiter != nil {
		waitCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		err := r.Limiter.Wait(waitCtx)
		cancel()
		if err != nil {
			return "", errors.New("send pacing limit: " + err.Error())
		}
	}

	start := time.Now()
	id, err := r.executeWithBreaker(ctx, func(ctx context.Context) (string, error) {
		if job.MediaURL != "" {
			filename := job.MediaFilename
			if filename == "" {
				filename = filenameFromURL(job.MediaURL)
			}
			caption := text
			if caption == "" {
				caption = filename
			}
			return sender.SendMedia(ctx, to, job.MediaURL, filename, caption)
		}
		return sender.SendText(ctx, to, text)
	})
	observability.ProviderSendLatency.Observe(time.Since(start).Seconds())
	return id, err
}

func (r *Runner) executeWithBreaker(ctx context.Context, call func(ctx context.Context) (string, error)) (string, error) {
	if r.Breaker == nil {
		return call(ctx)
	}
	res, err := r.Breaker.Execute(func() (any, error) {
		return call(ctx)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return "", errors.New("provider temporarily unavailable")
		}
		return "", err
	}
	return res.(string), nil
}

func filenameFromURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Path == "" {
		return "file"
	}
	name := path.Base(u.Path)
	if name == "." || name == "/" {
		return "file"
	}
	return name
}
