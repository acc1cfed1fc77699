package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"wadispatch/internal/domain"
)

type fakeRunner struct {
	summary domain.RunSummary
	err     error
	calls   int
}

func (f *fakeRunner) Run(context.Context) (domain.RunSummary, error) {
	f.calls++
	return f.summary, f.err
}

func newTestServer(runner *fakeRunner) http.Handler {
	s := New()
	api := &API{Runner: runner, Token: "s3cret"}
	api.Register(s.Mux)
	return s.Mux
}

func TestTriggerAuth(t *testing.T) {
	cases := []struct {
		name       string
		authHeader string
		wantCode   int
		wantRuns   int
	}{
		{"missing token", "", http.StatusUnauthorized, 0},
		{"malformed header", "s3cret", http.StatusUnauthorized, 0},
		{"wrong token", "Bearer nope", http.StatusForbidden, 0},
		{"valid token", "Bearer s3cret", http.StatusOK, 1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			runner := &fakeRunner{}
			srv := newTestServer(runner)

			req := httptest.NewRequest(http.MethodPost, "/v1/dispatch/run", nil)
			if tc.authHeader != "" {
				req.Header.Set("Authorization", tc.authHeader)
			}
			rr := httptest.NewRecorder()
			srv.ServeHTTP(rr, req)

			if rr.Code != tc.wantCode {
				t.Fatalf("status = %d, want %d", rr.Code, tc.wantCode)
			}
			if runner.calls != tc.wantRuns {
				t.Fatalf("runner ran %d times, want %d", runner.calls, tc.wantRuns)
			}
		})
	}
}

func TestTriggerRejectsGet(t *testing.T) {
	srv := newTestServer(&fakeRunner{})

	req := httptest.NewRequest(http.MethodGet, "/v1/dispatch/run", nil)
	req.Header.Set("Authorization", "Bearer s3cret")
	rr := httptest.NewRecorder()
	srv.ServeHTTP(rr, req)

	if rr.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d", rr.Code)
	}
}

func TestTriggerReturnsSummary(t *testing.T) {
	runner := &fakeRunner{summary: domain.RunSummary{
		ClaimedCount: 2,
		SentCount:    1,
		DurationMS:   12,
		Results: []domain.JobResult{
			{ID: "A", Status: "sent"},
			{ID: "B", Status: "processing", Error: "1 recipients failed"},
		},
	}}
	srv := newTestServer(runner)

	req := httptest.NewRequest(http.MethodPost, "/v1/dispatch/run", nil)
	req.Header.Set("Authorization", "Bearer s3cret")
	rr := httptest.NewRecorder()
	srv.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", rr.Code, rr.Body.String())
	}
	var got domain.RunSummary
	if err := json.Unmarshal(rr.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.ClaimedCount != 2 || got.SentCount != 1 || len(got.Results) != 2 {
		t.Fatalf("summary = %+v", got)
	}
	if got.Results[1].Error != "1 recipients failed" {
		t.Fatalf("result B = %+v", got.Results[1])
	}
}

func TestTriggerClaimFailureIs500(t *testing.T) {
	runner := &fakeRunner{err: errors.New("claim due jobs: connection reset")}
	srv := newTestServer(runner)

	req := httptest.NewRequest(http.MethodPost, "/v1/dispatch/run", nil)
	req.Header.Set("Authorization", "Bearer s3cret")
	rr := httptest.NewRecorder()
	srv.ServeHTTP(rr, req)

	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", rr.Code)
	}
}
