package httpserver

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"wadispatch/internal/domain"
	"wadispatch/internal/observability"
)

// Dispatcher runs one claim cycle and reports the invocation summary.
type Dispatcher interface {
	Run(ctx context.Context) (domain.RunSummary, error)
}

type API struct {
	Runner Dispatcher
	Token  string
}

func (a *API) Register(r *mux.Router) {
	h := BearerAuth(a.Token, a.handleRun)
	r.Handle("/v1/dispatch/run", Metrics(observability.TriggerRequests)(h)).Methods(http.MethodPost)
}

func (a *API) handleRun(w http.ResponseWriter, r *http.Request) {
	summary, err := a.Runner.Run(r.Context())
	if err != nil {
		slog.Error("dispatch run failed", "err", err)
		http.Error(w, ErrDispatch, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(summary)
}
