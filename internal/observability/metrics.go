package observability

import "github.com/prometheus/client_golang/prometheus"

var (
	DispatchRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "wadispatch_runs_total", Help: "Dispatch invocations"},
		[]string{"result"},
	)
	JobsClaimed = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "wadispatch_jobs_claimed_total", Help: "Jobs claimed for processing"},
	)
	JobOutcomes = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "wadispatch_job_outcomes_total", Help: "Job status after a pass"},
		[]string{"status"},
	)
	ProviderSend = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "wadispatch_provider_send_total", Help: "Per-recipient send outcomes"},
		[]string{"provider", "result"},
	)
	ProviderSendLatency = prometheus.NewHistogram(
		prometheus.HistogramOpts{Name: "wadispatch_provider_send_latency_seconds", Help: "Provider send latency"},
	)
	TriggerRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "wadispatch_trigger_requests_total", Help: "Trigger endpoint requests"},
		[]string{"status"},
	)
)

func Register(reg prometheus.Registerer) {
	reg.MustRegister(DispatchRuns, JobsClaimed, JobOutcomes, ProviderSend, ProviderSendLatency, TriggerRequests)
}
