package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	Registry = prometheus.NewRegistry()

	httpRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "inflection",
		Name:      "http_requests_total",
		Help:      "HTTP requests served, by method, route and status.",
	}, []string{"method", "route", "status"})

	httpDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "inflection",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route"})

	rewardsIssued = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "inflection",
		Name:      "rewards_issued_total",
		Help:      "Reward-issuance records committed, by reward type.",
	}, []string{"reward_type"})

	submissionsRejected = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "inflection",
		Name:      "submissions_rejected_total",
		Help:      "Interaction submissions that did not issue a reward, by reason.",
	}, []string{"reason"})

	jwksFetches = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "inflection",
		Name:      "jwks_fetches_total",
		Help:      "Remote key set fetches, by result.",
	}, []string{"result"})
)

func init() {
	Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		httpRequests,
		httpDuration,
		rewardsIssued,
		submissionsRejected,
		jwksFetches,
	)
}

func ObserveHTTP(method, route string, status int, elapsed time.Duration) {
	httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	httpDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

func RewardIssued(rewardType string) {
	rewardsIssued.WithLabelValues(rewardType).Inc()
}

func SubmissionRejected(reason string) {
	submissionsRejected.WithLabelValues(reason).Inc()
}

func JWKSFetch(result string) {
	jwksFetches.WithLabelValues(result).Inc()
}

// Handler serves the private registry in the text exposition format.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}
