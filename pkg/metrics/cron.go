package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// CronJobMetrics records run outcomes for scheduled jobs plus the
// payout-specific volume counters the transfer job reports.
type CronJobMetrics struct {
	duration     *prometheus.HistogramVec
	success      *prometheus.CounterVec
	failure      *prometheus.CounterVec
	paidOrders   *prometheus.CounterVec
	paidCents    *prometheus.CounterVec
	payoutErrors *prometheus.CounterVec
}

// NewCronJobMetrics registers the job metrics on the provided registerer.
func NewCronJobMetrics(reg prometheus.Registerer) *CronJobMetrics {
	if reg == nil {
		return &CronJobMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "job_duration_seconds",
		Help:    "Duration of cron jobs in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"job"})
	success := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "job_success",
		Help: "Successful cron job executions.",
	}, []string{"job"})
	failure := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "job_failure",
		Help: "Failed cron job executions.",
	}, []string{"job"})
	paidOrders := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "payout_suborders_paid_total",
		Help: "Sub-orders successfully paid out to sellers.",
	}, []string{"job"})
	paidCents := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "payout_amount_cents_total",
		Help: "Total amount transferred to sellers, in cents.",
	}, []string{"job"})
	payoutErrors := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "payout_suborder_failures_total",
		Help: "Sub-orders skipped or failed during payout runs.",
	}, []string{"job"})
	reg.MustRegister(duration, success, failure, paidOrders, paidCents, payoutErrors)
	return &CronJobMetrics{
		duration:     duration,
		success:      success,
		failure:      failure,
		paidOrders:   paidOrders,
		paidCents:    paidCents,
		payoutErrors: payoutErrors,
	}
}

// ObserveDuration records the duration for the named job.
func (c *CronJobMetrics) ObserveDuration(job string, duration time.Duration) {
	if c == nil || c.duration == nil {
		return
	}
	c.duration.WithLabelValues(normalizeLabel(job)).Observe(duration.Seconds())
}

// IncSuccess increments the success counter for the named job.
func (c *CronJobMetrics) IncSuccess(job string) {
	if c == nil || c.success == nil {
		return
	}
	c.success.WithLabelValues(normalizeLabel(job)).Inc()
}

// IncFailure increments the failure counter for the named job.
func (c *CronJobMetrics) IncFailure(job string) {
	if c == nil || c.failure == nil {
		return
	}
	c.failure.WithLabelValues(normalizeLabel(job)).Inc()
}

// AddPayout records one paid sub-order and the cents transferred.
func (c *CronJobMetrics) AddPayout(job string, amountCents int64) {
	if c == nil || c.paidOrders == nil {
		return
	}
	label := normalizeLabel(job)
	c.paidOrders.WithLabelValues(label).Inc()
	c.paidCents.WithLabelValues(label).Add(float64(amountCents))
}

// IncPayoutFailure records a sub-order that could not be paid out.
func (c *CronJobMetrics) IncPayoutFailure(job string) {
	if c == nil || c.payoutErrors == nil {
		return
	}
	c.payoutErrors.WithLabelValues(normalizeLabel(job)).Inc()
}

func normalizeLabel(job string) string {
	if job == "" {
		return "unknown"
	}
	return job
}
