package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce            sync.Once
	apiRequestsTotal        *prometheus.CounterVec
	apiLatencySeconds       *prometheus.HistogramVec
	attendanceUpsertsTotal  *prometheus.CounterVec
	feeAccrualsTotal        *prometheus.CounterVec
	notificationsTotal      *prometheus.CounterVec
	emailsSentTotal         *prometheus.CounterVec
	reportSweepRunsTotal    *prometheus.CounterVec
	scheduledJobRunsTotal   *prometheus.CounterVec
	notificationsPurged     prometheus.Counter
)

// RegisterMetrics initialises the Prometheus collectors.
func RegisterMetrics() {
	registerOnce.Do(func() {
		apiRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests served.",
		}, []string{"method", "route", "status"})

		apiLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "api_latency_seconds",
			Help:    "Latency distribution for API requests.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0},
		}, []string{"method", "route"})

		attendanceUpsertsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "attendance_upserts_total",
			Help: "Attendance rows written, labelled created or updated.",
		}, []string{"outcome"})

		feeAccrualsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "fee_accruals_total",
			Help: "Fee events processed, labelled created or merged.",
		}, []string{"outcome"})

		notificationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "notifications_created_total",
			Help: "Notification rows created, labelled by type and scope.",
		}, []string{"type", "scope"})

		emailsSentTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "emails_sent_total",
			Help: "Email delivery attempts, labelled by result.",
		}, []string{"result"})

		reportSweepRunsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "report_sweep_dispatches_total",
			Help: "Scheduled report dispatch attempts, labelled by result.",
		}, []string{"result"})

		scheduledJobRunsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "scheduled_job_runs_total",
			Help: "Background job executions, labelled by job and result.",
		}, []string{"job", "result"})

		notificationsPurged = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "notifications_purged_total",
			Help: "Notification rows removed by the age-based cleanup job.",
		})

		prometheus.MustRegister(
			apiRequestsTotal,
			apiLatencySeconds,
			attendanceUpsertsTotal,
			feeAccrualsTotal,
			notificationsTotal,
			emailsSentTotal,
			reportSweepRunsTotal,
			scheduledJobRunsTotal,
			notificationsPurged,
		)
	})
}

// APIRequests exposes the counter for API requests.
func APIRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return apiRequestsTotal
}

// APILatency exposes the latency histogram for API requests.
func APILatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return apiLatencySeconds
}

// AttendanceUpserts exposes the attendance write counter.
func AttendanceUpserts() *prometheus.CounterVec {
	RegisterMetrics()
	return attendanceUpsertsTotal
}

// FeeAccruals exposes the fee event counter.
func FeeAccruals() *prometheus.CounterVec {
	RegisterMetrics()
	return feeAccrualsTotal
}

// NotificationsCreated exposes the notification counter.
func NotificationsCreated() *prometheus.CounterVec {
	RegisterMetrics()
	return notificationsTotal
}

// EmailsSent exposes the email attempt counter.
func EmailsSent() *prometheus.CounterVec {
	RegisterMetrics()
	return emailsSentTotal
}

// ReportSweepDispatches exposes the report dispatch counter.
func ReportSweepDispatches() *prometheus.CounterVec {
	RegisterMetrics()
	return reportSweepRunsTotal
}

// ScheduledJobRuns exposes the background job counter.
func ScheduledJobRuns() *prometheus.CounterVec {
	RegisterMetrics()
	return scheduledJobRunsTotal
}

// NotificationsPurged exposes the cleanup counter.
func NotificationsPurged() prometheus.Counter {
	RegisterMetrics()
	return notificationsPurged
}
