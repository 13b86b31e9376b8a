// Package metrics holds the prometheus collectors for the CRM engines.
// All methods are safe on a nil *Metrics so tests can omit them.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the CRM engines.
type Metrics struct {
	StageTransitions    *prometheus.CounterVec
	SchedulingConflicts prometheus.Counter
	CalendarSyncs       *prometheus.CounterVec
	ScoreWrites         *prometheus.CounterVec
	AuditFailures       *prometheus.CounterVec
	DirectoryLookups    *prometheus.CounterVec
	RepositoryLatency   *prometheus.HistogramVec
}

// New registers every collector on reg. Pass prometheus.DefaultRegisterer in
// production and prometheus.NewRegistry() in tests.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		StageTransitions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "crm_deal_stage_transitions_total",
			Help: "Deal stage transitions by source and target stage",
		}, []string{"from", "to"}),

		SchedulingConflicts: f.NewCounter(prometheus.CounterOpts{
			Name: "crm_scheduling_conflicts_total",
			Help: "Appointment bookings rejected because of an overlap",
		}),

		CalendarSyncs: f.NewCounterVec(prometheus.CounterOpts{
			Name: "crm_calendar_sync_attempts_total",
			Help: "External calendar sync attempts by outcome",
		}, []string{"outcome"}), // outcome: "synced", "failed"

		ScoreWrites: f.NewCounterVec(prometheus.CounterOpts{
			Name: "crm_lead_score_writes_total",
			Help: "Lead score writes by reason kind",
		}, []string{"kind"}), // kind: "manual", "adjust", "recalculate"

		AuditFailures: f.NewCounterVec(prometheus.CounterOpts{
			Name: "crm_audit_failures_total",
			Help: "Best-effort audit or event writes that failed",
		}, []string{"entity_type"}),

		DirectoryLookups: f.NewCounterVec(prometheus.CounterOpts{
			Name: "crm_directory_lookups_total",
			Help: "Tenant member directory lookups by cache result",
		}, []string{"result"}), // result: "hit", "miss"

		RepositoryLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "crm_repository_duration_seconds",
			Help:    "Duration of scoped repository operations",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}, []string{"entity_type", "op"}),
	}
}

// IncStageTransition records a deal moving between stages.
func (m *Metrics) IncStageTransition(from, to string) {
	if m != nil {
		m.StageTransitions.WithLabelValues(from, to).Inc()
	}
}

// IncSchedulingConflict records a rejected booking.
func (m *Metrics) IncSchedulingConflict() {
	if m != nil {
		m.SchedulingConflicts.Inc()
	}
}

// IncCalendarSync records a sync attempt outcome.
func (m *Metrics) IncCalendarSync(outcome string) {
	if m != nil {
		m.CalendarSyncs.WithLabelValues(outcome).Inc()
	}
}

// IncScoreWrite records a lead score write.
func (m *Metrics) IncScoreWrite(kind string) {
	if m != nil {
		m.ScoreWrites.WithLabelValues(kind).Inc()
	}
}

// IncAuditFailure records a failed best-effort audit or event write.
func (m *Metrics) IncAuditFailure(entityType string) {
	if m != nil {
		m.AuditFailures.WithLabelValues(entityType).Inc()
	}
}

// IncDirectoryLookup records a directory cache hit or miss.
func (m *Metrics) IncDirectoryLookup(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.DirectoryLookups.WithLabelValues(result).Inc()
}

// ObserveRepository records the duration of a repository operation.
func (m *Metrics) ObserveRepository(entityType, op string, d time.Duration) {
	if m != nil {
		m.RepositoryLatency.WithLabelValues(entityType, op).Observe(d.Seconds())
	}
}
