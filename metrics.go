package markupmsg

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Resolution outcomes recorded by Metrics.
const (
	OutcomeTranslated = "translated"
	OutcomeFallback   = "fallback"
	OutcomeDeclined   = "declined"
	OutcomeMalformed  = "malformed"
)

// Metrics holds the Prometheus collectors for resolution and rendering. A nil
// *Metrics records nothing.
type Metrics struct {
	Resolutions    *prometheus.CounterVec
	UnknownTags    *prometheus.CounterVec
	Renders        prometheus.Counter
	RenderDuration prometheus.Histogram
}

// NewMetrics creates the collectors and registers them with reg. A nil reg
// leaves them unregistered, which is what tests want.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Resolutions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "markupmsg",
			Name:      "resolutions_total",
			Help:      "Message tags offered to the message resolver, by outcome.",
		}, []string{"outcome"}),
		UnknownTags: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "markupmsg",
			Name:      "unknown_tags_total",
			Help:      "Framework tags no resolver accepted, by policy applied.",
		}, []string{"policy"}),
		Renders: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "markupmsg",
			Name:      "renders_total",
			Help:      "Page render passes.",
		}),
		RenderDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "markupmsg",
			Name:      "render_duration_seconds",
			Help:      "Histogram of page render durations.",
			Buckets:   prometheus.DefBuckets,
		}),
	}
	if reg != nil {
		reg.MustRegister(m.Resolutions, m.UnknownTags, m.Renders, m.RenderDuration)
	}
	return m
}

func (m *Metrics) resolved(outcome string) {
	if m == nil {
		return
	}
	m.Resolutions.WithLabelValues(outcome).Inc()
}

func (m *Metrics) unknownTag(p UnknownTagPolicy) {
	if m == nil {
		return
	}
	m.UnknownTags.WithLabelValues(p.String()).Inc()
}

func (m *Metrics) rendered(start time.Time) {
	if m == nil {
		return
	}
	m.Renders.Inc()
	m.RenderDuration.Observe(time.Since(start).Seconds())
}
