package main

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics exports the counters of the latest pass.
type Metrics struct {
	Registry *prometheus.Registry

	added      *prometheus.GaugeVec
	duplicates *prometheus.GaugeVec
	tldBlocked *prometheus.GaugeVec
	allowed    *prometheus.GaugeVec
	invalid    *prometheus.GaugeVec
	lines      *prometheus.GaugeVec
	domains    prometheus.Gauge
	allowRecs  prometheus.Gauge
	collapsed  prometheus.Gauge
	passes     *prometheus.CounterVec
	duration   prometheus.Histogram
	lastPass   prometheus.Gauge
}

func sourceGauge(name, help string) *prometheus.GaugeVec {
	return prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "sieve",
		Subsystem: "source",
		Name:      name,
		Help:      help,
	}, []string{"source"})
}

func NewMetrics() *Metrics {
	m := &Metrics{
		Registry:   prometheus.NewRegistry(),
		added:      sourceGauge("domains_added", "Domains admitted from the source in the last pass."),
		duplicates: sourceGauge("domains_deduplicated", "Domains already covered by a blocked domain."),
		tldBlocked: sourceGauge("domains_tld_blocked", "Domains covered by a blocked TLD."),
		allowed:    sourceGauge("domains_allowed", "Domains skipped because the user allows them."),
		invalid:    sourceGauge("domains_invalid", "Extracted tokens which are not valid domains."),
		lines:      sourceGauge("lines", "Lines read from the source."),
		domains: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "sieve",
			Name:      "blocklist_domains",
			Help:      "Domains in the final blocklist.",
		}),
		allowRecs: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "sieve",
			Name:      "allowlist_domains",
			Help:      "Allow records emitted for domains under blocked TLDs.",
		}),
		collapsed: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "sieve",
			Name:      "collapsed_domains",
			Help:      "Redundant entries dropped by the final sort.",
		}),
		passes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sieve",
			Name:      "passes_total",
			Help:      "Ingestion passes by outcome.",
		}, []string{"outcome"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "sieve",
			Name:      "pass_duration_seconds",
			Help:      "Duration of ingestion passes.",
			Buckets:   prometheus.ExponentialBuckets(0.5, 2, 10),
		}),
		lastPass: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "sieve",
			Name:      "last_pass_timestamp_seconds",
			Help:      "Completion time of the last successful pass.",
		}),
	}

	m.Registry.MustRegister(
		m.added,
		m.duplicates,
		m.tldBlocked,
		m.allowed,
		m.invalid,
		m.lines,
		m.domains,
		m.allowRecs,
		m.collapsed,
		m.passes,
		m.duration,
		m.lastPass,
	)

	return m
}

// Observe records a successful pass.
func (m *Metrics) Observe(res Result, took time.Duration) {
	for _, vec := range []*prometheus.GaugeVec{
		m.added, m.duplicates, m.tldBlocked, m.allowed, m.invalid, m.lines,
	} {
		vec.Reset()
	}

	for _, s := range res.Sources {
		m.added.WithLabelValues(s.Source).Set(float64(s.Added))
		m.duplicates.WithLabelValues(s.Source).Set(float64(s.Duplicates))
		m.tldBlocked.WithLabelValues(s.Source).Set(float64(s.TLDBlocked))
		m.allowed.WithLabelValues(s.Source).Set(float64(s.Allowed))
		m.invalid.WithLabelValues(s.Source).Set(float64(s.Invalid))
		m.lines.WithLabelValues(s.Source).Set(float64(s.Lines))
	}

	m.domains.Set(float64(len(res.Entries)))
	m.allowRecs.Set(float64(len(res.Allow)))
	m.collapsed.Set(float64(res.Collapsed))
	m.passes.WithLabelValues("success").Inc()
	m.duration.Observe(took.Seconds())
	m.lastPass.SetToCurrentTime()
}

// Failed records a pass which did not complete.
func (m *Metrics) Failed() {
	m.passes.WithLabelValues("failure").Inc()
}

// MetricsSink writes the registry in the node exporter textfile format.
type MetricsSink struct {
	Path    string
	Metrics *Metrics
}

func (s MetricsSink) Write(_ context.Context, _ Result) error {
	return prometheus.WriteToTextfile(s.Path, s.Metrics.Registry)
}
