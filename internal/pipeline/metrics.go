package pipeline

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics are the build counters exposed at /metrics.
type Metrics struct {
	DocumentsParsed   prometheus.Counter
	DocumentsReused   prometheus.Counter
	DocumentsRendered *prometheus.CounterVec
	StructuralErrors  prometheus.Counter
	InvalidReferences prometheus.Counter
	Builds            *prometheus.CounterVec
	BuildDuration     prometheus.Histogram
}

// NewMetrics creates the build metrics and registers them with reg. A nil
// reg leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		DocumentsParsed: f.NewCounter(prometheus.CounterOpts{
			Name: "guides_documents_parsed_total",
			Help: "Total number of source documents parsed",
		}),
		DocumentsReused: f.NewCounter(prometheus.CounterOpts{
			Name: "guides_documents_reused_total",
			Help: "Total number of documents kept from the metas cache",
		}),
		DocumentsRendered: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "guides_documents_rendered_total",
				Help: "Total number of document outputs written",
			},
			[]string{"format"},
		),
		StructuralErrors: f.NewCounter(prometheus.CounterOpts{
			Name: "guides_structural_errors_total",
			Help: "Total number of documents rejected for invalid structure",
		}),
		InvalidReferences: f.NewCounter(prometheus.CounterOpts{
			Name: "guides_invalid_references_total",
			Help: "Total number of references rendered as plain text",
		}),
		Builds: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "guides_builds_total",
				Help: "Total number of builds by outcome",
			},
			[]string{"status"},
		),
		BuildDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name: "guides_build_duration_seconds",
			Help: "Build duration in seconds",
		}),
	}
}
