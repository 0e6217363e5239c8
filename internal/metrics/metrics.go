// Package metrics holds the Prometheus collectors of the ingestion pipeline.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Batch outcomes.
const (
	OutcomeCommitted  = "committed"
	OutcomeRejected   = "rejected"
	OutcomeRolledBack = "rolled_back"
)

// Ingestion records pipeline activity. A nil *Ingestion records nothing.
type Ingestion struct {
	batches       *prometheus.CounterVec
	images        *prometheus.CounterVec
	verdicts      *prometheus.CounterVec
	batchDuration *prometheus.HistogramVec
}

// NewIngestion creates and registers the collectors on reg.
func NewIngestion(reg prometheus.Registerer) (*Ingestion, error) {
	m := &Ingestion{
		batches: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ingest_batches_total",
				Help: "Ingestion batches by target kind and outcome.",
			},
			[]string{"kind", "outcome"},
		),
		images: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ingest_images_stored_total",
				Help: "Images committed, by document kind.",
			},
			[]string{"kind"},
		),
		verdicts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ingest_classifications_total",
				Help: "Classifier verdicts by observed kind and whether it was a fallback.",
			},
			[]string{"kind", "fallback"},
		),
		batchDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "ingest_batch_duration_seconds",
				Help:    "Wall time of an ingestion batch.",
				Buckets: []float64{0.5, 1, 2.5, 5, 10, 20, 40, 80},
			},
			[]string{"kind", "outcome"},
		),
	}
	for _, c := range []prometheus.Collector{m.batches, m.images, m.verdicts, m.batchDuration} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Batch records one finished batch.
func (m *Ingestion) Batch(kind, outcome string, took time.Duration) {
	if m == nil {
		return
	}
	m.batches.WithLabelValues(kind, outcome).Inc()
	m.batchDuration.WithLabelValues(kind, outcome).Observe(took.Seconds())
}

// ImagesStored records n committed images.
func (m *Ingestion) ImagesStored(kind string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.images.WithLabelValues(kind).Add(float64(n))
}

// Verdict records one classification.
func (m *Ingestion) Verdict(kind string, fallback bool) {
	if m == nil {
		return
	}
	fb := "false"
	if fallback {
		fb = "true"
	}
	m.verdicts.WithLabelValues(kind, fb).Inc()
}
