package pipeline

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/utkonos/lst2x64dbg/pkg/util"
)

const namespace = "lst2x64dbg"

type metrics struct {
	candidates *prometheus.CounterVec
	noise      *prometheus.CounterVec
	added      *prometheus.CounterVec
	conflicts  *prometheus.CounterVec
	labels     *prometheus.GaugeVec
}

func newMetrics(reg prometheus.Registerer) *metrics {
	return &metrics{
		candidates: util.RegisterOrGet(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "candidates_total",
			Help:      "Symbols extracted from input artifacts before filtering.",
		}, []string{"format"})),
		noise: util.RegisterOrGet(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "noise_dropped_total",
			Help:      "Symbols dropped as compiler-generated or placeholder names.",
		}, []string{"format"})),
		added: util.RegisterOrGet(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "labels_added_total",
			Help:      "Labels added to a database by a run.",
		}, []string{"format"})),
		conflicts: util.RegisterOrGet(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "label_conflicts_total",
			Help:      "Labels discarded because the database already names their address differently.",
		}, []string{"format"})),
		labels: util.RegisterOrGet(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "database_labels",
			Help:      "Number of labels in the written database.",
		}, []string{"database"})),
	}
}
