package monitoring

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/meridianchain/mrdn/logx"
)

var (
	txAdmitted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "mrdn_tx_admitted_total",
		Help: "Transactions admitted into the unconfirmed pool",
	})
	txRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mrdn_tx_rejected_total",
		Help: "Transactions rejected by the verification pipeline, by error code",
	}, []string{"code"})
	txApplied = promauto.NewCounter(prometheus.CounterOpts{
		Name: "mrdn_tx_applied_total",
		Help: "Transactions applied to confirmed state",
	})
	txReverted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "mrdn_tx_reverted_total",
		Help: "Transactions undone during block rollback",
	})
	panicCount = promauto.NewCounter(prometheus.CounterOpts{
		Name: "mrdn_panic_total",
		Help: "Recovered panics",
	})
)

func IncreaseTxAdmitted() {
	txAdmitted.Inc()
}

func IncreaseTxRejected(code string) {
	txRejected.WithLabelValues(code).Inc()
}

func IncreaseTxApplied() {
	txApplied.Inc()
}

func IncreaseTxReverted() {
	txReverted.Inc()
}

func IncreasePanicCount() {
	panicCount.Inc()
}

// Serve exposes /metrics on addr. Blocks; run it under exception.SafeGo.
func Serve(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	logx.Info("MONITORING", "serving metrics on ", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		logx.Error("MONITORING", "metrics server stopped: ", err.Error())
	}
}
