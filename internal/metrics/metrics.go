package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	ReservationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "railbooking_reservations_total",
		Help: "Reserve operations by outcome.",
	}, []string{"outcome"})

	ConfirmationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "railbooking_confirmations_total",
		Help: "Confirm operations by outcome.",
	}, []string{"outcome"})

	CancellationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "railbooking_cancellations_total",
		Help: "Cancel operations by outcome.",
	}, []string{"outcome"})
)

const (
	OutcomeOK       = "ok"
	OutcomeRejected = "rejected"
	OutcomeError    = "error"
)

func Handler() http.Handler {
	return promhttp.Handler()
}
