package vas

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	purchasesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mova_vas_purchases_total",
		Help: "VAS purchase attempts by category and outcome",
	}, []string{"category", "outcome"})

	replaysTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "mova_vas_idempotent_replays_total",
		Help: "Purchases answered from the idempotency cache without contacting the provider",
	})

	alertsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mova_reconciliation_alerts_total",
		Help: "Reconciliation alerts raised, by reason",
	}, []string{"reason"})

	requeriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mova_vas_requeries_total",
		Help: "Delivery state requeries by result",
	}, []string{"result"})
)

const (
	outcomeSuccess           = "success"
	outcomeInvalid           = "invalid"
	outcomeInsufficientFunds = "insufficient_funds"
	outcomeRejected          = "rejected"
	outcomeAmbiguous         = "ambiguous"
	outcomeCommitFailure     = "commit_failure"
)
