package requery

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var pollerPurchasesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "mova_requery_poller_purchases_total",
	Help: "Purchases handled by the delivery reconciliation poller, by outcome",
}, []string{"outcome"})

const (
	pollerOutcomeResolved = "resolved"
	pollerOutcomePending  = "pending"
	pollerOutcomeError    = "error"
)
