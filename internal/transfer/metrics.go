package transfer

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var transfersTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "mova_transfers_total",
	Help: "Wallet to wallet transfers by outcome",
}, []string{"outcome"})

const (
	transferOutcomeSuccess           = "success"
	transferOutcomeReplayed          = "replayed"
	transferOutcomeInvalid           = "invalid"
	transferOutcomeInsufficientFunds = "insufficient_funds"
	transferOutcomeFailed            = "failed"
)
