package fares

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	settlementsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mova_settlements_total",
		Help: "Trip settlements by lifecycle stage",
	}, []string{"stage"})

	approvalRejectionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mova_settlement_rejections_total",
		Help: "Settlement approvals rejected before any funds moved, by reason",
	}, []string{"reason"})
)

const (
	stageComputed = "computed"
	stageApproved = "approved"

	rejectRateLimited     = "rate_limited"
	rejectUnauthorized    = "unauthorized"
	rejectCapacity        = "capacity_not_reached"
	rejectAlreadyApproved = "already_approved"
)
