package services

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	walletCreditsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "puja_wallet_credits_total",
		Help: "Commissions credited to agent wallets.",
	})

	withdrawalDecisionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "puja_withdrawal_decisions_total",
		Help: "Withdrawal requests by decision.",
	}, []string{"decision"})

	panchangamFetchesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "puja_panchangam_fetches_total",
		Help: "Astrology API fetches by fact type and outcome.",
	}, []string{"fact_type", "outcome"})
)
