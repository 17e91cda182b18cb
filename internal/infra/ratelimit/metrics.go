package ratelimit

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// rejectionsTotal counts requests turned away by the limiter. Kept separate
// from error logging so operators can watch quota exhaustion on its own.
var rejectionsTotal = promauto.NewCounter(prometheus.CounterOpts{
	Name: "chartsrv_rate_limit_rejections_total",
	Help: "Total number of requests rejected by the rate limiter.",
})
