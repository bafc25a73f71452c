package fetcher

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	resolveTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "podfeed_feed_resolve_total",
		Help: "Feed resolutions by outcome",
	}, []string{"result"})

	resolveDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "podfeed_feed_resolve_duration_seconds",
		Help:    "Time spent fetching, decoding and normalizing a feed",
		Buckets: prometheus.ExponentialBuckets(0.05, 2, 10), // 50ms .. ~25s
	})
)

const (
	resultOK          = "ok"
	resultFetchError  = "fetch_error"
	resultDecodeError = "decode_error"
	resultUnsupported = "unsupported"
)
