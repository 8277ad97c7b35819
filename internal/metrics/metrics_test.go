package metrics_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/tetrabit/cardcache/internal/metrics"
)

var _ = Describe("Metrics registration", func() {
	It("registers every collector against the default registry", func() {
		metricFamilies, err := prometheus.DefaultGatherer.Gather()
		Expect(err).ToNot(HaveOccurred())
		Expect(metricFamilies).ToNot(BeEmpty())
	})

	It("exposes a /metrics handler", func() {
		Expect(metrics.Handler()).ToNot(BeNil())
	})
})

var _ = Describe("RecordCacheResult", func() {
	It("increments the hit counter for a hit", func() {
		before := testutil.ToFloat64(metrics.CacheResultsTotal.WithLabelValues("redis", "hit"))
		metrics.RecordCacheResult("redis", true)
		after := testutil.ToFloat64(metrics.CacheResultsTotal.WithLabelValues("redis", "hit"))
		Expect(after).To(Equal(before + 1))
	})

	It("increments the miss counter for a miss", func() {
		before := testutil.ToFloat64(metrics.CacheResultsTotal.WithLabelValues("store", "miss"))
		metrics.RecordCacheResult("store", false)
		after := testutil.ToFloat64(metrics.CacheResultsTotal.WithLabelValues("store", "miss"))
		Expect(after).To(Equal(before + 1))
	})
})

var _ = Describe("Timer", func() {
	It("observes a duration against a histogram vec", func() {
		timer := metrics.NewTimer()
		timer.ObserveDurationVec(metrics.HTTPRequestDuration, "/cards/search", "GET")
	})
})
