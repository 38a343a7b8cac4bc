// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsCollector はメトリクス収集のインターフェース。
// レコメンドサービス層から利用する。
type MetricsCollector interface {
	RecordRecommendation(emotion string)
	RecordCacheHit()
	RecordCacheMiss()
	RecordUpstreamFailure(service string)
	RecordUpstreamLatency(service string, duration time.Duration)
	RecordBackfillFailure()
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	recommendations *prometheus.CounterVec
	cacheHit        prometheus.Counter
	cacheMiss       prometheus.Counter
	upstreamFail    *prometheus.CounterVec
	upstreamLatency *prometheus.HistogramVec
	backfillFail    prometheus.Counter
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		recommendations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "stampman_recommendations_total",
			Help: "検出感情別のレコメンド応答の合計数",
		}, []string{"emotion"}),
		cacheHit: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "stampman_cache_hit_total",
			Help: "ステッカーキャッシュヒットの合計数",
		}),
		cacheMiss: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "stampman_cache_miss_total",
			Help: "ステッカーキャッシュミスの合計数",
		}),
		upstreamFail: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "stampman_upstream_failure_total",
			Help: "外部サービス呼び出し失敗のサービス別合計数",
		}, []string{"service"}),
		upstreamLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "stampman_upstream_latency_seconds",
			Help:    "外部サービス呼び出しのレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}, []string{"service"}),
		backfillFail: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "stampman_cache_backfill_failure_total",
			Help: "キャッシュ書き戻し失敗（再試行後）の合計数",
		}),
	}

	reg.MustRegister(
		c.recommendations,
		c.cacheHit,
		c.cacheMiss,
		c.upstreamFail,
		c.upstreamLatency,
		c.backfillFail,
	)

	return c
}

// RecordRecommendation はレコメンド応答の成功を記録する。
func (c *Collector) RecordRecommendation(emotion string) {
	c.recommendations.WithLabelValues(emotion).Inc()
}

// RecordCacheHit はキャッシュヒットを記録する。
func (c *Collector) RecordCacheHit() {
	c.cacheHit.Inc()
}

// RecordCacheMiss はキャッシュミスを記録する。
func (c *Collector) RecordCacheMiss() {
	c.cacheMiss.Inc()
}

// RecordUpstreamFailure は外部サービス呼び出しの失敗を記録する。
func (c *Collector) RecordUpstreamFailure(service string) {
	c.upstreamFail.WithLabelValues(service).Inc()
}

// RecordUpstreamLatency は外部サービス呼び出しのレイテンシを記録する。
func (c *Collector) RecordUpstreamLatency(service string, duration time.Duration) {
	c.upstreamLatency.WithLabelValues(service).Observe(duration.Seconds())
}

// RecordBackfillFailure は再試行後も失敗したキャッシュ書き戻しを記録する。
func (c *Collector) RecordBackfillFailure() {
	c.backfillFail.Inc()
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
