// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// UpstreamRecorder は外部スキンAPI呼び出しのメトリクス収集インターフェース。
// APIクライアントから利用する。
type UpstreamRecorder interface {
	RecordUpstreamCall(resource string, outcome string)
	RecordUpstreamLatency(duration time.Duration)
}

// RequestRecorder はインバウンドHTTPリクエストのメトリクス収集インターフェース。
// ミドルウェアから利用する。
type RequestRecorder interface {
	RecordHTTPStatus(statusCode int)
	RecordRequestLatency(duration time.Duration)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	httpStatus      *prometheus.CounterVec
	requestLatency  prometheus.Histogram
	upstreamCalls   *prometheus.CounterVec
	upstreamLatency prometheus.Histogram
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "skinfront_http_status_total",
			Help: "HTTPステータスコード別のレスポンス数",
		}, []string{"status_code"}),
		requestLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "skinfront_request_latency_seconds",
			Help:    "リクエスト処理のレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}),
		upstreamCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "skinfront_upstream_calls_total",
			Help: "スキンAPI呼び出しのリソース・結果別の合計数",
		}, []string{"resource", "outcome"}),
		upstreamLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "skinfront_upstream_latency_seconds",
			Help:    "スキンAPI呼び出しのレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}),
	}

	reg.MustRegister(
		c.httpStatus,
		c.requestLatency,
		c.upstreamCalls,
		c.upstreamLatency,
	)

	return c
}

// RecordHTTPStatus はレスポンスのステータスコードを記録する。
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// RecordRequestLatency はリクエスト処理時間を記録する。
func (c *Collector) RecordRequestLatency(duration time.Duration) {
	c.requestLatency.Observe(duration.Seconds())
}

// RecordUpstreamCall はスキンAPI呼び出しの結果を記録する。
// outcomeは"success"、"error"、"unreachable"のいずれか。
func (c *Collector) RecordUpstreamCall(resource string, outcome string) {
	c.upstreamCalls.WithLabelValues(resource, outcome).Inc()
}

// RecordUpstreamLatency はスキンAPI呼び出しの所要時間を記録する。
func (c *Collector) RecordUpstreamLatency(duration time.Duration) {
	c.upstreamLatency.Observe(duration.Seconds())
}

// Handler は/metricsエンドポイント用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// compile-time interface checks
var (
	_ UpstreamRecorder = (*Collector)(nil)
	_ RequestRecorder  = (*Collector)(nil)
)
