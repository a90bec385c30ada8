// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsCollector はメトリクス収集のインターフェース。
// サービス層とミドルウェアから利用する。
type MetricsCollector interface {
	RecordCommentPosted()
	RecordModeration(action string, affected int64)
	RecordLogin(result string)
	RecordHTTPStatus(statusCode int)
	RecordRequestLatency(duration time.Duration)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	commentsPosted    prometheus.Counter
	moderationActions *prometheus.CounterVec
	moderatedComments *prometheus.CounterVec
	logins            *prometheus.CounterVec
	httpStatus        *prometheus.CounterVec
	requestLatency    prometheus.Histogram
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		commentsPosted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "newsdesk_comments_posted_total",
			Help: "投稿されたコメントの合計数",
		}),
		moderationActions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "newsdesk_moderation_actions_total",
			Help: "操作種別ごとのモデレーション実行回数",
		}, []string{"action"}),
		moderatedComments: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "newsdesk_moderated_comments_total",
			Help: "操作種別ごとのモデレーション対象コメント数",
		}, []string{"action"}),
		logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "newsdesk_logins_total",
			Help: "結果別のログイン数",
		}, []string{"result"}),
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "newsdesk_http_status_total",
			Help: "HTTPステータスコード別のレスポンス数",
		}, []string{"status_code"}),
		requestLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "newsdesk_http_request_duration_seconds",
			Help:    "HTTPリクエストの処理時間（秒）",
			Buckets: prometheus.DefBuckets,
		}),
	}

	reg.MustRegister(
		c.commentsPosted,
		c.moderationActions,
		c.moderatedComments,
		c.logins,
		c.httpStatus,
		c.requestLatency,
	)

	return c
}

// RecordCommentPosted はコメント投稿を記録する。
func (c *Collector) RecordCommentPosted() {
	c.commentsPosted.Inc()
}

// RecordModeration はモデレーション操作と対象件数を記録する。
func (c *Collector) RecordModeration(action string, affected int64) {
	c.moderationActions.WithLabelValues(action).Inc()
	if affected > 0 {
		c.moderatedComments.WithLabelValues(action).Add(float64(affected))
	}
}

// RecordLogin はログイン結果を記録する。
func (c *Collector) RecordLogin(result string) {
	c.logins.WithLabelValues(result).Inc()
}

// RecordHTTPStatus はHTTPステータスコードを記録する。
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// RecordRequestLatency はリクエスト処理時間を記録する。
func (c *Collector) RecordRequestLatency(duration time.Duration) {
	c.requestLatency.Observe(duration.Seconds())
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// compile-time interface check
var _ MetricsCollector = (*Collector)(nil)
