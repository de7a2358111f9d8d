// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder はメトリクス収集のインターフェース。
// ライフサイクルコントローラとリマインダースケジューラから利用する。
type Recorder interface {
	RecordDutyStarted()
	RecordDutyEnded(reason string)
	RecordReminderSent()
	RecordReminderTimeout()
	RecordPointsAwarded(points int)
	RecordNotifyFailure(kind string)
	IncActiveSessions()
	DecActiveSessions()
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	dutyStarted     prometheus.Counter
	dutyEnded       *prometheus.CounterVec
	remindersSent   prometheus.Counter
	reminderTimeout prometheus.Counter
	pointsAwarded   prometheus.Counter
	notifyFail      *prometheus.CounterVec
	activeSessions  prometheus.Gauge
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		dutyStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "dutyman_duty_started_total",
			Help: "勤務開始の合計数",
		}),
		dutyEnded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dutyman_duty_ended_total",
			Help: "終了理由別の勤務終了数",
		}, []string{"reason"}),
		remindersSent: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "dutyman_reminders_sent_total",
			Help: "送信したリマインダーの合計数",
		}),
		reminderTimeout: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "dutyman_reminder_timeout_total",
			Help: "応答タイムアウトしたリマインダーの合計数",
		}),
		pointsAwarded: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "dutyman_points_awarded_total",
			Help: "勤務終了時に付与したポイントの合計数",
		}),
		notifyFail: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dutyman_notify_fail_total",
			Help: "通知種別ごとの配信失敗数",
		}, []string{"kind"}),
		activeSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "dutyman_active_sessions",
			Help: "現在アクティブな勤務セッション数",
		}),
	}

	reg.MustRegister(
		c.dutyStarted,
		c.dutyEnded,
		c.remindersSent,
		c.reminderTimeout,
		c.pointsAwarded,
		c.notifyFail,
		c.activeSessions,
	)

	return c
}

// RecordDutyStarted は勤務開始を記録する。
func (c *Collector) RecordDutyStarted() {
	c.dutyStarted.Inc()
}

// RecordDutyEnded は終了理由付きで勤務終了を記録する。
func (c *Collector) RecordDutyEnded(reason string) {
	c.dutyEnded.WithLabelValues(reason).Inc()
}

// RecordReminderSent はリマインダー送信を記録する。
func (c *Collector) RecordReminderSent() {
	c.remindersSent.Inc()
}

// RecordReminderTimeout はリマインダーの応答タイムアウトを記録する。
func (c *Collector) RecordReminderTimeout() {
	c.reminderTimeout.Inc()
}

// RecordPointsAwarded は付与ポイントを記録する。
func (c *Collector) RecordPointsAwarded(points int) {
	c.pointsAwarded.Add(float64(points))
}

// RecordNotifyFailure は通知配信の失敗を記録する。
func (c *Collector) RecordNotifyFailure(kind string) {
	c.notifyFail.WithLabelValues(kind).Inc()
}

// IncActiveSessions はアクティブセッション数をインクリメントする。
func (c *Collector) IncActiveSessions() {
	c.activeSessions.Inc()
}

// DecActiveSessions はアクティブセッション数をデクリメントする。
func (c *Collector) DecActiveSessions() {
	c.activeSessions.Dec()
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
