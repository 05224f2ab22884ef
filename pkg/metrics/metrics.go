package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP 请求延迟（秒）
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "fct",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms ~ 4s
		},
		[]string{"method", "path", "status"},
	)

	// 预项目状态流转计数
	AnteprojectTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fct",
			Name:      "anteproject_transitions_total",
			Help:      "Anteproject workflow transitions by action and outcome",
		},
		[]string{"action", "outcome"}, // outcome: ok, forbidden, conflict, error
	)

	// 看板移动计数
	KanbanMoves = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fct",
			Name:      "kanban_moves_total",
			Help:      "Task board moves by kind",
		},
		[]string{"kind"}, // kind: noop, reorder, cross_column, failed
	)

	// 事件发布计数
	EventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fct",
			Name:      "events_published_total",
			Help:      "Domain events published to the message broker",
		},
		[]string{"routing_key", "status"}, // status: success, failed
	)
)

// RecordHTTPRequestDuration 记录 HTTP 请求延迟
func RecordHTTPRequestDuration(method, path, status string, duration time.Duration) {
	HTTPRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}

// IncrementTransition 记录一次预项目状态流转尝试
func IncrementTransition(action, outcome string) {
	AnteprojectTransitions.WithLabelValues(action, outcome).Inc()
}

// IncrementKanbanMove 记录一次看板移动
func IncrementKanbanMove(kind string) {
	KanbanMoves.WithLabelValues(kind).Inc()
}

// IncrementEventPublished 记录事件发布结果
func IncrementEventPublished(routingKey, status string) {
	EventsPublished.WithLabelValues(routingKey, status).Inc()
}
