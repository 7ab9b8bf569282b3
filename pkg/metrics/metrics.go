// Package metrics 提供基于Prometheus的指标收集
//
// 指标类型选择：
// - Counter（只增不减）：支付发起/成功/失败总数、售罄拒绝数
// - Gauge（可增可减）：处理中的支付数
// - Histogram（分布）：支付链路耗时、网关调用耗时（自动计算P50/P90/P99）
//
// 命名规范：
// - Counter以_total结尾（payments_ready_total）
// - Histogram以单位结尾（payment_gateway_duration_seconds）
// - 避免高基数标签（不要用user_id/payment_id做标签）
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// initialized 标记是否已初始化（防止重复注册）
	initialized bool

	// HTTP请求相关指标

	// HTTPRequestsTotal HTTP请求总数（Counter）
	// 标签：method（GET/POST）、path（/api/payments/ready）、status（200/500）
	HTTPRequestsTotal *prometheus.CounterVec

	// HTTPRequestDuration HTTP请求耗时（Histogram）
	HTTPRequestDuration *prometheus.HistogramVec

	// 支付生命周期指标

	// PaymentsReadyTotal 发起支付总数（Counter）
	// 标签：result（success/failure）
	PaymentsReadyTotal *prometheus.CounterVec

	// PaymentsApprovedTotal 支付承认总数（Counter）
	PaymentsApprovedTotal prometheus.Counter

	// PaymentsCanceledTotal 支付取消总数（Counter）
	PaymentsCanceledTotal prometheus.Counter

	// PaymentsFailedTotal 网关上报失败的支付总数（Counter）
	PaymentsFailedTotal prometheus.Counter

	// PaymentsInProgress 处理中的支付请求数（Gauge）
	PaymentsInProgress prometheus.Gauge

	// PaymentDuration 支付发起链路耗时（Histogram，含网关往返）
	PaymentDuration prometheus.Histogram

	// 库存/折扣冲突指标

	// StockConflictsTotal 因售罄被拒绝的请求总数（Counter）
	// 标签：phase（precheck/commit）——commit表示两阶段校验间输掉了并发竞争
	StockConflictsTotal *prometheus.CounterVec

	// CouponRejectionsTotal 优惠券校验失败总数（Counter）
	// 标签：reason（invalid/used）
	CouponRejectionsTotal *prometheus.CounterVec

	// 支付网关指标

	// GatewayRequestsTotal 网关调用总数（Counter）
	// 标签：op（ready/approve/cancel）、result（success/failure/rejected）
	GatewayRequestsTotal *prometheus.CounterVec

	// GatewayDuration 网关调用耗时（Histogram）
	// 标签：op
	GatewayDuration *prometheus.HistogramVec

	// 熔断器指标

	// CircuitBreakerState 熔断器状态（Gauge）
	// 0=CLOSED, 1=OPEN, 2=HALF_OPEN
	CircuitBreakerState *prometheus.GaugeVec

	// 消息队列指标

	// MessagesPublishedTotal 消息发布总数（Counter）
	// 标签：routing_key、result（success/failure）
	MessagesPublishedTotal *prometheus.CounterVec
)

// InitMetrics 初始化所有Prometheus指标
// 必须在程序启动时调用一次，注册到默认Registry后由/metrics端点暴露
func InitMetrics() {
	// 防止重复初始化
	if initialized {
		return
	}
	initialized = true

	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "HTTP请求总数",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP请求耗时（秒）",
			Buckets: []float64{0.001, 0.01, 0.1, 0.5, 1, 5, 10},
		},
		[]string{"method", "path"},
	)

	PaymentsReadyTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payments_ready_total",
			Help: "发起支付总数",
		},
		[]string{"result"},
	)

	PaymentsApprovedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "payments_approved_total",
			Help: "支付承认总数",
		},
	)

	PaymentsCanceledTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "payments_canceled_total",
			Help: "支付取消总数",
		},
	)

	PaymentsFailedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "payments_failed_total",
			Help: "网关上报失败的支付总数",
		},
	)

	PaymentsInProgress = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "payments_in_progress",
			Help: "处理中的支付请求数",
		},
	)

	PaymentDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name: "payment_ready_duration_seconds",
			Help: "支付发起链路耗时（秒，含网关往返）",
			// 链路包含一次网关HTTP往返，桶的上限放宽到10s
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10},
		},
	)

	StockConflictsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stock_conflicts_total",
			Help: "因售罄被拒绝的请求总数",
		},
		[]string{"phase"},
	)

	CouponRejectionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "coupon_rejections_total",
			Help: "优惠券校验失败总数",
		},
		[]string{"reason"},
	)

	GatewayRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gateway_requests_total",
			Help: "支付网关调用总数",
		},
		[]string{"op", "result"},
	)

	GatewayDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "payment_gateway_duration_seconds",
			Help:    "支付网关调用耗时（秒）",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5},
		},
		[]string{"op"},
	)

	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "熔断器状态（0=CLOSED, 1=OPEN, 2=HALF_OPEN）",
		},
		[]string{"name"},
	)

	MessagesPublishedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "messages_published_total",
			Help: "消息发布总数",
		},
		[]string{"routing_key", "result"},
	)
}

// IncCounter 递增Counter（便捷函数）
func IncCounter(counter prometheus.Counter) {
	counter.Inc()
}

// IncCounterVec 递增CounterVec（带标签）
func IncCounterVec(counter *prometheus.CounterVec, labels map[string]string) {
	counter.With(labels).Inc()
}

// IncGauge 递增Gauge
func IncGauge(gauge prometheus.Gauge) {
	gauge.Inc()
}

// DecGauge 递减Gauge
func DecGauge(gauge prometheus.Gauge) {
	gauge.Dec()
}

// SetGaugeVec 设置GaugeVec值（带标签）
func SetGaugeVec(gauge *prometheus.GaugeVec, labels map[string]string, value float64) {
	gauge.With(labels).Set(value)
}

// ObserveHistogram 记录Histogram观测值
func ObserveHistogram(histogram prometheus.Histogram, value float64) {
	histogram.Observe(value)
}

// ObserveHistogramVec 记录HistogramVec观测值（带标签）
func ObserveHistogramVec(histogram *prometheus.HistogramVec, labels map[string]string, value float64) {
	histogram.With(labels).Observe(value)
}
