package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/xiebiao/ticketflow/pkg/logger"
	"github.com/xiebiao/ticketflow/pkg/metrics"
	"github.com/xiebiao/ticketflow/pkg/tracing"
)

// Metrics HTTP请求指标中间件
// 按method/path/status维度统计请求数,按method/path统计耗时分布
// path使用路由模板(c.FullPath)而不是原始URL,避免标签基数爆炸
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched" // 404等未命中路由的请求归为一类
		}

		if metrics.HTTPRequestsTotal != nil {
			metrics.IncCounterVec(metrics.HTTPRequestsTotal, map[string]string{
				"method": c.Request.Method,
				"path":   path,
				"status": strconv.Itoa(c.Writer.Status()),
			})
			metrics.ObserveHistogramVec(metrics.HTTPRequestDuration, map[string]string{
				"method": c.Request.Method,
				"path":   path,
			}, time.Since(start).Seconds())
		}
	}
}

// AccessLog 访问日志中间件
// 结构化输出请求概要,带上trace_id方便和链路数据关联
func AccessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
		}
		if traceID := tracing.ExtractTraceID(c.Request.Context()); traceID != "" {
			fields = append(fields, zap.String("trace_id", traceID))
		}

		logger.L().Info("http请求", fields...)
	}
}

// Trace 链路追踪中间件
// 为每个请求开启一个Span,Handler内的下游调用通过Request.Context串联
func Trace(serviceName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}

		ctx, span := tracing.StartSpan(c.Request.Context(), serviceName, c.Request.Method+" "+path)
		defer span.End()

		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
