// Package logger 提供基于zap的结构化日志
//
// 设计说明：
// 1. 统一使用结构化日志（字段而非拼接字符串），便于日志系统检索
// 2. 通过config控制日志级别和编码格式（开发环境console、生产环境json）
// 3. 全局Logger通过Init初始化一次，业务代码使用logger.L()获取
package logger

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// 全局Logger（Init前为Nop，保证测试中可直接使用）
var global = zap.NewNop()

// Options 日志配置
type Options struct {
	Level        string // debug | info | warn | error
	Format       string // console | json
	EnableCaller bool   // 是否记录调用位置
}

// Init 初始化全局Logger
// 必须在程序启动时调用一次；返回flush函数，程序退出前调用
func Init(opts Options) (func(), error) {
	level, err := zapcore.ParseLevel(opts.Level)
	if err != nil {
		return nil, fmt.Errorf("解析日志级别失败: %w", err)
	}

	var cfg zap.Config
	if opts.Format == "console" {
		cfg = zap.NewDevelopmentConfig()
	} else {
		cfg = zap.NewProductionConfig()
		cfg.EncoderConfig.TimeKey = "ts"
		cfg.EncoderConfig.EncodeTime = zapcore.RFC3339NanoTimeEncoder
	}
	cfg.Level = zap.NewAtomicLevelAt(level)
	cfg.OutputPaths = []string{"stdout"}
	cfg.ErrorOutputPaths = []string{"stderr"}
	cfg.DisableCaller = !opts.EnableCaller

	l, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("构建Logger失败: %w", err)
	}

	global = l
	return func() { _ = l.Sync() }, nil
}

// L 获取全局Logger
func L() *zap.Logger {
	return global
}

// With 返回附加固定字段的Logger
// 用法：log := logger.With(zap.String("component", "payment"))
func With(fields ...zap.Field) *zap.Logger {
	return global.With(fields...)
}
