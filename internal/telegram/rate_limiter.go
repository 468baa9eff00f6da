package telegram

import (
	"context"

	"golang.org/x/time/rate"
)

// RateLimiter 全局发送速率限制器（Token Bucket）
// 用于控制消息发送频率，避免触发 Telegram API 限制
type RateLimiter struct {
	limiter *rate.Limiter
}

// NewRateLimiter 创建速率限制器
// ratePerSecond: 每秒允许的请求数（例如 30 表示每秒 30 个请求），<= 0 表示不限速
func NewRateLimiter(ratePerSecond int) *RateLimiter {
	if ratePerSecond <= 0 {
		return &RateLimiter{limiter: rate.NewLimiter(rate.Inf, 0)}
	}
	return &RateLimiter{
		limiter: rate.NewLimiter(rate.Limit(ratePerSecond), ratePerSecond),
	}
}

// Wait 等待获取令牌（阻塞直到有可用令牌或上下文取消）
func (r *RateLimiter) Wait(ctx context.Context) error {
	if r == nil {
		return nil
	}
	return r.limiter.Wait(ctx)
}
