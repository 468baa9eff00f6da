package broadcast

import (
	"context"
	"time"
)

// DefaultMaxFloodWait 单次限流等待上限
const DefaultMaxFloodWait = 60 * time.Second

// SleepFunc 可被取消的等待，测试中替换为虚拟时钟
type SleepFunc func(ctx context.Context, d time.Duration) error

// sleepContext 等待 d 或 ctx 结束
func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// effectiveWait 实际等待时间 = min(requested, limit)，负数按 0 处理
func effectiveWait(requested, limit time.Duration) time.Duration {
	if requested < 0 {
		return 0
	}
	if limit > 0 && requested > limit {
		return limit
	}
	return requested
}
