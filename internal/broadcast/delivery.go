package broadcast

import (
	"context"
	"fmt"

	"gcast_bot/internal/logger"
)

const reasonRetriesExhausted = "rate limit retries exhausted"

// delivery 单次运行内共享的投递参数
type delivery struct {
	transport Transport
	content   Content
	mode      Mode
	state     *runState
	cfg       Config
	sleep     SleepFunc
}

// deliver 向单个接收端投递，限流时等待并重试，只记录最终结果
func (d *delivery) deliver(ctx context.Context, ep Endpoint) Outcome {
	retries := 0
	for {
		err := d.attempt(ctx, ep)
		if err == nil {
			d.state.recordSent(ep.Kind)
			return Outcome{Delivered: true}
		}

		requested, limited := RateLimitWait(err)
		if !limited {
			return d.fail(ep, err.Error())
		}

		if d.cfg.MaxRateLimitRetries > 0 && retries >= d.cfg.MaxRateLimitRetries {
			return d.fail(ep, reasonRetriesExhausted)
		}
		retries++

		wait := effectiveWait(requested, d.cfg.MaxFloodWait)
		logger.L().Debugf("Rate limited on %s %d, waiting %s (requested %s, attempt %d)",
			ep.Kind, ep.ID, wait, requested, retries)

		if err := d.sleep(ctx, wait); err != nil {
			return d.fail(ep, err.Error())
		}
	}
}

// attempt 按内容类型和模式调用一次发送通道，transport 内部 panic 转为错误
func (d *delivery) attempt(ctx context.Context, ep Endpoint) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("unexpected error: %v", r)
		}
	}()

	switch {
	case d.content.IsText():
		return d.transport.SendText(ctx, ep.ID, d.content.Text)
	case d.mode == ModeForward:
		return d.transport.Forward(ctx, ep.ID, *d.content.Source)
	default:
		return d.transport.Copy(ctx, ep.ID, *d.content.Source)
	}
}

func (d *delivery) fail(ep Endpoint, reason string) Outcome {
	d.state.recordFailed(ep, reason)
	logger.L().Warnf("Failed to deliver to %s %d: %s", ep.Kind, ep.ID, reason)
	return Outcome{Reason: reason}
}
