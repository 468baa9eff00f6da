package broadcast

import (
	"context"
	"sync"

	"gcast_bot/internal/logger"
)

// partition 按输入顺序切分为至多 size 个一组的批次
func partition(endpoints []Endpoint, size int) [][]Endpoint {
	if size <= 0 {
		size = DefaultBatchSize
	}

	batches := make([][]Endpoint, 0, batchCount(len(endpoints), size))
	for start := 0; start < len(endpoints); start += size {
		end := start + size
		if end > len(endpoints) {
			end = len(endpoints)
		}
		batches = append(batches, endpoints[start:end])
	}
	return batches
}

// runBatches 逐批并发投递，批次之间冷却
// 取消只在批次边界生效，已开始的批次会完整执行
func (e *Engine) runBatches(ctx context.Context, d *delivery, endpoints []Endpoint, progress ProgressFunc) {
	batches := partition(endpoints, e.cfg.BatchSize)

	for i, batch := range batches {
		if !e.state.isActive() {
			logger.L().Infof("Broadcast cancelled before batch %d/%d", i+1, len(batches))
			return
		}

		e.state.setBatch(i + 1)
		e.dispatch(ctx, d, batch)

		snap := e.state.snapshot(e.now())
		logger.L().Infof("Broadcast batch %d/%d done: sent=%d, failed=%d, progress=%.2f%%",
			i+1, len(batches), snap.Sent, snap.Failed, snap.Percent)
		if progress != nil {
			progress(snap)
		}

		if i < len(batches)-1 {
			if err := e.sleep(ctx, e.cfg.BatchCooldown); err != nil {
				logger.L().Warnf("Broadcast interrupted during cooldown: %v", err)
				return
			}
		}
	}
}

// dispatch 并发投递一个批次并等待全部结束，单个失败不影响其他投递
func (e *Engine) dispatch(ctx context.Context, d *delivery, batch []Endpoint) {
	var wg sync.WaitGroup
	for _, ep := range batch {
		wg.Add(1)
		go func(ep Endpoint) {
			defer wg.Done()
			d.deliver(ctx, ep)
		}(ep)
	}
	wg.Wait()
}
