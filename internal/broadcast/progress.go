package broadcast

import (
	"math"
	"strings"
	"time"
)

const progressBarCells = 20

// fillProgress 计算百分比、耗时和预计剩余时间
func fillProgress(snap *Snapshot, now time.Time) {
	processed := snap.Sent + snap.Failed
	snap.Processed = processed

	if snap.Total > 0 {
		snap.Percent = math.Round(float64(processed)/float64(snap.Total)*100*100) / 100
	}

	elapsed := now.Sub(snap.StartedAt)
	if elapsed < 0 {
		elapsed = 0
	}
	snap.Elapsed = elapsed

	if processed > 0 {
		remaining := snap.Total - processed
		snap.ETA = time.Duration(float64(elapsed) / float64(processed) * float64(remaining))
	}
}

// ProgressBar 渲染 20 格进度条，每 5% 填充一格
func ProgressBar(percent float64) string {
	filled := int(math.Floor(percent / 5))
	if filled < 0 {
		filled = 0
	}
	if filled > progressBarCells {
		filled = progressBarCells
	}
	return "[" + strings.Repeat("■", filled) + strings.Repeat("□", progressBarCells-filled) + "]"
}

// batchCount 向上取整的批次数
func batchCount(total, batchSize int) int {
	if total <= 0 || batchSize <= 0 {
		return 0
	}
	return (total + batchSize - 1) / batchSize
}
