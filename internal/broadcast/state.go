package broadcast

import (
	"sync"
	"time"
)

// runState 单次广播的共享状态
// 由 Engine 持有，投递协程并发修改计数，状态查询只读
type runState struct {
	mu sync.Mutex

	runID        string
	active       bool
	mode         Mode
	total        int
	users        int
	chats        int
	sent         int
	failed       int
	sentUsers    int
	sentChats    int
	currentBatch int
	totalBatches int
	startTime    time.Time
	endTime      time.Time
	failures     []FailedTarget
}

// runParams 启动一次运行所需的初始值
type runParams struct {
	runID        string
	mode         Mode
	users        int
	chats        int
	totalBatches int
	startTime    time.Time
}

// begin 原子地检查并占用运行槽位，成功时重置全部状态
func (s *runState) begin(p runParams) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.active {
		return false
	}

	s.runID = p.runID
	s.active = true
	s.mode = p.mode
	s.users = p.users
	s.chats = p.chats
	s.total = p.users + p.chats
	s.sent = 0
	s.failed = 0
	s.sentUsers = 0
	s.sentChats = 0
	s.currentBatch = 0
	s.totalBatches = p.totalBatches
	s.startTime = p.startTime
	s.endTime = time.Time{}
	s.failures = nil
	return true
}

// finish 结束运行并冻结结束时间
// 只有取消导致批次被跳过时才视为已取消，最后一批执行期间的取消不算
func (s *runState) finish(now time.Time) (cancelled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cancelled = !s.active && s.currentBatch < s.totalBatches
	s.active = false
	s.endTime = now
	return cancelled
}

// deactivate 取消运行
func (s *runState) deactivate() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.active {
		return false
	}
	s.active = false
	return true
}

func (s *runState) isActive() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

func (s *runState) setBatch(n int) {
	s.mu.Lock()
	s.currentBatch = n
	s.mu.Unlock()
}

func (s *runState) recordSent(kind EndpointKind) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sent++
	if kind == KindUser {
		s.sentUsers++
	} else {
		s.sentChats++
	}
}

func (s *runState) recordFailed(ep Endpoint, reason string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.failed++
	s.failures = append(s.failures, FailedTarget{Endpoint: ep, Reason: reason})
}

// snapshot 生成只读快照，now 用于计算耗时和预计剩余时间
// 运行结束后按结束时间计算，快照不再随时间变化
func (s *runState) snapshot(now time.Time) Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.active && !s.endTime.IsZero() {
		now = s.endTime
	}

	snap := Snapshot{
		RunID:        s.runID,
		Active:       s.active,
		Mode:         s.mode,
		Total:        s.total,
		Users:        s.users,
		Chats:        s.chats,
		Sent:         s.sent,
		Failed:       s.failed,
		SentUsers:    s.sentUsers,
		SentChats:    s.sentChats,
		CurrentBatch: s.currentBatch,
		TotalBatches: s.totalBatches,
		StartedAt:    s.startTime,
	}
	if !s.startTime.IsZero() {
		fillProgress(&snap, now)
	}
	return snap
}

// failedTargets 返回前 limit 条失败记录（limit<=0 表示全部）及总数
func (s *runState) failedTargets(limit int) ([]FailedTarget, int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	total := len(s.failures)
	n := total
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]FailedTarget, n)
	copy(out, s.failures[:n])
	return out, total
}
