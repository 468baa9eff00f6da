// Package broadcast 实现批量消息投递引擎：分批并发发送、限流重试、进度统计和协作式取消。
// 同一时间只允许一个运行实例。
package broadcast

import (
	"context"
	"fmt"
	"time"

	"gcast_bot/internal/logger"

	"github.com/google/uuid"
)

const (
	DefaultBatchSize     = 100
	DefaultBatchCooldown = 1500 * time.Millisecond
)

// Config 引擎配置
type Config struct {
	BatchSize           int           // 每批接收端数量
	BatchCooldown       time.Duration // 批次之间的冷却时间
	MaxFloodWait        time.Duration // 单次限流等待上限
	MaxRateLimitRetries int           // 单个接收端限流重试上限，0 表示不限
}

// DefaultConfig 返回默认配置
func DefaultConfig() Config {
	return Config{
		BatchSize:     DefaultBatchSize,
		BatchCooldown: DefaultBatchCooldown,
		MaxFloodWait:  DefaultMaxFloodWait,
	}
}

// Engine 广播运行控制器
type Engine struct {
	transport Transport
	cfg       Config
	state     runState

	sleep SleepFunc
	now   func() time.Time
}

// NewEngine 创建广播引擎
func NewEngine(transport Transport, cfg Config) *Engine {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	if cfg.BatchCooldown < 0 {
		cfg.BatchCooldown = 0
	}
	if cfg.MaxFloodWait <= 0 {
		cfg.MaxFloodWait = DefaultMaxFloodWait
	}
	if cfg.MaxRateLimitRetries < 0 {
		cfg.MaxRateLimitRetries = 0
	}

	return &Engine{
		transport: transport,
		cfg:       cfg,
		sleep:     sleepContext,
		now:       time.Now,
	}
}

// Config 返回生效的配置
func (e *Engine) Config() Config {
	return e.cfg
}

// Start 执行一次完整广播，阻塞直到自然结束或被取消
// users 在前、chats 在后，保持目录服务给出的顺序，不去重
func (e *Engine) Start(ctx context.Context, users, chats []int64, content Content, mode Mode, progress ProgressFunc) (Summary, error) {
	if e.state.isActive() {
		return Summary{}, ErrAlreadyRunning
	}
	if len(users)+len(chats) == 0 {
		return Summary{}, ErrNoRecipients
	}
	if content.Empty() {
		return Summary{}, ErrNoContent
	}
	if mode != ModeForward {
		mode = ModeCopy
	}

	endpoints := classify(users, chats)
	runID := uuid.New().String()

	if !e.state.begin(runParams{
		runID:        runID,
		mode:         mode,
		users:        len(users),
		chats:        len(chats),
		totalBatches: batchCount(len(endpoints), e.cfg.BatchSize),
		startTime:    e.now(),
	}) {
		return Summary{}, ErrAlreadyRunning
	}

	logger.L().Infof("Broadcast started: run_id=%s, mode=%s, users=%d, chats=%d, batch_size=%d",
		runID, mode, len(users), len(chats), e.cfg.BatchSize)

	d := &delivery{
		transport: e.transport,
		content:   content,
		mode:      mode,
		state:     &e.state,
		cfg:       e.cfg,
		sleep:     e.sleep,
	}
	e.runBatches(ctx, d, endpoints, progress)

	cancelled := e.state.finish(e.now())
	summary := Summary{Snapshot: e.state.snapshot(e.now()), Cancelled: cancelled}

	logger.L().Infof("Broadcast finished: run_id=%s, sent=%d (users=%d, chats=%d), failed=%d, total=%d, cancelled=%v, duration=%s",
		runID, summary.Sent, summary.SentUsers, summary.SentChats, summary.Failed, summary.Total,
		cancelled, summary.Elapsed.Round(time.Millisecond))

	return summary, nil
}

// StartFromDirectory 从目录服务拉取接收端后执行广播
// 目录服务出错时返回 *DirectoryError，不会开始任何投递
func (e *Engine) StartFromDirectory(ctx context.Context, dir Directory, audience Audience, content Content, mode Mode, progress ProgressFunc) (Summary, error) {
	if e.state.isActive() {
		return Summary{}, ErrAlreadyRunning
	}

	var users, chats []int64
	var err error

	switch audience {
	case AudienceAll, AudienceUsers, AudienceChats:
	default:
		return Summary{}, fmt.Errorf("unknown audience %q", audience)
	}

	if audience == AudienceAll || audience == AudienceUsers {
		users, err = dir.ListServedUsers(ctx)
		if err != nil {
			return Summary{}, &DirectoryError{Audience: AudienceUsers, Err: err}
		}
	}
	if audience == AudienceAll || audience == AudienceChats {
		chats, err = dir.ListServedChats(ctx)
		if err != nil {
			return Summary{}, &DirectoryError{Audience: AudienceChats, Err: err}
		}
	}

	return e.Start(ctx, users, chats, content, mode, progress)
}

// Cancel 请求取消当前运行，没有运行时返回 false
// 正在执行的批次不会被中断，后续批次不再派发
func (e *Engine) Cancel() bool {
	if !e.state.deactivate() {
		return false
	}
	logger.L().Info("Broadcast cancellation requested")
	return true
}

// Status 返回当前运行进度，没有运行时第二个返回值为 false
func (e *Engine) Status() (Snapshot, bool) {
	snap := e.state.snapshot(e.now())
	if !snap.Active {
		return Snapshot{}, false
	}
	return snap, true
}

// LastRun 返回最近一次运行（可能仍在进行）的快照，结束后耗时固定
func (e *Engine) LastRun() Snapshot {
	return e.state.snapshot(e.now())
}

// FailedTargets 返回最近一次运行的失败记录（最多 limit 条）及失败总数
func (e *Engine) FailedTargets(limit int) ([]FailedTarget, int) {
	return e.state.failedTargets(limit)
}

// classify 按来源列表标记接收端类型
func classify(users, chats []int64) []Endpoint {
	endpoints := make([]Endpoint, 0, len(users)+len(chats))
	for _, id := range users {
		endpoints = append(endpoints, Endpoint{ID: id, Kind: KindUser})
	}
	for _, id := range chats {
		endpoints = append(endpoints, Endpoint{ID: id, Kind: KindChat})
	}
	return endpoints
}
