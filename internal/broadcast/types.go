package broadcast

import (
	"context"
	"time"
)

// EndpointKind 接收端类型
type EndpointKind string

const (
	KindUser EndpointKind = "user" // 私聊用户
	KindChat EndpointKind = "chat" // 群组 / 频道
)

// Mode 引用消息的投递方式
type Mode string

const (
	ModeCopy    Mode = "copy"    // 复制消息（不带来源）
	ModeForward Mode = "forward" // 转发消息（保留来源）
)

// Audience 广播受众范围
type Audience string

const (
	AudienceAll   Audience = "all"
	AudienceUsers Audience = "users"
	AudienceChats Audience = "chats"
)

// Endpoint 单个接收端，类型在分类时确定，运行期间不可变
type Endpoint struct {
	ID   int64
	Kind EndpointKind
}

// MessageRef 指向一条已存在的消息（用于转发 / 复制）
type MessageRef struct {
	ChatID    int64
	MessageID int
}

// Content 广播内容：纯文本或消息引用，二选一
type Content struct {
	Text   string
	Source *MessageRef
}

// TextContent 构造文本内容
func TextContent(text string) Content {
	return Content{Text: text}
}

// RefContent 构造引用内容
func RefContent(chatID int64, messageID int) Content {
	return Content{Source: &MessageRef{ChatID: chatID, MessageID: messageID}}
}

// IsText 是否为文本内容
func (c Content) IsText() bool {
	return c.Source == nil
}

// Empty 内容是否缺失
func (c Content) Empty() bool {
	return c.Source == nil && c.Text == ""
}

// Outcome 单个接收端的最终投递结果
type Outcome struct {
	Delivered bool
	Reason    string
}

// FailedTarget 投递失败记录
type FailedTarget struct {
	Endpoint Endpoint
	Reason   string
}

// Transport 消息发送通道
// 限流时返回 *RateLimitedError，其余错误视为投递失败
type Transport interface {
	SendText(ctx context.Context, chatID int64, text string) error
	Forward(ctx context.Context, chatID int64, src MessageRef) error
	Copy(ctx context.Context, chatID int64, src MessageRef) error
}

// Directory 接收端目录服务
type Directory interface {
	ListServedUsers(ctx context.Context) ([]int64, error)
	ListServedChats(ctx context.Context) ([]int64, error)
}

// Snapshot 某一时刻的运行进度快照（只读副本）
type Snapshot struct {
	RunID        string
	Active       bool
	Mode         Mode
	Total        int
	Users        int
	Chats        int
	Sent         int
	Failed       int
	SentUsers    int
	SentChats    int
	CurrentBatch int
	TotalBatches int
	StartedAt    time.Time

	Processed int
	Percent   float64
	Elapsed   time.Duration
	ETA       time.Duration
}

// Summary 运行结束后的汇总
type Summary struct {
	Snapshot
	Cancelled bool
}

// ProgressFunc 每个批次结束后回调一次
type ProgressFunc func(Snapshot)
