package broadcast

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrAlreadyRunning 已有广播在进行中
	ErrAlreadyRunning = errors.New("broadcast already running")
	// ErrNoRecipients 没有可投递的接收端
	ErrNoRecipients = errors.New("no recipients")
	// ErrNoContent 没有广播内容
	ErrNoContent = errors.New("no content")
)

// DirectoryError 获取接收端列表失败，运行不会开始
type DirectoryError struct {
	Audience Audience
	Err      error
}

func (e *DirectoryError) Error() string {
	return fmt.Sprintf("failed to list %s recipients: %v", e.Audience, e.Err)
}

func (e *DirectoryError) Unwrap() error { return e.Err }

// RateLimitedError 发送通道要求等待后重试
type RateLimitedError struct {
	Wait time.Duration
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("rate limited: retry after %s", e.Wait)
}

// RateLimitWait 判断 err 是否为限流信号，返回要求的等待时间
func RateLimitWait(err error) (time.Duration, bool) {
	if err == nil {
		return 0, false
	}

	var rl *RateLimitedError
	if !errors.As(err, &rl) {
		return 0, false
	}
	return rl.Wait, true
}
