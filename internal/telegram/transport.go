package telegram

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gcast_bot/internal/broadcast"

	"github.com/go-telegram/bot"
	botModels "github.com/go-telegram/bot/models"
)

// messageSender Bot API 中广播需要的发送方法，*bot.Bot 满足此接口
type messageSender interface {
	SendMessage(ctx context.Context, params *bot.SendMessageParams) (*botModels.Message, error)
	ForwardMessage(ctx context.Context, params *bot.ForwardMessageParams) (*botModels.Message, error)
	CopyMessage(ctx context.Context, params *bot.CopyMessageParams) (*botModels.MessageID, error)
}

// Transport 基于 Bot API 的广播发送通道
type Transport struct {
	sender  messageSender
	limiter *RateLimiter
}

var _ broadcast.Transport = (*Transport)(nil)

// NewTransport 创建发送通道
func NewTransport(sender messageSender, limiter *RateLimiter) *Transport {
	return &Transport{
		sender:  sender,
		limiter: limiter,
	}
}

// SendText 按纯文本发送，不解析 HTML 或 Markdown 标记
func (t *Transport) SendText(ctx context.Context, chatID int64, text string) error {
	if err := t.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter wait error: %w", err)
	}

	_, err := t.sender.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: chatID,
		Text:   text,
	})
	return translateSendError(err)
}

// Forward 转发消息（保留来源）
func (t *Transport) Forward(ctx context.Context, chatID int64, src broadcast.MessageRef) error {
	if err := t.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter wait error: %w", err)
	}

	_, err := t.sender.ForwardMessage(ctx, &bot.ForwardMessageParams{
		ChatID:     chatID,
		FromChatID: src.ChatID,
		MessageID:  src.MessageID,
	})
	return translateSendError(err)
}

// Copy 复制消息（不带来源）
func (t *Transport) Copy(ctx context.Context, chatID int64, src broadcast.MessageRef) error {
	if err := t.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter wait error: %w", err)
	}

	_, err := t.sender.CopyMessage(ctx, &bot.CopyMessageParams{
		ChatID:     chatID,
		FromChatID: src.ChatID,
		MessageID:  src.MessageID,
	})
	return translateSendError(err)
}

// translateSendError 将 429 转换为引擎可识别的限流错误
func translateSendError(err error) error {
	if err == nil {
		return nil
	}

	var tooMany *bot.TooManyRequestsError
	if errors.As(err, &tooMany) {
		return &broadcast.RateLimitedError{Wait: time.Duration(tooMany.RetryAfter) * time.Second}
	}
	return err
}
