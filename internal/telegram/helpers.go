package telegram

import (
	"context"

	"github.com/go-telegram/bot"
	botModels "github.com/go-telegram/bot/models"

	"gcast_bot/internal/logger"
)

// sendMessage 发送消息（统一错误处理，使用 HTML 格式），返回发送成功的消息
func (b *Bot) sendMessage(ctx context.Context, chatID int64, text string, replyTo ...int) *botModels.Message {
	params := &bot.SendMessageParams{
		ChatID:    chatID,
		Text:      text,
		ParseMode: botModels.ParseModeHTML,
	}

	if len(replyTo) > 0 && replyTo[0] > 0 {
		params.ReplyParameters = &botModels.ReplyParameters{
			MessageID: replyTo[0],
		}
	}

	msg, err := b.bot.SendMessage(ctx, params)
	if err != nil {
		logger.L().Errorf("Failed to send message to chat %d: %v", chatID, err)
		return nil
	}
	return msg
}

// editMessage 编辑已发送的消息（HTML 格式）
func (b *Bot) editMessage(ctx context.Context, chatID int64, messageID int, text string) {
	_, err := b.bot.EditMessageText(ctx, &bot.EditMessageTextParams{
		ChatID:    chatID,
		MessageID: messageID,
		Text:      text,
		ParseMode: botModels.ParseModeHTML,
	})
	if err != nil {
		logger.L().Warnf("Failed to edit message %d in chat %d: %v", messageID, chatID, err)
	}
}

// sendErrorMessage 发送错误消息
func (b *Bot) sendErrorMessage(ctx context.Context, chatID int64, message string, replyTo ...int) {
	b.sendMessage(ctx, chatID, "❌ "+message, replyTo...)
}

// sendSuccessMessage 发送成功消息
func (b *Bot) sendSuccessMessage(ctx context.Context, chatID int64, message string, replyTo ...int) {
	b.sendMessage(ctx, chatID, "✅ "+message, replyTo...)
}
