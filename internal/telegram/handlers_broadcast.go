package telegram

import (
	"context"

	"gcast_bot/internal/broadcast"
	"gcast_bot/internal/logger"

	"github.com/go-telegram/bot"
	botModels "github.com/go-telegram/bot/models"
)

// handleBroadcast 处理 /broadcast 命令
// 回复某条消息时广播该消息（复制或转发），否则广播命令后的文本
func (b *Bot) handleBroadcast(ctx context.Context, botInstance *bot.Bot, update *botModels.Update) {
	msg := update.Message
	if msg == nil {
		return
	}
	chatID := msg.Chat.ID

	if _, active := b.engine.Status(); active {
		b.sendMessage(ctx, chatID, broadcastErrorMessage(broadcast.ErrAlreadyRunning), msg.ID)
		return
	}

	req, err := parseBroadcastCommand(msg.Text)
	if err != nil {
		b.sendMessage(ctx, chatID, broadcastUsageText, msg.ID)
		return
	}

	content := broadcast.TextContent(req.Text)
	if msg.ReplyToMessage != nil {
		content = broadcast.RefContent(msg.ReplyToMessage.Chat.ID, msg.ReplyToMessage.ID)
	}
	if content.Empty() {
		b.sendMessage(ctx, chatID, broadcastErrorMessage(broadcast.ErrNoContent), msg.ID)
		return
	}

	statusMsg := b.sendMessage(ctx, chatID, "📡 广播初始化完成，开始发送...", msg.ID)

	progress := func(snap broadcast.Snapshot) {
		if statusMsg != nil {
			b.editMessage(ctx, chatID, statusMsg.ID, formatProgressMessage(snap))
		}
	}

	// 广播耗时较长，不占用工作池协程
	go func() {
		summary, err := b.engine.StartFromDirectory(ctx, b.directory, req.Audience, content, req.Mode, progress)
		if err != nil {
			logger.L().Warnf("Broadcast not started: audience=%s, err=%v", req.Audience, err)
			b.reportBroadcast(ctx, chatID, statusMsg, broadcastErrorMessage(err))
			return
		}
		b.reportBroadcast(ctx, chatID, statusMsg, formatSummaryMessage(summary))
	}()
}

// reportBroadcast 优先编辑状态消息，状态消息发送失败时改为新消息
func (b *Bot) reportBroadcast(ctx context.Context, chatID int64, statusMsg *botModels.Message, text string) {
	if statusMsg != nil {
		b.editMessage(ctx, chatID, statusMsg.ID, text)
		return
	}
	b.sendMessage(ctx, chatID, text)
}

// handleBroadcastStatus 处理 /status 命令
func (b *Bot) handleBroadcastStatus(ctx context.Context, botInstance *bot.Bot, update *botModels.Update) {
	if update.Message == nil {
		return
	}

	snap, active := b.engine.Status()
	if !active {
		b.sendMessage(ctx, update.Message.Chat.ID, "📡 当前没有进行中的广播", update.Message.ID)
		return
	}

	b.sendMessage(ctx, update.Message.Chat.ID, formatStatusMessage(snap), update.Message.ID)
}

// handleCancelBroadcast 处理 /cancel_gcast 命令
func (b *Bot) handleCancelBroadcast(ctx context.Context, botInstance *bot.Bot, update *botModels.Update) {
	if update.Message == nil {
		return
	}

	if !b.engine.Cancel() {
		b.sendMessage(ctx, update.Message.Chat.ID, "ℹ️ 当前没有可取消的广播", update.Message.ID)
		return
	}

	logger.L().Infof("Broadcast cancelled by user %d", update.Message.From.ID)
	b.sendMessage(ctx, update.Message.Chat.ID, "🛑 广播已取消，当前批次完成后停止", update.Message.ID)
}

// handleFailedTargets 处理 /failed_gcast 命令
func (b *Bot) handleFailedTargets(ctx context.Context, botInstance *bot.Bot, update *botModels.Update) {
	if update.Message == nil {
		return
	}

	targets, total := b.engine.FailedTargets(failedListLimit)
	b.sendMessage(ctx, update.Message.Chat.ID, formatFailedTargets(targets, total), update.Message.ID)
}
