package telegram

import (
	"context"

	"gcast_bot/internal/logger"

	"github.com/go-telegram/bot"
	botModels "github.com/go-telegram/bot/models"
)

// isConfiguredOwner 是否为 BOT_OWNER_IDS 中配置的 Owner
func (b *Bot) isConfiguredOwner(userID int64) bool {
	for _, id := range b.ownerIDs {
		if id == userID {
			return true
		}
	}
	return false
}

// isBotAdmin 是否拥有广播权限（配置的 Owner 或数据库中的 Admin+）
func (b *Bot) isBotAdmin(ctx context.Context, userID int64) bool {
	if b.isConfiguredOwner(userID) {
		return true
	}
	isAdmin, err := b.userService.CheckAdminPermission(ctx, userID)
	return err == nil && isAdmin
}

// RequireOwner 中间件：仅允许 Owner 执行
func (b *Bot) RequireOwner(next bot.HandlerFunc) bot.HandlerFunc {
	return func(ctx context.Context, botInstance *bot.Bot, update *botModels.Update) {
		if update.Message == nil || update.Message.From == nil {
			return
		}

		userID := update.Message.From.ID
		if !b.isConfiguredOwner(userID) {
			isOwner, err := b.userService.CheckOwnerPermission(ctx, userID)
			if err != nil || !isOwner {
				logger.L().Warnf("Non-owner user %d attempted to use owner command", userID)
				b.sendErrorMessage(ctx, update.Message.Chat.ID, "此命令仅限 Bot Owner 使用")
				return
			}
		}

		next(ctx, botInstance, update)
	}
}

// RequireAdmin 中间件：需要管理员权限（Admin 或 Owner）
func (b *Bot) RequireAdmin(next bot.HandlerFunc) bot.HandlerFunc {
	return func(ctx context.Context, botInstance *bot.Bot, update *botModels.Update) {
		if update.Message == nil || update.Message.From == nil {
			return
		}

		if !b.isBotAdmin(ctx, update.Message.From.ID) {
			logger.L().Warnf("Non-admin user %d attempted to use admin command", update.Message.From.ID)
			b.sendErrorMessage(ctx, update.Message.Chat.ID, "此命令需要管理员权限")
			return
		}

		next(ctx, botInstance, update)
	}
}

// RequireChatAdmin 中间件：Bot 管理员，或当前群中缓存的群管理员
func (b *Bot) RequireChatAdmin(next bot.HandlerFunc) bot.HandlerFunc {
	return func(ctx context.Context, botInstance *bot.Bot, update *botModels.Update) {
		if update.Message == nil || update.Message.From == nil {
			return
		}

		chatID := update.Message.Chat.ID
		userID := update.Message.From.ID
		if !b.adminCache.IsAdmin(chatID, userID) && !b.isBotAdmin(ctx, userID) {
			logger.L().Warnf("User %d attempted to use chat admin command in chat %d", userID, chatID)
			b.sendErrorMessage(ctx, chatID, "此命令需要管理员权限")
			return
		}

		next(ctx, botInstance, update)
	}
}
