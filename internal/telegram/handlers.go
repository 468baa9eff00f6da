package telegram

import (
	"context"
	"fmt"
	"strings"

	"gcast_bot/internal/logger"
	"gcast_bot/internal/telegram/models"
	"gcast_bot/internal/telegram/service"

	"github.com/go-telegram/bot"
	botModels "github.com/go-telegram/bot/models"
)

// registerHandlers 注册所有命令处理器（异步执行）
func (b *Bot) registerHandlers() {
	// 普通命令 - 异步执行
	b.bot.RegisterHandler(bot.HandlerTypeMessageText, "/start", bot.MatchTypePrefix,
		b.asyncHandler(b.handleStart))
	b.bot.RegisterHandler(bot.HandlerTypeMessageText, "/ping", bot.MatchTypePrefix,
		b.asyncHandler(b.handlePing))

	// 管理员命令（仅 Owner） - 异步执行
	b.bot.RegisterHandler(bot.HandlerTypeMessageText, "/grant", bot.MatchTypePrefix,
		b.asyncHandler(b.RequireOwner(b.handleGrantAdmin)))
	b.bot.RegisterHandler(bot.HandlerTypeMessageText, "/revoke", bot.MatchTypePrefix,
		b.asyncHandler(b.RequireOwner(b.handleRevokeAdmin)))

	// 管理员命令（Admin+） - 异步执行
	b.bot.RegisterHandler(bot.HandlerTypeMessageText, "/admins", bot.MatchTypePrefix,
		b.asyncHandler(b.RequireAdmin(b.handleListAdmins)))

	// 广播命令
	b.bot.RegisterHandler(bot.HandlerTypeMessageText, "/broadcast", bot.MatchTypePrefix,
		b.asyncHandler(b.RequireAdmin(b.handleBroadcast)))
	b.bot.RegisterHandler(bot.HandlerTypeMessageText, "/cancel_gcast", bot.MatchTypePrefix,
		b.asyncHandler(b.RequireAdmin(b.handleCancelBroadcast)))
	b.bot.RegisterHandler(bot.HandlerTypeMessageText, "/failed_gcast", bot.MatchTypePrefix,
		b.asyncHandler(b.RequireAdmin(b.handleFailedTargets)))
	b.bot.RegisterHandler(bot.HandlerTypeMessageText, "/status", bot.MatchTypePrefix,
		b.asyncHandler(b.RequireChatAdmin(b.handleBroadcastStatus)))

	logger.L().Debug("All handlers registered with async execution")
}

// handleDefault 处理未匹配命令的更新（Bot 成员状态变化）
func (b *Bot) handleDefault(ctx context.Context, botInstance *bot.Bot, update *botModels.Update) {
	if update.MyChatMember == nil {
		return
	}
	b.asyncHandler(b.handleMyChatMember)(ctx, botInstance, update)
}

// handleMyChatMember Bot 被加入 / 移出群组时登记或注销接收群
func (b *Bot) handleMyChatMember(ctx context.Context, botInstance *bot.Bot, update *botModels.Update) {
	member := update.MyChatMember
	if member == nil || member.Chat.Type == botModels.ChatTypePrivate {
		return
	}

	chatID := member.Chat.ID
	memberType := string(member.NewChatMember.Type)

	if models.BotStatusFromMemberType(memberType) != models.BotStatusActive {
		b.adminCache.Delete(chatID)
		if err := b.groupService.HandleBotRemovedFromGroup(ctx, chatID, memberType); err != nil {
			logger.L().Warnf("Failed to unregister chat %d: %v", chatID, err)
		}
		return
	}

	chatInfo := &service.TelegramChatInfo{
		ChatID:   chatID,
		Type:     string(member.Chat.Type),
		Title:    member.Chat.Title,
		Username: member.Chat.Username,
	}
	if err := b.groupService.HandleBotAddedToGroup(ctx, chatInfo); err != nil {
		logger.L().Warnf("Failed to register chat %d: %v", chatID, err)
	}
}

// handleStart 处理 /start 命令，私聊用户登记为广播接收者
func (b *Bot) handleStart(ctx context.Context, botInstance *bot.Bot, update *botModels.Update) {
	if update.Message == nil || update.Message.From == nil {
		return
	}
	if update.Message.Chat.Type != botModels.ChatTypePrivate {
		return
	}

	userInfo := &service.TelegramUserInfo{
		TelegramID:   update.Message.From.ID,
		Username:     update.Message.From.Username,
		FirstName:    update.Message.From.FirstName,
		LastName:     update.Message.From.LastName,
		LanguageCode: update.Message.From.LanguageCode,
	}

	if err := b.userService.RegisterOrUpdateUser(ctx, userInfo); err != nil {
		b.sendErrorMessage(ctx, update.Message.Chat.ID, "注册失败，请稍后重试")
		return
	}

	welcomeText := fmt.Sprintf(
		"👋 你好, %s!\n\n欢迎使用本 Bot。\n\n可用命令:\n/start - 开始\n/ping - 测试连接\n/admins - 查看管理员列表（需要管理员权限）",
		update.Message.From.FirstName,
	)

	b.sendMessage(ctx, update.Message.Chat.ID, welcomeText)
}

// handlePing 处理 /ping 命令
func (b *Bot) handlePing(ctx context.Context, botInstance *bot.Bot, update *botModels.Update) {
	if update.Message == nil {
		return
	}

	b.sendMessage(ctx, update.Message.Chat.ID, b.buildPingMessage(ctx))
}

// parseTargetID 解析命令中的用户 ID 参数
func parseTargetID(text string) (int64, bool) {
	parts := strings.Fields(text)
	if len(parts) < 2 {
		return 0, false
	}

	var targetID int64
	if _, err := fmt.Sscanf(parts[1], "%d", &targetID); err != nil {
		return 0, false
	}
	return targetID, true
}

// handleGrantAdmin 处理 /grant 命令（授予管理员权限）
func (b *Bot) handleGrantAdmin(ctx context.Context, botInstance *bot.Bot, update *botModels.Update) {
	if update.Message == nil || update.Message.From == nil {
		return
	}

	targetID, ok := parseTargetID(update.Message.Text)
	if !ok {
		b.sendErrorMessage(ctx, update.Message.Chat.ID,
			"用法: /grant <user_id>\n例如: /grant 123456789")
		return
	}

	if err := b.userService.GrantAdminPermission(ctx, targetID, update.Message.From.ID); err != nil {
		b.sendErrorMessage(ctx, update.Message.Chat.ID, err.Error())
		return
	}

	b.sendSuccessMessage(ctx, update.Message.Chat.ID,
		fmt.Sprintf("已授予用户 %d 管理员权限", targetID))
}

// handleRevokeAdmin 处理 /revoke 命令（撤销管理员权限）
func (b *Bot) handleRevokeAdmin(ctx context.Context, botInstance *bot.Bot, update *botModels.Update) {
	if update.Message == nil || update.Message.From == nil {
		return
	}

	targetID, ok := parseTargetID(update.Message.Text)
	if !ok {
		b.sendErrorMessage(ctx, update.Message.Chat.ID,
			"用法: /revoke <user_id>\n例如: /revoke 123456789")
		return
	}

	if err := b.userService.RevokeAdminPermission(ctx, targetID, update.Message.From.ID); err != nil {
		b.sendErrorMessage(ctx, update.Message.Chat.ID, err.Error())
		return
	}

	b.sendSuccessMessage(ctx, update.Message.Chat.ID,
		fmt.Sprintf("已撤销用户 %d 的管理员权限", targetID))
}

// handleListAdmins 处理 /admins 命令（列出所有管理员）
func (b *Bot) handleListAdmins(ctx context.Context, botInstance *bot.Bot, update *botModels.Update) {
	if update.Message == nil {
		return
	}

	admins, err := b.userService.ListAllAdmins(ctx)
	if err != nil {
		b.sendErrorMessage(ctx, update.Message.Chat.ID, "查询失败")
		return
	}

	if len(admins) == 0 {
		b.sendMessage(ctx, update.Message.Chat.ID, "📝 暂无管理员")
		return
	}

	var text strings.Builder
	text.WriteString("👥 管理员列表:\n\n")
	for i, admin := range admins {
		roleEmoji := "👤"
		if admin.Role == models.RoleOwner {
			roleEmoji = "👑"
		}
		text.WriteString(fmt.Sprintf("%d. %s %s (@%s) - ID: %d\n",
			i+1,
			roleEmoji,
			admin.FirstName,
			admin.Username,
			admin.TelegramID,
		))
	}

	b.sendMessage(ctx, update.Message.Chat.ID, text.String())
}
