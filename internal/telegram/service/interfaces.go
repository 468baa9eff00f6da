package service

import (
	"context"

	"gcast_bot/internal/telegram/models"
)

// UserService 用户业务逻辑接口
type UserService interface {
	// RegisterOrUpdateUser 注册或更新用户（成为广播接收者）
	RegisterOrUpdateUser(ctx context.Context, info *TelegramUserInfo) error

	// InitOwners 将配置中的 Owner 写入数据库
	InitOwners(ctx context.Context, ownerIDs []int64) error

	// GrantAdminPermission 授予管理员权限（包含业务验证）
	GrantAdminPermission(ctx context.Context, targetID, grantedBy int64) error

	// RevokeAdminPermission 撤销管理员权限（包含业务验证）
	RevokeAdminPermission(ctx context.Context, targetID, revokedBy int64) error

	// ListAllAdmins 列出所有管理员
	ListAllAdmins(ctx context.Context) ([]*models.User, error)

	// CheckOwnerPermission 检查是否为 Owner
	CheckOwnerPermission(ctx context.Context, telegramID int64) (bool, error)

	// CheckAdminPermission 检查是否为 Admin+
	CheckAdminPermission(ctx context.Context, telegramID int64) (bool, error)
}

// GroupService 群组业务逻辑接口
type GroupService interface {
	// HandleBotAddedToGroup Bot 被添加到群组（成为广播接收群）
	HandleBotAddedToGroup(ctx context.Context, chat *TelegramChatInfo) error

	// HandleBotRemovedFromGroup Bot 被移出或离开群组
	HandleBotRemovedFromGroup(ctx context.Context, telegramID int64, memberType string) error

	// ListActiveGroupIDs 列出所有活跃群组 ID
	ListActiveGroupIDs(ctx context.Context) ([]int64, error)
}

// TelegramUserInfo Telegram 用户信息 DTO
type TelegramUserInfo struct {
	TelegramID   int64
	Username     string
	FirstName    string
	LastName     string
	LanguageCode string
}

// TelegramChatInfo Telegram 群组信息 DTO
type TelegramChatInfo struct {
	ChatID   int64
	Type     string
	Title    string
	Username string
}
