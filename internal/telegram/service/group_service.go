package service

import (
	"context"
	"fmt"

	"gcast_bot/internal/logger"
	"gcast_bot/internal/telegram/models"
	"gcast_bot/internal/telegram/repository"
)

// GroupServiceImpl 群组服务实现
type GroupServiceImpl struct {
	groupRepo repository.GroupRepository
}

// NewGroupService 创建群组服务
func NewGroupService(groupRepo repository.GroupRepository) GroupService {
	return &GroupServiceImpl{
		groupRepo: groupRepo,
	}
}

// HandleBotAddedToGroup Bot 被添加到群组
func (s *GroupServiceImpl) HandleBotAddedToGroup(ctx context.Context, chat *TelegramChatInfo) error {
	group := &models.Group{
		TelegramID: chat.ChatID,
		Type:       chat.Type,
		Title:      chat.Title,
		Username:   chat.Username,
		BotStatus:  models.BotStatusActive,
		// BotJoinedAt、CreatedAt 由 CreateOrUpdate 的 $setOnInsert 自动设置
	}

	if err := s.groupRepo.CreateOrUpdate(ctx, group); err != nil {
		logger.L().Errorf("Failed to handle bot added to group %d: %v", chat.ChatID, err)
		return fmt.Errorf("记录 Bot 加入群组失败: %w", err)
	}

	logger.L().Infof("Bot added to group %d (%s)", chat.ChatID, chat.Title)
	return nil
}

// HandleBotRemovedFromGroup Bot 被移出群组
// memberType 为 Bot 新的成员状态（left / kicked）
func (s *GroupServiceImpl) HandleBotRemovedFromGroup(ctx context.Context, telegramID int64, memberType string) error {
	status := models.BotStatusFromMemberType(memberType)
	if status == models.BotStatusActive {
		status = models.BotStatusLeft
	}

	if err := s.groupRepo.MarkBotLeft(ctx, telegramID, status); err != nil {
		logger.L().Errorf("Failed to handle bot removed from group %d: %v", telegramID, err)
		return fmt.Errorf("记录 Bot 离开群组失败: %w", err)
	}

	logger.L().Infof("Bot removed from group %d, status=%s", telegramID, status)
	return nil
}

// ListActiveGroupIDs 列出所有活跃群组 ID
func (s *GroupServiceImpl) ListActiveGroupIDs(ctx context.Context) ([]int64, error) {
	ids, err := s.groupRepo.ListActiveGroupIDs(ctx)
	if err != nil {
		logger.L().Errorf("Failed to list active groups: %v", err)
		return nil, fmt.Errorf("获取活跃群组列表失败: %w", err)
	}
	return ids, nil
}
