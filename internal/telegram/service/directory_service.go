package service

import (
	"context"
	"fmt"

	"gcast_bot/internal/broadcast"
	"gcast_bot/internal/telegram/repository"
)

// DirectoryService 广播接收者目录，基于用户与群组集合
type DirectoryService struct {
	userRepo  repository.UserRepository
	groupRepo repository.GroupRepository
}

var _ broadcast.Directory = (*DirectoryService)(nil)

// NewDirectoryService 创建目录服务
func NewDirectoryService(userRepo repository.UserRepository, groupRepo repository.GroupRepository) *DirectoryService {
	return &DirectoryService{
		userRepo:  userRepo,
		groupRepo: groupRepo,
	}
}

// ListServedUsers 列出所有私聊过 Bot 的用户
func (s *DirectoryService) ListServedUsers(ctx context.Context) ([]int64, error) {
	ids, err := s.userRepo.ListUserIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load served users: %w", err)
	}
	return ids, nil
}

// ListServedChats 列出 Bot 仍在其中的群组
func (s *DirectoryService) ListServedChats(ctx context.Context) ([]int64, error) {
	ids, err := s.groupRepo.ListActiveGroupIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load served chats: %w", err)
	}
	return ids, nil
}
