package service

import (
	"context"
	"errors"
	"fmt"

	"gcast_bot/internal/telegram/models"
)

type stubUserRepository struct {
	users    map[int64]*models.User
	order    []int64
	failIDs  map[int64]bool
	listErr  error
	granted  []int64
	revoked  []int64
	upserted []*models.User
}

func newStubUserRepository(users ...*models.User) *stubUserRepository {
	repo := &stubUserRepository{
		users:   make(map[int64]*models.User),
		failIDs: make(map[int64]bool),
	}
	for _, u := range users {
		repo.users[u.TelegramID] = u
		repo.order = append(repo.order, u.TelegramID)
	}
	return repo
}

func (s *stubUserRepository) CreateOrUpdate(ctx context.Context, user *models.User) error {
	if s.failIDs[user.TelegramID] {
		return errors.New("write failed")
	}
	clone := *user
	if existing, ok := s.users[user.TelegramID]; ok {
		if clone.Role == "" {
			clone.Role = existing.Role
		}
	} else {
		if clone.Role == "" {
			clone.Role = models.RoleUser
		}
		s.order = append(s.order, user.TelegramID)
	}
	s.users[user.TelegramID] = &clone
	s.upserted = append(s.upserted, &clone)
	return nil
}

func (s *stubUserRepository) GetByTelegramID(ctx context.Context, telegramID int64) (*models.User, error) {
	user, ok := s.users[telegramID]
	if !ok {
		return nil, fmt.Errorf("user not found: %d", telegramID)
	}
	clone := *user
	return &clone, nil
}

func (s *stubUserRepository) GrantAdmin(ctx context.Context, telegramID int64, grantedBy int64) error {
	s.granted = append(s.granted, telegramID)
	s.users[telegramID].Role = models.RoleAdmin
	return nil
}

func (s *stubUserRepository) RevokeAdmin(ctx context.Context, telegramID int64) error {
	s.revoked = append(s.revoked, telegramID)
	s.users[telegramID].Role = models.RoleUser
	return nil
}

func (s *stubUserRepository) ListAdmins(ctx context.Context) ([]*models.User, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	var admins []*models.User
	for _, id := range s.order {
		if s.users[id].IsAdmin() {
			admins = append(admins, s.users[id])
		}
	}
	return admins, nil
}

func (s *stubUserRepository) ListUserIDs(ctx context.Context) ([]int64, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	return append([]int64(nil), s.order...), nil
}

func (s *stubUserRepository) EnsureIndexes(ctx context.Context) error {
	return nil
}

type stubGroupRepository struct {
	storedGroup *models.Group
	activeIDs   []int64
	leftStatus  string
	writeErr    error
	listErr     error
}

func (s *stubGroupRepository) CreateOrUpdate(ctx context.Context, group *models.Group) error {
	if s.writeErr != nil {
		return s.writeErr
	}
	clone := *group
	s.storedGroup = &clone
	return nil
}

func (s *stubGroupRepository) GetByTelegramID(ctx context.Context, telegramID int64) (*models.Group, error) {
	if s.storedGroup == nil {
		return nil, errors.New("not found")
	}
	return s.storedGroup, nil
}

func (s *stubGroupRepository) MarkBotLeft(ctx context.Context, telegramID int64, status string) error {
	if s.writeErr != nil {
		return s.writeErr
	}
	s.leftStatus = status
	return nil
}

func (s *stubGroupRepository) ListActiveGroupIDs(ctx context.Context) ([]int64, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	return s.activeIDs, nil
}

func (s *stubGroupRepository) EnsureIndexes(ctx context.Context) error {
	return nil
}
