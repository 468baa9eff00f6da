package service

import (
	"context"
	"errors"
	"testing"

	"gcast_bot/internal/telegram/models"
)

func TestGroupServiceHandleBotAddedToGroup(t *testing.T) {
	repo := &stubGroupRepository{}
	svc := NewGroupService(repo)

	err := svc.HandleBotAddedToGroup(context.Background(), &TelegramChatInfo{
		ChatID: -100123,
		Type:   "supergroup",
		Title:  "Test",
	})
	if err != nil {
		t.Fatalf("HandleBotAddedToGroup failed: %v", err)
	}
	if repo.storedGroup == nil || !repo.storedGroup.IsActive() {
		t.Fatalf("expected active group to be stored, got %+v", repo.storedGroup)
	}
	if repo.storedGroup.Title != "Test" {
		t.Fatalf("unexpected title: %q", repo.storedGroup.Title)
	}

	repo.writeErr = errors.New("write failed")
	if err := svc.HandleBotAddedToGroup(context.Background(), &TelegramChatInfo{ChatID: -1}); err == nil {
		t.Fatalf("expected error for failed write")
	}
}

func TestGroupServiceHandleBotRemovedFromGroup(t *testing.T) {
	tests := []struct {
		memberType string
		want       string
	}{
		{memberType: "kicked", want: models.BotStatusKicked},
		{memberType: "left", want: models.BotStatusLeft},
		{memberType: "", want: models.BotStatusLeft},
	}

	for _, tt := range tests {
		t.Run(tt.memberType, func(t *testing.T) {
			repo := &stubGroupRepository{}
			svc := NewGroupService(repo)

			if err := svc.HandleBotRemovedFromGroup(context.Background(), -100, tt.memberType); err != nil {
				t.Fatalf("HandleBotRemovedFromGroup failed: %v", err)
			}
			if repo.leftStatus != tt.want {
				t.Fatalf("expected status %q, got %q", tt.want, repo.leftStatus)
			}
		})
	}
}

func TestGroupServiceListActiveGroupIDs(t *testing.T) {
	repo := &stubGroupRepository{activeIDs: []int64{-1, -2}}
	svc := NewGroupService(repo)

	ids, err := svc.ListActiveGroupIDs(context.Background())
	if err != nil {
		t.Fatalf("ListActiveGroupIDs failed: %v", err)
	}
	if len(ids) != 2 {
		t.Fatalf("unexpected ids: %v", ids)
	}

	repo.listErr = errors.New("boom")
	if _, err := svc.ListActiveGroupIDs(context.Background()); !errors.Is(err, repo.listErr) {
		t.Fatalf("expected wrapped list error, got %v", err)
	}
}
