//go:build integration

package integration

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"gcast_bot/internal/broadcast"
	mongoclient "gcast_bot/internal/mongo"
	"gcast_bot/internal/telegram/models"
	"gcast_bot/internal/telegram/repository"
	"gcast_bot/internal/telegram/service"

	mongodriver "go.mongodb.org/mongo-driver/mongo"
)

type recordingTransport struct {
	mu   sync.Mutex
	sent []int64
}

func (r *recordingTransport) SendText(ctx context.Context, chatID int64, text string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, chatID)
	return nil
}

func (r *recordingTransport) Forward(ctx context.Context, chatID int64, src broadcast.MessageRef) error {
	return r.SendText(ctx, chatID, "")
}

func (r *recordingTransport) Copy(ctx context.Context, chatID int64, src broadcast.MessageRef) error {
	return r.SendText(ctx, chatID, "")
}

func TestDirectoryBroadcastIntegrationFlow(t *testing.T) {
	t.Parallel()

	db := setupIntegrationDatabase(t)
	userRepo := repository.NewMongoUserRepository(db)
	groupRepo := repository.NewMongoGroupRepository(db)

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := userRepo.EnsureIndexes(ctx); err != nil {
		t.Fatalf("failed to ensure user indexes: %v", err)
	}
	if err := groupRepo.EnsureIndexes(ctx); err != nil {
		t.Fatalf("failed to ensure group indexes: %v", err)
	}

	userService := service.NewUserService(userRepo)
	groupService := service.NewGroupService(groupRepo)

	for _, id := range []int64{101, 102, 103} {
		if err := userService.RegisterOrUpdateUser(ctx, &service.TelegramUserInfo{TelegramID: id, FirstName: "user"}); err != nil {
			t.Fatalf("failed to register user %d: %v", id, err)
		}
	}
	// 重复登记不应产生重复接收者
	if err := userService.RegisterOrUpdateUser(ctx, &service.TelegramUserInfo{TelegramID: 101, FirstName: "again"}); err != nil {
		t.Fatalf("failed to re-register user: %v", err)
	}

	for _, id := range []int64{-1001, -1002} {
		if err := groupService.HandleBotAddedToGroup(ctx, &service.TelegramChatInfo{ChatID: id, Type: "supergroup", Title: "group"}); err != nil {
			t.Fatalf("failed to register chat %d: %v", id, err)
		}
	}
	if err := groupService.HandleBotRemovedFromGroup(ctx, -1002, "kicked"); err != nil {
		t.Fatalf("failed to unregister chat: %v", err)
	}

	group, err := groupRepo.GetByTelegramID(ctx, -1002)
	if err != nil {
		t.Fatalf("failed to load group: %v", err)
	}
	if group.BotStatus != models.BotStatusKicked || group.BotLeftAt == nil {
		t.Fatalf("expected kicked group with left time, got %+v", group)
	}

	dir := service.NewDirectoryService(userRepo, groupRepo)
	users, err := dir.ListServedUsers(ctx)
	if err != nil {
		t.Fatalf("failed to list served users: %v", err)
	}
	if len(users) != 3 || users[0] != 101 {
		t.Fatalf("unexpected served users: %v", users)
	}
	chats, err := dir.ListServedChats(ctx)
	if err != nil {
		t.Fatalf("failed to list served chats: %v", err)
	}
	if len(chats) != 1 || chats[0] != -1001 {
		t.Fatalf("unexpected served chats: %v", chats)
	}

	transport := &recordingTransport{}
	engine := broadcast.NewEngine(transport, broadcast.Config{BatchSize: 2})
	summary, err := engine.StartFromDirectory(ctx, dir, broadcast.AudienceAll, broadcast.TextContent("hello"), broadcast.ModeCopy, nil)
	if err != nil {
		t.Fatalf("broadcast failed: %v", err)
	}
	if summary.Total != 4 || summary.Sent != 4 || summary.SentUsers != 3 || summary.SentChats != 1 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
	if summary.TotalBatches != 2 {
		t.Fatalf("expected 2 batches, got %d", summary.TotalBatches)
	}
}

func setupIntegrationDatabase(t *testing.T) *mongodriver.Database {
	t.Helper()

	uri := envOrDefault("MONGO_URI", "mongodb://localhost:27017")
	baseDatabase := envOrDefault("TEST_DATABASE", "test_gcast_bot")
	databaseName := fmt.Sprintf("%s_%d", baseDatabase, time.Now().UnixNano())

	client, err := mongoclient.NewClient(mongoclient.Config{
		URI:      uri,
		Database: databaseName,
		Timeout:  5 * time.Second,
	})
	if err != nil {
		if isCIEnvironment() {
			t.Fatalf("failed to connect MongoDB in CI: %v", err)
		}
		t.Skipf("MongoDB is not available locally, skip integration test: %v", err)
		return nil
	}

	db := client.Database()
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := db.Drop(ctx); err != nil {
			t.Errorf("failed to drop integration database %s: %v", databaseName, err)
		}
		if err := client.Close(ctx); err != nil {
			t.Errorf("failed to close MongoDB connection: %v", err)
		}
	})

	return db
}

func envOrDefault(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func isCIEnvironment() bool {
	return os.Getenv("CI") == "true" || os.Getenv("GITHUB_ACTIONS") == "true"
}
