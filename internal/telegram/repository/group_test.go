package repository

import (
	"context"
	"strings"
	"testing"
	"time"

	"gcast_bot/internal/telegram/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

func TestMongoGroupRepositoryCreateOrUpdate(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("success", func(mt *mtest.T) {
		repo := &MongoGroupRepository{collection: mt.Coll}
		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "n", Value: 1},
			bson.E{Key: "nModified", Value: 1},
		))

		group := &models.Group{
			TelegramID: -1001,
			Type:       "supergroup",
			Title:      "Test Group",
			BotStatus:  models.BotStatusActive,
		}

		if err := repo.CreateOrUpdate(context.Background(), group); err != nil {
			t.Fatalf("CreateOrUpdate failed: %v", err)
		}
		if group.UpdatedAt.IsZero() {
			t.Fatalf("expected updated_at to be set")
		}
	})

	mt.Run("update error", func(mt *mtest.T) {
		repo := &MongoGroupRepository{collection: mt.Coll}
		mt.AddMockResponses(mtest.CreateCommandErrorResponse(mtest.CommandError{
			Code:    123,
			Name:    "WriteError",
			Message: "mock write failure",
		}))

		err := repo.CreateOrUpdate(context.Background(), &models.Group{
			TelegramID: -1002,
			Type:       "supergroup",
			Title:      "Error Group",
			BotStatus:  models.BotStatusActive,
		})
		if err == nil {
			t.Fatalf("expected error but got nil")
		}
		if !strings.Contains(err.Error(), "failed to create or update group") {
			t.Fatalf("unexpected error: %v", err)
		}
	})
}

func TestMongoGroupRepositoryGetByTelegramID(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("success", func(mt *mtest.T) {
		repo := &MongoGroupRepository{collection: mt.Coll}
		now := time.Now().UTC().Truncate(time.Second)
		mt.AddMockResponses(mtest.CreateCursorResponse(
			0,
			groupNamespace(mt),
			mtest.FirstBatch,
			bson.D{
				{Key: "telegram_id", Value: int64(-2001)},
				{Key: "type", Value: "supergroup"},
				{Key: "title", Value: "Alpha"},
				{Key: "bot_status", Value: models.BotStatusActive},
				{Key: "created_at", Value: now},
				{Key: "updated_at", Value: now},
			},
		))

		group, err := repo.GetByTelegramID(context.Background(), -2001)
		if err != nil {
			t.Fatalf("GetByTelegramID failed: %v", err)
		}
		if group.Title != "Alpha" || !group.IsActive() {
			t.Fatalf("unexpected group: %+v", group)
		}
	})

	mt.Run("not found", func(mt *mtest.T) {
		repo := &MongoGroupRepository{collection: mt.Coll}
		mt.AddMockResponses(mtest.CreateCursorResponse(0, groupNamespace(mt), mtest.FirstBatch))

		_, err := repo.GetByTelegramID(context.Background(), -9999)
		if err == nil {
			t.Fatalf("expected error but got nil")
		}
		if !strings.Contains(err.Error(), "group not found") {
			t.Fatalf("unexpected error: %v", err)
		}
	})
}

func TestMongoGroupRepositoryMarkBotLeft(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("success", func(mt *mtest.T) {
		repo := &MongoGroupRepository{collection: mt.Coll}
		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "n", Value: 1},
			bson.E{Key: "nModified", Value: 1},
		))

		if err := repo.MarkBotLeft(context.Background(), -3001, models.BotStatusKicked); err != nil {
			t.Fatalf("MarkBotLeft failed: %v", err)
		}
	})

	mt.Run("not found", func(mt *mtest.T) {
		repo := &MongoGroupRepository{collection: mt.Coll}
		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "n", Value: 0},
			bson.E{Key: "nModified", Value: 0},
		))

		err := repo.MarkBotLeft(context.Background(), -3002, models.BotStatusLeft)
		if err == nil {
			t.Fatalf("expected error but got nil")
		}
		if !strings.Contains(err.Error(), "group not found") {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	mt.Run("update error", func(mt *mtest.T) {
		repo := &MongoGroupRepository{collection: mt.Coll}
		mt.AddMockResponses(mtest.CreateCommandErrorResponse(mtest.CommandError{
			Code:    112,
			Name:    "WriteConflict",
			Message: "mock write conflict",
		}))

		err := repo.MarkBotLeft(context.Background(), -3003, "")
		if err == nil {
			t.Fatalf("expected error but got nil")
		}
		if !strings.Contains(err.Error(), "failed to mark bot left") {
			t.Fatalf("unexpected error: %v", err)
		}
	})
}

func TestMongoGroupRepositoryListActiveGroupIDs(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("success", func(mt *mtest.T) {
		repo := &MongoGroupRepository{collection: mt.Coll}
		mt.AddMockResponses(mtest.CreateCursorResponse(
			0,
			groupNamespace(mt),
			mtest.FirstBatch,
			bson.D{{Key: "telegram_id", Value: int64(-100)}},
			bson.D{{Key: "telegram_id", Value: int64(-200)}},
		))

		ids, err := repo.ListActiveGroupIDs(context.Background())
		if err != nil {
			t.Fatalf("ListActiveGroupIDs failed: %v", err)
		}
		if len(ids) != 2 || ids[0] != -100 || ids[1] != -200 {
			t.Fatalf("unexpected ids: %v", ids)
		}
	})

	mt.Run("find error", func(mt *mtest.T) {
		repo := &MongoGroupRepository{collection: mt.Coll}
		mt.AddMockResponses(mtest.CreateCommandErrorResponse(mtest.CommandError{
			Code:    13,
			Name:    "Unauthorized",
			Message: "mock find error",
		}))

		_, err := repo.ListActiveGroupIDs(context.Background())
		if err == nil {
			t.Fatalf("expected error but got nil")
		}
		if !strings.Contains(err.Error(), "failed to list active groups") {
			t.Fatalf("unexpected error: %v", err)
		}
	})
}

func TestMongoGroupRepositoryEnsureIndexes(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("success", func(mt *mtest.T) {
		repo := &MongoGroupRepository{collection: mt.Coll}
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		if err := repo.EnsureIndexes(context.Background()); err != nil {
			t.Fatalf("EnsureIndexes failed: %v", err)
		}
	})

	mt.Run("create indexes error", func(mt *mtest.T) {
		repo := &MongoGroupRepository{collection: mt.Coll}
		mt.AddMockResponses(mtest.CreateCommandErrorResponse(mtest.CommandError{
			Code:    85,
			Name:    "IndexOptionsConflict",
			Message: "mock index error",
		}))

		err := repo.EnsureIndexes(context.Background())
		if err == nil {
			t.Fatalf("expected error but got nil")
		}
		if !strings.Contains(err.Error(), "failed to create indexes") {
			t.Fatalf("unexpected error: %v", err)
		}
	})
}

func groupNamespace(mt *mtest.T) string {
	return mt.DB.Name() + "." + mt.Coll.Name()
}
