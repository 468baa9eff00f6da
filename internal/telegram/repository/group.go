package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gcast_bot/internal/telegram/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoGroupRepository 群组数据访问层
type MongoGroupRepository struct {
	collection *mongo.Collection
}

// NewMongoGroupRepository 创建群组 Repository
func NewMongoGroupRepository(db *mongo.Database) *MongoGroupRepository {
	return &MongoGroupRepository{
		collection: db.Collection("groups"),
	}
}

// CreateOrUpdate 创建或更新群组
func (r *MongoGroupRepository) CreateOrUpdate(ctx context.Context, group *models.Group) error {
	now := time.Now()
	group.UpdatedAt = now

	filter := bson.M{"telegram_id": group.TelegramID}

	setFields := bson.M{
		"type":       group.Type,
		"title":      group.Title,
		"username":   group.Username,
		"bot_status": group.BotStatus,
		"updated_at": group.UpdatedAt,
	}

	setOnInsert := bson.M{
		"created_at": now,
	}

	// 指定了 BotJoinedAt 时覆盖，否则仅在首次插入时记录
	if !group.BotJoinedAt.IsZero() {
		setFields["bot_joined_at"] = group.BotJoinedAt
	} else {
		setOnInsert["bot_joined_at"] = now
	}

	update := bson.M{
		"$set":         setFields,
		"$setOnInsert": setOnInsert,
		"$unset": bson.M{
			"bot_left_at": "",
		},
	}

	opts := options.Update().SetUpsert(true)
	_, err := r.collection.UpdateOne(ctx, filter, update, opts)
	if err != nil {
		return fmt.Errorf("failed to create or update group: %w", err)
	}

	return nil
}

// GetByTelegramID 根据 Telegram ID 获取群组
func (r *MongoGroupRepository) GetByTelegramID(ctx context.Context, telegramID int64) (*models.Group, error) {
	var group models.Group
	err := r.collection.FindOne(ctx, bson.M{"telegram_id": telegramID}).Decode(&group)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("group not found: %d", telegramID)
		}
		return nil, fmt.Errorf("failed to get group: %w", err)
	}
	return &group, nil
}

// MarkBotLeft 标记 Bot 离开群组（left / kicked）
func (r *MongoGroupRepository) MarkBotLeft(ctx context.Context, telegramID int64, status string) error {
	if status == "" || status == models.BotStatusActive {
		status = models.BotStatusLeft
	}

	now := time.Now()
	filter := bson.M{"telegram_id": telegramID}
	update := bson.M{
		"$set": bson.M{
			"bot_status":  status,
			"bot_left_at": now,
			"updated_at":  now,
		},
	}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to mark bot left: %w", err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("group not found: %d", telegramID)
	}
	return nil
}

// ListActiveGroupIDs 按登记顺序列出所有活跃群组 ID
func (r *MongoGroupRepository) ListActiveGroupIDs(ctx context.Context) ([]int64, error) {
	filter := bson.M{"bot_status": models.BotStatusActive}
	opts := options.Find().
		SetProjection(bson.M{"telegram_id": 1}).
		SetSort(bson.D{{Key: "_id", Value: 1}})

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list active groups: %w", err)
	}
	defer cursor.Close(ctx)

	return decodeTelegramIDs(ctx, cursor, "groups")
}

// EnsureIndexes 确保索引存在
func (r *MongoGroupRepository) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "telegram_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "bot_status", Value: 1}},
		},
	}

	_, err := r.collection.Indexes().CreateMany(ctx, indexes)
	if err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}

	return nil
}
