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

// MongoUserRepository 用户数据访问层
type MongoUserRepository struct {
	collection *mongo.Collection
}

// NewMongoUserRepository 创建用户 Repository
func NewMongoUserRepository(db *mongo.Database) *MongoUserRepository {
	return &MongoUserRepository{
		collection: db.Collection("users"),
	}
}

// CreateOrUpdate 创建或更新用户
func (r *MongoUserRepository) CreateOrUpdate(ctx context.Context, user *models.User) error {
	now := time.Now()
	user.UpdatedAt = now

	filter := bson.M{"telegram_id": user.TelegramID}

	setFields := bson.M{
		"username":       user.Username,
		"first_name":     user.FirstName,
		"last_name":      user.LastName,
		"language_code":  user.LanguageCode,
		"updated_at":     user.UpdatedAt,
		"last_active_at": user.LastActiveAt,
	}

	setOnInsert := bson.M{
		"created_at": now,
	}

	// 指定了角色（如初始化 owner）时覆盖，否则新用户默认为普通用户
	if user.Role != "" {
		setFields["role"] = user.Role
	} else {
		setOnInsert["role"] = models.RoleUser
	}

	update := bson.M{
		"$set":         setFields,
		"$setOnInsert": setOnInsert,
	}

	opts := options.Update().SetUpsert(true)
	_, err := r.collection.UpdateOne(ctx, filter, update, opts)
	if err != nil {
		return fmt.Errorf("failed to create or update user: %w", err)
	}

	return nil
}

// GetByTelegramID 根据 Telegram ID 获取用户
func (r *MongoUserRepository) GetByTelegramID(ctx context.Context, telegramID int64) (*models.User, error) {
	var user models.User
	err := r.collection.FindOne(ctx, bson.M{"telegram_id": telegramID}).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("user not found: %d", telegramID)
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &user, nil
}

// GrantAdmin 授予管理员权限
func (r *MongoUserRepository) GrantAdmin(ctx context.Context, telegramID int64, grantedBy int64) error {
	now := time.Now()
	filter := bson.M{"telegram_id": telegramID}
	update := bson.M{
		"$set": bson.M{
			"role":       models.RoleAdmin,
			"granted_by": grantedBy,
			"granted_at": now,
			"updated_at": now,
		},
	}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to grant admin: %w", err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("user not found: %d", telegramID)
	}
	return nil
}

// RevokeAdmin 撤销管理员权限
func (r *MongoUserRepository) RevokeAdmin(ctx context.Context, telegramID int64) error {
	filter := bson.M{"telegram_id": telegramID}
	update := bson.M{
		"$set": bson.M{
			"role":       models.RoleUser,
			"updated_at": time.Now(),
		},
		"$unset": bson.M{
			"granted_by": "",
			"granted_at": "",
		},
	}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to revoke admin: %w", err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("user not found: %d", telegramID)
	}
	return nil
}

// ListAdmins 列出所有管理员
func (r *MongoUserRepository) ListAdmins(ctx context.Context) ([]*models.User, error) {
	filter := bson.M{
		"role": bson.M{
			"$in": []string{models.RoleOwner, models.RoleAdmin},
		},
	}

	cursor, err := r.collection.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list admins: %w", err)
	}
	defer cursor.Close(ctx)

	var admins []*models.User
	if err := cursor.All(ctx, &admins); err != nil {
		return nil, fmt.Errorf("failed to decode admins: %w", err)
	}

	return admins, nil
}

// ListUserIDs 按登记顺序列出所有用户 ID
func (r *MongoUserRepository) ListUserIDs(ctx context.Context) ([]int64, error) {
	opts := options.Find().
		SetProjection(bson.M{"telegram_id": 1}).
		SetSort(bson.D{{Key: "_id", Value: 1}})

	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer cursor.Close(ctx)

	return decodeTelegramIDs(ctx, cursor, "users")
}

// EnsureIndexes 确保索引存在
func (r *MongoUserRepository) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "telegram_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "role", Value: 1}},
		},
	}

	_, err := r.collection.Indexes().CreateMany(ctx, indexes)
	if err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}

	return nil
}

// telegramIDDoc 仅投影 telegram_id 的文档
type telegramIDDoc struct {
	TelegramID int64 `bson:"telegram_id"`
}

func decodeTelegramIDs(ctx context.Context, cursor *mongo.Cursor, what string) ([]int64, error) {
	var docs []telegramIDDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", what, err)
	}

	ids := make([]int64, 0, len(docs))
	for _, doc := range docs {
		ids = append(ids, doc.TelegramID)
	}
	return ids, nil
}
