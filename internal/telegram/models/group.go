package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Bot 状态常量
const (
	BotStatusActive = "active" // Bot 在群组中活跃
	BotStatusKicked = "kicked" // Bot 被踢出群组
	BotStatusLeft   = "left"   // Bot 主动离开群组
)

// Group 群组模型
// bot_status 为 active 的群组即为广播的 served chat
type Group struct {
	ID         primitive.ObjectID `bson:"_id,omitempty"`
	TelegramID int64              `bson:"telegram_id"`        // Telegram Chat ID（唯一）
	Type       string             `bson:"type"`               // 类型：group/supergroup/channel
	Title      string             `bson:"title"`              // 群组名称
	Username   string             `bson:"username,omitempty"` // 公开群组的 @username

	BotStatus   string     `bson:"bot_status"`            // Bot 状态：active/kicked/left
	BotJoinedAt time.Time  `bson:"bot_joined_at"`         // Bot 加入时间
	BotLeftAt   *time.Time `bson:"bot_left_at,omitempty"` // Bot 离开时间

	CreatedAt time.Time `bson:"created_at"` // 创建时间
	UpdatedAt time.Time `bson:"updated_at"` // 更新时间
}

// IsActive Bot 是否在群组中活跃
func (g *Group) IsActive() bool {
	return g.BotStatus == BotStatusActive
}

// BotStatusFromMemberType 将 Bot 在群内的成员状态映射为 bot_status
func BotStatusFromMemberType(memberType string) string {
	switch memberType {
	case "kicked", "banned":
		return BotStatusKicked
	case "left":
		return BotStatusLeft
	default:
		return BotStatusActive
	}
}
