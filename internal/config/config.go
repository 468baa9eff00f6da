package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config 应用程序配置
type Config struct {
	TelegramToken string  // Telegram Bot API Token
	BotOwnerIDs   []int64 // Bot 所有者 ID 列表（拥有广播权限）
	MongoURI      string  // MongoDB 连接 URI
	MongoDBName   string  // MongoDB 数据库名称

	WorkerPoolSize       int           // Handler 工作池协程数
	WorkerQueueSize      int           // Handler 工作池队列长度
	AdminRefreshInterval time.Duration // 群管理员缓存刷新间隔

	Broadcast BroadcastConfig
}

// BroadcastConfig 广播引擎相关配置
type BroadcastConfig struct {
	BatchSize           int           // 每批接收端数量
	BatchCooldown       time.Duration // 批次之间的冷却时间
	MaxFloodWait        time.Duration // 单次限流等待上限
	MaxRateLimitRetries int           // 单个接收端限流重试上限，0 表示不限
	SendRatePerSecond   int           // 全局发送速率（条/秒）
}

// Load 从环境变量加载配置
// 若当前目录存在 .env 文件，会先加载（不覆盖已有环境变量）
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	mongoDBName := os.Getenv("MONGO_DB_NAME")
	if mongoDBName == "" {
		mongoDBName = "gcast_bot"
	}

	cfg := &Config{
		TelegramToken: os.Getenv("TELEGRAM_TOKEN"),
		MongoURI:      os.Getenv("MONGO_URI"),
		MongoDBName:   mongoDBName,
	}

	// 解析BOT_OWNER_IDS
	ownerIDsStr := os.Getenv("BOT_OWNER_IDS")
	if ownerIDsStr != "" {
		var err error
		cfg.BotOwnerIDs, err = parseOwnerIDs(ownerIDsStr)
		if err != nil {
			return nil, fmt.Errorf("failed to parse BOT_OWNER_IDS: %w", err)
		}
	}

	var err error
	if cfg.WorkerPoolSize, err = intEnv("WORKER_POOL_SIZE", 10, 1); err != nil {
		return nil, err
	}
	if cfg.WorkerQueueSize, err = intEnv("WORKER_QUEUE_SIZE", 100, 1); err != nil {
		return nil, err
	}

	refreshSeconds, err := intEnv("ADMIN_REFRESH_INTERVAL_SECONDS", 300, 1)
	if err != nil {
		return nil, err
	}
	cfg.AdminRefreshInterval = time.Duration(refreshSeconds) * time.Second

	broadcastCfg, err := loadBroadcastConfig()
	if err != nil {
		return nil, err
	}
	cfg.Broadcast = broadcastCfg

	return cfg, nil
}

func loadBroadcastConfig() (BroadcastConfig, error) {
	var cfg BroadcastConfig
	var err error

	if cfg.BatchSize, err = intEnv("BROADCAST_BATCH_SIZE", 100, 1); err != nil {
		return BroadcastConfig{}, err
	}

	cooldownMS, err := intEnv("BROADCAST_BATCH_COOLDOWN_MS", 1500, 0)
	if err != nil {
		return BroadcastConfig{}, err
	}
	cfg.BatchCooldown = time.Duration(cooldownMS) * time.Millisecond

	floodWait, err := intEnv("BROADCAST_MAX_FLOOD_WAIT_SECONDS", 60, 1)
	if err != nil {
		return BroadcastConfig{}, err
	}
	cfg.MaxFloodWait = time.Duration(floodWait) * time.Second

	// 默认不限制重试次数：持续限流的接收端会一直等待
	if cfg.MaxRateLimitRetries, err = intEnv("BROADCAST_MAX_RATE_LIMIT_RETRIES", 0, 0); err != nil {
		return BroadcastConfig{}, err
	}

	if cfg.SendRatePerSecond, err = intEnv("BROADCAST_SEND_RATE_PER_SECOND", 30, 1); err != nil {
		return BroadcastConfig{}, err
	}

	return cfg, nil
}

// intEnv 读取整数环境变量，未设置时返回默认值，小于 min 视为错误
func intEnv(key string, def, min int) (int, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def, nil
	}

	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("failed to parse %s: %w", key, err)
	}
	if value < min {
		return 0, fmt.Errorf("%s must be >= %d, got %d", key, min, value)
	}
	return value, nil
}

// parseOwnerIDs 解析逗号分隔的用户ID字符串
// 支持格式: "123456789" 或 "123456789,987654321"
func parseOwnerIDs(s string) ([]int64, error) {
	parts := strings.Split(s, ",")
	ids := make([]int64, 0, len(parts))

	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid owner ID %q: %w", part, err)
		}
		ids = append(ids, id)
	}

	return ids, nil
}
