package telegram

import (
	"context"
	"fmt"
	"time"

	"gcast_bot/internal/broadcast"
	"gcast_bot/internal/config"
	"gcast_bot/internal/logger"
	"gcast_bot/internal/telegram/repository"
	"gcast_bot/internal/telegram/service"

	"github.com/go-telegram/bot"
	"go.mongodb.org/mongo-driver/mongo"
)

// Config Telegram Bot 配置
type Config struct {
	Token    string  // Bot Token
	OwnerIDs []int64 // Owner 用户 IDs
	Debug    bool    // 是否开启调试模式

	WorkerPoolSize       int           // Handler 工作池协程数
	WorkerQueueSize      int           // Handler 工作池队列长度
	AdminRefreshInterval time.Duration // 群管理员缓存刷新间隔
	SendRatePerSecond    int           // 全局发送速率（条/秒）

	Broadcast broadcast.Config
}

// Bot Telegram Bot 服务
type Bot struct {
	bot      *bot.Bot
	db       *mongo.Database
	ownerIDs []int64

	userRepo  repository.UserRepository
	groupRepo repository.GroupRepository

	userService  service.UserService
	groupService service.GroupService
	directory    broadcast.Directory

	engine         *broadcast.Engine
	workerPool     *WorkerPool
	adminCache     *adminCache
	adminRefresher *adminCacheRefresher
	startTime      time.Time
}

// New 创建 Telegram Bot 实例
func New(cfg Config, db *mongo.Database) (*Bot, error) {
	if cfg.Token == "" {
		return nil, fmt.Errorf("telegram token cannot be empty")
	}
	if cfg.AdminRefreshInterval <= 0 {
		cfg.AdminRefreshInterval = 5 * time.Minute
	}

	userRepo := repository.NewMongoUserRepository(db)
	groupRepo := repository.NewMongoGroupRepository(db)

	telegramBot := &Bot{
		db:           db,
		ownerIDs:     cfg.OwnerIDs,
		userRepo:     userRepo,
		groupRepo:    groupRepo,
		userService:  service.NewUserService(userRepo),
		groupService: service.NewGroupService(groupRepo),
		directory:    service.NewDirectoryService(userRepo, groupRepo),
		adminCache:   newAdminCache(2 * cfg.AdminRefreshInterval),
	}

	opts := []bot.Option{
		bot.WithDefaultHandler(telegramBot.handleDefault),
	}
	if cfg.Debug {
		opts = append(opts, bot.WithDebug())
	}

	b, err := bot.New(cfg.Token, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}
	telegramBot.bot = b

	transport := NewTransport(b, NewRateLimiter(cfg.SendRatePerSecond))
	telegramBot.engine = broadcast.NewEngine(transport, cfg.Broadcast)
	telegramBot.adminRefresher = newAdminCacheRefresher(b, telegramBot.groupService.ListActiveGroupIDs,
		telegramBot.adminCache, cfg.AdminRefreshInterval)

	// 初始化数据库索引
	if err := telegramBot.ensureIndexes(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to ensure indexes: %w", err)
	}

	// 初始化 owners
	if err := telegramBot.userService.InitOwners(context.Background(), cfg.OwnerIDs); err != nil {
		logger.L().Warnf("Failed to initialize owners: %v", err)
	}

	telegramBot.workerPool = NewWorkerPool(cfg.WorkerPoolSize, cfg.WorkerQueueSize)
	telegramBot.registerHandlers()

	logger.L().Info("Telegram bot initialized successfully")
	return telegramBot, nil
}

// InitFromConfig 从应用配置初始化 Telegram Bot
func InitFromConfig(cfg *config.Config, db *mongo.Database) (*Bot, error) {
	telegramCfg := Config{
		Token:                cfg.TelegramToken,
		OwnerIDs:             cfg.BotOwnerIDs,
		Debug:                false,
		WorkerPoolSize:       cfg.WorkerPoolSize,
		WorkerQueueSize:      cfg.WorkerQueueSize,
		AdminRefreshInterval: cfg.AdminRefreshInterval,
		SendRatePerSecond:    cfg.Broadcast.SendRatePerSecond,
		Broadcast: broadcast.Config{
			BatchSize:           cfg.Broadcast.BatchSize,
			BatchCooldown:       cfg.Broadcast.BatchCooldown,
			MaxFloodWait:        cfg.Broadcast.MaxFloodWait,
			MaxRateLimitRetries: cfg.Broadcast.MaxRateLimitRetries,
		},
	}
	return New(telegramCfg, db)
}

// Start 启动 Bot（阻塞式，应在 goroutine 中运行）
func (b *Bot) Start(ctx context.Context) error {
	logger.L().Info("Starting Telegram bot...")
	b.startTime = time.Now()
	b.adminRefresher.start()
	b.bot.Start(ctx)
	logger.L().Info("Telegram bot stopped")
	return nil
}

// Stop 停止 Bot
// 轮询通过 context 取消停止，这里取消进行中的广播并释放后台任务
func (b *Bot) Stop(ctx context.Context) error {
	logger.L().Info("Stopping Telegram bot...")
	if b.engine.Cancel() {
		logger.L().Info("Active broadcast cancelled on shutdown")
	}
	b.adminRefresher.stop()
	b.workerPool.Shutdown()
	return nil
}

// ensureIndexes 确保所有数据库索引存在
func (b *Bot) ensureIndexes(ctx context.Context) error {
	if err := b.userRepo.EnsureIndexes(ctx); err != nil {
		return fmt.Errorf("failed to ensure user indexes: %w", err)
	}
	logger.L().Debug("User indexes ensured")

	if err := b.groupRepo.EnsureIndexes(ctx); err != nil {
		return fmt.Errorf("failed to ensure group indexes: %w", err)
	}
	logger.L().Debug("Group indexes ensured")

	return nil
}
