package telegram

import (
	"context"
	"strconv"
	"time"

	"gcast_bot/internal/logger"

	"github.com/go-telegram/bot"
	botModels "github.com/go-telegram/bot/models"
	gocache "github.com/patrickmn/go-cache"
)

// chatAdminLister 拉取群管理员列表，*bot.Bot 满足此接口
type chatAdminLister interface {
	GetChatAdministrators(ctx context.Context, params *bot.GetChatAdministratorsParams) ([]botModels.ChatMember, error)
}

// adminCache 群管理员缓存（仅保存可管理语音聊天的管理员）
type adminCache struct {
	cache *gocache.Cache
	ttl   time.Duration
}

func newAdminCache(ttl time.Duration) *adminCache {
	return &adminCache{
		cache: gocache.New(ttl, ttl),
		ttl:   ttl,
	}
}

func adminCacheKey(chatID int64) string {
	return strconv.FormatInt(chatID, 10)
}

// Get 返回群的管理员 ID 列表
func (c *adminCache) Get(chatID int64) ([]int64, bool) {
	if c == nil {
		return nil, false
	}
	value, ok := c.cache.Get(adminCacheKey(chatID))
	if !ok {
		return nil, false
	}
	ids, ok := value.([]int64)
	return ids, ok
}

// Set 写入群的管理员 ID 列表
func (c *adminCache) Set(chatID int64, ids []int64) {
	if c == nil {
		return
	}
	c.cache.Set(adminCacheKey(chatID), ids, gocache.DefaultExpiration)
}

// Delete 移除群的缓存（Bot 离开群组时调用）
func (c *adminCache) Delete(chatID int64) {
	if c == nil {
		return
	}
	c.cache.Delete(adminCacheKey(chatID))
}

// IsAdmin 用户是否为群的缓存管理员
func (c *adminCache) IsAdmin(chatID, userID int64) bool {
	ids, ok := c.Get(chatID)
	if !ok {
		return false
	}
	for _, id := range ids {
		if id == userID {
			return true
		}
	}
	return false
}

// Len 已缓存的群数量
func (c *adminCache) Len() int {
	if c == nil {
		return 0
	}
	return c.cache.ItemCount()
}

// videoChatManagers 筛选可管理语音聊天的管理员（群主拥有全部权限）
func videoChatManagers(members []botModels.ChatMember) []int64 {
	ids := make([]int64, 0, len(members))
	for _, member := range members {
		switch member.Type {
		case botModels.ChatMemberTypeOwner:
			if member.Owner != nil && member.Owner.User != nil {
				ids = append(ids, member.Owner.User.ID)
			}
		case botModels.ChatMemberTypeAdministrator:
			if member.Administrator != nil && member.Administrator.CanManageVideoChats {
				ids = append(ids, member.Administrator.User.ID)
			}
		}
	}
	return ids
}

// adminCacheRefresher 定时为尚未缓存的活跃群加载管理员列表
type adminCacheRefresher struct {
	lister   chatAdminLister
	chats    func(ctx context.Context) ([]int64, error)
	cache    *adminCache
	interval time.Duration
	cancel   context.CancelFunc
	done     chan struct{}
}

func newAdminCacheRefresher(lister chatAdminLister, chats func(ctx context.Context) ([]int64, error), cache *adminCache, interval time.Duration) *adminCacheRefresher {
	return &adminCacheRefresher{
		lister:   lister,
		chats:    chats,
		cache:    cache,
		interval: interval,
	}
}

func (r *adminCacheRefresher) start() {
	if r == nil {
		return
	}
	if r.cancel != nil {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	r.cancel = cancel
	r.done = make(chan struct{})

	go r.run(ctx)
	logger.L().Infof("Admin cache refresher started: interval=%s", r.interval)
}

func (r *adminCacheRefresher) stop() {
	if r == nil {
		return
	}
	if r.cancel == nil {
		return
	}

	r.cancel()
	<-r.done
	r.cancel = nil
	r.done = nil
	logger.L().Info("Admin cache refresher stopped")
}

// run 启动时立即刷新一轮，之后按间隔刷新
func (r *adminCacheRefresher) run(ctx context.Context) {
	defer close(r.done)

	r.refresh(ctx)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.refresh(ctx)
		}
	}
}

// refresh 执行一轮刷新，返回本轮新加载的群数量
// 单个群加载失败只记录日志，不影响其余群
func (r *adminCacheRefresher) refresh(parent context.Context) int {
	if parent.Err() != nil {
		return 0
	}

	runCtx, cancel := context.WithTimeout(parent, 2*time.Minute)
	defer cancel()

	chatIDs, err := r.chats(runCtx)
	if err != nil {
		logger.L().Errorf("Admin cache refresh failed to list chats: %v", err)
		return 0
	}

	loaded := 0
	for _, chatID := range chatIDs {
		if runCtx.Err() != nil {
			logger.L().Warn("Admin cache refresh aborted: context canceled")
			return loaded
		}
		if _, ok := r.cache.Get(chatID); ok {
			continue
		}

		chatCtx, cancelChat := context.WithTimeout(runCtx, 15*time.Second)
		members, err := r.lister.GetChatAdministrators(chatCtx, &bot.GetChatAdministratorsParams{ChatID: chatID})
		cancelChat()
		if err != nil {
			logger.L().Debugf("Admin cache refresh skipped chat %d: %v", chatID, err)
			continue
		}

		r.cache.Set(chatID, videoChatManagers(members))
		loaded++
	}

	if loaded > 0 {
		logger.L().Infof("Admin cache refreshed: loaded=%d, cached=%d", loaded, r.cache.Len())
	}
	return loaded
}
