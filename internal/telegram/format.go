package telegram

import (
	"errors"
	"fmt"
	"html"
	"math"
	"strconv"
	"strings"
	"time"

	"gcast_bot/internal/broadcast"
)

const failedListLimit = 50

var errBroadcastUsage = errors.New("broadcast usage")

// broadcastRequest /broadcast 命令解析结果
type broadcastRequest struct {
	Audience broadcast.Audience
	Mode     broadcast.Mode
	Text     string // 未回复消息时使用的文本内容
}

// parseBroadcastCommand 解析 /broadcast 命令
// 格式: /broadcast -all|-users|-chats [-forward] [text]
// 标志位必须位于文本之前，大小写不敏感，文本保留原始换行
func parseBroadcastCommand(text string) (broadcastRequest, error) {
	req := broadcastRequest{Mode: broadcast.ModeCopy}

	rest := strings.TrimLeft(text, " \t\n")
	_, rest = nextToken(rest) // 命令本身（可能带 @botname）

	var all, users, chats bool
	for {
		token, remain := nextToken(rest)
		if token == "" {
			break
		}

		switch strings.ToLower(token) {
		case "-all":
			all = true
		case "-users":
			users = true
		case "-chats":
			chats = true
		case "-forward":
			req.Mode = broadcast.ModeForward
		default:
			req.Text = strings.TrimSpace(rest)
			remain = ""
		}
		if remain == "" {
			break
		}
		rest = remain
	}

	switch {
	case all:
		req.Audience = broadcast.AudienceAll
	case users:
		req.Audience = broadcast.AudienceUsers
	case chats:
		req.Audience = broadcast.AudienceChats
	default:
		return broadcastRequest{}, errBroadcastUsage
	}

	return req, nil
}

// nextToken 切分出首个空白分隔的 token，返回 token 与剩余文本
func nextToken(s string) (string, string) {
	s = strings.TrimLeft(s, " \t\n")
	if s == "" {
		return "", ""
	}
	idx := strings.IndexAny(s, " \t\n")
	if idx < 0 {
		return s, ""
	}
	return s[:idx], s[idx:]
}

// formatETA 格式化剩余时间为 "Xm Ys"
func formatETA(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int(d / time.Second)
	return fmt.Sprintf("%dm %ds", total/60, total%60)
}

func formatSeconds(d time.Duration) string {
	return fmt.Sprintf("%ds", int(math.Round(d.Seconds())))
}

func formatPercent(p float64) string {
	return strconv.FormatFloat(p, 'f', -1, 64) + "%"
}

// progressLines 进度条、批次、成功/失败、ETA、已用时间
func progressLines(snap broadcast.Snapshot) []string {
	return []string{
		fmt.Sprintf("%s <code>%s</code>", broadcast.ProgressBar(snap.Percent), formatPercent(snap.Percent)),
		fmt.Sprintf("📦 批次: <code>%d/%d</code>", snap.CurrentBatch, snap.TotalBatches),
		fmt.Sprintf("✅ 成功: <code>%d</code>", snap.Sent),
		fmt.Sprintf("🚫 失败: <code>%d</code>", snap.Failed),
		fmt.Sprintf("⏱ 预计剩余: <code>%s</code>", formatETA(snap.ETA)),
		fmt.Sprintf("🕒 已用时间: <code>%s</code>", formatSeconds(snap.Elapsed)),
	}
}

// formatProgressMessage 每批次结束后编辑的进度消息
func formatProgressMessage(snap broadcast.Snapshot) string {
	lines := []string{"📣 <b>广播进度</b>", ""}
	lines = append(lines, progressLines(snap)...)
	lines = append(lines, "", "<b>⚙️ 取消广播: /cancel_gcast</b>")
	return strings.Join(lines, "\n")
}

// formatStatusMessage /status 命令的响应
func formatStatusMessage(snap broadcast.Snapshot) string {
	lines := []string{"📊 <b>广播状态</b>", ""}
	lines = append(lines, progressLines(snap)...)
	return strings.Join(lines, "\n")
}

// formatSummaryMessage 运行结束后的汇总
func formatSummaryMessage(summary broadcast.Summary) string {
	title := "✅ <b>广播完成！</b>"
	if summary.Cancelled {
		title = "🛑 <b>广播已取消</b>"
	}

	lines := []string{
		title,
		"",
		fmt.Sprintf("🔘 模式: <code>%s</code>", summary.Mode),
		fmt.Sprintf("📦 目标总数: <code>%d</code>", summary.Total),
		fmt.Sprintf("📬 已送达: <code>%d</code>", summary.Sent),
		fmt.Sprintf("    ├ 用户: <code>%d</code>", summary.SentUsers),
		fmt.Sprintf("    └ 群组: <code>%d</code>", summary.SentChats),
		fmt.Sprintf("🚫 失败: <code>%d</code>", summary.Failed),
		fmt.Sprintf("⏰ 耗时: <code>%s</code>", formatSeconds(summary.Elapsed)),
	}

	if summary.Failed > 0 {
		lines = append(lines, "", "⚙️ 部分目标发送失败，使用 /failed_gcast 查看详情")
	}
	return strings.Join(lines, "\n")
}

// formatFailedTargets /failed_gcast 命令的响应，最多列出 failedListLimit 条
func formatFailedTargets(targets []broadcast.FailedTarget, total int) string {
	if total == 0 {
		return "✅ 最近一次广播没有失败的目标"
	}

	var text strings.Builder
	text.WriteString(fmt.Sprintf("🚫 <b>失败目标 (%d)</b>\n\n", total))
	for i, target := range targets {
		if i > 0 {
			text.WriteString("\n")
		}
		text.WriteString(fmt.Sprintf("• <code>%d</code>: %s", target.Endpoint.ID, html.EscapeString(target.Reason)))
	}

	if total > len(targets) {
		text.WriteString(fmt.Sprintf("\n\n... and %d more", total-len(targets)))
	}
	return text.String()
}

// formatEngineStatus /ping 中的广播状态和批次配置
func formatEngineStatus(current broadcast.Snapshot, active bool, last broadcast.Snapshot, cfg broadcast.Config) []string {
	lines := make([]string, 0, 2)
	switch {
	case active:
		lines = append(lines, fmt.Sprintf("📣 广播: 进行中 %s（批次 %d/%d）", formatPercent(current.Percent), current.CurrentBatch, current.TotalBatches))
	case !last.StartedAt.IsZero():
		lines = append(lines, fmt.Sprintf("📣 广播: 空闲（上次成功 %d，失败 %d，耗时 %s）", last.Sent, last.Failed, formatSeconds(last.Elapsed)))
	default:
		lines = append(lines, "📣 广播: 空闲")
	}
	lines = append(lines, fmt.Sprintf("📦 批次配置: 每批 %d 个，冷却 %s", cfg.BatchSize, cfg.BatchCooldown))
	return lines
}

// broadcastErrorMessage 将引擎错误转换为回复文本
func broadcastErrorMessage(err error) string {
	var dirErr *broadcast.DirectoryError
	switch {
	case errors.Is(err, broadcast.ErrAlreadyRunning):
		return "🚫 已有广播正在进行中"
	case errors.As(err, &dirErr):
		return "🚫 获取接收者列表失败"
	case errors.Is(err, broadcast.ErrNoRecipients):
		return "🚫 没有找到接收者"
	case errors.Is(err, broadcast.ErrNoContent):
		return "📝 请提供消息内容或回复一条消息"
	default:
		return "🚫 广播启动失败"
	}
}

const broadcastUsageText = "⚙️ 用法:\n/broadcast -all|-users|-chats [-forward] [文本]\n回复一条消息可广播该消息"
