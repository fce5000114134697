package notify

import (
	"context"
	"fmt"
	"strings"
	"time"

	"stoploss_tracker/internal/models"

	tgbot "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

type Notifier interface {
	Send(ctx context.Context, msg string)
	Sendf(ctx context.Context, format string, args ...any)
}

// EntrySource: откуда /positions берёт отслеживаемые записи.
type EntrySource interface {
	Entries() []models.RatchetEntry
}

// Telegram: пассивный нотифайер + обработка одной команды /positions.
type Telegram struct {
	bot     *tgbot.BotAPI
	chatID  int64
	entries EntrySource
	log     *zap.Logger
}

func NewTelegram(bot *tgbot.BotAPI, chatID int64, entries EntrySource, log *zap.Logger) *Telegram {
	return &Telegram{
		bot:     bot,
		chatID:  chatID,
		entries: entries,
		log:     log,
	}
}

// Send не возвращает ошибку: уведомление не должно ронять цикл.
func (t *Telegram) Send(_ context.Context, msg string) {
	if t == nil || t.bot == nil || t.chatID == 0 {
		return
	}
	if _, err := t.bot.Send(tgbot.NewMessage(t.chatID, msg)); err != nil {
		t.log.Warn("telegram send failed", zap.Error(err))
	}
}

func (t *Telegram) Sendf(ctx context.Context, format string, args ...any) {
	t.Send(ctx, fmt.Sprintf(format, args...))
}

// /positions: отслеживаемые стопы
func (t *Telegram) handlePositions(ctx context.Context) {
	if t.entries == nil {
		t.Send(ctx, "❗️ Хранилище стопов не инициализировано")
		return
	}
	t.Send(ctx, FormatEntries(t.entries.Entries()))
}

// Start: long-polling, только команды из своего чата.
func (t *Telegram) Start(ctx context.Context) {
	if t == nil || t.bot == nil {
		return
	}

	u := tgbot.NewUpdate(0)
	u.Timeout = 30
	u.AllowedUpdates = []string{"message"}

	updates := t.bot.GetUpdatesChan(u)
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case upd, ok := <-updates:
				if !ok {
					return
				}
				if upd.Message == nil || upd.Message.Chat == nil ||
					upd.Message.Chat.ID != t.chatID || !upd.Message.IsCommand() {
					continue
				}
				switch upd.Message.Command() {
				case "positions":
					t.handlePositions(ctx)
				}
			}
		}
	}()
}

func (t *Telegram) Stop() {
	if t == nil || t.bot == nil {
		return
	}
	t.bot.StopReceivingUpdates()
}

// FormatEntries: текст ответа на /positions.
func FormatEntries(entries []models.RatchetEntry) string {
	if len(entries) == 0 {
		return "📭 Отслеживаемых стопов нет"
	}

	var b strings.Builder
	b.WriteString("📊 Отслеживаемые стопы:\n")
	for _, e := range entries {
		orderID := "-"
		if e.OrderID != nil {
			orderID = *e.OrderID
		}
		fmt.Fprintf(&b, "- %s [%s] stop=%s mark=%s order=%s (%s)\n",
			e.Symbol, e.Side, e.StopPrice, e.MarkPrice, orderID,
			e.UpdatedTime().UTC().Format(time.DateTime))
	}
	return b.String()
}

// Log: нотифайер без Telegram, всё уходит в лог.
type Log struct {
	log *zap.Logger
}

func NewLog(log *zap.Logger) *Log { return &Log{log: log} }

func (l *Log) Send(_ context.Context, msg string) { l.log.Info("notify", zap.String("msg", msg)) }

func (l *Log) Sendf(ctx context.Context, format string, args ...any) {
	l.Send(ctx, fmt.Sprintf(format, args...))
}
