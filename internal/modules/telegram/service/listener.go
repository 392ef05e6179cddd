package service

import (
	"context"
	"time"

	tgbot "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"signal_bot/internal/models"
	"signal_bot/internal/modules/config"
	"signal_bot/internal/signal"
	"signal_bot/pkg/logger"
)

// Telegram слушает настроенные каналы и фильтром классификатора отбирает
// сообщения, похожие на сигнал. Всё остальное молча игнорируется.
type Telegram struct {
	bot  *tgbot.BotAPI
	cfg  *config.Config
	sigs chan<- models.RawSignal

	cancel context.CancelFunc
}

func NewTelegram(cfg *config.Config, sigs chan models.RawSignal) (*Telegram, error) {
	b, err := tgbot.NewBotAPI(cfg.Telegram.Token)
	if err != nil {
		return nil, err
	}
	return &Telegram{
		bot:  b,
		cfg:  cfg,
		sigs: sigs,
	}, nil
}

func (t *Telegram) Start(parent context.Context) {
	ctx, cancel := context.WithCancel(parent)
	t.cancel = cancel

	u := tgbot.NewUpdate(0)
	u.Timeout = 30
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
				t.onUpdate(ctx, upd)
			}
		}
	}()
}

func (t *Telegram) Stop() {
	if t.cancel != nil {
		t.cancel()
	}
	t.bot.StopReceivingUpdates()
}

func (t *Telegram) onUpdate(ctx context.Context, upd tgbot.Update) {
	msg := upd.ChannelPost
	if msg == nil {
		msg = upd.Message
	}
	if msg == nil || msg.Text == "" {
		return
	}

	dialect := t.cfg.DialectFor(msg.Chat.ID)
	if dialect == 0 {
		return // канал не отслеживается
	}

	if !signal.IsSignal(msg.Text) {
		logger.Debug("chat %d msg %d: no sl/tp markers, ignored", msg.Chat.ID, msg.MessageID)
		return
	}

	raw := models.RawSignal{
		MessageID: int64(msg.MessageID),
		ChannelID: msg.Chat.ID,
		Dialect:   dialect,
		Text:      msg.Text,
		Author:    msg.Chat.Title,
		At:        time.Unix(int64(msg.Date), 0),
	}

	logger.Info("[SIGNAL] chat=%d dialect=%s msg=%d", raw.ChannelID, dialect, raw.MessageID)
	select {
	case t.sigs <- raw:
	case <-ctx.Done():
	default:
		// очередь забита — дропаем, сигнал протухнет быстрее, чем дойдёт
		logger.Error("signal queue full, dropping msg %d from chat %d", raw.MessageID, raw.ChannelID)
	}
}
