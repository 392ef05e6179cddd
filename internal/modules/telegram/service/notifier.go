package service

import (
	"context"
	"fmt"

	tgbot "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Send — сообщение оператору (чат из конфига). Пустой chatID — no-op,
// удобно в локальной отладке без оператора.
func (t *Telegram) Send(ctx context.Context, msg string) {
	chatID := t.cfg.Telegram.OperatorChatID
	if t.bot == nil || chatID == 0 {
		return
	}
	_, _ = t.bot.Send(tgbot.NewMessage(chatID, msg))
}

func (t *Telegram) Sendf(ctx context.Context, format string, args ...any) {
	t.Send(ctx, fmt.Sprintf(format, args...))
}
