package notify

import (
	"context"
	"fmt"
	"log"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

type Infra struct {
	bot         *tgbotapi.BotAPI
	adminChatID int64
}

// NewInfra — без токена работает вхолостую (только лог), чтобы локальный
// запуск не требовал телеграма.
func NewInfra(token string, adminChatID int64) *Infra {
	if token == "" {
		return &Infra{adminChatID: adminChatID}
	}
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		log.Printf("[notify] bot init fail: %v", err)
		return &Infra{adminChatID: adminChatID}
	}
	return &Infra{bot: bot, adminChatID: adminChatID}
}

func (i *Infra) Notify(ctx context.Context, source string, err error, details string) error {
	text := fmt.Sprintf(
		"❗ Ошибка (%s)\n\nОшибка: %v\n\nДетали: %s",
		source,
		err,
		details,
	)

	if i.bot == nil || i.adminChatID == 0 {
		log.Printf("[notify] %s", text)
		return nil
	}

	msg := tgbotapi.NewMessage(i.adminChatID, text)

	_, sendErr := i.bot.Send(msg)
	if sendErr != nil {
		log.Printf("[notify] send fail: %v", sendErr)
		return sendErr
	}

	return nil
}
