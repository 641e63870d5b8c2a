package relay

import (
	"context"
	"fmt"
	"time"

	"dmexport-backend/lib/telemetry"

	"github.com/go-resty/resty/v2"
)

// Replier sends the single reply every webhook outcome produces.
type Replier interface {
	Reply(ctx context.Context, chatId int64, text string) error
}

type TelegramConfig struct {
	BotToken string `json:"bot_token"`
}

type TelegramReplier struct {
	http  *resty.Client
	token string
}

var _ Replier = TelegramReplier{}

func NewTelegramReplier(config TelegramConfig) TelegramReplier {
	client := resty.New()
	client.SetBaseURL("https://api.telegram.org")
	client.SetTimeout(time.Second * 15)

	telemetry.InstrumentResty(client, "services/relay/telegram")

	return TelegramReplier{http: client, token: config.BotToken}
}

func (r TelegramReplier) Reply(ctx context.Context, chatId int64, text string) error {
	res, err := r.http.R().
		SetContext(ctx).
		SetBody(map[string]any{
			"chat_id":                  chatId,
			"text":                     text,
			"disable_web_page_preview": true,
		}).
		Post(fmt.Sprintf("/bot%s/sendMessage", r.token))
	if err != nil {
		return err
	}
	if res.IsError() {
		return fmt.Errorf("telegram sendMessage: status %s: %s", res.Status(), res.String())
	}
	return nil
}
