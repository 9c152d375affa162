package notify

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"questcycle/internal/model"
	"questcycle/internal/service"

	"github.com/goccy/go-json"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Telegram rejects longer messages.
const maxMessageLength = 4096

type Config struct {
	TelegramBotToken string `mapstructure:"telegramBotToken"`
	TelegramChatID   int64  `mapstructure:"telegramChatID"`
	// APIEndpoint overrides tgbotapi.APIEndpoint.
	APIEndpoint string `mapstructure:"apiEndpoint"`
	Debug       bool   `mapstructure:"debug"`
}

type NopAlerter struct{}

func (NopAlerter) Alert(context.Context, string, *model.JobReport) error { return nil }

// New returns a TelegramAlerter when a bot token and chat are configured,
// and a NopAlerter otherwise.
func New(cfg Config) (service.Alerter, error) {
	if cfg.TelegramBotToken == "" || cfg.TelegramChatID == 0 {
		return NopAlerter{}, nil
	}
	return NewTelegramAlerter(cfg, nil)
}

type TelegramAlerter struct {
	bot    *tgbotapi.BotAPI
	chatID int64
}

func NewTelegramAlerter(cfg Config, client *http.Client) (*TelegramAlerter, error) {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	endpoint := cfg.APIEndpoint
	if endpoint == "" {
		endpoint = tgbotapi.APIEndpoint
	}

	bot, err := tgbotapi.NewBotAPIWithClient(cfg.TelegramBotToken, endpoint, client)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize bot: %w", err)
	}

	bot.Debug = cfg.Debug

	return &TelegramAlerter{
		bot:    bot,
		chatID: cfg.TelegramChatID,
	}, nil
}

func (a *TelegramAlerter) Alert(ctx context.Context, job string, report *model.JobReport) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	text, err := FormatReport(job, report)
	if err != nil {
		return err
	}

	if _, err := a.bot.Send(tgbotapi.NewMessage(a.chatID, text)); err != nil {
		return fmt.Errorf("failed to send alert: %w", err)
	}
	return nil
}

// FormatReport renders a short headline followed by the report as JSON.
func FormatReport(job string, report *model.JobReport) (string, error) {
	payload, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode report: %w", err)
	}

	state := "finished with errors"
	if report.Aborted() {
		state = "aborted"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Job %s %s (%d errors)\n\n", job, state, report.ErrorCount())
	b.Write(payload)

	text := b.String()
	if len(text) > maxMessageLength {
		text = text[:maxMessageLength-4]
		for !utf8.ValidString(text) {
			text = text[:len(text)-1]
		}
		text += "\n..."
	}
	return text, nil
}
