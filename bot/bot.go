package bot

import (
	"context"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/aliyevk/codedesk-backend/internal/batches"
	"github.com/aliyevk/codedesk-backend/internal/codes"
	"github.com/aliyevk/codedesk-backend/internal/finance"
	"github.com/aliyevk/codedesk-backend/internal/market"
	"github.com/aliyevk/codedesk-backend/internal/payouts"
	"github.com/aliyevk/codedesk-backend/internal/sessions"
	"github.com/aliyevk/codedesk-backend/internal/users"
	"github.com/aliyevk/codedesk-backend/pkg/config"
	apperrors "github.com/aliyevk/codedesk-backend/pkg/errors"
	"github.com/aliyevk/codedesk-backend/pkg/keyedmutex"
	"github.com/aliyevk/codedesk-backend/pkg/logger"
	"github.com/aliyevk/codedesk-backend/pkg/metrics"
)

// sender is the slice of the Telegram API the handlers use. The real
// tgbotapi client satisfies it; tests plug in a recorder.
type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// SessionStore keeps per-user conversation state. *sessions.Store is the
// production implementation.
type SessionStore interface {
	Get(ctx context.Context, userID int64) (*sessions.Session, error)
	Put(ctx context.Context, userID int64, session *sessions.Session) error
	Clear(ctx context.Context, userID int64) error
}

// Services bundles everything the handlers call into.
type Services struct {
	Users    users.Service
	Codes    codes.Service
	Batches  batches.Service
	Payouts  payouts.Service
	Finance  finance.Service
	Market   market.Service
	Sessions SessionStore
}

// Bot routes Telegram updates onto the domain services.
type Bot struct {
	api     *tgbotapi.BotAPI
	send    sender
	cfg     config.BotConfig
	logg    *logger.Logger
	metrics *metrics.BotMetrics
	svc     Services
	locks   *keyedmutex.KeyedMutex

	broadcastPause time.Duration
}

// New wires a bot over the Telegram client and domain services.
func New(api *tgbotapi.BotAPI, cfg *config.Config, logg *logger.Logger, m *metrics.BotMetrics, svc Services) (*Bot, error) {
	if api == nil {
		return nil, apperrors.New(apperrors.CodeInternal, "telegram client required")
	}
	if cfg == nil {
		return nil, apperrors.New(apperrors.CodeInternal, "config required")
	}
	if logg == nil {
		return nil, apperrors.New(apperrors.CodeInternal, "logger required")
	}
	if svc.Users == nil || svc.Codes == nil || svc.Batches == nil ||
		svc.Payouts == nil || svc.Finance == nil || svc.Market == nil || svc.Sessions == nil {
		return nil, apperrors.New(apperrors.CodeInternal, "all services are required")
	}
	return &Bot{
		api:            api,
		send:           api,
		cfg:            cfg.Bot,
		logg:           logg,
		metrics:        m,
		svc:            svc,
		locks:          keyedmutex.New(),
		broadcastPause: cfg.Bot.BroadcastPause,
	}, nil
}

// Run polls for updates until the context is cancelled.
func (b *Bot) Run(ctx context.Context, pollTimeout int) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = pollTimeout
	updates := b.api.GetUpdatesChan(u)

	b.logg.Info(ctx, "bot polling started")
	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			b.logg.Info(ctx, "bot polling stopped")
			return ctx.Err()
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			b.HandleUpdate(ctx, update)
		}
	}
}

// HandleUpdate dispatches one update. It is exported so the webhook
// transport can feed updates through the same path as polling.
func (b *Bot) HandleUpdate(ctx context.Context, update tgbotapi.Update) {
	started := time.Now()
	handler := "ignored"
	defer func() {
		if r := recover(); r != nil {
			b.logg.Error(ctx, "update handling panicked", apperrors.New(apperrors.CodeInternal, "panic in update handler"))
		}
		b.metrics.ObserveUpdate(handler, time.Since(started))
	}()

	switch {
	case update.CallbackQuery != nil:
		handler = "callback"
		b.handleCallback(ctx, update.CallbackQuery)
	case update.Message != nil && update.Message.IsCommand():
		handler = "command:" + update.Message.Command()
		b.handleCommand(ctx, update.Message)
	case update.Message != nil:
		handler = "text"
		b.handleText(ctx, update.Message)
	}
}

// track registers the sender in the user directory and returns identity
// context for the handlers.
func (b *Bot) track(ctx context.Context, from *tgbotapi.User, chatID int64) (context.Context, *users.TrackInput) {
	input := &users.TrackInput{
		TelegramID: from.ID,
		ChatID:     chatID,
		Handle:     from.UserName,
		FirstName:  from.FirstName,
	}
	ctx = b.logg.WithUserID(ctx, from.ID)
	if from.UserName != "" {
		ctx = b.logg.WithHandle(ctx, from.UserName)
	}
	if _, err := b.svc.Users.Track(ctx, *input); err != nil {
		b.logg.Warn(ctx, "tracking user failed")
	}
	return ctx, input
}

func (b *Bot) isAdmin(from *tgbotapi.User) bool {
	return from != nil && b.cfg.IsAdmin(from.UserName)
}

// reply sends plain text to a chat, logging failures instead of bubbling
// them; Telegram delivery is best effort.
func (b *Bot) reply(ctx context.Context, chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := b.send.Send(msg); err != nil {
		b.logg.Warn(b.logg.WithChatID(ctx, chatID), "sending reply failed")
	}
}

func (b *Bot) replyMarkup(ctx context.Context, chatID int64, text string, markup tgbotapi.InlineKeyboardMarkup) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = markup
	if _, err := b.send.Send(msg); err != nil {
		b.logg.Warn(b.logg.WithChatID(ctx, chatID), "sending keyboard failed")
	}
}

// replyErr renders an app error for the user, hiding internals.
func (b *Bot) replyErr(ctx context.Context, chatID int64, err error) {
	if appErr := apperrors.As(err); appErr != nil {
		meta := apperrors.MetadataFor(appErr.Code())
		if meta.DetailsAllowed {
			b.reply(ctx, chatID, appErr.Message())
			return
		}
		b.reply(ctx, chatID, meta.PublicMessage)
		b.logg.Error(ctx, "handler failed", err)
		return
	}
	b.reply(ctx, chatID, "Something went wrong, please try again.")
	b.logg.Error(ctx, "handler failed", err)
}

func splitLines(text string) []string {
	lines := strings.Split(text, "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
