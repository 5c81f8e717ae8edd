package bot

import (
	"context"
	"fmt"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/multierr"
)

// runBroadcast fans the admin's message out to every known user. Sends are
// paced so the Telegram flood limiter does not start dropping messages.
func (b *Bot) runBroadcast(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	if !b.isAdmin(msg.From) {
		return
	}
	if err := b.svc.Sessions.Clear(ctx, msg.From.ID); err != nil {
		b.replyErr(ctx, chatID, err)
		return
	}
	recipients, err := b.svc.Users.List(ctx)
	if err != nil {
		b.replyErr(ctx, chatID, err)
		return
	}

	var delivered, failed int
	var sendErrs error
	for _, user := range recipients {
		if user.ChatID == 0 || user.ChatID == chatID {
			continue
		}
		if _, err := b.send.Send(tgbotapi.NewMessage(user.ChatID, msg.Text)); err != nil {
			failed++
			sendErrs = multierr.Append(sendErrs, fmt.Errorf("user %d: %w", user.TelegramID, err))
			b.metrics.IncBroadcast(false)
		} else {
			delivered++
			b.metrics.IncBroadcast(true)
		}
		if b.broadcastPause > 0 {
			select {
			case <-ctx.Done():
				b.reply(ctx, chatID, fmt.Sprintf("Broadcast interrupted after %d message(s).", delivered))
				return
			case <-time.After(b.broadcastPause):
			}
		}
	}
	if sendErrs != nil {
		b.logg.Error(ctx, "broadcast had delivery failures", sendErrs)
	}
	b.reply(ctx, chatID, fmt.Sprintf("Broadcast done: %d delivered, %d failed.", delivered, failed))
}
