package bot

import (
	"context"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/aliyevk/codedesk-backend/internal/codes"
	"github.com/aliyevk/codedesk-backend/internal/sessions"
)

// handleText routes a plain message through the sender's conversation
// state. With no session in flight the message is ignored.
func (b *Bot) handleText(ctx context.Context, msg *tgbotapi.Message) {
	if msg.From == nil || strings.TrimSpace(msg.Text) == "" {
		return
	}
	ctx, _ = b.track(ctx, msg.From, msg.Chat.ID)
	session, err := b.svc.Sessions.Get(ctx, msg.From.ID)
	if err != nil {
		b.replyErr(ctx, msg.Chat.ID, err)
		return
	}
	if session == nil {
		b.reply(ctx, msg.Chat.ID, "Send /help for the command list.")
		return
	}

	switch session.Action {
	case sessions.ActionAwaitingCodes:
		b.submitCodes(ctx, msg, session)
	case sessions.ActionAwaitingPrice:
		b.priceFromQueue(ctx, msg, session)
	case sessions.ActionAwaitingPayoutAddress:
		b.capturePayoutAddress(ctx, msg, session)
	case sessions.ActionAwaitingBroadcast:
		b.runBroadcast(ctx, msg)
	default:
		b.reply(ctx, msg.Chat.ID, "Send /help for the command list.")
	}
}

func (b *Bot) submitCodes(ctx context.Context, msg *tgbotapi.Message, session *sessions.Session) {
	chatID := msg.Chat.ID
	lines := splitLines(msg.Text)
	if len(lines) == 0 {
		b.reply(ctx, chatID, "Send codes one per line, or /cancel.")
		return
	}
	var result *codes.SubmitResult
	err := b.locks.Do(msg.From.ID, func() error {
		var innerErr error
		result, innerErr = b.svc.Codes.Submit(ctx, codes.SubmitInput{
			UserID:   msg.From.ID,
			Handle:   msg.From.UserName,
			CodeType: session.CodeType,
			RawCodes: lines,
		})
		return innerErr
	})
	if err != nil {
		b.replyErr(ctx, chatID, err)
		return
	}
	b.metrics.IncSubmissions(result.Accepted, len(result.Duplicates)+len(result.InvalidFormat))
	b.reply(ctx, chatID, formatSubmitResult(result))
}

func (b *Bot) priceFromQueue(ctx context.Context, msg *tgbotapi.Message, session *sessions.Session) {
	chatID := msg.Chat.ID
	if !b.isAdmin(msg.From) {
		return
	}
	price, err := parseAmount(msg.Text)
	if err != nil {
		b.replyErr(ctx, chatID, err)
		return
	}
	var updated int64
	err = b.locks.Do(session.TargetUserID, func() error {
		var innerErr error
		updated, innerErr = b.svc.Batches.SetPrice(ctx, session.TargetUserID, session.BatchID, price)
		return innerErr
	})
	if err != nil {
		b.replyErr(ctx, chatID, err)
		return
	}
	b.reply(ctx, chatID, fmt.Sprintf("Priced %d code(s) in batch #%d at %s.", updated, session.BatchID, formatMoney(price)))
	if updated > 0 {
		if user, resolveErr := b.svc.Users.Get(ctx, session.TargetUserID); resolveErr == nil {
			b.notifyUser(ctx, user, fmt.Sprintf("Batch #%d was priced at %s per code. Send /balance to review.", session.BatchID, formatMoney(price)))
		}
	}
	b.adminQueueNext(ctx, msg.From.ID, chatID, session.QueueUserID, session.SkippedBatchIDs)
}

func (b *Bot) capturePayoutAddress(ctx context.Context, msg *tgbotapi.Message, session *sessions.Session) {
	chatID := msg.Chat.ID
	address := strings.TrimSpace(msg.Text)
	if err := b.svc.Payouts.ValidateAddress(session.PayoutMethod, address); err != nil {
		b.replyErr(ctx, chatID, err)
		return
	}
	snap, err := b.svc.Finance.Calculate(ctx, msg.From.ID)
	if err != nil {
		b.replyErr(ctx, chatID, err)
		return
	}
	if err := b.svc.Sessions.Clear(ctx, msg.From.ID); err != nil {
		b.replyErr(ctx, chatID, err)
		return
	}
	b.reply(ctx, chatID, "Request received. You will be notified when the payout is sent.")

	admin, err := b.svc.Users.Resolve(ctx, b.cfg.AdminHandle)
	if err != nil {
		b.logg.Warn(ctx, "payout request could not reach the admin")
		return
	}
	b.notifyUser(ctx, admin, fmt.Sprintf(
		"Payout request from @%s (user %d): %s via %s to %s.\nRun /paid @%s %s %s",
		msg.From.UserName, msg.From.ID, formatMoney(snap.TotalOwed), session.PayoutMethod, address,
		msg.From.UserName, session.PayoutMethod, address))
}
