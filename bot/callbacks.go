package bot

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/aliyevk/codedesk-backend/internal/sessions"
)

func (b *Bot) handleCallback(ctx context.Context, cq *tgbotapi.CallbackQuery) {
	if cq.From == nil || cq.Message == nil {
		return
	}
	chatID := cq.Message.Chat.ID
	ctx, _ = b.track(ctx, cq.From, chatID)
	b.answerCallback(ctx, cq.ID)

	data := cq.Data
	switch {
	case data == cbCancel:
		if err := b.svc.Sessions.Clear(ctx, cq.From.ID); err != nil {
			b.replyErr(ctx, chatID, err)
			return
		}
		b.reply(ctx, chatID, "Cancelled.")
	case strings.HasPrefix(data, cbCodeType):
		b.chooseCodeType(ctx, cq.From, chatID, strings.TrimPrefix(data, cbCodeType))
	case strings.HasPrefix(data, cbMethod):
		b.choosePayoutMethod(ctx, cq.From.ID, chatID, strings.TrimPrefix(data, cbMethod))
	case strings.HasPrefix(data, cbQueuePrice):
		b.queueAskPrice(ctx, cq.From, chatID, strings.TrimPrefix(data, cbQueuePrice))
	case strings.HasPrefix(data, cbQueueSkip):
		b.queueSkip(ctx, cq.From, chatID, strings.TrimPrefix(data, cbQueueSkip))
	case data == cbErase:
		b.confirmDataErase(ctx, cq.From.ID, chatID)
	case data == cbQueueStop:
		if !b.isAdmin(cq.From) {
			return
		}
		if err := b.svc.Sessions.Clear(ctx, cq.From.ID); err != nil {
			b.replyErr(ctx, chatID, err)
			return
		}
		b.reply(ctx, chatID, "Pricing queue closed.")
	}
}

// answerCallback acknowledges the tap so the client stops its spinner.
func (b *Bot) answerCallback(ctx context.Context, callbackID string) {
	if _, err := b.send.Request(tgbotapi.NewCallback(callbackID, "")); err != nil {
		b.logg.Warn(ctx, "answering callback failed")
	}
}

func (b *Bot) chooseCodeType(ctx context.Context, from *tgbotapi.User, chatID int64, codeType string) {
	allowed := false
	for _, t := range b.cfg.AllowedCodeTypes(from.UserName) {
		if t == codeType {
			allowed = true
			break
		}
	}
	if !allowed {
		b.reply(ctx, chatID, "That code type is not open for you.")
		return
	}
	session := &sessions.Session{Action: sessions.ActionAwaitingCodes, CodeType: codeType}
	if err := b.svc.Sessions.Put(ctx, from.ID, session); err != nil {
		b.replyErr(ctx, chatID, err)
		return
	}
	b.reply(ctx, chatID, fmt.Sprintf("Send your %s codes, one per line. Each message becomes its own batch. /cancel when done.", codeType))
}

func (b *Bot) choosePayoutMethod(ctx context.Context, userID, chatID int64, method string) {
	session := &sessions.Session{Action: sessions.ActionAwaitingPayoutAddress, PayoutMethod: method}
	if err := b.svc.Sessions.Put(ctx, userID, session); err != nil {
		b.replyErr(ctx, chatID, err)
		return
	}
	prompt := "Send your USDT BEP20 address."
	if method == "mexc" {
		prompt = "Send your MEXC UID."
	}
	b.reply(ctx, chatID, prompt)
}

func (b *Bot) queueAskPrice(ctx context.Context, from *tgbotapi.User, chatID int64, rawBatchID string) {
	if !b.isAdmin(from) {
		return
	}
	session, err := b.svc.Sessions.Get(ctx, from.ID)
	if err != nil {
		b.replyErr(ctx, chatID, err)
		return
	}
	batchID, parseErr := strconv.ParseInt(rawBatchID, 10, 64)
	if session == nil || parseErr != nil || session.BatchID != batchID {
		b.reply(ctx, chatID, "That queue entry expired. Send /queue to restart.")
		return
	}
	session.Action = sessions.ActionAwaitingPrice
	if err := b.svc.Sessions.Put(ctx, from.ID, session); err != nil {
		b.replyErr(ctx, chatID, err)
		return
	}
	b.reply(ctx, chatID, fmt.Sprintf("Price per code for batch #%d of @%s?", session.BatchID, session.TargetHandle))
}

// confirmDataErase runs the wipe the user confirmed via /mydata. Code rows
// go, the payout ledger stays.
func (b *Bot) confirmDataErase(ctx context.Context, userID, chatID int64) {
	var deleted int64
	err := b.locks.Do(userID, func() error {
		var innerErr error
		deleted, innerErr = b.svc.Codes.EraseUser(ctx, userID)
		return innerErr
	})
	if err != nil {
		b.replyErr(ctx, chatID, err)
		return
	}
	if err := b.svc.Sessions.Clear(ctx, userID); err != nil {
		b.replyErr(ctx, chatID, err)
		return
	}
	b.reply(ctx, chatID, fmt.Sprintf("Removed %d code(s). Your payout history was kept.", deleted))
}

func (b *Bot) queueSkip(ctx context.Context, from *tgbotapi.User, chatID int64, rawBatchID string) {
	if !b.isAdmin(from) {
		return
	}
	session, err := b.svc.Sessions.Get(ctx, from.ID)
	if err != nil {
		b.replyErr(ctx, chatID, err)
		return
	}
	batchID, parseErr := strconv.ParseInt(rawBatchID, 10, 64)
	if session == nil || parseErr != nil {
		b.reply(ctx, chatID, "That queue entry expired. Send /queue to restart.")
		return
	}
	session.Skip(batchID)
	b.adminQueueNext(ctx, from.ID, chatID, session.QueueUserID, session.SkippedBatchIDs)
}
