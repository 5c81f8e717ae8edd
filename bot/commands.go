package bot

import (
	"context"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/shopspring/decimal"

	"github.com/aliyevk/codedesk-backend/internal/finance"
	"github.com/aliyevk/codedesk-backend/internal/market"
	"github.com/aliyevk/codedesk-backend/internal/payouts"
	"github.com/aliyevk/codedesk-backend/internal/sessions"
	"github.com/aliyevk/codedesk-backend/pkg/db/models"
	"github.com/aliyevk/codedesk-backend/pkg/enums"
	apperrors "github.com/aliyevk/codedesk-backend/pkg/errors"
)

const helpText = `Commands:
/sell - submit codes
/mycodes - your batches
/batch <id> - batch details
/balance - what you are owed
/history - your payout history
/market - current price board
/withdraw - request a payout
/mydata - erase your submitted codes
/cancel - abort the current flow`

const adminHelpText = `
Admin:
/user @handle - user overview
/listed @handle - list pending codes
/price @handle <batch|all> <amount>
/status @handle <batch> <status>
/note @handle <batch> <text>
/delbatch @handle <batch>
/paid @handle <mexc|bep20> <address>
/queue [@handle] - price unpriced batches
/summary - system totals
/search <code> - find a code
/reindex - rebuild the search index
/export @handle - CSV of a user's codes
/broadcast - message all users
/msg @handle <text> - message one user
/marketset <price> <demand> <type>
/marketreset <type>`

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	if msg.From == nil {
		return
	}
	ctx, _ = b.track(ctx, msg.From, msg.Chat.ID)
	chatID := msg.Chat.ID
	args := msg.CommandArguments()

	switch msg.Command() {
	case "start", "help":
		text := helpText
		if b.isAdmin(msg.From) {
			text += "\n" + adminHelpText
		}
		b.reply(ctx, chatID, text)
	case "cancel":
		if err := b.svc.Sessions.Clear(ctx, msg.From.ID); err != nil {
			b.replyErr(ctx, chatID, err)
			return
		}
		b.reply(ctx, chatID, "Cancelled.")
	case "sell":
		b.startSell(ctx, msg.From, chatID)
	case "mycodes":
		b.showBatches(ctx, msg.From.ID, chatID)
	case "batch":
		b.showBatchDetail(ctx, msg.From.ID, chatID, args)
	case "balance":
		b.showBalance(ctx, msg.From.ID, chatID)
	case "history":
		b.showLedger(ctx, msg.From.ID, chatID)
	case "market":
		b.showBoard(ctx, chatID)
	case "withdraw":
		b.startWithdraw(ctx, msg.From, chatID)
	case "mydata":
		b.startDataErase(ctx, chatID)
	default:
		if !b.isAdmin(msg.From) {
			b.reply(ctx, chatID, "Unknown command. Send /help for the list.")
			return
		}
		b.handleAdminCommand(ctx, msg)
	}
}

func (b *Bot) handleAdminCommand(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	args := msg.CommandArguments()

	switch msg.Command() {
	case "user":
		b.adminUserOverview(ctx, chatID, args)
	case "listed":
		b.adminMarkListed(ctx, chatID, args)
	case "price":
		b.adminSetPrice(ctx, chatID, args)
	case "status":
		b.adminSetStatus(ctx, chatID, args)
	case "note":
		b.adminAddNote(ctx, chatID, args)
	case "delbatch":
		b.adminDeleteBatch(ctx, chatID, args)
	case "paid":
		b.adminProcessPayout(ctx, msg.From, chatID, args)
	case "queue":
		b.adminQueueStart(ctx, msg.From.ID, chatID, args)
	case "summary":
		b.adminSummary(ctx, chatID)
	case "search":
		b.adminSearch(ctx, chatID, args)
	case "reindex":
		b.adminReindex(ctx, chatID)
	case "export":
		b.adminExport(ctx, chatID, args)
	case "broadcast":
		b.adminStartBroadcast(ctx, msg.From.ID, chatID)
	case "msg":
		b.adminRelay(ctx, chatID, args)
	case "marketset":
		b.adminMarketSet(ctx, msg.From, chatID, args)
	case "marketreset":
		b.adminMarketReset(ctx, chatID, args)
	default:
		b.reply(ctx, chatID, "Unknown command. Send /help for the list.")
	}
}

func (b *Bot) startSell(ctx context.Context, from *tgbotapi.User, chatID int64) {
	types := b.cfg.AllowedCodeTypes(from.UserName)
	if len(types) == 0 {
		b.reply(ctx, chatID, "No code types are open for submission right now.")
		return
	}
	if err := b.svc.Sessions.Clear(ctx, from.ID); err != nil {
		b.replyErr(ctx, chatID, err)
		return
	}
	b.replyMarkup(ctx, chatID, "What are you selling?", codeTypeKeyboard(types))
}

// startDataErase asks for confirmation before wiping. The erase itself runs
// from the callback so a stray /mydata never destroys anything on its own.
func (b *Bot) startDataErase(ctx context.Context, chatID int64) {
	b.replyMarkup(ctx, chatID,
		"This permanently removes every code you ever submitted. Payout history is kept. Continue?",
		eraseKeyboard())
}

func (b *Bot) showBatches(ctx context.Context, userID, chatID int64) {
	views, err := b.svc.Batches.AggregateBatches(ctx, userID)
	if err != nil {
		b.replyErr(ctx, chatID, err)
		return
	}
	b.reply(ctx, chatID, formatBatchList(views, b.cfg.MaxBatchesView))
}

func (b *Bot) showBatchDetail(ctx context.Context, userID, chatID int64, args string) {
	batchID, err := parseBatchArg(args)
	if err != nil || batchID <= 0 {
		b.reply(ctx, chatID, "Usage: /batch <id>")
		return
	}
	detail, err := b.svc.Batches.GetBatchDetails(ctx, userID, batchID)
	if err != nil {
		b.replyErr(ctx, chatID, err)
		return
	}
	b.reply(ctx, chatID, formatBatchDetail(detail))
}

func (b *Bot) showBalance(ctx context.Context, userID, chatID int64) {
	snap, err := b.svc.Finance.Calculate(ctx, userID)
	if err != nil {
		b.replyErr(ctx, chatID, err)
		return
	}
	text := formatSnapshot(snap)
	if estimate := b.unpricedEstimate(ctx, snap); estimate.IsPositive() {
		text += fmt.Sprintf("\nEstimated market value of unpriced codes: %s", formatMoney(estimate))
	}
	b.reply(ctx, chatID, text)
}

// unpricedEstimate values unpriced codes against the market board. A type
// without a board row contributes nothing; board errors only cost the
// estimate line, never the balance.
func (b *Bot) unpricedEstimate(ctx context.Context, snap *finance.Snapshot) decimal.Decimal {
	total := decimal.Zero
	for codeType, stats := range snap.PerType {
		if stats.Unpriced == 0 {
			continue
		}
		value, err := b.svc.Market.EstimateValue(ctx, codeType, stats.Unpriced)
		if err != nil {
			b.logg.Error(ctx, "estimating unpriced value", err)
			continue
		}
		total = total.Add(value)
	}
	return total
}

func (b *Bot) showLedger(ctx context.Context, userID, chatID int64) {
	entries, err := b.svc.Payouts.Ledger(ctx, userID)
	if err != nil {
		b.replyErr(ctx, chatID, err)
		return
	}
	b.reply(ctx, chatID, formatLedger(entries))
}

func (b *Bot) showBoard(ctx context.Context, chatID int64) {
	rows, err := b.svc.Market.Board(ctx)
	if err != nil {
		b.replyErr(ctx, chatID, err)
		return
	}
	b.reply(ctx, chatID, formatBoard(rows))
}

func (b *Bot) startWithdraw(ctx context.Context, from *tgbotapi.User, chatID int64) {
	snap, err := b.svc.Finance.Calculate(ctx, from.ID)
	if err != nil {
		b.replyErr(ctx, chatID, err)
		return
	}
	minimum := b.cfg.MinimumPayoutAmount()
	if snap.TotalOwed.LessThan(minimum) {
		b.reply(ctx, chatID, fmt.Sprintf("You are owed %s. Payouts start at %s.",
			formatMoney(snap.TotalOwed), formatMoney(minimum)))
		return
	}
	if err := b.svc.Sessions.Clear(ctx, from.ID); err != nil {
		b.replyErr(ctx, chatID, err)
		return
	}
	text := fmt.Sprintf("You are owed %s. How do you want to receive it?", formatMoney(snap.TotalOwed))
	b.replyMarkup(ctx, chatID, text, payoutMethodKeyboard())
}

func (b *Bot) adminUserOverview(ctx context.Context, chatID int64, args string) {
	user, err := b.resolveHandle(ctx, args)
	if err != nil {
		b.replyErr(ctx, chatID, err)
		return
	}
	snap, err := b.svc.Finance.Calculate(ctx, user.TelegramID)
	if err != nil {
		b.replyErr(ctx, chatID, err)
		return
	}
	views, err := b.svc.Batches.AggregateBatches(ctx, user.TelegramID)
	if err != nil {
		b.replyErr(ctx, chatID, err)
		return
	}
	text := fmt.Sprintf("@%s (user %d)\n\n%s\n\n%s",
		user.Handle, user.TelegramID, formatSnapshot(snap), formatBatchList(views, b.cfg.MaxBatchesView))
	b.reply(ctx, chatID, text)
}

func (b *Bot) adminMarkListed(ctx context.Context, chatID int64, args string) {
	user, err := b.resolveHandle(ctx, args)
	if err != nil {
		b.replyErr(ctx, chatID, err)
		return
	}
	var updated int64
	err = b.locks.Do(user.TelegramID, func() error {
		var innerErr error
		updated, innerErr = b.svc.Batches.MarkListed(ctx, user.TelegramID)
		return innerErr
	})
	if err != nil {
		b.replyErr(ctx, chatID, err)
		return
	}
	b.reply(ctx, chatID, fmt.Sprintf("Listed %d pending code(s) for @%s.", updated, user.Handle))
}

func (b *Bot) adminSetPrice(ctx context.Context, chatID int64, args string) {
	parts := splitArgs(args, 3)
	if len(parts) != 3 {
		b.reply(ctx, chatID, "Usage: /price @handle <batch|all> <amount>")
		return
	}
	user, err := b.resolveHandle(ctx, parts[0])
	if err != nil {
		b.replyErr(ctx, chatID, err)
		return
	}
	batchID, err := parseBatchArg(parts[1])
	if err != nil {
		b.replyErr(ctx, chatID, err)
		return
	}
	price, err := parseAmount(parts[2])
	if err != nil {
		b.replyErr(ctx, chatID, err)
		return
	}
	var updated int64
	err = b.locks.Do(user.TelegramID, func() error {
		var innerErr error
		updated, innerErr = b.svc.Batches.SetPrice(ctx, user.TelegramID, batchID, price)
		return innerErr
	})
	if err != nil {
		b.replyErr(ctx, chatID, err)
		return
	}
	b.reply(ctx, chatID, fmt.Sprintf("Priced %d code(s) for @%s at %s.", updated, user.Handle, formatMoney(price)))
	if updated > 0 {
		b.notifyUser(ctx, user, fmt.Sprintf("%d of your codes were priced at %s each. Send /balance to review.", updated, formatMoney(price)))
	}
}

func (b *Bot) adminSetStatus(ctx context.Context, chatID int64, args string) {
	parts := splitArgs(args, 3)
	if len(parts) != 3 {
		b.reply(ctx, chatID, "Usage: /status @handle <batch> <status>")
		return
	}
	user, err := b.resolveHandle(ctx, parts[0])
	if err != nil {
		b.replyErr(ctx, chatID, err)
		return
	}
	batchID, err := parseBatchArg(parts[1])
	if err != nil || batchID <= 0 {
		b.reply(ctx, chatID, "Usage: /status @handle <batch> <status>")
		return
	}
	status := enums.NormalizeCodeStatus(parts[2])
	var updated int64
	err = b.locks.Do(user.TelegramID, func() error {
		var innerErr error
		updated, innerErr = b.svc.Batches.UpdateStatus(ctx, user.TelegramID, batchID, status)
		return innerErr
	})
	if err != nil {
		b.replyErr(ctx, chatID, err)
		return
	}
	b.reply(ctx, chatID, fmt.Sprintf("Moved %d code(s) in batch #%d to %s.", updated, batchID, status))
}

func (b *Bot) adminAddNote(ctx context.Context, chatID int64, args string) {
	parts := splitArgs(args, 3)
	if len(parts) != 3 {
		b.reply(ctx, chatID, "Usage: /note @handle <batch> <text>")
		return
	}
	user, err := b.resolveHandle(ctx, parts[0])
	if err != nil {
		b.replyErr(ctx, chatID, err)
		return
	}
	batchID, err := parseBatchArg(parts[1])
	if err != nil || batchID <= 0 {
		b.reply(ctx, chatID, "Usage: /note @handle <batch> <text>")
		return
	}
	var updated int64
	err = b.locks.Do(user.TelegramID, func() error {
		var innerErr error
		updated, innerErr = b.svc.Batches.AddNote(ctx, user.TelegramID, batchID, parts[2])
		return innerErr
	})
	if err != nil {
		b.replyErr(ctx, chatID, err)
		return
	}
	b.reply(ctx, chatID, fmt.Sprintf("Noted %d code(s) in batch #%d.", updated, batchID))
}

func (b *Bot) adminDeleteBatch(ctx context.Context, chatID int64, args string) {
	parts := splitArgs(args, 2)
	if len(parts) != 2 {
		b.reply(ctx, chatID, "Usage: /delbatch @handle <batch>")
		return
	}
	user, err := b.resolveHandle(ctx, parts[0])
	if err != nil {
		b.replyErr(ctx, chatID, err)
		return
	}
	batchID, err := parseBatchArg(parts[1])
	if err != nil || batchID <= 0 {
		b.reply(ctx, chatID, "Usage: /delbatch @handle <batch>")
		return
	}
	var deleted int64
	err = b.locks.Do(user.TelegramID, func() error {
		var innerErr error
		deleted, innerErr = b.svc.Batches.DeleteBatch(ctx, user.TelegramID, batchID)
		return innerErr
	})
	if err != nil {
		b.replyErr(ctx, chatID, err)
		return
	}
	if deleted == 0 {
		b.reply(ctx, chatID, fmt.Sprintf("Batch #%d has no codes for @%s.", batchID, user.Handle))
		return
	}
	b.reply(ctx, chatID, fmt.Sprintf("Deleted %d code(s) from batch #%d.", deleted, batchID))
}

func (b *Bot) adminProcessPayout(ctx context.Context, admin *tgbotapi.User, chatID int64, args string) {
	parts := splitArgs(args, 3)
	if len(parts) != 3 {
		b.reply(ctx, chatID, "Usage: /paid @handle <mexc|bep20> <address>")
		return
	}
	user, err := b.resolveHandle(ctx, parts[0])
	if err != nil {
		b.replyErr(ctx, chatID, err)
		return
	}
	method := strings.ToLower(strings.TrimSpace(parts[1]))
	address := strings.TrimSpace(parts[2])
	if err := b.svc.Payouts.ValidateAddress(method, address); err != nil {
		b.replyErr(ctx, chatID, err)
		return
	}
	var result *payouts.PayoutResult
	err = b.locks.Do(user.TelegramID, func() error {
		var innerErr error
		result, innerErr = b.svc.Payouts.ProcessPayout(ctx, payouts.ProcessPayoutInput{
			UserID:  user.TelegramID,
			Handle:  user.Handle,
			Admin:   admin.UserName,
			Method:  method,
			Address: address,
		})
		return innerErr
	})
	if err != nil {
		b.replyErr(ctx, chatID, err)
		return
	}
	if result.CodeCount == 0 {
		b.reply(ctx, chatID, fmt.Sprintf("@%s has nothing payable.", user.Handle))
		return
	}
	b.metrics.ObservePayout(result.Amount)
	b.reply(ctx, chatID, fmt.Sprintf("Paid @%s %s for %d code(s).", user.Handle, formatMoney(result.Amount), result.CodeCount))
	b.notifyUser(ctx, user, fmt.Sprintf("Payout sent: %s for %d code(s) via %s.", formatMoney(result.Amount), result.CodeCount, method))
}

// adminQueueStart opens the pricing queue, scoped to one user when the
// command names a handle.
func (b *Bot) adminQueueStart(ctx context.Context, adminID, chatID int64, args string) {
	var queueUserID int64
	if strings.TrimSpace(args) != "" {
		user, err := b.resolveHandle(ctx, args)
		if err != nil {
			b.replyErr(ctx, chatID, err)
			return
		}
		queueUserID = user.TelegramID
	}
	b.adminQueueNext(ctx, adminID, chatID, queueUserID, nil)
}

func (b *Bot) adminQueueNext(ctx context.Context, adminID, chatID, queueUserID int64, skip []int64) {
	item, err := b.svc.Batches.NextUnpricedBatch(ctx, queueUserID, skip)
	if err != nil {
		b.replyErr(ctx, chatID, err)
		return
	}
	if item == nil {
		if err := b.svc.Sessions.Clear(ctx, adminID); err != nil {
			b.replyErr(ctx, chatID, err)
			return
		}
		b.reply(ctx, chatID, "Nothing left to price.")
		return
	}
	session := &sessions.Session{
		TargetUserID:    item.UserID,
		TargetHandle:    item.Handle,
		BatchID:         item.Detail.BatchID,
		QueueUserID:     queueUserID,
		SkippedBatchIDs: skip,
	}
	if err := b.svc.Sessions.Put(ctx, adminID, session); err != nil {
		b.replyErr(ctx, chatID, err)
		return
	}
	b.replyMarkup(ctx, chatID, formatQueueItem(item), queueKeyboard(item.Detail.BatchID))
}

func (b *Bot) adminSummary(ctx context.Context, chatID int64) {
	summary, err := b.svc.Finance.SystemWideSummary(ctx)
	if err != nil {
		b.replyErr(ctx, chatID, err)
		return
	}
	b.reply(ctx, chatID, formatSummary(summary))
}

func (b *Bot) adminSearch(ctx context.Context, chatID int64, args string) {
	records, err := b.svc.Codes.Search(ctx, args)
	if err != nil {
		b.replyErr(ctx, chatID, err)
		return
	}
	b.reply(ctx, chatID, formatSearchResults(records))
}

func (b *Bot) adminReindex(ctx context.Context, chatID int64) {
	count, err := b.svc.Codes.RebuildIndex(ctx)
	if err != nil {
		b.replyErr(ctx, chatID, err)
		return
	}
	b.reply(ctx, chatID, fmt.Sprintf("Search index rebuilt over %d code(s).", count))
}

func (b *Bot) adminStartBroadcast(ctx context.Context, adminID, chatID int64) {
	session := &sessions.Session{Action: sessions.ActionAwaitingBroadcast}
	if err := b.svc.Sessions.Put(ctx, adminID, session); err != nil {
		b.replyErr(ctx, chatID, err)
		return
	}
	b.reply(ctx, chatID, "Send the message to broadcast, or /cancel.")
}

func (b *Bot) adminRelay(ctx context.Context, chatID int64, args string) {
	parts := splitArgs(args, 2)
	if len(parts) != 2 {
		b.reply(ctx, chatID, "Usage: /msg @handle <text>")
		return
	}
	user, err := b.resolveHandle(ctx, parts[0])
	if err != nil {
		b.replyErr(ctx, chatID, err)
		return
	}
	b.notifyUser(ctx, user, parts[1])
	b.reply(ctx, chatID, fmt.Sprintf("Sent to @%s.", user.Handle))
}

func (b *Bot) adminMarketSet(ctx context.Context, admin *tgbotapi.User, chatID int64, args string) {
	parts := splitArgs(args, 3)
	if len(parts) != 3 {
		b.reply(ctx, chatID, "Usage: /marketset <price> <high|medium|low> <type>")
		return
	}
	price, err := parseAmount(parts[0])
	if err != nil {
		b.replyErr(ctx, chatID, err)
		return
	}
	demand, err := enums.ParseDemandLevel(parts[1])
	if err != nil {
		b.replyErr(ctx, chatID, err)
		return
	}
	if !b.cfg.IsValidCodeType(parts[2]) {
		b.reply(ctx, chatID, fmt.Sprintf("Unknown code type %q. The board only carries configured types.", parts[2]))
		return
	}
	row, err := b.svc.Market.Set(ctx, market.SetInput{
		CodeType:  parts[2],
		Price:     &price,
		Demand:    demand,
		UpdatedBy: admin.UserName,
	})
	if err != nil {
		b.replyErr(ctx, chatID, err)
		return
	}
	b.reply(ctx, chatID, fmt.Sprintf("Board updated: %s at %s, demand %s.", row.CodeType, formatOptionalPrice(row.Price), row.Demand))
}

func (b *Bot) adminMarketReset(ctx context.Context, chatID int64, args string) {
	codeType := strings.TrimSpace(args)
	if codeType == "" {
		b.reply(ctx, chatID, "Usage: /marketreset <type>")
		return
	}
	existed, err := b.svc.Market.Reset(ctx, codeType)
	if err != nil {
		b.replyErr(ctx, chatID, err)
		return
	}
	if !existed {
		b.reply(ctx, chatID, fmt.Sprintf("No manual price set for %s.", codeType))
		return
	}
	b.reply(ctx, chatID, fmt.Sprintf("Cleared the manual price for %s.", codeType))
}

// resolveHandle turns a @handle argument into a known user.
func (b *Bot) resolveHandle(ctx context.Context, arg string) (*models.User, error) {
	handle, err := parseHandle(arg)
	if err != nil {
		return nil, err
	}
	user, err := b.svc.Users.Resolve(ctx, handle)
	if err != nil {
		if apperrors.IsCode(err, apperrors.CodeNotFound) {
			return nil, apperrors.New(apperrors.CodeValidation, fmt.Sprintf("@%s has never talked to the bot", handle))
		}
		return nil, err
	}
	return user, nil
}

// notifyUser delivers a direct message to a user's chat, best effort.
func (b *Bot) notifyUser(ctx context.Context, user *models.User, text string) {
	if user.ChatID == 0 {
		return
	}
	b.reply(ctx, user.ChatID, text)
}
