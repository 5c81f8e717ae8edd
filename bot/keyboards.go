package bot

import (
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/aliyevk/codedesk-backend/internal/payouts"
)

// Callback data prefixes. Telegram caps callback data at 64 bytes, so the
// payload stays a short prefix plus one identifier.
const (
	cbCodeType   = "type:"
	cbMethod     = "method:"
	cbQueuePrice = "queue_price:"
	cbQueueSkip  = "queue_skip:"
	cbQueueStop  = "queue_stop"
	cbErase      = "erase_confirm"
	cbCancel     = "cancel"
)

func codeTypeKeyboard(codeTypes []string) tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(codeTypes)+1)
	for _, codeType := range codeTypes {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(codeType, cbCodeType+codeType),
		))
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("Cancel", cbCancel),
	))
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func payoutMethodKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("MEXC UID", cbMethod+payouts.MethodMEXC),
			tgbotapi.NewInlineKeyboardButtonData("USDT BEP20", cbMethod+payouts.MethodBEP20),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Cancel", cbCancel),
		),
	)
}

func eraseKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Erase everything", cbErase),
			tgbotapi.NewInlineKeyboardButtonData("Cancel", cbCancel),
		),
	)
}

func queueKeyboard(batchID int64) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Set price", fmt.Sprintf("%s%d", cbQueuePrice, batchID)),
			tgbotapi.NewInlineKeyboardButtonData("Skip", fmt.Sprintf("%s%d", cbQueueSkip, batchID)),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Stop", cbQueueStop),
		),
	)
}
