package bot

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"strconv"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/aliyevk/codedesk-backend/pkg/db/models"
	apperrors "github.com/aliyevk/codedesk-backend/pkg/errors"
)

// adminExport sends a user's full code history as a CSV document.
func (b *Bot) adminExport(ctx context.Context, chatID int64, args string) {
	user, err := b.resolveHandle(ctx, args)
	if err != nil {
		b.replyErr(ctx, chatID, err)
		return
	}
	records, err := b.svc.Codes.ListCodes(ctx, user.TelegramID)
	if err != nil {
		b.replyErr(ctx, chatID, err)
		return
	}
	if len(records) == 0 {
		b.reply(ctx, chatID, fmt.Sprintf("@%s has no codes.", user.Handle))
		return
	}
	payload, err := recordsCSV(records)
	if err != nil {
		b.replyErr(ctx, chatID, err)
		return
	}
	doc := tgbotapi.NewDocument(chatID, tgbotapi.FileBytes{
		Name:  fmt.Sprintf("codes_%s_%s.csv", user.Handle, time.Now().Format("20060102")),
		Bytes: payload,
	})
	if _, err := b.send.Send(doc); err != nil {
		b.replyErr(ctx, chatID, apperrors.Wrap(apperrors.CodeInternal, err, "sending export failed"))
	}
}

func recordsCSV(records []models.CodeRecord) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	header := []string{"code", "type", "batch_id", "status", "price", "note", "created_at"}
	if err := w.Write(header); err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, err, "writing export failed")
	}
	for _, record := range records {
		price := ""
		if record.Price != nil {
			price = record.Price.StringFixed(2)
		}
		note := ""
		if record.Note != nil {
			note = *record.Note
		}
		row := []string{
			record.Code,
			record.CodeType,
			strconv.FormatInt(record.BatchID, 10),
			string(record.Status),
			price,
			note,
			record.CreatedAt.Format(time.RFC3339),
		}
		if err := w.Write(row); err != nil {
			return nil, apperrors.Wrap(apperrors.CodeInternal, err, "writing export failed")
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, err, "writing export failed")
	}
	return buf.Bytes(), nil
}
