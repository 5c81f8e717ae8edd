package controllers

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"net/http"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/aliyevk/codedesk-backend/api/responses"
	apperrors "github.com/aliyevk/codedesk-backend/pkg/errors"
	"github.com/aliyevk/codedesk-backend/pkg/logger"
)

const secretTokenHeader = "X-Telegram-Bot-Api-Secret-Token"

// UpdateHandler consumes one Telegram update.
type UpdateHandler interface {
	HandleUpdate(ctx context.Context, update tgbotapi.Update)
}

// TelegramWebhook receives pushed updates when the bot runs in webhook
// mode. Telegram echoes the configured secret in a header; a mismatch is
// rejected before the body is read.
func TelegramWebhook(secret string, handler UpdateHandler, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if secret != "" {
			got := r.Header.Get(secretTokenHeader)
			if subtle.ConstantTimeCompare([]byte(got), []byte(secret)) != 1 {
				responses.WriteError(ctx, logg, w, apperrors.New(apperrors.CodeForbidden, "bad webhook secret"))
				return
			}
		}

		var update tgbotapi.Update
		if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
			responses.WriteError(ctx, logg, w, apperrors.Wrap(apperrors.CodeValidation, err, "malformed update payload"))
			return
		}

		handler.HandleUpdate(ctx, update)
		responses.WriteSuccess(w, map[string]string{"status": "accepted"})
	}
}
