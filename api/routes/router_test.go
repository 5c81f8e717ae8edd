package routes

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/aliyevk/codedesk-backend/pkg/config"
	"github.com/aliyevk/codedesk-backend/pkg/logger"
)

type stubPinger struct {
	err error
}

func (s stubPinger) Ping(context.Context) error {
	return s.err
}

type recordingBot struct {
	updates []tgbotapi.Update
}

func (r *recordingBot) HandleUpdate(_ context.Context, update tgbotapi.Update) {
	r.updates = append(r.updates, update)
}

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: "test"},
		Telegram: config.TelegramConfig{
			Mode:          "webhook",
			WebhookPath:   "/webhook",
			WebhookSecret: "hush",
		},
	}
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "router-test", Output: io.Discard})
}

func TestHealthLive(t *testing.T) {
	handler := NewRouter(testConfig(), testLogger(), Deps{})

	req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if env := rec.Header().Get("X-CodeDesk-Env"); env != "test" {
		t.Fatalf("unexpected env header %q", env)
	}
}

func TestHealthReadyDegrades(t *testing.T) {
	deps := Deps{
		DB:    stubPinger{},
		Redis: stubPinger{err: fmt.Errorf("connection refused")},
	}
	handler := NewRouter(testConfig(), testLogger(), deps)

	req := httptest.NewRequest(http.MethodGet, "/health/ready", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
	var payload struct {
		Data struct {
			Status string            `json:"status"`
			Checks map[string]string `json:"checks"`
		} `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&payload); err != nil {
		t.Fatalf("decoding body: %v", err)
	}
	if payload.Data.Status != "degraded" {
		t.Fatalf("expected degraded, got %q", payload.Data.Status)
	}
	if payload.Data.Checks["db"] != "ok" || payload.Data.Checks["redis"] != "down" {
		t.Fatalf("unexpected checks %v", payload.Data.Checks)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	registry := prometheus.NewRegistry()
	handler := NewRouter(testConfig(), testLogger(), Deps{Registry: registry})

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestTelegramWebhook(t *testing.T) {
	bot := &recordingBot{}
	handler := NewRouter(testConfig(), testLogger(), Deps{Bot: bot})

	body := `{"update_id":123,"message":{"message_id":1,"text":"hi","chat":{"id":7}}}`

	req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(body))
	req.Header.Set("X-Telegram-Bot-Api-Secret-Token", "hush")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if len(bot.updates) != 1 || bot.updates[0].UpdateID != 123 {
		t.Fatalf("update was not dispatched: %+v", bot.updates)
	}

	req = httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(body))
	req.Header.Set("X-Telegram-Bot-Api-Secret-Token", "wrong")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for a bad secret, got %d", rec.Code)
	}
	if len(bot.updates) != 1 {
		t.Fatal("update with a bad secret must not be dispatched")
	}
}
