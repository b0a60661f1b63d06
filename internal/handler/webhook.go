package handler

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/tiendafresca/backend/internal/dto"
)

type webhookProcessor interface {
	ProcessEvent(ctx context.Context, evt *dto.WebhookNotification) *dto.WebhookAck
}

// WebhookHandler receives gateway events. After the signature check it
// always answers 200 with a processing summary: a poison event must not be
// redelivered forever, so processing errors are logged and swallowed.
type WebhookHandler struct {
	reconciler webhookProcessor
	secret     string
	log        *zap.SugaredLogger
}

func NewWebhookHandler(reconciler webhookProcessor, secret string, log *zap.SugaredLogger) *WebhookHandler {
	return &WebhookHandler{
		reconciler: reconciler,
		secret:     secret,
		log:        log,
	}
}

func (h *WebhookHandler) Handle(c echo.Context) error {
	ctx := c.Request().Context()

	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		h.log.Warnw("webhook body unreadable", "error", err)
		return c.JSON(http.StatusOK, &dto.WebhookAck{Status: "error", Detail: "unreadable body"})
	}

	var evt dto.WebhookNotification
	if err := json.Unmarshal(body, &evt); err != nil {
		h.log.Warnw("webhook payload malformed", "error", err)
		return c.JSON(http.StatusOK, &dto.WebhookAck{Status: "error", Detail: "malformed payload"})
	}

	if h.secret != "" {
		if !h.verifySignature(c.Request().Header, evt.Data.ID) {
			h.log.Warnw("webhook signature rejected", "event_id", evt.ID.String())
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid webhook signature")
		}
	}

	ack := h.reconciler.ProcessEvent(ctx, &evt)
	return c.JSON(http.StatusOK, ack)
}

// verifySignature checks the gateway's x-signature header: HMAC-SHA256 of
// "id:<data.id>;request-id:<x-request-id>;ts:<ts>;" with the shared secret.
func (h *WebhookHandler) verifySignature(header http.Header, dataID string) bool {
	signature := header.Get("x-signature")
	if signature == "" {
		return false
	}

	var ts, v1 string
	for _, part := range strings.Split(signature, ",") {
		key, value, found := strings.Cut(strings.TrimSpace(part), "=")
		if !found {
			continue
		}
		switch key {
		case "ts":
			ts = value
		case "v1":
			v1 = value
		}
	}
	if ts == "" || v1 == "" {
		return false
	}

	manifest := fmt.Sprintf("id:%s;request-id:%s;ts:%s;",
		strings.ToLower(dataID), header.Get("x-request-id"), ts)

	mac := hmac.New(sha256.New, []byte(h.secret))
	mac.Write([]byte(manifest))
	expected := hex.EncodeToString(mac.Sum(nil))

	return hmac.Equal([]byte(expected), []byte(v1))
}
