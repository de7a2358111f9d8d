package handler

import (
	"encoding/json"
	"net/http"

	"github.com/hitoshi/dutyman/internal/model"
)

// WebhookRegistrar はWebhook登録のためのインターフェース。
// notify.WebhookRegistryの部分集合として定義する。
type WebhookRegistrar interface {
	// Register はユーザーの通知先Webhook URLを検証して登録する。
	Register(userID, rawURL string) error
}

// NotifyHandler は通知先Webhook管理のHTTPハンドラー。
type NotifyHandler struct {
	registrar WebhookRegistrar
}

// NewNotifyHandler はNotifyHandlerを生成する。
func NewNotifyHandler(registrar WebhookRegistrar) *NotifyHandler {
	return &NotifyHandler{registrar: registrar}
}

// registerWebhookRequest はWebhook登録リクエストのボディ。
type registerWebhookRequest struct {
	UserID string `json:"user_id"`
	URL    string `json:"url"`
}

// RegisterWebhook は通知先Webhook URLの登録を処理する。
// 同じユーザーによる再登録は上書きになる。
// PUT /api/notify/webhook
func (h *NotifyHandler) RegisterWebhook(w http.ResponseWriter, r *http.Request) {
	var req registerWebhookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequestResponse(w)
		return
	}

	if req.UserID == "" {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidUserIDError(req.UserID))
		return
	}
	if req.URL == "" {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidURLError("URLが空です"))
		return
	}

	if err := h.registrar.Register(req.UserID, req.URL); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
