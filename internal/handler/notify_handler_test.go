package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/hitoshi/dutyman/internal/model"
)

// mockRegistrar はWebhookRegistrarのテスト用モック。
type mockRegistrar struct {
	registerFn func(userID, rawURL string) error
}

func (m *mockRegistrar) Register(userID, rawURL string) error {
	return m.registerFn(userID, rawURL)
}

// TestNotifyHandler_RegisterWebhook はWebhook登録の正常系をテストする。
func TestNotifyHandler_RegisterWebhook(t *testing.T) {
	var gotUserID, gotURL string
	h := NewNotifyHandler(&mockRegistrar{
		registerFn: func(userID, rawURL string) error {
			gotUserID, gotURL = userID, rawURL
			return nil
		},
	})

	req := httptest.NewRequest(http.MethodPut, "/api/notify/webhook",
		strings.NewReader(`{"user_id":"user-1","url":"https://hooks.example.com/u1"}`))
	w := httptest.NewRecorder()

	h.RegisterWebhook(w, req)

	if w.Result().StatusCode != http.StatusNoContent {
		t.Fatalf("status = %d, want %d", w.Result().StatusCode, http.StatusNoContent)
	}
	if gotUserID != "user-1" || gotURL != "https://hooks.example.com/u1" {
		t.Errorf("registered (%q, %q)", gotUserID, gotURL)
	}
}

// TestNotifyHandler_RegisterWebhookBlockedURL は検証で拒否されたURLが400になることをテストする。
func TestNotifyHandler_RegisterWebhookBlockedURL(t *testing.T) {
	h := NewNotifyHandler(&mockRegistrar{
		registerFn: func(userID, rawURL string) error {
			return model.NewInvalidURLError("プライベートIPアドレスへのアクセスは許可されていません")
		},
	})

	req := httptest.NewRequest(http.MethodPut, "/api/notify/webhook",
		strings.NewReader(`{"user_id":"user-1","url":"http://10.0.0.1/hook"}`))
	w := httptest.NewRecorder()

	h.RegisterWebhook(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusBadRequest)
	}

	var body apiErrorResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if body.Code != "INVALID_URL" {
		t.Errorf("code = %q, want INVALID_URL", body.Code)
	}
}

// TestNotifyHandler_RegisterWebhookEmptyFields は空のフィールドが400になることをテストする。
func TestNotifyHandler_RegisterWebhookEmptyFields(t *testing.T) {
	h := NewNotifyHandler(&mockRegistrar{
		registerFn: func(userID, rawURL string) error {
			t.Fatal("registrar should not be called for empty fields")
			return nil
		},
	})

	for _, body := range []string{
		`{"user_id":"","url":"https://hooks.example.com/u1"}`,
		`{"user_id":"user-1","url":""}`,
	} {
		req := httptest.NewRequest(http.MethodPut, "/api/notify/webhook", strings.NewReader(body))
		w := httptest.NewRecorder()

		h.RegisterWebhook(w, req)

		if w.Result().StatusCode != http.StatusBadRequest {
			t.Errorf("body %s: status = %d, want %d", body, w.Result().StatusCode, http.StatusBadRequest)
		}
	}
}
