package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

// TestAdminAuthMiddleware_AllowsValidToken は正しいBearerトークンで
// ハンドラーが実行されることをテストする。
func TestAdminAuthMiddleware_AllowsValidToken(t *testing.T) {
	mw := NewAdminAuthMiddleware("secret-admin-token")

	handlerCalled := false
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handlerCalled = true
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/admin/points/user-1", nil)
	req.Header.Set("Authorization", "Bearer secret-admin-token")
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	if !handlerCalled {
		t.Error("handler should be called with valid token")
	}
	if w.Result().StatusCode != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusOK)
	}
}

// TestAdminAuthMiddleware_RejectsInvalidToken は不正なトークンが401になることをテストする。
func TestAdminAuthMiddleware_RejectsInvalidToken(t *testing.T) {
	mw := NewAdminAuthMiddleware("secret-admin-token")

	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not be called with invalid token")
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/admin/points/user-1", nil)
	req.Header.Set("Authorization", "Bearer wrong-token")
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	if w.Result().StatusCode != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusUnauthorized)
	}

	// エラーレスポンスは統一フォーマット
	var body ErrorResponseBody
	if err := json.NewDecoder(w.Result().Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if body.Code != "UNAUTHORIZED" {
		t.Errorf("code = %q, want UNAUTHORIZED", body.Code)
	}
	if body.Category != "auth" {
		t.Errorf("category = %q, want auth", body.Category)
	}
}

// TestAdminAuthMiddleware_RejectsMissingHeader はAuthorizationヘッダーなしが
// 401になることをテストする。
func TestAdminAuthMiddleware_RejectsMissingHeader(t *testing.T) {
	mw := NewAdminAuthMiddleware("secret-admin-token")

	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not be called without Authorization header")
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/admin/points/user-1", nil)
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	if w.Result().StatusCode != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusUnauthorized)
	}
}

// TestAdminAuthMiddleware_RejectsNonBearerScheme はBearer以外のスキームが
// 拒否されることをテストする。
func TestAdminAuthMiddleware_RejectsNonBearerScheme(t *testing.T) {
	mw := NewAdminAuthMiddleware("secret-admin-token")

	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not be called with non-Bearer scheme")
	}))

	for _, auth := range []string{
		"Basic c2VjcmV0",
		"bearer secret-admin-token",
		"Bearer ",
		"secret-admin-token",
	} {
		req := httptest.NewRequest(http.MethodGet, "/api/admin/points/user-1", nil)
		req.Header.Set("Authorization", auth)
		w := httptest.NewRecorder()

		handler.ServeHTTP(w, req)

		if w.Result().StatusCode != http.StatusUnauthorized {
			t.Errorf("Authorization %q: status = %d, want %d", auth, w.Result().StatusCode, http.StatusUnauthorized)
		}
	}
}
