package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

// TestMiddlewareChain_CORSAuthRateLimit はCORS→管理者認証→レート制限の
// チェーンが連携して動作することを検証する。
func TestMiddlewareChain_CORSAuthRateLimit(t *testing.T) {
	cfg := RateLimiterConfig{
		GeneralRate:     1,
		GeneralBurst:    2,
		WebhookRegRate:  1,
		WebhookRegBurst: 10,
		CleanupInterval: 1 * time.Minute,
	}

	rl := NewRateLimiter(cfg)
	defer rl.Stop()

	corsMW := NewCORSMiddleware("http://localhost:3000")
	authMW := NewAdminAuthMiddleware("chain-admin-token")
	rateMW := rl.GeneralMiddleware()

	// CORS -> Auth -> RateLimit -> Handler
	handler := corsMW(authMW(rateMW(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]int{"total": 42})
	}))))

	// 正しいトークン付きのリクエスト: バースト分（2回）通る
	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/admin/points/user-1", nil)
		req.Header.Set("Authorization", "Bearer chain-admin-token")
		req.RemoteAddr = "203.0.113.90:1000"
		w := httptest.NewRecorder()

		handler.ServeHTTP(w, req)

		if w.Result().StatusCode != http.StatusOK {
			t.Errorf("request %d: status = %d, want %d", i, w.Result().StatusCode, http.StatusOK)
		}
		if got := w.Result().Header.Get("Access-Control-Allow-Origin"); got != "http://localhost:3000" {
			t.Errorf("request %d: Access-Control-Allow-Origin = %q", i, got)
		}
	}

	// 3回目はレート制限に引っかかる
	req3 := httptest.NewRequest(http.MethodGet, "/api/admin/points/user-1", nil)
	req3.Header.Set("Authorization", "Bearer chain-admin-token")
	req3.RemoteAddr = "203.0.113.90:1000"
	w3 := httptest.NewRecorder()

	handler.ServeHTTP(w3, req3)

	if w3.Result().StatusCode != http.StatusTooManyRequests {
		t.Errorf("request 3: status = %d, want %d", w3.Result().StatusCode, http.StatusTooManyRequests)
	}

	// トークンなしのリクエストは認証で止まり、レート制限を消費しない
	req4 := httptest.NewRequest(http.MethodGet, "/api/admin/points/user-1", nil)
	req4.RemoteAddr = "203.0.113.91:1000"
	w4 := httptest.NewRecorder()

	handler.ServeHTTP(w4, req4)

	if w4.Result().StatusCode != http.StatusUnauthorized {
		t.Errorf("request without token: status = %d, want %d", w4.Result().StatusCode, http.StatusUnauthorized)
	}
}
