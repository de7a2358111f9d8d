package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/dutyman/internal/middleware"
)

// SessionCounter はヘルスチェックが必要とするセッション数の参照インターフェース。
// store.SessionStoreの部分集合として定義する。
type SessionCounter interface {
	ActiveCount() int
}

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	Logger            *slog.Logger
	CORSAllowedOrigin string
	RateLimiter       *middleware.RateLimiter
	AdminToken        string

	// サービス
	DutyService      DutyServiceInterface
	AdminService     AdminServiceInterface
	WebhookRegistrar WebhookRegistrar
	SessionCounter   SessionCounter

	// Prometheusメトリクスのハンドラー
	MetricsHandler http.Handler
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	Recovery → Logging → SecurityHeaders → CORS → RateLimit(General)
//
// /health と /metrics はレート制限の外に配置する。
// /api/admin/* には管理者トークン認証を追加する。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewLoggingMiddleware(deps.Logger))
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))

	dutyHandler := NewDutyHandler(deps.DutyService)
	adminHandler := NewAdminHandler(deps.AdminService)
	notifyHandler := NewNotifyHandler(deps.WebhookRegistrar)

	// --- 運用エンドポイント（レート制限の対象外） ---

	r.Get("/health", newHealthHandler(deps.SessionCounter))
	if deps.MetricsHandler != nil {
		r.Handle("/metrics", deps.MetricsHandler)
	}

	// --- APIルート ---
	r.Group(func(r chi.Router) {
		r.Use(deps.RateLimiter.GeneralMiddleware())

		// 勤務セッション
		r.Route("/api/duty", func(r chi.Router) {
			r.Post("/start", dutyHandler.StartDuty)
			r.Post("/end", dutyHandler.EndDuty)
			r.Post("/respond", dutyHandler.Respond)
		})

		// 通知先Webhook登録（登録専用レート制限を追加）
		r.With(deps.RateLimiter.WebhookRegistrationMiddleware()).
			Put("/api/notify/webhook", notifyHandler.RegisterWebhook)

		// 管理者ポイント操作（トークン認証を追加）
		r.Route("/api/admin/points/{userID}", func(r chi.Router) {
			r.Use(middleware.NewAdminAuthMiddleware(deps.AdminToken))

			r.Get("/", adminHandler.GetPoints)
			r.Post("/add", adminHandler.AddPoints)
			r.Post("/reset", adminHandler.ResetPoints)
		})
	})

	return r
}

// newHealthHandler はヘルスチェックのハンドラーを返す。
// アクティブセッション数を含めて応答する。
func newHealthHandler(counter SessionCounter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		active := 0
		if counter != nil {
			active = counter.ActiveCount()
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"status":          "ok",
			"active_sessions": active,
		})
	}
}
