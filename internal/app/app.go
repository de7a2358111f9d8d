// Package app はアプリケーションの起動と依存関係のワイヤリングを提供する。
package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/hitoshi/dutyman/internal/config"
	"github.com/hitoshi/dutyman/internal/duty"
	"github.com/hitoshi/dutyman/internal/handler"
	"github.com/hitoshi/dutyman/internal/logger"
	"github.com/hitoshi/dutyman/internal/metrics"
	"github.com/hitoshi/dutyman/internal/middleware"
	"github.com/hitoshi/dutyman/internal/notify"
	"github.com/hitoshi/dutyman/internal/security"
	"github.com/hitoshi/dutyman/internal/store"
	"github.com/hitoshi/dutyman/internal/worker/reminder"
)

// Init はアプリケーションの初期化を行う。
// 環境変数からConfigを読み込み、JSON構造化ログをセットアップする。
// writerが指定された場合はログ出力先としてそのwriterを使用する。
func Init(w io.Writer) (*config.Config, error) {
	// 1. ログの初期化（設定読み込み前にログを使えるようにする）
	logger.SetupDefault(w)

	// 2. 環境変数から設定を読み込む
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	return cfg, nil
}

// Run はアプリケーションのメインエントリーポイント。
// コマンドライン引数からサブコマンドを解析し、対応するモードで起動する。
// argsにはos.Args[1:]を渡す。
func Run(w io.Writer, args []string) error {
	cmd := ParseCommand(args)

	// healthcheck は軽量サブコマンドのため、フル初期化をスキップする
	if cmd == CommandHealthcheck {
		port := os.Getenv("SERVER_PORT")
		if port == "" {
			port = "8080"
		}
		return runHealthcheck(port)
	}

	cfg, err := Init(w)
	if err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}

	slog.Info("starting application",
		slog.String("command", string(cmd)),
		slog.String("port", cfg.ServerPort),
	)

	return runServe(cfg)
}

// runServe はAPIサーバーモードで起動する。
// 全依存関係をワイヤリングし、HTTPサーバーを起動する。
// セッション状態はインメモリのため、プロセス再起動で失われる。
// SIGINTまたはSIGTERMシグナルを受信するとグレースフルシャットダウンを行う。
func runServe(cfg *config.Config) error {
	// 1. ストアの初期化
	sessions := store.NewMemorySessionStore()
	ledger := store.NewMemoryPointsLedger()

	// 2. セキュリティサービスとメトリクスの初期化
	ssrfGuard := security.NewSSRFGuard()

	promRegistry := prometheus.NewRegistry()
	collector := metrics.NewCollector(promRegistry)

	// 3. 通知系の初期化
	// 通知先URLはユーザー登録のため、SSRF防止付きクライアントで送信する
	webhookRegistry := notify.NewWebhookRegistry(ssrfGuard)
	notifier := notify.NewWebhookNotifier(
		ssrfGuard.NewSafeClient(cfg.NotifyTimeout),
		webhookRegistry,
		cfg.LogWebhookURL,
		slog.Default(),
	)

	// 4. ライフサイクルコントローラとリマインダースケジューラの初期化
	// 両者は相互参照するため、サービス生成後にスケジューラを注入する
	dutyService := duty.NewService(
		sessions, ledger, notifier, collector, slog.Default(),
		duty.Config{PointsInterval: cfg.PointsInterval},
	)

	scheduler := reminder.NewScheduler(
		sessions,
		duty.NewSchedulerEnder(dutyService),
		notifier,
		collector,
		slog.Default(),
		reminder.Config{
			DelayMin:        cfg.ReminderDelayMin,
			DelayMax:        cfg.ReminderDelayMax,
			ResponseTimeout: cfg.ResponseTimeout,
		},
	)
	dutyService.SetScheduler(scheduler)

	// 5. ルーターの構築
	rateLimiterCfg := middleware.NewRateLimiterConfigPerMinute(
		cfg.RateLimitGeneral, cfg.RateLimitWebhookReg,
	)

	deps := &handler.RouterDeps{
		Logger:            slog.Default(),
		CORSAllowedOrigin: cfg.CORSAllowedOrigin,
		RateLimiter:       middleware.NewRateLimiter(rateLimiterCfg),
		AdminToken:        cfg.AdminToken,

		DutyService:      dutyService,
		AdminService:     dutyService,
		WebhookRegistrar: webhookRegistry,
		SessionCounter:   sessions,

		MetricsHandler: metrics.Handler(promRegistry),
	}

	router := handler.NewRouter(deps)

	// 6. HTTPサーバーの起動
	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// グレースフルシャットダウンのためのシグナルハンドリング
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("API server starting",
			slog.String("addr", server.Addr),
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server listen error", slog.String("error", err.Error()))
		}
	}()

	<-stop
	slog.Info("shutting down API server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	slog.Info("API server stopped gracefully")
	return nil
}

// runHealthcheck はヘルスチェックを実行する。
// distroless環境でのDockerヘルスチェック用サブコマンド。
// /health エンドポイントにHTTPリクエストを送り、結果を返す。
func runHealthcheck(port string) error {
	url := fmt.Sprintf("http://localhost:%s/health", port)
	client := &http.Client{Timeout: 5 * time.Second}

	resp, err := client.Get(url)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}

	return nil
}
