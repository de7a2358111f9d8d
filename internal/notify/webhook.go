package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

// webhookPayload はWebhookへPOSTするJSONボディ。
type webhookPayload struct {
	UserID    string `json:"user_id,omitempty"`
	Title     string `json:"title"`
	Body      string `json:"body"`
	Severity  string `json:"severity"`
	Timestamp string `json:"timestamp"`
}

// WebhookNotifier はWebhookへのHTTP POSTで通知を配信するNotifier実装。
// 通知先URLはユーザー登録制のため、SSRF防止付きのHTTPクライアントを使用する。
type WebhookNotifier struct {
	httpClient *http.Client
	registry   *WebhookRegistry
	logURL     string
	logger     *slog.Logger
	now        func() time.Time
}

// NewWebhookNotifier はWebhookNotifierの新しいインスタンスを生成する。
// httpClientにはsecurity.SSRFGuardServiceが生成するクライアントを渡すことを想定している。
// logURLが空の場合、SendLogは何もしない。
func NewWebhookNotifier(httpClient *http.Client, registry *WebhookRegistry, logURL string, logger *slog.Logger) *WebhookNotifier {
	return &WebhookNotifier{
		httpClient: httpClient,
		registry:   registry,
		logURL:     logURL,
		logger:     logger,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// SendDirect は指定ユーザーの登録済みWebhookへ通知を送信する。
// Webhookが未登録の場合、および配信に失敗した場合はErrUnreachableを返す。
func (n *WebhookNotifier) SendDirect(ctx context.Context, userID, title, body string) error {
	url, ok := n.registry.Lookup(userID)
	if !ok {
		return fmt.Errorf("%w: no webhook registered for user %s", ErrUnreachable, userID)
	}

	payload := webhookPayload{
		UserID:    userID,
		Title:     title,
		Body:      body,
		Severity:  string(SeverityInfo),
		Timestamp: n.now().Format(time.RFC3339),
	}

	if err := n.post(ctx, url, payload); err != nil {
		n.logger.Warn("ダイレクト通知の配信に失敗しました",
			slog.String("user_id", userID),
			slog.String("title", title),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("%w: %s", ErrUnreachable, err.Error())
	}

	return nil
}

// SendLog は運用者向けのログWebhookへイベント通知を送信する。
// ログWebhookが未設定の場合は何もしない。配信失敗はErrUnreachableを返す。
func (n *WebhookNotifier) SendLog(ctx context.Context, title, description, userID string, severity Severity) error {
	if n.logURL == "" {
		return nil
	}

	payload := webhookPayload{
		UserID:    userID,
		Title:     title,
		Body:      description,
		Severity:  string(severity),
		Timestamp: n.now().Format(time.RFC3339),
	}

	if err := n.post(ctx, n.logURL, payload); err != nil {
		n.logger.Warn("ログ通知の配信に失敗しました",
			slog.String("title", title),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("%w: %s", ErrUnreachable, err.Error())
	}

	return nil
}

// post はJSONペイロードを指定URLへPOSTする。
// 2xx以外のステータスはエラーとして扱う。
func (n *WebhookNotifier) post(ctx context.Context, url string, payload webhookPayload) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("ペイロードのエンコードに失敗しました: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("HTTPリクエストの作成に失敗しました: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "Dutyman/1.0 Duty Tracker")

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("Webhookがステータス %d を返しました", resp.StatusCode)
	}

	return nil
}
