// Package notify は勤務イベントの外部通知を提供する。
// ユーザーごとに登録されたWebhookへのダイレクト通知と、
// 運用者が設定するログWebhookへのイベント通知を含む。
package notify

import (
	"context"
	"errors"
)

// Severity はログ通知の重要度。
type Severity string

const (
	SeverityInfo  Severity = "info"
	SeverityWarn  Severity = "warn"
	SeverityError Severity = "error"
)

// ErrUnreachable は通知先に到達できなかったことを表す。
// 呼び出し元はこのエラーを致命的として扱わない（通知なしで処理を継続する）。
var ErrUnreachable = errors.New("notification target unreachable")

// Notifier は通知送信のインターフェース。
type Notifier interface {
	// SendDirect は指定ユーザーのWebhookへダイレクト通知を送信する。
	// Webhook未登録または配信失敗の場合はErrUnreachableを返す。
	SendDirect(ctx context.Context, userID, title, body string) error

	// SendLog は運用者向けのログWebhookへイベント通知を送信する。
	// ログWebhookが未設定の場合は何もしない。
	SendLog(ctx context.Context, title, description, userID string, severity Severity) error
}
