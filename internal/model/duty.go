// Package model はドメインモデルを定義する。
package model

import "time"

// DutySession はユーザーの勤務セッションを表す。
// 1ユーザーにつき同時に存在できるセッションは最大1件。
// プロセス内メモリ上にのみ存在し、再起動で消失する。
type DutySession struct {
	ID            string
	UserID        string
	StartedAt     time.Time
	ReminderCount int
	Active        bool
}

// Elapsed はセッション開始からの経過時間を返す。
func (s *DutySession) Elapsed(now time.Time) time.Duration {
	return now.Sub(s.StartedAt)
}

// EndReason は勤務終了の理由を表す。メトリクスラベルとログにはコードを、
// ユーザー通知にはDescriptionを使用する。
type EndReason string

const (
	// EndReasonManual は明示的な終了操作による終了。
	EndReasonManual EndReason = "manual"
	// EndReasonReminder はリマインダーからの終了操作による終了。
	EndReasonReminder EndReason = "reminder"
	// EndReasonNoResponse はリマインダーへの無応答による自動終了。
	EndReasonNoResponse EndReason = "no_response"
)

// Description は終了理由のユーザー向け説明文を返す。
func (r EndReason) Description() string {
	switch r {
	case EndReasonManual:
		return "手動で終了しました。"
	case EndReasonReminder:
		return "リマインダーから終了しました。"
	case EndReasonNoResponse:
		return "リマインダーへの応答がなかったため自動終了しました。"
	default:
		return "終了しました。"
	}
}
