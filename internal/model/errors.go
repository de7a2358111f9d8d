// Package model はドメインモデルを定義する。
package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: auth, validation, duty, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeAlreadyActive   = "ALREADY_ACTIVE"
	ErrCodeNoActiveSession = "NO_ACTIVE_SESSION"
	ErrCodeInvalidUserID   = "INVALID_USER_ID"
	ErrCodeInvalidPoints   = "INVALID_POINTS"
	ErrCodeInvalidAction   = "INVALID_ACTION"
	ErrCodeInvalidURL      = "INVALID_URL"
	ErrCodeUnauthorized    = "UNAUTHORIZED"
)

// NewAlreadyActiveError は勤務中ユーザーの開始操作に対するエラーを生成する。
// 起動側に表示する拒否応答であり、エラーログの対象ではない。
func NewAlreadyActiveError() *APIError {
	return &APIError{
		Code:     ErrCodeAlreadyActive,
		Message:  "既に勤務中です。",
		Category: "duty",
		Action:   "現在の勤務を終了してから再度開始してください。",
	}
}

// NewNoActiveSessionError は勤務中でないユーザーへの終了/応答操作に対するエラーを生成する。
func NewNoActiveSessionError() *APIError {
	return &APIError{
		Code:     ErrCodeNoActiveSession,
		Message:  "現在勤務中ではありません。",
		Category: "duty",
		Action:   "先に勤務を開始してください。",
	}
}

// NewInvalidUserIDError は不正な形式のユーザーIDに対するエラーを生成する。
func NewInvalidUserIDError(userID string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidUserID,
		Message:  fmt.Sprintf("不正なユーザーID形式です: %s", userID),
		Category: "validation",
		Action:   "ユーザーIDは英数字・ハイフン・アンダースコア（64文字以内）で指定してください。",
	}
}

// NewInvalidPointsError は負のポイント加算などの不正なポイント操作に対するエラーを生成する。
func NewInvalidPointsError(points int) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidPoints,
		Message:  fmt.Sprintf("不正なポイント値です: %d", points),
		Category: "validation",
		Action:   "ポイントには0以上の整数を指定してください。",
	}
}

// NewInvalidActionError は不正なリマインダー応答アクションに対するエラーを生成する。
func NewInvalidActionError(action string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidAction,
		Message:  fmt.Sprintf("不正な応答アクションです: %s", action),
		Category: "validation",
		Action:   "応答には continue または end を指定してください。",
	}
}

// NewInvalidURLError は不正なWebhook URLに対するエラーを生成する。
func NewInvalidURLError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidURL,
		Message:  fmt.Sprintf("無効なURLです: %s", reason),
		Category: "validation",
		Action:   "正しいURL形式（http:// または https:// で始まる公開URL）を入力してください。",
	}
}

// NewUnauthorizedError は管理者認証の失敗に対するエラーを生成する。
func NewUnauthorizedError() *APIError {
	return &APIError{
		Code:     ErrCodeUnauthorized,
		Message:  "この操作には管理者権限が必要です。",
		Category: "auth",
		Action:   "正しい管理者トークンを指定してください。",
	}
}
