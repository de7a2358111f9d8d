package notify

import (
	"sync"

	"github.com/hitoshi/dutyman/internal/model"
)

// URLValidator はWebhook URL登録時の事前検証インターフェース。
// security.SSRFGuardServiceの部分集合として定義する。
type URLValidator interface {
	ValidateURL(rawURL string) error
}

// WebhookRegistry はユーザーごとの通知先Webhook URLを保持する。
// セッションやポイントと同様にプロセス内メモリ上にのみ存在する。
type WebhookRegistry struct {
	mu        sync.RWMutex
	urls      map[string]string
	validator URLValidator
}

// NewWebhookRegistry はWebhookRegistryの新しいインスタンスを生成する。
func NewWebhookRegistry(validator URLValidator) *WebhookRegistry {
	return &WebhookRegistry{
		urls:      make(map[string]string),
		validator: validator,
	}
}

// Register はユーザーの通知先Webhook URLを登録する。
// ユーザーが任意のURLを指定できるため、SSRF防止の事前検証を通過したURLのみ受理する。
// 既存の登録は上書きされる。
func (r *WebhookRegistry) Register(userID, rawURL string) error {
	if err := r.validator.ValidateURL(rawURL); err != nil {
		return model.NewInvalidURLError(err.Error())
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.urls[userID] = rawURL
	return nil
}

// Lookup は指定ユーザーの登録済みWebhook URLを返す。
func (r *WebhookRegistry) Lookup(userID string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	url, ok := r.urls[userID]
	return url, ok
}
