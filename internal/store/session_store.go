// Package store はプロセス内メモリ上の勤務セッションとポイント台帳を提供する。
// 永続化は行わない設計（再起動によるデータ消失を許容する）。
// 全操作は同一ユーザーIDに対する並行呼び出しに対してアトミックである。
package store

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/dutyman/internal/model"
)

// SessionStore は勤務セッションの保持インターフェース。
type SessionStore interface {
	// Start はセッションをアトミックに検査・登録する。
	// 既にアクティブなセッションが存在する場合はAlreadyActiveエラーを返す。
	Start(userID string) (*model.DutySession, error)

	// Get は指定ユーザーのアクティブセッションを取得する。存在しない場合はnilを返す。
	Get(userID string) *model.DutySession

	// End はセッションを削除して返す。冪等であり、
	// セッションが存在しない場合はnilを返す（2回目の呼び出しは失敗しない）。
	End(userID string) *model.DutySession

	// IncrementReminder はリマインダー回数をインクリメントして新しい値を返す。
	// セッションが消滅している場合はfalseを返す（呼び出し元はスケジューリングを中断する）。
	IncrementReminder(userID string) (int, bool)

	// ActiveCount は現在のアクティブセッション数を返す。メトリクスおよびヘルスチェック用。
	ActiveCount() int
}

// MemorySessionStore はSessionStoreのメモリ実装。
// 単一のミューテックスでマップ全体を保護し、
// 同一ユーザーへの並行開始でも「同時に1セッション」の不変条件を保証する。
type MemorySessionStore struct {
	mu       sync.Mutex
	sessions map[string]*model.DutySession
	now      func() time.Time
}

// NewMemorySessionStore はMemorySessionStoreの新しいインスタンスを生成する。
func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{
		sessions: make(map[string]*model.DutySession),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// SetNowFunc は現在時刻の取得関数を差し替える。テスト用。
func (s *MemorySessionStore) SetNowFunc(now func() time.Time) {
	s.now = now
}

// Start はセッションをアトミックに検査・登録する。
func (s *MemorySessionStore) Start(userID string) (*model.DutySession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.sessions[userID]; exists {
		return nil, model.NewAlreadyActiveError()
	}

	sess := &model.DutySession{
		ID:            uuid.NewString(),
		UserID:        userID,
		StartedAt:     s.now(),
		ReminderCount: 0,
		Active:        true,
	}
	s.sessions[userID] = sess

	return snapshot(sess), nil
}

// Get は指定ユーザーのアクティブセッションを取得する。
func (s *MemorySessionStore) Get(userID string) *model.DutySession {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, exists := s.sessions[userID]
	if !exists {
		return nil
	}
	return snapshot(sess)
}

// End はセッションを削除して返す。冪等。
func (s *MemorySessionStore) End(userID string) *model.DutySession {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, exists := s.sessions[userID]
	if !exists {
		return nil
	}
	delete(s.sessions, userID)
	sess.Active = false
	return snapshot(sess)
}

// IncrementReminder はリマインダー回数をインクリメントして新しい値を返す。
func (s *MemorySessionStore) IncrementReminder(userID string) (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, exists := s.sessions[userID]
	if !exists {
		return 0, false
	}
	sess.ReminderCount++
	return sess.ReminderCount, true
}

// ActiveCount は現在のアクティブセッション数を返す。
func (s *MemorySessionStore) ActiveCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// snapshot はセッションのコピーを返す。
// 内部マップのエントリを呼び出し元と共有しないことでデータ競合を防ぐ。
func snapshot(sess *model.DutySession) *model.DutySession {
	copied := *sess
	return &copied
}
