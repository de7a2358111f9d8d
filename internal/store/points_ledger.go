package store

import "sync"

// PointsLedger はユーザーごとの累計ポイントの保持インターフェース。
// エントリは初回加算時に遅延生成され、プロセス生存期間のみ保持される。
type PointsLedger interface {
	// Total は指定ユーザーの累計ポイントを返す。エントリが存在しない場合は0を返す。
	Total(userID string) int

	// Add は指定ユーザーにポイントを加算し、新しい累計を返す。
	// deltaの検証（非負）は呼び出し元の責務。
	Add(userID string, delta int) int

	// Reset は指定ユーザーの累計ポイントを0にする。
	// エントリが存在しないユーザーに対しても失敗しない。
	Reset(userID string)
}

// MemoryPointsLedger はPointsLedgerのメモリ実装。
type MemoryPointsLedger struct {
	mu     sync.RWMutex
	points map[string]int
}

// NewMemoryPointsLedger はMemoryPointsLedgerの新しいインスタンスを生成する。
func NewMemoryPointsLedger() *MemoryPointsLedger {
	return &MemoryPointsLedger{
		points: make(map[string]int),
	}
}

// Total は指定ユーザーの累計ポイントを返す。
func (l *MemoryPointsLedger) Total(userID string) int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.points[userID]
}

// Add は指定ユーザーにポイントを加算し、新しい累計を返す。
func (l *MemoryPointsLedger) Add(userID string, delta int) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.points[userID] += delta
	return l.points[userID]
}

// Reset は指定ユーザーの累計ポイントを0にする。
func (l *MemoryPointsLedger) Reset(userID string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.points[userID] = 0
}
