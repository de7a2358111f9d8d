package store

import (
	"sync"
	"testing"
)

// TestMemoryPointsLedger_AddAndTotal は加算と累計取得をテストする。
func TestMemoryPointsLedger_AddAndTotal(t *testing.T) {
	l := NewMemoryPointsLedger()

	if got := l.Total("user-1"); got != 0 {
		t.Errorf("Total for unknown user = %d, want 0", got)
	}

	if got := l.Add("user-1", 50); got != 50 {
		t.Errorf("Add(50) = %d, want 50", got)
	}
	if got := l.Add("user-1", 10); got != 60 {
		t.Errorf("Add(10) = %d, want 60", got)
	}
	if got := l.Total("user-1"); got != 60 {
		t.Errorf("Total = %d, want 60", got)
	}
}

// TestMemoryPointsLedger_Reset はリセットが累計を0にし、
// 未知のユーザーに対しても失敗しないことをテストする。
func TestMemoryPointsLedger_Reset(t *testing.T) {
	l := NewMemoryPointsLedger()

	l.Add("user-1", 100)
	l.Reset("user-1")
	if got := l.Total("user-1"); got != 0 {
		t.Errorf("Total after Reset = %d, want 0", got)
	}

	// 一度もポイントを持ったことのないユーザー
	l.Reset("user-2")
	if got := l.Total("user-2"); got != 0 {
		t.Errorf("Total after Reset of unknown user = %d, want 0", got)
	}
}

// TestMemoryPointsLedger_ConcurrentAdd は並行加算で取りこぼしが
// 発生しないことをテストする。
func TestMemoryPointsLedger_ConcurrentAdd(t *testing.T) {
	l := NewMemoryPointsLedger()

	const workers = 100
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			l.Add("user-1", 1)
		}()
	}
	wg.Wait()

	if got := l.Total("user-1"); got != workers {
		t.Errorf("Total after concurrent Add = %d, want %d", got, workers)
	}
}
