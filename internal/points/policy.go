// Package points はポイント付与ポリシーを提供する。
// 純粋関数のみで構成され、副作用を持たない。
package points

import "time"

// DefaultInterval はポイント1単位に必要な勤務時間のデフォルト値（240秒）。
const DefaultInterval = 240 * time.Second

// Earned は勤務時間に応じて獲得するポイントを計算する。
// earned = floor(active / interval)。active < interval の場合は0。
// intervalが0以下の場合はDefaultIntervalを使用する。
// 負のactiveは呼び出し側の契約違反だが、0として扱う。
func Earned(active, interval time.Duration) int {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if active < 0 {
		return 0
	}
	return int(active / interval)
}
