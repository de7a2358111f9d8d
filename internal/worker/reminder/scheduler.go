// Package reminder は勤務セッションごとのリマインダーループを提供する。
// ランダム化された待機、確認プロンプトの送信、応答待ちと自動終了を含む。
package reminder

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/hitoshi/dutyman/internal/metrics"
	"github.com/hitoshi/dutyman/internal/model"
	"github.com/hitoshi/dutyman/internal/notify"
)

// Response はリマインダーへのユーザー応答を表す。
type Response int

const (
	// ResponseContinue は勤務継続の応答。新しいリマインダーサイクルを開始する。
	ResponseContinue Response = iota
	// ResponseEnd は勤務終了の応答。
	ResponseEnd
)

// SessionReader はスケジューラが必要とするセッション参照インターフェース。
// store.SessionStoreの部分集合として定義する。
type SessionReader interface {
	Get(userID string) *model.DutySession
	IncrementReminder(userID string) (int, bool)
}

// SessionEnder は勤務終了の実行インターフェース。
// セッションの破棄は必ずライフサイクルコントローラ経由で行い、
// スケジューラがストアを直接操作することはない。
type SessionEnder interface {
	EndDuty(ctx context.Context, userID string, reason model.EndReason) error
}

// Config はリマインダーループのタイミング設定。
type Config struct {
	// DelayMin / DelayMax はリマインダー前の待機時間の範囲。
	// サイクルごとにこの範囲から一様乱数で選択する（デフォルト20〜30分）。
	DelayMin time.Duration
	DelayMax time.Duration
	// ResponseTimeout はプロンプト送信後の応答待ち時間の上限（デフォルト120秒）。
	ResponseTimeout time.Duration
}

// DefaultConfig はデフォルトのタイミング設定を返す。
func DefaultConfig() Config {
	return Config{
		DelayMin:        20 * time.Minute,
		DelayMax:        30 * time.Minute,
		ResponseTimeout: 120 * time.Second,
	}
}

// Scheduler は1セッションにつき1つのリマインダーループを実行する。
// ループの状態遷移:
//
//	Waiting（ランダム待機）→ AwaitingResponse（応答待ち）→ Waiting または終了
//
// 待機明けの各チェックポイントでセッションの生存を確認し、
// 別経路で終了済みの場合は副作用なしにループを打ち切る。
type Scheduler struct {
	store    SessionReader
	ender    SessionEnder
	notifier notify.Notifier
	recorder metrics.Recorder
	logger   *slog.Logger
	cfg      Config

	// interval はサイクルごとの待機時間を返す。テストで決定的な値に差し替え可能。
	interval func() time.Duration
	// now は現在時刻を返す。テストで差し替え可能。
	now func() time.Time
}

// NewScheduler はSchedulerの新しいインスタンスを生成する。
// タイミング設定が未指定（ゼロ値）の場合はデフォルト値を使用する。
func NewScheduler(
	store SessionReader,
	ender SessionEnder,
	notifier notify.Notifier,
	recorder metrics.Recorder,
	logger *slog.Logger,
	cfg Config,
) *Scheduler {
	def := DefaultConfig()
	if cfg.DelayMin <= 0 {
		cfg.DelayMin = def.DelayMin
	}
	if cfg.DelayMax < cfg.DelayMin {
		cfg.DelayMax = cfg.DelayMin
	}
	if cfg.ResponseTimeout <= 0 {
		cfg.ResponseTimeout = def.ResponseTimeout
	}

	s := &Scheduler{
		store:    store,
		ender:    ender,
		notifier: notifier,
		recorder: recorder,
		logger:   logger,
		cfg:      cfg,
		now:      func() time.Time { return time.Now().UTC() },
	}
	s.interval = s.randomDelay
	return s
}

// SetIntervalFunc は待機時間の選択関数を差し替える。テスト用。
func (s *Scheduler) SetIntervalFunc(fn func() time.Duration) {
	s.interval = fn
}

// SetNowFunc は現在時刻の取得関数を差し替える。テスト用。
func (s *Scheduler) SetNowFunc(fn func() time.Time) {
	s.now = fn
}

// randomDelay は[DelayMin, DelayMax]から一様乱数で待機時間を選択する。
func (s *Scheduler) randomDelay() time.Duration {
	span := int64(s.cfg.DelayMax - s.cfg.DelayMin)
	if span <= 0 {
		return s.cfg.DelayMin
	}
	return s.cfg.DelayMin + time.Duration(rand.Int63n(span+1))
}

// Run は指定セッションのリマインダーループを実行する。
// セッション開始時に専用goroutineとして起動され、以下のいずれかで終了する:
//   - ctxのキャンセル（明示的な勤務終了によるスケジューラ解除）
//   - セッションの消滅（待機明けのチェックで検出、副作用なし）
//   - プロンプト配信の失敗（終了も再試行もせずループのみ停止する。
//     セッションはアクティブなまま残る。既知のエッジケース）
//   - 応答タイムアウトまたは終了応答による勤務終了
//
// responsesは応答ルーティング用のバッファ1のチャネル。
// 各プロンプト送信前に前フェーズの遅延応答を破棄するため、
// 1フェーズにつき最初の応答のみが有効になる。
func (s *Scheduler) Run(ctx context.Context, userID string, responses chan Response) {
	for {
		delay := s.interval()
		s.logger.Info("次のリマインダーを予約しました",
			slog.String("user_id", userID),
			slog.Duration("delay", delay),
		)

		select {
		case <-ctx.Done():
			return
		case <-time.After(delay):
		}

		// 待機中に別経路で終了していた場合は何もせず終了する
		sess := s.store.Get(userID)
		if sess == nil || !sess.Active {
			return
		}

		number, ok := s.store.IncrementReminder(userID)
		if !ok {
			return
		}

		elapsed := sess.Elapsed(s.now())

		// 前フェーズの遅延応答を破棄する（最初の応答のみを有効にするため）
		for len(responses) > 0 {
			<-responses
		}

		title := fmt.Sprintf("リマインダー #%d", number)
		body := fmt.Sprintf("現在 %s 勤務中です。継続する場合は continue、終了する場合は end で応答してください。",
			formatElapsed(elapsed))

		if err := s.notifier.SendDirect(ctx, userID, title, body); err != nil {
			// 配信失敗時は再試行も自動終了も行わず、ループのみ停止する
			s.recorder.RecordNotifyFailure("reminder")
			s.logger.Warn("リマインダーの配信に失敗したためループを停止します",
				slog.String("user_id", userID),
				slog.Int("reminder_number", number),
				slog.String("error", err.Error()),
			)
			return
		}

		s.recorder.RecordReminderSent()
		s.logger.Info("リマインダーを送信しました",
			slog.String("user_id", userID),
			slog.Int("reminder_number", number),
			slog.Duration("elapsed", elapsed),
		)

		select {
		case <-ctx.Done():
			return

		case resp := <-responses:
			if resp == ResponseEnd {
				if err := s.ender.EndDuty(ctx, userID, model.EndReasonReminder); err != nil {
					s.logger.Warn("リマインダーからの勤務終了に失敗しました",
						slog.String("user_id", userID),
						slog.String("error", err.Error()),
					)
				}
				return
			}
			// 継続応答: 新しいランダム待機でサイクルを再開する

		case <-time.After(s.cfg.ResponseTimeout):
			s.recorder.RecordReminderTimeout()
			s.logger.Info("リマインダーへの応答がないため勤務を自動終了します",
				slog.String("user_id", userID),
				slog.Int("reminder_number", number),
			)

			// EndDutyは自セッションのctxをキャンセルするため、
			// 後続の通知にはキャンセルの影響を受けないコンテキストを使う
			notifyCtx := context.WithoutCancel(ctx)

			if err := s.ender.EndDuty(notifyCtx, userID, model.EndReasonNoResponse); err != nil {
				s.logger.Warn("無応答による勤務終了に失敗しました",
					slog.String("user_id", userID),
					slog.String("error", err.Error()),
				)
				return
			}

			// 通常の終了通知とは別に、自動終了されたことをユーザーに知らせる
			if err := s.notifier.SendDirect(notifyCtx, userID,
				"勤務を自動終了しました",
				fmt.Sprintf("リマインダー #%d への応答がありませんでした。", number),
			); err != nil {
				s.recorder.RecordNotifyFailure("auto_end")
			}
			return
		}
	}
}

// formatElapsed は経過時間を「1時間23分」のような表示用文字列に整形する。
func formatElapsed(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	d = d.Truncate(time.Second)

	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	sec := int(d.Seconds()) % 60

	switch {
	case h > 0:
		return fmt.Sprintf("%d時間%d分", h, m)
	case m > 0:
		return fmt.Sprintf("%d分%d秒", m, sec)
	default:
		return fmt.Sprintf("%d秒", sec)
	}
}
