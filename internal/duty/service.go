// Package duty は勤務セッションのライフサイクル管理を提供する。
// 開始/終了の状態遷移、ポイント付与、リマインダースケジューラの起動と解除を含む。
package duty

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"sync"
	"time"

	"github.com/hitoshi/dutyman/internal/metrics"
	"github.com/hitoshi/dutyman/internal/model"
	"github.com/hitoshi/dutyman/internal/notify"
	"github.com/hitoshi/dutyman/internal/points"
	"github.com/hitoshi/dutyman/internal/store"
	"github.com/hitoshi/dutyman/internal/worker/reminder"
)

// 応答アクション
const (
	ActionContinue = "continue"
	ActionEnd      = "end"
)

// userIDPattern はユーザーIDとして受理する形式。
// 英数字・ハイフン・アンダースコア、64文字以内。
var userIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

// SchedulerRunner はリマインダーループの起動インターフェース。
// reminder.Schedulerが実装する。
type SchedulerRunner interface {
	Run(ctx context.Context, userID string, responses chan reminder.Response)
}

// EndResult は勤務終了の結果を表す。
type EndResult struct {
	Session *model.DutySession
	Reason  model.EndReason
	Elapsed time.Duration
	Earned  int
	Total   int
}

// sessionHandle はアクティブセッションごとのスケジューラ制御ハンドル。
// cancelで明示的な終了時にスケジューラを即時解除し、
// responsesでリマインダー応答をスケジューラへルーティングする。
type sessionHandle struct {
	cancel    context.CancelFunc
	responses chan reminder.Response
}

// Config はライフサイクル管理の設定。
type Config struct {
	// PointsInterval はポイント1単位に必要な勤務時間（デフォルト240秒）。
	PointsInterval time.Duration
}

// Service は勤務セッションのライフサイクルコントローラ。
// セッションの生成・破棄はすべてこのサービスを経由し、
// ストアの remove-and-return セマンティクスにより終了操作は競合下でも冪等になる。
type Service struct {
	sessions store.SessionStore
	ledger   store.PointsLedger
	notifier notify.Notifier
	recorder metrics.Recorder
	logger   *slog.Logger
	sched    SchedulerRunner
	cfg      Config

	// now は現在時刻を返す。テストで差し替え可能。
	now func() time.Time

	mu      sync.Mutex
	handles map[string]*sessionHandle
}

// NewService はServiceの新しいインスタンスを生成する。
// スケジューラはServiceを参照するため、生成後にSetSchedulerで注入する。
func NewService(
	sessions store.SessionStore,
	ledger store.PointsLedger,
	notifier notify.Notifier,
	recorder metrics.Recorder,
	logger *slog.Logger,
	cfg Config,
) *Service {
	if cfg.PointsInterval <= 0 {
		cfg.PointsInterval = points.DefaultInterval
	}
	return &Service{
		sessions: sessions,
		ledger:   ledger,
		notifier: notifier,
		recorder: recorder,
		logger:   logger,
		cfg:      cfg,
		now:      func() time.Time { return time.Now().UTC() },
		handles:  make(map[string]*sessionHandle),
	}
}

// SetScheduler はリマインダースケジューラを注入する。起動前に1回だけ呼ぶ。
func (s *Service) SetScheduler(sched SchedulerRunner) {
	s.sched = sched
}

// SetNowFunc は現在時刻の取得関数を差し替える。テスト用。
func (s *Service) SetNowFunc(fn func() time.Time) {
	s.now = fn
}

// SchedulerEnder はServiceをreminder.SessionEnderに適合させるアダプタ。
// スケジューラの終了経路では、明示的な終了との競合で敗者になった場合の
// NoActiveSessionを正常系として扱う。
type SchedulerEnder struct {
	svc *Service
}

// NewSchedulerEnder はSchedulerEnderを生成する。
func NewSchedulerEnder(svc *Service) *SchedulerEnder {
	return &SchedulerEnder{svc: svc}
}

// EndDuty はreminder.SessionEnderを実装する。
func (a *SchedulerEnder) EndDuty(ctx context.Context, userID string, reason model.EndReason) error {
	_, err := a.svc.EndDuty(ctx, userID, reason)
	if apiErr, ok := err.(*model.APIError); ok && apiErr.Code == model.ErrCodeNoActiveSession {
		// 別経路が先に終了処理を完了していた。重複した副作用は発生しない
		return nil
	}
	return err
}

// StartDuty は勤務を開始する。
// 既に勤務中の場合はAlreadyActiveエラーを返す。
// 成功時はセッションを登録し、リマインダースケジューラを専用goroutineで起動する。
func (s *Service) StartDuty(ctx context.Context, userID string) (*model.DutySession, error) {
	if !userIDPattern.MatchString(userID) {
		return nil, model.NewInvalidUserIDError(userID)
	}

	s.mu.Lock()
	sess, err := s.sessions.Start(userID)
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}

	// スケジューラの寿命はリクエストではなくセッションに紐づくため、
	// リクエストのctxから独立したコンテキストを使う
	runCtx, cancel := context.WithCancel(context.Background())
	handle := &sessionHandle{
		cancel:    cancel,
		responses: make(chan reminder.Response, 1),
	}
	s.handles[userID] = handle
	s.mu.Unlock()

	go s.sched.Run(runCtx, userID, handle.responses)

	s.recorder.RecordDutyStarted()
	s.recorder.IncActiveSessions()

	if err := s.notifier.SendDirect(ctx, userID, "勤務を開始しました", "リマインダーに応答して勤務を継続してください。"); err != nil {
		s.recorder.RecordNotifyFailure("direct")
	}
	if err := s.notifier.SendLog(ctx, "勤務開始", "ユーザーが勤務を開始しました。", userID, notify.SeverityInfo); err != nil {
		s.recorder.RecordNotifyFailure("log")
	}

	s.logger.Info("勤務を開始しました",
		slog.String("user_id", userID),
		slog.String("session_id", sess.ID),
	)

	return sess, nil
}

// EndDuty は勤務を終了する。
// セッションが存在しない場合はNoActiveSessionエラーを返す（状態は変更されない）。
// 明示的な終了操作とスケジューラのタイムアウト/応答経路が競合しても、
// ストアの remove-and-return により勝者は1つだけになり、
// ポイント付与と終了通知はちょうど1回だけ実行される。
func (s *Service) EndDuty(ctx context.Context, userID string, reason model.EndReason) (*EndResult, error) {
	if !userIDPattern.MatchString(userID) {
		return nil, model.NewInvalidUserIDError(userID)
	}

	s.mu.Lock()
	sess := s.sessions.End(userID)
	var handle *sessionHandle
	if sess != nil {
		handle = s.handles[userID]
		delete(s.handles, userID)
	}
	s.mu.Unlock()

	if sess == nil {
		return nil, model.NewNoActiveSessionError()
	}
	if handle != nil {
		handle.cancel()
	}

	elapsed := sess.Elapsed(s.now())
	earned := points.Earned(elapsed, s.cfg.PointsInterval)

	var total int
	if earned > 0 {
		total = s.ledger.Add(userID, earned)
	} else {
		total = s.ledger.Total(userID)
	}

	s.recorder.RecordDutyEnded(string(reason))
	s.recorder.RecordPointsAwarded(earned)
	s.recorder.DecActiveSessions()

	body := fmt.Sprintf("理由: %s\n獲得ポイント: %d\n累計ポイント: %d",
		reason.Description(), earned, total)
	if err := s.notifier.SendDirect(ctx, userID, "勤務を終了しました", body); err != nil {
		s.recorder.RecordNotifyFailure("direct")
	}

	severity := notify.SeverityInfo
	if reason == model.EndReasonNoResponse {
		severity = notify.SeverityWarn
	}
	logDesc := fmt.Sprintf("理由: %s / 獲得: %d / 累計: %d", reason.Description(), earned, total)
	if err := s.notifier.SendLog(ctx, "勤務終了", logDesc, userID, severity); err != nil {
		s.recorder.RecordNotifyFailure("log")
	}

	s.logger.Info("勤務を終了しました",
		slog.String("user_id", userID),
		slog.String("session_id", sess.ID),
		slog.String("reason", string(reason)),
		slog.Duration("elapsed", elapsed),
		slog.Int("points_earned", earned),
		slog.Int("points_total", total),
	)

	return &EndResult{
		Session: sess,
		Reason:  reason,
		Elapsed: elapsed,
		Earned:  earned,
		Total:   total,
	}, nil
}

// Respond はリマインダーへのユーザー応答を処理する。
// continue: 現在の応答待ちフェーズへルーティングする。応答待ちでない場合は破棄される。
// end: リマインダーからの勤務終了として扱う。
// 1フェーズにつき最初の応答のみが有効で、2件目以降は破棄される。
func (s *Service) Respond(ctx context.Context, userID, action string) (*EndResult, error) {
	if !userIDPattern.MatchString(userID) {
		return nil, model.NewInvalidUserIDError(userID)
	}

	switch action {
	case ActionEnd:
		return s.EndDuty(ctx, userID, model.EndReasonReminder)

	case ActionContinue:
		s.mu.Lock()
		handle := s.handles[userID]
		s.mu.Unlock()

		if handle == nil || s.sessions.Get(userID) == nil {
			return nil, model.NewNoActiveSessionError()
		}

		select {
		case handle.responses <- reminder.ResponseContinue:
		default:
			// 同一フェーズで既に応答済み。後続の応答は破棄する
		}

		s.logger.Info("リマインダーに継続応答がありました",
			slog.String("user_id", userID),
		)
		return nil, nil

	default:
		return nil, model.NewInvalidActionError(action)
	}
}

// TotalPoints は指定ユーザーの累計ポイントを返す。管理者照会用。
func (s *Service) TotalPoints(userID string) (int, error) {
	if !userIDPattern.MatchString(userID) {
		return 0, model.NewInvalidUserIDError(userID)
	}
	return s.ledger.Total(userID), nil
}

// AddPoints は指定ユーザーにポイントを手動加算し、新しい累計を返す。管理者操作用。
// 負のポイントはInvalidPointsエラーとして拒否し、状態を変更しない。
func (s *Service) AddPoints(userID string, delta int) (int, error) {
	if !userIDPattern.MatchString(userID) {
		return 0, model.NewInvalidUserIDError(userID)
	}
	if delta < 0 {
		return 0, model.NewInvalidPointsError(delta)
	}

	total := s.ledger.Add(userID, delta)
	s.logger.Info("ポイントを手動加算しました",
		slog.String("user_id", userID),
		slog.Int("delta", delta),
		slog.Int("total", total),
	)
	return total, nil
}

// ResetPoints は指定ユーザーの累計ポイントを0にする。管理者操作用。
// ポイントを持ったことのないユーザーに対しても失敗しない。
func (s *Service) ResetPoints(userID string) error {
	if !userIDPattern.MatchString(userID) {
		return model.NewInvalidUserIDError(userID)
	}

	s.ledger.Reset(userID)
	s.logger.Info("ポイントをリセットしました",
		slog.String("user_id", userID),
	)
	return nil
}
