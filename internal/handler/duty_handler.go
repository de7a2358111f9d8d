// Package handler はHTTP APIのハンドラーとルーティングを提供する。
package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/hitoshi/dutyman/internal/duty"
	"github.com/hitoshi/dutyman/internal/model"
)

// DutyServiceInterface は勤務ハンドラーが必要とするサービスインターフェース。
type DutyServiceInterface interface {
	// StartDuty は勤務を開始する。
	StartDuty(ctx context.Context, userID string) (*model.DutySession, error)
	// EndDuty は勤務を終了する。
	EndDuty(ctx context.Context, userID string, reason model.EndReason) (*duty.EndResult, error)
	// Respond はリマインダーへの応答を処理する。
	Respond(ctx context.Context, userID, action string) (*duty.EndResult, error)
}

// DutyHandler は勤務セッションのHTTPハンドラー。
type DutyHandler struct {
	service DutyServiceInterface
}

// NewDutyHandler はDutyHandlerを生成する。
func NewDutyHandler(service DutyServiceInterface) *DutyHandler {
	return &DutyHandler{service: service}
}

// dutyRequest は勤務開始/終了リクエストのボディ。
type dutyRequest struct {
	UserID string `json:"user_id"`
}

// respondRequest はリマインダー応答リクエストのボディ。
type respondRequest struct {
	UserID string `json:"user_id"`
	Action string `json:"action"`
}

// sessionResponse は勤務セッションのAPIレスポンス。
type sessionResponse struct {
	SessionID string `json:"session_id"`
	UserID    string `json:"user_id"`
	StartedAt string `json:"started_at"`
}

// endResultResponse は勤務終了結果のAPIレスポンス。
type endResultResponse struct {
	UserID         string `json:"user_id"`
	Reason         string `json:"reason"`
	ElapsedSeconds int64  `json:"elapsed_seconds"`
	PointsEarned   int    `json:"points_earned"`
	PointsTotal    int    `json:"points_total"`
}

// StartDuty は勤務開始を処理する。
// POST /api/duty/start
func (h *DutyHandler) StartDuty(w http.ResponseWriter, r *http.Request) {
	var req dutyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequestResponse(w)
		return
	}

	sess, err := h.service.StartDuty(r.Context(), req.UserID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(sessionResponse{
		SessionID: sess.ID,
		UserID:    sess.UserID,
		StartedAt: sess.StartedAt.Format(time.RFC3339),
	})
}

// EndDuty は勤務終了を処理する。
// POST /api/duty/end
func (h *DutyHandler) EndDuty(w http.ResponseWriter, r *http.Request) {
	var req dutyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequestResponse(w)
		return
	}

	result, err := h.service.EndDuty(r.Context(), req.UserID, model.EndReasonManual)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(toEndResultResponse(req.UserID, result))
}

// Respond はリマインダーへの応答を処理する。
// POST /api/duty/respond
func (h *DutyHandler) Respond(w http.ResponseWriter, r *http.Request) {
	var req respondRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequestResponse(w)
		return
	}

	result, err := h.service.Respond(r.Context(), req.UserID, req.Action)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")

	// 継続応答は終了結果を持たない
	if result == nil {
		json.NewEncoder(w).Encode(map[string]string{"status": "continued"})
		return
	}
	json.NewEncoder(w).Encode(toEndResultResponse(req.UserID, result))
}

// toEndResultResponse はduty.EndResultからAPIレスポンスに変換する。
func toEndResultResponse(userID string, result *duty.EndResult) endResultResponse {
	return endResultResponse{
		UserID:         userID,
		Reason:         string(result.Reason),
		ElapsedSeconds: int64(result.Elapsed.Seconds()),
		PointsEarned:   result.Earned,
		PointsTotal:    result.Total,
	}
}
