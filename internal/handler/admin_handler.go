package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// AdminServiceInterface は管理者ハンドラーが必要とするサービスインターフェース。
type AdminServiceInterface interface {
	// TotalPoints は累計ポイントを返す。
	TotalPoints(userID string) (int, error)
	// AddPoints はポイントを手動加算し、新しい累計を返す。
	AddPoints(userID string, delta int) (int, error)
	// ResetPoints は累計ポイントを0にする。
	ResetPoints(userID string) error
}

// AdminHandler は管理者ポイント操作のHTTPハンドラー。
// 管理者トークン認証はミドルウェア側で行う。
type AdminHandler struct {
	service AdminServiceInterface
}

// NewAdminHandler はAdminHandlerを生成する。
func NewAdminHandler(service AdminServiceInterface) *AdminHandler {
	return &AdminHandler{service: service}
}

// addPointsRequest はポイント加算リクエストのボディ。
type addPointsRequest struct {
	Points int `json:"points"`
}

// pointsResponse はポイント照会/操作のAPIレスポンス。
type pointsResponse struct {
	UserID string `json:"user_id"`
	Total  int    `json:"total"`
}

// GetPoints は累計ポイントを照会する。
// GET /api/admin/points/:userID
func (h *AdminHandler) GetPoints(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	total, err := h.service.TotalPoints(userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(pointsResponse{UserID: userID, Total: total})
}

// AddPoints はポイントを手動加算する。
// POST /api/admin/points/:userID/add
func (h *AdminHandler) AddPoints(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	var req addPointsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequestResponse(w)
		return
	}

	total, err := h.service.AddPoints(userID, req.Points)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(pointsResponse{UserID: userID, Total: total})
}

// ResetPoints は累計ポイントを0にリセットする。
// POST /api/admin/points/:userID/reset
func (h *AdminHandler) ResetPoints(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	if err := h.service.ResetPoints(userID); err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(pointsResponse{UserID: userID, Total: 0})
}
