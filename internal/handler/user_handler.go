package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/stampman/internal/middleware"
	"github.com/hitoshi/stampman/internal/model"
)

// HistoryServiceInterface は履歴参照ハンドラーが必要とするサービスインターフェース。
type HistoryServiceInterface interface {
	ListHistory(ctx context.Context, userID uuid.UUID) ([]*model.Interaction, error)
	ListTopStickers(ctx context.Context, userID uuid.UUID) ([]*model.StickerMetric, error)
}

// UserServiceInterface はユーザー自身のアカウント操作のサービスインターフェース。
type UserServiceInterface interface {
	UpdateUsername(ctx context.Context, userID uuid.UUID, newUsername string) error
	DeleteAccount(ctx context.Context, userID uuid.UUID) error
}

// historyResponse はレコメンド履歴のAPIレスポンス。
type historyResponse struct {
	InputText       string    `json:"input_text"`
	DetectedEmotion string    `json:"detected_emotion"`
	StickerURL      string    `json:"sticker_url"`
	CreatedAt       time.Time `json:"created_at"`
}

// topStickerResponse は利用回数上位ステッカーのAPIレスポンス。
type topStickerResponse struct {
	StickerURL string    `json:"sticker_url"`
	UsageCount int       `json:"usage_count"`
	LastUsed   time.Time `json:"last_used"`
}

// updateUsernameRequest はユーザー名変更のリクエストボディ。
type updateUsernameRequest struct {
	Username string `json:"username"`
}

// UserHandler はユーザー自身のアカウント・履歴のHTTPハンドラー。
type UserHandler struct {
	history HistoryServiceInterface
	service UserServiceInterface
}

// NewUserHandler はUserHandlerを生成する。
func NewUserHandler(history HistoryServiceInterface, service UserServiceInterface) *UserHandler {
	return &UserHandler{
		history: history,
		service: service,
	}
}

// History はユーザーのレコメンド履歴を新しい順に返す。
// GET /user/history
func (h *UserHandler) History(w http.ResponseWriter, r *http.Request) {
	identity, err := middleware.IdentityFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	records, err := h.history.ListHistory(r.Context(), identity.ID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	results := make([]historyResponse, 0, len(records))
	for _, rec := range records {
		results = append(results, historyResponse{
			InputText:       rec.InputText,
			DetectedEmotion: rec.DetectedEmotion,
			StickerURL:      rec.StickerURL,
			CreatedAt:       rec.CreatedAt,
		})
	}

	writeJSONResponse(w, http.StatusOK, results)
}

// TopStickers はユーザーの利用回数上位のステッカーを返す。
// GET /user/top-stickers
func (h *UserHandler) TopStickers(w http.ResponseWriter, r *http.Request) {
	identity, err := middleware.IdentityFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	records, err := h.history.ListTopStickers(r.Context(), identity.ID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	results := make([]topStickerResponse, 0, len(records))
	for _, rec := range records {
		results = append(results, topStickerResponse{
			StickerURL: rec.StickerURL,
			UsageCount: rec.UsageCount,
			LastUsed:   rec.LastUsed,
		})
	}

	writeJSONResponse(w, http.StatusOK, results)
}

// UpdateUsername はユーザー名を変更する。
// PUT /user/update-username
func (h *UserHandler) UpdateUsername(w http.ResponseWriter, r *http.Request) {
	identity, err := middleware.IdentityFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	var req updateUsernameRequest
	if err := decodeJSONBody(r, &req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest,
			model.NewValidationError("リクエストボディの形式が不正です。"))
		return
	}

	if err := h.service.UpdateUsername(r.Context(), identity.ID, req.Username); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Delete はユーザー自身のアカウントを削除する。
// DELETE /user/delete
func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	identity, err := middleware.IdentityFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	if err := h.service.DeleteAccount(r.Context(), identity.ID); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
