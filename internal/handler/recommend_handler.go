package handler

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/hitoshi/stampman/internal/middleware"
	"github.com/hitoshi/stampman/internal/model"
	"github.com/hitoshi/stampman/internal/recommend"
)

// RecommendServiceInterface はレコメンドハンドラーが必要とするサービスインターフェース。
type RecommendServiceInterface interface {
	Recommend(ctx context.Context, userID uuid.UUID, inputText string) (*recommend.Result, error)
}

// findRequest はレコメンドのリクエストボディ。
type findRequest struct {
	InputText string `json:"input_text"`
}

// RecommendHandler はレコメンドのHTTPハンドラー。
type RecommendHandler struct {
	service RecommendServiceInterface
}

// NewRecommendHandler はRecommendHandlerを生成する。
func NewRecommendHandler(service RecommendServiceInterface) *RecommendHandler {
	return &RecommendHandler{
		service: service,
	}
}

// Find は入力テキストに合うステッカーのレコメンドを返す。
// POST /user/find
func (h *RecommendHandler) Find(w http.ResponseWriter, r *http.Request) {
	identity, err := middleware.IdentityFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	var req findRequest
	if err := decodeJSONBody(r, &req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest,
			model.NewValidationError("リクエストボディの形式が不正です。"))
		return
	}

	result, err := h.service.Recommend(r.Context(), identity.ID, req.InputText)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, result)
}
