package handler

import (
	"context"
	"net/http"
	"time"
)

// Pinger は依存コンポーネントの疎通確認インターフェース。
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler はヘルスチェックのHTTPハンドラー。
// DBとRedisの疎通を確認し、どちらかが落ちていれば503を返す。
type HealthHandler struct {
	db    Pinger
	redis Pinger
}

// NewHealthHandler はHealthHandlerを生成する。
func NewHealthHandler(db, redis Pinger) *HealthHandler {
	return &HealthHandler{
		db:    db,
		redis: redis,
	}
}

// Health はヘルスチェックを実行する。
// GET /health
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	status := map[string]string{
		"status":   "ok",
		"database": "ok",
		"redis":    "ok",
	}
	healthy := true

	if err := h.db.Ping(ctx); err != nil {
		status["database"] = "unavailable"
		healthy = false
	}
	if err := h.redis.Ping(ctx); err != nil {
		status["redis"] = "unavailable"
		healthy = false
	}

	if !healthy {
		status["status"] = "degraded"
		writeJSONResponse(w, http.StatusServiceUnavailable, status)
		return
	}

	writeJSONResponse(w, http.StatusOK, status)
}
