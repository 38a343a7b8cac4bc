package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/stampman/internal/model"
)

// newTestRateLimiter はバースト2の小さい設定でRateLimiterを生成する。
func newTestRateLimiter(t *testing.T) *RateLimiter {
	t.Helper()
	rl := NewRateLimiter(RateLimiterConfig{
		GeneralRate:     1,
		GeneralBurst:    2,
		RecommendRate:   1,
		RecommendBurst:  1,
		CleanupInterval: time.Minute,
	})
	t.Cleanup(rl.Stop)
	return rl
}

func requestWithIdentity(identity model.Identity) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/user/history", nil)
	return req.WithContext(ContextWithIdentity(req.Context(), identity))
}

func TestRateLimiter_General_WithinBurst_Allows(t *testing.T) {
	rl := newTestRateLimiter(t)
	handler := rl.GeneralMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	identity := model.Identity{ID: uuid.New(), Role: model.RoleUser}

	for i := 0; i < 2; i++ {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, requestWithIdentity(identity))
		if w.Code != http.StatusOK {
			t.Fatalf("request %d: status = %d, want %d", i, w.Code, http.StatusOK)
		}
	}
}

func TestRateLimiter_General_BurstExceeded_Returns429(t *testing.T) {
	rl := newTestRateLimiter(t)
	handler := rl.GeneralMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	identity := model.Identity{ID: uuid.New(), Role: model.RoleUser}

	for i := 0; i < 2; i++ {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, requestWithIdentity(identity))
	}

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, requestWithIdentity(identity))
	if w.Code != http.StatusTooManyRequests {
		t.Errorf("status = %d, want %d", w.Code, http.StatusTooManyRequests)
	}
	if w.Header().Get("Retry-After") == "" {
		t.Error("Retry-After header should be set")
	}
}

func TestRateLimiter_SeparateSubjects_IndependentLimits(t *testing.T) {
	rl := newTestRateLimiter(t)
	handler := rl.GeneralMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	first := model.Identity{ID: uuid.New(), Role: model.RoleUser}
	second := model.Identity{ID: uuid.New(), Role: model.RoleUser}

	// 1人目のバーストを使い切る
	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, requestWithIdentity(first))
	}

	// 2人目には影響しない
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, requestWithIdentity(second))
	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Code, http.StatusOK)
	}

	if got := rl.GeneralLimiterCount(); got != 2 {
		t.Errorf("GeneralLimiterCount() = %d, want 2", got)
	}
}

func TestRateLimiter_Recommend_IndependentFromGeneral(t *testing.T) {
	rl := newTestRateLimiter(t)
	general := rl.GeneralMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	recommend := rl.RecommendMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	identity := model.Identity{ID: uuid.New(), Role: model.RoleUser}

	// レコメンドのバースト（1）を使い切る
	w := httptest.NewRecorder()
	recommend.ServeHTTP(w, requestWithIdentity(identity))
	if w.Code != http.StatusOK {
		t.Fatalf("first recommend: status = %d, want %d", w.Code, http.StatusOK)
	}

	w = httptest.NewRecorder()
	recommend.ServeHTTP(w, requestWithIdentity(identity))
	if w.Code != http.StatusTooManyRequests {
		t.Errorf("second recommend: status = %d, want %d", w.Code, http.StatusTooManyRequests)
	}

	// API全般の制限は独立している
	w = httptest.NewRecorder()
	general.ServeHTTP(w, requestWithIdentity(identity))
	if w.Code != http.StatusOK {
		t.Errorf("general after recommend limit: status = %d, want %d", w.Code, http.StatusOK)
	}
}

func TestRateLimiter_NoIdentity_Returns401(t *testing.T) {
	rl := newTestRateLimiter(t)
	handler := rl.GeneralMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not be called")
	}))

	req := httptest.NewRequest(http.MethodGet, "/user/history", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
}
