package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/stampman/internal/middleware"
	"github.com/hitoshi/stampman/internal/model"
)

// --- モック定義 ---

type mockHistoryService struct {
	listHistoryFn     func(ctx context.Context, userID uuid.UUID) ([]*model.Interaction, error)
	listTopStickersFn func(ctx context.Context, userID uuid.UUID) ([]*model.StickerMetric, error)
}

func (m *mockHistoryService) ListHistory(ctx context.Context, userID uuid.UUID) ([]*model.Interaction, error) {
	if m.listHistoryFn != nil {
		return m.listHistoryFn(ctx, userID)
	}
	return nil, nil
}

func (m *mockHistoryService) ListTopStickers(ctx context.Context, userID uuid.UUID) ([]*model.StickerMetric, error) {
	if m.listTopStickersFn != nil {
		return m.listTopStickersFn(ctx, userID)
	}
	return nil, nil
}

type mockUserService struct {
	updateUsernameFn func(ctx context.Context, userID uuid.UUID, newUsername string) error
	deleteAccountFn  func(ctx context.Context, userID uuid.UUID) error
}

func (m *mockUserService) UpdateUsername(ctx context.Context, userID uuid.UUID, newUsername string) error {
	if m.updateUsernameFn != nil {
		return m.updateUsernameFn(ctx, userID, newUsername)
	}
	return nil
}

func (m *mockUserService) DeleteAccount(ctx context.Context, userID uuid.UUID) error {
	if m.deleteAccountFn != nil {
		return m.deleteAccountFn(ctx, userID)
	}
	return nil
}

// --- テストヘルパー ---

func userRequest(method, target, body string, userID uuid.UUID) *http.Request {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	identity := model.Identity{ID: userID, Role: model.RoleUser}
	return req.WithContext(middleware.ContextWithIdentity(req.Context(), identity))
}

// --- テスト ---

func TestUserHandler_History_ReturnsRecordsNewestFirst(t *testing.T) {
	userID := uuid.New()
	now := time.Now()
	history := &mockHistoryService{
		listHistoryFn: func(ctx context.Context, gotID uuid.UUID) ([]*model.Interaction, error) {
			if gotID != userID {
				t.Errorf("userID = %v, want %v", gotID, userID)
			}
			return []*model.Interaction{
				{InputText: "happy day", DetectedEmotion: "happy", StickerURL: "https://example.com/b.png", CreatedAt: now},
				{InputText: "i miss my dog", DetectedEmotion: "sad", StickerURL: "https://example.com/a.png", CreatedAt: now.Add(-time.Hour)},
			}, nil
		},
	}
	h := NewUserHandler(history, &mockUserService{})

	w := httptest.NewRecorder()
	h.History(w, userRequest(http.MethodGet, "/user/history", "", userID))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}

	var body []historyResponse
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(body) != 2 {
		t.Fatalf("records = %d, want 2", len(body))
	}
	if body[0].DetectedEmotion != "happy" || body[1].DetectedEmotion != "sad" {
		t.Errorf("unexpected order: %+v", body)
	}
}

func TestUserHandler_History_EmptyHistory_ReturnsEmptyArray(t *testing.T) {
	h := NewUserHandler(&mockHistoryService{}, &mockUserService{})

	w := httptest.NewRecorder()
	h.History(w, userRequest(http.MethodGet, "/user/history", "", uuid.New()))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if got := strings.TrimSpace(w.Body.String()); got != "[]" {
		t.Errorf("body = %q, want []", got)
	}
}

func TestUserHandler_History_NoIdentity_Returns401(t *testing.T) {
	h := NewUserHandler(&mockHistoryService{}, &mockUserService{})

	w := httptest.NewRecorder()
	h.History(w, httptest.NewRequest(http.MethodGet, "/user/history", nil))

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
}

func TestUserHandler_TopStickers_ReturnsUsageMetrics(t *testing.T) {
	userID := uuid.New()
	now := time.Now()
	history := &mockHistoryService{
		listTopStickersFn: func(ctx context.Context, gotID uuid.UUID) ([]*model.StickerMetric, error) {
			return []*model.StickerMetric{
				{StickerURL: "https://example.com/a.png", UsageCount: 5, LastUsed: now},
			}, nil
		},
	}
	h := NewUserHandler(history, &mockUserService{})

	w := httptest.NewRecorder()
	h.TopStickers(w, userRequest(http.MethodGet, "/user/top-stickers", "", userID))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}

	var body []topStickerResponse
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(body) != 1 || body[0].UsageCount != 5 {
		t.Errorf("unexpected response: %+v", body)
	}
}

func TestUserHandler_UpdateUsername_Success_Returns204(t *testing.T) {
	userID := uuid.New()
	called := false
	service := &mockUserService{
		updateUsernameFn: func(ctx context.Context, gotID uuid.UUID, newUsername string) error {
			called = true
			if gotID != userID {
				t.Errorf("userID = %v, want %v", gotID, userID)
			}
			if newUsername != "jiro" {
				t.Errorf("newUsername = %q, want jiro", newUsername)
			}
			return nil
		},
	}
	h := NewUserHandler(&mockHistoryService{}, service)

	w := httptest.NewRecorder()
	h.UpdateUsername(w, userRequest(http.MethodPut, "/user/update-username",
		`{"username":"jiro"}`, userID))

	if w.Code != http.StatusNoContent {
		t.Errorf("status = %d, want %d", w.Code, http.StatusNoContent)
	}
	if !called {
		t.Error("UpdateUsername should be called")
	}
}

func TestUserHandler_UpdateUsername_Conflict_Returns409(t *testing.T) {
	service := &mockUserService{
		updateUsernameFn: func(ctx context.Context, userID uuid.UUID, newUsername string) error {
			return model.NewUsernameTakenError(newUsername)
		},
	}
	h := NewUserHandler(&mockHistoryService{}, service)

	w := httptest.NewRecorder()
	h.UpdateUsername(w, userRequest(http.MethodPut, "/user/update-username",
		`{"username":"jiro"}`, uuid.New()))

	if w.Code != http.StatusConflict {
		t.Errorf("status = %d, want %d", w.Code, http.StatusConflict)
	}
}

func TestUserHandler_Delete_Success_Returns204(t *testing.T) {
	userID := uuid.New()
	called := false
	service := &mockUserService{
		deleteAccountFn: func(ctx context.Context, gotID uuid.UUID) error {
			called = true
			if gotID != userID {
				t.Errorf("userID = %v, want %v", gotID, userID)
			}
			return nil
		},
	}
	h := NewUserHandler(&mockHistoryService{}, service)

	w := httptest.NewRecorder()
	h.Delete(w, userRequest(http.MethodDelete, "/user/delete", "", userID))

	if w.Code != http.StatusNoContent {
		t.Errorf("status = %d, want %d", w.Code, http.StatusNoContent)
	}
	if !called {
		t.Error("DeleteAccount should be called")
	}
}
