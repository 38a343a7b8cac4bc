package interaction

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/stampman/internal/model"
)

// --- モック定義 ---

type mockInteractionRepo struct {
	createFn       func(ctx context.Context, interaction *model.Interaction) error
	listByUserIDFn func(ctx context.Context, userID uuid.UUID, limit int) ([]*model.Interaction, error)
	created        []*model.Interaction
}

func (m *mockInteractionRepo) Create(ctx context.Context, interaction *model.Interaction) error {
	m.created = append(m.created, interaction)
	if m.createFn != nil {
		return m.createFn(ctx, interaction)
	}
	return nil
}

func (m *mockInteractionRepo) ListByUserID(ctx context.Context, userID uuid.UUID, limit int) ([]*model.Interaction, error) {
	if m.listByUserIDFn != nil {
		return m.listByUserIDFn(ctx, userID, limit)
	}
	return nil, nil
}

type mockMetricRepo struct {
	upsertFn func(ctx context.Context, userID uuid.UUID, stickerURL string, usedAt time.Time) error
	listFn   func(ctx context.Context, userID uuid.UUID, limit int) ([]*model.StickerMetric, error)
	upserts  int
}

func (m *mockMetricRepo) Upsert(ctx context.Context, userID uuid.UUID, stickerURL string, usedAt time.Time) error {
	m.upserts++
	if m.upsertFn != nil {
		return m.upsertFn(ctx, userID, stickerURL, usedAt)
	}
	return nil
}

func (m *mockMetricRepo) ListTopByUserID(ctx context.Context, userID uuid.UUID, limit int) ([]*model.StickerMetric, error) {
	if m.listFn != nil {
		return m.listFn(ctx, userID, limit)
	}
	return nil, nil
}

// --- テスト ---

func TestRecorder_Record_WritesHistoryAndMetric(t *testing.T) {
	interactions := &mockInteractionRepo{}
	metrics := &mockMetricRepo{}
	rec := NewRecorder(interactions, metrics, slog.Default())

	userID := uuid.New()
	rec.Record(context.Background(), userID, "i miss my dog", "sad", "https://example.com/a.png")

	if len(interactions.created) != 1 {
		t.Fatalf("history writes = %d, want 1", len(interactions.created))
	}
	row := interactions.created[0]
	if row.UserID != userID {
		t.Errorf("UserID = %v, want %v", row.UserID, userID)
	}
	if row.DetectedEmotion != "sad" {
		t.Errorf("DetectedEmotion = %q, want sad", row.DetectedEmotion)
	}
	if row.ID == uuid.Nil {
		t.Error("history row ID should be generated")
	}
	if metrics.upserts != 1 {
		t.Errorf("metric upserts = %d, want 1", metrics.upserts)
	}
}

func TestRecorder_HistoryFailure_StillUpsertsMetric(t *testing.T) {
	interactions := &mockInteractionRepo{
		createFn: func(ctx context.Context, interaction *model.Interaction) error {
			return errors.New("insert failed")
		},
	}
	metrics := &mockMetricRepo{}
	rec := NewRecorder(interactions, metrics, slog.Default())

	// 片方の失敗がもう片方を妨げず、パニックも起きない
	rec.Record(context.Background(), uuid.New(), "text", "sad", "https://example.com/a.png")

	if metrics.upserts != 1 {
		t.Errorf("metric upserts = %d, want 1 despite history failure", metrics.upserts)
	}
}

func TestRecorder_MetricFailure_DoesNotPanic(t *testing.T) {
	interactions := &mockInteractionRepo{}
	metrics := &mockMetricRepo{
		upsertFn: func(ctx context.Context, userID uuid.UUID, stickerURL string, usedAt time.Time) error {
			return errors.New("upsert failed")
		},
	}
	rec := NewRecorder(interactions, metrics, slog.Default())

	rec.Record(context.Background(), uuid.New(), "text", "sad", "https://example.com/a.png")

	if len(interactions.created) != 1 {
		t.Errorf("history writes = %d, want 1 despite metric failure", len(interactions.created))
	}
}

func TestService_ListHistory_DelegatesWithLimit(t *testing.T) {
	userID := uuid.New()
	interactions := &mockInteractionRepo{
		listByUserIDFn: func(ctx context.Context, gotID uuid.UUID, limit int) ([]*model.Interaction, error) {
			if gotID != userID {
				t.Errorf("userID = %v, want %v", gotID, userID)
			}
			if limit != defaultHistoryLimit {
				t.Errorf("limit = %d, want %d", limit, defaultHistoryLimit)
			}
			return []*model.Interaction{{ID: uuid.New(), UserID: userID}}, nil
		},
	}
	svc := NewService(interactions, &mockMetricRepo{})

	records, err := svc.ListHistory(context.Background(), userID)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(records) != 1 {
		t.Errorf("records = %d, want 1", len(records))
	}
}

func TestService_ListTopStickers_DelegatesWithLimit(t *testing.T) {
	userID := uuid.New()
	metrics := &mockMetricRepo{
		listFn: func(ctx context.Context, gotID uuid.UUID, limit int) ([]*model.StickerMetric, error) {
			if limit != defaultTopLimit {
				t.Errorf("limit = %d, want %d", limit, defaultTopLimit)
			}
			return []*model.StickerMetric{{ID: uuid.New(), UserID: userID, UsageCount: 3}}, nil
		},
	}
	svc := NewService(&mockInteractionRepo{}, metrics)

	records, err := svc.ListTopStickers(context.Background(), userID)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(records) != 1 {
		t.Errorf("records = %d, want 1", len(records))
	}
}
