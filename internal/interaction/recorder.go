// Package interaction はレコメンド履歴と利用メトリクスの記録・参照を提供する。
package interaction

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/stampman/internal/model"
	"github.com/hitoshi/stampman/internal/repository"
)

// Recorder はレコメンド成功時の履歴追記とメトリクス更新を行う。
// 2つの書き込みは独立しており、片方の失敗がもう片方を妨げない。
type Recorder struct {
	interactions repository.InteractionRepository
	metrics      repository.StickerMetricRepository
	logger       *slog.Logger
}

// NewRecorder はRecorderの新しいインスタンスを生成する。
func NewRecorder(
	interactions repository.InteractionRepository,
	metrics repository.StickerMetricRepository,
	logger *slog.Logger,
) *Recorder {
	return &Recorder{
		interactions: interactions,
		metrics:      metrics,
		logger:       logger,
	}
}

// Record は履歴行の追記とステッカー利用回数のUPSERTを行う。
// 記録はベストエフォートであり、失敗はログに記録するのみで
// 呼び出し元には伝播しない。レコメンド応答は記録の成否に依存しない。
func (r *Recorder) Record(ctx context.Context, userID uuid.UUID, inputText, emotion, stickerURL string) {
	now := time.Now()

	// 1. 履歴行の追記
	rec := &model.Interaction{
		ID:              uuid.New(),
		UserID:          userID,
		InputText:       inputText,
		DetectedEmotion: emotion,
		StickerURL:      stickerURL,
		CreatedAt:       now,
	}
	if err := r.interactions.Create(ctx, rec); err != nil {
		r.logger.Error("レコメンド履歴の記録に失敗しました",
			slog.String("user_id", userID.String()),
			slog.String("emotion", emotion),
			slog.String("error", err.Error()),
		)
	}

	// 2. 利用回数メトリクスのUPSERT
	if err := r.metrics.Upsert(ctx, userID, stickerURL, now); err != nil {
		r.logger.Error("ステッカー利用メトリクスの更新に失敗しました",
			slog.String("user_id", userID.String()),
			slog.String("sticker_url", stickerURL),
			slog.String("error", err.Error()),
		)
	}
}
