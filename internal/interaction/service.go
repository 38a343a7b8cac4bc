package interaction

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/hitoshi/stampman/internal/model"
	"github.com/hitoshi/stampman/internal/repository"
)

// 一覧系エンドポイントの既定取得件数。
const (
	defaultHistoryLimit = 50
	defaultTopLimit     = 10
)

// Service はユーザー自身の履歴・利用傾向の参照を提供する。
type Service struct {
	interactions repository.InteractionRepository
	metrics      repository.StickerMetricRepository
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(
	interactions repository.InteractionRepository,
	metrics repository.StickerMetricRepository,
) *Service {
	return &Service{
		interactions: interactions,
		metrics:      metrics,
	}
}

// ListHistory はユーザーのレコメンド履歴を新しい順に返す。
func (s *Service) ListHistory(ctx context.Context, userID uuid.UUID) ([]*model.Interaction, error) {
	records, err := s.interactions.ListByUserID(ctx, userID, defaultHistoryLimit)
	if err != nil {
		return nil, fmt.Errorf("履歴の取得に失敗しました: %w", err)
	}
	return records, nil
}

// ListTopStickers はユーザーの利用回数上位のステッカーを返す。
func (s *Service) ListTopStickers(ctx context.Context, userID uuid.UUID) ([]*model.StickerMetric, error) {
	records, err := s.metrics.ListTopByUserID(ctx, userID, defaultTopLimit)
	if err != nil {
		return nil, fmt.Errorf("利用メトリクスの取得に失敗しました: %w", err)
	}
	return records, nil
}
