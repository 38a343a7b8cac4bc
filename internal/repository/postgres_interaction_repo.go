package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/stampman/internal/model"
)

// PostgresInteractionRepo はPostgreSQLを使用したレコメンド履歴リポジトリ。
type PostgresInteractionRepo struct {
	db *sql.DB
}

// NewPostgresInteractionRepo はPostgresInteractionRepoを生成する。
func NewPostgresInteractionRepo(db *sql.DB) *PostgresInteractionRepo {
	return &PostgresInteractionRepo{db: db}
}

// Create は履歴レコードを追記する。
func (r *PostgresInteractionRepo) Create(ctx context.Context, interaction *model.Interaction) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO interactions (id, user_id, input_text, detected_emotion, sticker_url, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		interaction.ID, interaction.UserID, interaction.InputText,
		interaction.DetectedEmotion, interaction.StickerURL, interaction.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create interaction: %w", err)
	}
	return nil
}

// ListByUserID はユーザーの履歴を新しい順に最大limit件返す。
func (r *PostgresInteractionRepo) ListByUserID(ctx context.Context, userID uuid.UUID, limit int) ([]*model.Interaction, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, input_text, detected_emotion, sticker_url, created_at
		 FROM interactions
		 WHERE user_id = $1
		 ORDER BY created_at DESC
		 LIMIT $2`,
		userID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list interactions: %w", err)
	}
	defer rows.Close()

	var interactions []*model.Interaction
	for rows.Next() {
		interaction := &model.Interaction{}
		if err := rows.Scan(
			&interaction.ID, &interaction.UserID, &interaction.InputText,
			&interaction.DetectedEmotion, &interaction.StickerURL, &interaction.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan interaction: %w", err)
		}
		interactions = append(interactions, interaction)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate interactions: %w", err)
	}

	return interactions, nil
}

// compile-time interface check
var _ InteractionRepository = (*PostgresInteractionRepo)(nil)

// PostgresStickerMetricRepo はPostgreSQLを使用した利用メトリクスリポジトリ。
type PostgresStickerMetricRepo struct {
	db *sql.DB
}

// NewPostgresStickerMetricRepo はPostgresStickerMetricRepoを生成する。
func NewPostgresStickerMetricRepo(db *sql.DB) *PostgresStickerMetricRepo {
	return &PostgresStickerMetricRepo{db: db}
}

// Upsert は(user_id, sticker_url)の利用回数を1加算し、last_usedを更新する。
// 競合時の整合性はON CONFLICT DO UPDATEの原子性に依存する。
func (r *PostgresStickerMetricRepo) Upsert(ctx context.Context, userID uuid.UUID, stickerURL string, usedAt time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO sticker_metrics (id, user_id, sticker_url, usage_count, last_used)
		 VALUES ($1, $2, $3, 1, $4)
		 ON CONFLICT (user_id, sticker_url)
		 DO UPDATE SET usage_count = sticker_metrics.usage_count + 1, last_used = $4`,
		uuid.New(), userID, stickerURL, usedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert sticker metric: %w", err)
	}
	return nil
}

// ListTopByUserID はユーザーの利用回数上位のメトリクスを最大limit件返す。
func (r *PostgresStickerMetricRepo) ListTopByUserID(ctx context.Context, userID uuid.UUID, limit int) ([]*model.StickerMetric, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, sticker_url, usage_count, last_used
		 FROM sticker_metrics
		 WHERE user_id = $1
		 ORDER BY usage_count DESC, last_used DESC
		 LIMIT $2`,
		userID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list sticker metrics: %w", err)
	}
	defer rows.Close()

	var metrics []*model.StickerMetric
	for rows.Next() {
		metric := &model.StickerMetric{}
		if err := rows.Scan(
			&metric.ID, &metric.UserID, &metric.StickerURL,
			&metric.UsageCount, &metric.LastUsed,
		); err != nil {
			return nil, fmt.Errorf("failed to scan sticker metric: %w", err)
		}
		metrics = append(metrics, metric)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate sticker metrics: %w", err)
	}

	return metrics, nil
}

// compile-time interface check
var _ StickerMetricRepository = (*PostgresStickerMetricRepo)(nil)
