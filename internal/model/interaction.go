package model

import (
	"time"

	"github.com/google/uuid"
)

// Interaction はユーザーに提示したレコメンド結果の履歴を表す。
// 追記専用で、1回の提示につき1行を記録する。
type Interaction struct {
	ID              uuid.UUID
	UserID          uuid.UUID
	InputText       string
	DetectedEmotion string
	StickerURL      string
	CreatedAt       time.Time
}

// StickerMetric はユーザーごとのステッカー利用回数を表す。
// (user_id, sticker_url) で一意であり、UPSERTで単調に加算される。
type StickerMetric struct {
	ID         uuid.UUID
	UserID     uuid.UUID
	StickerURL string
	UsageCount int
	LastUsed   time.Time
}
