// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/hitoshi/stampman/internal/model"
)

// UserRepository はユーザーデータの永続化インターフェース。
type UserRepository interface {
	// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id uuid.UUID) (*model.User, error)

	// FindByUsername はユーザー名でユーザーを検索する。見つからない場合はnilを返す。
	FindByUsername(ctx context.Context, username string) (*model.User, error)

	// Create はユーザーを作成する。ユーザー名重複時は一意制約違反エラーを返す。
	Create(ctx context.Context, user *model.User) error

	// UpdateUsername はユーザー名を更新する。
	UpdateUsername(ctx context.Context, id uuid.UUID, username string) error

	// UpdateCredentials はユーザー名とパスワードハッシュを更新する。
	UpdateCredentials(ctx context.Context, id uuid.UUID, username, passwordHash string) error

	// DeleteByID は指定IDのユーザーを削除する。
	// 関連するsessions、interactions、sticker_metricsはCASCADE削除される。
	DeleteByID(ctx context.Context, id uuid.UUID) error

	// ListAll は全ユーザーを返す。管理画面用。
	ListAll(ctx context.Context) ([]*model.User, error)
}

// AdminRepository は管理者データの永続化インターフェース。
type AdminRepository interface {
	// FindByID は指定IDの管理者を取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id uuid.UUID) (*model.Admin, error)

	// FindByUsername はユーザー名で管理者を検索する。見つからない場合はnilを返す。
	FindByUsername(ctx context.Context, username string) (*model.Admin, error)

	// Create は管理者を作成する。ユーザー名重複時は一意制約違反エラーを返す。
	Create(ctx context.Context, admin *model.Admin) error

	// RecordLoginSuccess はログイン成功を記録する。
	// last_loginを現在時刻に更新し、failed_attemptsを0に戻す。
	RecordLoginSuccess(ctx context.Context, id uuid.UUID) error

	// RecordLoginFailure はログイン失敗を記録し、failed_attemptsを加算する。
	RecordLoginFailure(ctx context.Context, id uuid.UUID) error
}

// SessionRepository はセッションデータの永続化インターフェース。
// セッションは作成と参照のみで、更新されない。
type SessionRepository interface {
	// Create はセッションを作成する。
	Create(ctx context.Context, session *model.Session) error

	// FindByToken はトークン文字列でセッションを検索する。
	// 期限切れまたは不在の場合はnilを返す。
	FindByToken(ctx context.Context, token string) (*model.Session, error)
}

// InteractionRepository はレコメンド履歴の永続化インターフェース。
type InteractionRepository interface {
	// Create は履歴レコードを追記する。
	Create(ctx context.Context, interaction *model.Interaction) error

	// ListByUserID はユーザーの履歴を新しい順に最大limit件返す。
	ListByUserID(ctx context.Context, userID uuid.UUID, limit int) ([]*model.Interaction, error)
}

// StickerMetricRepository はステッカー利用メトリクスの永続化インターフェース。
type StickerMetricRepository interface {
	// Upsert は(user_id, sticker_url)の利用回数を1加算し、last_usedを更新する。
	// 行が存在しない場合はusage_count=1で新規作成する。
	// 原子性はDBのON CONFLICT DO UPDATEに依存し、クライアント側ではロックしない。
	Upsert(ctx context.Context, userID uuid.UUID, stickerURL string, usedAt time.Time) error

	// ListTopByUserID はユーザーの利用回数上位のメトリクスを最大limit件返す。
	ListTopByUserID(ctx context.Context, userID uuid.UUID, limit int) ([]*model.StickerMetric, error)
}

// IsUniqueViolation はPostgreSQLの一意制約違反エラーかどうかを判定する。
// ユーザー名重複の検出に使用する。
func IsUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	return false
}
