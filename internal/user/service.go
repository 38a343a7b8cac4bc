// Package user はユーザー自身のアカウント管理を提供する。
package user

import (
	"context"
	"fmt"
	"log/slog"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/hitoshi/stampman/internal/model"
	"github.com/hitoshi/stampman/internal/repository"
)

// ユーザー名の制約。登録時と同じ値を使用する。
const (
	minUsernameLength = 3
	maxUsernameLength = 50
)

// Service はユーザー自身のアカウント操作に関するビジネスロジックを提供する。
type Service struct {
	userRepo repository.UserRepository
	logger   *slog.Logger
}

// NewService はServiceを生成する。
func NewService(userRepo repository.UserRepository, logger *slog.Logger) *Service {
	return &Service{
		userRepo: userRepo,
		logger:   logger,
	}
}

// UpdateUsername はユーザー名を変更する。
// 新しいユーザー名が既に使用されている場合はUSERNAME_TAKENエラーになる。
func (s *Service) UpdateUsername(ctx context.Context, userID uuid.UUID, newUsername string) error {
	nameLen := utf8.RuneCountInString(newUsername)
	if nameLen < minUsernameLength || nameLen > maxUsernameLength {
		return model.NewValidationError(
			fmt.Sprintf("ユーザー名は%d文字以上%d文字以下で指定してください。", minUsernameLength, maxUsernameLength))
	}

	if err := s.userRepo.UpdateUsername(ctx, userID, newUsername); err != nil {
		if repository.IsUniqueViolation(err) {
			return model.NewUsernameTakenError(newUsername)
		}
		return fmt.Errorf("failed to update username: %w", err)
	}

	s.logger.Info("ユーザー名を変更しました",
		slog.String("user_id", userID.String()),
	)
	return nil
}

// DeleteAccount はユーザー自身のアカウントを削除する。
// セッションは外部キーのカスケードで同時に削除される。
func (s *Service) DeleteAccount(ctx context.Context, userID uuid.UUID) error {
	if err := s.userRepo.DeleteByID(ctx, userID); err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}

	s.logger.Info("ユーザーアカウントを削除しました",
		slog.String("user_id", userID.String()),
	)
	return nil
}
