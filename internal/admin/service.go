// Package admin は管理者によるユーザー管理機能を提供する。
package admin

import (
	"context"
	"fmt"
	"log/slog"
	"unicode/utf8"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/hitoshi/stampman/internal/model"
	"github.com/hitoshi/stampman/internal/repository"
)

// ユーザー名・パスワードの制約。登録時と同じ値を使用する。
const (
	minUsernameLength = 3
	maxUsernameLength = 50
	minPasswordLength = 8
)

// UserSummary は管理画面に返すユーザー情報。
// パスワードハッシュは含めない。
type UserSummary struct {
	ID       uuid.UUID `json:"id"`
	Username string    `json:"username"`
}

// Service は管理者向けのユーザー管理ロジックを提供する。
// 呼び出し元は認可ゲートで管理者スコープが確認済みであること。
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

// ListUsers は全ユーザーの一覧を返す。
func (s *Service) ListUsers(ctx context.Context) ([]UserSummary, error) {
	users, err := s.userRepo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	summaries := make([]UserSummary, 0, len(users))
	for _, u := range users {
		summaries = append(summaries, UserSummary{ID: u.ID, Username: u.Username})
	}
	return summaries, nil
}

// GetUser は指定IDのユーザーを返す。見つからない場合はUSER_NOT_FOUNDエラー。
func (s *Service) GetUser(ctx context.Context, id uuid.UUID) (*UserSummary, error) {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		return nil, model.NewUserNotFoundError()
	}
	return &UserSummary{ID: user.ID, Username: user.Username}, nil
}

// CreateUser は管理者操作でユーザーを作成する。
func (s *Service) CreateUser(ctx context.Context, username, password string) (*UserSummary, error) {
	if err := validateCredentials(username, password); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &model.User{
		ID:           uuid.New(),
		Username:     username,
		PasswordHash: string(hash),
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, model.NewUsernameTakenError(username)
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.logger.Info("管理者操作でユーザーを作成しました",
		slog.String("user_id", user.ID.String()),
	)
	return &UserSummary{ID: user.ID, Username: user.Username}, nil
}

// UpdateUser はユーザーの認証情報を更新する。
// パスワードが空文字列の場合はユーザー名のみを更新する。
func (s *Service) UpdateUser(ctx context.Context, id uuid.UUID, username, password string) error {
	nameLen := utf8.RuneCountInString(username)
	if nameLen < minUsernameLength || nameLen > maxUsernameLength {
		return model.NewValidationError(
			fmt.Sprintf("ユーザー名は%d文字以上%d文字以下で指定してください。", minUsernameLength, maxUsernameLength))
	}

	if password == "" {
		if err := s.userRepo.UpdateUsername(ctx, id, username); err != nil {
			if repository.IsUniqueViolation(err) {
				return model.NewUsernameTakenError(username)
			}
			return fmt.Errorf("failed to update username: %w", err)
		}
		return nil
	}

	if utf8.RuneCountInString(password) < minPasswordLength {
		return model.NewValidationError(
			fmt.Sprintf("パスワードは%d文字以上で指定してください。", minPasswordLength))
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	if err := s.userRepo.UpdateCredentials(ctx, id, username, string(hash)); err != nil {
		if repository.IsUniqueViolation(err) {
			return model.NewUsernameTakenError(username)
		}
		return fmt.Errorf("failed to update credentials: %w", err)
	}

	s.logger.Info("管理者操作でユーザー情報を更新しました",
		slog.String("user_id", id.String()),
	)
	return nil
}

// DeleteUser は指定IDのユーザーを削除する。
// 関連するセッション・履歴・メトリクスはカスケード削除される。
func (s *Service) DeleteUser(ctx context.Context, id uuid.UUID) error {
	if err := s.userRepo.DeleteByID(ctx, id); err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}

	s.logger.Info("管理者操作でユーザーを削除しました",
		slog.String("user_id", id.String()),
	)
	return nil
}

// validateCredentials はユーザー名とパスワードの形式を検証する。
func validateCredentials(username, password string) error {
	nameLen := utf8.RuneCountInString(username)
	if nameLen < minUsernameLength || nameLen > maxUsernameLength {
		return model.NewValidationError(
			fmt.Sprintf("ユーザー名は%d文字以上%d文字以下で指定してください。", minUsernameLength, maxUsernameLength))
	}
	if utf8.RuneCountInString(password) < minPasswordLength {
		return model.NewValidationError(
			fmt.Sprintf("パスワードは%d文字以上で指定してください。", minPasswordLength))
	}
	return nil
}
