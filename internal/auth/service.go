// Package auth はユーザー・管理者の登録、ログイン、セッション発行を提供する。
package auth

import (
	"context"
	"fmt"
	"log/slog"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/hitoshi/stampman/internal/model"
	"github.com/hitoshi/stampman/internal/repository"
)

// ユーザー名・パスワードの制約。
const (
	minUsernameLength = 3
	maxUsernameLength = 50
	minPasswordLength = 8
)

// TokenIssuer は認証済み主体のトークンを発行する。
type TokenIssuer interface {
	Issue(subjectID uuid.UUID, role model.Role) (string, error)
	TTL() time.Duration
}

// LoginResult はログイン・登録成功時の応答。
type LoginResult struct {
	Token    string `json:"token"`
	Username string `json:"username"`
}

// Service は認証に関するビジネスロジックを提供する。
// パスワードはbcryptでハッシュ化して保存し、平文は保持しない。
type Service struct {
	userRepo    repository.UserRepository
	adminRepo   repository.AdminRepository
	sessionRepo repository.SessionRepository
	issuer      TokenIssuer
	logger      *slog.Logger
}

// NewService はServiceを生成する。
func NewService(
	userRepo repository.UserRepository,
	adminRepo repository.AdminRepository,
	sessionRepo repository.SessionRepository,
	issuer TokenIssuer,
	logger *slog.Logger,
) *Service {
	return &Service{
		userRepo:    userRepo,
		adminRepo:   adminRepo,
		sessionRepo: sessionRepo,
		issuer:      issuer,
		logger:      logger,
	}
}

// RegisterUser は新規ユーザーを登録し、ログイン済み状態で返す。
// ユーザー名の重複はUSERNAME_TAKENエラーになる。
func (s *Service) RegisterUser(ctx context.Context, username, password string) (*LoginResult, error) {
	// 1. 入力の検証
	if err := validateCredentials(username, password); err != nil {
		return nil, err
	}

	// 2. パスワードのハッシュ化
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	// 3. ユーザーの作成
	// 重複チェックは一意制約に委ね、事前検索との競合を避ける
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

	s.logger.Info("新規ユーザーを登録しました",
		slog.String("user_id", user.ID.String()),
	)

	// 4. トークン発行とセッション作成
	return s.establishSession(ctx, user.ID, model.RoleUser, username)
}

// LoginUser はユーザーのログインを処理する。
// ユーザー名不在とパスワード不一致は区別せず、同一のエラーを返す。
func (s *Service) LoginUser(ctx context.Context, username, password string) (*LoginResult, error) {
	user, err := s.userRepo.FindByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		return nil, model.NewInvalidCredentialsError()
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, model.NewInvalidCredentialsError()
	}

	return s.establishSession(ctx, user.ID, model.RoleUser, user.Username)
}

// RegisterAdmin は新規管理者を登録し、ログイン済み状態で返す。
func (s *Service) RegisterAdmin(ctx context.Context, username, password string) (*LoginResult, error) {
	if err := validateCredentials(username, password); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	admin := &model.Admin{
		ID:           uuid.New(),
		Username:     username,
		PasswordHash: string(hash),
	}
	if err := s.adminRepo.Create(ctx, admin); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, model.NewUsernameTakenError(username)
		}
		return nil, fmt.Errorf("failed to create admin: %w", err)
	}

	s.logger.Info("新規管理者を登録しました",
		slog.String("admin_id", admin.ID.String()),
	)

	return s.establishSession(ctx, admin.ID, model.RoleAdmin, username)
}

// LoginAdmin は管理者のログインを処理する。
// 成功時は最終ログイン時刻の更新と失敗回数のリセット、
// パスワード不一致時は失敗回数の加算を行う。
func (s *Service) LoginAdmin(ctx context.Context, username, password string) (*LoginResult, error) {
	admin, err := s.adminRepo.FindByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("failed to find admin: %w", err)
	}
	if admin == nil {
		return nil, model.NewInvalidCredentialsError()
	}

	if err := bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte(password)); err != nil {
		// 失敗回数の記録はベストエフォート
		if recErr := s.adminRepo.RecordLoginFailure(ctx, admin.ID); recErr != nil {
			s.logger.Error("ログイン失敗回数の記録に失敗しました",
				slog.String("admin_id", admin.ID.String()),
				slog.String("error", recErr.Error()),
			)
		}
		return nil, model.NewInvalidCredentialsError()
	}

	if err := s.adminRepo.RecordLoginSuccess(ctx, admin.ID); err != nil {
		s.logger.Error("最終ログイン時刻の更新に失敗しました",
			slog.String("admin_id", admin.ID.String()),
			slog.String("error", err.Error()),
		)
	}

	return s.establishSession(ctx, admin.ID, model.RoleAdmin, admin.Username)
}

// establishSession はトークンを発行し、対応するセッションレコードを作成する。
// セッションの有効期限はトークンの有効期限と同じTTLから算出する。
func (s *Service) establishSession(ctx context.Context, subjectID uuid.UUID, role model.Role, username string) (*LoginResult, error) {
	tokenString, err := s.issuer.Issue(subjectID, role)
	if err != nil {
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}

	expiresAt := time.Now().Add(s.issuer.TTL())

	var userID, adminID *uuid.UUID
	if role == model.RoleAdmin {
		adminID = &subjectID
	} else {
		userID = &subjectID
	}

	session, err := model.NewSession(userID, adminID, tokenString, expiresAt)
	if err != nil {
		return nil, fmt.Errorf("failed to build session: %w", err)
	}
	if err := s.sessionRepo.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	return &LoginResult{Token: tokenString, Username: username}, nil
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
