// Package middleware はHTTPミドルウェアを提供する。
package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/hitoshi/stampman/internal/model"
	"github.com/hitoshi/stampman/internal/token"
)

// contextKey はコンテキストに値を格納するための型安全なキー。
type contextKey string

// identityContextKey はリクエストコンテキストに認証済み主体を格納するためのキー。
var identityContextKey = contextKey("identity")

// TokenVerifier はトークンの署名・有効期限を検証しクレームを返す。
type TokenVerifier interface {
	Verify(tokenString string) (*token.Claims, error)
}

// SessionFinder はセッションの検索に必要なインターフェース。
// repository.SessionRepositoryの部分集合として定義する。
type SessionFinder interface {
	FindByToken(ctx context.Context, tokenString string) (*model.Session, error)
}

// UserFinder はユーザーの存在確認に必要なインターフェース。
type UserFinder interface {
	FindByID(ctx context.Context, id uuid.UUID) (*model.User, error)
}

// AdminFinder は管理者の存在確認に必要なインターフェース。
type AdminFinder interface {
	FindByID(ctx context.Context, id uuid.UUID) (*model.Admin, error)
}

// AuthGate はトークン検証・セッション照合・主体実在確認・役割判定を
// 段階的に行う認可ゲート。保護されたルートの前段に配置する。
//
// 検証段階と失敗時のステータス:
//  1. トークンの署名・期限検証に失敗           → 401
//  2. 有効なセッションレコードが存在しない      → 401（ストア障害は500）
//  3. クレームのサブジェクトIDが不正な形式      → 400
//  4. 主体（ユーザー/管理者）がストアに不在     → 401
//  5. クレーム・セッション・主体の突き合わせ不一致 → 401
//  6. ルートのスコープと役割の不一致            → 403
//
// 外部レスポンスには失敗段階を推測させる情報を含めず、
// 詳細は構造化ログにのみ出力する。
type AuthGate struct {
	verifier TokenVerifier
	sessions SessionFinder
	users    UserFinder
	admins   AdminFinder
	logger   *slog.Logger
}

// NewAuthGate はAuthGateの新しいインスタンスを生成する。
func NewAuthGate(
	verifier TokenVerifier,
	sessions SessionFinder,
	users UserFinder,
	admins AdminFinder,
	logger *slog.Logger,
) *AuthGate {
	return &AuthGate{
		verifier: verifier,
		sessions: sessions,
		users:    users,
		admins:   admins,
		logger:   logger,
	}
}

// RequireScope は指定された役割スコープのルートを保護するミドルウェアを返す。
// 全段階を通過した場合のみ、認証済み主体をコンテキストに注入して後続に渡す。
func (g *AuthGate) RequireScope(scope model.Role) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// 1. Authorizationヘッダーからトークンを取り出し検証
			rawToken, ok := bearerToken(r)
			if !ok {
				WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
				return
			}

			claims, err := g.verifier.Verify(rawToken)
			if err != nil {
				g.logger.Warn("トークン検証に失敗しました",
					slog.String("path", r.URL.Path),
					slog.String("error", err.Error()),
				)
				WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
				return
			}

			// 2. セッションレコードの照合
			// トークン自体が有効でも、対応するセッションが失効していれば拒否する
			session, err := g.sessions.FindByToken(r.Context(), rawToken)
			if err != nil {
				g.logger.Error("セッションの照合に失敗しました",
					slog.String("path", r.URL.Path),
					slog.String("error", err.Error()),
				)
				WriteInternalServerError(w)
				return
			}
			if session == nil {
				g.logger.Warn("有効なセッションが存在しません",
					slog.String("path", r.URL.Path),
					slog.String("subject", claims.Subject),
				)
				WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
				return
			}

			// 3. サブジェクトIDの解決
			subjectID, err := uuid.Parse(claims.Subject)
			if err != nil {
				g.logger.Warn("サブジェクトIDの形式が不正です",
					slog.String("path", r.URL.Path),
					slog.String("subject", claims.Subject),
				)
				WriteErrorResponse(w, http.StatusBadRequest, model.NewInvalidSubjectIDError())
				return
			}

			role, err := model.ParseRole(claims.Role)
			if err != nil {
				g.logger.Warn("役割クレームの値が不正です",
					slog.String("path", r.URL.Path),
					slog.String("role", claims.Role),
				)
				WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
				return
			}

			// 4. 主体の実在確認
			// トークンとセッションが有効でも、主体が削除済みであれば拒否する
			identity, failStatus := g.resolveIdentity(r.Context(), subjectID, role)
			if failStatus != 0 {
				if failStatus == http.StatusInternalServerError {
					WriteInternalServerError(w)
					return
				}
				g.logger.Warn("認証主体がストアに存在しません",
					slog.String("path", r.URL.Path),
					slog.String("subject_id", subjectID.String()),
					slog.String("role", string(role)),
				)
				WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
				return
			}

			// 5. クレーム・セッション・主体の突き合わせ
			// 3者のIDと役割が完全に一致しない場合はトークンのすり替えとみなす
			if identity.ID != subjectID ||
				session.OwnerID() != identity.ID ||
				session.OwnerRole() != role {
				g.logger.Warn("クレームとセッションの主体が一致しません",
					slog.String("path", r.URL.Path),
					slog.String("claims_subject", subjectID.String()),
					slog.String("session_owner", session.OwnerID().String()),
				)
				WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
				return
			}

			// 6. ルートスコープの判定
			if identity.Role != scope {
				g.logger.Warn("ルートのスコープと役割が一致しません",
					slog.String("path", r.URL.Path),
					slog.String("subject_id", identity.ID.String()),
					slog.String("role", string(identity.Role)),
					slog.String("required_scope", string(scope)),
				)
				WriteErrorResponse(w, http.StatusForbidden, model.NewForbiddenError())
				return
			}

			ctx := ContextWithIdentity(r.Context(), identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// resolveIdentity は役割に応じたストアで主体の実在を確認する。
// 失敗時は0以外のHTTPステータスを返す（不在は401、ストア障害は500）。
func (g *AuthGate) resolveIdentity(ctx context.Context, subjectID uuid.UUID, role model.Role) (model.Identity, int) {
	switch role {
	case model.RoleAdmin:
		admin, err := g.admins.FindByID(ctx, subjectID)
		if err != nil {
			g.logger.Error("管理者の取得に失敗しました",
				slog.String("admin_id", subjectID.String()),
				slog.String("error", err.Error()),
			)
			return model.Identity{}, http.StatusInternalServerError
		}
		if admin == nil {
			return model.Identity{}, http.StatusUnauthorized
		}
		return model.Identity{ID: admin.ID, Role: model.RoleAdmin}, 0
	default:
		user, err := g.users.FindByID(ctx, subjectID)
		if err != nil {
			g.logger.Error("ユーザーの取得に失敗しました",
				slog.String("user_id", subjectID.String()),
				slog.String("error", err.Error()),
			)
			return model.Identity{}, http.StatusInternalServerError
		}
		if user == nil {
			return model.Identity{}, http.StatusUnauthorized
		}
		return model.Identity{ID: user.ID, Role: model.RoleUser}, 0
	}
}

// bearerToken はAuthorizationヘッダーからBearerトークンを取り出す。
func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return "", false
	}
	tokenString := strings.TrimSpace(header[len(prefix):])
	if tokenString == "" {
		return "", false
	}
	return tokenString, true
}

// IdentityFromContext はリクエストコンテキストから認証済み主体を取得する。
// 認可ゲートを通過したリクエストでのみ有効。
func IdentityFromContext(ctx context.Context) (model.Identity, error) {
	identity, ok := ctx.Value(identityContextKey).(model.Identity)
	if !ok {
		return model.Identity{}, fmt.Errorf("identity not found in context")
	}
	return identity, nil
}

// ContextWithIdentity はコンテキストに認証済み主体を注入する。
// テストやミドルウェア以外のコンテキスト生成で使用する。
func ContextWithIdentity(ctx context.Context, identity model.Identity) context.Context {
	return context.WithValue(ctx, identityContextKey, identity)
}
