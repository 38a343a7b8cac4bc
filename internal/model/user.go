// Package model はドメインモデルを定義する。
package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Role は認証済みサブジェクトの役割を表す。
// 文字列の自由入力ではなく閉じた列挙として扱い、スコープ判定を網羅的にする。
type Role string

const (
	// RoleUser は一般ユーザーを示す。
	RoleUser Role = "user"
	// RoleAdmin は管理者を示す。
	RoleAdmin Role = "admin"
)

// ParseRole は外部入力（トークンクレーム等）の役割文字列をRoleに変換する。
// 未知の値はエラーを返す。
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleUser:
		return RoleUser, nil
	case RoleAdmin:
		return RoleAdmin, nil
	default:
		return "", fmt.Errorf("unknown role: %q", s)
	}
}

// User はサービス利用ユーザーを表す。
type User struct {
	ID           uuid.UUID
	Username     string
	PasswordHash string
}

// Admin は管理者を表す。
// LastLoginとFailedAttemptsはログイン監査用に保持する。
type Admin struct {
	ID             uuid.UUID
	Username       string
	PasswordHash   string
	LastLogin      *time.Time
	FailedAttempts int
}

// Identity は認可ゲートを通過したリクエストの認証済み主体を表す。
// リクエストスコープでのみ有効で、リクエストを超えてキャッシュしない。
type Identity struct {
	ID   uuid.UUID
	Role Role
}
