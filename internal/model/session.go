package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Session は発行済みトークンと所有者を紐付けるレコードを表す。
// トークン自体の有効期限とは独立したExpiresAtを持ち、失効判断に使う。
// UserIDとAdminIDは排他で、ちょうど一方のみ非nil。
type Session struct {
	ID        uuid.UUID
	UserID    *uuid.UUID
	AdminID   *uuid.UUID
	Token     string
	ExpiresAt time.Time
}

// NewSession はセッションを生成する。
// UserIDとAdminIDのちょうど一方が指定されていない場合はエラーを返す。
// この不変条件はDBのCHECK制約でも二重に強制される。
func NewSession(userID, adminID *uuid.UUID, token string, expiresAt time.Time) (*Session, error) {
	if (userID == nil) == (adminID == nil) {
		return nil, fmt.Errorf("session must have exactly one owner: user_id=%v admin_id=%v", userID, adminID)
	}
	if token == "" {
		return nil, fmt.Errorf("session token is required")
	}
	return &Session{
		ID:        uuid.New(),
		UserID:    userID,
		AdminID:   adminID,
		Token:     token,
		ExpiresAt: expiresAt,
	}, nil
}

// OwnerID はセッション所有者のIDを返す。
func (s *Session) OwnerID() uuid.UUID {
	if s.UserID != nil {
		return *s.UserID
	}
	return *s.AdminID
}

// OwnerRole はセッション所有者の役割を返す。
func (s *Session) OwnerRole() Role {
	if s.UserID != nil {
		return RoleUser
	}
	return RoleAdmin
}
