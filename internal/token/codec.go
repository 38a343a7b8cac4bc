// Package token は署名付きステートレス認証トークンの発行と検証を提供する。
// トークンは主体ID・役割・有効期限を主張するが、失効はセッションレコード側で扱う。
package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/hitoshi/stampman/internal/model"
)

// ErrInvalidToken はトークン検証失敗を表す。
// 構造不正・署名不一致・期限切れのいずれもこのエラーに集約される。
// 呼び出し側は詳細理由をログにのみ記録し、外部には区別を漏らさないこと。
var ErrInvalidToken = errors.New("invalid token")

// Claims はトークンに埋め込むクレーム。
// Subjectには主体IDのUUID文字列、Roleには役割文字列を格納する。
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// Codec はHMAC-SHA256で署名するトークンの発行・検証器。
// 署名シークレットは構築時に注入し、環境からは読まない。
type Codec struct {
	secret []byte
	ttl    time.Duration
}

// NewCodec はCodecを生成する。
// シークレットが空の場合はエラーを返す（起動時に致命エラーとして扱う）。
func NewCodec(secret string, ttl time.Duration) (*Codec, error) {
	if secret == "" {
		return nil, fmt.Errorf("token signing secret is required")
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("token TTL must be positive: %v", ttl)
	}
	return &Codec{secret: []byte(secret), ttl: ttl}, nil
}

// TTL はトークンの有効期間を返す。セッション有効期限の算出に使う。
func (c *Codec) TTL() time.Duration {
	return c.ttl
}

// Issue は主体IDと役割を主張するトークンを発行する。
// 有効期限は発行時刻からTTL（既定24時間）後の絶対時刻。
func (c *Codec) Issue(subjectID uuid.UUID, role model.Role) (string, error) {
	now := time.Now()
	claims := Claims{
		Role: string(role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subjectID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Verify はトークンの署名と有効期限を検証し、クレームを返す。
// いかなる検証失敗もErrInvalidTokenとして返す。
// 元の失敗理由はエラーチェーンに含まれるため、ログにはそのまま出力できる。
func (c *Codec) Verify(tokenString string) (*Claims, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(tokenString, claims,
		func(t *jwt.Token) (interface{}, error) {
			return c.secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !parsed.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
