// Package security はアプリケーションのセキュリティ機能を提供する。
//
// InputSanitizerService はユーザーが送信したテキストをサニタイズし、
// 履歴テーブルや外部サービスへ渡す前にマークアップの混入を除去する。
package security

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// InputSanitizerService は入力テキストのサニタイズ機能のインターフェースを定義する。
// 感情判定への入力および履歴保存の前に使用される。
type InputSanitizerService interface {
	// Sanitize は入力テキストからHTMLタグを全て除去し、プレーンテキストを返す。
	// 空文字列の入力には空文字列を返す。
	// 同一入力に対して常に同一出力を返す（冪等）。
	Sanitize(raw string) string
}

// inputSanitizer はInputSanitizerServiceの実装。
// bluemondayのStrictPolicyを保持し、スレッドセーフにサニタイズ処理を行う。
type inputSanitizer struct {
	policy *bluemonday.Policy
}

// NewInputSanitizer はInputSanitizerServiceの新しいインスタンスを生成する。
// StrictPolicyは全てのタグと属性を除去し、テキストノードのみを残す。
func NewInputSanitizer() *inputSanitizer {
	return &inputSanitizer{
		policy: bluemonday.StrictPolicy(),
	}
}

// Sanitize は入力テキストからHTMLタグを除去したプレーンテキストを返す。
// StrictPolicyが実体参照にエスケープした文字は元に戻す
// （出力はHTMLではなくプレーンテキストとして扱われるため）。
func (s *inputSanitizer) Sanitize(raw string) string {
	cleaned := s.policy.Sanitize(raw)
	return strings.TrimSpace(html.UnescapeString(cleaned))
}
