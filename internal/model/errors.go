package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
// 内部の診断情報（ストアのエラー文字列等）は含めず、ログにのみ出力する。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: auth, validation, recommend, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeUnauthorized       = "UNAUTHORIZED"
	ErrCodeForbidden          = "FORBIDDEN"
	ErrCodeInvalidSubjectID   = "INVALID_SUBJECT_ID"
	ErrCodeInvalidCredentials = "INVALID_CREDENTIALS"
	ErrCodeUsernameTaken      = "USERNAME_TAKEN"
	ErrCodeUserNotFound       = "USER_NOT_FOUND"
	ErrCodeEmptyInput         = "EMPTY_INPUT"
	ErrCodeInvalidInput       = "INVALID_INPUT"
	ErrCodeServiceUnavailable = "SERVICE_UNAVAILABLE"
	ErrCodeNoStickersFound    = "NO_STICKERS_FOUND"
	ErrCodeInternal           = "INTERNAL_ERROR"
)

// NewUnauthorizedError は認証失敗エラーを生成する。
// トークン不正・セッション失効・主体不在のいずれでも同一のメッセージを返し、
// 失敗理由を外部に推測させない。
func NewUnauthorizedError() *APIError {
	return &APIError{
		Code:     ErrCodeUnauthorized,
		Message:  "認証に失敗しました。",
		Category: "auth",
		Action:   "再度ログインしてください。",
	}
}

// NewForbiddenError は権限不足エラーを生成する。
// 認証自体は成功しているが、ルートのスコープと役割が一致しない場合に使う。
func NewForbiddenError() *APIError {
	return &APIError{
		Code:     ErrCodeForbidden,
		Message:  "この操作を行う権限がありません。",
		Category: "auth",
		Action:   "適切な権限を持つアカウントでログインしてください。",
	}
}

// NewInvalidSubjectIDError はサブジェクトIDが不正な形式の場合のエラーを生成する。
func NewInvalidSubjectIDError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidSubjectID,
		Message:  "ユーザーIDの形式が不正です。",
		Category: "validation",
		Action:   "再度ログインしてください。",
	}
}

// NewInvalidCredentialsError はログイン失敗エラーを生成する。
// ユーザー名不在とパスワード不一致を区別しない。
func NewInvalidCredentialsError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidCredentials,
		Message:  "ユーザー名またはパスワードが正しくありません。",
		Category: "auth",
		Action:   "入力内容を確認して再度お試しください。",
	}
}

// NewUsernameTakenError はユーザー名重複エラーを生成する。
func NewUsernameTakenError(username string) *APIError {
	return &APIError{
		Code:     ErrCodeUsernameTaken,
		Message:  fmt.Sprintf("このユーザー名は既に使用されています: %s", username),
		Category: "validation",
		Action:   "別のユーザー名を指定してください。",
	}
}

// NewUserNotFoundError はユーザーが見つからない場合のエラーを生成する。
func NewUserNotFoundError() *APIError {
	return &APIError{
		Code:     ErrCodeUserNotFound,
		Message:  "ユーザーが見つかりません。",
		Category: "auth",
		Action:   "ユーザーIDを確認してください。",
	}
}

// NewValidationError は入力値の検証失敗エラーを生成する。
func NewValidationError(message string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidInput,
		Message:  message,
		Category: "validation",
		Action:   "入力内容を確認して再度お試しください。",
	}
}

// NewEmptyInputError は入力テキストが空の場合のエラーを生成する。
func NewEmptyInputError() *APIError {
	return &APIError{
		Code:     ErrCodeEmptyInput,
		Message:  "入力テキストが空です。",
		Category: "validation",
		Action:   "感情を判定するテキストを入力してください。",
	}
}

// NewServiceUnavailableError は外部サービス呼び出し失敗エラーを生成する。
// タイムアウトも非成功レスポンスと同様にこのエラーになる。
func NewServiceUnavailableError(service string) *APIError {
	return &APIError{
		Code:     ErrCodeServiceUnavailable,
		Message:  fmt.Sprintf("%sサービスが一時的に利用できません。", service),
		Category: "recommend",
		Action:   "しばらく待ってから再度お試しください。",
	}
}

// NewNoStickersFoundError は検索サービスが正常応答したが結果が空の場合のエラーを生成する。
// サービス障害とは区別する。
func NewNoStickersFoundError(emotion string) *APIError {
	return &APIError{
		Code:     ErrCodeNoStickersFound,
		Message:  fmt.Sprintf("感情「%s」に合うステッカーが見つかりませんでした。", emotion),
		Category: "recommend",
		Action:   "別の表現で入力し直してください。",
	}
}
