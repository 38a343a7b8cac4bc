// Package emotion は感情判定サービスのクライアントを提供する。
package emotion

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
)

// Client は感情判定サービスのHTTPクライアント。
// タイムアウトはhttpClientに設定されたものを使用する。
type Client struct {
	httpClient *http.Client
	logger     *slog.Logger
	baseURL    string
}

// NewClient はClientの新しいインスタンスを生成する。
func NewClient(httpClient *http.Client, logger *slog.Logger, baseURL string) *Client {
	return &Client{
		httpClient: httpClient,
		logger:     logger,
		baseURL:    baseURL,
	}
}

// detectRequest は感情判定APIのリクエストボディ。
type detectRequest struct {
	InputText string `json:"input_text"`
}

// detectResponse は感情判定APIのレスポンスボディ。
type detectResponse struct {
	DetectedEmotion string `json:"detected_emotion"`
}

// Detect は入力テキストの感情ラベルを判定する。
// 非成功ステータス、タイムアウト、不正なペイロードはいずれもエラーを返し、
// 呼び出し元でサービス利用不可として扱う。
func (c *Client) Detect(ctx context.Context, inputText string) (string, error) {
	body, err := json.Marshal(detectRequest{InputText: inputText})
	if err != nil {
		return "", fmt.Errorf("リクエストのエンコードに失敗しました: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/detect_emotion", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("HTTPリクエストの作成に失敗しました: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("感情判定サービスの呼び出しに失敗しました",
			slog.String("error", err.Error()),
		)
		return "", fmt.Errorf("感情判定サービスの呼び出しに失敗しました: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.logger.Error("感情判定サービスがエラーステータスを返しました",
			slog.Int("http_status", resp.StatusCode),
		)
		return "", fmt.Errorf("感情判定サービスがステータス %d を返しました", resp.StatusCode)
	}

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("レスポンスボディの読み取りに失敗しました: %w", err)
	}

	var result detectResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		c.logger.Error("感情判定サービスのレスポンスのパースに失敗しました",
			slog.String("error", err.Error()),
		)
		return "", fmt.Errorf("レスポンスJSONのパースに失敗しました: %w", err)
	}

	if result.DetectedEmotion == "" {
		return "", fmt.Errorf("感情判定サービスのレスポンスにdetected_emotionが含まれていません")
	}

	return result.DetectedEmotion, nil
}
