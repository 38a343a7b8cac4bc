// Package sticker はステッカー検索サービスのクライアントを提供する。
package sticker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
)

// Client はステッカー検索サービスのHTTPクライアント。
type Client struct {
	httpClient *http.Client
	logger     *slog.Logger
	baseURL    string
	rating     string
}

// NewClient はClientの新しいインスタンスを生成する。
// ratingは検索サービスに渡すコンテンツレーティング（既定 "g"）。
func NewClient(httpClient *http.Client, logger *slog.Logger, baseURL, rating string) *Client {
	return &Client{
		httpClient: httpClient,
		logger:     logger,
		baseURL:    baseURL,
		rating:     rating,
	}
}

// searchRequest はステッカー検索APIのリクエストボディ。
type searchRequest struct {
	Query  string `json:"q"`
	Rating string `json:"rating"`
}

// searchResult はステッカー検索APIのレスポンス配列の1要素。
type searchResult struct {
	URL string `json:"url"`
}

// Search は感情ラベルでステッカーを検索し、URLリストを返す。
// 検索サービスが正常に応答して結果が0件の場合は空スライスを返す
// （サービス障害とは区別され、エラーにはならない）。
func (c *Client) Search(ctx context.Context, emotion string) ([]string, error) {
	body, err := json.Marshal(searchRequest{Query: emotion, Rating: c.rating})
	if err != nil {
		return nil, fmt.Errorf("リクエストのエンコードに失敗しました: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/search_stickers", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("HTTPリクエストの作成に失敗しました: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("ステッカー検索サービスの呼び出しに失敗しました",
			slog.String("error", err.Error()),
			slog.String("emotion", emotion),
		)
		return nil, fmt.Errorf("ステッカー検索サービスの呼び出しに失敗しました: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.logger.Error("ステッカー検索サービスがエラーステータスを返しました",
			slog.Int("http_status", resp.StatusCode),
			slog.String("emotion", emotion),
		)
		return nil, fmt.Errorf("ステッカー検索サービスがステータス %d を返しました", resp.StatusCode)
	}

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("レスポンスボディの読み取りに失敗しました: %w", err)
	}

	var results []searchResult
	if err := json.Unmarshal(respBody, &results); err != nil {
		c.logger.Error("ステッカー検索サービスのレスポンスのパースに失敗しました",
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("レスポンスJSONのパースに失敗しました: %w", err)
	}

	// URLが空の要素は結果から除外する
	urls := make([]string, 0, len(results))
	for _, r := range results {
		if r.URL != "" {
			urls = append(urls, r.URL)
		}
	}

	return urls, nil
}
