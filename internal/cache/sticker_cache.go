// Package cache はステッカー推薦結果のキャッシュを提供する。
// キャッシュは権威データではなく、消失しても再検索で復旧できる。
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// keyPrefix は検出感情ラベルからキャッシュキーを導出する際の接頭辞。
const keyPrefix = "sticker:"

// RedisStickerCache はRedisを使用したステッカーキャッシュ。
// 値は現行形式（URLのJSON配列）で書き込み、読み取りは旧形式にも対応する。
type RedisStickerCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStickerCache はRedisStickerCacheを生成する。
// ttlはエントリごとの有効期間（既定1時間）。
func NewRedisStickerCache(client *redis.Client, ttl time.Duration) *RedisStickerCache {
	return &RedisStickerCache{client: client, ttl: ttl}
}

// Get は検出感情に対応するステッカーURLリストを取得する。
// キャッシュミスの場合は(nil, nil)を返す。
func (c *RedisStickerCache) Get(ctx context.Context, emotion string) ([]string, error) {
	val, err := c.client.Get(ctx, keyPrefix+emotion).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get cache entry: %w", err)
	}

	urls, err := DecodeValue([]byte(val))
	if err != nil {
		return nil, fmt.Errorf("failed to decode cache entry for %q: %w", emotion, err)
	}
	return urls, nil
}

// Set はURLリストを現行形式でTTL付きで書き込む。
// 旧形式のエントリもこの書き込みで現行形式に置き換わる。
func (c *RedisStickerCache) Set(ctx context.Context, emotion string, urls []string) error {
	data, err := json.Marshal(urls)
	if err != nil {
		return fmt.Errorf("failed to encode cache entry: %w", err)
	}

	if err := c.client.Set(ctx, keyPrefix+emotion, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to set cache entry: %w", err)
	}
	return nil
}

// legacyEntry は旧バージョンが書き込んでいた単一URL形式のキャッシュ値。
type legacyEntry struct {
	DetectedEmotion string `json:"detected_emotion"`
	StickerURL      string `json:"sticker_url"`
}

// DecodeValue はキャッシュ値をURLリストにデコードする。
// 現行のJSON配列形式を先に試み、失敗した場合は旧形式（単一URLのオブジェクト）
// にフォールバックする。どちらでもない値はエラーを返す。
func DecodeValue(data []byte) ([]string, error) {
	var urls []string
	if err := json.Unmarshal(data, &urls); err == nil {
		return urls, nil
	}

	var legacy legacyEntry
	if err := json.Unmarshal(data, &legacy); err == nil && legacy.StickerURL != "" {
		return []string{legacy.StickerURL}, nil
	}

	return nil, fmt.Errorf("unrecognized cache value format")
}
