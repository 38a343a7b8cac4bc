// Package recommend は感情判定とステッカー検索を合成したレコメンドの
// オーケストレーションを提供する。
package recommend

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/stampman/internal/model"
)

// EmotionDetector は入力テキストから感情ラベルを判定する。
type EmotionDetector interface {
	Detect(ctx context.Context, inputText string) (string, error)
}

// StickerSearcher は感情ラベルでステッカーURLを検索する。
type StickerSearcher interface {
	Search(ctx context.Context, emotion string) ([]string, error)
}

// StickerCache は感情ラベルをキーとするURLリストのキャッシュ。
// Getはミス時に(nil, nil)を返す。
type StickerCache interface {
	Get(ctx context.Context, emotion string) ([]string, error)
	Set(ctx context.Context, emotion string, urls []string) error
}

// InteractionRecorder はレコメンド成功の記録を行う。
// 記録はベストエフォートであり、エラーを返さない。
type InteractionRecorder interface {
	Record(ctx context.Context, userID uuid.UUID, inputText, emotion, stickerURL string)
}

// InputSanitizer は入力テキストからマークアップを除去する。
type InputSanitizer interface {
	Sanitize(raw string) string
}

// MetricsRecorder はレコメンド処理のメトリクスを記録する。
type MetricsRecorder interface {
	RecordRecommendation(emotion string)
	RecordCacheHit()
	RecordCacheMiss()
	RecordUpstreamFailure(service string)
	RecordUpstreamLatency(service string, duration time.Duration)
	RecordBackfillFailure()
}

// Result はレコメンドの応答。
type Result struct {
	DetectedEmotion string   `json:"detected_emotion"`
	StickerURLs     []string `json:"sticker_urls"`
}

// Service はレコメンドのオーケストレーター。
// キャッシュアサイド戦略を取り、ミス時の書き戻しは応答と非同期に行う。
type Service struct {
	detector  EmotionDetector
	searcher  StickerSearcher
	cache     StickerCache
	recorder  InteractionRecorder
	sanitizer InputSanitizer
	metrics   MetricsRecorder
	logger    *slog.Logger

	backfillTimeout time.Duration
	backfillWG      sync.WaitGroup
}

// NewService はServiceの新しいインスタンスを生成する。
// backfillTimeoutはキャッシュ書き戻し1回分の上限時間（既定10秒）。
func NewService(
	detector EmotionDetector,
	searcher StickerSearcher,
	cache StickerCache,
	recorder InteractionRecorder,
	sanitizer InputSanitizer,
	metrics MetricsRecorder,
	logger *slog.Logger,
	backfillTimeout time.Duration,
) *Service {
	return &Service{
		detector:        detector,
		searcher:        searcher,
		cache:           cache,
		recorder:        recorder,
		sanitizer:       sanitizer,
		metrics:         metrics,
		logger:          logger,
		backfillTimeout: backfillTimeout,
	}
}

// Recommend は入力テキストに合うステッカーのレコメンドを返す。
//
// 処理の流れ:
//  1. 入力の正規化（サニタイズ・トリム・小文字化）。空ならEMPTY_INPUT。
//  2. 感情判定。失敗はSERVICE_UNAVAILABLE。
//  3. キャッシュ参照。ヒットなら検索を省略して即応答。
//  4. ミスならステッカー検索。失敗はSERVICE_UNAVAILABLE、0件はNO_STICKERS_FOUND。
//  5. 検索結果を非同期でキャッシュに書き戻す（応答をブロックしない）。
//  6. 履歴とメトリクスを同期で記録（失敗しても応答には影響しない）。
func (s *Service) Recommend(ctx context.Context, userID uuid.UUID, inputText string) (*Result, error) {
	// 1. 入力の正規化
	normalized := strings.ToLower(strings.TrimSpace(s.sanitizer.Sanitize(inputText)))
	if normalized == "" {
		return nil, model.NewEmptyInputError()
	}

	// 2. 感情判定
	start := time.Now()
	emotion, err := s.detector.Detect(ctx, normalized)
	s.metrics.RecordUpstreamLatency("emotion", time.Since(start))
	if err != nil {
		s.metrics.RecordUpstreamFailure("emotion")
		s.logger.Error("感情判定に失敗しました",
			slog.String("user_id", userID.String()),
			slog.String("error", err.Error()),
		)
		return nil, model.NewServiceUnavailableError("感情判定")
	}

	// 3. キャッシュ参照
	// キャッシュは権威データではないため、参照失敗はミスと同様に扱う
	cached, err := s.cache.Get(ctx, emotion)
	if err != nil {
		s.logger.Warn("キャッシュ参照に失敗したため検索にフォールバックします",
			slog.String("emotion", emotion),
			slog.String("error", err.Error()),
		)
	}
	if len(cached) > 0 {
		s.metrics.RecordCacheHit()
		s.metrics.RecordRecommendation(emotion)
		s.recorder.Record(ctx, userID, normalized, emotion, cached[0])
		return &Result{DetectedEmotion: emotion, StickerURLs: cached}, nil
	}
	s.metrics.RecordCacheMiss()

	// 4. ステッカー検索
	start = time.Now()
	urls, err := s.searcher.Search(ctx, emotion)
	s.metrics.RecordUpstreamLatency("sticker", time.Since(start))
	if err != nil {
		s.metrics.RecordUpstreamFailure("sticker")
		s.logger.Error("ステッカー検索に失敗しました",
			slog.String("user_id", userID.String()),
			slog.String("emotion", emotion),
			slog.String("error", err.Error()),
		)
		return nil, model.NewServiceUnavailableError("ステッカー検索")
	}
	if len(urls) == 0 {
		return nil, model.NewNoStickersFoundError(emotion)
	}

	// 5. 非同期キャッシュ書き戻し
	s.startBackfill(emotion, urls)

	// 6. 履歴・メトリクスの記録
	s.metrics.RecordRecommendation(emotion)
	s.recorder.Record(ctx, userID, normalized, emotion, urls[0])

	return &Result{DetectedEmotion: emotion, StickerURLs: urls}, nil
}

// startBackfill は検索結果をキャッシュに書き戻すゴルーチンを起動する。
// リクエストのキャンセルとは切り離した独自のタイムアウトで実行し、
// 失敗時は1回だけ再試行する。最終的な失敗はログとメトリクスにのみ残る。
func (s *Service) startBackfill(emotion string, urls []string) {
	s.backfillWG.Add(1)
	go func() {
		defer s.backfillWG.Done()

		ctx, cancel := context.WithTimeout(context.Background(), s.backfillTimeout)
		defer cancel()

		err := s.cache.Set(ctx, emotion, urls)
		if err == nil {
			return
		}
		s.logger.Warn("キャッシュ書き戻しに失敗したため再試行します",
			slog.String("emotion", emotion),
			slog.String("error", err.Error()),
		)

		if err := s.cache.Set(ctx, emotion, urls); err != nil {
			s.metrics.RecordBackfillFailure()
			s.logger.Error("キャッシュ書き戻しの再試行に失敗しました",
				slog.String("emotion", emotion),
				slog.String("error", err.Error()),
			)
		}
	}()
}

// WaitBackfill は進行中のキャッシュ書き戻しが完了するまで待機する。
// グレースフルシャットダウン時に呼び出す。
func (s *Service) WaitBackfill() {
	s.backfillWG.Wait()
}
