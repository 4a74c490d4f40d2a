package pipeline

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/shouni/go-link-audit/pkg/checker"
	"github.com/shouni/go-link-audit/pkg/linkcheck"
	"github.com/shouni/go-link-audit/pkg/metrics"
	"github.com/shouni/go-link-audit/pkg/scanner"
	"github.com/shouni/go-link-audit/pkg/source"
)

// Config は、リンクチェックのパイプライン全体の設定です。
type Config struct {
	Timeout      time.Duration // 1リンクあたりのHTTPタイムアウト
	Concurrency  int           // 同時チェック数の上限
	Rate         float64       // 1秒あたりのリクエスト数の上限 (0以下で無制限)
	UserAgent    string
	DryRun       bool
	SkipPatterns []string // チェックを省略するURLの正規表現
	MetricsFile  string   // 空でない場合、Prometheus textfile 形式で書き出す
}

// Result はスキャン結果と集計です。
type Result struct {
	Summary linkcheck.Summary `json:"summary"`
	Links   []linkcheck.Link  `json:"links"`
}

// CompileSkipPatterns は、文字列のパターンを正規表現にコンパイルします。
func CompileSkipPatterns(patterns []string) ([]*regexp.Regexp, error) {
	compiled := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("スキップパターンが不正です (%q): %w", p, err)
		}
		compiled = append(compiled, re)
	}
	return compiled, nil
}

// Run は、sources に含まれるすべてのリンクをチェックし、集計結果を返すメインの処理パイプラインです。
func Run(ctx context.Context, cfg Config, sources []source.Source) (*Result, error) {
	// 1. 設定の検証
	skip, err := CompileSkipPatterns(cfg.SkipPatterns)
	if err != nil {
		return nil, err
	}

	// 2. 依存性の初期化
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = checker.DefaultHTTPTimeout
	}
	c := checker.New(timeout, checker.WithUserAgent(cfg.UserAgent))

	opts := []scanner.Option{
		scanner.WithConcurrency(cfg.Concurrency),
		scanner.WithRateLimit(cfg.Rate),
		scanner.WithSkipPatterns(skip),
		scanner.WithDryRun(cfg.DryRun),
	}

	var recorder *metrics.Recorder
	if cfg.MetricsFile != "" {
		recorder = metrics.NewRecorder()
		opts = append(opts, scanner.WithObserver(recorder))
	}

	s, err := scanner.New(c, opts...)
	if err != nil {
		return nil, fmt.Errorf("Scannerの初期化エラー: %w", err)
	}

	// 3. スキャンの実行
	links, err := s.Scan(ctx, sources)
	if err != nil {
		return nil, fmt.Errorf("リンクチェックの実行エラー: %w", err)
	}

	result := &Result{Links: links, Summary: linkcheck.Summarize(links)}

	// 4. メトリクスの書き出し
	if recorder != nil {
		if err := recorder.WriteTextfile(cfg.MetricsFile); err != nil {
			return nil, err
		}
		log.Debug().Str("path", cfg.MetricsFile).Msg("メトリクスを書き出しました")
	}

	return result, nil
}
