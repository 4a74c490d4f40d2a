package scanner

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/shouni/go-link-audit/pkg/extract"
	"github.com/shouni/go-link-audit/pkg/linkcheck"
	"github.com/shouni/go-link-audit/pkg/source"
)

const (
	// DefaultMaxConcurrency は、同時に実行するリンクチェックのデフォルトの最大数です。
	DefaultMaxConcurrency = 8
)

// LinkChecker は、1つのURLをチェックして Status を返す機能のインターフェースです。
// 複数の goroutine から同時に呼び出されます。
type LinkChecker interface {
	Check(ctx context.Context, url string) linkcheck.Status
}

// URLExtractor は、テキストからURLを出現順に抽出する機能のインターフェースです。
type URLExtractor interface {
	Extract(text string) []string
}

// Observer は、チェックが完了した Link を受け取ります (メトリクス記録用)。
// 複数の goroutine から同時に呼び出されます。
type Observer interface {
	ObserveLink(link linkcheck.Link, elapsed time.Duration)
}

// Scanner は、複数のテキストからURLを抽出し、並列にチェックします。
type Scanner struct {
	checker        LinkChecker
	extractor      URLExtractor
	maxConcurrency int
	limiter        *rate.Limiter
	skipPatterns   []*regexp.Regexp
	dryRun         bool
	observer       Observer
}

// Option は Scanner の設定を行うための関数型です。
type Option func(*Scanner)

// WithConcurrency は同時実行数の上限を設定します。0以下の場合はデフォルト値になります。
func WithConcurrency(n int) Option {
	return func(s *Scanner) {
		if n > 0 {
			s.maxConcurrency = n
		}
	}
}

// WithRateLimit は1秒あたりのリクエスト数の上限を設定します。0以下の場合は無制限です。
func WithRateLimit(perSecond float64) Option {
	return func(s *Scanner) {
		if perSecond > 0 {
			s.limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
		} else {
			s.limiter = nil
		}
	}
}

// WithSkipPatterns は、一致したURLをチェックせず Skipped とするパターンを設定します。
func WithSkipPatterns(patterns []*regexp.Regexp) Option {
	return func(s *Scanner) {
		s.skipPatterns = patterns
	}
}

// WithDryRun が true の場合、リクエストを送信せずにすべてのURLを Skipped とします。
func WithDryRun(dryRun bool) Option {
	return func(s *Scanner) {
		s.dryRun = dryRun
	}
}

// WithObserver はチェック完了時に呼び出される Observer を設定します。
func WithObserver(o Observer) Option {
	return func(s *Scanner) {
		s.observer = o
	}
}

// WithExtractor はURL抽出の実装を差し替えます。
func WithExtractor(e URLExtractor) Option {
	return func(s *Scanner) {
		if e != nil {
			s.extractor = e
		}
	}
}

// New は Scanner を初期化します。
func New(checker LinkChecker, options ...Option) (*Scanner, error) {
	if checker == nil {
		return nil, fmt.Errorf("scanner.New: LinkChecker cannot be nil")
	}
	s := &Scanner{
		checker:        checker,
		extractor:      extract.NewExtractor(),
		maxConcurrency: DefaultMaxConcurrency,
	}
	for _, opt := range options {
		opt(s)
	}
	return s, nil
}

// job はチェック対象のURLの出現1件です。
type job struct {
	url      string
	referrer string
}

// Scan は sources の各テキストからURLを抽出し、すべてのURLをチェックした結果を返します。
//
// いずれかの Source の読み込みに失敗した場合、リクエストを1件も送信せずにエラーを返します。
// 個々のリンクの失敗は Link の Status として記録され、他のチェックには影響しません。
// 戻り値の Link は抽出順に並びます。
func (s *Scanner) Scan(ctx context.Context, sources []source.Source) ([]linkcheck.Link, error) {
	// 1. すべての Source を読み込み、チェック対象を確定する
	jobs, err := s.collectJobs(ctx, sources)
	if err != nil {
		return nil, err
	}

	log.Debug().
		Int("sources", len(sources)).
		Int("links", len(jobs)).
		Int("concurrency", s.maxConcurrency).
		Bool("dry_run", s.dryRun).
		Msg("リンクチェックを開始します")

	// 2. 同時実行数を制限したワーカーでチェックを実行する
	// 各ワーカーは自分のインデックスにのみ書き込むため、ロックは不要
	links := make([]linkcheck.Link, len(jobs))

	var g errgroup.Group
	g.SetLimit(s.maxConcurrency)
	for i, j := range jobs {
		g.Go(func() error {
			links[i] = s.checkOne(ctx, j)
			return nil
		})
	}
	_ = g.Wait()

	summary := linkcheck.Summarize(links)
	log.Info().
		Int("total", summary.Total).
		Int("ok", summary.OK).
		Int("error", summary.Error).
		Int("warning", summary.Warning).
		Int("skipped", summary.Skipped).
		Msg("リンクチェックが完了しました")

	return links, nil
}

// collectJobs は各 Source を順に読み込み、抽出したURLをチェック対象に変換します。
func (s *Scanner) collectJobs(ctx context.Context, sources []source.Source) ([]job, error) {
	var jobs []job
	for _, src := range sources {
		text, err := src.Load(ctx)
		if err != nil {
			return nil, fmt.Errorf("%s の読み込みに失敗しました: %w", src.Referrer(), err)
		}
		for _, u := range s.extractor.Extract(text) {
			jobs = append(jobs, job{url: u, referrer: src.Referrer()})
		}
	}
	return jobs, nil
}

// checkOne は1件のURLをチェックし、Link を返します。
func (s *Scanner) checkOne(ctx context.Context, j job) linkcheck.Link {
	start := time.Now()
	status := s.statusFor(ctx, j.url)
	elapsed := time.Since(start)

	link := linkcheck.NewLink(j.url, status, j.referrer)

	log.Debug().
		Str("url", j.url).
		Str("referrer", j.referrer).
		Str("status", status.Kind().String()).
		Str("reason", status.Message()).
		Dur("elapsed", elapsed).
		Msg("リンクをチェックしました")

	if s.observer != nil {
		s.observer.ObserveLink(link, elapsed)
	}
	return link
}

func (s *Scanner) statusFor(ctx context.Context, url string) linkcheck.Status {
	if s.dryRun || s.shouldSkip(url) {
		return linkcheck.Skipped()
	}

	if s.limiter != nil {
		if err := s.limiter.Wait(ctx); err != nil {
			return linkcheck.Error(fmt.Sprintf("レート制限の待機中に中断されました: %v", err))
		}
	}

	return s.checker.Check(ctx, url)
}

func (s *Scanner) shouldSkip(url string) bool {
	for _, p := range s.skipPatterns {
		if p.MatchString(url) {
			return true
		}
	}
	return false
}
