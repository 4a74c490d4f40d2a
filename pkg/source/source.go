package source

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/shouni/go-http-kit/pkg/httpkit"
)

// Source は、スキャン対象のテキストとその参照元を提供します。
// Load が失敗した場合、スキャン全体が失敗します。
type Source interface {
	Referrer() string
	Load(ctx context.Context) (string, error)
}

// Fetcher は、リモートドキュメントの生バイト配列を取得する機能のインターフェースです。
type Fetcher interface {
	FetchBytes(ctx context.Context, url string) ([]byte, error)
}

// NewFetcher は、リモートドキュメント取得用の httpkit クライアントを生成します。
// リトライはドキュメントの読み込みにのみ適用され、リンクチェックには使われません。
func NewFetcher(timeout time.Duration, maxRetries uint64) *httpkit.Client {
	return httpkit.New(timeout, httpkit.WithMaxRetries(maxRetries))
}

// ----------------------------------------------------------------------
// メモリ上のテキスト
// ----------------------------------------------------------------------

type textSource struct {
	referrer string
	body     string
}

// Text は、読み込み済みのテキストをそのまま返す Source です。
func Text(referrer, body string) Source {
	return &textSource{referrer: referrer, body: body}
}

func (s *textSource) Referrer() string { return s.referrer }

func (s *textSource) Load(ctx context.Context) (string, error) {
	return s.body, nil
}

// ----------------------------------------------------------------------
// ローカルファイル
// ----------------------------------------------------------------------

type fileSource struct {
	path string
}

// File は、ローカルファイルを読み込む Source です。参照元はファイルパスです。
func File(path string) Source {
	return &fileSource{path: path}
}

func (s *fileSource) Referrer() string { return s.path }

func (s *fileSource) Load(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	data, err := os.ReadFile(s.path)
	if err != nil {
		return "", fmt.Errorf("ファイルの読み込みエラー: %w", err)
	}
	return string(data), nil
}

// ----------------------------------------------------------------------
// リモートドキュメント
// ----------------------------------------------------------------------

type remoteSource struct {
	fetcher Fetcher
	url     string
}

// Remote は、HTTP(S) で取得したドキュメントを読み込む Source です。参照元はURLです。
func Remote(fetcher Fetcher, url string) Source {
	return &remoteSource{fetcher: fetcher, url: url}
}

func (s *remoteSource) Referrer() string { return s.url }

func (s *remoteSource) Load(ctx context.Context) (string, error) {
	if s.fetcher == nil {
		return "", fmt.Errorf("HTTPクライアントが初期化されていません")
	}
	body, err := s.fetcher.FetchBytes(ctx, s.url)
	if err != nil {
		return "", fmt.Errorf("ドキュメントの取得失敗 (URL: %s): %w", s.url, err)
	}
	return string(body), nil
}

// Detect は引数の形式から Source を選びます。
// http:// または https:// で始まる場合は Remote、それ以外は File になります。
func Detect(fetcher Fetcher, arg string) Source {
	lower := strings.ToLower(arg)
	if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") {
		return Remote(fetcher, arg)
	}
	return File(arg)
}
