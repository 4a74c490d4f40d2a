package checker

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/shouni/go-link-audit/pkg/linkcheck"
)

const (
	// HTTPクライアント関連の定数
	DefaultHTTPTimeout = 10 * time.Second
	// MaxDrainSize は、接続を再利用するために読み捨てるレスポンスボディの上限です。
	MaxDrainSize = int64(64 * 1024)

	// サイトからのブロックを避けるためのUser-Agent
	UserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/122.0.0.0 Safari/537.36"
)

// Doer は、標準の *http.Client.Do() と互換性のあるHTTPクライアントのインターフェースです。
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// HTTPStatusError は、成功以外のHTTPステータスコードを示すエラー型です。
type HTTPStatusError struct {
	StatusCode int
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("HTTPステータスエラー: %d %s", e.StatusCode, http.StatusText(e.StatusCode))
}

// Checker は、共有HTTPクライアントを使ってリンクの到達性を確認します。
// 1つの Checker を複数の goroutine から同時に利用できます。
type Checker struct {
	httpClient Doer
	userAgent  string
}

// Option は Checker の設定を行うための関数型です。
type Option func(*Checker)

// WithHTTPClient はカスタムのDoerを設定します。
func WithHTTPClient(doer Doer) Option {
	return func(c *Checker) {
		if doer != nil {
			c.httpClient = doer
		}
	}
}

// WithUserAgent は送信する User-Agent を上書きします。空文字列は無視されます。
func WithUserAgent(ua string) Option {
	return func(c *Checker) {
		if ua != "" {
			c.userAgent = ua
		}
	}
}

// New は、新しいCheckerを生成します。timeout はリクエスト1件あたりの上限です。
func New(timeout time.Duration, options ...Option) *Checker {
	if timeout <= 0 {
		timeout = DefaultHTTPTimeout
	}

	c := &Checker{
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: newTransport(),
		},
		userAgent: UserAgent,
	}
	for _, opt := range options {
		opt(c)
	}
	return c
}

// newTransport はスキャン全体で共有するコネクションプールを持つ Transport を返します。
func newTransport() *http.Transport {
	t := http.DefaultTransport.(*http.Transport).Clone()
	t.MaxIdleConnsPerHost = 16
	t.IdleConnTimeout = 90 * time.Second
	t.TLSHandshakeTimeout = 10 * time.Second
	return t
}

// UserAgent は送信に使う User-Agent を返します。
func (c *Checker) UserAgent() string {
	return c.userAgent
}

// addCommonHeaders は共通のHTTPヘッダーを設定します。
func (c *Checker) addCommonHeaders(req *http.Request) {
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
}

// Check は url に GET リクエストを1回だけ送信し、結果を分類します。
// 2xx は OK、ネットワークエラーとそれ以外の最終ステータスは Error になります。
func (c *Checker) Check(ctx context.Context, url string) linkcheck.Status {
	statusCode, err := c.doGet(ctx, url)
	if err != nil {
		return linkcheck.Error(err.Error())
	}
	return classify(statusCode)
}

// doGet は実際の一度のHTTP GETリクエストを実行し、ステータスコードを返します。
func (c *Checker) doGet(ctx context.Context, url string) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, fmt.Errorf("GETリクエスト作成に失敗しました: %w", err)
	}
	c.addCommonHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("HTTPリクエストに失敗しました (ネットワーク/接続エラー): %w", err)
	}
	defer resp.Body.Close()

	// 読み捨てのエラーは結果に影響しない
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, MaxDrainSize))

	return resp.StatusCode, nil
}

// classify はステータスコードを Status に変換します。
func classify(statusCode int) linkcheck.Status {
	if err := StatusError(statusCode); err != nil {
		return linkcheck.Error(err.Error())
	}
	return linkcheck.OK()
}

// StatusError は成功以外のステータスコードを HTTPStatusError として返します。
// 2xx の場合は nil を返します。
func StatusError(statusCode int) error {
	if statusCode >= 200 && statusCode <= 299 {
		return nil
	}
	return &HTTPStatusError{StatusCode: statusCode}
}
