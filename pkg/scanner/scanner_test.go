package scanner_test

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"regexp"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/shouni/go-link-audit/pkg/checker"
	"github.com/shouni/go-link-audit/pkg/extract"
	"github.com/shouni/go-link-audit/pkg/linkcheck"
	"github.com/shouni/go-link-audit/pkg/scanner"
	"github.com/shouni/go-link-audit/pkg/source"
)

// MockChecker は scanner.LinkChecker のモックです。
type MockChecker struct {
	mock.Mock
}

func (m *MockChecker) Check(ctx context.Context, url string) linkcheck.Status {
	args := m.Called(ctx, url)
	return args.Get(0).(linkcheck.Status)
}

// funcChecker は関数をそのまま LinkChecker として扱います。
type funcChecker func(ctx context.Context, url string) linkcheck.Status

func (f funcChecker) Check(ctx context.Context, url string) linkcheck.Status {
	return f(ctx, url)
}

// failingSource は Load が常に失敗する Source です。
type failingSource struct{ referrer string }

func (s failingSource) Referrer() string { return s.referrer }
func (s failingSource) Load(ctx context.Context) (string, error) {
	return "", errors.New("permission denied")
}

// recordingObserver は ObserveLink の呼び出しを記録します。
type recordingObserver struct {
	mu    sync.Mutex
	links []linkcheck.Link
}

func (o *recordingObserver) ObserveLink(link linkcheck.Link, elapsed time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.links = append(o.links, link)
}

func closedPortURL(t *testing.T) string {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := l.Addr().String()
	require.NoError(t, l.Close())
	return "http://" + addr + "/"
}

func TestNew(t *testing.T) {
	t.Run("error_with_nil_checker", func(t *testing.T) {
		s, err := scanner.New(nil)
		assert.Error(t, err)
		assert.Nil(t, s)
		assert.Contains(t, err.Error(), "LinkChecker cannot be nil")
	})

	t.Run("success", func(t *testing.T) {
		s, err := scanner.New(checker.New(time.Second), scanner.WithConcurrency(0), scanner.WithRateLimit(0))
		assert.NoError(t, err)
		assert.NotNil(t, s)
	})
}

func TestScan_WithTestServer(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/ok", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/missing", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	ok := server.URL + "/ok"
	missing := server.URL + "/missing"

	sources := []source.Source{
		source.Text("a.md", "["+ok+"]("+ok+") and [gone]("+missing+")"),
		source.Text("b.md", "nothing to see"),
		source.Text("c.md", "bare "+ok+" link"),
	}

	s, err := scanner.New(checker.New(5*time.Second), scanner.WithConcurrency(2))
	require.NoError(t, err)

	links, err := s.Scan(context.Background(), sources)
	require.NoError(t, err)

	require.Len(t, links, 4)
	assert.Equal(t, linkcheck.NewLink(ok, linkcheck.OK(), "a.md"), links[0])
	assert.Equal(t, linkcheck.NewLink(ok, linkcheck.OK(), "a.md"), links[1])
	assert.Equal(t, missing, links[2].URL)
	assert.True(t, links[2].Status.IsError())
	assert.Equal(t, "a.md", links[2].Referrer)
	assert.Equal(t, linkcheck.NewLink(ok, linkcheck.OK(), "c.md"), links[3])

	summary := linkcheck.Summarize(links)
	assert.Equal(t, linkcheck.Summary{Total: 4, OK: 3, Error: 1}, summary)
}

func TestScan_UnreachableTargetDoesNotAbort(t *testing.T) {
	target := closedPortURL(t)
	s, err := scanner.New(checker.New(5 * time.Second))
	require.NoError(t, err)

	links, err := s.Scan(context.Background(), []source.Source{
		source.Text("haystack.md", "Test link: [local test server]("+target+")"),
	})
	require.NoError(t, err)
	require.Len(t, links, 1)
	assert.True(t, links[0].Status.IsError())
	assert.Equal(t, "1 total, 0 OK, 1 error, 0 warning, 0 skipped", linkcheck.Summarize(links).String())
}

func TestScan_LoadFailureAbortsBeforeChecking(t *testing.T) {
	var calls atomic.Int32
	c := funcChecker(func(ctx context.Context, url string) linkcheck.Status {
		calls.Add(1)
		return linkcheck.OK()
	})

	s, err := scanner.New(c)
	require.NoError(t, err)

	links, err := s.Scan(context.Background(), []source.Source{
		source.Text("first.md", "https://example.com/first"),
		failingSource{referrer: "broken.md"},
		source.Text("last.md", "https://example.com/last"),
	})
	require.Error(t, err)
	assert.Nil(t, links)
	assert.Contains(t, err.Error(), "broken.md の読み込みに失敗しました")
	assert.Contains(t, err.Error(), "permission denied")
	assert.Equal(t, int32(0), calls.Load())
}

func TestScan_LinkCountMatchesExtraction(t *testing.T) {
	texts := []string{
		"",
		"no links at all",
		"[https://x.test/y](https://x.test/y)",
		"[label](https://example.com/a,b) https://example.com/c?d=e#f http://h.test/",
	}

	m := new(MockChecker)
	m.On("Check", mock.Anything, mock.Anything).Return(linkcheck.OK())

	s, err := scanner.New(m, scanner.WithConcurrency(3))
	require.NoError(t, err)

	for _, text := range texts {
		links, err := s.Scan(context.Background(), []source.Source{source.Text("t", text)})
		require.NoError(t, err)

		want := extract.FindURLs(text)
		require.Len(t, links, len(want), "入力: %q", text)
		for i, u := range want {
			assert.Equal(t, u, links[i].URL)
		}

		summary := linkcheck.Summarize(links)
		assert.Equal(t, summary.Total, summary.OK+summary.Warning+summary.Error+summary.Skipped)
	}
}

func TestScan_DuplicatesAreCheckedIndependently(t *testing.T) {
	m := new(MockChecker)
	m.On("Check", mock.Anything, "https://x.test/y").Return(linkcheck.OK()).Twice()

	s, err := scanner.New(m)
	require.NoError(t, err)

	links, err := s.Scan(context.Background(), []source.Source{
		source.Text("dup.md", "[https://x.test/y](https://x.test/y)"),
	})
	require.NoError(t, err)
	assert.Len(t, links, 2)
	m.AssertExpectations(t)
	m.AssertNumberOfCalls(t, "Check", 2)
}

func TestScan_ConcurrencyIsBounded(t *testing.T) {
	const limit = 3
	var inFlight, maxInFlight atomic.Int32

	c := funcChecker(func(ctx context.Context, url string) linkcheck.Status {
		n := inFlight.Add(1)
		for {
			cur := maxInFlight.Load()
			if n <= cur || maxInFlight.CompareAndSwap(cur, n) {
				break
			}
		}
		time.Sleep(10 * time.Millisecond)
		inFlight.Add(-1)
		return linkcheck.OK()
	})

	text := ""
	for i := 0; i < 20; i++ {
		text += " https://example.com/page" + string(rune('a'+i))
	}

	s, err := scanner.New(c, scanner.WithConcurrency(limit))
	require.NoError(t, err)

	links, err := s.Scan(context.Background(), []source.Source{source.Text("many.md", text)})
	require.NoError(t, err)
	assert.Len(t, links, 20)
	assert.LessOrEqual(t, maxInFlight.Load(), int32(limit))
	assert.Greater(t, maxInFlight.Load(), int32(0))
}

func TestScan_DryRunAndSkip(t *testing.T) {
	text := "[a](https://example.com/a) [b](https://skip.example.org/b)"

	t.Run("dry_run", func(t *testing.T) {
		m := new(MockChecker)
		s, err := scanner.New(m, scanner.WithDryRun(true))
		require.NoError(t, err)

		links, err := s.Scan(context.Background(), []source.Source{source.Text("x.md", text)})
		require.NoError(t, err)
		require.Len(t, links, 2)
		for _, l := range links {
			assert.Equal(t, linkcheck.KindSkipped, l.Status.Kind())
		}
		m.AssertNotCalled(t, "Check", mock.Anything, mock.Anything)
	})

	t.Run("skip_patterns", func(t *testing.T) {
		m := new(MockChecker)
		m.On("Check", mock.Anything, "https://example.com/a").Return(linkcheck.OK()).Once()

		s, err := scanner.New(m, scanner.WithSkipPatterns([]*regexp.Regexp{regexp.MustCompile(`skip\.example\.org`)}))
		require.NoError(t, err)

		links, err := s.Scan(context.Background(), []source.Source{source.Text("x.md", text)})
		require.NoError(t, err)
		require.Len(t, links, 2)
		assert.True(t, links[0].Status.IsOK())
		assert.Equal(t, linkcheck.KindSkipped, links[1].Status.Kind())
		m.AssertExpectations(t)
	})
}

func TestScan_ObserverAndRateLimit(t *testing.T) {
	obs := &recordingObserver{}
	c := funcChecker(func(ctx context.Context, url string) linkcheck.Status {
		return linkcheck.Error("boom")
	})

	s, err := scanner.New(c, scanner.WithObserver(obs), scanner.WithRateLimit(1000))
	require.NoError(t, err)

	links, err := s.Scan(context.Background(), []source.Source{
		source.Text("a.md", "https://a.test/1 https://a.test/2"),
		source.Text("b.md", "https://b.test/3"),
	})
	require.NoError(t, err)
	assert.Len(t, links, 3)
	assert.Len(t, obs.links, 3)
	assert.Equal(t, 3, linkcheck.Summarize(links).Error)
}

func TestScan_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s, err := scanner.New(funcChecker(func(ctx context.Context, url string) linkcheck.Status {
		return linkcheck.OK()
	}), scanner.WithRateLimit(0.001))
	require.NoError(t, err)

	links, err := s.Scan(ctx, []source.Source{source.Text("a.md", "https://a.test/1")})
	require.NoError(t, err)
	require.Len(t, links, 1)
	assert.True(t, links[0].Status.IsError())
	assert.Contains(t, links[0].Status.Message(), "レート制限の待機中に中断されました")
}

func TestScan_NoSources(t *testing.T) {
	s, err := scanner.New(new(MockChecker))
	require.NoError(t, err)

	links, err := s.Scan(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, links)
}
