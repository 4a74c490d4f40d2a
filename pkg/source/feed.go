package source

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/mmcdole/gofeed"
)

// FeedLoader は RSS/Atom フィードを取得・パースし、記事ごとの Source に変換します。
type FeedLoader struct {
	client Fetcher
}

// NewFeedLoader は新しい FeedLoader を初期化します。
func NewFeedLoader(client Fetcher) *FeedLoader {
	return &FeedLoader{client: client}
}

// Load は feedURL のフィードを取得し、各記事の本文を Source として返します。
// 本文は content と description を改行で連結したものです。
// 参照元は記事のリンクで、リンクがない記事は "<feedURL>#<番号>" になります。
func (l *FeedLoader) Load(ctx context.Context, feedURL string) ([]Source, error) {
	if l.client == nil {
		return nil, fmt.Errorf("HTTPクライアントが初期化されていません")
	}

	body, err := l.client.FetchBytes(ctx, feedURL)
	if err != nil {
		return nil, fmt.Errorf("フィードの取得失敗 (URL: %s): %w", feedURL, err)
	}

	fp := gofeed.NewParser()
	feed, err := fp.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("RSSフィードのパース失敗 (URL: %s): %w", feedURL, err)
	}

	return ItemSources(feedURL, feed), nil
}

// ItemSources は gofeed.Feed の各記事を Source に変換します。
// feed が nil またはアイテムがない場合は空のスライスを返します。
func ItemSources(feedURL string, feed *gofeed.Feed) []Source {
	if feed == nil || len(feed.Items) == 0 {
		return []Source{}
	}

	sources := make([]Source, 0, len(feed.Items))
	for i, item := range feed.Items {
		if item == nil {
			continue
		}
		var parts []string
		for _, field := range []string{item.Content, item.Description} {
			if field != "" {
				parts = append(parts, field)
			}
		}
		body := strings.Join(parts, "\n")

		referrer := item.Link
		if referrer == "" {
			referrer = fmt.Sprintf("%s#%d", feedURL, i+1)
		}
		sources = append(sources, Text(referrer, body))
	}
	return sources
}
