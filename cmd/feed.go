package cmd

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/shouni/go-link-audit/pkg/source"
)

// フィードURLを保持するフラグ変数
var feedURL string

var feedOpts scanFlags

var feedCmd = &cobra.Command{
	Use:   "feed",
	Short: "RSS/Atomフィードの各記事に含まれるリンクをチェックします",
	Long:  `指定されたURLからRSSまたはAtomフィードを取得し、各記事の本文（なければ概要）に含まれるURLをチェックします。リンク元は記事のURLです。`,
	Args:  cobra.NoArgs,

	RunE: func(cmd *cobra.Command, args []string) error {
		if err := validateFormat(feedOpts.format); err != nil {
			return err
		}

		// 1. URLのスキーム補完とバリデーション
		processedURL, err := ensureScheme(feedURL)
		if err != nil {
			return fmt.Errorf("URLスキームの処理エラー: %w", err)
		}

		// 2. フィードの取得と記事ごとの入力への変換
		fetcher := GetGlobalFetcher()
		if fetcher == nil {
			return fmt.Errorf("HTTPクライアントの取得に失敗しました")
		}
		sources, err := source.NewFeedLoader(fetcher).Load(contextOrBackground(cmd.Context()), processedURL)
		if err != nil {
			return fmt.Errorf("フィード解析エラー: %w", err)
		}
		log.Info().Str("feed", processedURL).Int("items", len(sources)).Msg("フィードを取得しました")

		// 3. スキャンの実行
		return runScan(cmd, sources, &feedOpts)
	},
}

func init() {
	feedCmd.Flags().StringVarP(&feedURL, "url", "u", "", "チェック対象のフィード (RSS/Atom) URL")
	addScanFlags(feedCmd, &feedOpts)

	// URLフラグを必須にする
	_ = feedCmd.MarkFlagRequired("url")
}
