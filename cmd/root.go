package cmd

import (
	"time"

	"github.com/rs/zerolog/log"
	clibase "github.com/shouni/go-cli-base"
	"github.com/spf13/cobra"

	"github.com/shouni/go-link-audit/pkg/checker"
	"github.com/shouni/go-link-audit/pkg/scanner"
	"github.com/shouni/go-link-audit/pkg/source"
)

// --- グローバル定数 ---

const (
	appName           = "link-audit"
	defaultTimeoutSec = 10 // 秒
	defaultMaxRetries = 2  // ドキュメント取得時のリトライ回数
)

// --- グローバル変数とフラグ構造体 ---

// AppFlags はこのアプリケーション固有の永続フラグを保持
type AppFlags struct {
	TimeoutSec  int     // --timeout 1リンクあたりのタイムアウト
	Concurrency int     // --concurrency 同時チェック数
	Rate        float64 // --rate 1秒あたりのリクエスト数
	UserAgent   string  // --user-agent
	MaxRetries  int     // --max-retries ドキュメント取得のリトライ回数
	MetricsFile string  // --metrics-file
}

var Flags AppFlags
var globalFetcher source.Fetcher

// --- 初期化とロジック (clibaseへのコールバックとして利用) ---

// addAppPersistentFlags は、アプリケーション固有の永続フラグをルートコマンドに追加します。
func addAppPersistentFlags(rootCmd *cobra.Command) {
	rootCmd.Short = "テキスト中のURLを抽出し、リンク切れをチェックするツール"
	rootCmd.Long = `Markdownなどのテキストファイル、リモートのドキュメント、RSS/Atomフィードに含まれるURLを抽出し、並列にHTTPでチェックして結果を集計します。

設定は --config で指定した dotenv 形式のファイル、.env.local、.env の順に読み込まれ、
LINK_AUDIT_TIMEOUT などの環境変数はコマンドラインで指定されていないフラグの既定値になります。`

	pf := rootCmd.PersistentFlags()
	pf.IntVar(&Flags.TimeoutSec, "timeout", defaultTimeoutSec, "HTTPリクエストのタイムアウト時間（秒）")
	pf.IntVar(&Flags.Concurrency, "concurrency", scanner.DefaultMaxConcurrency, "同時にチェックするリンクの最大数")
	pf.Float64Var(&Flags.Rate, "rate", 0, "1秒あたりのリクエスト数の上限 (0で無制限)")
	pf.StringVar(&Flags.UserAgent, "user-agent", checker.UserAgent, "リンクチェックに使用するUser-Agent")
	pf.IntVar(&Flags.MaxRetries, "max-retries", defaultMaxRetries, "リモートドキュメント取得時のリトライ最大回数")
	pf.StringVar(&Flags.MetricsFile, "metrics-file", "", "Prometheus textfile形式でメトリクスを書き出すパス")
}

// initAppPreRunE は、clibase共通処理の後に実行される、アプリケーション固有のPersistentPreRunEです。
// NOTE: clibaseの PersistentPreRunE チェーンにより、clibase.Flags.Verbose はこの関数実行前に設定済み
func initAppPreRunE(cmd *cobra.Command, args []string) error {
	// 1. 設定ファイルと環境変数から、明示されていないフラグを補完
	envWarnings, err := loadDotEnv(clibase.Flags.ConfigFile)
	if err != nil {
		return err
	}
	if err := applyEnvDefaults(cmd); err != nil {
		return err
	}

	// 2. ロガーの設定
	setupLogging(envLogLevel(), clibase.Flags.Verbose)
	for _, w := range envWarnings {
		log.Warn().Err(w).Msg(".env ファイルの読み込みに失敗しました")
	}

	// 3. 共有フェッチャーの初期化
	timeout := time.Duration(Flags.TimeoutSec) * time.Second
	globalFetcher = source.NewFetcher(timeout, uint64(max(Flags.MaxRetries, 0)))

	log.Debug().
		Dur("timeout", timeout).
		Int("max_retries", Flags.MaxRetries).
		Int("concurrency", Flags.Concurrency).
		Float64("rate", Flags.Rate).
		Msg("HTTPクライアントを初期化しました")

	return nil
}

// GetGlobalFetcher は、初期化されたフェッチャーを返す関数 (DIの代わり)
func GetGlobalFetcher() source.Fetcher {
	return globalFetcher
}

// --- エントリポイント ---

// Execute は、clibase を使ってルートコマンドを実行します。
func Execute() {
	clibase.Execute(
		appName,
		addAppPersistentFlags,
		initAppPreRunE,
		checkCmd,
		feedCmd,
	)
}
