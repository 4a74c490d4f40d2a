package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/rs/zerolog/log"
	clibase "github.com/shouni/go-cli-base"
	"github.com/spf13/cobra"

	"github.com/shouni/go-link-audit/internal/pipeline"
	"github.com/shouni/go-link-audit/pkg/linkcheck"
	"github.com/shouni/go-link-audit/pkg/source"
)

// scanFlags は、スキャンを行うサブコマンドに共通のフラグです。
type scanFlags struct {
	dryRun      bool
	format      string
	skip        []string
	failOnError bool
}

func addScanFlags(cmd *cobra.Command, f *scanFlags) {
	cmd.Flags().BoolVarP(&f.dryRun, "dry-run", "n", false, "リクエストを送信せず、抽出したURLを一覧表示します")
	cmd.Flags().StringVar(&f.format, "format", formatText, "出力形式 (text | json)")
	cmd.Flags().StringArrayVar(&f.skip, "skip", nil, "チェックを省略するURLの正規表現 (複数指定可)")
	cmd.Flags().BoolVar(&f.failOnError, "fail-on-error", false, "エラーのリンクが1件以上ある場合に失敗として終了します")
}

// pipelineConfig は、フラグの値からパイプラインの設定を組み立てます。
func (f *scanFlags) pipelineConfig() pipeline.Config {
	return pipeline.Config{
		Timeout:      time.Duration(Flags.TimeoutSec) * time.Second,
		Concurrency:  Flags.Concurrency,
		Rate:         Flags.Rate,
		UserAgent:    Flags.UserAgent,
		DryRun:       f.dryRun,
		SkipPatterns: f.skip,
		MetricsFile:  Flags.MetricsFile,
	}
}

// runScan は、sources をスキャンしてレポートを出力します。
func runScan(cmd *cobra.Command, sources []source.Source, f *scanFlags) error {
	// 1. 割り込みでキャンセルされるコンテキストを設定
	ctx, stop := signal.NotifyContext(contextOrBackground(cmd.Context()), os.Interrupt)
	defer stop()

	// 2. メインロジックの実行
	result, err := pipeline.Run(ctx, f.pipelineConfig(), sources)
	if err != nil {
		return fmt.Errorf("リンクチェックパイプラインの実行エラー: %w", err)
	}

	// 3. 結果の出力 (ドライランでは全件を表示)
	showAll := f.dryRun || clibase.Flags.Verbose
	if err := writeReport(cmd.OutOrStdout(), result, f.format, showAll); err != nil {
		return err
	}

	return checkFailure(result.Summary, f.failOnError)
}

// checkFailure は --fail-on-error 指定時にエラーのリンクがあればエラーを返します。
func checkFailure(summary linkcheck.Summary, failOnError bool) error {
	if failOnError && summary.Error > 0 {
		return fmt.Errorf("%d 件のリンクでエラーが検出されました", summary.Error)
	}
	return nil
}

var checkOpts scanFlags

var checkCmd = &cobra.Command{
	Use:   "check [ファイルパスまたはURL...]",
	Short: "ファイルまたはURLのドキュメントに含まれるリンクをチェックします",
	Long:  `引数で指定したローカルファイル、または http(s):// で始まるURLのドキュメントからURLを抽出し、すべてのリンクをチェックします。`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 {
			return cmd.Usage()
		}
		if err := validateFormat(checkOpts.format); err != nil {
			return err
		}

		// 1. 入力の決定
		fetcher := GetGlobalFetcher()
		sources := make([]source.Source, 0, len(args))
		for _, arg := range args {
			sources = append(sources, source.Detect(fetcher, arg))
		}
		log.Info().Int("inputs", len(sources)).Msg("チェック対象の入力を読み込みます")

		// 2. スキャンの実行
		return runScan(cmd, sources, &checkOpts)
	},
}

func init() {
	addScanFlags(checkCmd, &checkOpts)
}

// contextOrBackground は nil のコンテキストを Background に置き換えます。
func contextOrBackground(ctx context.Context) context.Context {
	if ctx == nil {
		return context.Background()
	}
	return ctx
}
