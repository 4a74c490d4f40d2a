package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// envFlags は、環境変数とフラグ名の対応です。
var envFlags = []struct {
	env  string
	flag string
}{
	{"LINK_AUDIT_TIMEOUT", "timeout"},
	{"LINK_AUDIT_CONCURRENCY", "concurrency"},
	{"LINK_AUDIT_RATE", "rate"},
	{"LINK_AUDIT_USER_AGENT", "user-agent"},
}

// loadDotEnv は --config で指定されたファイルと、カレントディレクトリの .env.local と .env を
// この順に読み込みます。既に設定済みの環境変数は上書きされないため、先に読んだものが優先されます。
// 指定されたファイルの読み込み失敗はエラーになり、既定のファイルの失敗は warnings として返します。
func loadDotEnv(configFile string) (warnings []error, err error) {
	if configFile != "" {
		if err := godotenv.Load(configFile); err != nil {
			return nil, fmt.Errorf("設定ファイルの読み込みエラー (%s): %w", configFile, err)
		}
	}
	for _, name := range []string{".env.local", ".env"} {
		if _, err := os.Stat(name); err != nil {
			continue
		}
		if err := godotenv.Load(name); err != nil {
			warnings = append(warnings, fmt.Errorf("%s: %w", name, err))
		}
	}
	return warnings, nil
}

// applyEnvDefaults は、コマンドラインで明示されていないフラグに環境変数の値を設定します。
func applyEnvDefaults(cmd *cobra.Command) error {
	flags := cmd.Flags()
	for _, ef := range envFlags {
		value, ok := os.LookupEnv(ef.env)
		if !ok || strings.TrimSpace(value) == "" {
			continue
		}
		if flags.Lookup(ef.flag) == nil || flags.Changed(ef.flag) {
			continue
		}
		if err := flags.Set(ef.flag, strings.TrimSpace(value)); err != nil {
			return fmt.Errorf("環境変数 %s の値が不正です (%q): %w", ef.env, value, err)
		}
	}
	return nil
}

// envLogLevel は LOG_LEVEL 環境変数の値を返します。
func envLogLevel() string {
	return os.Getenv("LOG_LEVEL")
}
