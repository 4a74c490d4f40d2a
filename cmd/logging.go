package cmd

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// logOutput はログの出力先です。標準出力はレポート用に空けておきます。
var logOutput io.Writer = os.Stderr

// setupLogging は、グローバルロガーのレベルと出力形式を設定します。
// verbose が true の場合は levelName に関わらず debug レベルになります。
func setupLogging(levelName string, verbose bool) {
	level, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(levelName)))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.WarnLevel
	}
	if verbose {
		level = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(level)

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: logOutput, TimeFormat: time.RFC3339})
}
