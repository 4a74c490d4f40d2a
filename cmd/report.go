package cmd

import (
	"encoding/json"
	"fmt"
	"io"

	textUtils "github.com/shouni/go-utils/text"

	"github.com/shouni/go-link-audit/internal/pipeline"
)

const (
	formatText = "text"
	formatJSON = "json"
)

// validateFormat は --format の値を検証します。
func validateFormat(format string) error {
	switch format {
	case formatText, formatJSON:
		return nil
	default:
		return fmt.Errorf("未対応の出力形式です: %q (text または json を指定してください)", format)
	}
}

// writeReport は、指定された形式でスキャン結果を w に書き出します。
func writeReport(w io.Writer, result *pipeline.Result, format string, showAll bool) error {
	if format == formatJSON {
		return writeJSONReport(w, result)
	}
	return writeTextReport(w, result, showAll)
}

// writeTextReport は、問題のあるリンクと最後に集計行を出力します。
// showAll が true の場合は OK のリンクも出力します。
func writeTextReport(w io.Writer, result *pipeline.Result, showAll bool) error {
	for _, link := range result.Links {
		if link.Status.IsOK() && !showAll {
			continue
		}
		if _, err := fmt.Fprintln(w, textUtils.NormalizeText(link.String())); err != nil {
			return fmt.Errorf("レポートの出力エラー: %w", err)
		}
	}
	if _, err := fmt.Fprintln(w, result.Summary.String()); err != nil {
		return fmt.Errorf("レポートの出力エラー: %w", err)
	}
	return nil
}

func writeJSONReport(w io.Writer, result *pipeline.Result) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(result); err != nil {
		return fmt.Errorf("JSONレポートの出力エラー: %w", err)
	}
	return nil
}
