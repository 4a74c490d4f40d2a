package extract

import (
	"regexp"
)

// ----------------------------------------------------------------------
// 定数定義
// ----------------------------------------------------------------------

// Pattern は、テキスト中の絶対 HTTP(S) URL に一致する正規表現です。
//
// 単語構成文字は文字 (L, Nl)、結合文字 (M)、10進数字 (Nd)、連結句読点 (Pc)、
// ZWNJ/ZWJ です。上付き数字や丸数字 (No) は含みません。
// ホスト部の後のパス部には単語構成文字と ".", ":", "/", "?", "=",
// "#", "%", "!", ",", "-" を含めます。")" "]" と空白は含めないため、
// Markdown の [label](URL) 記法の閉じ括弧は URL に含まれません。
const Pattern = `https?://[\pL\p{Nl}\pM\p{Nd}\p{Pc}\x{200C}\x{200D}.:]+/?[\pL\p{Nl}\pM\p{Nd}\p{Pc}\x{200C}\x{200D}./?=#%:!,-]+`

// urlPattern はプロセス全体で共有する、コンパイル済みのパターンです。
// 初期化後は読み取り専用のため、複数の goroutine から同時に利用できます。
var urlPattern = regexp.MustCompile(Pattern)

// ----------------------------------------------------------------------
// メイン関数
// ----------------------------------------------------------------------

// FindURLs は text に含まれるURL形式の部分文字列を、出現順に返します。
// 一致は重複せず、左端優先です。同じURLが複数回出現した場合は、その回数分返します。
// 一致がない場合は空のスライスを返します。
func FindURLs(text string) []string {
	matches := urlPattern.FindAllString(text, -1)
	if matches == nil {
		return []string{}
	}
	return matches
}

// Extractor は FindURLs をインターフェース経由で注入するための型です。
type Extractor struct{}

// NewExtractor は、新しいExtractorのインスタンスを生成します。
func NewExtractor() *Extractor {
	return &Extractor{}
}

// Extract は FindURLs と同じ結果を返します。
func (e *Extractor) Extract(text string) []string {
	return FindURLs(text)
}
