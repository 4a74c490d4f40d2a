package linkcheck

import "fmt"

// Summary は、スキャン結果をステータス種別ごとに集計したものです。
// OK + Warning + Error + Skipped は常に Total と一致します。
type Summary struct {
	Total   int `json:"total"`
	OK      int `json:"ok"`
	Warning int `json:"warning"`
	Error   int `json:"error"`
	Skipped int `json:"skipped"`
}

// Summarize は Link の一覧からステータス別の件数を集計します。
func Summarize(links []Link) Summary {
	var s Summary
	for _, l := range links {
		s.Total++
		switch l.Status.Kind() {
		case KindOK:
			s.OK++
		case KindWarning:
			s.Warning++
		case KindError:
			s.Error++
		case KindSkipped:
			s.Skipped++
		}
	}
	return s
}

// String はサマリー行を返します。
func (s Summary) String() string {
	return fmt.Sprintf("%d total, %d OK, %d error, %d warning, %d skipped",
		s.Total, s.OK, s.Error, s.Warning, s.Skipped)
}
