package linkcheck

import "fmt"

// Link は、抽出されたURLの出現1件に対するチェック結果です。
// URL は抽出された部分文字列そのもので、正規化は行いません。
type Link struct {
	URL      string `json:"url"`
	Status   Status `json:"status"`
	Referrer string `json:"referrer"`
}

// NewLink は Link を生成します。
func NewLink(url string, status Status, referrer string) Link {
	return Link{
		URL:      url,
		Status:   status,
		Referrer: referrer,
	}
}

// String は "<ステータス> <URL> - referrer: <参照元>" 形式の1行を返します。
func (l Link) String() string {
	return fmt.Sprintf("%s %s - referrer: %s", l.Status, l.URL, l.Referrer)
}
