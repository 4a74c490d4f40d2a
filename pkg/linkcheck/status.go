package linkcheck

import (
	"encoding/json"
	"fmt"
)

// Kind は、リンクのチェック結果の種別を表します。
type Kind int

const (
	// KindOK は、リンク先に到達でき、成功ステータスが返されたことを示します。
	KindOK Kind = iota + 1
	// KindWarning は、失敗ではないものの注意が必要な応答だったことを示します。
	KindWarning
	// KindError は、ネットワークエラーまたは失敗ステータスを示します。
	KindError
	// KindSkipped は、意図的にチェックしなかったことを示します。
	KindSkipped
)

// String は JSON やログで使用する種別名を返します。
func (k Kind) String() string {
	switch k {
	case KindOK:
		return "ok"
	case KindWarning:
		return "warning"
	case KindError:
		return "error"
	case KindSkipped:
		return "skipped"
	default:
		return "unknown"
	}
}

// Status は、1つのリンクに対するチェック結果です。
// OK / Warning / Error / Skipped のいずれか1つだけを保持し、
// メッセージを持つのは Warning と Error のみです。
// コンストラクタ (OK, Warning, Error, Skipped) 以外から生成しないでください。
type Status struct {
	kind    Kind
	message string
}

// OK は成功を表す Status を返します。
func OK() Status {
	return Status{kind: KindOK}
}

// Warning は理由付きの警告を表す Status を返します。
func Warning(reason string) Status {
	return Status{kind: KindWarning, message: reason}
}

// Error は理由付きの失敗を表す Status を返します。
func Error(reason string) Status {
	return Status{kind: KindError, message: reason}
}

// Skipped はチェックを行わなかったことを表す Status を返します。
func Skipped() Status {
	return Status{kind: KindSkipped}
}

// Kind は Status の種別を返します。
func (s Status) Kind() Kind { return s.kind }

// Message は Warning / Error の理由を返します。それ以外では空文字列です。
func (s Status) Message() string { return s.message }

// IsOK は成功かどうかを返します。
func (s Status) IsOK() bool { return s.kind == KindOK }

// IsError は失敗かどうかを返します。
func (s Status) IsError() bool { return s.kind == KindError }

// String はレポート行の先頭に置くラベルを返します。
func (s Status) String() string {
	switch s.kind {
	case KindOK:
		return "[OK]"
	case KindWarning:
		return fmt.Sprintf("[WARN] (%s)", s.message)
	case KindError:
		return fmt.Sprintf("[ERROR] (%s)", s.message)
	case KindSkipped:
		return "[SKIP]"
	default:
		return "[UNKNOWN]"
	}
}

type statusJSON struct {
	Kind    string `json:"kind"`
	Message string `json:"message,omitempty"`
}

// MarshalJSON は {"kind":"error","message":"..."} 形式で出力します。
func (s Status) MarshalJSON() ([]byte, error) {
	return json.Marshal(statusJSON{Kind: s.kind.String(), Message: s.message})
}
