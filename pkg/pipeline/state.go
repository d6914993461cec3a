package pipeline

import (
	"github.com/shouni/go-comic-kit/pkg/analyzer"
	"github.com/shouni/go-comic-kit/pkg/domain"
)

// State は生成実行の段階です。
type State string

const (
	StateIdle             State = "idle"
	StateGeneratingScript State = "generating_script"
	StateGeneratingImages State = "generating_images"
	StateComplete         State = "complete"
	StateFailed           State = "failed"
)

// 進捗メッセージ
const (
	msgAnalyzing = "Analyzing characters"
	msgScript    = "Generating script"
	msgPanel     = "Generating image for panel %d of %d"
	msgComplete  = "Complete"
	msgFailed    = "Failed"
)

// Progress は購読者に通知される進捗です。
type Progress struct {
	RunID     uint64
	State     State
	Message   string
	Completed int // 画像生成を終えたパネル数
	Total     int
}

// Snapshot は実行状態のディープコピーなのだ。呼び出し側が書き換えても内部状態には影響しません。
type Snapshot struct {
	RunID    uint64
	State    State
	Panels   domain.Panels
	Progress string
	Err      error
}

// Result は完了した実行の結果です。
type Result struct {
	RunID    uint64
	Config   domain.ComicConfig // シード解決済みの設定
	Panels   domain.Panels
	Analysis analyzer.Report
}
