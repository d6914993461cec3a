package domain

// Provider は外部生成サービスの種別です（閉じた列挙）。
type Provider string

const (
	ProviderGemini       Provider = "Gemini"
	ProviderPollinations Provider = "Pollinations"
)

// ModelKind はモデルカタログ上の用途区分です。
type ModelKind string

const (
	KindText     ModelKind = "text"
	KindImage    ModelKind = "image"
	KindAnalysis ModelKind = "analysis"
)

// 既定のモデルID。DefaultComicConfig とカタログのフォールバックが参照するのだ。
const (
	DefaultTextModelID     = "gemini-2.5-flash"
	DefaultImageModelID    = "gemini-2.5-flash-image"
	DefaultAnalysisModelID = "gemini-2.5-flash"
	// FallbackImageModelID はカタログが空になった場合の最終手段なのだ。
	FallbackImageModelID = "imagen-4.0-generate-001"
)

// ModelOption は選択可能なモデル1件の情報です。
// 能力フラグはカタログ構築時に確定し、パイプラインはIDではなくフラグで分岐します。
type ModelOption struct {
	ID                  string   `json:"id"`
	Name                string   `json:"name"`
	Provider            Provider `json:"provider"`
	IsMultimodal        bool     `json:"isMultimodal,omitempty"`        // 参照画像をインラインで直接受け付ける
	IsCharacterAnalyzer bool     `json:"isCharacterAnalyzer,omitempty"` // キャラクター解析に利用できる
}

// ModelKey はカタログの重複排除キー (provider, id) なのだ。
type ModelKey struct {
	Provider Provider
	ID       string
}

// Key は重複排除用のキーを返します。
func (m ModelOption) Key() ModelKey {
	return ModelKey{Provider: m.Provider, ID: m.ID}
}

// DisplayName は表示用の名前を返します。Name が空なら ID を使うのだ。
func (m ModelOption) DisplayName() string {
	if m.Name == "" {
		return m.ID
	}
	return m.Name
}
