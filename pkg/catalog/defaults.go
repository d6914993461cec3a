package catalog

import "github.com/shouni/go-comic-kit/pkg/domain"

// Defaults はカタログに常に含まれる既定のモデル群です。取得結果と重複した場合はこちらが優先されるのだ。
type Defaults struct {
	Text  []domain.ModelOption
	Image []domain.ModelOption
}

// DefaultModels は Gemini の既定モデルを返します。
func DefaultModels() Defaults {
	return Defaults{
		Text: []domain.ModelOption{
			{ID: domain.DefaultTextModelID, Name: "Gemini 2.5 Flash", Provider: domain.ProviderGemini, IsCharacterAnalyzer: true},
			{ID: "gemini-2.5-pro", Name: "Gemini 2.5 Pro", Provider: domain.ProviderGemini, IsCharacterAnalyzer: true},
		},
		Image: []domain.ModelOption{
			{ID: domain.DefaultImageModelID, Name: "Gemini 2.5 Flash Image (Multimodal)", Provider: domain.ProviderGemini, IsMultimodal: true},
			{ID: domain.FallbackImageModelID, Name: "Imagen 4", Provider: domain.ProviderGemini},
		},
	}
}

// analyzers は CharacterAnalyzer フラグの立ったモデルだけを抜き出すのだ。
func analyzers(models []domain.ModelOption) []domain.ModelOption {
	var out []domain.ModelOption
	for _, m := range models {
		if m.IsCharacterAnalyzer {
			out = append(out, m)
		}
	}
	return out
}
