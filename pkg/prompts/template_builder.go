package prompts

import (
	"fmt"
	"strings"

	promptkit "github.com/shouni/go-prompt-kit/prompts"
)

// ScriptPrompt は台本生成用のプロンプトを構築する契約です。
type ScriptPrompt interface {
	Build(mode string, data TemplateData) (string, error)
}

// TextPromptBuilder は埋め込みテンプレートをモードごとに保持し、台本用プロンプトを組み立てます。
// テンプレートの解析と実行は go-prompt-kit の Builder に任せ、ここでは入力値だけを検証するのだ。
type TextPromptBuilder struct {
	builder *promptkit.Builder
}

// NewTextPromptBuilder は埋め込みテンプレートを解析して TextPromptBuilder を初期化します。
func NewTextPromptBuilder() (*TextPromptBuilder, error) {
	for mode, content := range allTemplates {
		if strings.TrimSpace(content) == "" {
			return nil, fmt.Errorf("プロンプトテンプレート '%s' (go:embed) の読み込みに失敗しました: 内容が空です", mode)
		}
	}
	b, err := promptkit.NewBuilder(allTemplates)
	if err != nil {
		return nil, fmt.Errorf("プロンプトビルダーの構築に失敗しました: %w", err)
	}
	return &TextPromptBuilder{builder: b}, nil
}

// Build は指定モードのテンプレートを実行します。
func (b *TextPromptBuilder) Build(mode string, data TemplateData) (string, error) {
	if data.NumPages < 1 {
		return "", fmt.Errorf("ページ数が不正です: %d", data.NumPages)
	}
	out, err := b.builder.Build(mode, data)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}
