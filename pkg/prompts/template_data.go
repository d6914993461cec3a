package prompts

import (
	_ "embed"
)

const (
	ModeScriptSystem    = "script_system"
	ModeScriptUser      = "script_user"
	ModeScriptDelimited = "script_delimited"
)

// TemplateData は台本プロンプトのテンプレートに渡すデータ構造です。
type TemplateData struct {
	InputText string
	NumPages  int
	// Characters は "Name with N reference image(s)" 形式の要約なのだ。
	Characters []string
}

var (
	//go:embed script_system.md
	ScriptSystemPrompt string
	//go:embed script_user.md
	ScriptUserPrompt string
	//go:embed script_delimited.md
	ScriptDelimitedPrompt string
)

// allTemplates はモードとテンプレート文字列を紐づけるマップなのだ。
var allTemplates = map[string]string{
	ModeScriptSystem:    ScriptSystemPrompt,
	ModeScriptUser:      ScriptUserPrompt,
	ModeScriptDelimited: ScriptDelimitedPrompt,
}
