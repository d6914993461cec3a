package domain

import (
	"fmt"
	"strings"
)

// ReferenceImage はキャラクターの参照画像1枚分です。
type ReferenceImage struct {
	ID       string `json:"id"`
	Data     []byte `json:"-"`
	MIMEType string `json:"mimeType"`
	FileName string `json:"fileName,omitempty"`
}

// CharacterReference は漫画に登場するキャラクターの参照情報を保持します。
type CharacterReference struct {
	ID     string           `json:"id"`
	Name   string           `json:"name"`
	Images []ReferenceImage `json:"images,omitempty"`
	// DetailedTextDescription は解析で得た外見の説明。一度得たら再利用するのだ。
	DetailedTextDescription string `json:"description,omitempty"`
}

// HasDescription は有効な外見説明がキャッシュされているかを返します。
func (c *CharacterReference) HasDescription() bool {
	return strings.TrimSpace(c.DetailedTextDescription) != ""
}

// AnalysisImages は解析や生成に渡す先頭 MaxCharRefImages 枚の参照画像を返します。
func (c *CharacterReference) AnalysisImages() []ReferenceImage {
	if len(c.Images) <= MaxCharRefImages {
		return c.Images
	}
	return c.Images[:MaxCharRefImages]
}

// AppearsIn はシーン記述にキャラクター名が含まれるか（大文字小文字を区別しない）を返すのだ。
func (c *CharacterReference) AppearsIn(scene string) bool {
	name := strings.TrimSpace(c.Name)
	if name == "" {
		return false
	}
	return strings.Contains(strings.ToLower(scene), strings.ToLower(name))
}

// Summary は台本プロンプトに載せる要約を返します。
func (c *CharacterReference) Summary() string {
	var sb strings.Builder
	sb.WriteString(c.Name)
	if n := len(c.Images); n > 0 {
		fmt.Fprintf(&sb, " with %d reference image(s)", n)
	}
	if c.HasDescription() {
		sb.WriteString(" (textual description available)")
	}
	return sb.String()
}

// String はキャラクターの情報を文字列で返すのだ。
func (c *CharacterReference) String() string {
	return fmt.Sprintf("%s (%s)", c.Name, c.ID)
}
