package domain

import "strings"

// DialogueSentinel は台詞やキャプションが無いパネルに入れる単一スペースなのだ。
const DialogueSentinel = " "

// PanelContent は台本上の1パネル分の内容です。
type PanelContent struct {
	SceneDescription  string `json:"sceneDescription"`
	DialogueOrCaption string `json:"dialogueOrCaption"`
}

// GeneratedPanel は画像生成の状態を含むパネルです。
// 台本生成の成功時に作られ、画像生成の結果でその場で更新されるのだ。
type GeneratedPanel struct {
	ID string `json:"id"`
	PanelContent
	ImageURL     string `json:"imageUrl,omitempty"`
	ImageData    []byte `json:"-"`
	MIMEType     string `json:"mimeType,omitempty"`
	ImageError   string `json:"imageError,omitempty"`
	IsGenerating bool   `json:"isGenerating,omitempty"`
}

// HasImage は描画可能な画像（URL またはバイト列）を持っているかを返します。
func (p GeneratedPanel) HasImage() bool {
	return p.ImageURL != "" || len(p.ImageData) > 0
}

// Clone はバイト列も含めて複製します。
func (p GeneratedPanel) Clone() GeneratedPanel {
	c := p
	if p.ImageData != nil {
		c.ImageData = make([]byte, len(p.ImageData))
		copy(c.ImageData, p.ImageData)
	}
	return c
}

// Panels は GeneratedPanel のスライスに対するヘルパーを提供します。
type Panels []GeneratedPanel

// Clone は各パネルを複製した新しいスライスを返します。
func (ps Panels) Clone() Panels {
	if ps == nil {
		return nil
	}
	out := make(Panels, len(ps))
	for i, p := range ps {
		out[i] = p.Clone()
	}
	return out
}

// Failed は画像生成に失敗したパネルの数を返します。
func (ps Panels) Failed() int {
	n := 0
	for _, p := range ps {
		if p.ImageError != "" {
			n++
		}
	}
	return n
}

// Contents は台本部分だけを取り出します。
func (ps Panels) Contents() []PanelContent {
	out := make([]PanelContent, len(ps))
	for i, p := range ps {
		out[i] = p.PanelContent
	}
	return out
}

// NormalizeDialogue は空白のみの台詞を単一スペースに正規化するのだ。
func NormalizeDialogue(s string) string {
	if strings.TrimSpace(s) == "" {
		return DialogueSentinel
	}
	return s
}
