package prompts

import (
	"fmt"
	"strings"

	"github.com/shouni/go-comic-kit/pkg/domain"
)

const (
	// CinematicTags はクオリティ向上のための共通タグなのだ。
	CinematicTags = "cinematic composition, high resolution, sharp focus"

	noTextInstruction = "Do not draw any text, letters, speech bubbles or captions in the image."
)

// ImagePromptBuilder はパネル1枚分の画像プロンプトを組み立てます。
type ImagePromptBuilder struct {
	defaultSuffix string // "vibrant colors" 等の共通サフィックス
}

// NewImagePromptBuilder は新しい ImagePromptBuilder を生成します。
func NewImagePromptBuilder(suffix string) *ImagePromptBuilder {
	return &ImagePromptBuilder{defaultSuffix: strings.TrimSpace(suffix)}
}

// BuildPanel は (a) 画風・時代・アスペクト比の定型文、(b) キャラクターの断片、(c) シーン描写 の順に連結します。
// キャプションは OverlayText の場合だけ画像内に描かせ、それ以外は文字を描かないよう指示するのだ。
func (pb *ImagePromptBuilder) BuildPanel(cfg domain.ComicConfig, fragments []string, panel domain.PanelContent) string {
	ar := domain.LookupAspectRatio(cfg.AspectRatio)

	var sb strings.Builder

	// --- 1. 定型文 ---
	style := strings.TrimSpace(cfg.ImageStyle)
	if style == "" {
		style = domain.ImageStyles[0]
	}
	fmt.Fprintf(&sb, "A single comic panel in %s style", style)
	if era := strings.TrimSpace(cfg.ComicEra); era != "" {
		fmt.Fprintf(&sb, ", evoking the %s of comics", era)
	}
	fmt.Fprintf(&sb, ". Aspect ratio %s (%dx%d). %s", ar.Key, ar.Width, ar.Height, CinematicTags)
	if pb.defaultSuffix != "" {
		sb.WriteString(", ")
		sb.WriteString(pb.defaultSuffix)
	}
	sb.WriteString(".\n")

	// --- 2. キャラクター ---
	var clean []string
	for _, f := range fragments {
		if s := sanitizeInline(f); s != "" {
			clean = append(clean, s)
		}
	}
	if len(clean) > 0 {
		sb.WriteString("Characters: ")
		sb.WriteString(strings.Join(clean, " "))
		sb.WriteString("\n")
	}

	// --- 3. シーン ---
	fmt.Fprintf(&sb, "Scene: %s\n", sanitizeInline(panel.SceneDescription))

	caption := strings.TrimSpace(panel.DialogueOrCaption)
	if cfg.IncludeCaptions && cfg.OverlayText && caption != "" {
		fmt.Fprintf(&sb, "Render this caption legibly inside the image, in a caption box or speech bubble: \"%s\"", sanitizeInline(caption))
	} else {
		sb.WriteString(noTextInstruction)
	}
	return sb.String()
}

// CharacterImageHint は参照画像を添付したキャラクターを名前だけで示す断片です。
func CharacterImageHint(name string) string {
	return fmt.Sprintf("%s appears as shown in the attached reference image(s); keep their face, hair and outfit identical.", name)
}

// CharacterDescriptionFragment は参照画像を使えないモデル向けに外見説明を畳み込んだ断片です。
func CharacterDescriptionFragment(name, description string) string {
	return fmt.Sprintf("%s: %s.", name, strings.TrimRight(sanitizeInline(description), ". "))
}

// CharacterNameFragment は説明も画像も無いキャラクター向けの断片なのだ。
func CharacterNameFragment(name string) string {
	return fmt.Sprintf("featuring %s.", name)
}

// sanitizeInline は文字列をプロンプトに埋め込む前の最低限の正規化を行います。
func sanitizeInline(s string) string {
	s = strings.ReplaceAll(s, "\r", " ")
	s = strings.ReplaceAll(s, "\n", " ")
	return strings.TrimSpace(s)
}
