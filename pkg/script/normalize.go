package script

import "github.com/shouni/go-comic-kit/pkg/domain"

// PlaceholderScene は台本が要求ページ数に足りない場合に補うパネルの描写なのだ。
const PlaceholderScene = "A quiet transitional moment in the story, continuing from the previous panel."

// Normalize はパネル数をちょうど n にそろえます。
// 切り詰めを優先し、不足している場合に限ってプレースホルダーで埋めます。台詞は常に空でない値になるのだ。
func Normalize(panels []domain.PanelContent, n int) []domain.PanelContent {
	if n < 0 {
		n = 0
	}
	if len(panels) > n {
		panels = panels[:n]
	}

	out := make([]domain.PanelContent, 0, n)
	for _, p := range panels {
		p.DialogueOrCaption = domain.NormalizeDialogue(p.DialogueOrCaption)
		out = append(out, p)
	}
	for len(out) < n {
		out = append(out, domain.PanelContent{
			SceneDescription:  PlaceholderScene,
			DialogueOrCaption: domain.DialogueSentinel,
		})
	}
	return out
}
