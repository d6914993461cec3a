package script

import (
	"errors"
	"log/slog"
	"regexp"
	"strings"

	"github.com/shouni/go-comic-kit/pkg/domain"
)

const (
	fieldKeyScene   = "scene"
	fieldKeyCaption = "caption"
)

var (
	// PageRegex は "---PAGE 3---" 形式のパネル区切り行を特定します。
	PageRegex = regexp.MustCompile(`(?i)^-{3,}\s*PAGE\s*(\d+)\s*-{3,}$`)

	// FieldRegex は "Scene: ..." や "- caption: ..." 形式のフィールド行をキャプチャします。
	FieldRegex = regexp.MustCompile(`^\s*(?:-\s*)?([a-zA-Z_]+):\s?(.*)$`)
)

// DelimitedParser は区切り行形式の台本を解析します。
// Scene が続けて複数行になった場合は空白で連結するのだ。
type DelimitedParser struct{}

// Parse は区切り行形式の台本を解析します。
func (DelimitedParser) Parse(raw string) ([]domain.PanelContent, error) {
	lines := strings.Split(StripFence(raw), "\n")

	var (
		panels  []domain.PanelContent
		current *domain.PanelContent
		lastKey string
	)

	flush := func() {
		if current != nil && strings.TrimSpace(current.SceneDescription) != "" {
			current.SceneDescription = strings.TrimSpace(current.SceneDescription)
			current.DialogueOrCaption = domain.NormalizeDialogue(strings.TrimSpace(current.DialogueOrCaption))
			panels = append(panels, *current)
		}
	}

	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}

		if PageRegex.MatchString(trimmed) {
			flush()
			current = &domain.PanelContent{}
			lastKey = ""
			continue
		}
		if current == nil {
			continue
		}

		if m := FieldRegex.FindStringSubmatch(trimmed); m != nil {
			key, val := strings.ToLower(m[1]), m[2]
			switch key {
			case fieldKeyScene:
				current.SceneDescription = val
				lastKey = key
				continue
			case fieldKeyCaption, "dialogue":
				current.DialogueOrCaption = val
				lastKey = fieldKeyCaption
				continue
			default:
				slog.Debug("台本内に未知のフィールドキーが見つかりました", "key", key)
			}
		}

		// フィールド行でなければ直前のフィールドの続きとみなすのだ
		switch lastKey {
		case fieldKeyScene:
			current.SceneDescription += " " + trimmed
		case fieldKeyCaption:
			current.DialogueOrCaption += " " + trimmed
		}
	}
	flush()

	if len(panels) == 0 {
		return nil, errors.New("有効なパネル情報が見つかりませんでした")
	}
	return panels, nil
}
