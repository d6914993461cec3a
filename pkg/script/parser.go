package script

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/shouni/go-comic-kit/pkg/domain"
)

// Parser はモデルの生テキストをパネル内容の列に変換するインターフェースなのだ。
type Parser interface {
	Parse(raw string) ([]domain.PanelContent, error)
}

// fenceRegex は応答全体を囲むコードフェンス (```json ... ```) を捕まえるのだ。
var fenceRegex = regexp.MustCompile("(?s)^```(\\w*)?\\s*\\n?(.*?)\\n?\\s*```$")

// JSONParser は JSON 配列形式の台本を解析します。
// フェンス除去後にそのまま解析し、失敗したら最初の '[' から最後の ']' までを切り出して再挑戦します。
type JSONParser struct{}

// Parse は JSON 形式の台本を解析します。
func (JSONParser) Parse(raw string) ([]domain.PanelContent, error) {
	text := StripFence(raw)
	if text == "" {
		return nil, errors.New("応答が空です")
	}

	panels, firstErr := decodePanels(text)
	if firstErr == nil {
		return panels, nil
	}

	start, end := strings.Index(text, "["), strings.LastIndex(text, "]")
	if start >= 0 && end > start {
		panels, err := decodePanels(text[start : end+1])
		if err == nil {
			return panels, nil
		}
		return nil, fmt.Errorf("JSON 配列の抽出後も解析できませんでした: %w", err)
	}

	// 配列ではなく単一オブジェクトが返ってきた場合は1パネルとして扱うのだ
	trimmed := strings.TrimSpace(text)
	if strings.HasPrefix(trimmed, "{") && strings.HasSuffix(trimmed, "}") {
		if p, err := decodePanel(json.RawMessage(trimmed)); err == nil {
			return []domain.PanelContent{p}, nil
		}
	}
	return nil, firstErr
}

// StripFence は前後の空白と、応答全体を囲むコードフェンスを取り除きます。
func StripFence(raw string) string {
	text := strings.TrimSpace(raw)
	if m := fenceRegex.FindStringSubmatch(text); len(m) > 2 && m[2] != "" {
		text = strings.TrimSpace(m[2])
	}
	return text
}

func decodePanels(text string) ([]domain.PanelContent, error) {
	var elems []json.RawMessage
	if err := json.Unmarshal([]byte(text), &elems); err != nil {
		return nil, err
	}
	panels := make([]domain.PanelContent, 0, len(elems))
	for i, e := range elems {
		p, err := decodePanel(e)
		if err != nil {
			return nil, fmt.Errorf("panel %d: %w", i+1, err)
		}
		panels = append(panels, p)
	}
	return panels, nil
}

// decodePanel は要素1つを検証します。sceneDescription は空でない文字列でなければならないのだ。
func decodePanel(raw json.RawMessage) (domain.PanelContent, error) {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil || obj == nil {
		return domain.PanelContent{}, errors.New("要素がオブジェクトではありません")
	}

	var scene string
	if err := json.Unmarshal(obj["sceneDescription"], &scene); err != nil || strings.TrimSpace(scene) == "" {
		return domain.PanelContent{}, errors.New("sceneDescription が空か文字列ではありません")
	}

	return domain.PanelContent{
		SceneDescription:  strings.TrimSpace(scene),
		DialogueOrCaption: domain.NormalizeDialogue(scalarString(obj["dialogueOrCaption"])),
	}, nil
}

// scalarString は文字列ならその値を、数値や真偽値ならその表記を返します。null や欠落は空文字なのだ。
func scalarString(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	switch raw[0] {
	case '{', '[':
		return ""
	}
	return string(raw)
}
