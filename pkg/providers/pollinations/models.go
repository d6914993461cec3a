package pollinations

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/shouni/go-comic-kit/pkg/domain"
)

// modelEntry は /models が返す要素のうち、利用するフィールドだけを持つのだ。
type modelEntry struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// ListModels は /models を1回だけ取得してモデル一覧に変換します。
// 再試行はカタログ側の責務なので、ここでは行わないのだ。
func (a *Adapter) ListModels(ctx context.Context, kind domain.ModelKind) ([]domain.ModelOption, error) {
	var base string
	switch kind {
	case domain.KindText:
		base = a.cfg.TextBaseURL
	case domain.KindImage:
		base = a.cfg.ImageBaseURL
	default:
		return nil, nil
	}

	body, err := a.fetch(ctx, base+"/models")
	if err != nil {
		return nil, a.wrapError("list models", err)
	}

	entries, err := decodeModels(body)
	if err != nil {
		return nil, domain.NewAPIError(domain.ProviderPollinations, "list models", 0,
			fmt.Sprintf("モデル一覧の形式が不正です: %v", err), err)
	}

	models := make([]domain.ModelOption, 0, len(entries))
	for _, e := range entries {
		name := e.Name
		if e.Description != "" {
			name = e.Description
		}
		models = append(models, domain.ModelOption{
			ID:       e.ID,
			Name:     name,
			Provider: domain.ProviderPollinations,
		})
	}
	return models, nil
}

// decodeModels はオブジェクト形式・文字列配列・オブジェクト配列のいずれにも対応します。
// 取得結果は信頼できない入力なので、フィルタリングは呼び出し側で行います。
func decodeModels(body []byte) ([]modelEntry, error) {
	trimmed := strings.TrimSpace(string(body))
	if trimmed == "" {
		return nil, fmt.Errorf("empty body")
	}

	switch trimmed[0] {
	case '{':
		var obj map[string]json.RawMessage
		if err := json.Unmarshal([]byte(trimmed), &obj); err != nil {
			return nil, err
		}
		keys := make([]string, 0, len(obj))
		for k := range obj {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		out := make([]modelEntry, 0, len(keys))
		for _, k := range keys {
			var e modelEntry
			// 値がオブジェクトでない場合もキーだけは使うのだ
			_ = json.Unmarshal(obj[k], &e)
			e.ID = k
			out = append(out, e)
		}
		return out, nil

	case '[':
		var raw []json.RawMessage
		if err := json.Unmarshal([]byte(trimmed), &raw); err != nil {
			return nil, err
		}
		out := make([]modelEntry, 0, len(raw))
		for _, r := range raw {
			var s string
			if err := json.Unmarshal(r, &s); err == nil {
				out = append(out, modelEntry{ID: s})
				continue
			}
			var e modelEntry
			if err := json.Unmarshal(r, &e); err != nil {
				continue
			}
			if e.ID == "" {
				e.ID = e.Name
				e.Name = ""
			}
			out = append(out, e)
		}
		return out, nil

	default:
		return nil, fmt.Errorf("unexpected leading character %q", trimmed[0])
	}
}
