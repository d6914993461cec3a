package catalog

import (
	"strings"

	"github.com/shouni/go-comic-kit/pkg/domain"
)

// placeholderIDs はプロバイダが返すことのある無効なIDなのだ。
var placeholderIDs = map[string]struct{}{
	"":      {},
	"0":     {},
	"dream": {},
}

// FilterFetched は取得したモデル一覧から既知の不正エントリを取り除きます。
func FilterFetched(models []domain.ModelOption) []domain.ModelOption {
	out := make([]domain.ModelOption, 0, len(models))
	for _, m := range models {
		id := strings.TrimSpace(m.ID)
		if _, bad := placeholderIDs[id]; bad {
			continue
		}
		if strings.Contains(strings.ToLower(id), "deprecated") {
			continue
		}
		m.ID = id
		out = append(out, m)
	}
	return out
}

// Merge は既定モデルの後ろに取得モデルを連結し、(provider, id) で重複を取り除きます。
// 先に現れたものが残るので、既定値が常に勝つのだ。
func Merge(defaults []domain.ModelOption, fetched ...[]domain.ModelOption) []domain.ModelOption {
	seen := make(map[domain.ModelKey]struct{}, len(defaults))
	out := make([]domain.ModelOption, 0, len(defaults))

	add := func(models []domain.ModelOption) {
		for _, m := range models {
			k := m.Key()
			if _, dup := seen[k]; dup {
				continue
			}
			seen[k] = struct{}{}
			out = append(out, m)
		}
	}

	add(defaults)
	for _, f := range fetched {
		add(f)
	}
	return out
}
