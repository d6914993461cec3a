package providers

import (
	"fmt"
	"math"
	"sort"

	"github.com/shouni/go-comic-kit/pkg/domain"
)

// Registry はプロバイダ種別からアダプターを引くためのディスパッチ表です。
type Registry struct {
	adapters map[domain.Provider]Adapter
}

// NewRegistry はアダプター群から Registry を構築します。
func NewRegistry(adapters ...Adapter) (*Registry, error) {
	m := make(map[domain.Provider]Adapter, len(adapters))
	for _, a := range adapters {
		if a == nil {
			return nil, fmt.Errorf("nil のアダプターは登録できません")
		}
		if _, dup := m[a.Provider()]; dup {
			return nil, fmt.Errorf("プロバイダ %s のアダプターが重複しています", a.Provider())
		}
		m[a.Provider()] = a
	}
	return &Registry{adapters: m}, nil
}

// Adapter はプロバイダに対応するアダプターを返します。
func (r *Registry) Adapter(p domain.Provider) (Adapter, error) {
	a, ok := r.adapters[p]
	if !ok {
		return nil, fmt.Errorf("プロバイダ %q のアダプターが登録されていません", p)
	}
	return a, nil
}

// Providers は登録済みのプロバイダを名前順で返します。
func (r *Registry) Providers() []domain.Provider {
	out := make([]domain.Provider, 0, len(r.adapters))
	for p := range r.adapters {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Listers は ModelLister も実装しているアダプターを返します。
func (r *Registry) Listers() []ModelLister {
	var out []ModelLister
	for _, p := range r.Providers() {
		if l, ok := r.adapters[p].(ModelLister); ok {
			out = append(out, l)
		}
	}
	return out
}

// ScaleToLongestSide はアスペクト比を保ったまま長辺を longest に合わせ、
// 各辺を 8 の倍数（最小 8）に丸めた寸法を返すのだ。
func ScaleToLongestSide(ar domain.AspectRatio, longest int) (width, height int) {
	ratio := float64(ar.Width) / float64(ar.Height)
	if ar.Width >= ar.Height {
		width = longest
		height = int(math.Round(float64(longest) / ratio))
	} else {
		height = longest
		width = int(math.Round(float64(longest) * ratio))
	}
	return roundTo8(width), roundTo8(height)
}

func roundTo8(v int) int {
	r := int(math.Round(float64(v)/8)) * 8
	if r == 0 {
		return 8
	}
	return r
}
