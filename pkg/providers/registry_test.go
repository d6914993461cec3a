package providers

import (
	"context"
	"testing"

	"github.com/shouni/go-comic-kit/pkg/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubAdapter struct {
	Adapter
	provider domain.Provider
}

func (s *stubAdapter) Provider() domain.Provider { return s.provider }

type stubLister struct {
	stubAdapter
}

func (s *stubLister) ListModels(ctx context.Context, kind domain.ModelKind) ([]domain.ModelOption, error) {
	return nil, nil
}

func TestRegistry(t *testing.T) {
	gemini := &stubAdapter{provider: domain.ProviderGemini}
	poll := &stubLister{stubAdapter{provider: domain.ProviderPollinations}}

	reg, err := NewRegistry(gemini, poll)
	require.NoError(t, err)

	t.Run("Success/プロバイダからアダプターを引けるのだ", func(t *testing.T) {
		a, err := reg.Adapter(domain.ProviderGemini)
		require.NoError(t, err)
		assert.Equal(t, domain.ProviderGemini, a.Provider())
	})

	t.Run("Error/未登録のプロバイダ", func(t *testing.T) {
		_, err := reg.Adapter(domain.Provider("Other"))
		assert.Error(t, err)
	})

	t.Run("Success/ModelLister だけを列挙するのだ", func(t *testing.T) {
		listers := reg.Listers()
		require.Len(t, listers, 1)
		assert.Equal(t, domain.ProviderPollinations, listers[0].Provider())
	})

	t.Run("Error/重複登録", func(t *testing.T) {
		_, err := NewRegistry(gemini, &stubAdapter{provider: domain.ProviderGemini})
		assert.Error(t, err)
	})
}

func TestScaleToLongestSide(t *testing.T) {
	tests := []struct {
		key          string
		wantW, wantH int
	}{
		{"16:9", 2048, 1152},
		{"1:1", 2048, 2048},
		{"3:4", 1536, 2048},
		{"4:3", 2048, 1536},
		{"9:16", 1152, 2048},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			w, h := ScaleToLongestSide(domain.LookupAspectRatio(tt.key), 2048)
			assert.Equal(t, tt.wantW, w)
			assert.Equal(t, tt.wantH, h)
			assert.Zero(t, w%8)
			assert.Zero(t, h%8)
		})
	}

	t.Run("極端に小さい値でも最小8になるのだ", func(t *testing.T) {
		w, h := ScaleToLongestSide(domain.AspectRatio{Width: 1000, Height: 1}, 16)
		assert.Equal(t, 16, w)
		assert.Equal(t, 8, h)
	})
}
