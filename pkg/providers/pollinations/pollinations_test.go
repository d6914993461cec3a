package pollinations

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"testing"

	"github.com/shouni/go-comic-kit/pkg/domain"
	"github.com/shouni/go-comic-kit/pkg/providers"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fakePNG = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01")

type mockFetcher struct {
	fetchFunc func(ctx context.Context, url string) ([]byte, error)
	urls      []string
}

func (m *mockFetcher) FetchBytes(ctx context.Context, u string) ([]byte, error) {
	m.urls = append(m.urls, u)
	return m.fetchFunc(ctx, u)
}

func TestAdapter_GenerateText(t *testing.T) {
	t.Run("Success/システム指示をプロンプトに畳み込みフェンスを剥がすのだ", func(t *testing.T) {
		f := &mockFetcher{fetchFunc: func(ctx context.Context, u string) ([]byte, error) {
			return []byte("```json\n[{\"sceneDescription\":\"a\"}]\n```"), nil
		}}
		a := New(DefaultConfig(), f)

		text, err := a.GenerateText(context.Background(), providers.TextRequest{
			Model:             "openai",
			Prompt:            "Story: hi",
			SystemInstruction: "You are a writer.",
			JSONResponse:      true,
		})
		require.NoError(t, err)
		assert.Equal(t, `[{"sceneDescription":"a"}]`, text)

		require.Len(t, f.urls, 1)
		u, err := url.Parse(f.urls[0])
		require.NoError(t, err)
		assert.Equal(t, "text.pollinations.ai", u.Host)
		assert.Equal(t, "openai", u.Query().Get("model"))
		decoded := strings.TrimPrefix(u.Path, "/")
		assert.True(t, strings.HasPrefix(decoded, "You are a writer.\n\nStory: hi"))
		assert.True(t, strings.HasSuffix(decoded, jsonOnlyHint))
	})

	t.Run("Error/タイムアウトは通信エラーとして分類されるのだ", func(t *testing.T) {
		f := &mockFetcher{fetchFunc: func(ctx context.Context, u string) ([]byte, error) {
			return nil, context.DeadlineExceeded
		}}
		_, err := New(DefaultConfig(), f).GenerateText(context.Background(), providers.TextRequest{Model: "openai", Prompt: "x"})
		assert.ErrorIs(t, err, domain.ErrProviderTransport)
	})

	t.Run("Error/その他の失敗は API エラーなのだ", func(t *testing.T) {
		f := &mockFetcher{fetchFunc: func(ctx context.Context, u string) ([]byte, error) {
			return nil, errors.New("status 500: upstream exploded")
		}}
		_, err := New(DefaultConfig(), f).GenerateText(context.Background(), providers.TextRequest{Model: "openai", Prompt: "x"})
		assert.ErrorIs(t, err, domain.ErrProviderAPI)
		assert.Contains(t, err.Error(), "upstream exploded")
	})
}

func TestAdapter_GenerateImage(t *testing.T) {
	model := domain.ModelOption{ID: "flux", Provider: domain.ProviderPollinations}

	t.Run("Success/URL を組み立てて画像を検証するのだ", func(t *testing.T) {
		f := &mockFetcher{fetchFunc: func(ctx context.Context, u string) ([]byte, error) {
			return fakePNG, nil
		}}
		a := New(DefaultConfig(), f)

		arts, err := a.GenerateImage(context.Background(), providers.ImageRequest{
			Model: model, Prompt: "a cat", Seed: 99, AspectRatio: "16:9",
		})
		require.NoError(t, err)
		require.Len(t, arts, 1)
		assert.Equal(t, "image/png", arts[0].MIMEType)
		assert.Equal(t, fakePNG, arts[0].Data)

		u, err := url.Parse(arts[0].URL)
		require.NoError(t, err)
		q := u.Query()
		assert.Equal(t, "image.pollinations.ai", u.Host)
		assert.Equal(t, "/prompt/a cat", u.Path)
		assert.Equal(t, "flux", q.Get("model"))
		assert.Equal(t, "99", q.Get("seed"))
		assert.Equal(t, "2048", q.Get("width"))
		assert.Equal(t, "1152", q.Get("height"))
		assert.Equal(t, "true", q.Get("nologo"))
	})

	t.Run("Error/画像でない応答は ImageDecodeError なのだ", func(t *testing.T) {
		f := &mockFetcher{fetchFunc: func(ctx context.Context, u string) ([]byte, error) {
			return []byte("<html><body>Not Found</body></html>"), nil
		}}
		_, err := New(DefaultConfig(), f).GenerateImage(context.Background(), providers.ImageRequest{Model: model, Prompt: "x"})
		assert.ErrorIs(t, err, domain.ErrImageDecode)
	})

	t.Run("Success/検証を無効にすると通信せずに URL を返すのだ", func(t *testing.T) {
		f := &mockFetcher{fetchFunc: func(ctx context.Context, u string) ([]byte, error) {
			t.Fatal("fetch should not be called")
			return nil, nil
		}}
		cfg := DefaultConfig()
		cfg.VerifyImages = false
		arts, err := New(cfg, f).GenerateImage(context.Background(), providers.ImageRequest{Model: model, Prompt: "x", NumImages: 2, Seed: 1})
		require.NoError(t, err)
		require.Len(t, arts, 2)
		assert.Contains(t, arts[0].URL, "seed=1")
		assert.Contains(t, arts[1].URL, "seed=2")
		assert.Empty(t, arts[0].Data)
	})
}

func TestAdapter_AnalyzeCharacter(t *testing.T) {
	a := New(DefaultConfig(), &mockFetcher{})
	_, err := a.AnalyzeCharacter(context.Background(), providers.AnalyzeRequest{Model: "openai", CharacterName: "Alice"})
	assert.ErrorIs(t, err, domain.ErrProviderAPI)
	assert.NoError(t, a.CheckCredential())
}

func TestAdapter_ListModels(t *testing.T) {
	tests := []struct {
		name string
		body string
		want []string
	}{
		{"オブジェクト形式", `{"flux": {"name": "Flux"}, "turbo": {}}`, []string{"flux", "turbo"}},
		{"文字列配列", `["flux", "turbo", "0"]`, []string{"flux", "turbo", "0"}},
		{"オブジェクト配列", `[{"name": "openai", "description": "OpenAI GPT"}, {"name": "mistral"}]`, []string{"openai", "mistral"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := &mockFetcher{fetchFunc: func(ctx context.Context, u string) ([]byte, error) {
				return []byte(tt.body), nil
			}}
			models, err := New(DefaultConfig(), f).ListModels(context.Background(), domain.KindImage)
			require.NoError(t, err)
			ids := make([]string, len(models))
			for i, m := range models {
				ids[i] = m.ID
				assert.Equal(t, domain.ProviderPollinations, m.Provider)
			}
			assert.Equal(t, tt.want, ids)
			assert.Equal(t, "https://image.pollinations.ai/models", f.urls[0])
		})
	}

	t.Run("Error/接続失敗は通信エラーなのだ", func(t *testing.T) {
		f := &mockFetcher{fetchFunc: func(ctx context.Context, u string) ([]byte, error) {
			return nil, &url.Error{Op: "Get", URL: u, Err: errors.New("connection refused")}
		}}
		_, err := New(DefaultConfig(), f).ListModels(context.Background(), domain.KindText)
		assert.ErrorIs(t, err, domain.ErrProviderTransport)
	})

	t.Run("Error/タイムアウトは通信エラーなのだ", func(t *testing.T) {
		f := &mockFetcher{fetchFunc: func(ctx context.Context, u string) ([]byte, error) {
			return nil, context.DeadlineExceeded
		}}
		_, err := New(DefaultConfig(), f).ListModels(context.Background(), domain.KindText)
		assert.ErrorIs(t, err, domain.ErrProviderTransport)
	})

	t.Run("Error/ステータス異常は API エラーなのだ", func(t *testing.T) {
		f := &mockFetcher{fetchFunc: func(ctx context.Context, u string) ([]byte, error) {
			return nil, errors.New("unexpected status code: 503")
		}}
		_, err := New(DefaultConfig(), f).ListModels(context.Background(), domain.KindText)
		assert.ErrorIs(t, err, domain.ErrProviderAPI)
		assert.NotErrorIs(t, err, domain.ErrProviderTransport)
	})

	t.Run("Error/壊れた JSON は API エラーなのだ", func(t *testing.T) {
		f := &mockFetcher{fetchFunc: func(ctx context.Context, u string) ([]byte, error) {
			return []byte("<html>"), nil
		}}
		_, err := New(DefaultConfig(), f).ListModels(context.Background(), domain.KindText)
		assert.ErrorIs(t, err, domain.ErrProviderAPI)
	})
}
