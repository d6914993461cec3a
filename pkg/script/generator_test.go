package script

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/shouni/go-comic-kit/pkg/domain"
	"github.com/shouni/go-comic-kit/pkg/prompts"
	"github.com/shouni/go-comic-kit/pkg/providers"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockAdapter struct {
	providers.Adapter
	generateTextFunc func(ctx context.Context, req providers.TextRequest) (string, error)
	calls            int
}

func (m *mockAdapter) GenerateText(ctx context.Context, req providers.TextRequest) (string, error) {
	m.calls++
	return m.generateTextFunc(ctx, req)
}

type mockResolver struct {
	adapter providers.Adapter
}

func (r *mockResolver) Adapter(p domain.Provider) (providers.Adapter, error) {
	if r.adapter == nil {
		return nil, errors.New("no adapter")
	}
	return r.adapter, nil
}

func newTestGenerator(t *testing.T, a *mockAdapter, opts ...Option) *Generator {
	t.Helper()
	pb, err := prompts.NewTextPromptBuilder()
	require.NoError(t, err)
	g, err := NewGenerator(&mockResolver{adapter: a}, pb, opts...)
	require.NoError(t, err)
	return g
}

func testRequest(pages int) Request {
	cfg := domain.DefaultComicConfig()
	cfg.Story = "Alice finds a strange key in the attic and follows Bob into the garden at night."
	cfg.NumPages = pages
	return Request{
		Config:    cfg,
		TextModel: domain.ModelOption{ID: "gemini-2.5-flash", Provider: domain.ProviderGemini},
		Characters: []*domain.CharacterReference{
			{ID: "alice", Name: "Alice", Images: []domain.ReferenceImage{{ID: "1"}}},
		},
	}
}

func TestGenerator_Generate(t *testing.T) {
	t.Run("Success/プロンプトを組み立てて N 件にそろえるのだ", func(t *testing.T) {
		a := &mockAdapter{generateTextFunc: func(ctx context.Context, req providers.TextRequest) (string, error) {
			assert.Equal(t, "gemini-2.5-flash", req.Model)
			assert.True(t, req.JSONResponse)
			assert.Contains(t, req.SystemInstruction, "exactly 3 distinct comic panels")
			assert.Contains(t, req.SystemInstruction, "Alice with 1 reference image(s)")
			assert.Contains(t, req.Prompt, "strange key")
			return "```json\n" + bareJSON + "\n```", nil
		}}
		panels, err := newTestGenerator(t, a).Generate(context.Background(), testRequest(3))
		require.NoError(t, err)
		require.Len(t, panels, 3)
		assert.Equal(t, "Alice walks in.", panels[0].SceneDescription)
		assert.Equal(t, PlaceholderScene, panels[2].SceneDescription)
	})

	t.Run("Success/多すぎる出力は切り詰めるのだ", func(t *testing.T) {
		a := &mockAdapter{generateTextFunc: func(ctx context.Context, req providers.TextRequest) (string, error) {
			return bareJSON, nil
		}}
		panels, err := newTestGenerator(t, a).Generate(context.Background(), testRequest(1))
		require.NoError(t, err)
		require.Len(t, panels, 1)
		assert.Equal(t, "Alice walks in.", panels[0].SceneDescription)
	})

	t.Run("Success/区切り形式ではプロンプトと解析順が入れ替わるのだ", func(t *testing.T) {
		a := &mockAdapter{generateTextFunc: func(ctx context.Context, req providers.TextRequest) (string, error) {
			assert.False(t, req.JSONResponse)
			assert.Contains(t, req.SystemInstruction, "---PAGE 1---")
			return "---PAGE 1---\nScene: Alice opens the box.\nCaption: Click.", nil
		}}
		panels, err := newTestGenerator(t, a, WithFormat(FormatDelimited)).Generate(context.Background(), testRequest(1))
		require.NoError(t, err)
		assert.Equal(t, "Alice opens the box.", panels[0].SceneDescription)
		assert.Equal(t, "Click.", panels[0].DialogueOrCaption)
	})

	t.Run("Error/解析不能なら生テキスト付きのエラーで再問い合わせしないのだ", func(t *testing.T) {
		raw := "I'm sorry, " + strings.Repeat("very ", 100) + "long refusal"
		a := &mockAdapter{generateTextFunc: func(ctx context.Context, req providers.TextRequest) (string, error) {
			return raw, nil
		}}
		_, err := newTestGenerator(t, a).Generate(context.Background(), testRequest(2))
		require.ErrorIs(t, err, domain.ErrMalformedModelOutput)

		var me *domain.MalformedOutputError
		require.True(t, errors.As(err, &me))
		assert.Equal(t, raw, me.Raw)
		assert.Less(t, len(err.Error()), len(raw)+200)
		assert.Equal(t, 1, a.calls)
	})

	t.Run("Error/通信エラーはそのまま分類を保つのだ", func(t *testing.T) {
		a := &mockAdapter{generateTextFunc: func(ctx context.Context, req providers.TextRequest) (string, error) {
			return "", domain.NewTransportError(domain.ProviderGemini, "generate text", context.DeadlineExceeded)
		}}
		_, err := newTestGenerator(t, a).Generate(context.Background(), testRequest(2))
		assert.ErrorIs(t, err, domain.ErrProviderTransport)
	})

	t.Run("Error/アダプターが無い", func(t *testing.T) {
		pb, _ := prompts.NewTextPromptBuilder()
		g, err := NewGenerator(&mockResolver{}, pb)
		require.NoError(t, err)
		_, err = g.Generate(context.Background(), testRequest(1))
		assert.Error(t, err)
	})
}

func TestNewGenerator_RequiresDependencies(t *testing.T) {
	_, err := NewGenerator(nil, nil)
	assert.Error(t, err)
}
