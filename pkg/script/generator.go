package script

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/shouni/go-comic-kit/pkg/domain"
	"github.com/shouni/go-comic-kit/pkg/prompts"
	"github.com/shouni/go-comic-kit/pkg/providers"
)

// Format はモデルに要求する台本の形式です。
type Format int

const (
	// FormatJSON は JSON 配列形式（既定）なのだ。
	FormatJSON Format = iota
	// FormatDelimited は ---PAGE N--- 区切りの平文形式です。
	FormatDelimited
)

// Request は台本生成の入力です。
type Request struct {
	Config     domain.ComicConfig
	TextModel  domain.ModelOption
	Characters []*domain.CharacterReference
}

// Generator はストーリーからパネル内容の列を1回のテキスト生成で作ります。
// 解析に失敗しても再問い合わせはしないのだ。
type Generator struct {
	resolver providers.Resolver
	prompts  prompts.ScriptPrompt
	format   Format
}

// Option は Generator の生成オプションです。
type Option func(*Generator)

// WithFormat は台本の形式を指定します。
func WithFormat(f Format) Option {
	return func(g *Generator) { g.format = f }
}

// NewGenerator は Generator を初期化します。
func NewGenerator(resolver providers.Resolver, pb prompts.ScriptPrompt, opts ...Option) (*Generator, error) {
	if resolver == nil {
		return nil, errors.New("resolver (providers.Resolver) is required")
	}
	if pb == nil {
		return nil, errors.New("prompt builder (prompts.ScriptPrompt) is required")
	}
	g := &Generator{resolver: resolver, prompts: pb, format: FormatJSON}
	for _, opt := range opts {
		opt(g)
	}
	return g, nil
}

// Generate は台本を生成し、ちょうど NumPages 件のパネル内容を返します。
func (g *Generator) Generate(ctx context.Context, req Request) ([]domain.PanelContent, error) {
	adapter, err := g.resolver.Adapter(req.TextModel.Provider)
	if err != nil {
		return nil, err
	}

	data := prompts.TemplateData{
		InputText: req.Config.Story,
		NumPages:  req.Config.NumPages,
	}
	for _, c := range req.Characters {
		if c != nil {
			data.Characters = append(data.Characters, c.Summary())
		}
	}

	systemMode := prompts.ModeScriptSystem
	if g.format == FormatDelimited {
		systemMode = prompts.ModeScriptDelimited
	}
	system, err := g.prompts.Build(systemMode, data)
	if err != nil {
		return nil, fmt.Errorf("台本プロンプトの構築に失敗しました: %w", err)
	}
	user, err := g.prompts.Build(prompts.ModeScriptUser, data)
	if err != nil {
		return nil, fmt.Errorf("台本プロンプトの構築に失敗しました: %w", err)
	}

	slog.InfoContext(ctx, "台本を生成しています", "model", req.TextModel.ID, "provider", req.TextModel.Provider, "pages", req.Config.NumPages)

	raw, err := adapter.GenerateText(ctx, providers.TextRequest{
		Model:             req.TextModel.ID,
		Prompt:            user,
		SystemInstruction: system,
		JSONResponse:      g.format == FormatJSON,
	})
	if err != nil {
		return nil, fmt.Errorf("台本の生成に失敗しました: %w", err)
	}

	panels, err := g.parse(raw)
	if err != nil {
		slog.WarnContext(ctx, "台本の解析に失敗しました", "error", err, "raw", domain.TruncateString(raw, 200))
		return nil, err
	}

	if len(panels) != req.Config.NumPages {
		slog.WarnContext(ctx, "台本のパネル数が要求と異なるため調整します", "got", len(panels), "want", req.Config.NumPages)
	}
	return Normalize(panels, req.Config.NumPages), nil
}

// parse は形式に応じた順で解析器を試します。すべて失敗したら生テキスト付きのエラーを返すのだ。
func (g *Generator) parse(raw string) ([]domain.PanelContent, error) {
	parsers := []Parser{JSONParser{}, DelimitedParser{}}
	if g.format == FormatDelimited {
		parsers = []Parser{DelimitedParser{}, JSONParser{}}
	}

	var errs []error
	for _, p := range parsers {
		panels, err := p.Parse(raw)
		if err == nil {
			return panels, nil
		}
		errs = append(errs, err)
	}
	return nil, &domain.MalformedOutputError{Raw: raw, Err: errors.Join(errs...)}
}
