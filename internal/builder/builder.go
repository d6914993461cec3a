package builder

import (
	"context"
	"fmt"

	"github.com/shouni/go-comic-kit/internal/config"

	"github.com/shouni/go-comic-kit/pkg/analyzer"
	"github.com/shouni/go-comic-kit/pkg/catalog"
	"github.com/shouni/go-comic-kit/pkg/generator"
	"github.com/shouni/go-comic-kit/pkg/pipeline"
	"github.com/shouni/go-comic-kit/pkg/prompts"
	"github.com/shouni/go-comic-kit/pkg/providers"
	"github.com/shouni/go-comic-kit/pkg/providers/gemini"
	"github.com/shouni/go-comic-kit/pkg/providers/pollinations"
	"github.com/shouni/go-comic-kit/pkg/publisher"
	"github.com/shouni/go-comic-kit/pkg/script"

	"github.com/shouni/go-remote-io/pkg/remoteio"
	"google.golang.org/genai"
)

const defaultGeminiTemperature = float32(0.7)

// BuildAppContext は設定からアプリケーションの全コンポーネントを組み立てます。
func BuildAppContext(ctx context.Context, cfg *config.Config) (*AppContext, error) {
	reg, err := BuildRegistry(cfg)
	if err != nil {
		return nil, fmt.Errorf("プロバイダの登録に失敗しました: %w", err)
	}

	cat := catalog.New(catalog.DefaultModels(), reg.Listers())

	sg, err := BuildScriptGenerator(cfg, reg)
	if err != nil {
		return nil, err
	}

	pl, err := BuildPipeline(cfg, reg, cat, sg)
	if err != nil {
		return nil, err
	}

	// GCS / S3 のクライアントは渡さないので、ローカルパスのみ扱えるのだ。
	reader := remoteio.NewUniversalInputReader(nil, nil)
	writer := remoteio.NewUniversalIOWriter(nil, nil)
	pub, err := publisher.NewMarkdownPublisher(writer)
	if err != nil {
		return nil, fmt.Errorf("パブリッシャーの初期化に失敗しました: %w", err)
	}

	return &AppContext{
		Config:    cfg,
		Registry:  reg,
		Catalog:   cat,
		Script:    sg,
		Pipeline:  pl,
		Publisher: pub,
		Reader:    reader,
		Writer:    writer,
	}, nil
}

// BuildRegistry は Gemini と Pollinations のアダプターを登録した Registry を構築します。
func BuildRegistry(cfg *config.Config) (*providers.Registry, error) {
	timeout := cfg.HTTPTimeout
	if cfg.Options.HTTPTimeout > 0 {
		timeout = cfg.Options.HTTPTimeout
	}
	if timeout <= 0 {
		timeout = config.DefaultHTTPTimeout
	}

	gem := gemini.New(gemini.Config{
		APIKey:      cfg.Credentials.GeminiAPIKey,
		Timeout:     timeout,
		Temperature: genai.Ptr(defaultGeminiTemperature),
	})

	pollCfg := pollinations.DefaultConfig()
	pollCfg.Timeout = timeout
	pollCfg.VerifyImages = cfg.Credentials.PollinationsVerifyImages
	poll := pollinations.New(pollCfg, nil)

	return providers.NewRegistry(gem, poll)
}

// BuildScriptGenerator は台本生成器を構築します。
func BuildScriptGenerator(cfg *config.Config, reg providers.Resolver) (*script.Generator, error) {
	pb, err := prompts.NewTextPromptBuilder()
	if err != nil {
		return nil, fmt.Errorf("プロンプトビルダーの初期化に失敗しました: %w", err)
	}
	var opts []script.Option
	if cfg.Options.Delimited {
		opts = append(opts, script.WithFormat(script.FormatDelimited))
	}
	sg, err := script.NewGenerator(reg, pb, opts...)
	if err != nil {
		return nil, fmt.Errorf("台本生成器の初期化に失敗しました: %w", err)
	}
	return sg, nil
}

// BuildPipeline は解析器とパネル生成器を束ねたパイプラインを構築します。
func BuildPipeline(cfg *config.Config, reg providers.Resolver, cat *catalog.Catalog, sg *script.Generator) (*pipeline.Pipeline, error) {
	an, err := analyzer.New(reg)
	if err != nil {
		return nil, fmt.Errorf("キャラクター解析器の初期化に失敗しました: %w", err)
	}

	pg, err := generator.NewPanelGenerator(reg, prompts.NewImagePromptBuilder(cfg.ImagePromptSuffix))
	if err != nil {
		return nil, fmt.Errorf("パネル生成器の初期化に失敗しました: %w", err)
	}

	concurrency := cfg.Concurrency
	if cfg.Options.Concurrency > 0 {
		concurrency = cfg.Options.Concurrency
	}
	interval := cfg.RateInterval
	if cfg.Options.RateInterval > 0 {
		interval = cfg.Options.RateInterval
	}

	pl, err := pipeline.New(pipeline.Dependencies{
		Catalog:  cat,
		Resolver: reg,
		Analyzer: an,
		Script:   sg,
		Panels:   pg,
	},
		pipeline.WithConcurrency(concurrency),
		pipeline.WithRateInterval(interval),
	)
	if err != nil {
		return nil, fmt.Errorf("パイプラインの初期化に失敗しました: %w", err)
	}
	return pl, nil
}
