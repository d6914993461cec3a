package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"text/tabwriter"

	"github.com/shouni/go-comic-kit/internal/builder"
	"github.com/shouni/go-comic-kit/internal/config"
	"github.com/shouni/go-comic-kit/pkg/domain"
	comicpipe "github.com/shouni/go-comic-kit/pkg/pipeline"
	"github.com/shouni/go-comic-kit/pkg/publisher"
	"github.com/shouni/go-comic-kit/pkg/script"
)

// Execute はストーリーから台本と全パネルの画像を生成し、成果物を書き出すのだ。
func Execute(ctx context.Context, cfg *config.Config) error {
	app, err := setupAppContext(ctx, cfg)
	if err != nil {
		return err
	}

	story, err := readStory(ctx, app.Reader, cfg.Options.StoryFile)
	if err != nil {
		return err
	}
	chars, err := loadCharacters(ctx, app.Reader, cfg.Options.CharacterConfig)
	if err != nil {
		return err
	}

	cc := resolveImageModel(ctx, app, cfg.ComicConfig(story))
	watchProgress(app.Pipeline)

	slog.Info("Phase 1-2: 台本と画像の生成を開始するのだ...",
		"pages", cc.NumPages, "text_model", cc.TextModel, "image_model", cc.ImageModel, "characters", len(chars))
	res, err := app.Pipeline.Run(ctx, cc, chars)
	if err != nil {
		return fmt.Errorf("漫画の生成に失敗したのだ: %w", err)
	}

	return runPublishStep(ctx, app, res, false)
}

// ExecuteScriptOnly は台本だけを生成して JSON で保存するのだ。画像生成は行いません。
func ExecuteScriptOnly(ctx context.Context, cfg *config.Config) error {
	app, err := setupAppContext(ctx, cfg)
	if err != nil {
		return err
	}

	story, err := readStory(ctx, app.Reader, cfg.Options.StoryFile)
	if err != nil {
		return err
	}
	chars, err := loadCharacters(ctx, app.Reader, cfg.Options.CharacterConfig)
	if err != nil {
		return err
	}

	cc := cfg.ComicConfig(story)
	if err := cc.Validate(); err != nil {
		return err
	}
	textModel, ok := app.Catalog.Find(domain.KindText, cc.TextModel)
	if !ok {
		return &domain.ValidationError{Field: "textModel", Message: fmt.Sprintf("未知のテキスト生成モデルです: %q", cc.TextModel)}
	}
	adapter, err := app.Registry.Adapter(textModel.Provider)
	if err != nil {
		return err
	}
	if err := adapter.CheckCredential(); err != nil {
		return err
	}

	slog.Info("台本の生成を開始するのだ...", "pages", cc.NumPages, "text_model", textModel.ID)
	contents, err := app.Script.Generate(ctx, script.Request{Config: cc, TextModel: textModel, Characters: chars})
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(contents, "", "  ")
	if err != nil {
		return fmt.Errorf("台本のエンコードに失敗しました: %w", err)
	}
	saved, err := publisher.NewAssetManager(app.Writer, outputDir(cfg)).Save(ctx, scriptFileName, data, "application/json")
	if err != nil {
		return fmt.Errorf("台本の保存に失敗したのだ: %w", err)
	}
	slog.Info("台本（JSON）を保存したのだ", "path", saved, "panels", len(contents))
	return nil
}

// ExecuteImageOnly は保存済みの台本 JSON を読み込み、画像生成と公開処理だけを実行するのだ。
func ExecuteImageOnly(ctx context.Context, cfg *config.Config) error {
	app, err := setupAppContext(ctx, cfg)
	if err != nil {
		return err
	}

	contents, err := readScript(ctx, app.Reader, cfg.Options.ScriptFile)
	if err != nil {
		return err
	}
	chars, err := loadCharacters(ctx, app.Reader, cfg.Options.CharacterConfig)
	if err != nil {
		return err
	}

	cc := resolveImageModel(ctx, app, cfg.ComicConfig(""))
	watchProgress(app.Pipeline)

	slog.Info("Phase 2: 画像生成を開始するのだ...", "panels", len(contents), "image_model", cc.ImageModel)
	res, err := app.Pipeline.RunWithScript(ctx, cc, chars, contents)
	if err != nil {
		return fmt.Errorf("画像生成に失敗したのだ: %w", err)
	}
	return runPublishStep(ctx, app, res, true)
}

// ExecuteListModels はモデル一覧を更新して w に表形式で書き出すのだ。
func ExecuteListModels(ctx context.Context, cfg *config.Config, w io.Writer) error {
	app, err := setupAppContext(ctx, cfg)
	if err != nil {
		return err
	}
	if err := app.Catalog.Refresh(ctx); err != nil {
		slog.WarnContext(ctx, "モデル一覧の一部を取得できませんでした。既定の一覧を含めて表示します", "error", err)
	}

	models := make(map[domain.ModelKind][]domain.ModelOption, len(modelKinds))
	for _, kind := range modelKinds {
		models[kind] = app.Catalog.List(kind)
	}
	return writeModelTable(w, models)
}

var modelKinds = []domain.ModelKind{domain.KindText, domain.KindImage, domain.KindAnalysis}

func writeModelTable(w io.Writer, models map[domain.ModelKind][]domain.ModelOption) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "KIND\tPROVIDER\tID\tNAME\tFLAGS")
	for _, kind := range modelKinds {
		for _, m := range models[kind] {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", kind, m.Provider, m.ID, m.DisplayName(), modelFlags(m))
		}
	}
	return tw.Flush()
}

// setupAppContext は設定からアプリケーションコンテキストを初期化して返すのだ。
func setupAppContext(ctx context.Context, cfg *config.Config) (*builder.AppContext, error) {
	app, err := builder.BuildAppContext(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("アプリケーションの初期化に失敗したのだ: %w", err)
	}
	return app, nil
}

// resolveImageModel は一覧を更新し、選択中の画像モデルが消えていれば代替モデルに差し替えます。
func resolveImageModel(ctx context.Context, app *builder.AppContext, cc domain.ComicConfig) domain.ComicConfig {
	if err := app.Catalog.Refresh(ctx); err != nil {
		slog.WarnContext(ctx, "モデル一覧の更新に失敗しました。既定の一覧で続行します", "error", err)
	}
	if resolved := app.Catalog.ResolveImageModel(cc.ImageModel); resolved != cc.ImageModel {
		slog.Warn("指定の画像モデルが一覧に無いため差し替えます", "requested", cc.ImageModel, "resolved", resolved)
		cc.ImageModel = resolved
	}
	return cc
}

// watchProgress は進捗をログに流す購読者を登録するのだ。
func watchProgress(pl *comicpipe.Pipeline) {
	pl.OnProgress(func(p comicpipe.Progress) {
		slog.Info(p.Message, "state", p.State, "completed", p.Completed, "total", p.Total)
	})
}

// runPublishStep は MarkdownPublisher を使って最終成果物を保存するのだ
func runPublishStep(ctx context.Context, app *builder.AppContext, res *comicpipe.Result, skipScript bool) error {
	slog.Info("Phase 3: 公開処理を開始するのだ...")
	title := app.Config.Options.Title
	if title == "" {
		title = config.DefaultTitle
	}

	out, err := app.Publisher.Publish(ctx, title, res.Config, res.Panels, publisher.Options{
		OutputDir:  outputDir(app.Config),
		SkipScript: skipScript,
	})
	if err != nil {
		return fmt.Errorf("公開処理に失敗したのだ: %w", err)
	}

	if out.FailedPanels > 0 {
		slog.Warn("一部のパネル画像を生成できませんでした", "failed", out.FailedPanels, "total", len(res.Panels))
	}
	slog.Info("すべての生成工程が完了したのだ！", "markdown", out.MarkdownPath, "seed", res.Config.Seed)
	return nil
}

func modelFlags(m domain.ModelOption) string {
	var flags []string
	if m.IsMultimodal {
		flags = append(flags, "multimodal")
	}
	if m.IsCharacterAnalyzer {
		flags = append(flags, "analyzer")
	}
	if len(flags) == 0 {
		return "-"
	}
	return strings.Join(flags, " ")
}
