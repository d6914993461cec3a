package pipeline

import (
	"context"

	"github.com/shouni/go-comic-kit/pkg/analyzer"
	"github.com/shouni/go-comic-kit/pkg/domain"
	"github.com/shouni/go-comic-kit/pkg/generator"
	"github.com/shouni/go-comic-kit/pkg/script"
)

// ModelFinder はモデルIDから能力フラグ付きの ModelOption を引くインターフェースです。
type ModelFinder interface {
	Find(kind domain.ModelKind, id string) (domain.ModelOption, bool)
}

// CharacterAnalyzer は参照画像からキャラクターの外見説明を作るインターフェースです。
type CharacterAnalyzer interface {
	Analyze(ctx context.Context, req analyzer.Request) analyzer.Report
}

// ScriptGenerator はストーリーから台本を作るインターフェースです。
type ScriptGenerator interface {
	Generate(ctx context.Context, req script.Request) ([]domain.PanelContent, error)
}

var (
	_ CharacterAnalyzer             = (*analyzer.Analyzer)(nil)
	_ ScriptGenerator               = (*script.Generator)(nil)
	_ generator.PanelImageGenerator = (*generator.PanelGenerator)(nil)
)
