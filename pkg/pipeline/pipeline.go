package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/shouni/go-comic-kit/pkg/analyzer"
	"github.com/shouni/go-comic-kit/pkg/domain"
	"github.com/shouni/go-comic-kit/pkg/generator"
	"github.com/shouni/go-comic-kit/pkg/providers"
	"github.com/shouni/go-comic-kit/pkg/script"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/shouni/go-comic-kit/pkg/pipeline"

// Dependencies はパイプラインが利用するコンポーネント一式です。
type Dependencies struct {
	Catalog  ModelFinder
	Resolver providers.Resolver
	Analyzer CharacterAnalyzer
	Script   ScriptGenerator
	Panels   generator.PanelImageGenerator
}

// Pipeline は台本生成からパネル画像の生成までを1回の実行として管理する司令塔です。
// 同時に実行できるのは1つだけで、Abandon された実行の書き込みは捨てられるのだ。
type Pipeline struct {
	deps         Dependencies
	concurrency  int
	rateInterval time.Duration
	seedSource   func() int64
	tracer       trace.Tracer

	// notifyMu は状態更新と通知の順序をそろえるためのロックなのだ。mu より先に取ります。
	notifyMu sync.Mutex

	mu        sync.Mutex
	runID     uint64
	active    bool
	cancel    context.CancelFunc
	state     State
	panels    domain.Panels
	progress  string
	completed int
	err       error
	observers []func(Progress)
}

// Option は Pipeline の生成オプションです。
type Option func(*Pipeline)

// WithConcurrency はパネル画像の同時生成数を指定します。既定は1（ページ順に逐次）なのだ。
func WithConcurrency(n int) Option {
	return func(p *Pipeline) {
		if n > 0 {
			p.concurrency = n
		}
	}
}

// WithRateInterval はパネル画像リクエストの最小間隔を指定します。0 なら制限しません。
func WithRateInterval(d time.Duration) Option {
	return func(p *Pipeline) {
		if d >= 0 {
			p.rateInterval = d
		}
	}
}

// WithSeedSource は Seed が 0 の場合に使う乱数源を差し替えます。
func WithSeedSource(fn func() int64) Option {
	return func(p *Pipeline) {
		if fn != nil {
			p.seedSource = fn
		}
	}
}

// RandomSeed は [1, domain.MaxSeed] の範囲のシードを返すのだ。
func RandomSeed() int64 {
	return rand.Int64N(domain.MaxSeed) + 1
}

// New は Pipeline を初期化します。
func New(deps Dependencies, opts ...Option) (*Pipeline, error) {
	switch {
	case deps.Catalog == nil:
		return nil, errors.New("catalog (ModelFinder) is required")
	case deps.Resolver == nil:
		return nil, errors.New("resolver (providers.Resolver) is required")
	case deps.Analyzer == nil:
		return nil, errors.New("analyzer (CharacterAnalyzer) is required")
	case deps.Script == nil:
		return nil, errors.New("script generator (ScriptGenerator) is required")
	case deps.Panels == nil:
		return nil, errors.New("panel generator (generator.PanelImageGenerator) is required")
	}

	p := &Pipeline{
		deps:        deps,
		concurrency: 1,
		seedSource:  RandomSeed,
		tracer:      otel.Tracer(tracerName),
		state:       StateIdle,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// OnProgress は進捗の購読者を登録します。購読者の中から Snapshot を呼んでも構いません。
func (p *Pipeline) OnProgress(fn func(Progress)) {
	if fn == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.observers = append(p.observers, fn)
}

// Snapshot は現在の実行状態のコピーを返します。
func (p *Pipeline) Snapshot() Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	return Snapshot{
		RunID:    p.runID,
		State:    p.state,
		Panels:   p.panels.Clone(),
		Progress: p.progress,
		Err:      p.err,
	}
}

// Abandon は実行中の処理を打ち切り、状態を Idle に戻します。
// 打ち切られた実行からの書き込みはすべて捨てられるのだ。
func (p *Pipeline) Abandon() {
	p.mu.Lock()
	if !p.active {
		p.mu.Unlock()
		return
	}
	p.runID++
	p.active = false
	cancel := p.cancel
	p.cancel = nil
	p.state = StateIdle
	p.panels = nil
	p.progress = ""
	p.completed = 0
	p.err = nil
	p.mu.Unlock()

	slog.Info("生成実行を中断しました")
	if cancel != nil {
		cancel()
	}
}

// Run はストーリーから台本を生成し、各パネルの画像を生成します。
// 台本の生成に失敗した場合は Failed になり、パネルは作られません。
// パネル画像の失敗はそのパネルに記録され、実行は Complete まで進むのだ。
func (p *Pipeline) Run(ctx context.Context, cfg domain.ComicConfig, chars []*domain.CharacterReference) (*Result, error) {
	return p.run(ctx, cfg, chars, nil)
}

// RunWithScript は保存済みの台本から画像だけを生成し直します。
// ページ数は台本の件数に合わせ、ストーリーの語数は検証しないのだ。
func (p *Pipeline) RunWithScript(ctx context.Context, cfg domain.ComicConfig, chars []*domain.CharacterReference, contents []domain.PanelContent) (*Result, error) {
	if len(contents) == 0 {
		return nil, &domain.ValidationError{Field: "script", Message: "台本にパネルがありません"}
	}
	cfg.NumPages = len(contents)
	return p.run(ctx, cfg, chars, script.Normalize(contents, len(contents)))
}

// resolvedModels は設定のモデルIDをカタログで解決した結果です。
type resolvedModels struct {
	text     domain.ModelOption
	image    domain.ModelOption
	analysis domain.ModelOption
	analyze  bool
}

func (p *Pipeline) resolveModels(cfg domain.ComicConfig, chars []*domain.CharacterReference) (resolvedModels, error) {
	var m resolvedModels
	var ok bool

	if m.text, ok = p.deps.Catalog.Find(domain.KindText, cfg.TextModel); !ok {
		return m, &domain.ValidationError{Field: "textModel", Message: fmt.Sprintf("未知のテキスト生成モデルです: %q", cfg.TextModel)}
	}
	if m.image, ok = p.deps.Catalog.Find(domain.KindImage, cfg.ImageModel); !ok {
		return m, &domain.ValidationError{Field: "imageModel", Message: fmt.Sprintf("未知の画像生成モデルです: %q", cfg.ImageModel)}
	}
	if !analyzer.NeedsAnalysis(m.image, chars) {
		return m, nil
	}

	id := strings.TrimSpace(cfg.CharacterAnalysisModel)
	if id == "" {
		id = domain.DefaultAnalysisModelID
	}
	if m.analysis, ok = p.deps.Catalog.Find(domain.KindAnalysis, id); !ok {
		return m, &domain.ValidationError{Field: "characterAnalysisModel", Message: fmt.Sprintf("未知のキャラクター解析モデルです: %q", id)}
	}
	m.analyze = true
	return m, nil
}

// preflight は関係する全プロバイダの認証情報を、ネットワーク呼び出しの前に確認するのだ。
func (p *Pipeline) preflight(models ...domain.ModelOption) error {
	seen := make(map[domain.Provider]struct{}, len(models))
	for _, m := range models {
		if _, done := seen[m.Provider]; done {
			continue
		}
		seen[m.Provider] = struct{}{}

		adapter, err := p.deps.Resolver.Adapter(m.Provider)
		if err != nil {
			return err
		}
		if err := adapter.CheckCredential(); err != nil {
			return err
		}
	}
	return nil
}

func (p *Pipeline) run(ctx context.Context, cfg domain.ComicConfig, chars []*domain.CharacterReference, contents []domain.PanelContent) (_ *Result, err error) {
	ctx, span := p.tracer.Start(ctx, "pipeline.Run")
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	validate := cfg.Validate
	if contents != nil {
		validate = cfg.ValidateSettings
	}
	if err := validate(); err != nil {
		return nil, err
	}
	models, err := p.resolveModels(cfg, chars)
	if err != nil {
		return nil, err
	}
	check := []domain.ModelOption{models.image}
	if contents == nil {
		check = append(check, models.text)
	}
	if models.analyze {
		check = append(check, models.analysis)
	}
	if err := p.preflight(check...); err != nil {
		return nil, err
	}

	runCtx, id, cancel, err := p.begin(ctx)
	if err != nil {
		return nil, err
	}
	defer cancel()
	defer p.finish(id)

	cfg = cfg.WithResolvedSeed(p.seedSource)
	span.SetAttributes(
		attribute.Int64("run.id", int64(id)),
		attribute.Int("comic.pages", cfg.NumPages),
		attribute.Int64("comic.seed", cfg.Seed),
		attribute.String("model.text", models.text.ID),
		attribute.String("model.image", models.image.ID),
	)
	logger := slog.With("run_id", id)
	logger.InfoContext(ctx, "生成を開始します",
		"pages", cfg.NumPages, "seed", cfg.Seed, "text_model", models.text.ID, "image_model", models.image.ID)

	// --- 1. キャラクター解析（失敗しても続行する） ---
	var report analyzer.Report
	if models.analyze {
		if !p.apply(id, func() { p.progress = msgAnalyzing }) {
			return nil, domain.ErrRunSuperseded
		}
		report = p.deps.Analyzer.Analyze(runCtx, analyzer.Request{
			AnalysisModel: models.analysis,
			ImageModel:    models.image,
			Characters:    chars,
		})
	}

	// --- 2. 台本生成 ---
	if contents == nil {
		if !p.apply(id, func() { p.progress = msgScript }) {
			return nil, domain.ErrRunSuperseded
		}
		contents, err = p.deps.Script.Generate(runCtx, script.Request{
			Config:     cfg,
			TextModel:  models.text,
			Characters: chars,
		})
		if err != nil {
			if !p.fail(id, err) {
				return nil, domain.ErrRunSuperseded
			}
			logger.ErrorContext(ctx, "台本の生成に失敗しました", "error", err)
			return nil, err
		}
	}

	// --- 3. パネル画像生成 ---
	panels := make(domain.Panels, len(contents))
	for i, c := range contents {
		panels[i] = domain.GeneratedPanel{ID: fmt.Sprintf("run%d-panel%d", id, i+1), PanelContent: c}
	}
	if !p.apply(id, func() {
		p.state = StateGeneratingImages
		p.panels = panels
		p.completed = 0
	}) {
		return nil, domain.ErrRunSuperseded
	}

	p.generateImages(runCtx, id, cfg, models.image, chars)

	// --- 4. 完了 ---
	var result *Result
	if !p.apply(id, func() {
		p.state = StateComplete
		p.progress = msgComplete
		result = &Result{RunID: id, Config: cfg, Panels: p.panels.Clone(), Analysis: report}
	}) {
		return nil, domain.ErrRunSuperseded
	}
	logger.InfoContext(ctx, "生成が完了しました", "panels", len(result.Panels), "failed", result.Panels.Failed())
	return result, nil
}

// begin は実行ガードを取得し、新しい実行IDを払い出します。
func (p *Pipeline) begin(ctx context.Context) (context.Context, uint64, context.CancelFunc, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.active {
		return nil, 0, nil, domain.ErrRunInProgress
	}
	runCtx, cancel := context.WithCancel(ctx)
	p.runID++
	p.active = true
	p.cancel = cancel
	p.state = StateGeneratingScript
	p.panels = nil
	p.progress = ""
	p.completed = 0
	p.err = nil
	return runCtx, p.runID, cancel, nil
}

// finish は実行ガードを解放します。Abandon 済みなら何もしないのだ。
func (p *Pipeline) finish(id uint64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.runID == id {
		p.active = false
		p.cancel = nil
	}
}

func (p *Pipeline) fail(id uint64, err error) bool {
	return p.apply(id, func() {
		p.state = StateFailed
		p.panels = nil
		p.progress = msgFailed
		p.err = err
	})
}

// current は id が現在の実行かどうかを返します。
func (p *Pipeline) current(id uint64) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.active && p.runID == id
}

// apply は id が現在の実行と一致する場合だけ fn を適用し、購読者に通知します。
// 古い実行からの書き込みは捨てて false を返すのだ。
func (p *Pipeline) apply(id uint64, fn func()) bool {
	p.notifyMu.Lock()
	defer p.notifyMu.Unlock()

	p.mu.Lock()
	if !p.active || p.runID != id {
		p.mu.Unlock()
		return false
	}
	fn()
	prog := Progress{
		RunID:     p.runID,
		State:     p.state,
		Message:   p.progress,
		Completed: p.completed,
		Total:     len(p.panels),
	}
	observers := slices.Clone(p.observers)
	p.mu.Unlock()

	for _, o := range observers {
		o(prog)
	}
	return true
}
