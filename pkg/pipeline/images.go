package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shouni/go-comic-kit/pkg/domain"
	"github.com/shouni/go-comic-kit/pkg/generator"
	"github.com/shouni/go-comic-kit/pkg/providers"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

// generateImages は全パネルの画像をページ順に生成します。
// 並列数が1より大きい場合も、各ゴルーチンは自分のインデックスのパネルにだけ書き込むのだ。
// 1枚の失敗がバッチ全体を止めることはありません。
func (p *Pipeline) generateImages(ctx context.Context, id uint64, cfg domain.ComicConfig, model domain.ModelOption, chars []*domain.CharacterReference) {
	snap := p.Snapshot()
	contents := snap.Panels.Contents()
	total := len(contents)

	// レートリミットの設定。interval が 0 なら制限なしとして動くのだ。
	var limiter *rate.Limiter
	if p.rateInterval > 0 {
		limiter = rate.NewLimiter(rate.Every(p.rateInterval), 1)
	}

	started := 0
	var eg errgroup.Group
	eg.SetLimit(p.concurrency)

	for i, content := range contents {
		if !p.current(id) {
			break
		}
		eg.Go(func() error {
			p.generatePanel(ctx, id, i, total, &started, limiter, generator.PanelRequest{
				Config:     cfg,
				ImageModel: model,
				Panel:      content,
				Characters: chars,
			})
			return nil
		})
	}
	_ = eg.Wait()
}

// generatePanel はパネル1枚を生成し、結果かエラーをそのパネルに記録します。
// started は apply の中でだけ読み書きするのだ。
func (p *Pipeline) generatePanel(ctx context.Context, id uint64, idx, total int, started *int, limiter *rate.Limiter, req generator.PanelRequest) {
	ctx, span := p.tracer.Start(ctx, "pipeline.panel", trace.WithAttributes(
		attribute.Int("panel.index", idx+1),
		attribute.Int("panel.total", total),
	))
	defer span.End()

	if !p.apply(id, func() {
		*started++
		p.panels[idx].IsGenerating = true
		p.progress = fmt.Sprintf(msgPanel, *started, total)
	}) {
		return
	}

	var art providers.ImageArtifact
	var err error
	if limiter != nil {
		err = limiter.Wait(ctx)
	}
	if err == nil {
		art, err = p.deps.Panels.Generate(ctx, req)
	}

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		slog.WarnContext(ctx, "パネル画像の生成に失敗しました。次のパネルへ進みます", "run_id", id, "panel", idx+1, "error", err)
	}

	p.apply(id, func() {
		panel := &p.panels[idx]
		panel.IsGenerating = false
		p.completed++
		if err != nil {
			panel.ImageError = err.Error()
			return
		}
		panel.ImageURL = art.URL
		panel.ImageData = art.Data
		panel.MIMEType = art.MIMEType
		panel.ImageError = ""
	})
}
