package analyzer

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/shouni/go-comic-kit/pkg/domain"
	"github.com/shouni/go-comic-kit/pkg/providers"

	"golang.org/x/sync/errgroup"
)

// DefaultConcurrency は同時に解析するキャラクター数の上限なのだ。
const DefaultConcurrency = 3

// Request はキャラクター解析の入力です。
type Request struct {
	AnalysisModel domain.ModelOption
	ImageModel    domain.ModelOption
	Characters    []*domain.CharacterReference
}

// Report は解析結果の集計です。失敗はここに記録され、エラーとしては返しません。
type Report struct {
	Analyzed []string
	Skipped  []string
	Failed   map[string]string // キャラクター名 -> エラーメッセージ
}

// Analyzer は参照画像からキャラクターの外見説明を生成し、参照にキャッシュします。
// 画像モデルが参照画像を直接受け付ける場合は何もしないのだ。
type Analyzer struct {
	resolver    providers.Resolver
	concurrency int
}

// Option は Analyzer の生成オプションです。
type Option func(*Analyzer)

// WithConcurrency は同時解析数を指定します。
func WithConcurrency(n int) Option {
	return func(a *Analyzer) {
		if n > 0 {
			a.concurrency = n
		}
	}
}

// New は Analyzer を初期化します。
func New(resolver providers.Resolver, opts ...Option) (*Analyzer, error) {
	if resolver == nil {
		return nil, errors.New("resolver (providers.Resolver) is required")
	}
	a := &Analyzer{resolver: resolver, concurrency: DefaultConcurrency}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// NeedsAnalysis は画像モデルの能力と参照の状態から、解析が必要なキャラクターがいるかを返します。
func NeedsAnalysis(imageModel domain.ModelOption, chars []*domain.CharacterReference) bool {
	if imageModel.IsMultimodal {
		return false
	}
	for _, c := range chars {
		if c != nil && len(c.Images) > 0 && !c.HasDescription() {
			return true
		}
	}
	return false
}

// Analyze は説明の無いキャラクターを並行に解析します。
// 各ゴルーチンは自分の担当する参照だけに書き込むのだ。
func (a *Analyzer) Analyze(ctx context.Context, req Request) Report {
	report := Report{Failed: map[string]string{}}
	if req.ImageModel.IsMultimodal {
		slog.DebugContext(ctx, "マルチモーダル画像モデルのためキャラクター解析を省略します", "model", req.ImageModel.ID)
		return report
	}

	var targets []*domain.CharacterReference
	for _, c := range req.Characters {
		switch {
		case c == nil:
			continue
		case len(c.Images) == 0 || c.HasDescription():
			report.Skipped = append(report.Skipped, c.Name)
		default:
			targets = append(targets, c)
		}
	}
	if len(targets) == 0 {
		return report
	}

	adapter, err := a.resolver.Adapter(req.AnalysisModel.Provider)
	if err != nil {
		for _, c := range targets {
			report.Failed[c.Name] = err.Error()
		}
		slog.WarnContext(ctx, "解析モデルのアダプターが見つかりません", "provider", req.AnalysisModel.Provider, "error", err)
		return report
	}

	var mu sync.Mutex
	var eg errgroup.Group
	eg.SetLimit(a.concurrency)

	for _, char := range targets {
		eg.Go(func() error {
			start := time.Now()
			desc, err := adapter.AnalyzeCharacter(ctx, providers.AnalyzeRequest{
				Model:         req.AnalysisModel.ID,
				CharacterName: char.Name,
				Images:        char.AnalysisImages(),
			})

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				slog.WarnContext(ctx, "キャラクター解析に失敗しました。名前のみで続行します", "character", char.Name, "error", err)
				report.Failed[char.Name] = err.Error()
				return nil
			}
			char.DetailedTextDescription = strings.TrimSpace(desc)
			report.Analyzed = append(report.Analyzed, char.Name)
			slog.InfoContext(ctx, "キャラクター解析が完了しました", "character", char.Name, "duration", time.Since(start).Round(time.Millisecond))
			return nil
		})
	}
	_ = eg.Wait()
	return report
}
