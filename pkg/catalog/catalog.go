package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/shouni/go-comic-kit/pkg/domain"
	"github.com/shouni/go-comic-kit/pkg/providers"

	"github.com/patrickmn/go-cache"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

const (
	// DefaultFreshness は取得結果をネットワークに再問い合わせせずに使う期間なのだ。
	DefaultFreshness = 30 * time.Minute

	cacheCleanupInterval = 10 * time.Minute

	freshPrefix    = "fresh:"
	lastGoodPrefix = "good:"
	tracerName     = "github.com/shouni/go-comic-kit/pkg/catalog"
)

// fetchKinds はプロバイダから取得する種別です。解析用は text から派生させるのだ。
var fetchKinds = []domain.ModelKind{domain.KindText, domain.KindImage}

// Catalog は既定モデルとプロバイダから取得したモデルを統合した一覧を保持するサービスです。
// Refresh の失敗は警告として返され、一覧は常に既定値以上を保ちます。
type Catalog struct {
	defaults  Defaults
	listers   []providers.ModelLister
	retry     RetryPolicy
	freshness time.Duration
	tracer    trace.Tracer

	cache *cache.Cache
	group singleflight.Group

	mu       sync.RWMutex
	snapshot map[domain.ModelKind][]domain.ModelOption
	// families は一度でも見たモデルIDとプロバイダの対応。消えたモデルの系列判定に使うのだ。
	families map[string]domain.Provider
}

// Option は Catalog の生成オプションです。
type Option func(*Catalog)

// WithRetryPolicy は取得の再試行方針を差し替えます。
func WithRetryPolicy(p RetryPolicy) Option {
	return func(c *Catalog) { c.retry = p }
}

// WithFreshness は取得結果の鮮度期間を設定します。
func WithFreshness(d time.Duration) Option {
	return func(c *Catalog) {
		if d > 0 {
			c.freshness = d
		}
	}
}

// New は Catalog を生成します。Refresh 前は既定モデルのみを返すのだ。
func New(defaults Defaults, listers []providers.ModelLister, opts ...Option) *Catalog {
	c := &Catalog{
		defaults:  defaults,
		retry:     DefaultRetryPolicy(),
		freshness: DefaultFreshness,
		tracer:    otel.Tracer(tracerName),
		families:  make(map[string]domain.Provider),
	}
	for _, l := range listers {
		if l != nil {
			c.listers = append(c.listers, l)
		}
	}
	for _, opt := range opts {
		opt(c)
	}
	c.cache = cache.New(c.freshness, cacheCleanupInterval)
	c.setSnapshot(c.build(nil))
	return c
}

// List は指定種別のモデル一覧のコピーを返します。
func (c *Catalog) List(kind domain.ModelKind) []domain.ModelOption {
	c.mu.RLock()
	defer c.mu.RUnlock()
	src := c.snapshot[kind]
	out := make([]domain.ModelOption, len(src))
	copy(out, src)
	return out
}

// Find は種別とIDでモデルを探します。
// 一覧は (provider, id) で重複排除されるので、同じIDが複数プロバイダにあり得るのだ。
// その場合は一覧の先頭側、つまり既定モデル、次に listers を渡した順のプロバイダが選ばれます。
// プロバイダを指定したいときは FindByKey を使うのだ。
func (c *Catalog) Find(kind domain.ModelKind, id string) (domain.ModelOption, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, m := range c.snapshot[kind] {
		if m.ID == id {
			return m, true
		}
	}
	return domain.ModelOption{}, false
}

// FindByKey は種別と (provider, id) でモデルを探します。
func (c *Catalog) FindByKey(kind domain.ModelKind, key domain.ModelKey) (domain.ModelOption, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, m := range c.snapshot[kind] {
		if m.Key() == key {
			return m, true
		}
	}
	return domain.ModelOption{}, false
}

// Refresh は全プロバイダの一覧を並行に取得して一覧を置き換えます。
// 同時に呼ばれた場合は1回の取得にまとめられます。
// 返されるエラーは警告であり、一覧自体は常に更新されているのだ。
func (c *Catalog) Refresh(ctx context.Context) error {
	_, err, shared := c.group.Do("refresh", func() (any, error) {
		return nil, c.refresh(ctx)
	})
	if shared {
		slog.DebugContext(ctx, "進行中のカタログ更新に合流しました")
	}
	return err
}

type fetchResult struct {
	kind   domain.ModelKind
	models []domain.ModelOption
	err    error
}

func (c *Catalog) refresh(ctx context.Context) error {
	ctx, span := c.tracer.Start(ctx, "catalog.Refresh",
		trace.WithAttributes(attribute.Int("catalog.listers", len(c.listers))))
	defer span.End()

	results := make([]fetchResult, len(c.listers)*len(fetchKinds))
	var eg errgroup.Group
	for i, l := range c.listers {
		for j, kind := range fetchKinds {
			idx := i*len(fetchKinds) + j
			eg.Go(func() error {
				models, err := c.fetch(ctx, l, kind)
				results[idx] = fetchResult{kind: kind, models: models, err: err}
				return nil
			})
		}
	}
	_ = eg.Wait()

	fetched := make(map[domain.ModelKind][][]domain.ModelOption)
	var warnings []error
	for _, r := range results {
		if r.err != nil {
			warnings = append(warnings, r.err)
		}
		if len(r.models) > 0 {
			fetched[r.kind] = append(fetched[r.kind], r.models)
		}
	}

	c.setSnapshot(c.build(fetched))

	if len(warnings) > 0 {
		err := errors.Join(warnings...)
		span.RecordError(err)
		span.SetStatus(codes.Error, "partial catalog refresh")
		slog.WarnContext(ctx, "モデル一覧の取得に一部失敗しました。既定モデルと前回の取得結果を使います", "error", err)
		return fmt.Errorf("model catalog refresh: %w", err)
	}
	return nil
}

// fetch は1プロバイダ×1種別の取得を行います。新鮮なキャッシュがあれば通信しません。
// 失敗時は前回成功した結果を返しつつ、エラーも返すのだ。
func (c *Catalog) fetch(ctx context.Context, l providers.ModelLister, kind domain.ModelKind) ([]domain.ModelOption, error) {
	key := fmt.Sprintf("%s/%s", l.Provider(), kind)
	if v, ok := c.cache.Get(freshPrefix + key); ok {
		if models, ok := v.([]domain.ModelOption); ok {
			return models, nil
		}
	}

	models, err := Retry(ctx, c.retry, func(ctx context.Context) ([]domain.ModelOption, error) {
		return l.ListModels(ctx, kind)
	})
	if err != nil {
		err = fmt.Errorf("%s %s models: %w", l.Provider(), kind, err)
		if v, ok := c.cache.Get(lastGoodPrefix + key); ok {
			if prev, ok := v.([]domain.ModelOption); ok {
				return prev, err
			}
		}
		return nil, err
	}

	models = FilterFetched(models)
	c.cache.Set(freshPrefix+key, models, cache.DefaultExpiration)
	c.cache.Set(lastGoodPrefix+key, models, cache.NoExpiration)
	slog.DebugContext(ctx, "モデル一覧を取得しました", "provider", l.Provider(), "kind", kind, "count", len(models))
	return models, nil
}

// build は既定値と取得結果から種別ごとの一覧を組み立てます。
func (c *Catalog) build(fetched map[domain.ModelKind][][]domain.ModelOption) map[domain.ModelKind][]domain.ModelOption {
	text := Merge(c.defaults.Text, fetched[domain.KindText]...)
	image := Merge(c.defaults.Image, fetched[domain.KindImage]...)

	var fetchedAnalyzers [][]domain.ModelOption
	for _, set := range fetched[domain.KindText] {
		fetchedAnalyzers = append(fetchedAnalyzers, analyzers(set))
	}
	analysis := Merge(analyzers(c.defaults.Text), fetchedAnalyzers...)

	return map[domain.ModelKind][]domain.ModelOption{
		domain.KindText:     text,
		domain.KindImage:    image,
		domain.KindAnalysis: analysis,
	}
}

func (c *Catalog) setSnapshot(s map[domain.ModelKind][]domain.ModelOption) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.snapshot = s
	for _, models := range s {
		for _, m := range models {
			if _, ok := c.families[m.ID]; !ok {
				c.families[m.ID] = m.Provider
			}
		}
	}
}

// ResolveImageModel は選択中の画像モデルが一覧から消えた場合の代替IDを返します。
// 残っていればそのまま、なければ同じプロバイダの先頭、次に一覧の先頭、最後に固定の既定IDなのだ。
func (c *Catalog) ResolveImageModel(currentID string) string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	images := c.snapshot[domain.KindImage]
	for _, m := range images {
		if m.ID == currentID {
			return currentID
		}
	}
	if family, ok := c.families[currentID]; ok {
		for _, m := range images {
			if m.Provider == family {
				return m.ID
			}
		}
	}
	if len(images) > 0 {
		return images[0].ID
	}
	return domain.FallbackImageModelID
}
