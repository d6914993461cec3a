package generator

import (
	"context"

	"github.com/shouni/go-comic-kit/pkg/providers"
)

// PanelImageGenerator はパネル1枚分の画像を生成するインターフェースです。
// パイプラインはこれを通して PanelGenerator を呼び出すのだ。
type PanelImageGenerator interface {
	Generate(ctx context.Context, req PanelRequest) (providers.ImageArtifact, error)
}

var _ PanelImageGenerator = (*PanelGenerator)(nil)
