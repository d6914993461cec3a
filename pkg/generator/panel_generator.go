package generator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/shouni/go-comic-kit/pkg/domain"
	"github.com/shouni/go-comic-kit/pkg/prompts"
	"github.com/shouni/go-comic-kit/pkg/providers"
)

// PanelRequest はパネル1枚分の画像生成に必要な入力です。
type PanelRequest struct {
	Config     domain.ComicConfig
	ImageModel domain.ModelOption
	Panel      domain.PanelContent
	Characters []*domain.CharacterReference
}

// PanelGenerator はパネルごとにプロンプトと参照画像を組み立てて画像を1枚生成します。
type PanelGenerator struct {
	resolver providers.Resolver
	prompts  *prompts.ImagePromptBuilder
}

// NewPanelGenerator は PanelGenerator の新しいインスタンスを初期化します。
func NewPanelGenerator(resolver providers.Resolver, pb *prompts.ImagePromptBuilder) (*PanelGenerator, error) {
	if resolver == nil {
		return nil, errors.New("resolver (providers.Resolver) is required")
	}
	if pb == nil {
		return nil, errors.New("prompt builder (*prompts.ImagePromptBuilder) is required")
	}
	return &PanelGenerator{resolver: resolver, prompts: pb}, nil
}

// BuildRequest はシーンに登場するキャラクターを注入した画像リクエストを組み立てるのだ。
// マルチモーダルモデルには参照画像と名前だけのヒントを、それ以外には外見説明を渡します。
// 1人のキャラクターに対して画像と説明の両方を渡すことはありません。
func (pg *PanelGenerator) BuildRequest(req PanelRequest) providers.ImageRequest {
	var fragments []string
	var refs []domain.ReferenceImage

	for _, char := range req.Characters {
		if char == nil || !char.AppearsIn(req.Panel.SceneDescription) {
			continue
		}
		if req.ImageModel.IsMultimodal && len(char.Images) > 0 {
			refs = append(refs, char.AnalysisImages()...)
			fragments = append(fragments, prompts.CharacterImageHint(char.Name))
			continue
		}
		if char.HasDescription() {
			fragments = append(fragments, prompts.CharacterDescriptionFragment(char.Name, char.DetailedTextDescription))
		} else {
			fragments = append(fragments, prompts.CharacterNameFragment(char.Name))
		}
	}

	return providers.ImageRequest{
		Model:           req.ImageModel,
		Prompt:          pg.prompts.BuildPanel(req.Config, fragments, req.Panel),
		Seed:            req.Config.Seed,
		AspectRatio:     req.Config.AspectRatio,
		ReferenceImages: refs,
		NumImages:       1,
	}
}

// Generate はパネル1枚の画像を生成し、描画可能な成果物であることを確認して返します。
func (pg *PanelGenerator) Generate(ctx context.Context, req PanelRequest) (providers.ImageArtifact, error) {
	adapter, err := pg.resolver.Adapter(req.ImageModel.Provider)
	if err != nil {
		return providers.ImageArtifact{}, err
	}

	imgReq := pg.BuildRequest(req)
	logger := slog.With("model", req.ImageModel.ID, "provider", req.ImageModel.Provider, "references", len(imgReq.ReferenceImages))
	logger.DebugContext(ctx, "パネル画像を生成しています", "prompt", domain.TruncateString(imgReq.Prompt, 200))

	start := time.Now()
	artifacts, err := adapter.GenerateImage(ctx, imgReq)
	if err != nil {
		return providers.ImageArtifact{}, err
	}
	if len(artifacts) == 0 {
		return providers.ImageArtifact{}, domain.NewImageDecodeError(req.ImageModel.Provider, "generate image", "レスポンスに画像が含まれていません")
	}

	art, err := validateArtifact(req.ImageModel.Provider, artifacts[0])
	if err != nil {
		return providers.ImageArtifact{}, err
	}
	logger.DebugContext(ctx, "パネル画像の生成が完了しました", "duration", time.Since(start).Round(time.Millisecond))
	return art, nil
}

// validateArtifact は URL かバイト列のどちらかが画像として使えるかを確認するのだ。
func validateArtifact(p domain.Provider, art providers.ImageArtifact) (providers.ImageArtifact, error) {
	if strings.TrimSpace(art.URL) != "" {
		return art, nil
	}
	if len(art.Data) == 0 {
		return art, domain.NewImageDecodeError(p, "generate image", "画像の URL もデータもありません")
	}
	sniffed := http.DetectContentType(art.Data)
	if !strings.HasPrefix(sniffed, "image/") {
		return art, domain.NewImageDecodeError(p, "generate image", fmt.Sprintf("画像として解釈できないデータです (%s)", sniffed))
	}
	if art.MIMEType == "" {
		art.MIMEType = sniffed
	}
	return art, nil
}
