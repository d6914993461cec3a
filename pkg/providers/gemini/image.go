package gemini

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"log/slog"
	"net/http"
	"strings"

	"github.com/shouni/go-comic-kit/pkg/domain"
	"github.com/shouni/go-comic-kit/pkg/providers"

	"github.com/shouni/gemini-image-kit/imgutil"
	"google.golang.org/genai"
)

// GenerateImage は画像を生成します。
// Model.IsMultimodal なら GenerateContent（参照画像をインラインで渡す）、
// そうでなければ Imagen の GenerateImages を使うのだ。
func (a *Adapter) GenerateImage(ctx context.Context, req providers.ImageRequest) ([]providers.ImageArtifact, error) {
	models, err := a.client(ctx)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, a.cfg.Timeout)
	defer cancel()

	if req.Model.IsMultimodal {
		art, err := a.generateMultimodal(ctx, models, req)
		if err != nil {
			return nil, err
		}
		return []providers.ImageArtifact{art}, nil
	}
	return a.generateImagen(ctx, models, req)
}

func (a *Adapter) generateMultimodal(ctx context.Context, models ModelsAPI, req providers.ImageRequest) (providers.ImageArtifact, error) {
	if req.NumImages > 1 {
		slog.DebugContext(ctx, "マルチモーダルモデルは1回の呼び出しで1枚のみ生成します", "model", req.Model.ID, "requested", req.NumImages)
	}

	seed, err := seedToPtrInt32(req.Seed)
	if err != nil {
		return providers.ImageArtifact{}, err
	}

	parts := []*genai.Part{genai.NewPartFromText(req.Prompt)}
	parts = append(parts, imageParts(req.ReferenceImages)...)

	cfg := &genai.GenerateContentConfig{
		ResponseModalities: []string{"IMAGE", "TEXT"},
		Seed:               seed,
	}

	slog.DebugContext(ctx, "Gemini 画像生成リクエスト", "model", req.Model.ID, "ref_count", len(parts)-1, "seed", req.Seed)

	resp, err := models.GenerateContent(ctx, req.Model.ID, []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}, cfg)
	if err != nil {
		return providers.ImageArtifact{}, mapError("generate image", req.Model.ID, err)
	}

	if resp != nil && len(resp.Candidates) > 0 && resp.Candidates[0].Content != nil {
		for _, part := range resp.Candidates[0].Content.Parts {
			if part == nil || part.InlineData == nil || len(part.InlineData.Data) == 0 {
				continue
			}
			mimeType := part.InlineData.MIMEType
			if mimeType == "" {
				mimeType = http.DetectContentType(part.InlineData.Data)
			}
			if strings.HasPrefix(mimeType, "image/") {
				return providers.ImageArtifact{Data: part.InlineData.Data, MIMEType: mimeType}, nil
			}
		}
	}

	msg := "応答に画像データが含まれていません"
	if text := strings.TrimSpace(responseText(resp)); text != "" {
		msg += fmt.Sprintf(" (text: %q)", domain.TruncateString(text, 120))
	}
	return providers.ImageArtifact{}, domain.NewImageDecodeError(domain.ProviderGemini, "generate image", msg+finishReasonSuffix(resp))
}

func (a *Adapter) generateImagen(ctx context.Context, models ModelsAPI, req providers.ImageRequest) ([]providers.ImageArtifact, error) {
	if len(req.ReferenceImages) > 0 {
		slog.WarnContext(ctx, "Imagen モデルは参照画像を受け付けないため無視します", "model", req.Model.ID, "count", len(req.ReferenceImages))
	}
	if req.Seed != 0 {
		slog.WarnContext(ctx, "Imagen モデルではシードを指定できないため無視します", "model", req.Model.ID, "seed", req.Seed)
	}

	n := req.NumImages
	if n <= 0 {
		n = 1
	}
	aspect := req.AspectRatio
	if !domain.IsValidAspectRatio(aspect) {
		aspect = domain.DefaultAspectRatio
	}

	resp, err := models.GenerateImages(ctx, req.Model.ID, req.Prompt, &genai.GenerateImagesConfig{
		NumberOfImages: int32(n),
		AspectRatio:    aspect,
		OutputMIMEType: defaultImageMIMEType,
	})
	if err != nil {
		return nil, mapError("generate image", req.Model.ID, err)
	}
	if resp == nil || len(resp.GeneratedImages) == 0 {
		return nil, domain.NewImageDecodeError(domain.ProviderGemini, "generate image", "画像が生成されませんでした")
	}

	out := make([]providers.ImageArtifact, 0, len(resp.GeneratedImages))
	for _, gi := range resp.GeneratedImages {
		if gi == nil {
			continue
		}
		if gi.RAIFilteredReason != "" {
			return nil, domain.NewImageDecodeError(domain.ProviderGemini, "generate image",
				fmt.Sprintf("安全フィルタによりブロックされました: %s", gi.RAIFilteredReason))
		}
		if gi.Image == nil || len(gi.Image.ImageBytes) == 0 {
			continue
		}
		mimeType := gi.Image.MIMEType
		if mimeType == "" {
			mimeType = defaultImageMIMEType
		}
		out = append(out, providers.ImageArtifact{Data: gi.Image.ImageBytes, MIMEType: mimeType})
	}
	if len(out) == 0 {
		return nil, domain.NewImageDecodeError(domain.ProviderGemini, "generate image", "画像データが空でした")
	}
	return out, nil
}

// imageParts は参照画像をインラインパーツに変換します。大きな画像は JPEG に圧縮するのだ。
func imageParts(images []domain.ReferenceImage) []*genai.Part {
	parts := make([]*genai.Part, 0, len(images))
	for _, img := range images {
		if p := prepareImagePart(img); p != nil {
			parts = append(parts, p)
		}
	}
	return parts
}

func prepareImagePart(img domain.ReferenceImage) *genai.Part {
	if len(img.Data) == 0 {
		return nil
	}
	data, mimeType := img.Data, img.MIMEType
	if mimeType == "" {
		mimeType = http.DetectContentType(data)
	}
	if !strings.HasPrefix(mimeType, "image/") {
		return nil
	}
	if len(data) > compressThreshold {
		if compressed, err := imgutil.CompressToJPEG(bytes.NewReader(data), imageCompressionQuality); err == nil {
			data, mimeType = compressed, "image/jpeg"
		}
	}
	return &genai.Part{InlineData: &genai.Blob{MIMEType: mimeType, Data: data}}
}

// seedToPtrInt32 は int64 のシードを SDK 用の *int32 に変換するのだ。0 は未指定扱い。
// 32bit に収まらない値は丸めずにエラーにします。
func seedToPtrInt32(s int64) (*int32, error) {
	if s == 0 {
		return nil, nil
	}
	if s < math.MinInt32 || s > math.MaxInt32 {
		return nil, &domain.ValidationError{
			Field:   "seed",
			Message: fmt.Sprintf("シード値 %d は 32bit の範囲を超えています", s),
		}
	}
	v := int32(s)
	return &v, nil
}
