package providers

import (
	"context"

	"github.com/shouni/go-comic-kit/pkg/domain"
)

// TextRequest はテキスト生成の入力なのだ。
type TextRequest struct {
	Model             string
	Prompt            string
	SystemInstruction string
	// JSONResponse は「JSONで応答せよ」というヒントを付与するかどうか。
	JSONResponse bool
}

// ImageRequest は画像生成の入力です。
// アダプターは Model.IsMultimodal で処理を分岐し、モデルIDの比較はしません。
type ImageRequest struct {
	Model           domain.ModelOption
	Prompt          string
	Seed            int64
	AspectRatio     string
	ReferenceImages []domain.ReferenceImage
	NumImages       int
}

// ImageArtifact は生成された画像1枚分。URL とインラインのバイト列のどちらか（または両方）を持ちます。
type ImageArtifact struct {
	URL      string
	Data     []byte
	MIMEType string
}

// AnalyzeRequest はキャラクター解析の入力です。
type AnalyzeRequest struct {
	Model         string
	CharacterName string
	Images        []domain.ReferenceImage
}

// Adapter はプロバイダごとの通信の差異を吸収する契約なのだ。
type Adapter interface {
	Provider() domain.Provider
	// CheckCredential はネットワーク呼び出しの前に認証情報の有無を確認します。
	CheckCredential() error
	GenerateText(ctx context.Context, req TextRequest) (string, error)
	GenerateImage(ctx context.Context, req ImageRequest) ([]ImageArtifact, error)
	AnalyzeCharacter(ctx context.Context, req AnalyzeRequest) (string, error)
}

// ModelLister はプロバイダからモデル一覧を取得できるアダプターが実装します。
type ModelLister interface {
	Provider() domain.Provider
	ListModels(ctx context.Context, kind domain.ModelKind) ([]domain.ModelOption, error)
}

// Resolver はプロバイダからアダプターを引く契約です。Registry が実装します。
type Resolver interface {
	Adapter(p domain.Provider) (Adapter, error)
}
