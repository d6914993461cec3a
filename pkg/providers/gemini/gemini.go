package gemini

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/shouni/go-comic-kit/pkg/domain"
	"github.com/shouni/go-comic-kit/pkg/providers"

	"google.golang.org/genai"
)

const (
	DefaultTimeout = 120 * time.Second
	// 参照画像がこのサイズを超える場合は JPEG に圧縮してから送るのだ
	compressThreshold       = 512 * 1024
	imageCompressionQuality = 85
	defaultImageMIMEType    = "image/png"
)

// ModelsAPI は genai.Client.Models のうち、このアダプターが使うメソッドだけを切り出した契約です。
type ModelsAPI interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
	GenerateImages(ctx context.Context, model string, prompt string, config *genai.GenerateImagesConfig) (*genai.GenerateImagesResponse, error)
}

// ClientFactory は API キーから ModelsAPI を生成する関数です。テストで差し替えられます。
type ClientFactory func(ctx context.Context, apiKey string) (ModelsAPI, error)

// Config は Gemini アダプターの設定なのだ。
type Config struct {
	APIKey      string
	Timeout     time.Duration
	Temperature *float32
}

// Adapter は Gemini API のアダプターです。
// genai クライアントは最初の呼び出し時に生成されるため、キー未設定でも構築はできます。
type Adapter struct {
	cfg     Config
	factory ClientFactory

	mu     sync.Mutex
	models ModelsAPI
}

// Option は Adapter の生成オプションです。
type Option func(*Adapter)

// WithClientFactory は genai クライアントの生成方法を差し替えます。
func WithClientFactory(f ClientFactory) Option {
	return func(a *Adapter) {
		if f != nil {
			a.factory = f
		}
	}
}

// New は Adapter を初期化します。
func New(cfg Config, opts ...Option) *Adapter {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	cfg.APIKey = strings.TrimSpace(cfg.APIKey)
	a := &Adapter{cfg: cfg, factory: newGenAIClient}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// newGenAIClient は Gemini API バックエンドの genai クライアントを生成するのだ。
func newGenAIClient(ctx context.Context, apiKey string) (ModelsAPI, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("genai クライアントの初期化に失敗しました: %w", err)
	}
	return client.Models, nil
}

// Provider はプロバイダ種別を返します。
func (a *Adapter) Provider() domain.Provider {
	return domain.ProviderGemini
}

// CheckCredential は API キーが設定されているかをネットワーク呼び出し前に確認します。
func (a *Adapter) CheckCredential() error {
	if a.cfg.APIKey == "" {
		return &domain.CredentialMissingError{Provider: domain.ProviderGemini}
	}
	return nil
}

// client は認証情報を確認した上で ModelsAPI を遅延生成して返すのだ。
func (a *Adapter) client(ctx context.Context) (ModelsAPI, error) {
	if err := a.CheckCredential(); err != nil {
		return nil, err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.models != nil {
		return a.models, nil
	}
	m, err := a.factory(ctx, a.cfg.APIKey)
	if err != nil {
		return nil, domain.NewTransportError(domain.ProviderGemini, "init client", err)
	}
	a.models = m
	return m, nil
}

// GenerateText はテキストを生成します。JSON 応答のヒントは ResponseMIMEType で伝えるのだ。
func (a *Adapter) GenerateText(ctx context.Context, req providers.TextRequest) (string, error) {
	models, err := a.client(ctx)
	if err != nil {
		return "", err
	}

	cfg := &genai.GenerateContentConfig{Temperature: a.cfg.Temperature}
	if req.SystemInstruction != "" {
		cfg.SystemInstruction = genai.NewContentFromText(req.SystemInstruction, genai.RoleUser)
	}
	if req.JSONResponse {
		cfg.ResponseMIMEType = "application/json"
	}

	ctx, cancel := context.WithTimeout(ctx, a.cfg.Timeout)
	defer cancel()

	resp, err := models.GenerateContent(ctx, req.Model, genai.Text(req.Prompt), cfg)
	if err != nil {
		return "", mapError("generate text", req.Model, err)
	}
	text := responseText(resp)
	if strings.TrimSpace(text) == "" {
		return "", domain.NewAPIError(domain.ProviderGemini, "generate text", 0,
			fmt.Sprintf("モデル %s が空の応答を返しました%s", req.Model, finishReasonSuffix(resp)), nil)
	}
	return text, nil
}

// AnalyzeCharacter は参照画像からキャラクターの外見説明を生成します。
func (a *Adapter) AnalyzeCharacter(ctx context.Context, req providers.AnalyzeRequest) (string, error) {
	models, err := a.client(ctx)
	if err != nil {
		return "", err
	}
	if len(req.Images) == 0 {
		return "", domain.NewAPIError(domain.ProviderGemini, "analyze character", 0, "参照画像がありません", nil)
	}

	parts := []*genai.Part{genai.NewPartFromText(analyzeUserPrompt(req.CharacterName))}
	parts = append(parts, imageParts(req.Images)...)

	cfg := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(analyzeSystemInstruction(req.CharacterName), genai.RoleUser),
	}

	ctx, cancel := context.WithTimeout(ctx, a.cfg.Timeout)
	defer cancel()

	resp, err := models.GenerateContent(ctx, req.Model, []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}, cfg)
	if err != nil {
		return "", mapError("analyze character", req.Model, err)
	}
	desc := strings.TrimSpace(responseText(resp))
	if desc == "" {
		return "", domain.NewAPIError(domain.ProviderGemini, "analyze character", 0,
			fmt.Sprintf("キャラクター %q の解析結果が空でした%s", req.CharacterName, finishReasonSuffix(resp)), nil)
	}
	return desc, nil
}

// responseText は最初の候補のテキストパーツを連結して返すのだ。
func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if part != nil && part.Text != "" && !part.Thought {
			sb.WriteString(part.Text)
		}
	}
	return sb.String()
}

func finishReasonSuffix(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 {
		return ""
	}
	fr := resp.Candidates[0].FinishReason
	if fr == genai.FinishReasonUnspecified || fr == genai.FinishReasonStop {
		return ""
	}
	return fmt.Sprintf(" (FinishReason: %s)", fr)
}
