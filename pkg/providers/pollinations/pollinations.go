package pollinations

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/shouni/go-comic-kit/pkg/domain"
	"github.com/shouni/go-comic-kit/pkg/providers"

	"github.com/shouni/go-http-kit/httpkit"
)

const (
	DefaultTextBaseURL  = "https://text.pollinations.ai"
	DefaultImageBaseURL = "https://image.pollinations.ai"
	// DefaultResolution は画像リクエストの長辺ピクセル数なのだ。
	DefaultResolution = 2048
	DefaultTimeout    = 30 * time.Second

	jsonOnlyHint = "Return ONLY the JSON array."
)

var fenceRegex = regexp.MustCompile("(?s)^```(\\w*)?\\s*\\n?(.*?)\\n?\\s*```$")

// Fetcher は GET でバイト列を取得する最小限の契約です。httpkit のクライアントが満たします。
type Fetcher interface {
	FetchBytes(ctx context.Context, url string) ([]byte, error)
}

// Config は Pollinations アダプターの設定なのだ。
type Config struct {
	TextBaseURL  string
	ImageBaseURL string
	Resolution   int
	Timeout      time.Duration
	// VerifyImages が true の場合、生成URLを実際に取得して画像であることを確かめます。
	VerifyImages bool
}

// DefaultConfig は既定値で埋めた Config を返します。
func DefaultConfig() Config {
	return Config{
		TextBaseURL:  DefaultTextBaseURL,
		ImageBaseURL: DefaultImageBaseURL,
		Resolution:   DefaultResolution,
		Timeout:      DefaultTimeout,
		VerifyImages: true,
	}
}

// Adapter はクエリ文字列 GET で動く Pollinations API のアダプターです。認証は不要です。
type Adapter struct {
	cfg     Config
	fetcher Fetcher
}

// New は Adapter を初期化します。fetcher が nil の場合は httpkit のクライアントを生成します。
func New(cfg Config, fetcher Fetcher) *Adapter {
	def := DefaultConfig()
	if strings.TrimSpace(cfg.TextBaseURL) == "" {
		cfg.TextBaseURL = def.TextBaseURL
	}
	if strings.TrimSpace(cfg.ImageBaseURL) == "" {
		cfg.ImageBaseURL = def.ImageBaseURL
	}
	if cfg.Resolution <= 0 {
		cfg.Resolution = def.Resolution
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	cfg.TextBaseURL = strings.TrimRight(cfg.TextBaseURL, "/")
	cfg.ImageBaseURL = strings.TrimRight(cfg.ImageBaseURL, "/")
	if fetcher == nil {
		fetcher = httpkit.New(cfg.Timeout)
	}
	return &Adapter{cfg: cfg, fetcher: fetcher}
}

// Provider はプロバイダ種別を返します。
func (a *Adapter) Provider() domain.Provider {
	return domain.ProviderPollinations
}

// CheckCredential は常に nil を返します。Pollinations は API キーを必要としないのだ。
func (a *Adapter) CheckCredential() error {
	return nil
}

// GenerateText はプロンプトを URL に埋め込んでテキストを生成します。
// システム指示はプロンプトの先頭に畳み込み、コードフェンスで囲まれていれば剥がします。
func (a *Adapter) GenerateText(ctx context.Context, req providers.TextRequest) (string, error) {
	prompt := req.Prompt
	if req.SystemInstruction != "" {
		prompt = req.SystemInstruction + "\n\n" + prompt
	}
	if req.JSONResponse {
		prompt += "\n\n" + jsonOnlyHint
	}

	u := fmt.Sprintf("%s/%s?model=%s", a.cfg.TextBaseURL, url.PathEscape(prompt), url.QueryEscape(req.Model))
	body, err := a.fetch(ctx, u)
	if err != nil {
		return "", a.wrapError("generate text", err)
	}

	text := strings.TrimSpace(string(body))
	if m := fenceRegex.FindStringSubmatch(text); len(m) > 2 && m[2] != "" {
		text = strings.TrimSpace(m[2])
	}
	return text, nil
}

// GenerateImage は画像URLを組み立て、必要に応じて実際に取得して検証します。
func (a *Adapter) GenerateImage(ctx context.Context, req providers.ImageRequest) ([]providers.ImageArtifact, error) {
	if len(req.ReferenceImages) > 0 {
		slog.WarnContext(ctx, "Pollinations does not accept inline reference images; ignoring them",
			"model", req.Model.ID, "count", len(req.ReferenceImages))
	}
	n := req.NumImages
	if n <= 0 {
		n = 1
	}

	out := make([]providers.ImageArtifact, 0, n)
	for i := 0; i < n; i++ {
		imageURL := a.BuildImageURL(req.Model.ID, req.Prompt, req.Seed+int64(i), req.AspectRatio)
		if !a.cfg.VerifyImages {
			out = append(out, providers.ImageArtifact{URL: imageURL})
			continue
		}

		data, err := a.fetch(ctx, imageURL)
		if err != nil {
			return nil, a.wrapError("generate image", err)
		}
		mimeType := http.DetectContentType(data)
		if !strings.HasPrefix(mimeType, "image/") {
			return nil, domain.NewImageDecodeError(domain.ProviderPollinations, "generate image",
				fmt.Sprintf("応答が画像ではありません (detected: %s)", mimeType))
		}
		out = append(out, providers.ImageArtifact{URL: imageURL, Data: data, MIMEType: mimeType})
	}
	return out, nil
}

// BuildImageURL は画像生成用の URL を組み立てるのだ。
func (a *Adapter) BuildImageURL(model, prompt string, seed int64, aspectRatio string) string {
	w, h := providers.ScaleToLongestSide(domain.LookupAspectRatio(aspectRatio), a.cfg.Resolution)
	q := url.Values{}
	q.Set("model", model)
	q.Set("seed", strconv.FormatInt(seed, 10))
	q.Set("width", strconv.Itoa(w))
	q.Set("height", strconv.Itoa(h))
	q.Set("nologo", "true")
	return fmt.Sprintf("%s/prompt/%s?%s", a.cfg.ImageBaseURL, url.PathEscape(prompt), q.Encode())
}

// AnalyzeCharacter は未対応です。GET ではインライン画像を渡せないのだ。
func (a *Adapter) AnalyzeCharacter(ctx context.Context, req providers.AnalyzeRequest) (string, error) {
	return "", domain.NewAPIError(domain.ProviderPollinations, "analyze character", 0,
		"キャラクター解析には画像入力に対応したモデルが必要です", nil)
}

func (a *Adapter) fetch(ctx context.Context, u string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, a.cfg.Timeout)
	defer cancel()
	return a.fetcher.FetchBytes(ctx, u)
}

// wrapError はタイムアウトやキャンセルを通信エラー、それ以外を API エラーとして分類します。
func (a *Adapter) wrapError(op string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return domain.NewTransportError(domain.ProviderPollinations, op, err)
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return domain.NewTransportError(domain.ProviderPollinations, op, err)
	}
	return domain.NewAPIError(domain.ProviderPollinations, op, 0, err.Error(), err)
}
