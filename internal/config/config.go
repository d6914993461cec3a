package config

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/shouni/go-comic-kit/pkg/domain"

	"github.com/caarlos0/env/v11"
	"github.com/shouni/go-utils/envutil"
)

// デフォルト値の定義なのだ
const (
	ServiceName         = "go-comic-kit"
	DefaultHTTPTimeout  = 60 * time.Second
	DefaultRateInterval = time.Duration(0)
	DefaultConcurrency  = 1
	DefaultOutputDir    = "output"
	DefaultScriptFile   = "output/script.json"
	DefaultTitle        = "My AI Comic"
)

// Credentials は API キーなど、構造体タグで環境変数から読み込む秘密情報です。
type Credentials struct {
	GeminiAPIKey             string `env:"GEMINI_API_KEY"`
	PollinationsVerifyImages bool   `env:"POLLINATIONS_VERIFY_IMAGES" envDefault:"true"`
}

// LoadCredentials は環境変数から認証情報を読み込みます。
// キーが無いこと自体はエラーにせず、実行前の認証チェックで検出するのだ。
func LoadCredentials() (Credentials, error) {
	var c Credentials
	if err := env.Parse(&c); err != nil {
		return Credentials{}, fmt.Errorf("parse env: %w", err)
	}
	return c, nil
}

// Config はアプリケーション全体の環境設定を保持する構造体なのだ。
type Config struct {
	TextModel         string
	ImageModel        string
	AnalysisModel     string
	ImageStyle        string
	ComicEra          string
	AspectRatio       string
	ImagePromptSuffix string
	HTTPTimeout       time.Duration
	RateInterval      time.Duration
	Concurrency       int
	OutputDir         string
	OTelEndpoint      string

	Credentials Credentials
	Options     GenerateOptions
}

// LoadConfig は環境変数から設定を読み込み、構造体を返すのだ！
func LoadConfig() (*Config, error) {
	creds, err := LoadCredentials()
	if err != nil {
		return nil, err
	}

	def := domain.DefaultComicConfig()
	cfg := &Config{
		TextModel:         envutil.GetEnv("COMIC_TEXT_MODEL", def.TextModel),
		ImageModel:        envutil.GetEnv("COMIC_IMAGE_MODEL", def.ImageModel),
		AnalysisModel:     envutil.GetEnv("COMIC_ANALYSIS_MODEL", def.CharacterAnalysisModel),
		ImageStyle:        envutil.GetEnv("COMIC_IMAGE_STYLE", def.ImageStyle),
		ComicEra:          envutil.GetEnv("COMIC_ERA", def.ComicEra),
		AspectRatio:       envutil.GetEnv("COMIC_ASPECT_RATIO", def.AspectRatio),
		ImagePromptSuffix: envutil.GetEnv("COMIC_IMAGE_PROMPT_SUFFIX", ""),
		HTTPTimeout:       durationEnv("COMIC_HTTP_TIMEOUT", DefaultHTTPTimeout),
		RateInterval:      durationEnv("COMIC_RATE_INTERVAL", DefaultRateInterval),
		Concurrency:       intEnv("COMIC_CONCURRENCY", DefaultConcurrency),
		OutputDir:         envutil.GetEnv("COMIC_OUTPUT_DIR", DefaultOutputDir),
		OTelEndpoint:      envutil.GetEnv("COMIC_OTEL_ENDPOINT", ""),
		Credentials:       creds,
	}
	return cfg, nil
}

// ComicConfig は環境設定と CLI フラグを合成した生成設定を返します。フラグが優先なのだ。
func (c *Config) ComicConfig(story string) domain.ComicConfig {
	o := c.Options
	cc := domain.DefaultComicConfig()
	cc.Story = story
	cc.TextModel = firstNonEmpty(o.TextModel, c.TextModel, cc.TextModel)
	cc.ImageModel = firstNonEmpty(o.ImageModel, c.ImageModel, cc.ImageModel)
	cc.CharacterAnalysisModel = firstNonEmpty(o.AnalysisModel, c.AnalysisModel, cc.CharacterAnalysisModel)
	cc.ImageStyle = firstNonEmpty(o.ImageStyle, c.ImageStyle, cc.ImageStyle)
	cc.ComicEra = firstNonEmpty(o.ComicEra, c.ComicEra, cc.ComicEra)
	cc.AspectRatio = firstNonEmpty(o.AspectRatio, c.AspectRatio, cc.AspectRatio)
	if o.NumPages > 0 {
		cc.NumPages = o.NumPages
	}
	cc.IncludeCaptions = !o.NoCaptions
	cc.OverlayText = o.OverlayText
	cc.Seed = o.Seed
	return cc
}

// GenerateOptions は CLI フラグから渡される実行時のパラメータなのだ。
type GenerateOptions struct {
	// ソース入力関連
	StoryFile       string // --story-file ('-' で標準入力)
	ScriptFile      string // --script-file
	CharacterConfig string // --char-config

	// 出力
	OutputDir string // --output-dir
	Title     string // --title

	// 生成設定
	TextModel     string
	ImageModel    string
	AnalysisModel string
	ImageStyle    string
	ComicEra      string
	AspectRatio   string
	NumPages      int
	NoCaptions    bool
	OverlayText   bool
	Seed          int64

	// 実行制御
	Concurrency  int
	RateInterval time.Duration
	HTTPTimeout  time.Duration
	Delimited    bool // 台本を ---PAGE N--- 形式で要求する
}

func durationEnv(key string, def time.Duration) time.Duration {
	raw := envutil.GetEnv(key, "")
	if raw == "" {
		return def
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		slog.Warn("環境変数の期間指定が不正なため既定値を使います", "key", key, "value", raw, "default", def)
		return def
	}
	return d
}

func intEnv(key string, def int) int {
	raw := envutil.GetEnv(key, "")
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		slog.Warn("環境変数の数値指定が不正なため既定値を使います", "key", key, "value", raw, "default", def)
		return def
	}
	return n
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
