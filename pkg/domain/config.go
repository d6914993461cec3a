package domain

import (
	"fmt"
	"math"
	"strings"
)

// 生成パラメータの上限・下限なのだ。
const (
	MaxPages         = 200
	MinStoryWords    = 10
	MaxStoryWords    = 10000
	MaxCharRefImages = 5
	// MaxSeed はプロバイダに渡せるシードの上限（32bit 符号付き）なのだ。
	MaxSeed = math.MaxInt32

	DefaultNumPages    = 3
	DefaultAspectRatio = "16:9"
)

// ImageStyles は選択可能な画風の一覧です。
var ImageStyles = []string{
	"Comic Book Art", "Photorealistic", "Anime", "Fantasy Art", "Sci-Fi Concept Art",
	"Impressionistic", "Surreal", "Minimalist", "3D Render", "Pixel Art", "Watercolor", "Sketch",
}

// ComicEras は選択可能なコミックの時代様式の一覧です。
var ComicEras = []string{
	"Modern Age (1980s-Present)",
	"Golden Age (1930s-50s)",
	"Silver Age (1950s-70s)",
	"Bronze Age (1970s-80s)",
	"Futuristic",
}

// AspectRatio はアスペクト比キーと、リクエスト寸法の基準になる幅・高さの組なのだ。
type AspectRatio struct {
	Key    string
	Width  int
	Height int
	Label  string
}

// aspectRatios は閉じた列挙なのだ。ここに無いキーは受け付けないのだよ。
var aspectRatios = map[string]AspectRatio{
	"16:9": {Key: "16:9", Width: 1024, Height: 576, Label: "16:9 (Widescreen)"},
	"1:1":  {Key: "1:1", Width: 1024, Height: 1024, Label: "1:1 (Square)"},
	"3:4":  {Key: "3:4", Width: 768, Height: 1024, Label: "3:4 (Portrait)"},
	"4:3":  {Key: "4:3", Width: 1024, Height: 768, Label: "4:3 (Standard)"},
	"9:16": {Key: "9:16", Width: 576, Height: 1024, Label: "9:16 (Tall Portrait)"},
}

// AspectRatioKeys は表示順に並べたキーの一覧です。
var AspectRatioKeys = []string{"16:9", "1:1", "3:4", "4:3", "9:16"}

// LookupAspectRatio はキーに対応する AspectRatio を返します。未知のキーは 16:9 として扱います。
func LookupAspectRatio(key string) AspectRatio {
	if ar, ok := aspectRatios[key]; ok {
		return ar
	}
	return aspectRatios[DefaultAspectRatio]
}

// IsValidAspectRatio はキーがテーブルに存在するかを返します。
func IsValidAspectRatio(key string) bool {
	_, ok := aspectRatios[key]
	return ok
}

// ComicConfig は1回の生成実行に必要な設定一式なのだ。
// 実行開始後は変更されない（パイプラインが値コピーを保持する）のだ。
type ComicConfig struct {
	Story                  string `json:"storyScript"`
	TextModel              string `json:"textModel"`
	ImageModel             string `json:"imageModel"`
	CharacterAnalysisModel string `json:"characterAnalysisModel"`
	ImageStyle             string `json:"imageStyle"`
	ComicEra               string `json:"comicEra"`
	AspectRatio            string `json:"aspectRatio"`
	NumPages               int    `json:"numPages"`
	IncludeCaptions        bool   `json:"includeCaptions"`
	OverlayText            bool   `json:"overlayText"`
	Seed                   int64  `json:"seed"` // 0 は実行時にランダムなシードを選ぶ指定
}

// DefaultComicConfig は既定値で埋めた ComicConfig を返します。Story は空のままです。
func DefaultComicConfig() ComicConfig {
	return ComicConfig{
		TextModel:              DefaultTextModelID,
		ImageModel:             DefaultImageModelID,
		CharacterAnalysisModel: DefaultAnalysisModelID,
		ImageStyle:             ImageStyles[0],
		ComicEra:               ComicEras[0],
		AspectRatio:            DefaultAspectRatio,
		NumPages:               DefaultNumPages,
		IncludeCaptions:        true,
		OverlayText:            false,
	}
}

// StoryWordCount は空白区切りで数えたストーリーの単語数を返します。
func (c ComicConfig) StoryWordCount() int {
	return len(strings.Fields(c.Story))
}

// Validate はネットワーク呼び出しの前に設定値の範囲を検証するのだ。
func (c ComicConfig) Validate() error {
	words := c.StoryWordCount()
	if words < MinStoryWords {
		return &ValidationError{
			Field:   "story",
			Message: fmt.Sprintf("ストーリーは %d 語以上必要です (現在: %d 語)", MinStoryWords, words),
		}
	}
	if words > MaxStoryWords {
		return &ValidationError{
			Field:   "story",
			Message: fmt.Sprintf("ストーリーは %d 語以内にしてください (現在: %d 語)", MaxStoryWords, words),
		}
	}
	return c.ValidateSettings()
}

// ValidateSettings はストーリー以外の設定値を検証します。保存済みの台本から画像だけを作る場合に使うのだ。
func (c ComicConfig) ValidateSettings() error {
	if c.NumPages < 1 || c.NumPages > MaxPages {
		return &ValidationError{
			Field:   "numPages",
			Message: fmt.Sprintf("ページ数は 1 から %d の範囲で指定してください (指定値: %d)", MaxPages, c.NumPages),
		}
	}
	if !IsValidAspectRatio(c.AspectRatio) {
		return &ValidationError{
			Field:   "aspectRatio",
			Message: fmt.Sprintf("未対応のアスペクト比です: %q", c.AspectRatio),
		}
	}
	if strings.TrimSpace(c.TextModel) == "" {
		return &ValidationError{Field: "textModel", Message: "テキスト生成モデルが指定されていません"}
	}
	if strings.TrimSpace(c.ImageModel) == "" {
		return &ValidationError{Field: "imageModel", Message: "画像生成モデルが指定されていません"}
	}
	if c.Seed < 0 || c.Seed > MaxSeed {
		return &ValidationError{
			Field:   "seed",
			Message: fmt.Sprintf("シード値は 0 から %d の範囲で指定してください (指定値: %d)", MaxSeed, c.Seed),
		}
	}
	return nil
}

// WithResolvedSeed は Seed が 0 の場合に rng で選んだ値を埋めたコピーを返すのだ。
// rng は 1 以上の値を返す必要があるのだよ。
func (c ComicConfig) WithResolvedSeed(rng func() int64) ComicConfig {
	if c.Seed != 0 || rng == nil {
		return c
	}
	c.Seed = rng()
	return c
}
