package publisher

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"strings"

	"github.com/shouni/go-comic-kit/pkg/domain"

	"github.com/shouni/go-remote-io/pkg/remoteio"
)

// Options はパブリッシュ動作を制御する設定項目です。
type Options struct {
	OutputDir string
	// SkipScript が true なら台本 JSON を書き出さないのだ。
	SkipScript bool
}

// PublishResult はパブリッシュ処理の結果として生成されたファイルの情報を保持します。
type PublishResult struct {
	MarkdownPath string   // 生成された comic.md のパス
	ScriptPath   string   // 画像だけを作り直すための台本 JSON のパス
	ImagePaths   []string // 保存された全画像のパスリスト
	FailedPanels int
}

const (
	defaultMarkdownName = "comic.md"
	defaultScriptName   = "script.json"
	defaultImageDirName = "images"
)

// MarkdownPublisher は生成されたパネルを画像ファイルと Markdown 文書として書き出します。
type MarkdownPublisher struct {
	writer remoteio.OutputWriter
}

// NewMarkdownPublisher は MarkdownPublisher を生成します。
func NewMarkdownPublisher(writer remoteio.OutputWriter) (*MarkdownPublisher, error) {
	if writer == nil {
		return nil, errors.New("writer (remoteio.OutputWriter) is required")
	}
	return &MarkdownPublisher{writer: writer}, nil
}

// Publish は画像の保存、Markdown の構築、台本の保存を一括して実行するのだ。
// 画像の無いパネルは失敗の印付きで文書に残します。
func (p *MarkdownPublisher) Publish(ctx context.Context, title string, cfg domain.ComicConfig, panels domain.Panels, opts Options) (PublishResult, error) {
	result := PublishResult{FailedPanels: panels.Failed()}
	assets := NewAssetManager(p.writer, opts.OutputDir)

	// 1. 画像の保存
	refs := make([]string, len(panels))
	for i, panel := range panels {
		switch {
		case len(panel.ImageData) > 0:
			name := fmt.Sprintf("panel_%d.%s", i+1, extensionFor(panel.MIMEType))
			saved, err := assets.Save(ctx, path.Join(defaultImageDirName, name), panel.ImageData, panel.MIMEType)
			if err != nil {
				return result, fmt.Errorf("画像の書き込みに失敗しました: %w", err)
			}
			result.ImagePaths = append(result.ImagePaths, saved)
			refs[i] = path.Join(defaultImageDirName, name)
		case panel.ImageURL != "":
			refs[i] = panel.ImageURL
		}
	}

	// 2. Markdown の書き出し
	md, err := assets.Save(ctx, defaultMarkdownName, []byte(buildMarkdown(title, cfg, panels, refs)), contentTypeMarkdown)
	if err != nil {
		return result, fmt.Errorf("markdownファイルの書き込みに失敗しました: %w", err)
	}
	result.MarkdownPath = md

	// 3. 台本の書き出し
	if !opts.SkipScript {
		data, err := json.MarshalIndent(panels.Contents(), "", "  ")
		if err != nil {
			return result, fmt.Errorf("台本のエンコードに失敗しました: %w", err)
		}
		sp, err := assets.Save(ctx, defaultScriptName, data, contentTypeJSON)
		if err != nil {
			return result, fmt.Errorf("台本ファイルの書き込みに失敗しました: %w", err)
		}
		result.ScriptPath = sp
	}

	slog.InfoContext(ctx, "成果物を書き出しました",
		"markdown", result.MarkdownPath, "images", len(result.ImagePaths), "failed_panels", result.FailedPanels)
	return result, nil
}

// buildMarkdown は Markdown 本文を組み立てます。refs[i] はパネル i の画像の参照先（空なら画像なし）なのだ。
func buildMarkdown(title string, cfg domain.ComicConfig, panels domain.Panels, refs []string) string {
	var sb strings.Builder
	if strings.TrimSpace(title) == "" {
		title = "Untitled Comic"
	}
	fmt.Fprintf(&sb, "# %s\n\n", title)
	fmt.Fprintf(&sb, "_%s / %s / %s / seed %d_\n\n", cfg.ImageStyle, cfg.ComicEra, cfg.AspectRatio, cfg.Seed)

	for i, panel := range panels {
		fmt.Fprintf(&sb, "## Panel %d\n\n", i+1)

		switch {
		case refs[i] != "":
			fmt.Fprintf(&sb, "![Panel %d](%s)\n\n", i+1, refs[i])
		case panel.ImageError != "":
			fmt.Fprintf(&sb, "> **Image generation failed:** %s\n\n", oneLine(panel.ImageError))
		default:
			sb.WriteString("> **No image**\n\n")
		}

		caption := strings.TrimSpace(panel.DialogueOrCaption)
		if cfg.IncludeCaptions && caption != "" {
			fmt.Fprintf(&sb, "%s\n\n", oneLine(caption))
		}
	}
	return sb.String()
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
