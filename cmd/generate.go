package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/shouni/go-comic-kit/internal/config"
	"github.com/shouni/go-comic-kit/internal/pipeline"
	"github.com/shouni/go-comic-kit/pkg/domain"

	"github.com/spf13/cobra"
)

// generateCmd は、台本の生成からパネル画像の生成・書き出しまでを一括で実行するのだ。
var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "ストーリーから漫画（台本と画像）を生成するのだ。",
	Long: `ストーリーを読み込み、台本を作り、各パネルの画像を生成するのだ。
出力は comic.md、images/ 以下の画像、画像だけを作り直すための script.json になるのだよ。`,
	RunE: generateCommand,
}

func init() {
	addStoryFlags(generateCmd)
	generateCmd.Flags().StringVarP(&opts.Title, "title", "t", config.DefaultTitle, "comic.md の見出しなのだ。")
	generateCmd.Flags().BoolVar(&opts.OverlayText, "overlay-text", false, "台詞を画像の中に描き込むよう指示するのだ。")
}

// addStoryFlags は、ストーリーから台本を作るコマンドに共通のフラグを登録するのだ。
func addStoryFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&opts.StoryFile, "story-file", "f", "", "ストーリーのファイルパス（'-'で標準入力なのだ）。")
	cmd.Flags().IntVarP(&opts.NumPages, "pages", "p", 0, fmt.Sprintf("パネル数なのだ。未指定なら %d。", domain.DefaultNumPages))
	cmd.Flags().BoolVar(&opts.NoCaptions, "no-captions", false, "台詞・キャプションを出力しないのだ。")
	cmd.Flags().BoolVar(&opts.Delimited, "delimited", false, "台本を ---PAGE N--- 区切りのテキストで要求するのだ。")
}

func generateCommand(cmd *cobra.Command, args []string) error {
	if err := requireStory(); err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	slog.Info("漫画生成パイプラインを起動するのだ！",
		"story", opts.StoryFile,
		"output", cfg.OutputDir,
		"concurrency", cfg.Concurrency)

	if err := pipeline.Execute(cmd.Context(), cfg); err != nil {
		return fmt.Errorf("パイプライン実行中にエラーが発生したのだ: %w", err)
	}
	return nil
}

// requireStory は入力ソースの指定を確認するのだ。パイプで渡された場合は標準入力を使うのだよ。
func requireStory() error {
	if opts.StoryFile != "" {
		return nil
	}
	if isStdin() {
		opts.StoryFile = "-"
		return nil
	}
	return fmt.Errorf("ストーリー（--story-file）を指定してほしいのだ")
}

func isStdin() bool {
	stat, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return (stat.Mode() & os.ModeCharDevice) == 0
}
