package cmd

import (
	"log/slog"

	"github.com/shouni/go-comic-kit/internal/config"
	"github.com/shouni/go-comic-kit/internal/pipeline"

	"github.com/spf13/cobra"
)

// imageCmd は、既存の台本JSONファイルを読み込んで画像生成フェーズを実行するためのサブコマンドなのだ。
// 台本生成をスキップして、画像生成と書き出しのみを行うのだ。
var imageCmd = &cobra.Command{
	Use:   "image",
	Short: "台本JSONから画像を生成して保存するのだ。",
	Long: `すでに生成・修正済みの台本JSONファイルを読み込み、漫画パネルの画像生成と保存を実行するのだ。
テキスト生成のコストを抑えつつ、画像の再生成や調整を行いたい場合に便利なのだ。`,
	RunE: imageCommand,
}

func init() {
	imageCmd.Flags().StringVarP(&opts.ScriptFile, "script-file", "s", config.DefaultScriptFile, "読み込む台本JSONのパスなのだ（'-'で標準入力）。")
	imageCmd.Flags().StringVarP(&opts.Title, "title", "t", config.DefaultTitle, "comic.md の見出しなのだ。")
	imageCmd.Flags().BoolVar(&opts.NoCaptions, "no-captions", false, "台詞・キャプションを出力しないのだ。")
	imageCmd.Flags().BoolVar(&opts.OverlayText, "overlay-text", false, "台詞を画像の中に描き込むよう指示するのだ。")
}

// imageCommand は、image サブコマンドの実行ロジック本体なのだ。
func imageCommand(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	slog.Info("画像生成モードを起動するのだ！", "input_json", cfg.Options.ScriptFile)
	return pipeline.ExecuteImageOnly(cmd.Context(), cfg)
}
