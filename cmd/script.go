package cmd

import (
	"fmt"
	"log/slog"

	"github.com/shouni/go-comic-kit/internal/pipeline"

	"github.com/spf13/cobra"
)

// scriptCmd は、台本の生成（JSON出力）のみを実行するのだ。
var scriptCmd = &cobra.Command{
	Use:   "script",
	Short: "台本（JSON）のみを生成して保存するのだ。",
	Long: `ストーリーを解析し、各パネルの場面描写と台詞を JSON 形式で出力するのだ。
画像生成は行わないので、台本を手直ししてから image コマンドに渡せるのだよ。`,
	RunE: scriptCommand,
}

func init() {
	addStoryFlags(scriptCmd)
}

func scriptCommand(cmd *cobra.Command, args []string) error {
	if err := requireStory(); err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	slog.Info("台本生成モードを起動するのだ！", "story", opts.StoryFile, "delimited", opts.Delimited)

	if err := pipeline.ExecuteScriptOnly(cmd.Context(), cfg); err != nil {
		return fmt.Errorf("台本生成中にエラーが発生したのだ: %w", err)
	}
	return nil
}
