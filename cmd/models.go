package cmd

import (
	"github.com/shouni/go-comic-kit/internal/pipeline"

	"github.com/spf13/cobra"
)

// modelsCmd は、選択可能なモデルの一覧を表示するのだ。
var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "利用できるテキスト・画像・解析モデルを一覧表示するのだ。",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		return pipeline.ExecuteListModels(cmd.Context(), cfg, cmd.OutOrStdout())
	},
}
