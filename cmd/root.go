package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/shouni/go-comic-kit/internal/config"
	"github.com/shouni/go-comic-kit/internal/telemetry"

	"github.com/lmittmann/tint"
	clibase "github.com/shouni/go-cli-base"
	"github.com/spf13/cobra"
)

const appName = "comic-go"

var (
	opts      config.GenerateOptions
	appConfig *config.Config
	shutdown  telemetry.ShutdownFunc
)

// addAppFlags は、すべてのサブコマンドで共有するフラグを定義するのだ。
// --verbose は clibase 側で定義済みなのだ。
func addAppFlags(rootCmd *cobra.Command) {
	f := rootCmd.PersistentFlags()

	// --- 出力 ---
	f.StringVarP(&opts.OutputDir, "output-dir", "o", "", "成果物（comic.md, images/, script.json）の出力先なのだ。未指定なら COMIC_OUTPUT_DIR か output。")
	f.StringVarP(&opts.CharacterConfig, "char-config", "c", "", "キャラクター設定（名前・説明・参照画像）の JSON パスなのだ。")

	// --- モデル・生成設定 ---
	f.StringVar(&opts.TextModel, "model", "", "台本生成に使うテキストモデルの ID なのだ。")
	f.StringVar(&opts.ImageModel, "image-model", "", "パネル画像に使う画像モデルの ID なのだ。")
	f.StringVar(&opts.AnalysisModel, "analysis-model", "", "キャラクター参照画像の解析に使うモデルの ID なのだ。")
	f.StringVar(&opts.ImageStyle, "style", "", "画像スタイル（例: Anime, Photorealistic）なのだ。")
	f.StringVar(&opts.ComicEra, "era", "", "漫画の時代設定なのだ。")
	f.StringVar(&opts.AspectRatio, "aspect-ratio", "", "パネルのアスペクト比（1:1, 16:9, 9:16, 4:3, 3:4）なのだ。")
	f.Int64Var(&opts.Seed, "seed", 0, "シード値。0 ならランダムに決めるのだ。")

	// --- 実行制御 ---
	f.IntVar(&opts.Concurrency, "concurrency", 0, "同時に生成するパネル数なのだ。未指定なら COMIC_CONCURRENCY か 1。")
	f.DurationVar(&opts.RateInterval, "rate-interval", 0, "画像リクエストの最小間隔なのだ（例: 2s）。")
	f.DurationVar(&opts.HTTPTimeout, "http-timeout", 0, "HTTP リクエストのタイムアウトなのだ。")
}

// preRunAppE は、ログ出力・設定・トレースの初期化を行うのだ。
func preRunAppE(cmd *cobra.Command, args []string) error {
	setupLogger(clibase.Flags.Verbose)

	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("設定の読み込みに失敗したのだ: %w", err)
	}
	appConfig = cfg

	shutdown, err = telemetry.Setup(cmd.Context(), config.ServiceName, cfg.OTelEndpoint)
	if err != nil {
		return fmt.Errorf("トレースの初期化に失敗したのだ: %w", err)
	}
	return nil
}

func setupLogger(verbose bool) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level:      level,
		TimeFormat: time.TimeOnly,
	})))
}

// postRunAppE は、溜まっているスパンを送り切ってから終了するのだ。
func postRunAppE(cmd *cobra.Command, args []string) error {
	if shutdown == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := shutdown(ctx); err != nil {
		slog.Warn("トレースの終了処理に失敗しました", "error", err)
	}
	return nil
}

// loadConfig は preRun で読み込んだ環境設定に CLI フラグを重ねて返すのだ。
func loadConfig() (*config.Config, error) {
	if appConfig == nil {
		return nil, fmt.Errorf("設定が初期化されていないのだ")
	}
	appConfig.Options = opts
	return appConfig, nil
}

// newRootCmd は clibase のルートコマンドにサブコマンドと終了処理を組み付けるのだ。
func newRootCmd() *cobra.Command {
	rootCmd := clibase.NewRootCmd(appName, addAppFlags, preRunAppE)
	rootCmd.Short = "短いストーリーから AI で漫画を作るのだ。"
	rootCmd.Long = `ストーリーを読み込み、テキスト生成モデルで台本を作り、
画像生成モデルで各パネルを描いて Markdown と画像ファイルに書き出すのだ。`
	rootCmd.SilenceUsage = true
	rootCmd.PersistentPostRunE = postRunAppE
	rootCmd.AddCommand(generateCmd, scriptCmd, imageCmd, modelsCmd)
	return rootCmd
}

// Execute は、アプリケーションのメインエントリポイントなのだ。
// Ctrl+C を受け取ると実行中の生成を中断するのだよ。
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		slog.Error("コマンドの実行に失敗したのだ", "error", err)
		stop()
		os.Exit(1)
	}
}
