package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/shouni/go-comic-kit/internal/config"
	"github.com/shouni/go-comic-kit/pkg/domain"

	"github.com/shouni/go-remote-io/pkg/remoteio"
)

const scriptFileName = "script.json"

// stdin はテストで差し替えるための標準入力なのだ。
var stdin io.Reader = os.Stdin

// readStory はストーリー本文をファイルまたは標準入力（"-"）から読み込みます。
func readStory(ctx context.Context, reader remoteio.InputReader, path string) (string, error) {
	data, err := readSource(ctx, reader, path)
	if err != nil {
		return "", fmt.Errorf("ストーリーの読み込みに失敗したのだ: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}

// readScript は保存済みの台本 JSON を読み込むのだ。
func readScript(ctx context.Context, reader remoteio.InputReader, path string) ([]domain.PanelContent, error) {
	if path == "" {
		path = config.DefaultScriptFile
	}
	data, err := readSource(ctx, reader, path)
	if err != nil {
		return nil, fmt.Errorf("台本ファイルの読み込みに失敗したのだ: %w", err)
	}
	return decodeScript(data)
}

func decodeScript(data []byte) ([]domain.PanelContent, error) {
	var contents []domain.PanelContent
	dec := json.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&contents); err != nil {
		return nil, fmt.Errorf("台本のJSONパースに失敗しました: %w", err)
	}
	if len(contents) == 0 {
		return nil, &domain.ValidationError{Field: "script", Message: "台本にパネルが1つもありません"}
	}
	return contents, nil
}

// readSource は "-" なら標準入力、それ以外は InputReader 経由で読み込みます。
func readSource(ctx context.Context, reader remoteio.InputReader, path string) ([]byte, error) {
	switch path {
	case "":
		return nil, errors.New("入力ファイルが指定されていません")
	case "-":
		return io.ReadAll(stdin)
	}

	rc, err := reader.Open(ctx, path)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

// loadCharacters はキャラクター設定を読み込みます。パスが空ならキャラクター無しで進めるのだ。
// 参照画像の相対パスはローカルの設定ファイルがあるディレクトリから解決されます。
func loadCharacters(ctx context.Context, reader remoteio.InputReader, path string) ([]*domain.CharacterReference, error) {
	if path == "" {
		return nil, nil
	}
	data, err := readSource(ctx, reader, path)
	if err != nil {
		return nil, fmt.Errorf("キャラクターファイルの読み込みに失敗したのだ: %w", err)
	}
	baseDir := ""
	if !remoteio.IsRemoteURI(path) && path != "-" {
		baseDir = filepath.Dir(path)
	}
	return domain.ParseRoster(ctx, data, baseDir)
}

func outputDir(cfg *config.Config) string {
	if cfg.Options.OutputDir != "" {
		return cfg.Options.OutputDir
	}
	if cfg.OutputDir != "" {
		return cfg.OutputDir
	}
	return config.DefaultOutputDir
}
