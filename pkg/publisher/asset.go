package publisher

import (
	"bytes"
	"context"
	"fmt"

	"github.com/shouni/go-remote-io/pkg/remoteio"
)

// 書き出す成果物の Content-Type なのだ。ローカル書き込みでは無視されます。
const (
	contentTypeMarkdown = "text/markdown; charset=utf-8"
	contentTypeJSON     = "application/json"
)

// AssetManager は生成物の保存パスと永続化を管理します。
type AssetManager struct {
	writer  remoteio.OutputWriter
	baseDir string // 保存先のベースディレクトリ (例: "output/comic-001", "gs://bucket/comic-001")
}

// NewAssetManager は AssetManager を生成します。
func NewAssetManager(writer remoteio.OutputWriter, baseDir string) *AssetManager {
	return &AssetManager{
		writer:  writer,
		baseDir: baseDir,
	}
}

// Save はデータを保存し、その保存先のパスを返します。
func (am *AssetManager) Save(ctx context.Context, fileName string, data []byte, contentType string) (string, error) {
	fullPath, err := ResolveOutputPath(am.baseDir, fileName)
	if err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := am.writer.Write(ctx, fullPath, bytes.NewReader(data), contentType); err != nil {
		return "", fmt.Errorf("asset_manager: %s の保存に失敗しました: %w", fileName, err)
	}
	return fullPath, nil
}
