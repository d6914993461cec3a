package publisher

import (
	"fmt"
	"path"
	"path/filepath"
	"strings"

	"github.com/shouni/go-remote-io/pkg/remoteio"
)

// ResolveOutputPath は、ベースとなるディレクトリパスとファイル名から最終的な出力パスを生成します。
// ベースが gs:// や s3:// の場合は URI として連結するのだ。
// ファイル名がベースディレクトリの外を指す場合はエラーなのだ。
func ResolveOutputPath(baseDir, fileName string) (string, error) {
	if strings.TrimSpace(fileName) == "" {
		return "", fmt.Errorf("ファイル名が空です")
	}
	if filepath.IsAbs(fileName) || strings.HasPrefix(fileName, "/") {
		return "", fmt.Errorf("ファイル名に絶対パスは指定できません: %s", fileName)
	}
	clean := path.Clean(filepath.ToSlash(fileName))
	if clean == ".." || strings.HasPrefix(clean, "../") {
		return "", fmt.Errorf("出力先ディレクトリの外は指定できません: %s", fileName)
	}

	if remoteio.IsRemoteURI(baseDir) {
		return strings.TrimSuffix(baseDir, "/") + "/" + clean, nil
	}
	if baseDir == "" {
		baseDir = "."
	}
	return filepath.Join(baseDir, filepath.FromSlash(clean)), nil
}

// extensionFor は MIME タイプに対応する拡張子を返します。不明なら png なのだ。
func extensionFor(mimeType string) string {
	mt, _, _ := strings.Cut(strings.ToLower(mimeType), ";")
	switch strings.TrimSpace(mt) {
	case "image/jpeg", "image/jpg":
		return "jpg"
	case "image/webp":
		return "webp"
	case "image/gif":
		return "gif"
	default:
		return "png"
	}
}
