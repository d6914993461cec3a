package domain

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"
)

// rosterEntry はキャラクター定義 JSON の1要素なのだ。
type rosterEntry struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Images      []string `json:"images"`
	Description string   `json:"description"`
}

// ParseRoster は JSON バイト列からキャラクター一覧を構築します。
func ParseRoster(ctx context.Context, data []byte, baseDir string) ([]*CharacterReference, error) {
	var entries []rosterEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("キャラクター情報のJSONパースに失敗しました: %w", err)
	}

	chars := make([]*CharacterReference, len(entries))
	seen := make(map[string]struct{}, len(entries))
	for i, e := range entries {
		name := strings.TrimSpace(e.Name)
		if name == "" {
			return nil, fmt.Errorf("キャラクター #%d の name が空なのだ", i+1)
		}
		id := e.ID
		if id == "" {
			id = strings.ToLower(name)
		}
		if _, dup := seen[id]; dup {
			return nil, fmt.Errorf("キャラクターID %q が重複しているのだ", id)
		}
		seen[id] = struct{}{}
		chars[i] = &CharacterReference{
			ID:                      id,
			Name:                    name,
			Images:                  make([]ReferenceImage, len(e.Images)),
			DetailedTextDescription: strings.TrimSpace(e.Description),
		}
	}

	// 画像ファイルの読み込みは並列で行い、各ゴルーチンは自分のスロットにだけ書き込むのだ
	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(4)
	for i, e := range entries {
		for j, p := range e.Images {
			char := chars[i]
			eg.Go(func() error {
				if err := egCtx.Err(); err != nil {
					return err
				}
				full := p
				if !filepath.IsAbs(full) && baseDir != "" {
					full = filepath.Join(baseDir, p)
				}
				img, err := ReadReferenceImage(full, fmt.Sprintf("%s-%d", char.ID, j+1))
				if err != nil {
					return fmt.Errorf("キャラクター %s の参照画像読み込みに失敗しました: %w", char.Name, err)
				}
				char.Images[j] = img
				return nil
			})
		}
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return chars, nil
}

// ReadReferenceImage は画像ファイルを読み込み、MIMEタイプを判定して ReferenceImage を返します。
func ReadReferenceImage(path, id string) (ReferenceImage, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return ReferenceImage{}, err
	}
	mimeType := http.DetectContentType(data)
	if !strings.HasPrefix(mimeType, "image/") {
		return ReferenceImage{}, fmt.Errorf("%s は画像ファイルではありません (detected: %s)", path, mimeType)
	}
	return ReferenceImage{
		ID:       id,
		Data:     data,
		MIMEType: mimeType,
		FileName: filepath.Base(path),
	}, nil
}
