package domain

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

func TestCharacterReference_AppearsIn(t *testing.T) {
	c := &CharacterReference{ID: "zundamon", Name: "Zundamon"}

	t.Run("大文字小文字を区別せずに名前を検出するのだ", func(t *testing.T) {
		if !c.AppearsIn("A close-up of ZUNDAMON eating mochi") {
			t.Error("名前が検出されなかったのだ")
		}
	})

	t.Run("名前が含まれない場合はfalseなのだ", func(t *testing.T) {
		if c.AppearsIn("An empty forest at dawn") {
			t.Error("含まれない名前が検出されたのだ")
		}
	})

	t.Run("名前が空のキャラクターは一致しないのだ", func(t *testing.T) {
		blank := &CharacterReference{ID: "x", Name: "  "}
		if blank.AppearsIn("anything at all") {
			t.Error("空の名前が一致してしまったのだ")
		}
	})
}

func TestCharacterReference_AnalysisImages(t *testing.T) {
	imgs := make([]ReferenceImage, 7)
	for i := range imgs {
		imgs[i] = ReferenceImage{ID: string(rune('a' + i))}
	}
	c := &CharacterReference{Name: "Alice", Images: imgs}

	got := c.AnalysisImages()
	if len(got) != MaxCharRefImages {
		t.Fatalf("期待値 %d 枚, 実際 %d 枚", MaxCharRefImages, len(got))
	}
	if got[0].ID != "a" || got[4].ID != "e" {
		t.Errorf("先頭から順に選ばれていないのだ: %+v", got)
	}

	few := &CharacterReference{Name: "Bob", Images: imgs[:2]}
	if len(few.AnalysisImages()) != 2 {
		t.Error("上限未満の場合は全件返すべきなのだ")
	}
}

func TestCharacterReference_Summary(t *testing.T) {
	tests := []struct {
		name string
		char CharacterReference
		want string
	}{
		{"名前のみ", CharacterReference{Name: "Alice"}, "Alice"},
		{"画像あり", CharacterReference{Name: "Alice", Images: make([]ReferenceImage, 2)}, "Alice with 2 reference image(s)"},
		{
			"画像と説明あり",
			CharacterReference{Name: "Alice", Images: make([]ReferenceImage, 1), DetailedTextDescription: "red hair"},
			"Alice with 1 reference image(s) (textual description available)",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.char.Summary(); got != tt.want {
				t.Errorf("期待値 %q, 実際の値 %q", tt.want, got)
			}
		})
	}
}

func TestCharacterReference_String(t *testing.T) {
	c := &CharacterReference{ID: "test-id", Name: "テスト名"}
	expected := "テスト名 (test-id)"
	if c.String() != expected {
		t.Errorf("期待値 '%s', 実際の値 '%s'", expected, c.String())
	}
}

func TestParseRoster(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "alice.png"), pngHeader, 0o600); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("just text"), 0o600); err != nil {
		t.Fatal(err)
	}

	t.Run("正常系：画像を読み込んでキャラクターを構築するのだ", func(t *testing.T) {
		data := []byte(`[
			{"id": "alice", "name": "Alice", "images": ["alice.png"]},
			{"name": "Bob", "description": "tall, green coat"}
		]`)
		chars, err := ParseRoster(context.Background(), data, dir)
		if err != nil {
			t.Fatalf("予期しないエラーなのだ: %v", err)
		}
		if len(chars) != 2 {
			t.Fatalf("期待値 2 件, 実際 %d 件", len(chars))
		}
		if chars[0].Images[0].MIMEType != "image/png" {
			t.Errorf("MIMEタイプが正しくないのだ: %s", chars[0].Images[0].MIMEType)
		}
		if chars[1].ID != "bob" || !chars[1].HasDescription() {
			t.Errorf("ID補完または説明の読み込みが正しくないのだ: %+v", chars[1])
		}
	})

	t.Run("異常系：画像でないファイルはエラーなのだ", func(t *testing.T) {
		data := []byte(`[{"name": "Carol", "images": ["notes.txt"]}]`)
		if _, err := ParseRoster(context.Background(), data, dir); err == nil {
			t.Error("エラーが返されなかったのだ")
		}
	})

	t.Run("異常系：IDの重複はエラーなのだ", func(t *testing.T) {
		data := []byte(`[{"name": "Dan"}, {"id": "dan", "name": "Daniel"}]`)
		if _, err := ParseRoster(context.Background(), data, dir); err == nil {
			t.Error("重複IDでエラーが返されなかったのだ")
		}
	})

	t.Run("異常系：不正なJSONはエラーなのだ", func(t *testing.T) {
		if _, err := ParseRoster(context.Background(), []byte(`{ invalid json }`), dir); err == nil {
			t.Error("不正なJSONでエラーが発生しませんでした")
		}
	})
}
