package script

import (
	"testing"

	"github.com/shouni/go-comic-kit/pkg/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const bareJSON = `[{"sceneDescription":"Alice walks in.","dialogueOrCaption":"Hi!"},{"sceneDescription":"Bob waves.","dialogueOrCaption":"Hey."}]`

func TestJSONParser_Parse(t *testing.T) {
	want := []domain.PanelContent{
		{SceneDescription: "Alice walks in.", DialogueOrCaption: "Hi!"},
		{SceneDescription: "Bob waves.", DialogueOrCaption: "Hey."},
	}

	tests := []struct {
		name string
		raw  string
	}{
		{"素の JSON", bareJSON},
		{"コードフェンス付き", "```json\n" + bareJSON + "\n```"},
		{"言語指定なしのフェンス", "```\n" + bareJSON + "\n```"},
		{"前後に説明文", "Sure! Here is your script:\n" + bareJSON + "\nEnjoy the comic."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := JSONParser{}.Parse(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, want, got)
		})
	}

	t.Run("台詞の正規化", func(t *testing.T) {
		raw := `[
			{"sceneDescription":"a","dialogueOrCaption":""},
			{"sceneDescription":"b","dialogueOrCaption":null},
			{"sceneDescription":"c","dialogueOrCaption":"   "},
			{"sceneDescription":"d"},
			{"sceneDescription":"e","dialogueOrCaption":"valid"},
			{"sceneDescription":"f","dialogueOrCaption":42}
		]`
		got, err := JSONParser{}.Parse(raw)
		require.NoError(t, err)
		require.Len(t, got, 6)
		for i := 0; i < 4; i++ {
			assert.Equal(t, domain.DialogueSentinel, got[i].DialogueOrCaption, "panel %d", i)
		}
		assert.Equal(t, "valid", got[4].DialogueOrCaption)
		assert.Equal(t, "42", got[5].DialogueOrCaption)
	})

	t.Run("単一オブジェクトは1パネル扱い", func(t *testing.T) {
		got, err := JSONParser{}.Parse(`{"sceneDescription":"solo","dialogueOrCaption":"x"}`)
		require.NoError(t, err)
		assert.Equal(t, []domain.PanelContent{{SceneDescription: "solo", DialogueOrCaption: "x"}}, got)
	})

	errorCases := []struct {
		name string
		raw  string
	}{
		{"空", "   "},
		{"JSON なし", "I could not write a script for this story."},
		{"sceneDescription 欠落", `[{"dialogueOrCaption":"x"}]`},
		{"sceneDescription が空", `[{"sceneDescription":"  ","dialogueOrCaption":"x"}]`},
		{"sceneDescription が数値", `[{"sceneDescription":1}]`},
		{"要素がオブジェクトでない", `["a","b"]`},
		{"壊れた配列", `[{"sceneDescription":"a",}`},
	}
	for _, tt := range errorCases {
		t.Run("Error/"+tt.name, func(t *testing.T) {
			_, err := JSONParser{}.Parse(tt.raw)
			assert.Error(t, err)
		})
	}
}

func TestDelimitedParser_Parse(t *testing.T) {
	t.Run("Success/区切り形式を解析するのだ", func(t *testing.T) {
		raw := `Here you go.
---PAGE 1---
Scene: Alice stands on a cliff,
looking at the sea.
Caption: The journey begins.

---PAGE 2---
Scene: Bob runs up the hill.
Caption:
`
		got, err := DelimitedParser{}.Parse(raw)
		require.NoError(t, err)
		assert.Equal(t, []domain.PanelContent{
			{SceneDescription: "Alice stands on a cliff, looking at the sea.", DialogueOrCaption: "The journey begins."},
			{SceneDescription: "Bob runs up the hill.", DialogueOrCaption: domain.DialogueSentinel},
		}, got)
	})

	t.Run("Success/シーンの無いブロックは捨てるのだ", func(t *testing.T) {
		got, err := DelimitedParser{}.Parse("--- PAGE 1 ---\nCaption: only text\n---PAGE 2---\nscene: ok")
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "ok", got[0].SceneDescription)
	})

	t.Run("Error/区切りが無い", func(t *testing.T) {
		_, err := DelimitedParser{}.Parse(bareJSON)
		assert.Error(t, err)
	})
}

func TestNormalize(t *testing.T) {
	const n = 5
	mk := func(count int) []domain.PanelContent {
		out := make([]domain.PanelContent, count)
		for i := range out {
			out[i] = domain.PanelContent{SceneDescription: string(rune('a' + i)), DialogueOrCaption: "x"}
		}
		return out
	}

	tests := []struct {
		name        string
		in          int
		wantPadding int
	}{
		{"0件", 0, n},
		{"N-2件", n - 2, 2},
		{"N件", n, 0},
		{"N+5件", n + 5, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Normalize(mk(tt.in), n)
			require.Len(t, got, n)

			padding := 0
			for i, p := range got {
				assert.NotEmpty(t, p.DialogueOrCaption)
				if p.SceneDescription == PlaceholderScene {
					padding++
					continue
				}
				assert.Equal(t, string(rune('a'+i)), p.SceneDescription, "元の順序を保つのだ")
			}
			assert.Equal(t, tt.wantPadding, padding)
		})
	}

	t.Run("空の台詞は正規化される", func(t *testing.T) {
		got := Normalize([]domain.PanelContent{{SceneDescription: "a", DialogueOrCaption: ""}}, 1)
		assert.Equal(t, domain.DialogueSentinel, got[0].DialogueOrCaption)
	})
}
