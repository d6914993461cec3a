package domain

import (
	"errors"
	"strings"
	"testing"
)

func storyOf(words int) string {
	return strings.TrimSpace(strings.Repeat("word ", words))
}

func TestComicConfig_Validate(t *testing.T) {
	valid := DefaultComicConfig()
	valid.Story = storyOf(50)

	tests := []struct {
		name    string
		mutate  func(c *ComicConfig)
		field   string
		wantErr bool
	}{
		{"既定値と50語のストーリーは有効", func(c *ComicConfig) {}, "", false},
		{"語数が下限未満", func(c *ComicConfig) { c.Story = storyOf(9) }, "story", true},
		{"語数がちょうど下限", func(c *ComicConfig) { c.Story = storyOf(MinStoryWords) }, "", false},
		{"語数が上限超過", func(c *ComicConfig) { c.Story = storyOf(MaxStoryWords + 1) }, "story", true},
		{"ページ数0", func(c *ComicConfig) { c.NumPages = 0 }, "numPages", true},
		{"ページ数が上限", func(c *ComicConfig) { c.NumPages = MaxPages }, "", false},
		{"ページ数が上限超過", func(c *ComicConfig) { c.NumPages = MaxPages + 1 }, "numPages", true},
		{"未知のアスペクト比", func(c *ComicConfig) { c.AspectRatio = "21:9" }, "aspectRatio", true},
		{"テキストモデル未指定", func(c *ComicConfig) { c.TextModel = " " }, "textModel", true},
		{"負のシード", func(c *ComicConfig) { c.Seed = -1 }, "seed", true},
		{"シードがちょうど上限", func(c *ComicConfig) { c.Seed = MaxSeed }, "", false},
		{"シードが32bitを超える", func(c *ComicConfig) { c.Seed = MaxSeed + 1 }, "seed", true},
		{"シードが30億", func(c *ComicConfig) { c.Seed = 3_000_000_000 }, "seed", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.mutate(&cfg)
			err := cfg.Validate()
			if !tt.wantErr {
				if err != nil {
					t.Fatalf("予期しないエラーなのだ: %v", err)
				}
				return
			}
			if !errors.Is(err, ErrValidation) {
				t.Fatalf("ErrValidation に一致しないのだ: %v", err)
			}
			var ve *ValidationError
			if !errors.As(err, &ve) || ve.Field != tt.field {
				t.Errorf("フィールドが違うのだ: 期待 %s, 実際 %+v", tt.field, ve)
			}
		})
	}
}

func TestComicConfig_WithResolvedSeed(t *testing.T) {
	rng := func() int64 { return 42 }

	t.Run("シード0はランダム値に置き換えられるのだ", func(t *testing.T) {
		cfg := ComicConfig{Seed: 0}
		if got := cfg.WithResolvedSeed(rng).Seed; got != 42 {
			t.Errorf("期待値 42, 実際 %d", got)
		}
		if cfg.Seed != 0 {
			t.Error("元の設定が変更されてしまったのだ")
		}
	})

	t.Run("指定済みのシードはそのままなのだ", func(t *testing.T) {
		cfg := ComicConfig{Seed: 7}
		if got := cfg.WithResolvedSeed(rng).Seed; got != 7 {
			t.Errorf("期待値 7, 実際 %d", got)
		}
	})
}

func TestLookupAspectRatio(t *testing.T) {
	if ar := LookupAspectRatio("3:4"); ar.Width != 768 || ar.Height != 1024 {
		t.Errorf("3:4 の寸法が違うのだ: %+v", ar)
	}
	if ar := LookupAspectRatio("unknown"); ar.Key != DefaultAspectRatio {
		t.Errorf("未知のキーは 16:9 にフォールバックするべきなのだ: %+v", ar)
	}
}

func TestErrorTaxonomy(t *testing.T) {
	t.Run("ProviderError は Kind に一致するのだ", func(t *testing.T) {
		err := NewTransportError(ProviderPollinations, "list models", errors.New("timeout"))
		if !errors.Is(err, ErrProviderTransport) {
			t.Error("ErrProviderTransport に一致しないのだ")
		}
		if errors.Is(err, ErrProviderAPI) {
			t.Error("別の分類に一致してしまったのだ")
		}
	})

	t.Run("MalformedOutputError は生の応答を保持するのだ", func(t *testing.T) {
		raw := strings.Repeat("x", 500)
		err := &MalformedOutputError{Raw: raw, Err: errors.New("bad json")}
		if !errors.Is(err, ErrMalformedModelOutput) {
			t.Error("ErrMalformedModelOutput に一致しないのだ")
		}
		if len(err.Raw) != 500 {
			t.Error("生の応答が切り詰められてしまったのだ")
		}
		if strings.Contains(err.Error(), raw) {
			t.Error("エラーメッセージは抜粋であるべきなのだ")
		}
	})

	t.Run("CredentialMissingError はセンチネルに一致するのだ", func(t *testing.T) {
		var err error = &CredentialMissingError{Provider: ProviderGemini}
		if !errors.Is(err, ErrCredentialMissing) {
			t.Error("ErrCredentialMissing に一致しないのだ")
		}
	})
}

func TestNormalizeDialogue(t *testing.T) {
	for _, in := range []string{"", "   ", "\n\t"} {
		if got := NormalizeDialogue(in); got != DialogueSentinel {
			t.Errorf("%q は単一スペースに正規化されるべきなのだ: %q", in, got)
		}
	}
	if got := NormalizeDialogue("Hello!"); got != "Hello!" {
		t.Errorf("有効な台詞が変更されたのだ: %q", got)
	}
}
