package cmd

import (
	"strconv"
	"testing"

	"github.com/shouni/go-comic-kit/pkg/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRootCmd(t *testing.T) {
	root := newRootCmd()

	var names []string
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}
	assert.Subset(t, names, []string{"generate", "script", "image", "models"})

	assert.NotNil(t, root.PersistentFlags().Lookup("verbose"), "clibase の共通フラグが載っているのだ")
	assert.NotNil(t, root.PersistentFlags().Lookup("output-dir"))

	pages := generateCmd.Flags().Lookup("pages")
	require.NotNil(t, pages)
	assert.Contains(t, pages.Usage, strconv.Itoa(domain.DefaultNumPages))
}

func TestPreRunAppE_LoadsConfigOnce(t *testing.T) {
	t.Setenv("COMIC_OTEL_ENDPOINT", "")
	t.Setenv("COMIC_IMAGE_MODEL", "flux")
	t.Cleanup(func() { appConfig, shutdown = nil, nil })

	appConfig = nil
	_, err := loadConfig()
	assert.Error(t, err, "preRun 前は設定が無いのだ")

	require.NoError(t, preRunAppE(generateCmd, nil))
	first := appConfig
	require.NotNil(t, first)

	opts.NumPages = 5
	t.Cleanup(func() { opts.NumPages = 0 })

	cfg, err := loadConfig()
	require.NoError(t, err)
	assert.Same(t, first, cfg, "設定は preRun で1回だけ読むのだ")
	assert.Equal(t, "flux", cfg.ImageModel)
	assert.Equal(t, 5, cfg.Options.NumPages)
}
