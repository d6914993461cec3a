package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetup(t *testing.T) {
	t.Run("エンドポイント未指定なら何もしないのだ", func(t *testing.T) {
		shutdown, err := Setup(context.Background(), "go-comic-kit", "  ")
		require.NoError(t, err)
		require.NotNil(t, shutdown)
		assert.NoError(t, shutdown(context.Background()))
	})
}
