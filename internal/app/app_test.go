package app

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/yacht-extract/internal/common"
)

func TestBuildWithoutOCR(t *testing.T) {
	cfg := common.DefaultConfig()
	cfg.Database.DSN = filepath.Join(t.TempDir(), "jobs.db")

	a, err := Build(context.Background(), cfg, slog.New(slog.NewTextHandler(io.Discard, nil)), Options{Store: true})
	require.NoError(t, err)
	defer a.Close()

	assert.NotNil(t, a.Jobs)
	assert.NotNil(t, a.Processor)
	assert.NotNil(t, a.Merger)
	assert.Nil(t, a.Reader)
}

func TestBuildRequiresOCRConfig(t *testing.T) {
	_, err := Build(context.Background(), common.DefaultConfig(), nil, Options{OCR: true})
	require.Error(t, err)
	assert.Equal(t, common.CodeConfig, common.CodeOf(err))
}

func TestLoadRules(t *testing.T) {
	set, err := LoadRules("")
	require.NoError(t, err)
	assert.NotNil(t, set)

	_, err = LoadRules(t.TempDir())
	require.Error(t, err)
	assert.Equal(t, common.CodeConfig, common.CodeOf(err))
}
