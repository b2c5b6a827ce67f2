package cli

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/aretw0/oidtree/internal/config"
	"github.com/aretw0/oidtree/internal/logging"
	"github.com/aretw0/oidtree/pkg/domain"
	"github.com/aretw0/oidtree/pkg/observability"
	"github.com/aretw0/oidtree/pkg/suggest"
	"github.com/aretw0/oidtree/pkg/tree"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T, driver string) config.Config {
	cfg := config.Defaults()
	cfg.Store.Driver = driver
	switch driver {
	case config.DriverFile:
		cfg.Store.Path = t.TempDir()
	case config.DriverSQLite:
		cfg.Store.Path = filepath.Join(t.TempDir(), "registry.db")
	}
	return cfg
}

func TestOpenRegistry_Drivers(t *testing.T) {
	mr := miniredis.RunT(t)

	for _, driver := range []string{config.DriverMemory, config.DriverFile, config.DriverSQLite, config.DriverRedis} {
		t.Run(driver, func(t *testing.T) {
			cfg := testConfig(t, driver)
			cfg.Store.Redis.URL = "redis://" + mr.Addr()
			cfg.Store.Redis.Lock = true

			ctx := context.Background()
			reg, err := OpenRegistry(ctx, cfg, Options{Logger: logging.NewNop()})
			require.NoError(t, err)
			defer reg.Close()

			added, err := reg.AddChild(ctx, "root", tree.Draft{Name: "Test Module", Description: "x"})
			require.NoError(t, err)
			assert.Equal(t, "1.3.6.1.4.1.61026.5", added.Identifier)
		})
	}
}

func TestOpenRegistry_SeedFileAndMetrics(t *testing.T) {
	seedPath := filepath.Join(t.TempDir(), "seed.yaml")
	require.NoError(t, writeFile(seedPath, `
id: root
identifier: "1.3.6.1.4.1.99999"
name: Example
description: Example root
kind: root
status: active
`))

	cfg := testConfig(t, config.DriverMemory)
	cfg.SeedFile = seedPath
	cfg.Namespace.Root = "1.3.6.1.4.1.99999"

	m := observability.NewMetrics()
	reg, err := OpenRegistry(context.Background(), cfg, Options{Logger: logging.NewNop(), Metrics: m})
	require.NoError(t, err)

	assert.Equal(t, "Example", reg.Tree().Name)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.TreeNodes))
}

func TestOpenRegistry_BadConfig(t *testing.T) {
	cfg := testConfig(t, config.DriverRedis)
	cfg.Store.Redis.URL = "not a url"
	_, err := OpenRegistry(context.Background(), cfg, Options{Logger: logging.NewNop()})
	assert.ErrorContains(t, err, "invalid redis url")

	cfg = testConfig(t, config.DriverMemory)
	cfg.SeedFile = filepath.Join(t.TempDir(), "missing.yaml")
	_, err = OpenRegistry(context.Background(), cfg, Options{Logger: logging.NewNop()})
	assert.ErrorContains(t, err, "loading seed file")
}

func TestNewSuggester(t *testing.T) {
	s, err := newSuggester(config.SuggestConfig{Provider: config.ProviderStatic}, logging.NewNop())
	require.NoError(t, err)
	assert.IsType(t, &suggest.Static{}, s)

	s, err = newSuggester(config.SuggestConfig{Provider: config.ProviderOpenAI, CacheTTL: time.Minute}, logging.NewNop())
	require.NoError(t, err)
	assert.IsType(t, &suggest.Cached{}, s)

	_, err = newSuggester(config.SuggestConfig{Provider: "oracle"}, logging.NewNop())
	assert.Error(t, err)
}

func TestRunWatch_RedrawsOnChange(t *testing.T) {
	cfg := testConfig(t, config.DriverMemory)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reg, err := OpenRegistry(ctx, cfg, Options{Logger: logging.NewNop()})
	require.NoError(t, err)

	var buf syncBuffer
	done := make(chan error, 1)
	go func() { done <- RunWatch(ctx, reg, &buf, WatchOptions{Query: "docker"}) }()

	assert.Eventually(t, func() bool { return bytes.Contains(buf.Bytes(), []byte("version 0")) }, 2*time.Second, 10*time.Millisecond)

	_, err = reg.AddChild(ctx, "root", tree.Draft{Name: "Live", Description: "x"})
	require.NoError(t, err)
	assert.Eventually(t, func() bool { return bytes.Contains(buf.Bytes(), []byte("version 1")) }, 2*time.Second, 10*time.Millisecond)

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
	assert.Nil(t, HandleExecutionError(context.Canceled))
}

func TestOpenRegistry_ReadOnlyMirror(t *testing.T) {
	ctx := context.Background()
	writerCfg := testConfig(t, config.DriverFile)

	writer, err := OpenRegistry(ctx, writerCfg, Options{Logger: logging.NewNop()})
	require.NoError(t, err)
	defer writer.Close()
	_, err = writer.AddChild(ctx, "root", tree.Draft{Name: "Shared", Description: "x"})
	require.NoError(t, err)

	mirrorCfg := writerCfg
	mirrorCfg.Store.ReadOnly = true
	m := observability.NewMetrics()
	mirror, err := OpenRegistry(ctx, mirrorCfg, Options{Logger: logging.NewNop(), Metrics: m})
	require.NoError(t, err)
	defer mirror.Close()

	assert.Equal(t, uint64(1), mirror.Snapshot().Version)
	_, err = mirror.Node("shared")
	require.NoError(t, err)

	_, err = mirror.AddChild(ctx, "root", tree.Draft{Name: "Blocked", Description: "x"})
	assert.ErrorIs(t, err, domain.ErrReadOnly)
	assert.Positive(t, testutil.CollectAndCount(m.StoreOps))
}
