package timefit_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/kode4food/timefit"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "timefit.yaml")
	assert.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadConfig(t *testing.T) {
	path := writeConfig(t, `
start_field: begin
stop_field: end
direction: descending
sort_field: stop
fallback_zone: UTC
store:
  addr: redis.internal:6380
  prefix: scheduler
  worker_count: 2
  max_queue_size: 64
  save_timeout: 10s
`)

	cfg, err := timefit.LoadConfig(path)
	assert.NoError(t, err)
	assert.Equal(t, "begin", cfg.Start.Name)
	assert.Equal(t, "end", cfg.Stop.Name)
	assert.Equal(t, timefit.Descending, cfg.Direction)
	assert.Equal(t, timefit.SortByStop, cfg.SortField)
	assert.Equal(t, time.UTC, cfg.FallbackZone)
	assert.Equal(t, "redis.internal:6380", cfg.Store.Addr)
	assert.Equal(t, "scheduler", cfg.Store.Prefix)
	assert.Equal(t, 2, cfg.Store.WorkerCount)
	assert.Equal(t, 64, cfg.Store.MaxQueueSize)
	assert.Equal(t, 10*time.Second, cfg.Store.SaveTimeout)
}

func TestLoadConfigDefaults(t *testing.T) {
	path := writeConfig(t, "{}\n")

	cfg, err := timefit.LoadConfig(path)
	assert.NoError(t, err)
	assert.Equal(t, timefit.DefaultStartField, cfg.Start.Name)
	assert.Equal(t, timefit.Ascending, cfg.Direction)
	assert.Nil(t, cfg.FallbackZone)
	assert.Equal(t, timefit.DefaultRedisEndpoint, cfg.Store.Addr)
	assert.Equal(t, timefit.DefaultPersistWorkers, cfg.Store.WorkerCount)
}

func TestLoadConfigBadDirection(t *testing.T) {
	path := writeConfig(t, "direction: sideways\n")
	_, err := timefit.LoadConfig(path)
	assert.Error(t, err)
}

func TestLoadConfigBadZone(t *testing.T) {
	path := writeConfig(t, "fallback_zone: Mars/Olympus\n")
	_, err := timefit.LoadConfig(path)
	assert.Error(t, err)
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := timefit.LoadConfig(
		filepath.Join(t.TempDir(), "nope.yaml"),
	)
	assert.Error(t, err)
}
