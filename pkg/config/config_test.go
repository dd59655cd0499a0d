package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, 2, cfg.Crawl.StartPage)
	assert.Equal(t, 200, cfg.Crawl.EndPage)
	assert.Equal(t, 30*time.Second, cfg.Crawl.RequestTimeout)
	assert.Equal(t, 3, cfg.Retry.MaxAttempts)
	assert.Equal(t, 5*time.Second, cfg.Retry.BaseDelay)
	assert.Equal(t, 2.0, cfg.Retry.Multiplier)
	assert.Zero(t, cfg.Retry.JitterFactor)
	assert.Equal(t, "crawl_progress.txt", cfg.Output.CheckpointFile)
	assert.Contains(t, cfg.Site.PageURLTemplate, "{page}")
	assert.Len(t, cfg.Site.Sentinels, 2)
	assert.NoError(t, cfg.Validate())
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("LISTINGCRAWLER_OUTPUT_DIR", "/tmp/pages")
	t.Setenv("LISTINGCRAWLER_CHECKPOINT_FILE", "/tmp/progress.txt")
	t.Setenv("LISTINGCRAWLER_START_PAGE", "10")
	t.Setenv("LISTINGCRAWLER_END_PAGE", "20")
	t.Setenv("LISTINGCRAWLER_MAX_RETRIES", "5")
	t.Setenv("LISTINGCRAWLER_RETRY_DELAY", "250ms")
	t.Setenv("LISTINGCRAWLER_REQUESTS_PER_MINUTE", "12")
	t.Setenv("LISTINGCRAWLER_CONTROL_ADDR", "127.0.0.1:8089")
	t.Setenv("LISTINGCRAWLER_NOTIFICATIONS_ENABLED", "false")
	t.Setenv("LISTINGCRAWLER_LOG_LEVEL", "debug")

	cfg := DefaultConfig()
	require.NoError(t, cfg.LoadFromEnv())

	assert.Equal(t, "/tmp/pages", cfg.Output.Directory)
	assert.Equal(t, "/tmp/progress.txt", cfg.Output.CheckpointFile)
	assert.Equal(t, 10, cfg.Crawl.StartPage)
	assert.Equal(t, 20, cfg.Crawl.EndPage)
	assert.Equal(t, 5, cfg.Retry.MaxAttempts)
	assert.Equal(t, 250*time.Millisecond, cfg.Retry.BaseDelay)
	assert.Equal(t, 12, cfg.RateLimit.RequestsPerMinute)
	assert.Equal(t, "127.0.0.1:8089", cfg.Control.Addr)
	assert.False(t, cfg.Notifications.Enabled)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoadFromEnvInvalidNumber(t *testing.T) {
	t.Setenv("LISTINGCRAWLER_START_PAGE", "two")
	t.Setenv("LISTINGCRAWLER_RETRY_DELAY", "soon")

	cfg := DefaultConfig()
	err := cfg.LoadFromEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "START_PAGE")
	assert.Contains(t, err.Error(), "RETRY_DELAY")
	assert.Equal(t, 2, cfg.Crawl.StartPage)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"defaults", func(c *Config) {}, ""},
		{"missing base URL", func(c *Config) { c.Site.BaseURL = "" }, "base URL"},
		{"template without placeholder", func(c *Config) { c.Site.PageURLTemplate = "https://example.com/list" }, "{page}"},
		{"missing user agent", func(c *Config) { c.Site.UserAgent = "" }, "user agent"},
		{"no sentinels", func(c *Config) { c.Site.Sentinels = nil }, "sentinel"},
		{"start page zero", func(c *Config) { c.Crawl.StartPage = 0 }, "start page"},
		{"end before start", func(c *Config) { c.Crawl.StartPage, c.Crawl.EndPage = 9, 3 }, "end page"},
		{"zero attempts", func(c *Config) { c.Retry.MaxAttempts = 0 }, "max attempts"},
		{"shrinking backoff", func(c *Config) { c.Retry.Multiplier = 0.5 }, "multiplier"},
		{"jitter out of range", func(c *Config) { c.Retry.JitterFactor = 2 }, "jitter"},
		{"negative rate", func(c *Config) { c.RateLimit.RequestsPerMinute = -1 }, "requests per minute"},
		{"missing output", func(c *Config) { c.Output.Directory = "" }, "output directory"},
		{"missing checkpoint", func(c *Config) { c.Output.CheckpointFile = "" }, "checkpoint file"},
		{"bad log level", func(c *Config) { c.Logging.Level = "verbose" }, "log level"},
		{"bad notification type", func(c *Config) { c.Notifications.NotificationType = "email" }, "notification type"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestSaveAndLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "listingcrawler.yaml")

	cfg := DefaultConfig()
	cfg.Crawl.StartPage = 7
	cfg.Retry.BaseDelay = 1500 * time.Millisecond
	cfg.Control.Addr = ":9090"
	require.NoError(t, cfg.Save(path))

	loaded := DefaultConfig()
	require.NoError(t, loaded.LoadFromFile(path))
	assert.Equal(t, 7, loaded.Crawl.StartPage)
	assert.Equal(t, 1500*time.Millisecond, loaded.Retry.BaseDelay)
	assert.Equal(t, ":9090", loaded.Control.Addr)
	assert.Equal(t, cfg.Site.Sentinels, loaded.Site.Sentinels)
}

func TestLoadFromFileDurationStrings(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `crawl:
  start_page: 3
  end_page: 4
  request_timeout: 10s
retry:
  base_delay: 2s
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg := DefaultConfig()
	require.NoError(t, cfg.LoadFromFile(path))
	assert.Equal(t, 10*time.Second, cfg.Crawl.RequestTimeout)
	assert.Equal(t, 2*time.Second, cfg.Retry.BaseDelay)
	assert.Equal(t, 3, cfg.Retry.MaxAttempts, "unset keys keep defaults")
}

func TestLoadPrecedence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("crawl:\n  start_page: 3\n  end_page: 50\n"), 0644))
	t.Setenv("LISTINGCRAWLER_END_PAGE", "40")

	cfg, err := Load(path, map[string]interface{}{
		"start-page":  5,
		"retry-delay": 100 * time.Millisecond,
	})
	require.NoError(t, err)
	assert.Equal(t, 5, cfg.Crawl.StartPage)
	assert.Equal(t, 40, cfg.Crawl.EndPage)
	assert.Equal(t, 100*time.Millisecond, cfg.Retry.BaseDelay)
}

func TestLoadRejectsInvalid(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"), nil)
	require.Error(t, err)

	_, err = Load("", map[string]interface{}{"log-level": "loud"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "validation")
}
