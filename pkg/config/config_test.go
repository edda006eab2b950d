package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	require.Equal(t, DefaultBaseURL, cfg.API.BaseURL)
	require.Equal(t, DefaultCachePath, cfg.Cache.Path)
	require.Equal(t, "ws://localhost:5000/ws", cfg.Socket.URL)
	require.Equal(t, "0 3 * * *", cfg.Cache.Retention.Cron)
	require.Equal(t, "720h", cfg.Cache.Retention.Period)
}

func TestLoadFileAndEnvPrecedence(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "confmatch.yaml")
	data := []byte(`
api:
  base_url: "https://file.example.com/api/v1/"
  timeout: 10s
refresh:
  interval: 45s
  debounce: 250ms
logging:
  level: debug
`)
	require.NoError(t, os.WriteFile(path, data, 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	// trailing slash is normalized away
	require.Equal(t, "https://file.example.com/api/v1", cfg.API.BaseURL)
	require.Equal(t, 10*time.Second, time.Duration(cfg.API.Timeout))
	require.Equal(t, 45*time.Second, time.Duration(cfg.Refresh.Interval))
	require.Equal(t, 250*time.Millisecond, time.Duration(cfg.Refresh.Debounce))
	require.Equal(t, "wss://file.example.com/ws", cfg.Socket.URL)

	// env wins over the file
	t.Setenv("CONFMATCH_API_URL", "http://env.example.com/api/v1")
	t.Setenv("CONFMATCH_METRICS_ADDR", "127.0.0.1:9321")
	cfg, err = Load(path)
	require.NoError(t, err)
	require.Equal(t, "http://env.example.com/api/v1", cfg.API.BaseURL)
	require.True(t, cfg.Metrics.Enabled)
	require.Equal(t, "127.0.0.1:9321", cfg.Metrics.Addr)
}

func TestLoadRejectsBadDuration(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("api:\n  timeout: soon\n"), 0o600))
	_, err := Load(path)
	require.Error(t, err)
}

func TestSocketURLFromAPI(t *testing.T) {
	cases := map[string]string{
		"http://localhost:5000/api/v1":    "ws://localhost:5000/ws",
		"https://match.example.com/api/v2": "wss://match.example.com/ws",
		"https://bare.example.com":         "wss://bare.example.com/ws",
	}
	for in, want := range cases {
		require.Equal(t, want, SocketURLFromAPI(in), "input %s", in)
	}
}

func TestDurationOr(t *testing.T) {
	var d Duration
	require.Equal(t, 5*time.Second, d.Or(5*time.Second))
	d = Duration(time.Minute)
	require.Equal(t, time.Minute, d.Or(5*time.Second))
}
