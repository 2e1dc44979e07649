package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "merklescrape.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestDefault(t *testing.T) {
	t.Parallel()

	cfg := Default()
	require.Equal(t, 11088, cfg.LastPage)
	require.Equal(t, 1.0, cfg.Sleep)
	require.Equal(t, 0, cfg.ResumePage)
	require.NoError(t, cfg.Validate())
}

func TestLoadOverridesDefaults(t *testing.T) {
	t.Parallel()

	cfg, err := Load(writeConfig(t, `
last_page = 200
sleep = 2.5
metrics_addr = ":9090"
`))
	require.NoError(t, err)
	require.Equal(t, 200, cfg.LastPage)
	require.Equal(t, 2.5, cfg.Sleep)
	require.Equal(t, 0, cfg.ResumePage, "unset keys keep their default")
	require.Equal(t, ":9090", cfg.MetricsAddr)
	require.Equal(t, 2500*time.Millisecond, cfg.SleepDuration())
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	t.Parallel()

	_, err := Load(writeConfig(t, "sleeep = 3\n"))
	require.Error(t, err)
	require.Contains(t, err.Error(), "unknown keys")
}

func TestLoadRejectsBadSyntax(t *testing.T) {
	t.Parallel()

	_, err := Load(writeConfig(t, "last_page = = 3\n"))
	require.Error(t, err)
}

func TestLoadMissingFile(t *testing.T) {
	t.Parallel()

	_, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestValidate(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name string
		mod  func(*Config)
		ok   bool
	}{
		{"defaults", func(*Config) {}, true},
		{"zero sleep", func(c *Config) { c.Sleep = 0 }, true},
		{"resume past last page", func(c *Config) { c.ResumePage = 20; c.LastPage = 10 }, true},
		{"negative last page", func(c *Config) { c.LastPage = -1 }, false},
		{"negative resume", func(c *Config) { c.ResumePage = -3 }, false},
		{"negative sleep", func(c *Config) { c.Sleep = -0.5 }, false},
		{"negative max rate", func(c *Config) { c.MaxRate = -1 }, false},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			cfg := Default()
			tc.mod(cfg)
			if tc.ok {
				require.NoError(t, cfg.Validate())
			} else {
				require.Error(t, cfg.Validate())
			}
		})
	}
}
