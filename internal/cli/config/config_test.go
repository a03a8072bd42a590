package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/leapchart/internal/source"
)

func testFlags() *pflag.FlagSet {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.String("templates-dir", "", "")
	fs.String("macros-dir", "", "")
	fs.String("state", "", "")
	fs.String("driver", "", "")
	fs.String("dsn", "", "")
	fs.Bool("advanced", false, "")
	fs.BoolP("verbose", "v", false, "")
	fs.StringP("output", "o", "", "")
	fs.Int("port", 0, "")
	fs.Duration("refresh", 0, "")
	return fs
}

func writeConfig(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "leapchart.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	cfg, err := Load("", nil)
	require.NoError(t, err)

	assert.Empty(t, cfg.File)
	assert.Equal(t, source.DriverDuckDB, cfg.Source.Driver)
	assert.Equal(t, filepath.Join(cfg.ProjectRoot, DefaultTemplatesDir), cfg.TemplatesDir)
	assert.Equal(t, filepath.Join(cfg.ProjectRoot, DefaultStateFile), cfg.StatePath)
	assert.Equal(t, DefaultOutput, cfg.OutputFormat)
	assert.Equal(t, uint64(DefaultMaxSteps), cfg.Eval.MaxSteps)
	assert.Equal(t, DefaultPort, cfg.UI.Port)
	assert.True(t, cfg.UI.Watch)
	assert.Zero(t, cfg.UI.RefreshInterval)
	assert.False(t, cfg.AdvancedMode)
}

func TestLoad_Precedence(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	writeConfig(t, dir, `
source:
  driver: sqlite
  dsn: data.db
templates_dir: dashboards
advanced_mode: true
eval:
  max_steps: 500
ui:
  port: 9000
  refresh_interval: 30s
`)

	t.Run("file over defaults", func(t *testing.T) {
		cfg, err := Load("", nil)
		require.NoError(t, err)
		assert.Equal(t, "leapchart.yaml", filepath.Base(cfg.File))
		assert.Equal(t, source.DriverSQLite, cfg.Source.Driver)
		assert.Equal(t, "data.db", cfg.Source.DSN)
		assert.Equal(t, filepath.Join(cfg.ProjectRoot, "dashboards"), cfg.TemplatesDir)
		assert.True(t, cfg.AdvancedMode)
		assert.Equal(t, uint64(500), cfg.Eval.MaxSteps)
		assert.Equal(t, 9000, cfg.UI.Port)
		assert.Equal(t, 30*time.Second, cfg.UI.RefreshInterval)
	})

	t.Run("env over file", func(t *testing.T) {
		t.Setenv("LEAPCHART_SOURCE_DSN", "other.db")
		t.Setenv("LEAPCHART_UI_PORT", "9100")
		t.Setenv("LEAPCHART_ADVANCED_MODE", "false")
		cfg, err := Load("", nil)
		require.NoError(t, err)
		assert.Equal(t, "other.db", cfg.Source.DSN)
		assert.Equal(t, 9100, cfg.UI.Port)
		assert.False(t, cfg.AdvancedMode)
	})

	t.Run("flags over env", func(t *testing.T) {
		t.Setenv("LEAPCHART_UI_PORT", "9100")
		fs := testFlags()
		require.NoError(t, fs.Parse([]string{"--port", "9200", "--driver", "postgres", "--templates-dir", "local", "--refresh", "5s", "-o", "json"}))
		cfg, err := Load("", fs)
		require.NoError(t, err)
		assert.Equal(t, 9200, cfg.UI.Port)
		assert.Equal(t, source.DriverPostgres, cfg.Source.Driver)
		assert.Equal(t, 5*time.Second, cfg.UI.RefreshInterval)
		assert.Equal(t, "json", cfg.OutputFormat)
		wd, _ := os.Getwd()
		assert.Equal(t, filepath.Join(wd, "local"), cfg.TemplatesDir)
	})

	t.Run("unset flags do not override", func(t *testing.T) {
		fs := testFlags()
		require.NoError(t, fs.Parse(nil))
		cfg, err := Load("", fs)
		require.NoError(t, err)
		assert.Equal(t, 9000, cfg.UI.Port)
	})
}

func TestLoad_ExplicitFileAnchorsPaths(t *testing.T) {
	project := t.TempDir()
	path := writeConfig(t, project, "macros_dir: lib\n")
	t.Chdir(t.TempDir())

	cfg, err := Load(path, nil)
	require.NoError(t, err)
	assert.Equal(t, path, cfg.File)
	assert.Equal(t, filepath.Join(filepath.Dir(path), "lib"), cfg.MacrosDir)
}

func TestLoad_UpwardSearch(t *testing.T) {
	project := t.TempDir()
	writeConfig(t, project, "templates_dir: boards\n")
	nested := filepath.Join(project, "a", "b")
	require.NoError(t, os.MkdirAll(nested, 0o750))
	t.Chdir(nested)

	cfg, err := Load("", nil)
	require.NoError(t, err)
	assert.Equal(t, filepath.Base(project), filepath.Base(cfg.ProjectRoot))
	assert.Equal(t, "boards", filepath.Base(cfg.TemplatesDir))
}

func TestLoad_ExpandsDSN(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("PGPASS", "s3cret")
	writeConfig(t, dir, "source:\n  driver: postgres\n  dsn: postgres://app:${PGPASS}@db/app ${MISSING}\n")

	cfg, err := Load("", nil)
	require.NoError(t, err)
	assert.Equal(t, "postgres://app:s3cret@db/app ${MISSING}", cfg.Source.DSN)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{name: "unknown driver", content: "source:\n  driver: oracle\n", wantErr: "unknown source driver"},
		{name: "unknown output", content: "output: xml\n", wantErr: "unknown format"},
		{name: "bad port", content: "ui:\n  port: 70000\n", wantErr: "out of range"},
		{name: "bad duration", content: "ui:\n  refresh_interval: soon\n", wantErr: "decode"},
		{name: "bad yaml", content: "source: [\n", wantErr: "error reading config file"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			t.Chdir(dir)
			writeConfig(t, dir, tt.content)
			_, err := Load("", nil)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestEnvKey(t *testing.T) {
	assert.Equal(t, "source.dsn", envKey("LEAPCHART_SOURCE_DSN"))
	assert.Equal(t, "ui.refresh_interval", envKey("LEAPCHART_UI_REFRESH_INTERVAL"))
	assert.Equal(t, "eval.max_steps", envKey("LEAPCHART_EVAL_MAX_STEPS"))
	assert.Equal(t, "templates_dir", envKey("LEAPCHART_TEMPLATES_DIR"))
}

func TestEnvVar_RoundTripsKeys(t *testing.T) {
	for _, key := range Keys() {
		assert.Equal(t, key, envKey(EnvVar(key)), key)
	}
	assert.Equal(t, "LEAPCHART_UI_REFRESH_INTERVAL", EnvVar("ui.refresh_interval"))
	assert.Equal(t, DefaultPort, Default("ui.port"))
}
