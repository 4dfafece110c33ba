package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestLoad_ValidConfig(t *testing.T) {
	path := writeTemp(t, `
http:
  addr: ":9090"
storage:
  driver: sqlite
  sqlite_path: /tmp/journal.db
session:
  secret: "`+testSecret+`"
  ttl: 12h
content:
  banned_words_path: words.txt
log:
  level: debug
  slow_request: 250ms
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.HTTP.Addr)
	assert.Equal(t, "/tmp/journal.db", cfg.Storage.SQLitePath)
	assert.Equal(t, 12*time.Hour, cfg.Session.TTL)
	assert.Equal(t, "words.txt", cfg.Content.BannedWordsPath)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, 250*time.Millisecond, cfg.Log.SlowRequest)
	assert.False(t, cfg.Alerts.Enabled())
}

func TestLoad_DefaultsApplied(t *testing.T) {
	path := writeTemp(t, "session:\n  secret: \""+testSecret+"\"\n")
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, DefaultHTTPAddr, cfg.HTTP.Addr)
	assert.Equal(t, DriverSQLite, cfg.Storage.Driver)
	assert.Equal(t, DefaultSQLitePath, cfg.Storage.SQLitePath)
	assert.Equal(t, DefaultSessionTTL, cfg.Session.TTL)
	assert.Equal(t, DefaultCookieName, cfg.Session.CookieName)
	assert.Equal(t, DefaultBannedWordsPath, cfg.Content.BannedWordsPath)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, DefaultSlowRequest, cfg.Log.SlowRequest)
}

func TestLoad_EnvOverrides(t *testing.T) {
	path := writeTemp(t, "http:\n  addr: \":1111\"\n")
	t.Setenv("LURELOG_SESSION_SECRET", testSecret)
	t.Setenv("LURELOG_HTTP_ADDR", ":2222")
	t.Setenv("LURELOG_BANNED_WORDS", "/etc/lurelog/words.txt")
	t.Setenv("TELEGRAM_TOKEN", "123:abc")
	t.Setenv("DEVELOPER_CHAT_ID", "257582730")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":2222", cfg.HTTP.Addr)
	assert.Equal(t, "/etc/lurelog/words.txt", cfg.Content.BannedWordsPath)
	assert.True(t, cfg.Alerts.Enabled())
	assert.Equal(t, int64(257582730), cfg.Alerts.DeveloperChatID)
}

func TestLoad_BadDeveloperChatID(t *testing.T) {
	path := writeTemp(t, "session:\n  secret: \""+testSecret+"\"\n")
	t.Setenv("DEVELOPER_CHAT_ID", "not-a-number")
	_, err := Load(path)
	assert.ErrorContains(t, err, "DEVELOPER_CHAT_ID")
}

func TestLoad_MissingDefaultFileIsNotAnError(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("LURELOG_SESSION_SECRET", testSecret)
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, DriverSQLite, cfg.Storage.Driver)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.ErrorContains(t, err, "reading config")
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{
			name:    "short secret",
			yaml:    "session:\n  secret: short\n",
			wantErr: "session.secret",
		},
		{
			name:    "unknown driver",
			yaml:    "storage:\n  driver: postgres\nsession:\n  secret: \"" + testSecret + "\"\n",
			wantErr: "storage.driver",
		},
		{
			name:    "ydb without dsn",
			yaml:    "storage:\n  driver: ydb\nsession:\n  secret: \"" + testSecret + "\"\n",
			wantErr: "storage.ydb_dsn",
		},
		{
			name:    "negative ttl",
			yaml:    "session:\n  secret: \"" + testSecret + "\"\n  ttl: -1h\n",
			wantErr: "session.ttl",
		},
		{
			name:    "broken yaml",
			yaml:    "http: [",
			wantErr: "parsing config",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeTemp(t, tt.yaml))
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func writeTemp(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "lurelog.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}
