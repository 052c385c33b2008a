package conf

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDurationUnmarshal(t *testing.T) {
	var v struct {
		A *Duration `json:"a"`
		B *Duration `json:"b"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"a":"1.5s","b":2000000}`), &v))
	assert.Equal(t, 1500*time.Millisecond, v.A.AsDuration())
	assert.Equal(t, 2*time.Millisecond, v.B.AsDuration())

	var missing *Duration
	assert.Zero(t, missing.AsDuration())

	assert.Error(t, json.Unmarshal([]byte(`{"a":"soon"}`), &v))
	assert.Error(t, json.Unmarshal([]byte(`{"a":true}`), &v))
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
server:
  http:
    addr: 127.0.0.1:9000
    timeout: 5s
tmdb:
  token: ${TOKEN:}
  timeout: 3s
  max_retries: 1
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	t.Setenv("TOKEN", "secret-token")

	bc, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:9000", bc.Server.Http.Addr)
	assert.Equal(t, 5*time.Second, bc.Server.Http.Timeout.AsDuration())
	assert.Equal(t, "secret-token", bc.Tmdb.Token)
	assert.Equal(t, 3*time.Second, bc.Tmdb.Timeout.AsDuration())
	assert.Equal(t, int32(1), bc.Tmdb.MaxRetries)

	// defaults
	assert.Equal(t, "sqlite", bc.Data.Database.Driver)
	assert.Equal(t, "movies.db", bc.Data.Database.Source)
	assert.Equal(t, "https://api.themoviedb.org/3", bc.Tmdb.Url)
	assert.Equal(t, "https://image.tmdb.org/t/p/w500", bc.Tmdb.ImageUrl)
	assert.Empty(t, bc.Data.Redis.Addr)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
