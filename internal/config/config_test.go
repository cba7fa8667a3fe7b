package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/victornm/quizflow/internal/config"
)

type testConfig struct {
	HTTP struct {
		Port int32
	}

	Storage struct {
		Driver string
	}

	Redis struct {
		Addrs  []string
		Prefix string
	}
}

func TestLoad(t *testing.T) {
	tests := map[string]struct {
		arrange func(t *testing.T) (file string, c *testConfig)
		assert  func(t *testing.T, c *testConfig)
	}{
		"should read values from file": {
			arrange: func(t *testing.T) (string, *testConfig) {
				return writeFile(t, `
http:
  port: 8080
storage:
  driver: redis
redis:
  addrs: ["localhost:6379"]
  prefix: quiz
`), &testConfig{}
			},

			assert: func(t *testing.T, c *testConfig) {
				assert.Equal(t, int32(8080), c.HTTP.Port)
				assert.Equal(t, "redis", c.Storage.Driver)
				assert.Equal(t, []string{"localhost:6379"}, c.Redis.Addrs)
				assert.Equal(t, "quiz", c.Redis.Prefix)
			},
		},

		"should keep defaults missing from file": {
			arrange: func(t *testing.T) (string, *testConfig) {
				c := &testConfig{}
				c.Storage.Driver = "memory"
				return writeFile(t, "http:\n  port: 8080\n"), c
			},

			assert: func(t *testing.T, c *testConfig) {
				assert.Equal(t, int32(8080), c.HTTP.Port)
				assert.Equal(t, "memory", c.Storage.Driver)
			},
		},

		"should let environment override file": {
			arrange: func(t *testing.T) (string, *testConfig) {
				t.Setenv("HTTP_PORT", "9090")
				t.Setenv("STORAGE_DRIVER", "postgres")
				return writeFile(t, "http:\n  port: 8080\nstorage:\n  driver: memory\n"), &testConfig{}
			},

			assert: func(t *testing.T, c *testConfig) {
				assert.Equal(t, int32(9090), c.HTTP.Port)
				assert.Equal(t, "postgres", c.Storage.Driver)
			},
		},

		"should let environment override keys missing from file": {
			arrange: func(t *testing.T) (string, *testConfig) {
				t.Setenv("STORAGE_DRIVER", "postgres")
				c := &testConfig{}
				c.Storage.Driver = "memory"
				return writeFile(t, "http:\n  port: 8080\n"), c
			},

			assert: func(t *testing.T, c *testConfig) {
				assert.Equal(t, int32(8080), c.HTTP.Port)
				assert.Equal(t, "postgres", c.Storage.Driver)
			},
		},

		"should load from environment without a file": {
			arrange: func(t *testing.T) (string, *testConfig) {
				t.Setenv("REDIS_PREFIX", "live")
				return "", &testConfig{}
			},

			assert: func(t *testing.T, c *testConfig) {
				assert.Equal(t, "live", c.Redis.Prefix)
			},
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			file, c := tt.arrange(t)

			require.NoError(t, config.Load(file, c))

			tt.assert(t, c)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	err := config.Load(filepath.Join(t.TempDir(), "missing.yaml"), &testConfig{})
	require.Error(t, err)
}

func writeFile(t *testing.T, content string) string {
	t.Helper()

	p := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(p, []byte(content), 0o600))
	return p
}
