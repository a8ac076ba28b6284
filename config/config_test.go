// Copyright 2025 JongHoon Shim
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

//go:build linux

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConf(t *testing.T, body string) string {
	t.Helper()

	p := filepath.Join(t.TempDir(), "conf.yaml")
	require.NoError(t, os.WriteFile(p, []byte(body), 0644))
	return p
}

func TestLoadConfigFrom(t *testing.T) {
	t.Run("loads bundled sample", func(t *testing.T) {
		var c Config
		require.NoError(t, c.LoadConfigFrom(ModuleName+".yaml"))

		assert.Equal(t, "127.0.0.1", c.Server.Host)
		assert.Equal(t, 8443, c.Server.Port)
		assert.False(t, c.Probe.Strict)
		assert.Empty(t, c.Probe.Roots)
		assert.True(t, c.Log.Compress)
	})

	t.Run("applies defaults", func(t *testing.T) {
		var c Config
		require.NoError(t, c.LoadConfigFrom(writeConf(t, "probe:\n  strict: true\n")))

		assert.Equal(t, defaultHost, c.Server.Host)
		assert.Equal(t, defaultPort, c.Server.Port)
		assert.Equal(t, "cert/"+ModuleName+".crt", c.Server.TlsCertPath)
		assert.Equal(t, "cert/"+ModuleName+".key", c.Server.TlsKeyPath)
		assert.Equal(t, defaultMaxSize, c.Log.MaxSize)
		assert.Equal(t, defaultMaxBackups, c.Log.MaxBackups)
		assert.Equal(t, defaultMaxAge, c.Log.MaxAge)
		assert.True(t, c.Probe.Strict)
	})

	t.Run("cleans roots", func(t *testing.T) {
		var c Config
		require.NoError(t, c.LoadConfigFrom(writeConf(t, "probe:\n  roots: [/srv//data/, /tmp/./x]\n")))

		assert.Equal(t, []string{"/srv/data", "/tmp/x"}, c.Probe.Roots)
	})

	t.Run("rejects relative root", func(t *testing.T) {
		var c Config
		err := c.LoadConfigFrom(writeConf(t, "probe:\n  roots: [data]\n"))
		assert.ErrorIs(t, err, ErrRelativeRoot)
	})

	t.Run("rejects invalid port", func(t *testing.T) {
		var c Config
		err := c.LoadConfigFrom(writeConf(t, "server:\n  port: 70000\n"))
		assert.ErrorIs(t, err, ErrInvalidPort)
	})

	t.Run("reports malformed yaml", func(t *testing.T) {
		var c Config
		err := c.LoadConfigFrom(writeConf(t, "server: [\n"))
		assert.Error(t, err)
	})

	t.Run("reports missing file", func(t *testing.T) {
		var c Config
		err := c.LoadConfigFrom(filepath.Join(t.TempDir(), "missing.yaml"))
		assert.ErrorIs(t, err, os.ErrNotExist)
	})
}
