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

package logger

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConsoleLogger(t *testing.T) {
	t.Run("filters below warn", func(t *testing.T) {
		var buf bytes.Buffer
		InitializeConsoleLogger(&buf, false)
		defer FinalizeLogger()

		LogDebug("debug %d", 1)
		LogInfo("info %d", 2)
		LogWarn("warn %d", 3)
		LogError("error %d", 4)

		out := buf.String()
		assert.NotContains(t, out, "debug 1")
		assert.NotContains(t, out, "info 2")
		assert.Contains(t, out, "[WARN] warn 3")
		assert.Contains(t, out, "[ERROR] error 4")
	})

	t.Run("debug mode includes caller", func(t *testing.T) {
		var buf bytes.Buffer
		InitializeConsoleLogger(&buf, true)
		defer FinalizeLogger()

		LogDebug("probe %s", "x")

		assert.Contains(t, buf.String(), "[DEBUG]")
		assert.Contains(t, buf.String(), "logger/logger_test.go")
		assert.Contains(t, buf.String(), "probe x")
	})
}

func TestFileLogger(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "log", "fileprobe.log")
	InitializeLogger(logPath, 1, 1, 1, false, false)

	LogDebug("hidden")
	LogInfo("started pid:%d", 42)
	FinalizeLogger()

	data, err := os.ReadFile(logPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "[INFO] started pid:42")
	assert.NotContains(t, string(data), "hidden")
}

func TestPanicLevel(t *testing.T) {
	var buf bytes.Buffer
	InitializeConsoleLogger(&buf, false)
	defer FinalizeLogger()

	assert.Panics(t, func() { LogPanic("boom") })
}
