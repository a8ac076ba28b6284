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

package ipc

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/hoon-x/fileprobe/config"
	"github.com/hoon-x/fileprobe/internal/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIpcManager(t *testing.T) {
	called := make(chan struct{}, 1)
	m := NewIpcManager(func() { called <- struct{}{} })

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		m.Run(ctx)
	}()

	require.NoError(t, m.Send(Shutdown))

	select {
	case <-called:
	case <-time.After(time.Second):
		t.Fatal("shutdown handler not called")
	}

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return")
	}

	assert.ErrorIs(t, m.Send(Shutdown), ErrChanClosed)
}

func TestSignalSelf_LogsFailure(t *testing.T) {
	var buf bytes.Buffer
	logger.InitializeConsoleLogger(&buf, false)
	defer logger.FinalizeLogger()

	saved := config.RunConf.Pid
	config.RunConf.Pid = 0
	t.Cleanup(func() { config.RunConf.Pid = saved })

	signalSelf()

	assert.Contains(t, buf.String(), "[ERROR] Failed to send shutdown signal (pid:0)")
}
