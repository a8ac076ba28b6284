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
	"context"
	"errors"
	"sync"
	"syscall"

	"github.com/hoon-x/fileprobe/config"
	"github.com/hoon-x/fileprobe/internal/logger"
	"github.com/hoon-x/fileprobe/pkg/proc"
)

type EvtType int

const (
	Shutdown EvtType = iota
)

var ErrChanClosed = errors.New("ipc event channel is closed")

type IpcManager struct {
	mu            sync.RWMutex
	ipcChan       chan EvtType
	isChanEnabled bool
	onShutdown    func()
}

// IpcMgr 데몬 프로세스 전역 관리자 (Shutdown 수신 시 자기 자신에게 SIGTERM 전송)
var IpcMgr = NewIpcManager(signalSelf)

// signalSelf 현재 프로세스에 종료 시그널 전송
func signalSelf() {
	if err := proc.SendSignal(config.RunConf.Pid, syscall.SIGTERM); err != nil {
		logger.LogError("Failed to send shutdown signal (pid:%d): %v", config.RunConf.Pid, err)
	}
}

// NewIpcManager 내부 통신 관리자 생성
func NewIpcManager(onShutdown func()) *IpcManager {
	return &IpcManager{
		ipcChan:       make(chan EvtType, 16),
		isChanEnabled: true,
		onShutdown:    onShutdown,
	}
}

// Run 전역 관리자의 이벤트 처리 (작업 관리자 등록용)
func Run(ctx context.Context) {
	IpcMgr.Run(ctx)
}

// SendIpcEvt 전역 관리자로 이벤트 전송
func SendIpcEvt(evt EvtType) error {
	return IpcMgr.Send(evt)
}

// Run 내부 통신 이벤트 처리 메서드
// ctx 종료 시 채널을 닫고 남은 이벤트를 모두 처리한 뒤 반환
func (m *IpcManager) Run(ctx context.Context) {
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()

		for evt := range m.ipcChan {
			switch evt {
			case Shutdown:
				logger.LogInfo("Shutdown event received")
				if m.onShutdown != nil {
					m.onShutdown()
				}
			}
		}
	}()

	<-ctx.Done()

	// 채널 비활성화
	m.mu.Lock()
	m.isChanEnabled = false
	close(m.ipcChan)
	m.mu.Unlock()

	wg.Wait()
}

// Send IPC 이벤트 전송
func (m *IpcManager) Send(evt EvtType) error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if !m.isChanEnabled {
		return ErrChanClosed
	}

	m.ipcChan <- evt
	return nil
}
