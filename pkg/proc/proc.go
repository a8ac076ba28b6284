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

package proc

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
)

// IsProcRun PID로부터 프로세스가 동작 중인지 확인하는 함수
func IsProcRun(pid int) bool {
	if pid <= 0 {
		return false
	}
	proc, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	return proc.Signal(syscall.Signal(0)) == nil
}

// GetProcNameByPid PID로부터 프로세스명 추출
// 주의: 15자 까지만 추출 가능
func GetProcNameByPid(pid int) (string, error) {
	data, err := os.ReadFile(fmt.Sprintf("/proc/%d/comm", pid))
	if err != nil {
		return "", err
	}

	return strings.TrimSpace(string(data)), nil
}

// SendSignal PID를 가진 프로세스에 시그널 전송
// 0 이하의 PID는 프로세스 그룹 전체를 가리키므로 거부
func SendSignal(pid int, sig syscall.Signal) error {
	if pid <= 0 {
		return fmt.Errorf("invalid pid: %d", pid)
	}
	proc, err := os.FindProcess(pid)
	if err != nil {
		return err
	}
	return proc.Signal(sig)
}

// WritePidFile PID 파일 기록 (상위 디렉터리가 없으면 생성)
func WritePidFile(pidFilePath string, pid int) error {
	if err := os.MkdirAll(filepath.Dir(pidFilePath), 0755); err != nil {
		return err
	}
	return os.WriteFile(pidFilePath, []byte(strconv.Itoa(pid)), 0644)
}

// ReadPidFile PID 파일에서 PID 읽음
func ReadPidFile(pidFilePath string) (int, error) {
	data, err := os.ReadFile(pidFilePath)
	if err != nil {
		return 0, err
	}

	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0, fmt.Errorf("invalid pid file %s: %w", pidFilePath, err)
	}

	return pid, nil
}

// IsRunning PID 파일에 기록된 프로세스가 동작 중이며 이름이 name과 일치하는지 확인
// 동작 중이 아니어도 읽은 PID는 반환됨
func IsRunning(pidFilePath, name string) (int, bool) {
	pid, err := ReadPidFile(pidFilePath)
	if err != nil {
		return 0, false
	}

	if !IsProcRun(pid) {
		return pid, false
	}

	// comm은 15자로 잘리므로 잘린 이름과 비교
	procName, err := GetProcNameByPid(pid)
	if err != nil || procName != truncateComm(name) {
		return pid, false
	}

	return pid, true
}

func truncateComm(name string) string {
	if len(name) > 15 {
		return name[:15]
	}
	return name
}
