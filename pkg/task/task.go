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

package task

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"sync"
	"time"
)

var (
	ErrTaskNotFound = errors.New("task does not exist")
	ErrTimeout      = errors.New("timeout occurred")
)

type TaskManager struct {
	panicHandler func(interface{})
	mu           sync.Mutex
	parentWG     sync.WaitGroup
	parentCtx    context.Context
	parentCancel context.CancelFunc
	tasks        map[string]*taskUnit
}

type taskUnit struct {
	wg     sync.WaitGroup
	cancel context.CancelFunc
	task   func(ctx context.Context)
	isRun  bool
}

// NewTaskManager 작업 관리자 생성
// panicHandler가 nil이면 표준 에러로 출력
func NewTaskManager(panicHandler func(interface{})) *TaskManager {
	ctx, cancel := context.WithCancel(context.Background())
	return &TaskManager{
		panicHandler: panicHandler,
		parentCtx:    ctx,
		parentCancel: cancel,
		tasks:        make(map[string]*taskUnit),
	}
}

// AddTask 작업 등록
func (tm *TaskManager) AddTask(name string, task func(ctx context.Context)) {
	tm.mu.Lock()
	defer tm.mu.Unlock()

	tm.tasks[name] = &taskUnit{task: task}
}

// Names 등록된 작업 이름 목록 (정렬됨)
func (tm *TaskManager) Names() []string {
	tm.mu.Lock()
	defer tm.mu.Unlock()

	names := make([]string, 0, len(tm.tasks))
	for name := range tm.tasks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// IsRunning 작업이 동작 중인지 확인
func (tm *TaskManager) IsRunning(name string) bool {
	tm.mu.Lock()
	defer tm.mu.Unlock()

	t, exists := tm.tasks[name]
	return exists && t.isRun
}

// RemoveTask 등록된 작업 종료 및 제거
func (tm *TaskManager) RemoveTask(name string, timeout time.Duration) error {
	tm.mu.Lock()
	defer tm.mu.Unlock()

	t, exists := tm.tasks[name]
	if !exists {
		return nil
	}
	if err := t.stop(timeout); err != nil {
		return err
	}
	delete(tm.tasks, name)

	return nil
}

// RunAll 등록되어있는 모든 작업 가동 (이미 동작 중인 작업은 무시)
func (tm *TaskManager) RunAll() {
	tm.mu.Lock()
	defer tm.mu.Unlock()

	for _, t := range tm.tasks {
		tm.start(t)
	}
}

// Run 개별 작업 실행
func (tm *TaskManager) Run(name string) error {
	tm.mu.Lock()
	defer tm.mu.Unlock()

	t, exists := tm.tasks[name]
	if !exists {
		return fmt.Errorf("%w (%s)", ErrTaskNotFound, name)
	}
	tm.start(t)

	return nil
}

// ShutdownAll 동작 중인 모든 작업 종료
func (tm *TaskManager) ShutdownAll(timeout time.Duration) error {
	tm.mu.Lock()
	defer tm.mu.Unlock()

	// 전체 작업 종료 지시
	for _, t := range tm.tasks {
		if t.cancel != nil {
			t.cancel()
		}
	}

	// 전체 작업 종료 대기
	if err := WaitGroupWithTimeout(&tm.parentWG, timeout); err != nil {
		return err
	}

	for _, t := range tm.tasks {
		t.isRun = false
	}

	return nil
}

// Shutdown 개별 작업 종료
func (tm *TaskManager) Shutdown(name string, timeout time.Duration) error {
	tm.mu.Lock()
	defer tm.mu.Unlock()

	if t, exists := tm.tasks[name]; exists {
		return t.stop(timeout)
	}

	return nil
}

// start 작업을 고루틴으로 가동 (호출 시 mu 잠금 필요)
func (tm *TaskManager) start(t *taskUnit) {
	if t.isRun {
		return
	}

	ctx, cancel := context.WithCancel(tm.parentCtx)
	t.cancel = cancel
	t.isRun = true

	tm.parentWG.Add(1)
	t.wg.Add(1)

	go func() {
		defer func() {
			if err := recover(); err != nil {
				if tm.panicHandler != nil {
					tm.panicHandler(err)
				} else {
					fmt.Fprintf(os.Stderr, "panic occurred: %v\n", err)
				}
			}
			t.wg.Done()
			tm.parentWG.Done()
		}()

		t.task(ctx)
	}()
}

// stop 작업 종료 지시 후 대기
func (t *taskUnit) stop(timeout time.Duration) error {
	if t.cancel != nil {
		t.cancel()
		if err := WaitGroupWithTimeout(&t.wg, timeout); err != nil {
			return err
		}
	}
	t.isRun = false
	return nil
}

// WaitGroupWithTimeout 고루틴 종료를 타임아웃만큼 대기하는 함수
// 타임아웃이 0보다 작으면 무한 대기
func WaitGroupWithTimeout(wg *sync.WaitGroup, timeout time.Duration) error {
	if wg == nil {
		return fmt.Errorf("null parameter")
	}

	if timeout < 0 {
		wg.Wait()
		return nil
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		wg.Wait()
	}()

	select {
	case <-done:
		return nil
	case <-time.After(timeout):
		return ErrTimeout
	}
}
