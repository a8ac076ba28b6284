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

package cmd

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/hoon-x/fileprobe/config"
	"github.com/hoon-x/fileprobe/internal/ipc"
	"github.com/hoon-x/fileprobe/internal/logger"
	"github.com/hoon-x/fileprobe/internal/server"
	"github.com/hoon-x/fileprobe/pkg/proc"
	"github.com/hoon-x/fileprobe/pkg/task"
	"github.com/spf13/cobra"
	"go.uber.org/automaxprocs/maxprocs"
)

// 종료 코드
const (
	exitOK      = 0
	exitNotFile = 1
	exitFailure = 2
)

var rootCmd = &cobra.Command{
	Use:   config.ModuleName,
	Short: "Regular file probe for scripts and remote agents",
	Long: `fileprobe answers one question: does this path point to a regular
file that exists right now?

Paths are normalized lexically before probing. Directories, symlinks,
devices and missing paths are all "not a file". Access failures
(permission denied, I/O errors) are treated as "not a file" unless
strict mode is enabled, in which case they are reported as errors.

Modes:
  - check: one-shot probe of the given paths (exit 0 when all are files)
  - start/debug/stop: HTTPS probe API daemon`,
	Version: config.Version + ", Build Date: " + config.BuildDate + ", Commit: " + config.Commit,
}
var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Run " + config.ModuleName + " daemon (mode: normal)",
	Args:  cobra.NoArgs,
	RunE:  wrapCmdFuncForCobra(run),
}
var debugCmd = &cobra.Command{
	Use:   "debug",
	Short: "Run " + config.ModuleName + " in the foreground (mode: debug)",
	Args:  cobra.NoArgs,
	RunE:  wrapCmdFuncForCobra(run),
}
var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Shutdown " + config.ModuleName + " daemon",
	Args:  cobra.NoArgs,
	RunE:  wrapCmdFuncForCobra(shutdown),
}

var taskManager *task.TaskManager

func init() {
	// 에러 메시지는 Execute에서 한 번만 출력
	rootCmd.SilenceErrors = true
	rootCmd.AddCommand(newCheckCmd(), startCmd, debugCmd, stopCmd)
}

// Execute 프로그램 진입점 역할을 수행하며, 설정된 모든 명령어 실행
func Execute() {
	// 컨테이너(Docker/K8s) 환경의 CPU 할당량에 맞춰 GOMAXPROCS를 자동으로 최적화
	undo, err := maxprocs.Set()
	if err != nil {
		fmt.Fprintf(os.Stderr, "[WARN] Failed to set GOMAXPROCS: %v\n", err)
	}
	defer undo()

	err = rootCmd.Execute()
	code := exitCode(err)
	if code == exitFailure {
		fmt.Fprintf(os.Stderr, "[ERROR] %v\n", err)
	}
	if code != exitOK {
		undo()
		os.Exit(code)
	}
}

// exitCode 에러를 종료 코드로 변환
func exitCode(err error) int {
	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, errNotAllFiles):
		return exitNotFile
	default:
		return exitFailure
	}
}

// wrapCmdFuncForCobra cobra.Command의 RunE 함수 원형에 맞게 기존 비즈니스 로직 함수를 감싸는(Wrap) 헬퍼 함수
func wrapCmdFuncForCobra(f func(cmd *cobra.Command) error) func(cmd *cobra.Command, _ []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		// cobra에서 출력하는 에러 메시지 무시
		cmd.SilenceErrors = true
		cmd.SilenceUsage = true
		return f(cmd)
	}
}

// run 데몬 가동
func run(cmd *cobra.Command) error {
	// 작업 경로를 실행 파일이 위치한 경로로 변경
	if err := chdirToExecutableDir(); err != nil {
		return fmt.Errorf("failed to change working path: %w", err)
	}

	// 이미 동작 중인지 확인
	if pid, ok := proc.IsRunning(config.PidFilePath, config.ModuleName); ok {
		fmt.Fprintf(os.Stderr, "[INFO] %s is already running (pid:%d)\n", config.ModuleName, pid)
		return nil
	}

	if cmd.Use == "debug" {
		config.RunConf.Debug = true
	} else {
		// 프로세스 데몬화
		if err := daemonize(); err != nil {
			return fmt.Errorf("failed to daemonize process: %w", err)
		}
		// 파일이나 디렉터리 생성 시 적용되는 기본 권한 마스크 제거
		syscall.Umask(0)
	}

	config.RunConf.Pid = os.Getpid()

	if err := proc.WritePidFile(config.PidFilePath, config.RunConf.Pid); err != nil {
		return fmt.Errorf("failed to write PID file: %w", err)
	}
	defer os.Remove(config.PidFilePath)

	sigChan := setSignal()
	defer signal.Stop(sigChan)

	if err := config.Conf.LoadConfig(); err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// 표준 입출력, 에러를 /dev/null로 리다이렉트
	if err := redirectToDevNull(config.RunConf.Debug); err != nil {
		return fmt.Errorf("failed to redirect stdin,stdout,stderr to /dev/null: %w", err)
	}

	initialize()
	logger.LogInfo("Run %s (pid:%d)", config.ModuleName, config.RunConf.Pid)

	// 등록된 모든 작업 가동
	taskManager.RunAll()

	// 종료 시그널 대기 (SIGINT, SIGTERM)
	sig := <-sigChan

	logger.LogInfo("Received %s (signum:%d)", sig.String(), sig)

	finalize()

	return nil
}

// shutdown 데몬 정지
func shutdown(cmd *cobra.Command) error {
	if err := chdirToExecutableDir(); err != nil {
		return fmt.Errorf("failed to change working path: %w", err)
	}

	pid, ok := proc.IsRunning(config.PidFilePath, config.ModuleName)
	if !ok {
		return nil
	}

	// 프로세스에 종료 시그널 전송
	if err := proc.SendSignal(pid, syscall.SIGTERM); err != nil {
		return fmt.Errorf("failed to send signal (pid:%d): %w", pid, err)
	}

	return nil
}

// chdirToExecutableDir 프로세스 작업 경로를 실행 파일이 위치한 경로로 변경
func chdirToExecutableDir() error {
	exePath, err := os.Executable()
	if err != nil {
		return err
	}

	return os.Chdir(filepath.Dir(exePath))
}

// daemonize 프로세스 데몬화
func daemonize() error {
	// 이미 데몬 프로세스인지 확인
	if os.Getppid() == 1 || os.Getenv("IS_DAEMON") == "1" {
		return nil
	}

	exePath, err := os.Executable()
	if err != nil {
		return err
	}

	// 자식 프로세스 설정
	cmd := exec.Command(exePath, os.Args[1:]...)
	cmd.Env = append(os.Environ(), "IS_DAEMON=1")
	cmd.SysProcAttr = &syscall.SysProcAttr{
		Setsid: true,
	}
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Start(); err != nil {
		return err
	}

	// 부모 프로세스 종료
	os.Exit(0)

	return nil
}

// redirectToDevNull 표준 출력/에러를 /dev/null로 리다이렉트
func redirectToDevNull(debug bool) error {
	file, err := os.OpenFile(os.DevNull, os.O_RDWR, 0)
	if err != nil {
		return err
	}
	defer file.Close()

	if err := syscall.Dup2(int(file.Fd()), int(os.Stdin.Fd())); err != nil {
		return err
	}
	if !debug {
		if err := syscall.Dup2(int(file.Fd()), int(os.Stdout.Fd())); err != nil {
			return err
		}
		if err := syscall.Dup2(int(file.Fd()), int(os.Stderr.Fd())); err != nil {
			return err
		}
	}

	return nil
}

// setSignal 시그널 설정
func setSignal() chan os.Signal {
	sigChan := make(chan os.Signal, 1)
	// 수신할 시그널 설정 (SIGINT, SIGTERM)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	// 무시할 시그널 설정
	signal.Ignore(syscall.SIGHUP, syscall.SIGPIPE, syscall.SIGTTIN, syscall.SIGTTOU,
		syscall.SIGTSTP, syscall.SIGQUIT, syscall.SIGWINCH, syscall.SIGURG)

	return sigChan
}

// initialize 모듈 초기화
func initialize() {
	logger.InitializeLogger(config.LogFilePath,
		config.Conf.Log.MaxSize, config.Conf.Log.MaxBackups,
		config.Conf.Log.MaxAge, config.Conf.Log.Compress,
		config.RunConf.Debug)

	taskManager = task.NewTaskManager(panicHandler)

	taskManager.AddTask("server", server.Run)
	taskManager.AddTask("ipc_manager", ipc.Run)
}

// finalize 모듈 자원 정리
func finalize() {
	// 가동중인 모든 작업 종료 지시
	if err := taskManager.ShutdownAll(10 * time.Second); err != nil {
		logger.LogWarn("All tasks have not been completed: %v", err)
	}
	logger.LogInfo("Shutdown %s (pid:%d)", config.ModuleName, config.RunConf.Pid)

	logger.FinalizeLogger()
}

// panicHandler 고루틴 패닉 핸들러
func panicHandler(err interface{}) {
	logger.LogError("panic occurred: %v", err)
}
