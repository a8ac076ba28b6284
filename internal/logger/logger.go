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
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

type syncLogger struct {
	fileLogger *lumberjack.Logger
	zapLogger  *zap.Logger
}

// 초기화 전에는 모든 로그를 버림
var logger = syncLogger{zapLogger: zap.NewNop()}

// baseEncoderConfig 파일/콘솔 공통 로그 레이아웃
func baseEncoderConfig() zapcore.EncoderConfig {
	return zapcore.EncoderConfig{
		MessageKey:       "msg",
		LevelKey:         "level",
		TimeKey:          "time",
		StacktraceKey:    "stacktrace",
		LineEnding:       zapcore.DefaultLineEnding,
		EncodeLevel:      capitalLevelEncoder,
		EncodeTime:       zapcore.TimeEncoderOfLayout("[2006-01-02 15:04:05]"),
		EncodeDuration:   zapcore.SecondsDurationEncoder,
		ConsoleSeparator: " ",
	}
}

// InitializeLogger 데몬용 로거 초기화 (파일 로테이션 + 디버그 모드 콘솔 출력)
func InitializeLogger(logPath string, maxSize, maxBackups, maxAge int, compress, debug bool) {
	var cores []zapcore.Core

	// Lumberjack 설정: 로그 파일의 로테이션(용량 제한, 보관 기간 등)을 관리
	logger.fileLogger = &lumberjack.Logger{
		Filename:   logPath,
		MaxSize:    maxSize,
		MaxBackups: maxBackups,
		MaxAge:     maxAge,
		Compress:   compress,
	}

	// Info 레벨 이상의 로그만 파일에 저장 (Caller 정보 없음)
	fileEncoder := zapcore.NewConsoleEncoder(baseEncoderConfig())
	cores = append(cores, zapcore.NewCore(fileEncoder, zapcore.AddSync(logger.fileLogger), zapcore.InfoLevel))

	// 디버그 모드에서는 Debug 레벨 로그만 Caller 정보와 함께 콘솔로 출력
	if debug {
		onlyDebugLevel := zap.LevelEnablerFunc(func(l zapcore.Level) bool {
			return l == zapcore.DebugLevel
		})
		cores = append(cores, zapcore.NewCore(debugEncoder(), zapcore.AddSync(os.Stdout), onlyDebugLevel))
	}

	build(zapcore.NewTee(cores...))
}

// InitializeConsoleLogger CLI용 로거 초기화 (표준 에러 출력)
// 기본은 Warn 레벨 이상, 디버그 모드에서는 Debug 레벨 이상 출력
func InitializeConsoleLogger(w io.Writer, debug bool) {
	level := zapcore.WarnLevel
	encoder := zapcore.NewConsoleEncoder(baseEncoderConfig())
	if debug {
		level = zapcore.DebugLevel
		encoder = debugEncoder()
	}

	logger.fileLogger = nil
	build(zapcore.NewCore(encoder, zapcore.AddSync(w), level))
}

// debugEncoder Caller 정보를 포함하는 인코더
func debugEncoder() zapcore.Encoder {
	conf := baseEncoderConfig()
	conf.CallerKey = "caller"
	conf.EncodeCaller = shortCallerEncoder
	return zapcore.NewConsoleEncoder(conf)
}

// build 최종 로거 생성
func build(core zapcore.Core) {
	logger.zapLogger = zap.New(core,
		zap.AddCaller(),
		zap.AddCallerSkip(1),
		zap.AddStacktrace(zapcore.PanicLevel))
}

// FinalizeLogger 로거 자원 정리
func FinalizeLogger() {
	logger.zapLogger.Sync()
	if logger.fileLogger != nil {
		logger.fileLogger.Close()
	}
}

// capitalLevelEncoder zapcore의 CapitalLevelEncoder() 메서드 커스터마이징
func capitalLevelEncoder(l zapcore.Level, enc zapcore.PrimitiveArrayEncoder) {
	enc.AppendString("[" + l.CapitalString() + "]")
}

// shortCallerEncoder zapcore의 ShortCallerEncoder() 메서드 커스터마이징
func shortCallerEncoder(caller zapcore.EntryCaller, enc zapcore.PrimitiveArrayEncoder) {
	enc.AppendString("[" + caller.TrimmedPath() + "]")
}

// LogDebug DEBUG 레벨 로깅
func LogDebug(format string, args ...interface{}) {
	logger.zapLogger.Debug(fmt.Sprintf(format, args...))
}

// LogInfo INFO 레벨 로깅
func LogInfo(format string, args ...interface{}) {
	logger.zapLogger.Info(fmt.Sprintf(format, args...))
}

// LogWarn WARNING 레벨 로깅
func LogWarn(format string, args ...interface{}) {
	logger.zapLogger.Warn(fmt.Sprintf(format, args...))
}

// LogError ERROR 레벨 로깅
func LogError(format string, args ...interface{}) {
	logger.zapLogger.Error(fmt.Sprintf(format, args...))
}

// LogPanic PANIC 레벨 로깅
// 주의: Panic 발생됨
func LogPanic(format string, args ...interface{}) {
	logger.zapLogger.Panic(fmt.Sprintf(format, args...))
}

// LogFatal FATAL 레벨 로깅
// 주의: os.Exit(1) 실행됨
func LogFatal(format string, args ...interface{}) {
	logger.zapLogger.Fatal(fmt.Sprintf(format, args...))
}
