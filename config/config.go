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
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"go.yaml.in/yaml/v2"
)

// 빌드 시 값 설정됨
var (
	ModuleName = "fileprobe"
	Version    = "unknown"
	BuildDate  = "unknown"
	Commit     = "unknown"
)

var (
	LogFilePath  = "log/" + ModuleName + ".log"
	ConfFilePath = "config/" + ModuleName + ".yaml"
	PidFilePath  = "var/." + ModuleName + ".pid"
)

const (
	defaultHost       = "127.0.0.1"
	defaultPort       = 8443
	defaultMaxSize    = 10
	defaultMaxBackups = 5
	defaultMaxAge     = 30
)

var (
	ErrInvalidPort  = errors.New("server port out of range")
	ErrRelativeRoot = errors.New("probe root must be an absolute path")
)

type Config struct {
	// 서버 설정
	Server struct {
		// 서버 리스닝 주소
		Host string `yaml:"host"`
		// 서버 리스닝 포트
		Port int `yaml:"port"`
		// TLS 인증서 파일 경로
		TlsCertPath string `yaml:"tlsCertPath"`
		TlsKeyPath  string `yaml:"tlsKeyPath"`
	} `yaml:"server"`

	// 경로 검사 설정
	Probe struct {
		// 접근 실패를 에러로 보고할지 여부
		Strict bool `yaml:"strict"`
		// 검사 허용 루트 디렉터리 (비어있으면 제한 없음)
		Roots []string `yaml:"roots"`
	} `yaml:"probe"`

	// 로그 설정
	Log struct {
		// 최대 로그 파일 사이즈 (단위:MB)
		MaxSize int `yaml:"maxSize"`
		// 최대 로그 파일 백업 개수
		MaxBackups int `yaml:"maxBackups"`
		// 백업 로그 파일 최대 유지 기간 (단위:일)
		MaxAge int `yaml:"maxAge"`
		// 로그 파일 백업 시 압축 여부
		Compress bool `yaml:"compress"`
	} `yaml:"log"`
}

type RunConfig struct {
	Debug bool
	Pid   int
}

var Conf Config
var RunConf RunConfig

// LoadConfig YAML 설정 파일 로드
func (c *Config) LoadConfig() error {
	return c.LoadConfigFrom(ConfFilePath)
}

// LoadConfigFrom 지정한 경로의 YAML 설정 파일 로드 후 기본값 적용 및 검증
func (c *Config) LoadConfigFrom(confPath string) error {
	// YAML 설정 파일 오픈
	file, err := os.Open(confPath)
	if err != nil {
		return err
	}
	defer file.Close()

	// YAML 파싱
	if err := yaml.NewDecoder(file).Decode(c); err != nil {
		return fmt.Errorf("failed to parse %s: %w", confPath, err)
	}

	c.applyDefaults()

	return c.Validate()
}

// applyDefaults 비어있는 항목에 기본값 설정
func (c *Config) applyDefaults() {
	if c.Server.Host == "" {
		c.Server.Host = defaultHost
	}
	if c.Server.Port == 0 {
		c.Server.Port = defaultPort
	}
	if c.Server.TlsCertPath == "" {
		c.Server.TlsCertPath = "cert/" + ModuleName + ".crt"
	}
	if c.Server.TlsKeyPath == "" {
		c.Server.TlsKeyPath = "cert/" + ModuleName + ".key"
	}
	if c.Log.MaxSize == 0 {
		c.Log.MaxSize = defaultMaxSize
	}
	if c.Log.MaxBackups == 0 {
		c.Log.MaxBackups = defaultMaxBackups
	}
	if c.Log.MaxAge == 0 {
		c.Log.MaxAge = defaultMaxAge
	}
}

// Validate 설정값 검증 (루트 경로는 정규화됨)
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("%w: %d", ErrInvalidPort, c.Server.Port)
	}

	for i, root := range c.Probe.Roots {
		if !filepath.IsAbs(root) {
			return fmt.Errorf("%w: %q", ErrRelativeRoot, root)
		}
		c.Probe.Roots[i] = filepath.Clean(root)
	}

	return nil
}
