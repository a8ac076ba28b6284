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

package server

import (
	"context"
	"crypto/tls"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/hoon-x/fileprobe/config"
	"github.com/hoon-x/fileprobe/internal/ipc"
	"github.com/hoon-x/fileprobe/internal/logger"
	"github.com/hoon-x/fileprobe/internal/router"
	"github.com/hoon-x/fileprobe/pkg/cert"
	"github.com/hoon-x/fileprobe/pkg/file"
)

// Run 서버 가동
func Run(ctx context.Context) {
	var once sync.Once

	shutdown := func() {
		once.Do(func() {
			ipc.SendIpcEvt(ipc.Shutdown)
		})
	}

	// 서버 종료 시 프로세스가 종료될 수 있도록 함
	defer shutdown()

	if err := Serve(ctx, &config.Conf, config.RunConf.Debug, shutdown); err != nil {
		logger.LogError("%v", err)
	}
}

// Serve 설정에 따라 TLS 서버를 가동하고 ctx 종료 시까지 대기
// 가동 이후 서버 오류 발생 시 onFailure 호출
func Serve(ctx context.Context, conf *config.Config, debug bool, onFailure func()) error {
	tlsConf, err := loadTLSConfig(conf)
	if err != nil {
		return err
	}

	policy := file.Lenient
	if conf.Probe.Strict {
		policy = file.Strict
	}
	checker := file.NewChecker(nil, policy)

	server := &http.Server{
		Addr:           net.JoinHostPort(conf.Server.Host, strconv.Itoa(conf.Server.Port)),
		Handler:        router.NewGinRouterEngine(checker, conf.Probe.Roots, debug),
		ReadTimeout:    10 * time.Second,
		WriteTimeout:   10 * time.Second,
		MaxHeaderBytes: 1 << 20,
		TLSConfig:      tlsConf,
	}

	go func() {
		logger.LogInfo("Listening on %s (strict:%t, roots:%v)", server.Addr, conf.Probe.Strict, conf.Probe.Roots)
		err := server.ListenAndServeTLS("", "")
		if err != nil && err != http.ErrServerClosed {
			logger.LogError("Server error occurred: %v", err)
			if onFailure != nil {
				onFailure()
			}
		}
	}()

	// 종료 이벤트 감지
	<-ctx.Done()

	// 서버 종료 시 5초 타임아웃 설정
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.LogWarn("Failed to shutdown server: %v", err)
	}

	return nil
}

// loadTLSConfig TLS 인증서 로드 (인증서 파일이 없으면 새로 생성)
func loadTLSConfig(conf *config.Config) (*tls.Config, error) {
	certPath, keyPath := conf.Server.TlsCertPath, conf.Server.TlsKeyPath

	if !file.IsFile(certPath) || !file.IsFile(keyPath) {
		logger.LogInfo("Generating self-signed TLS certificate (%s)", certPath)
		err := cert.GenTLSCertificate(certPath, keyPath, config.ModuleName, 365, "localhost", conf.Server.Host)
		if err != nil {
			return nil, err
		}
	}

	pair, err := tls.LoadX509KeyPair(certPath, keyPath)
	if err != nil {
		return nil, err
	}

	return &tls.Config{
		Certificates: []tls.Certificate{pair},
		// 애플리케이션 계층 프로토콜(HTTP/1.1, HTTP/2) 설정
		NextProtos: []string{"h2", "http/1.1"},
		MinVersion: tls.VersionTLS12,
	}, nil
}
