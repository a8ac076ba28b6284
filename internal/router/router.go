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

package router

import (
	"github.com/gin-gonic/gin"
	"github.com/hoon-x/fileprobe/internal/router/handler"
	"github.com/hoon-x/fileprobe/internal/router/middleware"
	"github.com/hoon-x/fileprobe/pkg/file"
)

// NewGinRouterEngine gin 프레임워크 엔진 생성
func NewGinRouterEngine(checker *file.Checker, roots []string, debug bool) *gin.Engine {
	// gin 동작 모드 설정
	if debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(middleware.RequestLogger())
	r.Use(gin.Recovery())

	h := handler.New(checker, roots)

	r.GET("/healthz", h.Health)

	v1 := r.Group("/api/v1")
	v1.GET("/probe", middleware.ConfineToRoots(checker, roots), h.Probe)
	v1.POST("/probe", h.ProbeBatch)

	return r
}
