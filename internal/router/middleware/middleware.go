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

package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hoon-x/fileprobe/internal/logger"
	"github.com/hoon-x/fileprobe/pkg/file"
)

// RequestLogger 요청 결과를 모듈 로그로 기록하는 미들웨어
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		msg := "%s %s %d %s (%s)"
		args := []interface{}{c.Request.Method, c.Request.URL.Path, status, time.Since(start), c.ClientIP()}
		if status >= http.StatusInternalServerError {
			logger.LogError(msg, args...)
		} else {
			logger.LogInfo(msg, args...)
		}
	}
}

// ConfineToRoots path 쿼리 파라미터가 허용 루트 하위인지 검사하는 미들웨어
// 루트가 비어있으면 모든 경로 허용
// 경로 중간의 심볼릭 링크는 해석 후 검사하며, 해석에 실패하면 거부
func ConfineToRoots(checker *file.Checker, roots []string) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, ok := c.GetQuery("path")
		if !ok {
			c.Next()
			return
		}

		allowed, err := checker.Confined(p, roots)
		if err != nil {
			logger.LogWarn("Failed to resolve %s: %v", p, err)
		}
		if allowed {
			c.Next()
			return
		}

		logger.LogWarn("Rejected path outside roots: %s", p)
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
			"error": "path is outside the allowed roots",
			"path":  p,
		})
	}
}
