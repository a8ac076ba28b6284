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

package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/hoon-x/fileprobe/config"
	"github.com/hoon-x/fileprobe/internal/logger"
	"github.com/hoon-x/fileprobe/pkg/file"
)

// MaxBatchSize 일괄 검사 요청 1건당 최대 경로 수
const MaxBatchSize = 256

type Handler struct {
	checker *file.Checker
	roots   []string
}

type probeRequest struct {
	Paths []string `json:"paths"`
}

// New 핸들러 생성
func New(checker *file.Checker, roots []string) *Handler {
	return &Handler{
		checker: checker,
		roots:   roots,
	}
}

// Health [GET /healthz] 상태 확인
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"version": config.Version,
	})
}

// Probe [GET /api/v1/probe?path=] 단일 경로 검사
func (h *Handler) Probe(c *gin.Context) {
	p, ok := c.GetQuery("path")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "path query parameter is required"})
		return
	}

	res, err := h.checker.Probe(p)
	if err != nil {
		h.accessFailure(c, err)
		return
	}

	c.JSON(http.StatusOK, res)
}

// ProbeBatch [POST /api/v1/probe] 여러 경로 일괄 검사
func (h *Handler) ProbeBatch(c *gin.Context) {
	var req probeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if len(req.Paths) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "paths must not be empty"})
		return
	}
	if len(req.Paths) > MaxBatchSize {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "too many paths"})
		return
	}

	// 한 건이라도 허용 루트 밖이면 전체 거부
	for _, p := range req.Paths {
		allowed, err := h.checker.Confined(p, h.roots)
		if err != nil {
			logger.LogWarn("Failed to resolve %s: %v", p, err)
		}
		if !allowed {
			logger.LogWarn("Rejected path outside roots: %s", p)
			c.JSON(http.StatusForbidden, gin.H{"error": "path is outside the allowed roots", "path": p})
			return
		}
	}

	results := make([]file.Result, 0, len(req.Paths))
	for _, p := range req.Paths {
		res, err := h.checker.Probe(p)
		if err != nil {
			h.accessFailure(c, err)
			return
		}
		results = append(results, res)
	}

	c.JSON(http.StatusOK, gin.H{"results": results})
}

// accessFailure Strict 정책의 접근 실패 응답
func (h *Handler) accessFailure(c *gin.Context, err error) {
	logger.LogError("Probe failed: %v", err)

	var accessErr *file.AccessError
	if errors.As(err, &accessErr) {
		c.JSON(http.StatusInternalServerError, gin.H{"error": accessErr.Err.Error(), "path": accessErr.Path})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}
