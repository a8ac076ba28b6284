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

package file

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"syscall"

	"github.com/spf13/afero"
)

// Policy 존재 확인 중 발생한 접근 실패(권한, I/O 오류 등)의 처리 방식
type Policy int

const (
	// Lenient 접근 실패를 "파일 아님"으로 간주
	Lenient Policy = iota
	// Strict 접근 실패를 AccessError로 호출자에게 전달
	Strict
)

// Result 경로 검사 결과
type Result struct {
	Path       string `json:"path" yaml:"path"`
	Normalized string `json:"normalized" yaml:"normalized"`
	Kind       Kind   `json:"kind" yaml:"kind"`
	IsFile     bool   `json:"isFile" yaml:"isFile"`
}

// Checker 주입된 파일시스템을 대상으로 경로를 검사
// 생성 이후 상태가 변하지 않으므로 여러 고루틴에서 동시에 사용 가능
type Checker struct {
	fs     afero.Fs
	policy Policy
}

var osChecker = NewChecker(afero.NewOsFs(), Lenient)

// NewChecker 검사기 생성 (fs가 nil이면 호스트 파일시스템 사용)
func NewChecker(fsys afero.Fs, policy Policy) *Checker {
	if fsys == nil {
		fsys = afero.NewOsFs()
	}
	return &Checker{
		fs:     fsys,
		policy: policy,
	}
}

// IsFile 주어진 경로가 현재 존재하는 일반 파일인지 확인하는 함수
// 접근 실패를 포함한 모든 실패는 false로 처리됨
func IsFile(filePath string) bool {
	ok, _ := osChecker.IsFile(filePath)
	return ok
}

// Normalize 경로를 어휘적으로 정규화 (파일시스템 접근 없음)
// 끝의 경로 구분자는 "디렉터리여야 함"을 뜻하므로 유지
func Normalize(filePath string) string {
	cleaned := filepath.Clean(filePath)
	if hasTrailingSeparator(filePath) && !hasTrailingSeparator(cleaned) {
		cleaned += string(filepath.Separator)
	}
	return cleaned
}

func hasTrailingSeparator(p string) bool {
	return len(p) > 0 && os.IsPathSeparator(p[len(p)-1])
}

// IsFile 경로가 일반 파일인지 확인
func (c *Checker) IsFile(filePath string) (bool, error) {
	res, err := c.Probe(filePath)
	if err != nil {
		return false, err
	}
	return res.IsFile, nil
}

// Probe 경로를 정규화한 뒤 존재 여부와 종류를 조회
func (c *Checker) Probe(filePath string) (Result, error) {
	res := Result{
		Path:       filePath,
		Normalized: Normalize(filePath),
		Kind:       KindMissing,
	}

	// 존재 여부 확인 (심볼릭 링크를 따라감, 깨진 링크는 존재하지 않는 것으로 봄)
	target, err := c.fs.Stat(res.Normalized)
	if err != nil {
		if isAbsent(err) {
			return res, nil
		}
		return c.fail(res, "stat", err)
	}

	// 끝에 구분자가 붙은 경로는 디렉터리가 아니면 ENOTDIR과 동일하게 부재로 처리
	// (구분자를 무시하고 조회하는 파일시스템 구현이 있음)
	if hasTrailingSeparator(res.Normalized) && !target.IsDir() {
		return res, nil
	}

	// 종류 확인 (심볼릭 링크를 따라가지 않음)
	info, err := c.lstat(res.Normalized)
	if err != nil {
		// 두 조회 사이에 삭제된 경우
		if isAbsent(err) {
			return res, nil
		}
		return c.fail(res, "lstat", err)
	}

	res.Kind = kindOf(info.Mode())
	res.IsFile = res.Kind == KindRegular
	return res, nil
}

// lstat 파일시스템이 지원하면 Lstat, 아니면 Stat 사용
func (c *Checker) lstat(name string) (os.FileInfo, error) {
	if l, ok := c.fs.(afero.Lstater); ok {
		info, _, err := l.LstatIfPossible(name)
		return info, err
	}
	return c.fs.Stat(name)
}

// fail 정책에 따라 접근 실패를 결과 또는 에러로 변환
func (c *Checker) fail(res Result, op string, err error) (Result, error) {
	res.Kind = KindInaccessible
	if c.policy == Strict {
		return res, &AccessError{Op: op, Path: res.Normalized, Err: unwrapPathError(err)}
	}
	return res, nil
}

// isAbsent 경로 부재를 의미하는 에러인지 확인
// 경로 중간 요소가 디렉터리가 아닌 경우(ENOTDIR)도 부재로 취급
func isAbsent(err error) bool {
	return errors.Is(err, fs.ErrNotExist) || errors.Is(err, syscall.ENOTDIR)
}

// unwrapPathError AccessError가 경로를 직접 담으므로 PathError의 중복 경로 제거
func unwrapPathError(err error) error {
	var pe *fs.PathError
	if errors.As(err, &pe) {
		return pe.Err
	}
	return err
}
