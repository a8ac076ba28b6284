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
	"io/fs"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/afero"
)

// maxLinkHops 경로 해석 시 따라갈 수 있는 최대 심볼릭 링크 수 (리눅스 MAXSYMLINKS)
const maxLinkHops = 40

// WithinRoots 정규화된 절대 경로가 루트 디렉터리 중 하나의 하위에 있는지 어휘적으로 확인
// 루트가 비어있으면 제한 없음
// 상대 경로는 허용되지 않음
func WithinRoots(filePath string, roots []string) bool {
	if len(roots) == 0 {
		return true
	}
	if !filepath.IsAbs(filePath) {
		return false
	}

	p := filepath.Clean(filePath)
	for _, root := range roots {
		if isUnder(filepath.Clean(root), p) {
			return true
		}
	}
	return false
}

// Confined 경로가 실제로 가리키는 위치가 루트 디렉터리 하위인지 확인
// 마지막 요소를 제외한 심볼릭 링크를 모두 해석하므로 루트 안의 링크를 통한 탈출을 막음
// 마지막 요소는 해석하지 않음 (Probe가 링크 자체의 종류를 보고하므로)
// 해석 중 접근 실패가 발생하면 false와 에러 반환
func (c *Checker) Confined(filePath string, roots []string) (bool, error) {
	if len(roots) == 0 {
		return true, nil
	}
	if !WithinRoots(filePath, roots) {
		return false, nil
	}

	realPath, err := c.RealPath(filePath)
	if err != nil {
		return false, err
	}

	for _, root := range roots {
		realRoot, err := c.resolve(filepath.Clean(root), true)
		if err != nil {
			return false, err
		}
		if isUnder(realRoot, realPath) {
			return true, nil
		}
	}
	return false, nil
}

// RealPath 마지막 요소를 제외한 경로의 심볼릭 링크를 해석한 절대 경로 반환
// 끝에 구분자가 붙은 경로는 마지막 요소도 해석 (커널이 링크를 따라가므로)
// 존재하지 않는 요소 이후는 어휘적으로 결합
func (c *Checker) RealPath(filePath string) (string, error) {
	p := Normalize(filePath)
	followLast := hasTrailingSeparator(p)

	abs, err := filepath.Abs(p)
	if err != nil {
		return "", err
	}
	return c.resolve(abs, followLast)
}

// resolve 절대 경로의 요소를 앞에서부터 하나씩 해석
func (c *Checker) resolve(abs string, followLast bool) (string, error) {
	rest := splitPath(abs)
	resolved := string(filepath.Separator)
	hops := 0

	for len(rest) > 0 {
		name := rest[0]
		rest = rest[1:]

		switch name {
		case ".":
			continue
		case "..":
			resolved = filepath.Dir(resolved)
			continue
		}

		next := filepath.Join(resolved, name)
		if len(rest) == 0 && !followLast {
			return next, nil
		}

		target, isLink, err := c.readlink(next)
		if err != nil {
			if isAbsent(err) {
				return filepath.Join(append([]string{next}, rest...)...), nil
			}
			return "", &AccessError{Op: "readlink", Path: next, Err: unwrapPathError(err)}
		}
		if !isLink {
			resolved = next
			continue
		}

		hops++
		if hops > maxLinkHops {
			return "", &AccessError{Op: "readlink", Path: next, Err: syscall.ELOOP}
		}
		if filepath.IsAbs(target) {
			resolved = string(filepath.Separator)
		}
		rest = append(splitPath(target), rest...)
	}

	return resolved, nil
}

// readlink 심볼릭 링크이면 대상 경로 반환
// 링크를 지원하지 않는 파일시스템에서는 항상 링크가 아닌 것으로 봄
func (c *Checker) readlink(name string) (string, bool, error) {
	info, err := c.lstat(name)
	if err != nil {
		return "", false, err
	}
	if info.Mode()&fs.ModeSymlink == 0 {
		return "", false, nil
	}

	r, ok := c.fs.(afero.LinkReader)
	if !ok {
		return "", false, nil
	}
	target, err := r.ReadlinkIfPossible(name)
	if err != nil {
		return "", false, err
	}
	return target, true, nil
}

func splitPath(p string) []string {
	var parts []string
	for _, part := range strings.Split(p, string(filepath.Separator)) {
		if part != "" {
			parts = append(parts, part)
		}
	}
	return parts
}

// isUnder p가 root 자신이거나 root의 하위 경로인지 확인 (둘 다 정리된 절대 경로)
func isUnder(root, p string) bool {
	rel, err := filepath.Rel(root, p)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}
