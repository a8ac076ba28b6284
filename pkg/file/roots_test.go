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

package file_test

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/hoon-x/fileprobe/pkg/file"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithinRoots(t *testing.T) {
	roots := []string{"/srv/data", "/var/lib/fileprobe/"}

	tests := []struct {
		name  string
		path  string
		roots []string
		want  bool
	}{
		{"no roots allows anything", "relative/path", nil, true},
		{"root itself", "/srv/data", roots, true},
		{"file under root", "/srv/data/a/b.txt", roots, true},
		{"file under second root with trailing separator", "/var/lib/fileprobe/x", roots, true},
		{"sibling with common prefix", "/srv/database/x", roots, false},
		{"parent segment escapes root", "/srv/data/../etc/passwd", roots, false},
		{"parent segment stays inside root", "/srv/data/a/../b.txt", roots, true},
		{"relative path rejected", "srv/data/x", roots, false},
		{"outside every root", "/etc/passwd", roots, false},
		{"dot-dot prefixed name inside root", "/srv/data/..hidden", roots, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, file.WithinRoots(tt.path, tt.roots))
		})
	}
}

// newLinkedTree 루트 디렉터리 안에 바깥을 가리키는 링크가 있는 트리 생성
//
//	<dir>/root/inner/a.txt
//	<dir>/root/esc      -> <dir>/outside
//	<dir>/root/alias    -> inner
//	<dir>/root/leaf.txt -> <dir>/outside/secret.txt
//	<dir>/outside/secret.txt
func newLinkedTree(t *testing.T) (root, outside string) {
	t.Helper()

	dir, err := filepath.EvalSymlinks(t.TempDir())
	require.NoError(t, err)
	root = filepath.Join(dir, "root")
	outside = filepath.Join(dir, "outside")

	require.NoError(t, os.MkdirAll(filepath.Join(root, "inner"), 0755))
	require.NoError(t, os.MkdirAll(outside, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "inner", "a.txt"), []byte("a"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(outside, "secret.txt"), []byte("secret"), 0644))
	require.NoError(t, os.Symlink(outside, filepath.Join(root, "esc")))
	require.NoError(t, os.Symlink("inner", filepath.Join(root, "alias")))
	require.NoError(t, os.Symlink(filepath.Join(outside, "secret.txt"), filepath.Join(root, "leaf.txt")))
	return root, outside
}

func TestChecker_Confined(t *testing.T) {
	root, outside := newLinkedTree(t)
	roots := []string{root}
	checker := file.NewChecker(nil, file.Strict)

	tests := []struct {
		name string
		path string
		want bool
	}{
		{"file under root", filepath.Join(root, "inner", "a.txt"), true},
		{"root itself", root, true},
		{"missing file under root", filepath.Join(root, "inner", "missing.txt"), true},
		{"file through a link leaving root", filepath.Join(root, "esc", "secret.txt"), false},
		{"missing file through a link leaving root", filepath.Join(root, "esc", "missing.txt"), false},
		{"link leaving root named as a directory", filepath.Join(root, "esc") + "/", false},
		{"link leaving root as the last element", filepath.Join(root, "esc"), true},
		{"file through a link staying inside root", filepath.Join(root, "alias", "a.txt"), true},
		{"leaf link to an outside file", filepath.Join(root, "leaf.txt"), true},
		{"parent segment cancels a link before resolution", filepath.Join(root, "esc") + "/../inner/a.txt", true},
		{"lexically outside root", filepath.Join(outside, "secret.txt"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, err := checker.Confined(tt.path, roots)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ok)
		})
	}
}

func TestChecker_ConfinedRootBehindLink(t *testing.T) {
	root, _ := newLinkedTree(t)
	alias := filepath.Join(filepath.Dir(root), "root-alias")
	require.NoError(t, os.Symlink(root, alias))

	checker := file.NewChecker(nil, file.Strict)

	ok, err := checker.Confined(filepath.Join(alias, "inner", "a.txt"), []string{alias})
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = checker.Confined(filepath.Join(alias, "esc", "secret.txt"), []string{alias})
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestChecker_ConfinedLinkLoop(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.Symlink("loop", filepath.Join(dir, "loop")))

	checker := file.NewChecker(nil, file.Strict)

	ok, err := checker.Confined(filepath.Join(dir, "loop", "x"), []string{dir})
	assert.False(t, ok)
	assert.Error(t, err)
}

func TestChecker_ConfinedWithoutLinkSupport(t *testing.T) {
	mem := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(mem, "/srv/data/a.txt", []byte("a"), 0644))

	checker := file.NewChecker(mem, file.Strict)
	roots := []string{"/srv/data"}

	ok, err := checker.Confined("/srv/data/a.txt", roots)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = checker.Confined("/srv/data/../other/a.txt", roots)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = checker.Confined("relative/a.txt", nil)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestChecker_RealPath(t *testing.T) {
	root, outside := newLinkedTree(t)
	checker := file.NewChecker(nil, file.Strict)

	tests := []struct {
		name string
		path string
		want string
	}{
		{"plain path", filepath.Join(root, "inner", "a.txt"), filepath.Join(root, "inner", "a.txt")},
		{"intermediate link resolved", filepath.Join(root, "esc", "secret.txt"), filepath.Join(outside, "secret.txt")},
		{"relative link resolved", filepath.Join(root, "alias", "a.txt"), filepath.Join(root, "inner", "a.txt")},
		{"last element kept", filepath.Join(root, "leaf.txt"), filepath.Join(root, "leaf.txt")},
		{"trailing separator follows last element", filepath.Join(root, "esc") + "/", outside},
		{"missing tail joined", filepath.Join(root, "esc", "x", "y"), filepath.Join(outside, "x", "y")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := checker.RealPath(tt.path)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestKind_Text(t *testing.T) {
	res := file.Result{Path: "a", Normalized: "a", Kind: file.KindDirectory}

	data, err := json.Marshal(res)
	require.NoError(t, err)
	assert.JSONEq(t, `{"path":"a","normalized":"a","kind":"directory","isFile":false}`, string(data))

	var back file.Result
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, res, back)

	var k file.Kind
	assert.Error(t, k.UnmarshalText([]byte("socket")))
	assert.Equal(t, "Kind(42)", file.Kind(42).String())
}
