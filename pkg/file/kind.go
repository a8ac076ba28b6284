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
	"fmt"
	"io/fs"
)

// Kind 파일시스템 엔트리 종류
type Kind int

const (
	KindMissing Kind = iota
	KindRegular
	KindDirectory
	KindSymlink
	KindOther
	KindInaccessible
)

var kindNames = map[Kind]string{
	KindMissing:      "missing",
	KindRegular:      "regular",
	KindDirectory:    "directory",
	KindSymlink:      "symlink",
	KindOther:        "other",
	KindInaccessible: "inaccessible",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// MarshalText JSON/YAML 출력 시 이름으로 직렬화
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText 이름으로부터 Kind 복원
func (k *Kind) UnmarshalText(text []byte) error {
	for kind, name := range kindNames {
		if name == string(text) {
			*k = kind
			return nil
		}
	}
	return fmt.Errorf("unknown kind %q", text)
}

// kindOf 모드 비트로부터 종류 판별
func kindOf(mode fs.FileMode) Kind {
	switch {
	case mode.IsRegular():
		return KindRegular
	case mode.IsDir():
		return KindDirectory
	case mode&fs.ModeSymlink != 0:
		return KindSymlink
	default:
		return KindOther
	}
}
