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

package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/hoon-x/fileprobe/internal/logger"
	"github.com/hoon-x/fileprobe/pkg/file"
	"github.com/spf13/cobra"
	"go.yaml.in/yaml/v2"
)

var errNotAllFiles = errors.New("not every path is a regular file")

type checkOptions struct {
	strict bool
	output string
	debug  bool
}

func newCheckCmd() *cobra.Command {
	var opts checkOptions

	cmd := &cobra.Command{
		Use:   "check PATH...",
		Short: "Report whether each path is an existing regular file",
		Example: `  fileprobe check ./data/sample.txt
  fileprobe check --strict -o json /etc/hosts /etc`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true

			logger.InitializeConsoleLogger(cmd.ErrOrStderr(), opts.debug)
			defer logger.FinalizeLogger()

			return runCheck(cmd.OutOrStdout(), file.NewChecker(nil, opts.policy()), args, opts.output)
		},
	}

	cmd.Flags().BoolVar(&opts.strict, "strict", false, "report access failures (permission denied, I/O errors) as errors")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "text", "output format: text, json or yaml")
	cmd.Flags().BoolVar(&opts.debug, "debug", false, "enable debug logging on stderr")

	return cmd
}

func (o checkOptions) policy() file.Policy {
	if o.strict {
		return file.Strict
	}
	return file.Lenient
}

// runCheck 경로를 순서대로 검사하고 결과 출력
// 하나라도 일반 파일이 아니면 errNotAllFiles 반환
func runCheck(w io.Writer, checker *file.Checker, paths []string, output string) error {
	if output != "text" && output != "json" && output != "yaml" {
		return fmt.Errorf("unknown output format %q", output)
	}

	results := make([]file.Result, 0, len(paths))
	allFiles := true
	for _, p := range paths {
		res, err := checker.Probe(p)
		if err != nil {
			return err
		}
		logger.LogDebug("probe %q -> %s (%s)", p, res.Kind, res.Normalized)
		if res.Kind == file.KindInaccessible {
			logger.LogWarn("cannot inspect %s, treating as not a file", res.Normalized)
		}

		allFiles = allFiles && res.IsFile
		results = append(results, res)
	}

	if err := writeResults(w, results, output); err != nil {
		return err
	}

	if !allFiles {
		return errNotAllFiles
	}
	return nil
}

func writeResults(w io.Writer, results []file.Result, output string) error {
	switch output {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	case "yaml":
		data, err := yaml.Marshal(results)
		if err != nil {
			return err
		}
		_, err = w.Write(data)
		return err
	default:
		for _, res := range results {
			if _, err := fmt.Fprintf(w, "%s\t%s\n", res.Kind, res.Path); err != nil {
				return err
			}
		}
		return nil
	}
}
