// Copyright 2015 Google Inc. All rights reserved
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// newExtraActionCmd reports a fixture's extra-action description at its
// current (pre-execution) state, without ever spawning the compiler: only
// discovery runs, so this is safe to use against a fixture whose argv names
// a compiler that is not actually installed.
func newExtraActionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "extra-action <fixture.yaml>",
		Short: "Print the extra-action description after discovery, without compiling",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := loadActionFixture(args[0])
			if err != nil {
				return err
			}
			a, err := buildAction(f, featureSetFromViper(v))
			if err != nil {
				return err
			}
			st, err := discoverWithRetry(a)
			if err != nil {
				return err
			}
			info := a.GetExtraActionInfo(st)
			out, err := yaml.Marshal(info)
			if err != nil {
				return err
			}
			fmt.Print(string(out))
			return nil
		},
	}
}
