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

	"github.com/hermetic-build/ccompile"
	"github.com/spf13/cobra"
)

// newValidateOnlyCmd runs strict-deps validation against the scanner's
// picture of what a source file uses, without ever invoking the compiler.
// Useful for checking a fixture's declared include dirs/srcs against its
// actual #include graph before wiring it into a real build.
func newValidateOnlyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate-only <fixture.yaml>",
		Short: "Run strict-deps validation against the scanned include set and exit",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := loadActionFixture(args[0])
			if err != nil {
				return err
			}
			fs := featureSetFromViper(v)
			fs.DotdScanning = false   // force the pre-execution validation path
			fs.IncludeScanning = true // this subcommand's whole point is the scanned include set
			a, err := buildAction(f, fs)
			if err != nil {
				return err
			}
			st, err := discoverWithRetry(a)
			if err != nil {
				var undeclared *ccompile.UndeclaredInclusionError
				if asUndeclaredInclusionError(err, &undeclared) {
					fmt.Print(undeclared.Error())
					return fmt.Errorf("strict-deps validation failed for %s", a.Label)
				}
				return err
			}
			fmt.Printf("%s: all %d scanned header(s) declared\n", a.Label, len(st.InputsForValidation))
			return nil
		},
	}
}

func asUndeclaredInclusionError(err error, target **ccompile.UndeclaredInclusionError) bool {
	if e, ok := err.(*ccompile.UndeclaredInclusionError); ok {
		*target = e
		return true
	}
	return false
}
