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
	"context"
	"fmt"

	"github.com/golang/glog"
	"github.com/hermetic-build/ccompile"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func newCompileCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compile <fixture.yaml>",
		Short: "Discover inputs, run the compiler, and validate its inclusions",
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

			st, err = a.Execute(context.Background(), st)
			if err != nil {
				return err
			}

			st, err = a.ComputeKey(st)
			if err != nil {
				return err
			}
			glog.V(1).Infof("compile(%s): key=%s", a.Label, st.Key)

			info := a.GetExtraActionInfo(st)
			out, err := yaml.Marshal(info)
			if err != nil {
				return err
			}
			fmt.Print(string(out))
			return nil
		},
	}
	return cmd
}

// discoverWithRetry drives DiscoverInputs until it either completes or
// exhausts a bounded number of attempts, standing in for the evaluator
// round-trip a real build runtime would perform between suspends:
// suspension is not an error, just "try again once more values are
// available". This demo front end has no scheduler behind MemEvaluator, so
// a fixture that actually needs module-graph resolution will report a
// clear error here instead of looping forever.
func discoverWithRetry(a *ccompile.CompileAction) (ccompile.ExecutionState, error) {
	var st ccompile.ExecutionState
	const maxAttempts = 3
	for i := 0; i < maxAttempts; i++ {
		next, suspended, err := a.DiscoverInputs(st)
		if err != nil {
			return next, err
		}
		if !suspended {
			return next, nil
		}
		st = next
	}
	return st, fmt.Errorf("discover_inputs(%s): still suspended after %d attempts; no evaluator values were published", a.Label, maxAttempts)
}
