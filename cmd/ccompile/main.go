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

// Command ccompile is a thin demonstration front end over the ccompile
// package's CompileAction state machine: it loads a YAML action fixture,
// drives discovery/execution/validation, and prints the resulting
// extra-action description. It is not the toolchain-integrated front end
// that resolves real compiler flags (that remains the opaque
// CommandLineBuilder collaborator); this binary only exercises the core.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/golang/glog"
	"github.com/spf13/pflag"
)

func main() {
	// Let glog's own flags (-v, -logtostderr, ...) register on the stdlib
	// flag.CommandLine, then fold that set into cobra's pflag.CommandLine so
	// they show up alongside this binary's own flags.
	pflag.CommandLine.AddGoFlagSet(flag.CommandLine)

	cmd := newRootCmd()
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		glog.Flush()
		os.Exit(1)
	}
	glog.Flush()
}
