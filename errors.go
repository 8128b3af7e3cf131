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

package ccompile

import (
	"fmt"
	"strings"
)

// UndeclaredInclusionError reports headers the compiler read that were not
// declared in the action's CcCompilationContext.
type UndeclaredInclusionError struct {
	Label   string
	Source  string
	Paths   []string
	Dirs    []string
	Srcs    []string
}

func (e *UndeclaredInclusionError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "undeclared inclusion(s) in rule '%s':\n", e.Label)
	for _, p := range e.Paths {
		fmt.Fprintf(&b, "  %s\n", p)
	}
	fmt.Fprintf(&b, "source: %s\n", e.Source)
	if len(e.Dirs) > 0 {
		fmt.Fprintf(&b, "declared include dirs: %s\n", strings.Join(e.Dirs, ", "))
	}
	if len(e.Srcs) > 0 {
		fmt.Fprintf(&b, "declared include srcs: %s\n", strings.Join(e.Srcs, ", "))
	}
	return b.String()
}

// InvalidIncludePathError reports an include search path that is absolute
// or escapes the execution root.
type InvalidIncludePathError struct {
	Path string
}

func (e *InvalidIncludePathError) Error() string {
	return fmt.Sprintf("include path '%s' references a path outside of the execution root", e.Path)
}

// ScanFailureError wraps an error raised by the external include scanner.
type ScanFailureError struct {
	Source string
	Err    error
}

func (e *ScanFailureError) Error() string {
	return fmt.Sprintf("include scanning of %s failed: %v", e.Source, e.Err)
}

func (e *ScanFailureError) Unwrap() error { return e.Err }

// SpawnFailureError wraps a non-zero exit or executor-reported failure.
// Catastrophe is passed through from the executor untouched.
type SpawnFailureError struct {
	Label       string
	ExitCode    int
	Catastrophe bool
	Err         error
}

func (e *SpawnFailureError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: spawn failed: %v", e.Label, e.Err)
	}
	return fmt.Sprintf("%s: spawn failed with exit code %d", e.Label, e.ExitCode)
}

func (e *SpawnFailureError) Unwrap() error { return e.Err }

// DotDParseError is an IO or parse error encountered while reading the
// dependency file.
type DotDParseError struct {
	Path string
	Err  error
}

func (e *DotDParseError) Error() string {
	return fmt.Sprintf("error while parsing .d file %s: %v", e.Path, e.Err)
}

func (e *DotDParseError) Unwrap() error { return e.Err }

// CoverageNoteError is an IO error creating an empty .gcno file.
type CoverageNoteError struct {
	Path string
	Err  error
}

func (e *CoverageNoteError) Error() string {
	return fmt.Sprintf("failed to create coverage note %s: %v", e.Path, e.Err)
}

func (e *CoverageNoteError) Unwrap() error { return e.Err }
