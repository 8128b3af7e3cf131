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
	"bytes"
	"fmt"

	"github.com/golang/glog"
)

// DependencySet is a parsed .d file: an ordered, de-duplicated list of
// exec-relative paths.
type DependencySet struct {
	Paths []string
}

// DotDFile names either a real on-disk dependency-file artifact, or a
// virtual exec-path for which the spawn executor returns the bytes directly
// in-memory instead of writing them to disk.
type DotDFile struct {
	ExecPath string
	Virtual  bool
}

// ParseDotD parses Make-style dependency declarations:
//
//	target: a b c \
//	  d
//
// Backslash line continuations and backslash-escaped spaces are respected,
// the leading "target:" token is discarded, and duplicate paths are
// removed keeping the first occurrence.
func ParseDotD(data []byte) (*DependencySet, error) {
	joined := concatline(data)
	joined = bytes.ReplaceAll(joined, []byte("\r\n"), []byte("\n"))

	colon := bytes.IndexByte(joined, ':')
	if colon < 0 {
		return nil, fmt.Errorf("malformed .d file: no ':' found")
	}
	rest := joined[colon+1:]

	ws := newWordScanner(rest)
	ws.esc = true
	seen := make(map[string]bool)
	var paths []string
	for ws.Scan() {
		tok := unescapeDotDToken(ws.Bytes())
		if tok == "" {
			continue
		}
		if !seen[tok] {
			seen[tok] = true
			paths = append(paths, tok)
		}
	}
	glog.V(2).Infof("ParseDotD: %d deps", len(paths))
	return &DependencySet{Paths: paths}, nil
}

// unescapeDotDToken turns a backslash-escaped-space token from a .d file
// into its literal path, the way GCC/Clang escape spaces inside paths.
func unescapeDotDToken(tok []byte) string {
	if bytes.IndexByte(tok, '\\') < 0 {
		return string(tok)
	}
	out := make([]byte, 0, len(tok))
	for i := 0; i < len(tok); i++ {
		if tok[i] == '\\' && i+1 < len(tok) && tok[i+1] == ' ' {
			out = append(out, ' ')
			i++
			continue
		}
		out = append(out, tok[i])
	}
	return string(out)
}

// ParseShowIncludes parses the MSVC "/showIncludes" textual format emitted
// on stdout alongside normal compiler diagnostics:
//
//	Note: including file:   <path>
//	Note: including file:    <path>   (nesting adds more leading spaces)
//
// prefix is the locale-dependent note prefix ("Note: including file:" in the
// default English toolchain); callers that redirect /showIncludes output
// pass the exact prefix their toolchain emits.
func ParseShowIncludes(data []byte, prefix string) (*DependencySet, error) {
	seen := make(map[string]bool)
	var paths []string
	for _, line := range bytes.Split(data, []byte("\n")) {
		line = trimRightSpaceBytes(line)
		if line == nil {
			continue
		}
		s := string(line)
		if !bytes.HasPrefix(line, []byte(prefix)) {
			continue
		}
		p := trimLeftSpace(s[len(prefix):])
		if p == "" {
			continue
		}
		if !seen[p] {
			seen[p] = true
			paths = append(paths, p)
		}
	}
	return &DependencySet{Paths: paths}, nil
}

// StripShowIncludes removes /showIncludes note lines from compiler stdout,
// returning the remaining diagnostic output plus the stripped dependency
// set. CompileAction applies it, when ParseShowIncludes is enabled, to the
// dependency output (the in-memory reply or the .d file) and discards the
// remaining lines; the spawn's captured stdout and stderr are not filtered.
func StripShowIncludes(data []byte, prefix string) (remaining []byte, deps *DependencySet) {
	var kept [][]byte
	var notes [][]byte
	for _, line := range bytes.Split(data, []byte("\n")) {
		if bytes.HasPrefix(line, []byte(prefix)) {
			notes = append(notes, line)
			continue
		}
		kept = append(kept, line)
	}
	d, _ := ParseShowIncludes(bytes.Join(notes, []byte("\n")), prefix)
	return bytes.Join(kept, []byte("\n")), d
}
