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
	"bufio"
	"bytes"
	"os"
	"regexp"

	"github.com/golang/glog"
)

// IncludeScanner is the external pre-execution lexical scanner collaborator:
// a pre-execution scan of sources for #include targets. It returns either
// the set of artifacts used, or (nil, nil) when it declines to scan.
type IncludeScanner interface {
	Scan(source Artifact, headerData IncludeScanningHeaderData) ([]Artifact, error)
}

// importLineRE matches a C++20 header-unit or module "import" directive.
// Kept to a single already-isolated-to-a-line match rather than a
// character-at-a-time hot path, since it only ever runs once a line has
// already been picked out as a directive candidate.
var importLineRE = regexp.MustCompile(`^\s*import\s+[<"]([^>"]+)[>"]\s*;`)

// includeLineRE matches a #include / #include_next directive.
var includeLineRE = regexp.MustCompile(`^\s*#\s*include(?:_next)?\s+[<"]([^>"]+)[>"]`)

// LexicalIncludeScanner is a reference IncludeScanner that hand-scans
// sources byte-by-byte for #include/#include_next/import directives: no
// regexp on the character-at-a-time hot path, only on the coarse,
// infrequent, already-isolated-to-a-line match.
type LexicalIncludeScanner struct {
	// Open abstracts file reading so tests can inject in-memory sources
	// without touching the real filesystem.
	Open func(path string) (*bufio.Reader, func() error, error)
}

// NewLexicalIncludeScanner returns a scanner that reads from the real
// filesystem.
func NewLexicalIncludeScanner() *LexicalIncludeScanner {
	return &LexicalIncludeScanner{Open: openFileReader}
}

func openFileReader(path string) (*bufio.Reader, func() error, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	return bufio.NewReader(f), f.Close, nil
}

// Scan implements IncludeScanner by lexing source's text for include/import
// targets and matching each target, quoted or angle-bracketed alike,
// against the paths of headerData's declared sources, verbatim. Search
// directories, system include dirs and cmdline includes are not consulted,
// and included headers are not themselves scanned. A source with no matching
// directive yields an empty, non-nil result.
func (s *LexicalIncludeScanner) Scan(source Artifact, hd IncludeScanningHeaderData) ([]Artifact, error) {
	r, closeFn, err := s.Open(source.ExecPath())
	if err != nil {
		return nil, &ScanFailureError{Source: source.ExecPath(), Err: err}
	}
	defer closeFn()

	bySuffix := make(map[string][]Artifact)
	for _, a := range hd.DeclaredIncludeSrcs {
		bySuffix[a.Path.String()] = append(bySuffix[a.Path.String()], a)
	}

	used := []Artifact{}
	seen := make(map[string]bool)
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for scanner.Scan() {
		line := scanner.Bytes()
		target, isImport := scanIncludeTarget(line)
		if target == "" {
			continue
		}
		if cands, ok := bySuffix[target]; ok {
			for _, c := range cands {
				if !seen[c.ExecPath()] {
					seen[c.ExecPath()] = true
					used = append(used, c)
				}
			}
			continue
		}
		glog.V(2).Infof("scan(%s): %s not found among declared srcs (import=%v)", source.ExecPath(), target, isImport)
	}
	if err := scanner.Err(); err != nil {
		return nil, &ScanFailureError{Source: source.ExecPath(), Err: err}
	}
	return used, nil
}

// scanIncludeTarget extracts the quoted/angle-bracketed target of a
// #include/#include_next/import directive from a single source line.
func scanIncludeTarget(line []byte) (target string, isImport bool) {
	line = trimLeftSpaceBytes(line)
	if len(line) == 0 {
		return "", false
	}
	if line[0] == '#' {
		if m := includeLineRE.FindSubmatch(line); m != nil {
			return string(m[1]), false
		}
		return "", false
	}
	if bytes.HasPrefix(line, []byte("import")) {
		if m := importLineRE.FindSubmatch(line); m != nil {
			return string(m[1]), true
		}
	}
	return "", false
}
