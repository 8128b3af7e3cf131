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
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
)

// fixedArgvBuilderT is a CommandLineBuilder stand-in that returns a fixed
// argv, so tests never depend on any toolchain flag resolution.
type fixedArgvBuilderT struct{ argv []string }

func (b fixedArgvBuilderT) BuildArgv(*CompileAction) []string { return b.argv }

type fakeSpawnExecutor struct {
	results SpawnResults
	reply   []byte
	err     error
}

func (f fakeSpawnExecutor) ExecWithReply(context.Context, SpawnRequest) (SpawnResults, []byte, error) {
	return f.results, f.reply, f.err
}

func sourceScanner(path, contents string) IncludeScanner {
	return &LexicalIncludeScanner{Open: func(p string) (*bufio.Reader, func() error, error) {
		if p != path {
			return nil, nil, errors.New("unexpected open: " + p)
		}
		return bufio.NewReader(bytes.NewBufferString(contents)), func() error { return nil }, nil
	}}
}

// TestDiscoverAndExecuteWithDeclaredHeader covers the straightforward case:
// a.cc includes "h/x.h", which is declared; discovery finds it, validation
// passes, one spawn, and the action completes.
func TestDiscoverAndExecuteWithDeclaredHeader(t *testing.T) {
	header := Artifact{Path: NewPathFragment("h/x.h"), Root: SourceRoot}
	a := &CompileAction{
		Label:      "//pkg:a",
		SourceFile: Artifact{Path: NewPathFragment("pkg/a.cc"), Root: SourceRoot},
		OutputFile: Artifact{Path: NewPathFragment("pkg/a.o"), Owner: "//pkg:a", Kind: KindDerived},
		CcContext: &CcCompilationContext{
			DeclaredIncludeSrcs: []Artifact{header},
			HeadersCheckingMode: HeadersCheckingStrict,
		},
		CommandLine: fixedArgvBuilderT{argv: []string{"cc", "-c", "pkg/a.cc", "-o", "pkg/a.o"}},
		Features:    FeatureSet{DotdScanning: true, IncludeScanning: true},
		Scanner:     sourceScanner("pkg/a.cc", `#include "h/x.h"`+"\n"),
		DotdFile:    &DotDFile{ExecPath: "pkg/a.d", Virtual: true},
		Executor: fakeSpawnExecutor{
			results: SpawnResults{ExitCode: 0},
			reply:   []byte("pkg/a.o: h/x.h\n"),
		},
		Resolver: MapArtifactResolver{"h/x.h": header},
	}

	st, suspended, err := a.DiscoverInputs(ExecutionState{})
	if err != nil || suspended {
		t.Fatalf("DiscoverInputs: suspended=%v err=%v", suspended, err)
	}

	st, err = a.Execute(context.Background(), st)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if st.Phase != PhaseDone {
		t.Errorf("Phase = %v, want PhaseDone", st.Phase)
	}
}

// TestExecuteRejectsUndeclaredInclusion covers the case where a.cc includes
// "secret.h", not declared anywhere; execution proceeds but the
// post-execution validation pass rejects it.
func TestExecuteRejectsUndeclaredInclusion(t *testing.T) {
	a := &CompileAction{
		Label:      "//pkg:a",
		SourceFile: Artifact{Path: NewPathFragment("pkg/a.cc"), Root: SourceRoot},
		OutputFile: Artifact{Path: NewPathFragment("pkg/a.o"), Owner: "//pkg:a", Kind: KindDerived},
		CcContext: &CcCompilationContext{
			HeadersCheckingMode: HeadersCheckingStrict,
		},
		CommandLine: fixedArgvBuilderT{argv: []string{"cc", "-c", "pkg/a.cc", "-o", "pkg/a.o"}},
		Features:    FeatureSet{DotdScanning: true, IncludeValidation: true},
		Scanner:     sourceScanner("pkg/a.cc", `#include "secret.h"`+"\n"),
		DotdFile:    &DotDFile{ExecPath: "pkg/a.d", Virtual: true},
		Executor: fakeSpawnExecutor{
			results: SpawnResults{ExitCode: 0},
			reply:   []byte("pkg/a.o: secret.h\n"),
		},
		Resolver: MapArtifactResolver{},
	}

	st, suspended, err := a.DiscoverInputs(ExecutionState{})
	if err != nil || suspended {
		t.Fatalf("DiscoverInputs: suspended=%v err=%v", suspended, err)
	}

	_, err = a.Execute(context.Background(), st)
	var undeclared *UndeclaredInclusionError
	if !errors.As(err, &undeclared) {
		t.Fatalf("Execute err = %v, want *UndeclaredInclusionError", err)
	}
	if len(undeclared.Paths) != 1 || undeclared.Paths[0] != "secret.h" {
		t.Errorf("undeclared.Paths = %v, want [secret.h]", undeclared.Paths)
	}
}

// TestDiscoverInputsRejectsAbsoluteSystemInclude covers an
// "-isystem /usr/local/include" argv token being rejected before the
// compiler ever runs.
func TestDiscoverInputsRejectsAbsoluteSystemInclude(t *testing.T) {
	a := &CompileAction{
		Label:       "//pkg:a",
		SourceFile:  Artifact{Path: NewPathFragment("pkg/a.cc"), Root: SourceRoot},
		CcContext:   &CcCompilationContext{},
		CommandLine: fixedArgvBuilderT{argv: []string{"cc", "-isystem", "/usr/local/include", "-c", "pkg/a.cc"}},
		Features:    FeatureSet{IncludeValidation: true},
	}

	_, _, err := a.DiscoverInputs(ExecutionState{})
	var invalid *InvalidIncludePathError
	if !errors.As(err, &invalid) {
		t.Fatalf("DiscoverInputs err = %v, want *InvalidIncludePathError", err)
	}
	if invalid.Path != "/usr/local/include" {
		t.Errorf("invalid.Path = %q, want /usr/local/include", invalid.Path)
	}
}

// TestDiscoverInputsSuspendsUntilModuleValuePublished covers the suspend/
// retry path: the first DiscoverInputs call suspends because m's module
// value is not yet published; once published (m depends on n),
// TopLevelModules = {m} and DiscoveredModules = {m, n}.
func TestDiscoverInputsSuspendsUntilModuleValuePublished(t *testing.T) {
	mHeader := Artifact{Path: NewPathFragment("m.h"), Root: SourceRoot}
	ev := NewMemEvaluator()
	a := &CompileAction{
		Label:      "//pkg:a",
		SourceFile: Artifact{Path: NewPathFragment("pkg/a.cc"), Root: SourceRoot},
		CcContext: &CcCompilationContext{
			DeclaredIncludeSrcs: []Artifact{mHeader},
			HeaderToModule:      map[string]ModuleID{"m.h": "m.pcm"},
		},
		CommandLine: fixedArgvBuilderT{argv: []string{"cc", "-c", "pkg/a.cc"}},
		Features:    FeatureSet{DotdScanning: true, IncludeScanning: true, HeaderModules: true, ModulePruning: true},
		Scanner:     sourceScanner("pkg/a.cc", `#include "m.h"`+"\n"),
		Evaluator:   ev,
	}

	st, suspended, err := a.DiscoverInputs(ExecutionState{})
	if err != nil {
		t.Fatalf("DiscoverInputs (first call): %v", err)
	}
	if !suspended {
		t.Fatal("DiscoverInputs should suspend before m.pcm's module value is published")
	}

	ev.Publish(moduleValueKey("m.pcm"), ModuleActionValue{
		Module:            "m.pcm",
		DiscoveredModules: map[ModuleID]bool{"n.pcm": true},
	})

	st, suspended, err = a.DiscoverInputs(st)
	if err != nil || suspended {
		t.Fatalf("DiscoverInputs (second call): suspended=%v err=%v", suspended, err)
	}
	if !st.TopLevelModules["m.pcm"] || len(st.TopLevelModules) != 1 {
		t.Errorf("TopLevelModules = %v, want {m.pcm}", st.TopLevelModules)
	}
	if !st.DiscoveredModules["m.pcm"] || !st.DiscoveredModules["n.pcm"] {
		t.Errorf("DiscoveredModules = %v, want {m.pcm, n.pcm}", st.DiscoveredModules)
	}
}

// TestUpdateInputsRestoresModulesOnCacheHit covers a cache-hit's
// UpdateInputs call filtering only the .pcm members of the restored input
// set into DiscoveredModules.
func TestUpdateInputsRestoresModulesOnCacheHit(t *testing.T) {
	a := &CompileAction{Label: "//pkg:k", CcContext: &CcCompilationContext{}}
	restored := []Artifact{
		{Path: NewPathFragment("src.cppmap")},
		{Path: NewPathFragment("k_dep1.pcm")},
		{Path: NewPathFragment("k_dep2.pcm")},
		{Path: NewPathFragment("headers/a.h")},
	}
	st := a.UpdateInputs(ExecutionState{}, restored, true)
	if len(st.DiscoveredModules) != 2 || !st.DiscoveredModules["k_dep1.pcm"] || !st.DiscoveredModules["k_dep2.pcm"] {
		t.Errorf("DiscoveredModules = %v, want {k_dep1.pcm, k_dep2.pcm}", st.DiscoveredModules)
	}
}

// TestComputeKeyStableWhenModuleFileFlagAdded covers two argvs differing
// only in a discovered -fmodule-file flag producing byte-equal ComputeKey
// results.
func TestComputeKeyStableWhenModuleFileFlagAdded(t *testing.T) {
	a := &CompileAction{
		Owner:         "//pkg:a",
		ActionClassID: uuid.MustParse("22222222-2222-2222-2222-222222222222"),
		CcContext:     &CcCompilationContext{},
	}
	stA, err := a.ComputeKey(ExecutionState{Argv: []string{"cc", "-c", "pkg/a.cc"}})
	if err != nil {
		t.Fatalf("ComputeKey: %v", err)
	}
	stAPrime, err := a.ComputeKey(ExecutionState{Argv: []string{"cc", "-c", "pkg/a.cc", "-fmodule-file", "m.pcm"}})
	if err != nil {
		t.Fatalf("ComputeKey: %v", err)
	}
	if stA.Key != stAPrime.Key {
		t.Errorf("keys differ across module-arg perturbation: %s != %s", stA.Key, stAPrime.Key)
	}
}
