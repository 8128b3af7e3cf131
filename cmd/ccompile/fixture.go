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
	"os"

	"github.com/google/uuid"
	"github.com/hermetic-build/ccompile"
	"gopkg.in/yaml.v3"
)

// actionFixture is the YAML shape a demo compile action is described in.
// Building the real toolchain's command-line grammar is out of scope for
// this binary, so the fixture carries a pre-built argv directly rather than
// flags this binary would have to understand.
type actionFixture struct {
	Label               string            `yaml:"label"`
	ActionClassID       string            `yaml:"action_class_id"`
	SourceFile          string            `yaml:"source_file"`
	OutputFile          string            `yaml:"output_file"`
	Argv                []string          `yaml:"argv"`
	Dir                 string            `yaml:"dir"`
	MandatoryInputs     []string          `yaml:"mandatory_inputs"`
	DeclaredIncludeSrcs []string          `yaml:"declared_include_srcs"`
	DeclaredIncludeDirs []string          `yaml:"declared_include_dirs"`
	SystemIncludeDirs   []string          `yaml:"system_include_dirs"`
	BuiltInIncludeDirs  []string          `yaml:"built_in_include_dirs"`
	HeadersCheckingMode string            `yaml:"headers_checking_mode"`
	Env                 map[string]string `yaml:"env"`
	DotdFile            string            `yaml:"dotd_file"`
	DotdVirtual         bool              `yaml:"dotd_virtual"`
}

func loadActionFixture(path string) (*actionFixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var f actionFixture
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, err
	}
	return &f, nil
}

// fixedArgvBuilder implements ccompile.CommandLineBuilder by returning a
// precomputed argv: this demo front end never resolves real toolchain
// flags.
type fixedArgvBuilder struct {
	argv []string
}

func (b fixedArgvBuilder) BuildArgv(*ccompile.CompileAction) []string {
	return b.argv
}

func artifactsFromPaths(paths []string) []ccompile.Artifact {
	out := make([]ccompile.Artifact, len(paths))
	for i, p := range paths {
		out[i] = ccompile.Artifact{
			Path: ccompile.NewPathFragment(p),
			Root: ccompile.SourceRoot,
			Kind: ccompile.KindSource,
		}
	}
	return out
}

func pathFragmentsFromStrings(paths []string) []ccompile.PathFragment {
	out := make([]ccompile.PathFragment, len(paths))
	for i, p := range paths {
		out[i] = ccompile.NewPathFragment(p)
	}
	return out
}

func headersCheckingModeFromString(s string) ccompile.HeadersCheckingMode {
	switch s {
	case "strict":
		return ccompile.HeadersCheckingStrict
	case "loose":
		return ccompile.HeadersCheckingLoose
	default:
		return ccompile.HeadersCheckingOff
	}
}

// buildAction turns a fixture plus the CLI's feature set into a ready
// ccompile.CompileAction wired against the reference collaborators
// (LocalSpawnExecutor, LexicalIncludeScanner, MemEvaluator).
func buildAction(f *actionFixture, fs ccompile.FeatureSet) (*ccompile.CompileAction, error) {
	classID, err := uuid.Parse(f.ActionClassID)
	if err != nil {
		classID = uuid.New()
	}

	declaredSrcs := artifactsFromPaths(f.DeclaredIncludeSrcs)
	mandatory := artifactsFromPaths(f.MandatoryInputs)

	cc := &ccompile.CcCompilationContext{
		DeclaredIncludeSrcs: declaredSrcs,
		DeclaredIncludeDirs: pathFragmentsFromStrings(f.DeclaredIncludeDirs),
		SystemIncludeDirs:   pathFragmentsFromStrings(f.SystemIncludeDirs),
		HeadersCheckingMode: headersCheckingModeFromString(f.HeadersCheckingMode),
	}

	resolver := make(ccompile.MapArtifactResolver)
	for _, a := range declaredSrcs {
		resolver[a.ExecPath()] = a
	}
	for _, a := range mandatory {
		resolver[a.ExecPath()] = a
	}

	var dotdFile *ccompile.DotDFile
	if f.DotdFile != "" {
		dotdFile = &ccompile.DotDFile{ExecPath: f.DotdFile, Virtual: f.DotdVirtual}
	}

	a := &ccompile.CompileAction{
		Owner:                     ccompile.ActionKey(f.Label),
		Label:                     f.Label,
		ActionClassID:             classID,
		SourceFile:                ccompile.Artifact{Path: ccompile.NewPathFragment(f.SourceFile), Root: ccompile.SourceRoot, Kind: ccompile.KindSource},
		OutputFile:                ccompile.Artifact{Path: ccompile.NewPathFragment(f.OutputFile), Owner: ccompile.ActionKey(f.Label), Kind: ccompile.KindDerived},
		MandatoryInputs:           mandatory,
		CcContext:                cc,
		BuiltInIncludeDirectories: pathFragmentsFromStrings(f.BuiltInIncludeDirs),
		CommandLine:               fixedArgvBuilder{argv: f.Argv},
		Features:                  fs,
		Env:                       f.Env,
		DotdFile:                  dotdFile,
		Scanner:                   ccompile.NewLexicalIncludeScanner(),
		Executor:                  ccompile.LocalSpawnExecutor{},
		Evaluator:                 ccompile.NewMemEvaluator(),
		Resolver:                  resolver,
		Dir:                       f.Dir,
	}
	return a, nil
}
