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
	"context"
	"fmt"
	"os"

	"github.com/golang/glog"
	"github.com/google/uuid"
)

// ExecutionPhase names where in the discover/execute/validate state diagram
// an ExecutionState currently sits.
type ExecutionPhase int

const (
	PhaseInitial ExecutionPhase = iota
	PhaseDiscovered
	PhaseExecuted
	PhaseValidated
	PhaseDone
)

func (p ExecutionPhase) String() string {
	switch p {
	case PhaseInitial:
		return "initial"
	case PhaseDiscovered:
		return "discovered"
	case PhaseExecuted:
		return "executed"
	case PhaseValidated:
		return "validated"
	case PhaseDone:
		return "done"
	default:
		return "unknown"
	}
}

// CommandLineBuilder is the opaque collaborator that expands a
// CompileAction's options into an argv. This package never resolves real
// toolchain flags itself; callers supply whatever builder fits their
// compiler.
type CommandLineBuilder interface {
	BuildArgv(a *CompileAction) []string
}

// ExecutionState is the mutable record threaded through DiscoverInputs,
// Execute, UpdateInputs, ComputeKey and GetExtraActionInfo. It is never
// stored on CompileAction itself: CompileAction stays an immutable
// description of the work, and every method takes the state explicitly
// (those that advance it return the updated copy), so two overlapping evaluations of the same action (e.g.
// across a suspend/retry) can never alias each other's progress.
type ExecutionState struct {
	Phase ExecutionPhase

	Argv                 []string
	SystemIncludeDirs    []string
	CmdlineIncludes      []string
	DiscoveredInputs     []Artifact
	InputsForValidation  []Artifact
	UsedModules          map[ModuleID]bool
	TopLevelModules      map[ModuleID]bool
	DiscoveredModules    map[ModuleID]bool

	Key ActionKeyDigest

	SpawnResults SpawnResults
	DotdReply    []byte

	OverwrittenVariables map[string]string
}

// CompileAction is the immutable description of a single C/C++ translation
// unit compile. Every field here is set once, before discovery begins; all
// progress lives in an ExecutionState instead.
type CompileAction struct {
	Owner ActionKey
	Label string

	// ActionClassID distinguishes this action's "shape" (its rule kind, not
	// its particular inputs) for fingerprinting purposes.
	ActionClassID uuid.UUID

	SourceFile Artifact
	OutputFile Artifact

	MandatoryInputs           []Artifact
	InputsForInvalidation     []Artifact
	AdditionalPrunableHeaders []Artifact

	CcContext *CcCompilationContext

	BuiltInIncludeDirectories []PathFragment

	CommandLine CommandLineBuilder
	Features    FeatureSet

	Env            map[string]string
	CommandLineEnv map[string]string
	ExecutionInfo  map[string]string

	DotdFile        *DotDFile
	GcnoFile        *Artifact
	DwoFile         *Artifact
	LtoIndexingFile *Artifact

	Scanner      IncludeScanner
	Executor     SpawnExecutor
	Evaluator    Evaluator
	Resolver     ArtifactResolver
	TreeExpander TreeArtifactExpander

	MiddlemanGroups map[ActionKey][]Artifact
	PackageMarkers  PackageMarkerChecker
	Dir             string
}

// DiscoverInputs builds the argv, extracts search/cmdline includes,
// validates include paths, scans for headers actually used, optionally
// strict-deps-validates now (when no later dotd pass will do it), and
// resolves the module graph. suspended is true when module-graph resolution
// needs evaluator values this call does not yet have; callers retry
// DiscoverInputs with the returned st once those values become
// available. Suspension is never reported as an error.
//
// DiscoverInputs only runs the translation-unit discovery pipeline; its
// source must not itself be a compiled module (.pcm), since a module has no
// #include graph of its own to scan.
func (a *CompileAction) DiscoverInputs(st ExecutionState) (ExecutionState, bool, error) {
	if a.SourceFile.IsModule() {
		return st, false, fmt.Errorf("DiscoverInputs(%s): source %s is a module; module-producing actions do not run translation-unit discovery", a.Label, a.SourceFile.ExecPath())
	}
	if st.Argv == nil {
		st.Argv = a.CommandLine.BuildArgv(a)
	}
	st.SystemIncludeDirs = extractSystemIncludeDirs(st.Argv)
	st.CmdlineIncludes = extractCmdlineIncludes(st.Argv)

	if a.Features.IncludeValidation {
		checked := append([]string{}, st.SystemIncludeDirs...)
		checked = append(checked, pathFragmentStrings(a.CcContext.IncludeDirs)...)
		checked = append(checked, pathFragmentStrings(a.CcContext.QuoteIncludeDirs)...)
		if err := VerifyActionIncludePaths(checked); err != nil {
			return st, false, err
		}
	}

	systemDirs := make([]PathFragment, len(st.SystemIncludeDirs))
	for i, d := range st.SystemIncludeDirs {
		systemDirs[i] = NewPathFragment(d)
	}
	hd := newIncludeScanningHeaderData(a.CcContext, systemDirs, st.CmdlineIncludes)

	var used []Artifact
	if a.Features.IncludeScanning && a.Scanner != nil {
		scanned, err := a.Scanner.Scan(a.SourceFile, hd)
		if err != nil {
			return st, false, err
		}
		if scanned == nil {
			// Scanner declined: fall back to the full declared envelope, the
			// conservative superset.
			used = append(append([]Artifact{}, a.CcContext.DeclaredIncludeSrcs...), a.AdditionalPrunableHeaders...)
		} else {
			used = scanned
		}
	} else {
		used = append(append([]Artifact{}, a.CcContext.DeclaredIncludeSrcs...), a.AdditionalPrunableHeaders...)
	}
	st.DiscoveredInputs = used
	st.InputsForValidation = used

	if !a.Features.DotdScanning {
		// No later execute-time dotd pass will produce a better picture of
		// what was actually read, so validate against the scanned set now.
		if err := ValidateInclusions(st.InputsForValidation, a, a.validationContext()); err != nil {
			return st, false, err
		}
	}

	st.UsedModules = computeUsedModules(used, a.CcContext)
	if a.Features.ShouldPruneModules() {
		result, ok, err := ResolveModules(st.UsedModules, a.Evaluator)
		if err != nil {
			return st, false, err
		}
		if !ok {
			glog.V(1).Infof("DiscoverInputs(%s): suspending on module graph", a.Label)
			return st, true, nil
		}
		st.TopLevelModules = result.TopLevelModules
		st.DiscoveredModules = result.DiscoveredModules
	}

	st.Phase = PhaseDiscovered
	return st, false, nil
}

// computeUsedModules maps each discovered header back to its providing
// module via CcCompilationContext.HeaderToModule.
func computeUsedModules(discovered []Artifact, cc *CcCompilationContext) map[ModuleID]bool {
	if len(cc.HeaderToModule) == 0 {
		return nil
	}
	used := make(map[ModuleID]bool)
	for _, a := range discovered {
		if m, ok := cc.HeaderToModule[a.ExecPath()]; ok {
			used[m] = true
		}
	}
	return used
}

func (a *CompileAction) validationContext() ValidationContext {
	return ValidationContext{
		Expander:           a.TreeExpander,
		MiddlemanGroups:    a.MiddlemanGroups,
		BuiltInIncludeDirs: a.BuiltInIncludeDirectories,
		PackageMarkers:     a.PackageMarkers,
		Features:           a.Features,
		Label:              a.Label,
	}
}

// Execute computes the overwritten module variables, runs the spawn,
// materializes a missing coverage note, parses the dependency output,
// updates st's discovered inputs and, when a later dotd pass is what was
// supposed to produce the final validation set, validates now.
func (a *CompileAction) Execute(ctx context.Context, st ExecutionState) (ExecutionState, error) {
	st.OverwrittenVariables = a.overwrittenVariables(st)

	env := mergedEnv(a.Env, a.CommandLineEnv, st.OverwrittenVariables)
	if a.ExecutionInfo["requires-darwin"] == "" {
		env["PWD"] = "/proc/self/cwd"
	}

	req := SpawnRequest{
		Argv:     st.Argv,
		Env:      env,
		Dir:      a.Dir,
		DotDFile: a.DotdFile,
	}
	res, reply, err := a.Executor.ExecWithReply(ctx, req)
	st.SpawnResults = res
	st.DotdReply = reply
	if err != nil || res.ExitCode != 0 {
		return st, &SpawnFailureError{Label: a.Label, ExitCode: res.ExitCode, Catastrophe: res.Catastrophe, Err: err}
	}

	if a.GcnoFile != nil {
		if err := ensureGcnoFile(a.GcnoFile.ExecPath()); err != nil {
			return st, &CoverageNoteError{Path: a.GcnoFile.ExecPath(), Err: err}
		}
	}

	if a.Features.DotdScanning && a.DotdFile != nil {
		deps, err := a.readDotd(st)
		if err != nil {
			return st, err
		}
		discovered, err := Resolve(deps.Paths, DiscoveryContext{
			Resolver:          a.Resolver,
			BuiltInPrefixes:   a.BuiltInIncludeDirectories,
			ValidationEnabled: a.Features.IncludeValidation,
			SourceLabel:       a.Label,
		})
		if err != nil {
			return st, err
		}
		st = a.UpdateInputs(st, discovered.Artifacts, false)

		if err := ValidateInclusions(st.InputsForValidation, a, a.validationContext()); err != nil {
			return st, err
		}
		st.Phase = PhaseValidated
	} else {
		st.Phase = PhaseExecuted
	}

	st.Phase = PhaseDone
	return st, nil
}

// readDotd returns the parsed dependency set, reading the in-memory reply
// when DotdFile is virtual, or the on-disk file otherwise.
func (a *CompileAction) readDotd(st ExecutionState) (*DependencySet, error) {
	if a.DotdFile.Virtual {
		if a.Features.ParseShowIncludes {
			_, deps := StripShowIncludes(st.DotdReply, "Note: including file:")
			return deps, nil
		}
		deps, err := ParseDotD(st.DotdReply)
		if err != nil {
			return nil, &DotDParseError{Path: a.DotdFile.ExecPath, Err: err}
		}
		return deps, nil
	}
	data, err := os.ReadFile(a.DotdFile.ExecPath)
	if err != nil {
		return nil, &DotDParseError{Path: a.DotdFile.ExecPath, Err: err}
	}
	if a.Features.ParseShowIncludes {
		_, deps := StripShowIncludes(data, "Note: including file:")
		return deps, nil
	}
	deps, err := ParseDotD(data)
	if err != nil {
		return nil, &DotDParseError{Path: a.DotdFile.ExecPath, Err: err}
	}
	return deps, nil
}

// overwrittenVariables overwrites the toolchain's default module-path
// variable with the union of top-level modules (when pruning ran) or of the
// action's own inputs (when it did not), so the compiler only ever sees the
// modules this action is actually allowed to depend on.
func (a *CompileAction) overwrittenVariables(st ExecutionState) map[string]string {
	var paths []string
	if len(st.TopLevelModules) > 0 {
		for m := range st.TopLevelModules {
			paths = append(paths, string(m))
		}
	} else {
		for _, in := range st.DiscoveredInputs {
			if in.IsModule() {
				paths = append(paths, in.ExecPath())
			}
		}
	}
	ns := NewNestedSet(OrderCompile, paths)
	return map[string]string{"CC_MODULE_MAP_PATH": joinPaths(ns.ToList())}
}

func joinPaths(paths []string) string {
	out := ""
	for i, p := range paths {
		if i > 0 {
			out += ":"
		}
		out += p
	}
	return out
}

func ensureGcnoFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	return f.Close()
}

func mergedEnv(maps ...map[string]string) map[string]string {
	out := make(map[string]string)
	for _, m := range maps {
		for k, v := range m {
			out[k] = v
		}
	}
	return out
}

// UpdateInputs merges a newly resolved dependency-file input set into st,
// or, on a cache-hit restore path, filters the cached input set's .pcm
// files back into DiscoveredModules so a restored action still reports an
// accurate module set without re-running module-graph resolution.
func (a *CompileAction) UpdateInputs(st ExecutionState, inputs []Artifact, cacheHit bool) ExecutionState {
	st.InputsForValidation = inputs
	st.DiscoveredInputs = inputs
	if cacheHit {
		discovered := make(map[ModuleID]bool)
		for _, in := range inputs {
			if in.IsModule() {
				discovered[ModuleID(in.ExecPath())] = true
			}
		}
		st.DiscoveredModules = discovered
	}
	return st
}

// ComputeKey fingerprints st's built argv by delegating to the package-level
// ComputeKey.
func (a *CompileAction) ComputeKey(st ExecutionState) (ExecutionState, error) {
	key, err := ComputeKey(a, st.Argv)
	if err != nil {
		return st, err
	}
	st.Key = key
	return st, nil
}

// GetExtraActionInfo reports a descriptive dump of this action's current
// state by delegating to BuildExtraActionInfo.
func (a *CompileAction) GetExtraActionInfo(st ExecutionState) ExtraActionInfo {
	return BuildExtraActionInfo(a, st)
}
