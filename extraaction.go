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

// ExtraActionInfo is a plain, side-effect-free descriptive dump of a
// CompileAction and, when available, its ExecutionState: the tool path,
// the argv as built, the source and output exec-paths, the
// discovered-or-declared input list, and the environment with any
// overwritten module variables merged in.
type ExtraActionInfo struct {
	Label      string
	Tool       string
	Argv       []string
	SourcePath string
	OutputPath string
	Inputs     []string
	Env        map[string]string
}

// BuildExtraActionInfo reports the declared inputs (mandatory inputs plus
// declared include srcs) while st holds no discovered inputs, or the
// discovered input set once DiscoverInputs or Execute has set it, so a caller can ask
// for this information at any point in the state diagram without it ever
// being an error to ask early.
func BuildExtraActionInfo(a *CompileAction, st ExecutionState) ExtraActionInfo {
	var tool string
	if len(st.Argv) > 0 {
		tool = st.Argv[0]
	}

	inputs := st.InputsForValidation
	if inputs == nil {
		inputs = append(append([]Artifact{}, a.MandatoryInputs...), a.CcContext.DeclaredIncludeSrcs...)
	}

	env := mergedEnv(a.Env, a.CommandLineEnv, st.OverwrittenVariables)

	return ExtraActionInfo{
		Label:      a.Label,
		Tool:       tool,
		Argv:       st.Argv,
		SourcePath: a.SourceFile.ExecPath(),
		OutputPath: a.OutputFile.ExecPath(),
		Inputs:     artifactExecPaths(inputs),
		Env:        env,
	}
}
