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

import "github.com/golang/glog"

// ModuleActionValue is the evaluator value published by a module-producing
// compile action: its own discovered-modules set, persisted from its own
// compile.
type ModuleActionValue struct {
	Module            ModuleID
	DiscoveredModules map[ModuleID]bool
}

// ModuleGraphResult is the outcome of resolving the transitive module graph
// for a set of used modules.
type ModuleGraphResult struct {
	TopLevelModules   map[ModuleID]bool
	DiscoveredModules map[ModuleID]bool
}

// moduleValueKey is the Evaluator key naming the value of m's generating
// action.
func moduleValueKey(m ModuleID) string {
	return "module-action:" + string(m)
}

// ResolveModules fetches each used module's ModuleActionValue; if any
// lookup is missing, it signals suspend (ok=false) with no partial state
// memoized. Otherwise it computes top_level_modules as the minimal set
// whose transitive closures, together with themselves, cover every used
// module, and discovered_modules as the union of their closures plus
// themselves.
func ResolveModules(used map[ModuleID]bool, ev Evaluator) (result ModuleGraphResult, ok bool, err error) {
	if len(used) == 0 {
		return ModuleGraphResult{
			TopLevelModules:   map[ModuleID]bool{},
			DiscoveredModules: map[ModuleID]bool{},
		}, true, nil
	}

	keys := make([]string, 0, len(used))
	order := make([]ModuleID, 0, len(used))
	for m := range used {
		keys = append(keys, moduleValueKey(m))
		order = append(order, m)
	}

	values, missing, err := ev.GetValues(keys)
	if err != nil {
		return ModuleGraphResult{}, false, err
	}
	if len(missing) > 0 {
		glog.V(1).Infof("ResolveModules: %d module value(s) missing, suspending", len(missing))
		return ModuleGraphResult{}, false, nil
	}

	transitive := make(map[ModuleID]map[ModuleID]bool, len(order))
	for _, m := range order {
		v, ok := values[moduleValueKey(m)].(ModuleActionValue)
		if !ok {
			return ModuleGraphResult{}, false, &ScanFailureError{Source: string(m), Err: errUnexpectedEvaluatorValue}
		}
		transitive[m] = v.DiscoveredModules
	}

	// top_level_modules = used_modules \ union(transitive.values())
	coveredByOthers := make(map[ModuleID]bool)
	for m, closure := range transitive {
		for other := range used {
			if other == m {
				continue
			}
			if closure[other] {
				coveredByOthers[other] = true
			}
		}
	}
	topLevel := make(map[ModuleID]bool)
	for m := range used {
		if !coveredByOthers[m] {
			topLevel[m] = true
		}
	}

	discovered := make(map[ModuleID]bool)
	for m := range topLevel {
		discovered[m] = true
		for t := range transitive[m] {
			discovered[t] = true
		}
	}

	return ModuleGraphResult{TopLevelModules: topLevel, DiscoveredModules: discovered}, true, nil
}
