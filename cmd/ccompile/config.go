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
	"github.com/hermetic-build/ccompile"
	"github.com/spf13/viper"
)

// featureSetFromViper builds a ccompile.FeatureSet from whatever layered
// config viper assembled (flags > env > YAML file). The core package stays
// free of any config-library import; only this file talks to viper.
func featureSetFromViper(v *viper.Viper) ccompile.FeatureSet {
	fs := ccompile.FeatureSet{
		ParseShowIncludes:    v.GetBool("parse_showincludes"),
		HeaderModules:        v.GetBool("header_modules"),
		ModulePruning:        v.GetBool("module_pruning"),
		LayeringCheck:        v.GetBool("layering_check"),
		StrictSystemIncludes: v.GetBool("strict_system_includes"),
		ValidationDebugWarn:  v.GetBool("validation_debug_warn"),
		IncludeValidation:    v.GetBool("include_validation"),
		IncludeScanning:      v.GetBool("include_scanning"),
		DotdScanning:         v.GetBool("dotd_scanning"),
	}
	return fs
}
