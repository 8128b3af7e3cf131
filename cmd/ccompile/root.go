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
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var v = viper.New()

func newRootCmd() *cobra.Command {
	var cfgFile string

	root := &cobra.Command{
		Use:   "ccompile",
		Short: "Drive the C/C++ compile-action state machine against an action fixture",
	}
	root.PersistentFlags().StringVar(&cfgFile, "config", "", "YAML feature-config file (default: none, flag defaults apply)")
	root.PersistentFlags().Bool("header-modules", false, "enable header-module compilation")
	root.PersistentFlags().Bool("module-pruning", false, "enable module-graph pruning (requires header-modules)")
	root.PersistentFlags().Bool("layering-check", false, "enable layering-check flag passthrough")
	root.PersistentFlags().Bool("strict-system-includes", false, "narrow strict-deps ignored dirs to only built-in include dirs")
	root.PersistentFlags().Bool("parse-showincludes", false, "parse MSVC /showIncludes notes instead of a .d file")
	root.PersistentFlags().Bool("include-validation", true, "reject absolute/escaping include search paths")
	root.PersistentFlags().Bool("include-scanning", true, "pre-execution lexical scan of the source for #include/import targets")
	root.PersistentFlags().Bool("dotd-scanning", true, "parse compiler-emitted dependency output after execution")
	root.PersistentFlags().Bool("validation-debug-warn", false, "log every strict-deps accept/reject decision")

	v.BindPFlag("header_modules", root.PersistentFlags().Lookup("header-modules"))
	v.BindPFlag("module_pruning", root.PersistentFlags().Lookup("module-pruning"))
	v.BindPFlag("layering_check", root.PersistentFlags().Lookup("layering-check"))
	v.BindPFlag("strict_system_includes", root.PersistentFlags().Lookup("strict-system-includes"))
	v.BindPFlag("parse_showincludes", root.PersistentFlags().Lookup("parse-showincludes"))
	v.BindPFlag("include_validation", root.PersistentFlags().Lookup("include-validation"))
	v.BindPFlag("include_scanning", root.PersistentFlags().Lookup("include-scanning"))
	v.BindPFlag("dotd_scanning", root.PersistentFlags().Lookup("dotd-scanning"))
	v.BindPFlag("validation_debug_warn", root.PersistentFlags().Lookup("validation-debug-warn"))
	v.SetEnvPrefix("CCOMPILE")
	v.AutomaticEnv()

	cobra.OnInitialize(func() {
		if cfgFile != "" {
			v.SetConfigFile(cfgFile)
			v.SetConfigType("yaml")
			if err := v.ReadInConfig(); err != nil {
				cobra.CheckErr(err)
			}
		}
	})

	root.AddCommand(newCompileCmd())
	root.AddCommand(newExtraActionCmd())
	root.AddCommand(newValidateOnlyCmd())
	return root
}
