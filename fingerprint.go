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
	"crypto/sha1"
	"fmt"
	"sort"

	"github.com/golang/glog"
)

// ActionKeyDigest is a stable, content-addressed fingerprint of a
// CompileAction. It is a hex sha1 digest: a stable digest is all a cache
// key needs, not a cryptographically strong one, so crypto/sha1 is plenty
// and avoids pulling in a second hash package alongside it.
type ActionKeyDigest string

const keySeparator = "\x00"

// ComputeKey assembles the action's class, environment, argv and declared
// input sets, in a fixed order, into a single sha1 digest. argv is the full
// command line as the command-line builder produced it; module (.pcm)
// arguments are elided before digesting so that discovering a new module
// dependency never perturbs the key.
func ComputeKey(a *CompileAction, argv []string) (ActionKeyDigest, error) {
	h := sha1.New()

	fmt.Fprint(h, a.ActionClassID.String())
	h.Write([]byte(keySeparator))

	writeOrderedMap(h, a.Env)
	h.Write([]byte(keySeparator))

	writeOrderedMap(h, a.CommandLineEnv)
	h.Write([]byte(keySeparator))

	writeOrderedMap(h, a.ExecutionInfo)
	h.Write([]byte(keySeparator))

	elided := elideModuleArgs(argv)
	for _, s := range elided {
		h.Write([]byte(s))
		h.Write([]byte(keySeparator))
	}
	h.Write([]byte(keySeparator))

	digestArtifactSet(h, a.CcContext.DeclaredIncludeSrcs)
	h.Write([]byte(keySeparator))

	digestArtifactSet(h, a.MandatoryInputs)
	h.Write([]byte(keySeparator))

	digestArtifactSet(h, a.AdditionalPrunableHeaders)
	h.Write([]byte(keySeparator))

	digestPathFragmentSet(h, a.CcContext.DeclaredIncludeDirs)

	for _, d := range a.BuiltInIncludeDirectories {
		h.Write([]byte(d.String()))
		h.Write([]byte(keySeparator))
	}
	h.Write([]byte(keySeparator))

	digestArtifactSet(h, a.InputsForInvalidation)

	sum := h.Sum(nil)
	key := ActionKeyDigest(fmt.Sprintf("%x", sum))
	glog.V(2).Infof("ComputeKey(%s) = %s", a.Owner, key)
	return key, nil
}

// elideModuleArgs drops every argv token that names a .pcm module file (and
// the flag introducing it, when it is a separate token), so module
// discovery never perturbs the fingerprint.
func elideModuleArgs(argv []string) []string {
	var out []string
	for i := 0; i < len(argv); i++ {
		tok := argv[i]
		if isModuleArg(tok) {
			continue
		}
		if tok == "-fmodule-file" && i+1 < len(argv) && isModuleArg(argv[i+1]) {
			i++
			continue
		}
		out = append(out, tok)
	}
	return out
}

func isModuleArg(s string) bool {
	return len(s) > 4 && s[len(s)-4:] == ".pcm"
}

// writeOrderedMap digests a string->string map in a traversal that depends
// only on content (sorted keys), never on insertion order.
func writeOrderedMap(h interface{ Write([]byte) (int, error) }, m map[string]string) {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		h.Write([]byte(k))
		h.Write([]byte("="))
		h.Write([]byte(m[k]))
		h.Write([]byte(keySeparator))
	}
}

// digestArtifactSet digests a set of artifacts using a nested set's stable
// (content-only) traversal: the digest must depend only on the set's
// content, never on how it was structurally assembled.
func digestArtifactSet(h interface{ Write([]byte) (int, error) }, as []Artifact) {
	paths := make([]string, len(as))
	for i, a := range as {
		paths[i] = a.ExecPath()
	}
	ns := NewNestedSet(OrderStable, paths)
	flat := append([]string{}, ns.ToList()...)
	sort.Strings(flat)
	for _, p := range flat {
		h.Write([]byte(p))
		h.Write([]byte(keySeparator))
	}
}

func digestPathFragmentSet(h interface{ Write([]byte) (int, error) }, ps []PathFragment) {
	flat := pathFragmentStrings(ps)
	sort.Strings(flat)
	for _, p := range flat {
		h.Write([]byte(p))
		h.Write([]byte(keySeparator))
	}
}
