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
	"reflect"
	"strings"
	"testing"

	"github.com/sergi/go-diff/diffmatchpatch"
)

func diffStrings(t *testing.T, want, got []string) {
	t.Helper()
	dmp := diffmatchpatch.New()
	diffs := dmp.DiffMain(strings.Join(want, "\n"), strings.Join(got, "\n"), false)
	t.Errorf("mismatch:\n%s", dmp.DiffPrettyText(diffs))
}

func TestParseDotD(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{
			name: "simple",
			in:   "foo.o: foo.c foo.h\n",
			want: []string{"foo.c", "foo.h"},
		},
		{
			name: "continuation",
			in:   "foo.o: foo.c \\\n  foo.h \\\n  bar.h\n",
			want: []string{"foo.c", "foo.h", "bar.h"},
		},
		{
			name: "escaped space",
			in:   "foo.o: My\\ Headers/foo.h\n",
			want: []string{"My Headers/foo.h"},
		},
		{
			name: "dedup keeps first",
			in:   "foo.o: foo.h foo.h bar.h\n",
			want: []string{"foo.h", "bar.h"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			deps, err := ParseDotD([]byte(tt.in))
			if err != nil {
				t.Fatalf("ParseDotD: %v", err)
			}
			if !reflect.DeepEqual(deps.Paths, tt.want) {
				diffStrings(t, tt.want, deps.Paths)
			}
		})
	}
}

func TestParseDotDMalformed(t *testing.T) {
	if _, err := ParseDotD([]byte("no colon here")); err == nil {
		t.Error("expected an error for a .d file with no ':'")
	}
}

func TestParseShowIncludes(t *testing.T) {
	in := "Note: including file:  c:\\foo\\bar.h\n" +
		"Note: including file:   c:\\foo\\baz.h\n" +
		"foo.cc(3): warning C4100\n"
	deps, err := ParseShowIncludes([]byte(in), "Note: including file:")
	if err != nil {
		t.Fatalf("ParseShowIncludes: %v", err)
	}
	want := []string{`c:\foo\bar.h`, `c:\foo\baz.h`}
	if !reflect.DeepEqual(deps.Paths, want) {
		diffStrings(t, want, deps.Paths)
	}
}

func TestStripShowIncludes(t *testing.T) {
	in := "Note: including file:  foo.h\n" +
		"foo.cc(3): warning C4100\n"
	remaining, deps := StripShowIncludes([]byte(in), "Note: including file:")
	if strings.Contains(string(remaining), "including file") {
		t.Errorf("remaining stdout still has an inclusion note: %q", remaining)
	}
	if len(deps.Paths) != 1 || deps.Paths[0] != "foo.h" {
		t.Errorf("deps = %+v, want [foo.h]", deps.Paths)
	}
}
