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

import "testing"

func TestMemEvaluatorMissingKeys(t *testing.T) {
	ev := NewMemEvaluator()
	values, missing, err := ev.GetValues([]string{"a", "b"})
	if err != nil {
		t.Fatalf("GetValues: %v", err)
	}
	if len(values) != 0 {
		t.Errorf("values = %v, want empty", values)
	}
	if len(missing) != 2 {
		t.Errorf("missing = %v, want [a b]", missing)
	}
}

func TestMemEvaluatorPublishThenGet(t *testing.T) {
	ev := NewMemEvaluator()
	ev.Publish("a", 42)
	values, missing, err := ev.GetValues([]string{"a", "b"})
	if err != nil {
		t.Fatalf("GetValues: %v", err)
	}
	if values["a"] != 42 {
		t.Errorf("values[a] = %v, want 42", values["a"])
	}
	if len(missing) != 1 || missing[0] != "b" {
		t.Errorf("missing = %v, want [b]", missing)
	}
}
