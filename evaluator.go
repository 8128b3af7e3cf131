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
	"errors"
	"sync"
)

var errUnexpectedEvaluatorValue = errors.New("evaluator returned a value of the wrong type for this key")

// Evaluator is the demand-driven build-graph evaluator collaborator: it
// looks up the values published for a set of keys, reporting which ones
// are not yet available instead of erroring. A real evaluator runtime
// (the scheduler that actually drives other actions to completion) is out
// of scope; this interface is the contract the compile-action state
// machine programs against.
type Evaluator interface {
	// GetValues looks up each key. Returned values holds an entry for every
	// key that is already known; missing holds the keys that are not yet
	// available. Callers must treat a non-empty missing as "suspend, retry
	// later" rather than as an error.
	GetValues(keys []string) (values map[string]interface{}, missing []string, err error)
}

// MemEvaluator is a small in-memory reference Evaluator backed by a plain
// guarded map: GetValues reports a key as missing until something calls
// Publish for it, modeling request/response suspension (DiscoverInputs
// returns and is retried) rather than a push-based job queue.
type MemEvaluator struct {
	mu     sync.RWMutex
	values map[string]interface{}
}

// NewMemEvaluator returns an evaluator with no values yet published.
func NewMemEvaluator() *MemEvaluator {
	return &MemEvaluator{values: make(map[string]interface{})}
}

// Publish makes a key's value visible to subsequent GetValues calls.
func (e *MemEvaluator) Publish(key string, v interface{}) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.values[key] = v
}

// GetValues implements Evaluator.
func (e *MemEvaluator) GetValues(keys []string) (map[string]interface{}, []string, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make(map[string]interface{}, len(keys))
	var missing []string
	for _, k := range keys {
		if v, ok := e.values[k]; ok {
			out[k] = v
		} else {
			missing = append(missing, k)
		}
	}
	return out, missing, nil
}
