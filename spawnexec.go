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
	"bytes"
	"context"
	"os/exec"
	"sort"
	"syscall"

	"github.com/golang/glog"
)

// SpawnResults is the outcome of running a single process: exit status,
// whether the process failure looked like an infrastructure catastrophe
// rather than a normal compile error, and captured streams.
type SpawnResults struct {
	ExitCode    int
	Stdout      []byte
	Stderr      []byte
	Catastrophe bool
	Err         error
}

// SpawnRequest is everything the executor needs to run a compile.
type SpawnRequest struct {
	Argv    []string
	Env     map[string]string
	Dir     string
	DotDFile *DotDFile // when non-nil and Virtual, the executor returns its bytes in-memory
}

// SpawnExecutor is the spawn-executor collaborator: given a built request,
// it runs the compiler and returns the spawn results plus an optional
// in-memory dependency-file reply.
type SpawnExecutor interface {
	ExecWithReply(ctx context.Context, req SpawnRequest) (SpawnResults, []byte, error)
}

// LocalSpawnExecutor runs the compiler as a local child process: os/exec
// plus syscall exit-status inspection, no sandboxing or remote dispatch.
type LocalSpawnExecutor struct{}

// ExecWithReply implements SpawnExecutor by shelling out to argv[0] with
// argv[1:], in req.Dir, with exactly req.Env as the child's environment (the
// ambient environment is not inherited).
// When req.DotDFile names a virtual path, this reference implementation has
// no real compiler to synthesize a reply from, so it returns a nil reply;
// a production spawn executor wired to a real sandboxed RPC would populate
// it from the worker's response payload instead.
func (LocalSpawnExecutor) ExecWithReply(ctx context.Context, req SpawnRequest) (SpawnResults, []byte, error) {
	if len(req.Argv) == 0 {
		return SpawnResults{}, nil, errEmptyArgv
	}
	cmd := exec.CommandContext(ctx, req.Argv[0], req.Argv[1:]...)
	cmd.Dir = req.Dir
	cmd.Env = mergeEnv(req.Env)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	res := SpawnResults{Stdout: stdout.Bytes(), Stderr: stderr.Bytes()}
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			res.ExitCode = exitErr.ExitCode()
			if ws, ok := exitErr.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
				res.Catastrophe = true
			}
		} else {
			res.Err = err
		}
	}
	glog.V(1).Infof("spawn: %v exit=%d err=%v", req.Argv, res.ExitCode, err)
	return res, nil, err
}

type emptyArgvError struct{}

func (emptyArgvError) Error() string { return "empty argv" }

var errEmptyArgv error = emptyArgvError{}

// mergeEnv flattens a map into the "KEY=VALUE" slice os/exec expects,
// deterministic order not required since exec does not care, but kept
// stable for test reproducibility.
func mergeEnv(env map[string]string) []string {
	out := make([]string, 0, len(env))
	for k, v := range env {
		out = append(out, k+"="+v)
	}
	sort.Strings(out)
	return out
}
