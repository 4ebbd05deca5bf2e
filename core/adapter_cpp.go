package core

import (
	"context"
	"path/filepath"
	"time"
)

// cppAdapter compiles main.cpp to a native binary and runs it. A compile
// failure short-circuits: the compiler's ExecutionRecord is returned as-is.
type cppAdapter struct {
	sup  *ProcessSupervisor
	root string
}

func (a *cppAdapter) Run(ctx context.Context, source, stdin string, timeout time.Duration) ExecutionRecord {
	dir, cleanup, err := newSandboxDir(a.root, "cpp")
	defer cleanup()
	if err != nil {
		return ExecutionRecord{ExitCode: -1, Stderr: "sandbox: " + err.Error()}
	}

	if _, err := writeSourceFile(dir, "main.cpp", source); err != nil {
		return ExecutionRecord{ExitCode: -1, Stderr: "sandbox: " + err.Error()}
	}

	env := scrubbedEnv("/usr/bin:/bin")
	binPath := filepath.Join(dir, "main")

	compileRec := a.sup.Run(ctx,
		[]string{"g++", "-O2", "-std=c++17", "-o", binPath, filepath.Join(dir, "main.cpp")},
		"", dir, env, timeout)
	if compileRec.ExitCode != 0 {
		return compileRec
	}

	return a.sup.Run(ctx, []string{binPath}, stdin, dir, env, timeout)
}
