package core

import (
	"context"
	"time"
)

// pythonAdapter has no compile step: the interpreter runs the submitted
// source directly against a per-invocation sandbox directory.
type pythonAdapter struct {
	sup  *ProcessSupervisor
	root string
}

func (a *pythonAdapter) Run(ctx context.Context, source, stdin string, timeout time.Duration) ExecutionRecord {
	dir, cleanup, err := newSandboxDir(a.root, "py")
	defer cleanup()
	if err != nil {
		return ExecutionRecord{ExitCode: -1, Stderr: "sandbox: " + err.Error()}
	}

	srcPath, err := writeSourceFile(dir, "source.py", source)
	if err != nil {
		return ExecutionRecord{ExitCode: -1, Stderr: "sandbox: " + err.Error()}
	}

	env := scrubbedEnv("/usr/bin:/bin",
		"PYTHONUNBUFFERED=1",
		"PYTHONDONTWRITEBYTECODE=1",
		"PYTHONNOUSERSITE=1",
	)

	return a.sup.Run(ctx, []string{"python3", srcPath}, stdin, dir, env, timeout)
}
