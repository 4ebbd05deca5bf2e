package core

import (
	"context"
	"time"
)

// javascriptAdapter runs the submitted source via node with a bounded old
// space, per spec §4.C.
type javascriptAdapter struct {
	sup  *ProcessSupervisor
	root string
}

func (a *javascriptAdapter) Run(ctx context.Context, source, stdin string, timeout time.Duration) ExecutionRecord {
	dir, cleanup, err := newSandboxDir(a.root, "js")
	defer cleanup()
	if err != nil {
		return ExecutionRecord{ExitCode: -1, Stderr: "sandbox: " + err.Error()}
	}

	srcPath, err := writeSourceFile(dir, "main.js", source)
	if err != nil {
		return ExecutionRecord{ExitCode: -1, Stderr: "sandbox: " + err.Error()}
	}

	env := scrubbedEnv("/usr/bin:/bin", "NODE_ENV=production")

	return a.sup.Run(ctx, []string{"node", "--max-old-space-size=64", srcPath}, stdin, dir, env, timeout)
}
