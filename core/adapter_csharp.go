package core

import (
	"context"
	"time"
)

// csharpAdapter compiles Program.cs to an assembly with the legacy Mono
// compiler and runs it. A compile failure short-circuits: the compiler's
// ExecutionRecord is returned as-is. (A modern dotnet-project build is a
// heavier, disk-cache-dependent path; the legacy single-file compile keeps
// the adapter's sandbox lifecycle identical to the other languages.)
type csharpAdapter struct {
	sup  *ProcessSupervisor
	root string
}

func (a *csharpAdapter) Run(ctx context.Context, source, stdin string, timeout time.Duration) ExecutionRecord {
	dir, cleanup, err := newSandboxDir(a.root, "cs")
	defer cleanup()
	if err != nil {
		return ExecutionRecord{ExitCode: -1, Stderr: "sandbox: " + err.Error()}
	}

	if _, err := writeSourceFile(dir, "Program.cs", source); err != nil {
		return ExecutionRecord{ExitCode: -1, Stderr: "sandbox: " + err.Error()}
	}

	env := scrubbedEnv("/usr/bin:/bin")

	compileRec := a.sup.Run(ctx,
		[]string{"mcs", "-out:" + dir + "/Program.exe", dir + "/Program.cs"},
		"", dir, env, timeout)
	if compileRec.ExitCode != 0 {
		return compileRec
	}

	return a.sup.Run(ctx, []string{"mono", dir + "/Program.exe"}, stdin, dir, env, timeout)
}
