package core

import (
	"context"
	"time"
)

// javaAdapter writes Main.java, compiles it with javac (passing only
// -nowarn; no JVM heap or footprint flags are given to the compiler), and
// runs the resulting class with a strictly limited heap. A compile failure
// short-circuits: the compiler's ExecutionRecord is returned as-is.
type javaAdapter struct {
	sup            *ProcessSupervisor
	compileLimiter *ResourceLimiter
	root           string
}

func (a *javaAdapter) Run(ctx context.Context, source, stdin string, timeout time.Duration) ExecutionRecord {
	dir, cleanup, err := newSandboxDir(a.root, "java")
	defer cleanup()
	if err != nil {
		return ExecutionRecord{ExitCode: -1, Stderr: "sandbox: " + err.Error()}
	}

	if _, err := writeSourceFile(dir, "Main.java", source); err != nil {
		return ExecutionRecord{ExitCode: -1, Stderr: "sandbox: " + err.Error()}
	}

	env := scrubbedEnv("/usr/bin:/bin")

	compileSup := a.sup
	if a.compileLimiter != nil {
		compileSup = NewProcessSupervisor(a.compileLimiter)
	}
	compileRec := compileSup.Run(ctx,
		[]string{"javac", "-d", dir, "-nowarn", "Main.java"},
		"", dir, env, timeout)
	if compileRec.ExitCode != 0 {
		return compileRec
	}

	runArgv := []string{
		"java",
		"-Xmx64m", "-Xms16m", "-XX:MaxMetaspaceSize=32m", "-XX:ReservedCodeCacheSize=32m",
		"-XX:+UseSerialGC", "-XX:TieredStopAtLevel=1",
		"-cp", dir, "Main",
	}
	return a.sup.Run(ctx, runArgv, stdin, dir, env, timeout)
}
