package core

import (
	"context"
	"os"
	"path/filepath"
	"time"
)

// Adapter is the capability set spec §4.C and §9 ask for: a fixed
// lookup-table entry per language tag, replacing any reflection-based
// dispatch. Run reduces a source string + stdin to one ExecutionRecord
// (for a failed compile step, the compiler's record).
type Adapter interface {
	// Run prepares a sandbox, compiles if applicable, executes, and returns
	// the ExecutionRecord to classify. timeout is the already-clamped
	// per-test budget. The compiled-language adapters give the compile step
	// and the run step each the full timeout: compile time is not deducted
	// from the run's budget, and after a successful compile the returned
	// record's WallMs covers the run step only.
	Run(ctx context.Context, source, stdin string, timeout time.Duration) ExecutionRecord
}

// AdapterTable is the fixed tag -> Adapter lookup. Unknown tags must be
// rejected by the orchestrator before ever reaching this table.
type AdapterTable map[Language]Adapter

// NewAdapterTable builds the closed set of adapters over one sandbox root.
// Python, C++ and C# share one supervisor backed by limiter; JavaScript
// and Java each get their own supervisor over a clone of limiter with the
// raised limits below.
// raisedAddressSpace is the 1 GiB ceiling spec §4.A allows adapters to opt
// into "where a toolchain legitimately requires it". The JVM and V8 both
// reserve virtual address space well beyond their configured heap (-Xmx /
// --max-old-space-size) for JIT code regions and GC bookkeeping, so the
// default 256 MiB RLIMIT_AS is enough to make them abort before printing
// anything (original_source/.../executor-service-fastapi.py:94 uses a
// uniform 1 GiB MAX_MEMORY for exactly this reason).
const raisedAddressSpace = 1024 * 1024 * 1024

func NewAdapterTable(sandboxRoot string, limiter *ResourceLimiter) AdapterTable {
	sup := NewProcessSupervisor(limiter)
	jvmLimiter := limiterWithAddressSpace(limiterWithProcesses(limiter, 32), raisedAddressSpace)
	nodeLimiter := limiterWithAddressSpace(limiter, raisedAddressSpace)
	return AdapterTable{
		LangPython:     &pythonAdapter{sup: sup, root: sandboxRoot},
		LangJavaScript: &javascriptAdapter{sup: NewProcessSupervisor(nodeLimiter), root: sandboxRoot},
		LangJava:       &javaAdapter{sup: NewProcessSupervisor(jvmLimiter), root: sandboxRoot, compileLimiter: jvmLimiter},
		LangCpp:        &cppAdapter{sup: sup, root: sandboxRoot},
		LangCSharp:     &csharpAdapter{sup: sup, root: sandboxRoot},
	}
}

// limiterWithProcesses clones limiter with an overridden process cap, for
// toolchains whose native thread pools need more headroom than the default
// (spec §4.A: "adapters for toolchains with native thread pools may raise
// to 50"). Java's compiler/JIT threads are the case named there.
func limiterWithProcesses(limiter *ResourceLimiter, maxProcesses uint64) *ResourceLimiter {
	if limiter == nil {
		return nil
	}
	limits := limiter.Limits
	limits.MaxProcesses = maxProcesses
	return NewResourceLimiter(limits)
}

// limiterWithAddressSpace clones limiter with an overridden RLIMIT_AS, for
// toolchains (JVM, V8) whose virtual address space reservations exceed
// their configured heap (spec §4.A).
func limiterWithAddressSpace(limiter *ResourceLimiter, addressSpace uint64) *ResourceLimiter {
	if limiter == nil {
		return nil
	}
	limits := limiter.Limits
	limits.AddressSpace = addressSpace
	return NewResourceLimiter(limits)
}

// newSandboxDir creates a per-invocation owner-only temp directory under
// root, per the Sandbox glossary entry, and returns a cleanup func that
// unconditionally removes it.
func newSandboxDir(root, prefix string) (dir string, cleanup func(), err error) {
	if root == "" {
		root = os.TempDir()
	}
	if err := os.MkdirAll(root, 0o700); err != nil {
		return "", func() {}, err
	}
	dir, err = os.MkdirTemp(root, prefix+"-*")
	if err != nil {
		return "", func() {}, err
	}
	if err := os.Chmod(dir, 0o700); err != nil {
		os.RemoveAll(dir)
		return "", func() {}, err
	}
	return dir, func() { os.RemoveAll(dir) }, nil
}

// writeSourceFile writes source under dir/name with owner-only permissions.
func writeSourceFile(dir, name, source string) (string, error) {
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(source), 0o600); err != nil {
		return "", err
	}
	return path, nil
}

// scrubbedEnv returns a minimal environment plus extra key=value pairs,
// discarding anything the caller process had set (spec §4.C: env scrub is
// part of every adapter's contract).
func scrubbedEnv(path string, extra ...string) []string {
	env := []string{"PATH=" + path, "HOME=/nonexistent", "LANG=C.UTF-8"}
	return append(env, extra...)
}
