package core

import (
	"log"

	"golang.org/x/sys/unix"
)

// ResourceLimits is the set of per-child caps the Resource Limiter applies
// between fork and exec (in practice: immediately after cmd.Start(), before
// the child has any chance to do meaningful work, via Prlimit on its pid).
type ResourceLimits struct {
	CPUSeconds    uint64 // RLIMIT_CPU
	AddressSpace  uint64 // RLIMIT_AS, bytes
	MaxProcesses  uint64 // RLIMIT_NPROC
	MaxFileSize   uint64 // RLIMIT_FSIZE, bytes
	MaxOpenFiles  uint64 // RLIMIT_NOFILE
}

// DefaultResourceLimits matches spec §4.A's defaults.
func DefaultResourceLimits() ResourceLimits {
	return ResourceLimits{
		CPUSeconds:   10,
		AddressSpace: 256 * 1024 * 1024,
		MaxProcesses: 10,
		MaxFileSize:  10 * 1024 * 1024,
		MaxOpenFiles: 64,
	}
}

type rlimitPair struct {
	resource int
	value    uint64
}

func (r ResourceLimits) pairs() []rlimitPair {
	return []rlimitPair{
		{unix.RLIMIT_CPU, r.CPUSeconds},
		{unix.RLIMIT_AS, r.AddressSpace},
		{unix.RLIMIT_NPROC, r.MaxProcesses},
		{unix.RLIMIT_FSIZE, r.MaxFileSize},
		{unix.RLIMIT_CORE, 0},
		{unix.RLIMIT_NOFILE, r.MaxOpenFiles},
	}
}

// ResourceLimiter applies ResourceLimits to an already-started child.
//
// A real pre-exec hook (fork's window between clone and execve) is not
// exposed by os/exec; Prlimit on the freshly-started pid is the closest
// available approximation and is applied before the child is handed its
// stdin, so the window in which it runs unconstrained is a best effort
// minimum.
type ResourceLimiter struct {
	Limits ResourceLimits
}

func NewResourceLimiter(limits ResourceLimits) *ResourceLimiter {
	return &ResourceLimiter{Limits: limits}
}

// Apply sets each configured rlimit on pid. Failures to set an individual
// limit are logged and otherwise ignored: this runs in the race window
// right after an untrusted child starts, and a failed set must never abort
// the test or propagate into the parent's decision logic.
func (l *ResourceLimiter) Apply(pid int) {
	for _, p := range l.Limits.pairs() {
		lim := unix.Rlimit{Cur: p.value, Max: p.value}
		if err := unix.Prlimit(pid, p.resource, &lim, nil); err != nil {
			log.Printf("resource limiter: failed to set rlimit %d=%d for pid %d: %v", p.resource, p.value, pid, err)
		}
	}
}

// Harden is an optional extension point for namespace/seccomp hardening
// beyond plain rlimits. Not wired by default: spec Non-goals explicitly do
// not assume kernel-enforced isolation, so no implementation is provided
// here. A deployment that wants it can set Harden and the supervisor will
// call it right after Apply.
type HardenFunc func(pid int) error
