package core

import (
	"context"
	"os/exec"
	"strings"
	"testing"
	"time"
)

func TestCappedBufferStopsGrowingAtCap(t *testing.T) {
	buf := newCappedBuffer(8)
	buf.Write([]byte("12345"))
	buf.Write([]byte("67890"))
	got := buf.String()
	if len(got) != 8 {
		t.Fatalf("expected capped buffer to stay at 8 bytes, got %d (%q)", len(got), got)
	}
	if got != "12345678" {
		t.Fatalf("unexpected capped content: %q", got)
	}
}

func TestSafeUTF8ReplacesMalformedBytes(t *testing.T) {
	malformed := []byte{'o', 'k', 0xff, 0xfe}
	out := safeUTF8(malformed)
	if out == "" {
		t.Fatal("expected non-empty replacement output")
	}
	// Must not panic and must preserve the valid prefix.
	if out[:2] != "ok" {
		t.Fatalf("expected valid prefix preserved, got %q", out)
	}
}

func TestExitCodeFromWaitNilIsZero(t *testing.T) {
	if code := exitCodeFromWait(nil); code != 0 {
		t.Fatalf("expected 0 for nil wait error, got %d", code)
	}
}

func TestExitCodeFromWaitNonExitErrorIsMinusOne(t *testing.T) {
	// exec.ErrNotFound is not an *exec.ExitError, so the fallback path is
	// exercised.
	if code := exitCodeFromWait(exec.ErrNotFound); code != -1 {
		t.Fatalf("expected -1 for non-exit error, got %d", code)
	}
}

// TestProcessSupervisorRunCompletesWithinTimeout exercises Run's happy
// path with a toolchain-free argv: no limiter is configured, so this only
// needs /bin/sh, which every CI and dev box has.
func TestProcessSupervisorRunCompletesWithinTimeout(t *testing.T) {
	sup := NewProcessSupervisor(nil)
	rec := sup.Run(context.Background(),
		[]string{"/bin/sh", "-c", "echo hello; sleep 0.2"},
		"", "", []string{"PATH=/usr/bin:/bin"}, 2*time.Second)

	if rec.ExitCode != 0 {
		t.Fatalf("expected exit code 0, got %d (stderr=%q)", rec.ExitCode, rec.Stderr)
	}
	if !strings.Contains(rec.Stdout, "hello") {
		t.Fatalf("expected captured stdout to contain %q, got %q", "hello", rec.Stdout)
	}
	if rec.WallMs < 200 {
		t.Fatalf("expected wall time to reflect the ~200ms sleep, got %dms", rec.WallMs)
	}
	if rec.WallMs >= 2000 {
		t.Fatalf("expected run to finish well before the 2s timeout, took %dms", rec.WallMs)
	}
}

// TestProcessSupervisorRunKillsOnTimeout verifies the timeout-kill path:
// a child that outlives its budget is terminated and reported as the
// timeoutExitCode, with wall time floored at the timeout.
func TestProcessSupervisorRunKillsOnTimeout(t *testing.T) {
	sup := NewProcessSupervisor(nil)
	start := time.Now()
	rec := sup.Run(context.Background(),
		[]string{"/bin/sh", "-c", "sleep 2"},
		"", "", []string{"PATH=/usr/bin:/bin"}, 200*time.Millisecond)
	elapsed := time.Since(start)

	if rec.ExitCode != timeoutExitCode {
		t.Fatalf("expected exit code %d, got %d", timeoutExitCode, rec.ExitCode)
	}
	if rec.WallMs < 200 {
		t.Fatalf("expected WallMs floored at the 200ms timeout, got %dms", rec.WallMs)
	}
	// SIGTERM alone ends a child with no signal handler, so there is no
	// wait for the SIGKILL escalation; the whole call should return within
	// killGracePeriod plus one second.
	if elapsed >= killGracePeriod+time.Second {
		t.Fatalf("expected supervisor to return promptly after kill, took %v", elapsed)
	}
}
