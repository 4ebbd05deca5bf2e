package core

import (
	"context"
	"testing"
	"time"
)

func TestNormalizeStripsTrailingWhitespaceOnly(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"5", "5"},
		{"5   \n", "5"},
		{"5\t\n6  \n", "5\t\n6"},
		{"  5  ", "  5"},
		{"", ""},
	}
	for _, c := range cases {
		if got := normalize(c.in); got != c.want {
			t.Errorf("normalize(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestNormalizeIsIdempotent(t *testing.T) {
	inputs := []string{"5\n", "a  \nb\t\n", "no trailing space"}
	for _, in := range inputs {
		once := normalize(in)
		twice := normalize(once)
		if once != twice {
			t.Errorf("normalize not idempotent for %q: once=%q twice=%q", in, once, twice)
		}
	}
}

func TestClassifyVerdictInteriorTrailingWhitespaceFails(t *testing.T) {
	rec := ExecutionRecord{ExitCode: 0, Stdout: "5 \n6", WallMs: 10}
	v := classifyVerdict("t1", rec, 2*time.Second, "5\n6", "python", 0)
	if v.Status != StatusFailed {
		t.Fatalf("expected failed for stray trailing space on non-final line, got %s", v.Status)
	}
}

func TestClassifyVerdictPrecedence(t *testing.T) {
	timeout := 2 * time.Second
	asCap := uint64(256 * 1024 * 1024)

	tests := []struct {
		name string
		rec  ExecutionRecord
		want VerdictStatus
	}{
		{
			name: "timeout exit code wins over everything",
			rec:  ExecutionRecord{ExitCode: 124, WallMs: 2000, PeakRSS: asCap},
			want: StatusTLE,
		},
		{
			name: "wall time at or above timeout is tle even without sentinel exit",
			rec:  ExecutionRecord{ExitCode: 0, WallMs: 2000},
			want: StatusTLE,
		},
		{
			name: "mle beats generic error when rss crosses 90pct cap",
			rec:  ExecutionRecord{ExitCode: 1, WallMs: 100, PeakRSS: uint64(float64(asCap) * 0.95)},
			want: StatusMLE,
		},
		{
			name: "syntax error detected from stderr marker",
			rec:  ExecutionRecord{ExitCode: 1, WallMs: 50, Stderr: "SyntaxError: invalid syntax"},
			want: StatusSyntaxError,
		},
		{
			name: "runtime error detected from stderr marker",
			rec:  ExecutionRecord{ExitCode: 1, WallMs: 50, Stderr: "Traceback (most recent call last):\nZeroDivisionError"},
			want: StatusRuntimeError,
		},
		{
			name: "unclassified non-zero exit is error",
			rec:  ExecutionRecord{ExitCode: 7, WallMs: 50, Stderr: "boom"},
			want: StatusError,
		},
		{
			name: "matching stdout passes",
			rec:  ExecutionRecord{ExitCode: 0, WallMs: 50, Stdout: "5\n"},
			want: StatusPassed,
		},
		{
			name: "mismatching stdout fails",
			rec:  ExecutionRecord{ExitCode: 0, WallMs: 50, Stdout: "4\n"},
			want: StatusFailed,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			v := classifyVerdict("test_1", tc.rec, timeout, "5", "python", asCap)
			if v.Status != tc.want {
				t.Errorf("got status %q, want %q", v.Status, tc.want)
			}
			if (v.Status == StatusPassed) != v.Passed {
				t.Errorf("passed field inconsistent with status: status=%q passed=%v", v.Status, v.Passed)
			}
		})
	}
}

func TestClassifyVerdictPassedImpliesStatusPassedInvariant(t *testing.T) {
	v := classifyVerdict("t", ExecutionRecord{ExitCode: 0, Stdout: "ok"}, time.Second, "ok", "python", 0)
	if v.Passed && v.Status != StatusPassed {
		t.Fatalf("passed=true but status=%q", v.Status)
	}
}

func TestOrchestratorClampTimeout(t *testing.T) {
	o := &Orchestrator{Config: OrchestratorConfig{
		MinTimeout:     time.Second,
		MaxTimeout:     10 * time.Second,
		DefaultTimeout: 5 * time.Second,
	}}

	cases := []struct {
		in   float64
		want time.Duration
	}{
		{0, 5 * time.Second},
		{999, 10 * time.Second},
		{0.2, time.Second},
		{3, 3 * time.Second},
	}
	for _, c := range cases {
		if got := o.clampTimeout(c.in); got != c.want {
			t.Errorf("clampTimeout(%v) = %v, want %v", c.in, got, c.want)
		}
	}
}

func TestOrchestratorRejectsUnknownLanguage(t *testing.T) {
	o := NewOrchestrator(AdapterTable{}, NewStaticValidator(defaultDenylistForTest(), false), nil, OrchestratorConfig{})
	_, err := o.Run(context.Background(), Submission{Language: "brainfuck", Code: "x", TestCases: []TestCase{{Input: "", ExpectedOutput: ""}}}, RunOptions{})
	if err == nil {
		t.Fatal("expected error for unknown language")
	}
	if _, ok := err.(*RequestError); !ok {
		t.Fatalf("expected *RequestError, got %T", err)
	}
}

func TestOrchestratorRejectsEmptySource(t *testing.T) {
	o := NewOrchestrator(AdapterTable{}, NewStaticValidator(defaultDenylistForTest(), false), nil, OrchestratorConfig{})
	_, err := o.Run(context.Background(), Submission{Language: "python", Code: "", TestCases: []TestCase{{}}}, RunOptions{})
	if err == nil {
		t.Fatal("expected error for empty source")
	}
}

func TestOrchestratorRejectsEmptyTestCaseList(t *testing.T) {
	o := NewOrchestrator(AdapterTable{}, NewStaticValidator(defaultDenylistForTest(), false), nil, OrchestratorConfig{})
	_, err := o.Run(context.Background(), Submission{Language: "python", Code: "print(1)", TestCases: nil}, RunOptions{})
	if err == nil {
		t.Fatal("expected error for empty test case list")
	}
}

func TestOrchestratorRequiresUserAndQuestionIDForSubmit(t *testing.T) {
	o := NewOrchestrator(AdapterTable{}, NewStaticValidator(defaultDenylistForTest(), false), nil, OrchestratorConfig{})
	_, err := o.Run(context.Background(), Submission{Language: "python", Code: "print(1)", TestCases: []TestCase{{}}}, RunOptions{Persist: true})
	if err == nil {
		t.Fatal("expected error when user_id/question_id missing on submit")
	}
}

func defaultDenylistForTest() *DenylistConfig {
	return compileDenylist(defaultDenylist())
}
