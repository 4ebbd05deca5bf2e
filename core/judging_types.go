package core

import "time"

// Language is the closed set of language tags the orchestrator accepts.
type Language string

const (
	LangPython     Language = "python"
	LangJavaScript Language = "javascript"
	LangJava       Language = "java"
	LangCpp        Language = "cpp"
	LangCSharp     Language = "csharp"
)

// ValidLanguage reports whether tag is one of the closed set of adapters.
func ValidLanguage(tag string) bool {
	switch Language(tag) {
	case LangPython, LangJavaScript, LangJava, LangCpp, LangCSharp:
		return true
	default:
		return false
	}
}

// TestCase is a single input/expected-output pair. Input and ExpectedOutput
// are always materialized text by the time an adapter sees the test; file
// references are resolved once at request entry (see materializeTests).
type TestCase struct {
	ID             string `json:"id,omitempty"`
	Input          string `json:"input,omitempty"`
	InputFile      string `json:"input_file,omitempty"`
	ExpectedOutput string `json:"expected_output,omitempty"`
	ExpectedFile   string `json:"expected_output_file,omitempty"`
}

// Submission is the immutable request input shared by run-sample, run-all,
// and submit.
type Submission struct {
	Language   string     `json:"language"`
	Code       string     `json:"code"`
	TestCases  []TestCase `json:"test_cases"`
	UserID     string     `json:"user_id,omitempty"`
	QuestionID string     `json:"question_id,omitempty"`
	TimeoutSec float64    `json:"timeout,omitempty"`
}

// ExecutionRecord is the Process Supervisor's per-test output. ExitCode -1
// means "no exit observed" (e.g. the process could not be started at all).
type ExecutionRecord struct {
	Stdout   string
	Stderr   string
	ExitCode int
	WallMs   int64
	PeakCPU  float64
	PeakRSS  uint64
}

// VerdictStatus is the closed set of per-test classifications.
type VerdictStatus string

const (
	StatusPassed       VerdictStatus = "passed"
	StatusFailed       VerdictStatus = "failed"
	StatusTLE          VerdictStatus = "tle"
	StatusMLE          VerdictStatus = "mle"
	StatusSyntaxError  VerdictStatus = "syntax_error"
	StatusRuntimeError VerdictStatus = "runtime_error"
	StatusError        VerdictStatus = "error"
)

// Verdict is the orchestrator's classification of one ExecutionRecord.
type Verdict struct {
	TestID   string        `json:"test_id"`
	Status   VerdictStatus `json:"status"`
	Passed   bool          `json:"passed"`
	Stdout   string        `json:"stdout"`
	Stderr   string        `json:"stderr"`
	ExitCode int           `json:"exit_code"`
	WallMs   int64         `json:"wall_ms"`
	PeakCPU  float64       `json:"peak_cpu"`
	PeakRSS  uint64        `json:"peak_rss"`
}

// Summary aggregates verdict counts for a ResponseBundle.
type Summary struct {
	Total          int     `json:"total"`
	Passed         int     `json:"passed"`
	Failed         int     `json:"failed"`
	AllPassed      bool    `json:"all_passed"`
	PassPercentage float64 `json:"pass_percentage"`
}

// ResponseMeta carries the non-verdict metadata of a ResponseBundle.
type ResponseMeta struct {
	Replica       string  `json:"replica"`
	Host          string  `json:"host"`
	ClampedTimeoutSec float64 `json:"clamped_timeout_sec"`
	TotalWallMs   int64   `json:"total_wall_ms"`
	AvgCPU        float64 `json:"avg_cpu"`
	PeakRSS       uint64  `json:"peak_rss"`
	Endpoint      string  `json:"endpoint"`
	TestType      string  `json:"test_type"`
}

// ResponseBundle is the top-level response for all three operations.
type ResponseBundle struct {
	ExecutionID    string       `json:"execution_id"`
	Timestamp      time.Time    `json:"timestamp"`
	Summary        Summary      `json:"summary"`
	Verdicts       []Verdict    `json:"verdicts"`
	Meta           ResponseMeta `json:"meta"`
	SubmissionID   string       `json:"submission_id,omitempty"`
	SavedToDB      *bool        `json:"saved_to_db,omitempty"`
}
