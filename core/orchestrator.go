package core

import (
	"context"
	"crypto/rand"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

// RequestError is a tier-1 request-rejection (spec §7): the caller gets a
// 400 with Reason before any execution happens.
type RequestError struct {
	Reason string
}

func (e *RequestError) Error() string { return e.Reason }

// RunOptions distinguishes the three operation variants that otherwise
// share the exact same pipeline (spec §4.E).
type RunOptions struct {
	Endpoint string // "run" | "runall" | "submit"
	TestType string // "sample" | "all"
	Persist  bool
}

// OrchestratorConfig carries the knobs spec §4.A/§4.E leave to the
// deployment: timeout clamping bounds, the address-space cap MLE is judged
// against, and the whitelist of path prefixes file-referenced test cases
// may resolve against.
type OrchestratorConfig struct {
	MinTimeout          time.Duration
	MaxTimeout          time.Duration
	DefaultTimeout      time.Duration
	AddressSpaceCap     uint64
	AllowedFilePrefixes []string
	Replica             string
	Host                string
}

// Orchestrator implements spec §4.E: validates, dispatches each test case
// to its language adapter, classifies verdicts, aggregates, and (for
// submit) hands a PersistenceRecord to the sink.
type Orchestrator struct {
	Adapters  AdapterTable
	Validator *StaticValidator
	Sink      PersistenceSink
	Config    OrchestratorConfig
}

func NewOrchestrator(adapters AdapterTable, validator *StaticValidator, sink PersistenceSink, cfg OrchestratorConfig) *Orchestrator {
	return &Orchestrator{Adapters: adapters, Validator: validator, Sink: sink, Config: cfg}
}

// Run executes the shared pipeline for all three operation variants.
func (o *Orchestrator) Run(ctx context.Context, sub Submission, opts RunOptions) (*ResponseBundle, error) {
	if sub.Code == "" {
		return nil, &RequestError{Reason: "missing source"}
	}
	if !ValidLanguage(sub.Language) {
		return nil, &RequestError{Reason: "unknown language: " + sub.Language}
	}
	if len(sub.TestCases) == 0 {
		return nil, &RequestError{Reason: "test case list is empty"}
	}
	if opts.Persist && (sub.UserID == "" || sub.QuestionID == "") {
		return nil, &RequestError{Reason: "user_id and question_id are required for submit"}
	}

	if res := o.Validator.Validate(sub.Language, sub.Code); !res.OK {
		return nil, &RequestError{Reason: res.Reason}
	}

	materialized, err := o.materializeTests(sub.TestCases)
	if err != nil {
		return nil, err
	}

	timeout := o.clampTimeout(sub.TimeoutSec)
	adapter, ok := o.Adapters[Language(sub.Language)]
	if !ok {
		return nil, &RequestError{Reason: "no adapter registered for language: " + sub.Language}
	}

	verdicts := make([]Verdict, 0, len(materialized))
	var totalWallMs int64
	var cpuSum float64
	var peakRSS uint64
	passed := 0

	for _, tc := range materialized {
		rec := adapter.Run(ctx, sub.Code, tc.Input, timeout)
		v := classifyVerdict(tc.ID, rec, timeout, tc.ExpectedOutput, sub.Language, o.Config.AddressSpaceCap)
		verdicts = append(verdicts, v)

		totalWallMs += rec.WallMs
		cpuSum += rec.PeakCPU
		if rec.PeakRSS > peakRSS {
			peakRSS = rec.PeakRSS
		}
		if v.Passed {
			passed++
		}
	}

	total := len(verdicts)
	summary := Summary{
		Total:     total,
		Passed:    passed,
		Failed:    total - passed,
		AllPassed: passed == total,
	}
	if total > 0 {
		summary.PassPercentage = roundTo2(float64(passed) / float64(total) * 100)
	}

	avgCPU := 0.0
	if total > 0 {
		avgCPU = cpuSum / float64(total)
	}

	bundle := &ResponseBundle{
		ExecutionID: newExecutionID(),
		Timestamp:   time.Now(),
		Summary:     summary,
		Verdicts:    verdicts,
		Meta: ResponseMeta{
			Replica:           o.Config.Replica,
			Host:              o.Config.Host,
			ClampedTimeoutSec: timeout.Seconds(),
			TotalWallMs:       totalWallMs,
			AvgCPU:            avgCPU,
			PeakRSS:           peakRSS,
			Endpoint:          opts.Endpoint,
			TestType:          opts.TestType,
		},
	}

	if opts.Persist {
		saved := true
		record := PersistenceRecord{
			SubmissionID: bundle.ExecutionID,
			UserID:       sub.UserID,
			QuestionID:   sub.QuestionID,
			Language:     sub.Language,
			Source:       sub.Code,
			Verdicts:     verdicts,
			Summary:      summary,
			ExecutionID:  bundle.ExecutionID,
		}
		if o.Sink == nil {
			saved = false
		} else if err := o.Sink.SaveResult(ctx, record); err != nil {
			log.Printf("persistence: failed to save submission %s: %v", record.SubmissionID, err)
			saved = false
		}
		bundle.SubmissionID = record.SubmissionID
		bundle.SavedToDB = &saved
	}

	return bundle, nil
}

// materializedTest is a TestCase after file references (if any) have been
// resolved to string content; spec §3 invariant: always materialized
// before execution.
type materializedTest struct {
	ID             string
	Input          string
	ExpectedOutput string
}

func (o *Orchestrator) materializeTests(cases []TestCase) ([]materializedTest, error) {
	out := make([]materializedTest, 0, len(cases))
	for i, tc := range cases {
		id := tc.ID
		if id == "" {
			id = fmt.Sprintf("test_%d", i+1)
		}

		input := tc.Input
		if tc.InputFile != "" {
			content, err := o.resolveWhitelistedFile(tc.InputFile)
			if err != nil {
				return nil, err
			}
			input = content
		}

		expected := tc.ExpectedOutput
		if tc.ExpectedFile != "" {
			content, err := o.resolveWhitelistedFile(tc.ExpectedFile)
			if err != nil {
				return nil, err
			}
			expected = content
		}

		out = append(out, materializedTest{ID: id, Input: input, ExpectedOutput: expected})
	}
	return out, nil
}

func (o *Orchestrator) resolveWhitelistedFile(path string) (string, error) {
	clean := filepath.Clean(path)
	allowed := false
	for _, prefix := range o.Config.AllowedFilePrefixes {
		if strings.HasPrefix(clean, prefix) {
			allowed = true
			break
		}
	}
	if !allowed {
		return "", &RequestError{Reason: "file reference outside whitelisted prefix: " + path}
	}
	data, err := os.ReadFile(clean)
	if err != nil {
		return "", &RequestError{Reason: "failed to resolve test file: " + path}
	}
	return string(data), nil
}

// clampTimeout enforces the [1s, 10s] bound from spec §3, defaulting when
// the caller supplied zero.
func (o *Orchestrator) clampTimeout(seconds float64) time.Duration {
	min := o.Config.MinTimeout
	max := o.Config.MaxTimeout
	if min <= 0 {
		min = time.Second
	}
	if max <= 0 {
		max = 10 * time.Second
	}
	if seconds <= 0 {
		if o.Config.DefaultTimeout > 0 {
			return o.Config.DefaultTimeout
		}
		return min
	}
	d := time.Duration(seconds * float64(time.Second))
	if d < min {
		return min
	}
	if d > max {
		return max
	}
	return d
}

// syntaxMarkers and runtimeMarkers are the per-language stderr marker sets
// spec §4.E's classification rule refers to as "a syntax/compile marker
// set" and "a runtime marker set."
var syntaxMarkers = map[string]*regexp.Regexp{
	"python":     regexp.MustCompile(`SyntaxError|IndentationError|TabError`),
	"javascript": regexp.MustCompile(`SyntaxError`),
	"java":       regexp.MustCompile(`error:|cannot find symbol|class, interface`),
	"cpp":        regexp.MustCompile(`error:|fatal error:`),
	"csharp":     regexp.MustCompile(`error CS\d+`),
}

var runtimeMarkers = map[string]*regexp.Regexp{
	"python":     regexp.MustCompile(`Traceback \(most recent call last\)|Error:`),
	"javascript": regexp.MustCompile(`TypeError|ReferenceError|RangeError`),
	"java":       regexp.MustCompile(`Exception in thread`),
	"cpp":        regexp.MustCompile(`terminate called|Segmentation fault|core dumped`),
	"csharp":     regexp.MustCompile(`Unhandled Exception`),
}

// classifyVerdict is the pure function from spec §4.E: status is derived
// solely from the ExecutionRecord, the clamped timeout, the expected
// output, the language (which selects the stderr marker sets), and the
// address-space cap. Precedence is total: earlier rules win outright.
func classifyVerdict(testID string, r ExecutionRecord, timeout time.Duration, expected, language string, asCap uint64) Verdict {
	v := Verdict{
		TestID:   testID,
		Stdout:   r.Stdout,
		Stderr:   r.Stderr,
		ExitCode: r.ExitCode,
		WallMs:   r.WallMs,
		PeakCPU:  r.PeakCPU,
		PeakRSS:  r.PeakRSS,
	}

	switch {
	case r.ExitCode == 124 || r.WallMs >= timeout.Milliseconds():
		v.Status = StatusTLE
	case asCap > 0 && float64(r.PeakRSS) >= 0.9*float64(asCap):
		v.Status = StatusMLE
	case r.ExitCode != 0 && matches(syntaxMarkers[language], r.Stderr):
		v.Status = StatusSyntaxError
	case r.ExitCode != 0 && matches(runtimeMarkers[language], r.Stderr):
		v.Status = StatusRuntimeError
	case r.ExitCode != 0:
		v.Status = StatusError
	case normalize(r.Stdout) == normalize(expected):
		v.Status = StatusPassed
	default:
		v.Status = StatusFailed
	}

	v.Passed = v.Status == StatusPassed
	return v
}

func matches(re *regexp.Regexp, s string) bool {
	return re != nil && re.MatchString(s)
}

// normalize strips trailing whitespace from the end of the string only;
// internal whitespace (including trailing whitespace on non-final lines),
// encoding, and line separators are otherwise preserved (spec §4.E). It is
// idempotent: normalize(normalize(x)) == normalize(x).
func normalize(s string) string {
	return strings.TrimRight(s, " \t\r\n")
}

func roundTo2(v float64) float64 {
	return float64(int(v*100+0.5)) / 100
}

func newExecutionID() string {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return fmt.Sprintf("exec-%d", time.Now().UnixNano())
	}
	// RFC 4122 version 4 formatting.
	b[6] = (b[6] & 0x0f) | 0x40
	b[8] = (b[8] & 0x3f) | 0x80
	return fmt.Sprintf("%x-%x-%x-%x-%x", b[0:4], b[4:6], b[6:8], b[8:10], b[10:16])
}
