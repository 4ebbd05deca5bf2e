package core

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// compileOverheadBudget covers compile/javac/g++ steps and validator work
// that run outside any single test case's clamped timeout.
const compileOverheadBudget = 20 * time.Second

// RouterDeps bundles everything NewRouter needs to wire the judging
// surface; fields mirror the external collaborators named in spec §1 (the
// orchestrator owns validation/execution, the router only does request
// framing and response shaping).
type RouterDeps struct {
	Orchestrator *Orchestrator
	Redis        RedisClientRaw
	Config       Config
}

// NewRouter builds the HTTP surface from spec §6: three POST judging
// endpoints and one GET health probe. CORS/TLS/auth are out of scope per
// spec §1; a permissive CORS responder is kept only so a browser-based
// judge client can call these endpoints directly without its own proxy.
func NewRouter(deps RouterDeps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(permissiveCORS())

	r.GET("/health", handleHealth(deps))
	r.POST("/run", handleRun(deps))
	r.POST("/runall", handleRunAll(deps))
	r.POST("/submit", handleSubmit(deps))

	return r
}

func permissiveCORS() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type")
		if c.Request.Method == http.MethodOptions {
			c.Status(http.StatusNoContent)
			c.Abort()
			return
		}
		c.Next()
	}
}

func handleHealth(deps RouterDeps) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"version": deps.Config.Version,
			"replica": deps.Config.ReplicaName,
		})
	}
}

// runRequestBody is the shared wire shape of /run, /runall, /submit; fields
// unused by a given endpoint are simply ignored (e.g. sample_test_cases on
// /submit).
type runRequestBody struct {
	Language        string     `json:"language"`
	Code            string     `json:"code"`
	TestCases       []TestCase `json:"test_cases"`
	SampleTestCases []TestCase `json:"sample_test_cases"`
	UserID          string     `json:"user_id"`
	QuestionID      string     `json:"question_id"`
	Timeout         float64    `json:"timeout"`
}

func handleRun(deps RouterDeps) gin.HandlerFunc {
	return func(c *gin.Context) {
		var body runRequestBody
		if err := c.ShouldBindJSON(&body); err != nil {
			respondError(c, http.StatusBadRequest, "INVALID_BODY", "malformed request body")
			return
		}
		sub := Submission{
			Language:   body.Language,
			Code:       body.Code,
			TestCases:  body.SampleTestCases,
			UserID:     body.UserID,
			QuestionID: body.QuestionID,
			TimeoutSec: body.Timeout,
		}
		runAndRespond(c, deps, sub, RunOptions{Endpoint: "run", TestType: "sample", Persist: false})
	}
}

func handleRunAll(deps RouterDeps) gin.HandlerFunc {
	return func(c *gin.Context) {
		var body runRequestBody
		if err := c.ShouldBindJSON(&body); err != nil {
			respondError(c, http.StatusBadRequest, "INVALID_BODY", "malformed request body")
			return
		}
		sub := Submission{
			Language:   body.Language,
			Code:       body.Code,
			TestCases:  body.TestCases,
			UserID:     body.UserID,
			QuestionID: body.QuestionID,
			TimeoutSec: body.Timeout,
		}
		runAndRespond(c, deps, sub, RunOptions{Endpoint: "runall", TestType: "all", Persist: false})
	}
}

func handleSubmit(deps RouterDeps) gin.HandlerFunc {
	return func(c *gin.Context) {
		var body runRequestBody
		if err := c.ShouldBindJSON(&body); err != nil {
			respondError(c, http.StatusBadRequest, "INVALID_BODY", "malformed request body")
			return
		}
		if body.UserID == "" || body.QuestionID == "" {
			respondError(c, http.StatusBadRequest, "MISSING_FIELD", "user_id and question_id are required")
			return
		}
		sub := Submission{
			Language:   body.Language,
			Code:       body.Code,
			TestCases:  body.TestCases,
			UserID:     body.UserID,
			QuestionID: body.QuestionID,
			TimeoutSec: body.Timeout,
		}
		runAndRespond(c, deps, sub, RunOptions{Endpoint: "submit", TestType: "all", Persist: true})
	}
}

// runAndRespond is the common tail shared by all three handlers: invoke the
// orchestrator, map a RequestError to 400, anything else to 500 per spec
// §7's error tiers.
func runAndRespond(c *gin.Context, deps RouterDeps, sub Submission, opts RunOptions) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), requestBudget(deps, sub))
	defer cancel()

	bundle, err := deps.Orchestrator.Run(ctx, sub, opts)
	if err != nil {
		var reqErr *RequestError
		if errors.As(err, &reqErr) {
			respondError(c, http.StatusBadRequest, "VALIDATION_FAILED", reqErr.Reason)
			return
		}
		respondError(c, http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", "unexpected failure while judging submission")
		return
	}

	c.JSON(http.StatusOK, bundle)
}

// requestBudget sizes the request-scoped context to the worst case of
// running every test case at the orchestrator's configured MaxTimeout, plus
// a fixed allowance for validation/compilation overhead outside any single
// test's timeout. Tests execute sequentially (spec §4.E), so a per-request
// deadline shorter than len(tests)*MaxTimeout would kill later tests before
// their own per-test timeout elapses and misreport them as tle.
func requestBudget(deps RouterDeps, sub Submission) time.Duration {
	n := len(sub.TestCases)
	if n == 0 {
		n = 1
	}
	maxTimeout := deps.Orchestrator.Config.MaxTimeout
	if maxTimeout <= 0 {
		maxTimeout = 10 * time.Second
	}
	return time.Duration(n)*maxTimeout + compileOverheadBudget
}
