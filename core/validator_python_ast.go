package core

import (
	"regexp"
	"strings"
)

// dangerousPythonImports and dangerousPythonCalls mirror the original
// executor service's analyze_code_ast(): a real Python AST walk flagging
// dangerous imports and dangerous calls. Go has no embedded Python parser,
// so this is a structural approximation: a line-oriented scan that strips
// string/comment contents before matching import and call forms, rather
// than a literal AST walk.
var (
	dangerousPythonImports = []string{
		"os", "subprocess", "sys", "ctypes", "pickle", "marshal", "socket", "importlib",
	}
	dangerousPythonCalls = []string{"eval", "exec", "compile", "__import__"}

	pyImportRe     = regexp.MustCompile(`^\s*(?:import\s+([\w.]+)|from\s+([\w.]+)\s+import)`)
	pyCallRe       = regexp.MustCompile(`\b(\w+)\s*\(`)
	pyOpenWriteRe  = regexp.MustCompile(`\bopen\s*\([^)]*['"]\s*[wWaA][bt]?\s*['"]`)
	tripleQuoteRe  = regexp.MustCompile(`'''|"""`)
)

// pythonASTRejection is the result of the structural pre-pass: Parsed is
// false when the source could not be confidently analyzed (e.g. unbalanced
// triple-quoted strings), in which case the validator falls through to the
// regex denylist per spec §4.D.
type pythonASTRejection struct {
	Parsed   bool
	Rejected bool
	Reason   string
}

// analyzePythonStructure approximates analyze_code_ast(): it walks source
// line by line, skipping over string/comment content, and flags dangerous
// imports and dangerous call names.
func analyzePythonStructure(source string) pythonASTRejection {
	if len(tripleQuoteRe.FindAllString(source, -1))%2 != 0 {
		// Can't reliably tell string content from code; defer to regex.
		return pythonASTRejection{Parsed: false}
	}

	for _, rawLine := range strings.Split(source, "\n") {
		line := stripPythonStringsAndComments(rawLine)
		if line == "" {
			continue
		}

		if m := pyImportRe.FindStringSubmatch(line); m != nil {
			module := m[1]
			if module == "" {
				module = m[2]
			}
			root := strings.SplitN(module, ".", 2)[0]
			for _, bad := range dangerousPythonImports {
				if root == bad {
					return pythonASTRejection{Parsed: true, Rejected: true, Reason: "dangerous import: " + module}
				}
			}
		}

		for _, m := range pyCallRe.FindAllStringSubmatch(line, -1) {
			name := m[1]
			for _, bad := range dangerousPythonCalls {
				if name == bad {
					return pythonASTRejection{Parsed: true, Rejected: true, Reason: "dangerous call: " + name + "()"}
				}
			}
		}

		if pyOpenWriteRe.MatchString(line) {
			return pythonASTRejection{Parsed: true, Rejected: true, Reason: "file opened in write mode"}
		}
	}

	return pythonASTRejection{Parsed: true, Rejected: false}
}

// stripPythonStringsAndComments is a best-effort removal of '...'/"..."
// literals and trailing "# ..." comments so import/call matching doesn't
// trigger on quoted text. It does not handle escaped quotes inside
// strings; source containing those falls back to the regex denylist by
// virtue of producing a conservative (possibly over-eager) scan rather than
// a parse error, which is an acceptable bias for an advisory layer.
func stripPythonStringsAndComments(line string) string {
	var b strings.Builder
	inSingle, inDouble := false, false
	for i := 0; i < len(line); i++ {
		c := line[i]
		switch {
		case c == '\'' && !inDouble:
			inSingle = !inSingle
		case c == '"' && !inSingle:
			inDouble = !inDouble
		case c == '#' && !inSingle && !inDouble:
			return b.String()
		case !inSingle && !inDouble:
			b.WriteByte(c)
		}
	}
	return b.String()
}
