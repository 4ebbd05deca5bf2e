package core

const maxSourceBytes = 100 * 1024 // 100 KiB hard cap, spec §4.D rule 2.

// ValidationResult is the Static Validator's output: either ok, or
// rejected with a human-readable reason.
type ValidationResult struct {
	OK     bool
	Reason string
}

// StaticValidator implements spec §4.D: a best-effort advisory layer, not a
// security boundary. Rules run in a fixed order; the first match wins.
type StaticValidator struct {
	Denylist           *DenylistConfig
	ObfuscationEnabled bool
}

func NewStaticValidator(denylist *DenylistConfig, obfuscationEnabled bool) *StaticValidator {
	return &StaticValidator{Denylist: denylist, ObfuscationEnabled: obfuscationEnabled}
}

// Validate applies the rejection rules in spec §4.D order and returns the
// first one that fires.
func (v *StaticValidator) Validate(language, source string) ValidationResult {
	if source == "" {
		return ValidationResult{OK: false, Reason: "empty source"}
	}
	if len(source) > maxSourceBytes {
		return ValidationResult{OK: false, Reason: "source exceeds maximum size of 100KiB"}
	}

	if language == string(LangPython) {
		if ast := analyzePythonStructure(source); ast.Parsed && ast.Rejected {
			// A successful parse that raises a rejection overrides the
			// regex group outright (spec §4.D) — the regex check below is
			// skipped for this request.
			return ValidationResult{OK: false, Reason: ast.Reason}
		}
		// Either the pre-pass could not confidently parse the source, or
		// it parsed clean; either way fall through to the regex group,
		// which still covers deployment-specific rules the pre-pass
		// doesn't know about.
	}
	if r := v.matchGroup(language, source); !r.OK {
		return r
	}

	if v.Denylist != nil {
		for _, rule := range v.Denylist.Network {
			if rule.compiled != nil && rule.compiled.MatchString(source) {
				return ValidationResult{OK: false, Reason: "network access attempt: " + rule.Reason}
			}
		}
	}

	if v.ObfuscationEnabled && v.Denylist != nil {
		for _, rule := range v.Denylist.Obfuscation[language] {
			if rule.compiled != nil && rule.compiled.MatchString(source) {
				return ValidationResult{OK: false, Reason: "obfuscation heuristic: " + rule.Reason}
			}
		}
	}

	return ValidationResult{OK: true}
}

func (v *StaticValidator) matchGroup(language, source string) ValidationResult {
	if v.Denylist == nil {
		return ValidationResult{OK: true}
	}
	for _, rule := range v.Denylist.Languages[language] {
		if rule.compiled != nil && rule.compiled.MatchString(source) {
			return ValidationResult{OK: false, Reason: rule.Reason}
		}
	}
	return ValidationResult{OK: true}
}
