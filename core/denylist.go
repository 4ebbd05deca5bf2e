package core

import (
	"os"
	"regexp"

	"gopkg.in/yaml.v3"
)

// DenylistRule is one entry of the tagged-variant rule table spec §9 asks
// for: "rules are data, not code." Pattern is a regular expression; Reason
// is surfaced back to the caller on rejection.
type DenylistRule struct {
	Pattern string `yaml:"pattern"`
	Reason  string `yaml:"reason"`

	compiled *regexp.Regexp
}

// DenylistConfig is the on-disk shape of the denylist table: one ordered
// rule list per language tag, plus a "network" group applied to every
// language (spec §4.D rule 4), plus a per-language "obfuscation" group that
// is only consulted when the obfuscation heuristic is enabled.
type DenylistConfig struct {
	Network      []DenylistRule            `yaml:"network"`
	Languages    map[string][]DenylistRule `yaml:"languages"`
	Obfuscation  map[string][]DenylistRule `yaml:"obfuscation"`
}

// LoadDenylist reads a YAML denylist table from path. If path is empty or
// the file does not exist, the built-in default table is used: the table is
// data either way, the file is just an override mechanism for deployments
// that want to tune it without a rebuild. Any other read error, and a YAML
// parse error, is returned to the caller.
func LoadDenylist(path string) (*DenylistConfig, error) {
	cfg := defaultDenylist()
	if path == "" {
		return compileDenylist(cfg), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return compileDenylist(cfg), nil
		}
		return nil, err
	}
	var fileCfg DenylistConfig
	if err := yaml.Unmarshal(data, &fileCfg); err != nil {
		return nil, err
	}
	return compileDenylist(&fileCfg), nil
}

func compileDenylist(cfg *DenylistConfig) *DenylistConfig {
	compileGroup := func(rules []DenylistRule) []DenylistRule {
		out := make([]DenylistRule, 0, len(rules))
		for _, r := range rules {
			re, err := regexp.Compile(r.Pattern)
			if err != nil {
				continue
			}
			r.compiled = re
			out = append(out, r)
		}
		return out
	}

	cfg.Network = compileGroup(cfg.Network)
	for lang, rules := range cfg.Languages {
		cfg.Languages[lang] = compileGroup(rules)
	}
	for lang, rules := range cfg.Obfuscation {
		cfg.Obfuscation[lang] = compileGroup(rules)
	}
	return cfg
}

// defaultDenylist mirrors BLOCKED_PATTERNS / BLOCKED_NETWORK_PATTERNS from
// the original executor service, reorganized as the tagged-variant table
// spec §9 recommends.
func defaultDenylist() *DenylistConfig {
	return &DenylistConfig{
		Network: []DenylistRule{
			{Pattern: `\bsocket\.`, Reason: "raw socket access"},
			{Pattern: `\burllib\.`, Reason: "network access via urllib"},
			{Pattern: `\brequests\.`, Reason: "network access via requests"},
			{Pattern: `\bhttp\.client\b`, Reason: "network access via http.client"},
			{Pattern: `\bfetch\s*\(`, Reason: "network access via fetch"},
			{Pattern: `XMLHttpRequest`, Reason: "network access via XMLHttpRequest"},
			{Pattern: `WebSocket`, Reason: "network access via WebSocket"},
			{Pattern: `\bnet\.(Dial|Listen)\b`, Reason: "network access via net package"},
			{Pattern: `java\.net\.`, Reason: "network access via java.net"},
			{Pattern: `System\.Net\.`, Reason: "network access via System.Net"},
		},
		Languages: map[string][]DenylistRule{
			"python": {
				{Pattern: `\bimport\s+os\b`, Reason: "os module import"},
				{Pattern: `\bimport\s+subprocess\b`, Reason: "subprocess module import"},
				{Pattern: `\bimport\s+ctypes\b`, Reason: "ctypes module import (native interop)"},
				{Pattern: `\b__import__\s*\(`, Reason: "dynamic import primitive"},
				{Pattern: `\bos\.system\s*\(`, Reason: "shell invocation"},
				{Pattern: `\bopen\([^)]*['"]w`, Reason: "filesystem write mode"},
			},
			"javascript": {
				{Pattern: `require\s*\(\s*['"]child_process['"]\s*\)`, Reason: "child_process require"},
				{Pattern: `require\s*\(\s*['"]fs['"]\s*\)`, Reason: "fs require"},
				{Pattern: `\beval\s*\(`, Reason: "dynamic code evaluation"},
				{Pattern: `new\s+Function\s*\(`, Reason: "dynamic function construction"},
			},
			"java": {
				{Pattern: `ProcessBuilder`, Reason: "process spawning via ProcessBuilder"},
				{Pattern: `Runtime\.getRuntime\s*\(\s*\)\.exec`, Reason: "process spawning via Runtime.exec"},
				{Pattern: `\bSystem\.exit\s*\(`, Reason: "direct JVM exit"},
				{Pattern: `\bSystem\.gc\s*\(`, Reason: "direct GC invocation"},
				{Pattern: `java\.lang\.reflect\.`, Reason: "reflection bridge"},
				{Pattern: `new\s+FileOutputStream`, Reason: "filesystem write"},
			},
			"cpp": {
				{Pattern: `#include\s*<fstream>`, Reason: "filesystem write header"},
				{Pattern: `#include\s*<sys/socket\.h>`, Reason: "raw socket header"},
				{Pattern: `\bsystem\s*\(`, Reason: "shell invocation"},
				{Pattern: `\bpopen\s*\(`, Reason: "process spawning via popen"},
				{Pattern: `\bexec[lv]p?e?\s*\(`, Reason: "process spawning via exec family"},
				{Pattern: `\bfork\s*\(`, Reason: "process spawning via fork"},
				{Pattern: `\bclone\s*\(`, Reason: "process spawning via clone"},
			},
			"csharp": {
				{Pattern: `System\.Diagnostics\.Process`, Reason: "process spawning via System.Diagnostics.Process"},
				{Pattern: `\bMarshal\.`, Reason: "unsafe interop via Marshal"},
				{Pattern: `DllImport`, Reason: "native library loading"},
				{Pattern: `File\.(Write|Create|Open)`, Reason: "filesystem write"},
			},
		},
		Obfuscation: map[string][]DenylistRule{
			"python": {
				{Pattern: `(\\x[0-9a-fA-F]{2}){8,}`, Reason: "high density of hex-escaped characters"},
			},
			"javascript": {
				{Pattern: `(\\x[0-9a-fA-F]{2}){8,}`, Reason: "high density of hex-escaped characters"},
			},
		},
	}
}
