// Package redact scrubs token-shaped substrings from captured subprocess
// output before it is written to a run's artifacts/ directory.
package redact

import "regexp"

// Applied names the redaction rules that fired against one input.
type Applied struct {
	Names []string
}

var rules = []struct {
	name string
	re   *regexp.Regexp
	repl string
}{
	{"aws_access_key", regexp.MustCompile(`\bAKIA[0-9A-Z]{16}\b`), "[REDACTED:AWS_ACCESS_KEY]"},
	{"jwt", regexp.MustCompile(`\beyJ[A-Za-z0-9_-]{10,}\.[A-Za-z0-9_-]{10,}\.[A-Za-z0-9_-]{10,}\b`), "[REDACTED:JWT]"},
	{"token_assignment", regexp.MustCompile(`(?i)\bTOKEN\s*=\s*\S+`), "TOKEN=[REDACTED]"},
	{"password_assignment", regexp.MustCompile(`(?i)\bPASSWORD\s*=\s*\S+`), "PASSWORD=[REDACTED]"},
	{"github_token", regexp.MustCompile(`\bgh[pousr]_[A-Za-z0-9]{10,}\b`), "[REDACTED:GITHUB_TOKEN]"},
	{"slack_token", regexp.MustCompile(`\bxox[baprs]-[A-Za-z0-9-]{10,}\b`), "[REDACTED:SLACK_TOKEN]"},
	{"bearer_header", regexp.MustCompile(`(?i)\bBearer\s+[A-Za-z0-9._-]{10,}\b`), "Bearer [REDACTED]"},
	{"pem_private_key", regexp.MustCompile(`(?s)-----BEGIN [A-Z ]*PRIVATE KEY-----.*?-----END [A-Z ]*PRIVATE KEY-----`), "[REDACTED:PRIVATE_KEY]"},
}

// Text scrubs s against every rule, returning the redacted text and the
// set of rule names that matched, in rule-declaration order.
func Text(s string) (string, Applied) {
	applied := Applied{}
	out := s
	for _, r := range rules {
		if r.re.MatchString(out) {
			out = r.re.ReplaceAllString(out, r.repl)
			applied.Names = append(applied.Names, r.name)
		}
	}
	return out, applied
}
